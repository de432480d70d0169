package promo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakePromoStore struct {
	records []Record
	calls   int
}

func (f *fakePromoStore) ListEnabledPromotions(context.Context) ([]Record, error) {
	f.calls++
	return f.records, nil
}

func testCatalog(t *testing.T, records []Record) (*Catalog, *fakePromoStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	fake := &fakePromoStore{records: records}
	return &Catalog{
		Store:  fake,
		Cache:  NewCache(client, time.Minute),
		Logger: zerolog.Nop(),
	}, fake
}

func percentRecord(name string, percent int64, priority int, productID uuid.UUID, createdAt time.Time) Record {
	return Record{
		ID:           uuid.New(),
		Name:         name,
		Type:         TypePercentageOff,
		Active:       true,
		StartDate:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Priority:     priority,
		Percent:      decimal.NewFromInt(percent),
		AllLocations: true,
		ProductIDs:   []uuid.UUID{productID},
		CreatedAt:    createdAt,
	}
}

func TestSelectorPicksLargestDiscount(t *testing.T) {
	product := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	catalog, _ := testCatalog(t, []Record{
		percentRecord("small", 5, 0, product, now.Add(-2*time.Hour)),
		percentRecord("big", 20, 0, product, now.Add(-time.Hour)),
	})
	selector := &Selector{Catalog: catalog}

	sel, err := selector.Best(context.Background(), []Line{line(product, 1, 1000)}, nil, nil, now)
	require.NoError(t, err)
	require.NotNil(t, sel)
	require.Equal(t, "big", sel.Promotion.Name)
	require.True(t, decimal.NewFromInt(200).Equal(sel.Discount.Amount))
}

func TestSelectorTieKeepsFirstSeen(t *testing.T) {
	product := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	// equal discounts, higher priority enumerates first and must win
	first := percentRecord("priority", 10, 5, product, now.Add(-2*time.Hour))
	second := percentRecord("later", 10, 1, product, now.Add(-time.Hour))
	catalog, _ := testCatalog(t, []Record{first, second})
	selector := &Selector{Catalog: catalog}

	sel, err := selector.Best(context.Background(), []Line{line(product, 1, 1000)}, nil, nil, now)
	require.NoError(t, err)
	require.NotNil(t, sel)
	require.Equal(t, "priority", sel.Promotion.Name)
}

func TestSelectorNothingApplies(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	catalog, _ := testCatalog(t, []Record{
		percentRecord("deal", 10, 0, uuid.New(), now),
	})
	selector := &Selector{Catalog: catalog}

	sel, err := selector.Best(context.Background(), []Line{line(uuid.New(), 1, 1000)}, nil, nil, now)
	require.NoError(t, err)
	require.Nil(t, sel)
}

func TestCatalogCachesSnapshot(t *testing.T) {
	product := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	catalog, fake := testCatalog(t, []Record{
		percentRecord("deal", 10, 0, product, now),
	})

	_, err := catalog.Active(context.Background(), now, nil)
	require.NoError(t, err)
	_, err = catalog.Active(context.Background(), now, nil)
	require.NoError(t, err)
	require.Equal(t, 1, fake.calls)
}

func TestCatalogFiltersScheduleAndLocation(t *testing.T) {
	product := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	expired := percentRecord("expired", 10, 0, product, now)
	end := now.Add(-time.Hour)
	expired.EndDate = &end

	scoped := percentRecord("scoped", 10, 0, product, now)
	scoped.AllLocations = false
	scoped.LocationIDs = []uuid.UUID{uuid.New()}

	everywhere := percentRecord("everywhere", 10, 0, product, now)

	catalog, _ := testCatalog(t, []Record{expired, scoped, everywhere})

	// no location supplied: no location filtering, only the schedule applies
	active, err := catalog.Active(context.Background(), now, nil)
	require.NoError(t, err)
	require.Len(t, active, 2)

	location := scoped.LocationIDs[0]
	active, err = catalog.Active(context.Background(), now, &location)
	require.NoError(t, err)
	require.Len(t, active, 2)

	elsewhere := uuid.New()
	active, err = catalog.Active(context.Background(), now, &elsewhere)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "everywhere", active[0].Name)
}

func TestCatalogSkipsMalformedRecords(t *testing.T) {
	product := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	bad := percentRecord("bad", 10, 0, product, now)
	bad.Type = Type("NO_SUCH_RULE")
	good := percentRecord("good", 10, 0, product, now)

	catalog, _ := testCatalog(t, []Record{bad, good})

	active, err := catalog.Active(context.Background(), now, nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "good", active[0].Name)
}
