package pricing

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/catalog"
)

type fakeCatalog struct {
	products  map[uuid.UUID]catalog.Product
	overrides map[uuid.UUID][]catalog.PriceOverride
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) ListPriceOverrides(_ context.Context, productID uuid.UUID, asOf time.Time) ([]catalog.PriceOverride, error) {
	var out []catalog.PriceOverride
	for _, o := range f.overrides[productID] {
		if !o.EffectiveFrom.After(asOf) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
	})
	return out, nil
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:  map[uuid.UUID]catalog.Product{},
		overrides: map[uuid.UUID][]catalog.PriceOverride{},
	}
}

func (f *fakeCatalog) addProduct(price int64) uuid.UUID {
	id := uuid.New()
	f.products[id] = catalog.Product{ID: id, Name: "product", BasePrice: decimal.NewFromInt(price)}
	return id
}

func TestResolveBasePrice(t *testing.T) {
	fake := newFakeCatalog()
	id := fake.addProduct(12000)
	r := &Resolver{Products: fake, Overrides: fake}

	got, err := r.Resolve(context.Background(), id, nil, nil, time.Now())
	require.NoError(t, err)
	require.Equal(t, SourceBase, got.Source)
	require.True(t, decimal.NewFromInt(12000).Equal(got.Price))
}

func TestResolveUnknownProduct(t *testing.T) {
	r := &Resolver{Products: newFakeCatalog(), Overrides: newFakeCatalog()}
	_, err := r.Resolve(context.Background(), uuid.New(), nil, nil, time.Now())
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestResolveLatestMatchingOverrideWins(t *testing.T) {
	fake := newFakeCatalog()
	id := fake.addProduct(10000)
	location := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	fake.overrides[id] = []catalog.PriceOverride{
		{ProductID: id, LocationID: &location, Price: decimal.NewFromInt(9000), EffectiveFrom: now.Add(-48 * time.Hour)},
		{ProductID: id, LocationID: &location, Price: decimal.NewFromInt(8500), EffectiveFrom: now.Add(-24 * time.Hour)},
	}

	r := &Resolver{Products: fake, Overrides: fake}
	got, err := r.Resolve(context.Background(), id, &location, nil, now)
	require.NoError(t, err)
	require.Equal(t, SourceSpecific, got.Source)
	require.True(t, decimal.NewFromInt(8500).Equal(got.Price))
	require.True(t, decimal.NewFromInt(10000).Equal(got.BasePrice))
}

func TestResolveExpiredOverrideIgnored(t *testing.T) {
	fake := newFakeCatalog()
	id := fake.addProduct(10000)
	location := uuid.New()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)

	fake.overrides[id] = []catalog.PriceOverride{
		{ProductID: id, LocationID: &location, Price: decimal.NewFromInt(8000), EffectiveFrom: now.Add(-48 * time.Hour), EffectiveTo: &expired},
	}

	r := &Resolver{Products: fake, Overrides: fake}
	got, err := r.Resolve(context.Background(), id, &location, nil, now)
	require.NoError(t, err)
	require.Equal(t, SourceBase, got.Source)
	require.True(t, decimal.NewFromInt(10000).Equal(got.Price))
}

func TestResolveContextMismatchFallsBack(t *testing.T) {
	fake := newFakeCatalog()
	id := fake.addProduct(10000)
	other := uuid.New()
	requested := uuid.New()
	now := time.Now()
	channel := "web"

	fake.overrides[id] = []catalog.PriceOverride{
		{ProductID: id, LocationID: &other, Price: decimal.NewFromInt(8000), EffectiveFrom: now.Add(-time.Hour)},
	}

	r := &Resolver{Products: fake, Overrides: fake}
	got, err := r.Resolve(context.Background(), id, &requested, &channel, now)
	require.NoError(t, err)
	require.Equal(t, SourceBase, got.Source)
}

func TestResolveChannelOnlyOverride(t *testing.T) {
	fake := newFakeCatalog()
	id := fake.addProduct(10000)
	now := time.Now()
	channel := "web"

	fake.overrides[id] = []catalog.PriceOverride{
		{ProductID: id, Channel: &channel, Price: decimal.NewFromInt(9500), EffectiveFrom: now.Add(-time.Hour)},
	}

	r := &Resolver{Products: fake, Overrides: fake}
	got, err := r.Resolve(context.Background(), id, nil, &channel, now)
	require.NoError(t, err)
	require.Equal(t, SourceSpecific, got.Source)
	require.True(t, decimal.NewFromInt(9500).Equal(got.Price))
}
