package promo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/events"
)

type fakeAdminStore struct {
	byID    map[uuid.UUID]Record
	created []Record
	updated []Record
}

func (f *fakeAdminStore) ListEnabledPromotions(context.Context) ([]Record, error) {
	return nil, nil
}

func (f *fakeAdminStore) GetPromotion(_ context.Context, id uuid.UUID) (Record, error) {
	rec, ok := f.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (f *fakeAdminStore) CreatePromotion(_ context.Context, rec Record) (Record, error) {
	rec.ID = uuid.New()
	f.created = append(f.created, rec)
	return rec, nil
}

func (f *fakeAdminStore) UpdatePromotion(_ context.Context, rec Record) (Record, error) {
	f.updated = append(f.updated, rec)
	return rec, nil
}

type fakeEventStore struct {
	events []events.Event
}

func (f *fakeEventStore) InsertEvent(_ context.Context, ev events.Event) (events.Event, error) {
	f.events = append(f.events, ev)
	return ev, nil
}

func adminHandler(store *fakeAdminStore, eventStore *fakeEventStore) *Handler {
	return &Handler{
		Store:  store,
		Bus:    &events.Bus{Store: eventStore},
		Logger: zerolog.Nop(),
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCreateAppliesPerCustomerDefault(t *testing.T) {
	store := &fakeAdminStore{}
	h := adminHandler(store, &fakeEventStore{})
	h.DefaultPerCustomer = 3

	rec := postJSON(t, h.Create, "/admin/promotions", Record{
		Name:      "weekday special",
		Type:      TypePercentageOff,
		Active:    true,
		StartDate: time.Now().Add(-time.Hour),
		Percent:   decimal.NewFromInt(10),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	require.NotNil(t, store.created[0].MaxUsesPerCustomer)
	require.Equal(t, int32(3), *store.created[0].MaxUsesPerCustomer)
}

func TestCreateKeepsExplicitPerCustomerLimit(t *testing.T) {
	store := &fakeAdminStore{}
	h := adminHandler(store, &fakeEventStore{})
	h.DefaultPerCustomer = 3

	limit := int32(1)
	rec := postJSON(t, h.Create, "/admin/promotions", Record{
		Name:               "one per customer",
		Type:               TypePercentageOff,
		Active:             true,
		StartDate:          time.Now().Add(-time.Hour),
		Percent:            decimal.NewFromInt(10),
		MaxUsesPerCustomer: &limit,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	require.Equal(t, int32(1), *store.created[0].MaxUsesPerCustomer)
}

func TestCreateEmitsPromotionChanged(t *testing.T) {
	store := &fakeAdminStore{}
	eventStore := &fakeEventStore{}
	h := adminHandler(store, eventStore)

	rec := postJSON(t, h.Create, "/admin/promotions", Record{
		Name:      "spring sale",
		Type:      TypePercentageOff,
		Active:    true,
		StartDate: time.Now().Add(-time.Hour),
		Percent:   decimal.NewFromInt(5),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, eventStore.events, 1)
	require.Equal(t, events.TopicPromotionChanged, eventStore.events[0].Topic)
	require.Equal(t, store.created[0].ID, eventStore.events[0].AggregateID)
}

func TestUpdateEmitsPromotionChanged(t *testing.T) {
	store := &fakeAdminStore{}
	eventStore := &fakeEventStore{}
	h := adminHandler(store, eventStore)

	id := uuid.New()
	raw, err := json.Marshal(Record{
		Name:      "spring sale v2",
		Type:      TypePercentageOff,
		Active:    true,
		StartDate: time.Now().Add(-time.Hour),
		Percent:   decimal.NewFromInt(7),
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/admin/promotions/"+id.String(), bytes.NewReader(raw))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, eventStore.events, 1)
	require.Equal(t, events.TopicPromotionChanged, eventStore.events[0].Topic)
	require.Equal(t, id, eventStore.events[0].AggregateID)
}

func TestPreviewStoredMalformedRecordIsInconsistent(t *testing.T) {
	id := uuid.New()
	store := &fakeAdminStore{byID: map[uuid.UUID]Record{
		id: {ID: id, Name: "legacy", Type: Type("LEGACY_TIERED")},
	}}
	h := adminHandler(store, &fakeEventStore{})

	promoID := id.String()
	rec := postJSON(t, h.Preview, "/admin/promotions/preview", map[string]any{
		"promotionId": promoID,
		"lines":       []map[string]any{{"productId": uuid.New().String(), "quantity": 1, "unitPrice": "1000"}},
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INCONSISTENT", body.Error.Code)
}

func TestPreviewInlineMalformedRecordIsValidation(t *testing.T) {
	h := adminHandler(&fakeAdminStore{}, &fakeEventStore{})

	rec := postJSON(t, h.Preview, "/admin/promotions/preview", map[string]any{
		"promotion": map[string]any{"name": "typo", "type": "PRECENTAGE_OFF"},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION", body.Error.Code)
}
