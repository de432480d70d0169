package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestHandler(fc *fakeCatalog) *Handler {
	return &Handler{
		Svc:      newCartService(fc, &fakePromos{}, nil),
		Validate: validator.New(),
	}
}

func TestProductPriceHandler(t *testing.T) {
	fc := newFakeCatalog()
	id := fc.addProduct(15000)
	h := newTestHandler(fc)

	req := httptest.NewRequest(http.MethodGet, "/products/"+id.String()+"/price", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.ProductPrice(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data PriceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, SourceBase, body.Data.Source)
	require.Equal(t, "15000", body.Data.Price.String())
}

func TestProductPriceHandlerNotFound(t *testing.T) {
	h := newTestHandler(newFakeCatalog())

	missing := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/products/"+missing.String()+"/price", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", missing.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.ProductPrice(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestPriceCartHandler(t *testing.T) {
	fc := newFakeCatalog()
	id := fc.addProduct(2000)
	h := newTestHandler(fc)

	payload := fmt.Sprintf(`{"lines":[{"productId":%q,"quantity":2}]}`, id)
	req := httptest.NewRequest(http.MethodPost, "/pricing/cart", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.PriceCart(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data CartTotal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "4000", body.Data.Total.String())
}

func TestPriceCartHandlerValidation(t *testing.T) {
	h := newTestHandler(newFakeCatalog())

	cases := []string{
		`{`,
		`{"lines":[]}`,
		`{"lines":[{"productId":"not-a-uuid","quantity":1}]}`,
		fmt.Sprintf(`{"lines":[{"productId":%q,"quantity":0}]}`, uuid.New()),
	}
	for _, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/pricing/cart", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.PriceCart(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %s", payload)
	}
}
