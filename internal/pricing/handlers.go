package pricing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the price resolution and cart pricing endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type cartLinePayload struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type cartPayload struct {
	Lines      []cartLinePayload `json:"lines" validate:"required,min=1,dive"`
	CustomerID *string           `json:"customerId"`
	LocationID *string           `json:"locationId" validate:"omitempty,uuid"`
	Channel    *string           `json:"channel"`
	CouponCode *string           `json:"couponCode"`
}

func (p cartPayload) toRequest() (CartRequest, error) {
	req := CartRequest{
		CustomerID: p.CustomerID,
		Channel:    p.Channel,
		CouponCode: p.CouponCode,
	}
	if p.LocationID != nil {
		id, err := uuid.Parse(*p.LocationID)
		if err != nil {
			return CartRequest{}, err
		}
		req.LocationID = &id
	}
	for _, l := range p.Lines {
		id, err := uuid.Parse(l.ProductID)
		if err != nil {
			return CartRequest{}, err
		}
		req.Lines = append(req.Lines, LineInput{ProductID: id, Quantity: l.Quantity})
	}
	return req, nil
}

// PriceCart handles POST /pricing/cart.
func (h *Handler) PriceCart(w http.ResponseWriter, r *http.Request) {
	var payload cartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid id in payload", nil)
		return
	}
	result, err := h.Svc.PriceCart(r.Context(), req)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to price cart", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// ProductPrice handles GET /products/{id}/price. Unlike cart pricing, an
// unknown product here is a hard 404.
func (h *Handler) ProductPrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id", nil)
		return
	}
	var locationID *uuid.UUID
	if raw := strings.TrimSpace(r.URL.Query().Get("locationId")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid location id", nil)
			return
		}
		locationID = &parsed
	}
	var channel *string
	if raw := strings.TrimSpace(r.URL.Query().Get("channel")); raw != "" {
		channel = &raw
	}
	result, err := h.Svc.Resolver.Resolve(r.Context(), id, locationID, channel, h.Svc.now())
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to resolve price", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
