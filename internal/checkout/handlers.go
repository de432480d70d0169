package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type linePayload struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type checkoutPayload struct {
	Lines      []linePayload `json:"lines" validate:"required,min=1,dive"`
	CustomerID *string       `json:"customerId"`
	LocationID *string       `json:"locationId" validate:"omitempty,uuid"`
	Channel    *string       `json:"channel"`
	CouponCode *string       `json:"couponCode"`
}

// Create handles POST /checkout.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload checkoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	in := Input{
		CustomerID: payload.CustomerID,
		Channel:    payload.Channel,
		CouponCode: payload.CouponCode,
	}
	if payload.LocationID != nil {
		id, err := uuid.Parse(*payload.LocationID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid location id", nil)
			return
		}
		in.LocationID = &id
	}
	for _, l := range payload.Lines {
		id, err := uuid.Parse(l.ProductID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id", nil)
			return
		}
		in.Lines = append(in.Lines, pricing.LineInput{ProductID: id, Quantity: l.Quantity})
	}
	out, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.Render(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
