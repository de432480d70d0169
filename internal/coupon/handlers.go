package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// AdminStore is the persistence surface behind the admin endpoint.
type AdminStore interface {
	CreateCoupon(ctx context.Context, c Coupon) (Coupon, error)
}

// Handler exposes the coupon validation and admin endpoints.
type Handler struct {
	Svc   *Validator
	Store AdminStore
}

type validatePayload struct {
	Code       string  `json:"code"`
	CustomerID *string `json:"customerId"`
}

type validateResponse struct {
	Valid     bool    `json:"valid"`
	Error     string  `json:"error,omitempty"`
	Coupon    *Coupon `json:"coupon,omitempty"`
	Promotion any     `json:"promotion,omitempty"`
}

// ValidateHTTP handles POST /coupons/validate. Business failures come back as
// a valid=false result, never as an HTTP error.
func (h *Handler) ValidateHTTP(w http.ResponseWriter, r *http.Request) {
	var payload validatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.Code) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "code is required", nil)
		return
	}
	res, err := h.Svc.Validate(r.Context(), payload.Code, payload.CustomerID)
	if err != nil {
		countValidation("error")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to validate coupon", nil)
		return
	}
	resp := validateResponse{Valid: res.Valid, Error: res.Error, Coupon: res.Coupon}
	if res.Promotion != nil {
		resp.Promotion = map[string]any{
			"id":   res.Promotion.ID,
			"name": res.Promotion.Name,
			"type": res.Promotion.Rule.Type(),
		}
	}
	if res.Valid {
		countValidation("valid")
	} else {
		countValidation("invalid")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

type createPayload struct {
	Code        string     `json:"code"`
	Active      bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	MaxUses     *int32     `json:"maxUses"`
	CustomerID  *string    `json:"customerId"`
	PromotionID *string    `json:"promotionId"`
}

// Create inserts a new coupon.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	code := strings.TrimSpace(payload.Code)
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "code is required", nil)
		return
	}
	c := Coupon{
		Code:       code,
		Active:     payload.Active,
		ExpiresAt:  payload.ExpiresAt,
		MaxUses:    payload.MaxUses,
		CustomerID: payload.CustomerID,
	}
	if payload.PromotionID != nil {
		id, err := uuid.Parse(*payload.PromotionID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid promotion id", nil)
			return
		}
		c.PromotionID = &id
	}
	created, err := h.Store.CreateCoupon(r.Context(), c)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

func countValidation(result string) {
	if obs.CouponValidationTotal != nil {
		obs.CouponValidationTotal.WithLabelValues(result).Inc()
	}
}
