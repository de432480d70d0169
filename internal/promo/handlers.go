package promo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/events"
)

// AdminStore is the persistence surface behind the admin endpoints.
type AdminStore interface {
	Store
	GetPromotion(ctx context.Context, id uuid.UUID) (Record, error)
	CreatePromotion(ctx context.Context, rec Record) (Record, error)
	UpdatePromotion(ctx context.Context, rec Record) (Record, error)
}

// Handler exposes administrative promotion management endpoints.
// DefaultPerCustomer, when positive, is applied to new promotions that do not
// set their own per-customer limit.
type Handler struct {
	Store              AdminStore
	Catalog            *Catalog
	Bus                *events.Bus
	Logger             zerolog.Logger
	DefaultPerCustomer int
}

// Create inserts a new promotion.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	rec.ID = uuid.Nil
	if strings.TrimSpace(rec.Name) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "name is required", nil)
		return
	}
	if rec.MaxUsesPerCustomer == nil && h.DefaultPerCustomer > 0 {
		limit := int32(h.DefaultPerCustomer)
		rec.MaxUsesPerCustomer = &limit
	}
	// hydration validates the type and rule parameters up front
	if _, err := rec.Promotion(); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	created, err := h.Store.CreatePromotion(r.Context(), rec)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "promotion already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to create promotion", nil)
		return
	}
	h.invalidate(r)
	h.emitChanged(r, created.ID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update replaces an existing promotion identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid promotion id", nil)
		return
	}
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	rec.ID = id
	if _, err := rec.Promotion(); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	updated, err := h.Store.UpdatePromotion(r.Context(), rec)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "promotion not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update promotion", nil)
		return
	}
	h.invalidate(r)
	h.emitChanged(r, updated.ID)
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// List returns the enabled promotion set as stored.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListEnabledPromotions(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list promotions", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": records})
}

type previewLine struct {
	ProductID  string          `json:"productId"`
	CategoryID *string         `json:"categoryId"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

type previewRequest struct {
	PromotionID *string       `json:"promotionId"`
	Promotion   *Record       `json:"promotion"`
	CustomerID  *string       `json:"customerId"`
	Lines       []previewLine `json:"lines"`
}

// Preview simulates one promotion against a hypothetical cart without
// persisting anything. Quota checks against historical redemptions are
// skipped; the preview answers "would the formula fire", not "may this
// customer redeem".
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	var rec Record
	var stored bool
	switch {
	case req.Promotion != nil:
		rec = *req.Promotion
	case req.PromotionID != nil:
		stored = true
		id, err := uuid.Parse(*req.PromotionID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid promotion id", nil)
			return
		}
		rec, err = h.Store.GetPromotion(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "promotion not found", nil)
				return
			}
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load promotion", nil)
			return
		}
	default:
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "promotion or promotionId is required", nil)
		return
	}
	p, err := rec.Promotion()
	if err != nil {
		// a stored record that no longer hydrates is corrupt data, not a
		// caller mistake
		if stored {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInconsistent, "stored promotion is malformed", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	lines := make([]Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id", nil)
			return
		}
		line := Line{ProductID: productID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
		if l.CategoryID != nil {
			categoryID, err := uuid.Parse(*l.CategoryID)
			if err != nil {
				common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid category id", nil)
				return
			}
			line.CategoryID = &categoryID
		}
		lines = append(lines, line)
	}
	d, err := Evaluate(r.Context(), p, lines, req.CustomerID, nil)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to evaluate promotion", nil)
		return
	}
	resp := map[string]any{"eligible": d != nil}
	if d != nil {
		resp["discount"] = d.Amount
		if len(d.Items) > 0 {
			resp["items"] = d.Items
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *Handler) invalidate(r *http.Request) {
	if h.Catalog == nil {
		return
	}
	if err := h.Catalog.Invalidate(r.Context()); err != nil {
		h.Logger.Warn().Err(err).Msg("invalidate promotion snapshot")
	}
}

func (h *Handler) emitChanged(r *http.Request, id uuid.UUID) {
	if h.Bus == nil {
		return
	}
	if _, err := h.Bus.Emit(r.Context(), events.TopicPromotionChanged, id, map[string]any{
		"promotionId": id,
	}); err != nil {
		h.Logger.Warn().Err(err).Str("promotion_id", id.String()).Msg("emit promotion.changed failed")
	}
}
