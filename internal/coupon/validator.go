package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/promo"
)

// User-facing validation messages, checked in this exact order.
const (
	MsgNotFound      = "Coupon not found."
	MsgInactive      = "Coupon is not active."
	MsgExpired       = "Coupon has expired."
	MsgUsageLimit    = "Coupon usage limit reached."
	MsgWrongCustomer = "Coupon is not valid for this customer."
	MsgNoPromotion   = "Coupon is not linked to any promotion."
)

// PromotionSource loads the promotion a coupon points at.
type PromotionSource interface {
	GetPromotion(ctx context.Context, id uuid.UUID) (promo.Record, error)
}

// Result is the outcome of validating a coupon. Business failures live in
// Error; only infrastructure problems surface as Go errors from Validate.
type Result struct {
	Valid     bool
	Error     string
	Coupon    *Coupon
	Promotion *promo.Promotion
}

// Validator checks a coupon code against its redemption constraints and
// resolves the linked promotion. It intentionally re-checks only the linked
// promotion's active flag, not its temporal window: coupons bypass schedule
// windows.
type Validator struct {
	Coupons    Store
	Promotions PromotionSource
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Validate resolves the code and walks the failure checks in order:
// existence, active flag, expiry, usage quota, customer scope, promotion link,
// promotion active flag.
func (v *Validator) Validate(ctx context.Context, code string, customerID *string) (Result, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Result{Error: MsgNotFound}, nil
	}
	c, err := v.Coupons.GetCouponByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{Error: MsgNotFound}, nil
		}
		return Result{}, err
	}
	if !c.Active {
		return Result{Coupon: &c, Error: MsgInactive}, nil
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(v.now()) {
		return Result{Coupon: &c, Error: MsgExpired}, nil
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return Result{Coupon: &c, Error: MsgUsageLimit}, nil
	}
	if c.CustomerID != nil {
		if customerID == nil || *customerID != *c.CustomerID {
			return Result{Coupon: &c, Error: MsgWrongCustomer}, nil
		}
	}
	if c.PromotionID == nil {
		return Result{Coupon: &c, Error: MsgNoPromotion}, nil
	}
	record, err := v.Promotions.GetPromotion(ctx, *c.PromotionID)
	if err != nil {
		if errors.Is(err, promo.ErrNotFound) {
			v.Logger.Warn().Str("coupon", c.Code).Str("promotion_id", c.PromotionID.String()).
				Msg("coupon references missing promotion")
			return Result{Coupon: &c, Error: MsgNoPromotion}, nil
		}
		return Result{}, err
	}
	p, err := record.Promotion()
	if err != nil {
		v.Logger.Warn().Err(err).Str("coupon", c.Code).Msg("coupon references malformed promotion")
		return Result{Coupon: &c, Error: MsgNoPromotion}, nil
	}
	if !p.Active {
		return Result{Coupon: &c, Error: fmt.Sprintf("Promotion %s is not active.", p.Name)}, nil
	}
	return Result{Valid: true, Coupon: &c, Promotion: &p}, nil
}

func (v *Validator) now() time.Time {
	if v != nil && v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
