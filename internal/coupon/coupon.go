package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the coupon code does not exist.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a redeemable code linked to a promotion.
type Coupon struct {
	Code        string     `json:"code"`
	Active      bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	MaxUses     *int32     `json:"maxUses,omitempty"`
	CurrentUses int32      `json:"currentUses"`
	// CustomerID restricts redemption to a single customer when set.
	CustomerID  *string    `json:"customerId,omitempty"`
	PromotionID *uuid.UUID `json:"promotionId,omitempty"`
}

// Store loads coupons by code.
type Store interface {
	GetCouponByCode(ctx context.Context, code string) (Coupon, error)
}
