package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pos/internal/coupon"
)

// GetCouponByCode loads a coupon by its code.
func (s *Store) GetCouponByCode(ctx context.Context, code string) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := s.DB.QueryRow(ctx, `
		SELECT code, active, expires_at, max_uses, current_uses, customer_id, promotion_id
		FROM coupons
		WHERE code = $1`, code).
		Scan(&c.Code, &c.Active, &c.ExpiresAt, &c.MaxUses, &c.CurrentUses, &c.CustomerID, &c.PromotionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Coupon{}, coupon.ErrNotFound
		}
		return coupon.Coupon{}, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

// CreateCoupon inserts a new coupon.
func (s *Store) CreateCoupon(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO coupons (code, active, expires_at, max_uses, customer_id, promotion_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING current_uses`,
		c.Code, c.Active, c.ExpiresAt, c.MaxUses, c.CustomerID, c.PromotionID).
		Scan(&c.CurrentUses)
	if err != nil {
		return coupon.Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return c, nil
}
