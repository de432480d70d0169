package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-pos/internal/obs"
)

// ErrQuotaExceeded indicates a usage increment was rejected because the
// promotion or coupon already reached its quota.
var ErrQuotaExceeded = errors.New("usage quota exceeded")

// DB is the subset of pgx the ledger needs. Both *pgxpool.Pool and pgx.Tx
// satisfy it, so the same ledger code runs standalone or inside a checkout
// transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger records promotion and coupon usage. Increments are guarded in SQL so
// concurrent checkouts cannot overshoot a quota.
type Ledger struct {
	DB DB
}

// RecordPromotionUse increments the promotion's usage counter. The guard in
// the WHERE clause makes the increment and the quota check one atomic
// statement; zero rows affected means the quota is exhausted.
func (l *Ledger) RecordPromotionUse(ctx context.Context, promotionID uuid.UUID) error {
	tag, err := l.DB.Exec(ctx, `
		UPDATE promotions
		SET current_uses = current_uses + 1
		WHERE id = $1
		  AND (max_total_uses IS NULL OR current_uses < max_total_uses)`,
		promotionID)
	if err != nil {
		return fmt.Errorf("record promotion use: %w", err)
	}
	if tag.RowsAffected() == 0 {
		countQuota("promotion")
		return ErrQuotaExceeded
	}
	return nil
}

// RecordCouponUse increments the coupon's usage counter with the same atomic
// quota guard as promotions.
func (l *Ledger) RecordCouponUse(ctx context.Context, code string) error {
	tag, err := l.DB.Exec(ctx, `
		UPDATE coupons
		SET current_uses = current_uses + 1
		WHERE code = $1
		  AND (max_uses IS NULL OR current_uses < max_uses)`,
		code)
	if err != nil {
		return fmt.Errorf("record coupon use: %w", err)
	}
	if tag.RowsAffected() == 0 {
		countQuota("coupon")
		return ErrQuotaExceeded
	}
	return nil
}

// RecordRedemption writes the per-customer redemption row backing
// per-customer quotas. Replaying the same sale is a no-op.
func (l *Ledger) RecordRedemption(ctx context.Context, promotionID uuid.UUID, customerID string, saleID uuid.UUID) error {
	_, err := l.DB.Exec(ctx, `
		INSERT INTO promotion_redemptions (promotion_id, customer_id, sale_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (promotion_id, sale_id) DO NOTHING`,
		promotionID, customerID, saleID)
	if err != nil {
		return fmt.Errorf("record redemption: %w", err)
	}
	return nil
}

// CountRedemptions returns how many times the customer has redeemed the
// promotion. Implements the counter the promotion engine consults for
// per-customer quotas.
func (l *Ledger) CountRedemptions(ctx context.Context, promotionID uuid.UUID, customerID string) (int64, error) {
	var n int64
	err := l.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM promotion_redemptions
		WHERE promotion_id = $1 AND customer_id = $2`,
		promotionID, customerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}

func countQuota(kind string) {
	if obs.QuotaExceededTotal != nil {
		obs.QuotaExceededTotal.WithLabelValues(kind).Inc()
	}
}
