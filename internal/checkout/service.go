package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/events"
	"github.com/noah-isme/backend-pos/internal/ledger"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/store"
)

// Input describes a checkout request.
type Input struct {
	Lines      []pricing.LineInput
	CustomerID *string
	LocationID *uuid.UUID
	Channel    *string
	CouponCode *string
}

// Output is the persisted sale plus the priced cart it was built from.
type Output struct {
	SaleID uuid.UUID         `json:"saleId"`
	Cart   pricing.CartTotal `json:"cart"`
}

// Service completes a sale: it prices the cart, persists the sale and its
// lines, and settles usage counters, all inside one transaction.
type Service struct {
	Pool           *pgxpool.Pool
	Store          *store.Store
	Pricing        *pricing.Service
	Bus            *events.Bus
	Logger         zerolog.Logger
	DefaultChannel string
}

// Create prices and persists the sale. Usage increments run inside the sale
// transaction, so a quota exhausted by a concurrent checkout rolls this one
// back with ledger.ErrQuotaExceeded.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Pool == nil || s.Store == nil || s.Pricing == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if len(in.Lines) == 0 {
		return Output{}, errors.New("cart is empty")
	}
	cart, err := s.Pricing.PriceCart(ctx, pricing.CartRequest{
		Lines:      in.Lines,
		CustomerID: in.CustomerID,
		LocationID: in.LocationID,
		Channel:    in.Channel,
		CouponCode: in.CouponCode,
	})
	if err != nil {
		return Output{}, fmt.Errorf("price cart: %w", err)
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	st := s.Store.WithTx(tx)
	led := &ledger.Ledger{DB: tx}

	channel := s.DefaultChannel
	if in.Channel != nil && *in.Channel != "" {
		channel = *in.Channel
	}
	sale := store.Sale{
		ID:         uuid.New(),
		CustomerID: in.CustomerID,
		LocationID: in.LocationID,
		Channel:    channel,
		Subtotal:   cart.Subtotal.Round(0).IntPart(),
		Discount:   cart.Discount.Round(0).IntPart(),
		Total:      cart.Total.IntPart(),
	}
	// the applied promotion is either the automatic one or the coupon's
	var appliedPromotionID *uuid.UUID
	switch {
	case cart.Promotion != nil:
		id := cart.Promotion.ID
		appliedPromotionID = &id
	case cart.Coupon != nil && cart.Discount.IsPositive():
		id := cart.Coupon.Promotion.ID
		appliedPromotionID = &id
	}
	if cart.Coupon != nil {
		code := cart.Coupon.Code
		sale.CouponCode = &code
	}
	sale.PromotionID = appliedPromotionID
	sale, err = st.InsertSale(ctx, sale)
	if err != nil {
		return Output{}, err
	}
	lines := make([]store.SaleLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, store.SaleLine{
			SaleID:    sale.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  int32(l.Quantity),
			UnitPrice: l.UnitPrice.Round(0).IntPart(),
			LineTotal: l.LineTotal.Round(0).IntPart(),
			Discount:  l.Discount.Round(0).IntPart(),
		})
	}
	if err := st.InsertSaleLines(ctx, lines); err != nil {
		return Output{}, err
	}

	// counters settle only when a discount actually applied
	if cart.Discount.IsPositive() && appliedPromotionID != nil {
		if err := led.RecordPromotionUse(ctx, *appliedPromotionID); err != nil {
			return Output{}, quotaError(err)
		}
		if cart.Coupon != nil {
			if err := led.RecordCouponUse(ctx, cart.Coupon.Code); err != nil {
				return Output{}, quotaError(err)
			}
		}
		if in.CustomerID != nil && *in.CustomerID != "" {
			if err := led.RecordRedemption(ctx, *appliedPromotionID, *in.CustomerID, sale.ID); err != nil {
				return Output{}, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicSaleCompleted, sale.ID, map[string]any{
			"saleId":      sale.ID,
			"total":       sale.Total,
			"promotionId": sale.PromotionID,
			"couponCode":  sale.CouponCode,
		}); err != nil {
			s.Logger.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("emit sale.completed failed")
		}
	}
	return Output{SaleID: sale.ID, Cart: cart}, nil
}

// quotaError upgrades a ledger quota rejection to the conflict the HTTP edge
// renders; other errors pass through untouched.
func quotaError(err error) error {
	if errors.Is(err, ledger.ErrQuotaExceeded) {
		return common.NewAppError(common.CodeQuotaExceeded,
			"promotion or coupon quota exhausted", http.StatusConflict, err)
	}
	return err
}
