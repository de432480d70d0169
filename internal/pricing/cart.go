package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/coupon"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/promo"
)

// Discount origins reported on the cart result and in metrics.
const (
	OriginAuto   = "auto"
	OriginCoupon = "coupon"
)

// CartRequest describes a cart to price. AsOf defaults to the service clock.
type CartRequest struct {
	Lines      []LineInput
	CustomerID *string
	LocationID *uuid.UUID
	Channel    *string
	CouponCode *string
	AsOf       *time.Time
}

// LineInput is one requested cart line.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// PricedLine is a cart line after price resolution and discount distribution.
type PricedLine struct {
	ProductID  uuid.UUID       `json:"productId"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
	Discount   decimal.Decimal `json:"discount"`
	Source     string          `json:"source,omitempty"`
	CategoryID *uuid.UUID      `json:"-"`
	Unresolved bool            `json:"unresolved,omitempty"`
}

// AppliedPromotion identifies the promotion behind the applied discount.
type AppliedPromotion struct {
	ID   uuid.UUID  `json:"id"`
	Name string     `json:"name"`
	Type promo.Type `json:"type"`
}

// AppliedCoupon reports a successfully applied coupon.
type AppliedCoupon struct {
	Code      string           `json:"code"`
	Promotion AppliedPromotion `json:"promotion"`
}

// CartTotal is the fully priced cart. At most one of Promotion and Coupon is
// set: Promotion names an automatically applied promotion, Coupon embeds the
// promotion it carried.
type CartTotal struct {
	Lines       []PricedLine      `json:"lines"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Discount    decimal.Decimal   `json:"discount"`
	Total       decimal.Decimal   `json:"total"`
	Promotion   *AppliedPromotion `json:"promotion,omitempty"`
	Coupon      *AppliedCoupon    `json:"coupon,omitempty"`
	CouponError string            `json:"couponError,omitempty"`
}

// Service orchestrates cart pricing: price resolution, coupon handling,
// automatic promotion selection, distribution and final totals.
type Service struct {
	Resolver *Resolver
	Coupons  *coupon.Validator
	Selector *promo.Selector
	Logger   zerolog.Logger
	Now      func() time.Time
}

// PriceCart prices the cart. A coupon, when present and valid, takes
// precedence over automatic promotions even when its discount is zero; an
// invalid coupon is reported on the result and the best automatic promotion
// applies instead. At most one discount ever applies. The total is clamped at
// zero and rounded to a whole currency unit.
func (s *Service) PriceCart(ctx context.Context, req CartRequest) (CartTotal, error) {
	asOf := s.now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	priced := make([]PricedLine, 0, len(req.Lines))
	engineLines := make([]promo.Line, 0, len(req.Lines))
	subtotal := decimal.Zero
	for _, in := range req.Lines {
		resolved, err := s.Resolver.Resolve(ctx, in.ProductID, req.LocationID, req.Channel, asOf)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				// missing products price at zero instead of failing the cart
				s.Logger.Warn().Str("product_id", in.ProductID.String()).
					Msg("cart line references unknown product, pricing at zero")
				if obs.UnresolvedProductTotal != nil {
					obs.UnresolvedProductTotal.Inc()
				}
				priced = append(priced, PricedLine{
					ProductID:  in.ProductID,
					Quantity:   in.Quantity,
					UnitPrice:  decimal.Zero,
					LineTotal:  decimal.Zero,
					Discount:   decimal.Zero,
					Unresolved: true,
				})
				engineLines = append(engineLines, promo.Line{ProductID: in.ProductID, Quantity: in.Quantity, UnitPrice: decimal.Zero})
				continue
			}
			s.countCart("error")
			return CartTotal{}, err
		}
		line := PricedLine{
			ProductID:  in.ProductID,
			Name:       resolved.Name,
			Quantity:   in.Quantity,
			UnitPrice:  resolved.Price,
			LineTotal:  resolved.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
			Discount:   decimal.Zero,
			Source:     resolved.Source,
			CategoryID: resolved.CategoryID,
		}
		priced = append(priced, line)
		engineLines = append(engineLines, promo.Line{
			ProductID:  in.ProductID,
			CategoryID: resolved.CategoryID,
			Quantity:   in.Quantity,
			UnitPrice:  resolved.Price,
		})
		subtotal = subtotal.Add(line.LineTotal)
	}

	result := CartTotal{Lines: priced, Subtotal: subtotal, Discount: decimal.Zero}

	var applied *promo.Discount
	couponApplied := false
	if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
		res, err := s.Coupons.Validate(ctx, *req.CouponCode, req.CustomerID)
		if err != nil {
			s.countCart("error")
			return CartTotal{}, err
		}
		if res.Valid {
			// a valid coupon owns the cart even when its promotion yields
			// nothing; automatic promotions are not consulted
			couponApplied = true
			result.Coupon = &AppliedCoupon{
				Code: res.Coupon.Code,
				Promotion: AppliedPromotion{
					ID:   res.Promotion.ID,
					Name: res.Promotion.Name,
					Type: res.Promotion.Rule.Type(),
				},
			}
			d, err := promo.Evaluate(ctx, *res.Promotion, engineLines, req.CustomerID, s.Selector.Redemptions)
			if err != nil {
				s.countCart("error")
				return CartTotal{}, err
			}
			// the coupon descriptor already names its promotion; the
			// top-level promotion slot stays empty on the coupon path
			if d != nil {
				applied = d
				s.countApplied(res.Promotion.Rule.Type(), OriginCoupon)
			}
		} else {
			result.CouponError = res.Error
		}
	}

	if !couponApplied {
		sel, err := s.Selector.Best(ctx, engineLines, req.CustomerID, req.LocationID, asOf)
		if err != nil {
			s.countCart("error")
			return CartTotal{}, err
		}
		if sel != nil {
			applied = &sel.Discount
			result.Promotion = &AppliedPromotion{
				ID:   sel.Promotion.ID,
				Name: sel.Promotion.Name,
				Type: sel.Promotion.Rule.Type(),
			}
			s.countApplied(sel.Promotion.Rule.Type(), OriginAuto)
		}
	}

	if applied != nil {
		result.Discount = applied.Amount
		if len(applied.Items) > 0 {
			allocateItems(applied.Items, result.Lines)
		} else {
			distributeProportional(applied.Amount, result.Lines)
		}
	}

	total := subtotal.Sub(result.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	result.Total = total.Round(0)
	s.countCart("ok")
	return result, nil
}

func (s *Service) countCart(outcome string) {
	if obs.CartPricingTotal != nil {
		obs.CartPricingTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countApplied(t promo.Type, origin string) {
	if obs.PromotionAppliedTotal != nil {
		obs.PromotionAppliedTotal.WithLabelValues(string(t), origin).Inc()
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
