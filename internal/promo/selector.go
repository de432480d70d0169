package promo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Selection pairs the winning promotion with its computed discount.
type Selection struct {
	Promotion Promotion
	Discount  Discount
}

// Selector picks the single best automatic promotion for a cart.
type Selector struct {
	Catalog     *Catalog
	Redemptions RedemptionCounter
}

// Best evaluates every offerable promotion against the cart and returns the
// one with the strictly greatest discount, or nil when nothing applies.
// On an exact tie the promotion seen first in catalog order wins; the
// comparison is deliberately strict so later candidates cannot displace it.
func (s *Selector) Best(ctx context.Context, lines []Line, customerID *string, locationID *uuid.UUID, asOf time.Time) (*Selection, error) {
	promotions, err := s.Catalog.Active(ctx, asOf, locationID)
	if err != nil {
		return nil, err
	}
	var best *Selection
	for _, p := range promotions {
		d, err := Evaluate(ctx, p, lines, customerID, s.Redemptions)
		if err != nil {
			return nil, err
		}
		if d == nil {
			continue
		}
		if best == nil || d.Amount.GreaterThan(best.Discount.Amount) {
			best = &Selection{Promotion: p, Discount: *d}
		}
	}
	return best, nil
}
