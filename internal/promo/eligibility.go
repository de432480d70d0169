package promo

import (
	"context"

	"github.com/google/uuid"
)

// RedemptionCounter exposes the historical per-customer redemption count kept
// by the usage ledger.
type RedemptionCounter interface {
	CountRedemptions(ctx context.Context, promotionID uuid.UUID, customerID string) (int64, error)
}

// QualifyingLines returns the cart lines inside the promotion's scope: the
// product is linked directly or the line's category is linked.
func QualifyingLines(p Promotion, lines []Line) []Line {
	products := make(map[uuid.UUID]bool, len(p.Products))
	for _, lp := range p.Products {
		products[lp.ProductID] = true
	}
	categories := make(map[uuid.UUID]bool, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		categories[id] = true
	}
	var out []Line
	for _, l := range lines {
		if products[l.ProductID] {
			out = append(out, l)
			continue
		}
		if l.CategoryID != nil && categories[*l.CategoryID] {
			out = append(out, l)
		}
	}
	return out
}

// Eligible applies the promotion's quantity and quota constraints to the
// qualifying lines. Failing any constraint excludes the promotion entirely;
// there is no partial application.
func (p Promotion) Eligible(ctx context.Context, qualifying []Line, customerID *string, redemptions RedemptionCounter) (bool, error) {
	if len(qualifying) == 0 {
		return false, nil
	}
	if p.MinQuantity > 0 {
		totalQty := 0
		for _, l := range qualifying {
			totalQty += l.Quantity
		}
		if totalQty < p.MinQuantity {
			return false, nil
		}
	}
	if p.MaxTotalUses != nil && p.CurrentUses >= *p.MaxTotalUses {
		return false, nil
	}
	if customerID != nil && *customerID != "" && p.MaxUsesPerCustomer != nil && redemptions != nil {
		used, err := redemptions.CountRedemptions(ctx, p.ID, *customerID)
		if err != nil {
			return false, err
		}
		if used >= int64(*p.MaxUsesPerCustomer) {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate runs the full pipeline for one promotion against a cart: scope,
// constraints, then the rule formula. A nil discount means the promotion
// contributes nothing to this cart.
func Evaluate(ctx context.Context, p Promotion, lines []Line, customerID *string, redemptions RedemptionCounter) (*Discount, error) {
	qualifying := QualifyingLines(p, lines)
	ok, err := p.Eligible(ctx, qualifying, customerID, redemptions)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return p.Rule.Apply(qualifying, lines), nil
}
