package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/promo"
)

// distributeProportional spreads a discount across the lines in proportion to
// each line's share of the combined value. The denominator is the whole cart,
// not just promotion-qualifying lines. A zero-value cart skips distribution.
func distributeProportional(discount decimal.Decimal, lines []PricedLine) {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	if !total.IsPositive() || !discount.IsPositive() {
		return
	}
	for i := range lines {
		share := lines[i].LineTotal.Div(total)
		lines[i].Discount = discount.Mul(share)
	}
}

// allocateItems writes per-unit discounts (e.g. the free units of a
// buy-x-get-y promotion) onto the matching cart lines.
func allocateItems(items []promo.AppliedItem, lines []PricedLine) {
	for _, item := range items {
		remaining := item.Amount
		for i := range lines {
			if lines[i].ProductID != item.ProductID || !remaining.IsPositive() {
				continue
			}
			lines[i].Discount = lines[i].Discount.Add(remaining)
			remaining = decimal.Zero
		}
	}
}
