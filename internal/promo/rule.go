package promo

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is a cart line as the promotion engine sees it: already priced,
// positive quantity.
type Line struct {
	ProductID  uuid.UUID
	CategoryID *uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
}

// Total returns the line value at the resolved unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AppliedItem records how much of a discount a particular line absorbs.
type AppliedItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// Discount is the outcome of running a rule over qualifying lines. Items is
// populated only by rules that target specific units (BuyXGetY); for the
// value-based rules the orchestrator spreads Amount proportionally instead.
type Discount struct {
	Amount decimal.Decimal
	Items  []AppliedItem
}

// Rule is the closed set of promotion formulas. Each variant carries only the
// parameters its formula needs; adding a type means adding a variant here and
// a case in Record.rule, nothing else.
type Rule interface {
	Type() Type
	// Apply computes the discount for the qualifying lines. The full cart is
	// passed alongside because bundle gating looks beyond the qualifying set.
	// A nil result means the rule contributes nothing.
	Apply(qualifying, cart []Line) *Discount

	sealedRule()
}

// PercentageOff discounts a percentage of the qualifying value.
type PercentageOff struct {
	Percent decimal.Decimal
}

func (PercentageOff) Type() Type  { return TypePercentageOff }
func (PercentageOff) sealedRule() {}
func (r PercentageOff) Apply(qualifying, _ []Line) *Discount {
	return percentOf(linesValue(qualifying), r.Percent)
}

// AmountOff discounts a fixed amount, capped at the qualifying value so a
// single promotion can never push a cart negative.
type AmountOff struct {
	Amount decimal.Decimal
}

func (AmountOff) Type() Type  { return TypeAmountOff }
func (AmountOff) sealedRule() {}
func (r AmountOff) Apply(qualifying, _ []Line) *Discount {
	value := linesValue(qualifying)
	discount := r.Amount
	if discount.GreaterThan(value) {
		discount = value
	}
	if !discount.IsPositive() {
		return nil
	}
	return &Discount{Amount: discount}
}

// BuyXGetY makes every GetQty units free per BuyQty+GetQty units bought.
// The free units are taken from the cheapest qualifying units first.
type BuyXGetY struct {
	BuyQty int
	GetQty int
}

func (BuyXGetY) Type() Type  { return TypeBuyXGetY }
func (BuyXGetY) sealedRule() {}
func (r BuyXGetY) Apply(qualifying, _ []Line) *Discount {
	setSize := r.BuyQty + r.GetQty
	if setSize <= 0 || r.GetQty <= 0 {
		return nil
	}
	totalQty := 0
	for _, l := range qualifying {
		totalQty += l.Quantity
	}
	freeUnits := (totalQty / setSize) * r.GetQty
	if freeUnits <= 0 {
		return nil
	}

	// cheapest units become free; keep input order stable on equal prices
	sorted := make([]Line, len(qualifying))
	copy(sorted, qualifying)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UnitPrice.LessThan(sorted[j].UnitPrice)
	})

	total := decimal.Zero
	items := make([]AppliedItem, 0, len(sorted))
	remaining := freeUnits
	for _, l := range sorted {
		if remaining <= 0 {
			break
		}
		free := l.Quantity
		if free > remaining {
			free = remaining
		}
		amount := l.UnitPrice.Mul(decimal.NewFromInt(int64(free)))
		items = append(items, AppliedItem{ProductID: l.ProductID, Quantity: free, Amount: amount})
		total = total.Add(amount)
		remaining -= free
	}
	if !total.IsPositive() {
		return nil
	}
	return &Discount{Amount: total, Items: items}
}

// VolumeDiscount is a percentage discount that only kicks in once the
// qualifying quantity reaches the threshold.
type VolumeDiscount struct {
	MinQuantity int
	Percent     decimal.Decimal
}

func (VolumeDiscount) Type() Type  { return TypeVolumeDiscount }
func (VolumeDiscount) sealedRule() {}
func (r VolumeDiscount) Apply(qualifying, _ []Line) *Discount {
	totalQty := 0
	for _, l := range qualifying {
		totalQty += l.Quantity
	}
	if totalQty < r.MinQuantity {
		return nil
	}
	return percentOf(linesValue(qualifying), r.Percent)
}

// Bundle prices the qualifying lines at a fixed amount once every required
// product is present somewhere in the cart.
type Bundle struct {
	Amount   decimal.Decimal
	Required []uuid.UUID
}

func (Bundle) Type() Type  { return TypeBundle }
func (Bundle) sealedRule() {}
func (r Bundle) Apply(qualifying, cart []Line) *Discount {
	for _, id := range r.Required {
		present := false
		for _, l := range cart {
			if l.ProductID == id {
				present = true
				break
			}
		}
		if !present {
			return nil
		}
	}
	value := linesValue(qualifying)
	discount := value.Sub(r.Amount)
	if discount.GreaterThan(value) {
		discount = value
	}
	if !discount.IsPositive() {
		return nil
	}
	return &Discount{Amount: discount}
}

// HappyHour shares the percentage formula; its time-of-day behaviour lives
// entirely in the schedule the catalog already enforces.
type HappyHour struct {
	Percent decimal.Decimal
}

func (HappyHour) Type() Type  { return TypeHappyHour }
func (HappyHour) sealedRule() {}
func (r HappyHour) Apply(qualifying, _ []Line) *Discount {
	return percentOf(linesValue(qualifying), r.Percent)
}

func linesValue(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}

func percentOf(value, percent decimal.Decimal) *Discount {
	if !percent.IsPositive() || !value.IsPositive() {
		return nil
	}
	discount := value.Mul(percent).Div(decimal.NewFromInt(100))
	if !discount.IsPositive() {
		return nil
	}
	return &Discount{Amount: discount}
}
