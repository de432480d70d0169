package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/catalog"
)

// Price sources reported by the resolver.
const (
	SourceBase     = "base"
	SourceSpecific = "specific"
)

// PriceResult is the resolved effective unit price for a product.
type PriceResult struct {
	Price     decimal.Decimal `json:"price"`
	BasePrice decimal.Decimal `json:"basePrice"`
	Source    string          `json:"source"`

	// carried along so cart pricing needs a single catalog lookup per line
	Name       string     `json:"name,omitempty"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
}

// Resolver resolves the effective base unit price for a product, preferring
// the freshest live location/channel override and falling back to the
// catalog price.
type Resolver struct {
	Products  catalog.ProductStore
	Overrides catalog.OverrideStore
}

// Resolve looks up the product and, when a location or channel is given,
// selects the override with the latest EffectiveFrom among those matching the
// context and not yet expired. Returns catalog.ErrProductNotFound when the
// product id is unknown.
func (r *Resolver) Resolve(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID, channel *string, asOf time.Time) (PriceResult, error) {
	product, err := r.Products.GetProduct(ctx, productID)
	if err != nil {
		return PriceResult{}, err
	}
	result := PriceResult{
		Price:      product.BasePrice,
		BasePrice:  product.BasePrice,
		Source:     SourceBase,
		Name:       product.Name,
		CategoryID: product.CategoryID,
	}
	if locationID == nil && channel == nil {
		return result, nil
	}
	overrides, err := r.Overrides.ListPriceOverrides(ctx, productID, asOf)
	if err != nil {
		return PriceResult{}, err
	}
	// overrides arrive EffectiveFrom-descending; the first live match wins
	for _, o := range overrides {
		if !o.MatchesContext(locationID, channel) {
			continue
		}
		if !o.LiveAt(asOf) {
			continue
		}
		result.Price = o.Price
		result.Source = SourceSpecific
		break
	}
	return result, nil
}
