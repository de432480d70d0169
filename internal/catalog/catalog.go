package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound indicates the requested product does not exist in the catalog.
var ErrProductNotFound = errors.New("product not found")

// Product is the catalog view the pricing engine needs: identity, category and base price.
type Product struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	CategoryID *uuid.UUID      `json:"categoryId,omitempty"`
	BasePrice  decimal.Decimal `json:"basePrice"`
}

// PriceOverride is a location/channel scoped price with an effective window.
// A nil LocationID or Channel means the override is not constrained on that axis.
type PriceOverride struct {
	ProductID     uuid.UUID       `json:"productId"`
	LocationID    *uuid.UUID      `json:"locationId,omitempty"`
	Channel       *string         `json:"channel,omitempty"`
	Price         decimal.Decimal `json:"price"`
	EffectiveFrom time.Time       `json:"effectiveFrom"`
	EffectiveTo   *time.Time      `json:"effectiveTo,omitempty"`
}

// MatchesContext reports whether the override applies to the requested location and channel.
func (o PriceOverride) MatchesContext(locationID *uuid.UUID, channel *string) bool {
	if o.LocationID != nil {
		if locationID == nil || *o.LocationID != *locationID {
			return false
		}
	}
	if o.Channel != nil {
		if channel == nil || *o.Channel != *channel {
			return false
		}
	}
	return true
}

// LiveAt reports whether the override has started and not yet expired at the instant.
func (o PriceOverride) LiveAt(asOf time.Time) bool {
	if o.EffectiveFrom.After(asOf) {
		return false
	}
	if o.EffectiveTo != nil && !o.EffectiveTo.After(asOf) {
		return false
	}
	return true
}

// ProductStore loads products by id.
type ProductStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
}

// OverrideStore loads candidate price overrides for a product.
// Implementations return overrides with EffectiveFrom <= asOf ordered by
// EffectiveFrom descending; context matching happens in the resolver.
type OverrideStore interface {
	ListPriceOverrides(ctx context.Context, productID uuid.UUID, asOf time.Time) ([]PriceOverride, error)
}
