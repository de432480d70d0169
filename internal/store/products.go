package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pos/internal/catalog"
)

// GetProduct loads a product by id.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	var (
		p     catalog.Product
		price int64
	)
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, category_id, base_price
		FROM products
		WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.CategoryID, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, fmt.Errorf("get product: %w", err)
	}
	p.BasePrice = fromUnits(price)
	return p, nil
}

// ListPriceOverrides returns the overrides already effective at asOf, newest
// EffectiveFrom first so the resolver can take the first contextual match.
func (s *Store) ListPriceOverrides(ctx context.Context, productID uuid.UUID, asOf time.Time) ([]catalog.PriceOverride, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT product_id, location_id, channel, price, effective_from, effective_to
		FROM price_overrides
		WHERE product_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC`, productID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list price overrides: %w", err)
	}
	defer rows.Close()

	var out []catalog.PriceOverride
	for rows.Next() {
		var (
			o     catalog.PriceOverride
			price int64
		)
		if err := rows.Scan(&o.ProductID, &o.LocationID, &o.Channel, &price, &o.EffectiveFrom, &o.EffectiveTo); err != nil {
			return nil, fmt.Errorf("scan price override: %w", err)
		}
		o.Price = fromUnits(price)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price overrides: %w", err)
	}
	return out, nil
}
