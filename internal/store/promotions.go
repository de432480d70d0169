package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pos/internal/promo"
)

const promotionColumns = `
	id, name, type, active,
	start_date, end_date, start_time, end_time, days,
	priority, percent, amount, buy_qty, get_qty, min_quantity,
	max_total_uses, max_uses_per_customer, current_uses,
	all_locations, location_ids, product_ids, required_product_ids, category_ids,
	created_at`

func scanPromotion(row pgx.Row) (promo.Record, error) {
	var (
		rec    promo.Record
		amount int64
		days   []int32
	)
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Type, &rec.Active,
		&rec.StartDate, &rec.EndDate, &rec.StartTime, &rec.EndTime, &days,
		&rec.Priority, &rec.Percent, &amount, &rec.BuyQty, &rec.GetQty, &rec.MinQuantity,
		&rec.MaxTotalUses, &rec.MaxUsesPerCustomer, &rec.CurrentUses,
		&rec.AllLocations, &rec.LocationIDs, &rec.ProductIDs, &rec.RequiredProductIDs, &rec.CategoryIDs,
		&rec.CreatedAt,
	)
	if err != nil {
		return promo.Record{}, err
	}
	rec.Amount = fromUnits(amount)
	rec.Days = make([]int, 0, len(days))
	for _, d := range days {
		rec.Days = append(rec.Days, int(d))
	}
	return rec, nil
}

// ListEnabledPromotions returns every active promotion ordered by priority
// descending then recency. Temporal filtering happens in the catalog, not
// here, so the result is cacheable.
func (s *Store) ListEnabledPromotions(ctx context.Context) ([]promo.Record, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+promotionColumns+`
		FROM promotions
		WHERE active
		ORDER BY priority DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list enabled promotions: %w", err)
	}
	defer rows.Close()

	var out []promo.Record
	for rows.Next() {
		rec, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotions: %w", err)
	}
	return out, nil
}

// GetPromotion loads one promotion by id regardless of its active flag.
func (s *Store) GetPromotion(ctx context.Context, id uuid.UUID) (promo.Record, error) {
	rec, err := scanPromotion(s.DB.QueryRow(ctx, `
		SELECT `+promotionColumns+`
		FROM promotions
		WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return promo.Record{}, promo.ErrNotFound
		}
		return promo.Record{}, fmt.Errorf("get promotion: %w", err)
	}
	return rec, nil
}

// CreatePromotion inserts a promotion and returns it with server-assigned
// fields populated.
func (s *Store) CreatePromotion(ctx context.Context, rec promo.Record) (promo.Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	days := make([]int32, 0, len(rec.Days))
	for _, d := range rec.Days {
		days = append(days, int32(d))
	}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO promotions (
			id, name, type, active,
			start_date, end_date, start_time, end_time, days,
			priority, percent, amount, buy_qty, get_qty, min_quantity,
			max_total_uses, max_uses_per_customer,
			all_locations, location_ids, product_ids, required_product_ids, category_ids
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17,
			$18, $19, $20, $21, $22
		)
		RETURNING current_uses, created_at`,
		rec.ID, rec.Name, rec.Type, rec.Active,
		rec.StartDate, rec.EndDate, rec.StartTime, rec.EndTime, days,
		rec.Priority, rec.Percent, toUnits(rec.Amount), rec.BuyQty, rec.GetQty, rec.MinQuantity,
		rec.MaxTotalUses, rec.MaxUsesPerCustomer,
		rec.AllLocations, rec.LocationIDs, rec.ProductIDs, rec.RequiredProductIDs, rec.CategoryIDs,
	).Scan(&rec.CurrentUses, &rec.CreatedAt)
	if err != nil {
		return promo.Record{}, fmt.Errorf("create promotion: %w", err)
	}
	return rec, nil
}

// UpdatePromotion replaces the mutable fields of an existing promotion.
// Usage counters are never written here; the ledger owns them.
func (s *Store) UpdatePromotion(ctx context.Context, rec promo.Record) (promo.Record, error) {
	days := make([]int32, 0, len(rec.Days))
	for _, d := range rec.Days {
		days = append(days, int32(d))
	}
	err := s.DB.QueryRow(ctx, `
		UPDATE promotions SET
			name = $2, type = $3, active = $4,
			start_date = $5, end_date = $6, start_time = $7, end_time = $8, days = $9,
			priority = $10, percent = $11, amount = $12, buy_qty = $13, get_qty = $14, min_quantity = $15,
			max_total_uses = $16, max_uses_per_customer = $17,
			all_locations = $18, location_ids = $19, product_ids = $20, required_product_ids = $21, category_ids = $22
		WHERE id = $1
		RETURNING current_uses, created_at`,
		rec.ID, rec.Name, rec.Type, rec.Active,
		rec.StartDate, rec.EndDate, rec.StartTime, rec.EndTime, days,
		rec.Priority, rec.Percent, toUnits(rec.Amount), rec.BuyQty, rec.GetQty, rec.MinQuantity,
		rec.MaxTotalUses, rec.MaxUsesPerCustomer,
		rec.AllLocations, rec.LocationIDs, rec.ProductIDs, rec.RequiredProductIDs, rec.CategoryIDs,
	).Scan(&rec.CurrentUses, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return promo.Record{}, promo.ErrNotFound
		}
		return promo.Record{}, fmt.Errorf("update promotion: %w", err)
	}
	return rec, nil
}
