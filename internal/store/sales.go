package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sale is the persisted header of a completed checkout.
type Sale struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  *string    `json:"customerId,omitempty"`
	LocationID  *uuid.UUID `json:"locationId,omitempty"`
	Channel     string     `json:"channel"`
	Subtotal    int64      `json:"subtotal"`
	Discount    int64      `json:"discount"`
	Total       int64      `json:"total"`
	PromotionID *uuid.UUID `json:"promotionId,omitempty"`
	CouponCode  *string    `json:"couponCode,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// SaleLine is one persisted line of a sale.
type SaleLine struct {
	SaleID    uuid.UUID `json:"saleId"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Quantity  int32     `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
	LineTotal int64     `json:"lineTotal"`
	Discount  int64     `json:"discount"`
}

// InsertSale writes the sale header and returns it with the server timestamp.
func (s *Store) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO sales (id, customer_id, location_id, channel, subtotal, discount, total, promotion_id, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		sale.ID, sale.CustomerID, sale.LocationID, sale.Channel,
		sale.Subtotal, sale.Discount, sale.Total, sale.PromotionID, sale.CouponCode).
		Scan(&sale.CreatedAt)
	if err != nil {
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	return sale, nil
}

// InsertSaleLines writes the sale's lines.
func (s *Store) InsertSaleLines(ctx context.Context, lines []SaleLine) error {
	for _, l := range lines {
		_, err := s.DB.Exec(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, name, quantity, unit_price, line_total, discount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.SaleID, l.ProductID, l.Name, l.Quantity, l.UnitPrice, l.LineTotal, l.Discount)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}
	return nil
}
