package promo

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const cacheKeyEnabled = "promo:enabled"

// Store loads the enabled promotion set from persistence, ordered by
// priority descending then creation time descending.
type Store interface {
	ListEnabledPromotions(ctx context.Context) ([]Record, error)
}

// Catalog answers "which promotions are offerable right now, here". It keeps
// a short-lived snapshot of the enabled set in Redis so a busy kiosk does not
// hammer the promotions table on every cart.
type Catalog struct {
	Store  Store
	Cache  *Cache
	Logger zerolog.Logger
}

// Active returns the promotions offerable at the instant for the location,
// ordered by priority descending then creation time descending. The order is
// a stable enumeration contract: the selector's first-seen tie-break depends
// on it.
func (c *Catalog) Active(ctx context.Context, asOf time.Time, locationID *uuid.UUID) ([]Promotion, error) {
	records, err := c.enabledRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Promotion, 0, len(records))
	for _, rec := range records {
		p, err := rec.Promotion()
		if err != nil {
			// data-integrity problem: skip the record, never fail the cart
			c.Logger.Warn().Err(err).Str("promotion_id", rec.ID.String()).Msg("skipping malformed promotion")
			continue
		}
		if !p.ActiveAt(asOf) {
			continue
		}
		if !p.AppliesToLocation(locationID) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Invalidate drops the cached snapshot after an admin write.
func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.Cache.Delete(ctx, cacheKeyEnabled)
}

func (c *Catalog) enabledRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	if hit, err := c.Cache.GetJSON(ctx, cacheKeyEnabled, &records); err == nil && hit {
		return records, nil
	}
	records, err := c.Store.ListEnabledPromotions(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.SetJSON(ctx, cacheKeyEnabled, records); err != nil {
		c.Logger.Warn().Err(err).Msg("cache promotion snapshot")
	}
	return records, nil
}
