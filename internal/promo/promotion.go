package promo

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested promotion does not exist.
var ErrNotFound = errors.New("promotion not found")

// Type identifies a promotion rule variant.
type Type string

// Promotion rule variants.
const (
	TypePercentageOff  Type = "PERCENTAGE_OFF"
	TypeAmountOff      Type = "AMOUNT_OFF"
	TypeBuyXGetY       Type = "BUY_X_GET_Y"
	TypeVolumeDiscount Type = "VOLUME_DISCOUNT"
	TypeBundle         Type = "BUNDLE"
	TypeHappyHour      Type = "HAPPY_HOUR"
)

// Schedule captures when a promotion is temporally active: a date range, an
// optional time-of-day window and an optional day-of-week mask.
// Weekdays follow time.Weekday numbering (0=Sunday..6=Saturday).
type Schedule struct {
	StartDate time.Time
	EndDate   *time.Time
	StartTime string // "HH:MM", empty = no window
	EndTime   string
	Days      []time.Weekday // empty = every day
}

// Contains reports whether the instant falls inside the schedule.
func (s Schedule) Contains(t time.Time) bool {
	if s.StartDate.After(t) {
		return false
	}
	if s.EndDate != nil && s.EndDate.Before(t) {
		return false
	}
	if s.StartTime != "" && s.EndTime != "" {
		// zero-padded HH:MM compares correctly as a string
		clock := t.Format("15:04")
		if clock < s.StartTime || clock > s.EndTime {
			return false
		}
	}
	if len(s.Days) > 0 {
		day := t.Weekday()
		found := false
		for _, d := range s.Days {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// LinkedProduct associates a product with a promotion. Required products gate
// bundle promotions: all of them must be present in the cart.
type LinkedProduct struct {
	ProductID uuid.UUID
	Required  bool
}

// Promotion is a fully hydrated promotion ready for evaluation.
type Promotion struct {
	ID                 uuid.UUID
	Name               string
	Active             bool
	Schedule           Schedule
	Priority           int
	MinQuantity        int
	MaxTotalUses       *int32
	MaxUsesPerCustomer *int32
	CurrentUses        int32
	AllLocations       bool
	LocationIDs        []uuid.UUID
	Products           []LinkedProduct
	CategoryIDs        []uuid.UUID
	Rule               Rule
	CreatedAt          time.Time
}

// ActiveAt reports whether the promotion may be offered at the instant.
func (p Promotion) ActiveAt(t time.Time) bool {
	return p.Active && p.Schedule.Contains(t)
}

// AppliesToLocation reports whether the promotion covers the given location.
// Location scoping only filters when a location is actually supplied; a nil
// location means the caller is not location-aware and sees everything.
func (p Promotion) AppliesToLocation(locationID *uuid.UUID) bool {
	if p.AllLocations || locationID == nil {
		return true
	}
	for _, id := range p.LocationIDs {
		if id == *locationID {
			return true
		}
	}
	return false
}

// RequiredProductIDs lists the products flagged as required on the promotion.
func (p Promotion) RequiredProductIDs() []uuid.UUID {
	var out []uuid.UUID
	for _, lp := range p.Products {
		if lp.Required {
			out = append(out, lp.ProductID)
		}
	}
	return out
}

// Record is the storable, cacheable form of a promotion. It carries the union
// of rule parameters; Promotion() narrows it into the typed rule variant.
type Record struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Type               Type            `json:"type"`
	Active             bool            `json:"active"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
	StartTime          string          `json:"startTime,omitempty"`
	EndTime            string          `json:"endTime,omitempty"`
	Days               []int           `json:"days,omitempty"`
	Priority           int             `json:"priority"`
	Percent            decimal.Decimal `json:"percent"`
	Amount             decimal.Decimal `json:"amount"`
	BuyQty             int             `json:"buyQty"`
	GetQty             int             `json:"getQty"`
	MinQuantity        int             `json:"minQuantity"`
	MaxTotalUses       *int32          `json:"maxTotalUses,omitempty"`
	MaxUsesPerCustomer *int32          `json:"maxUsesPerCustomer,omitempty"`
	CurrentUses        int32           `json:"currentUses"`
	AllLocations       bool            `json:"allLocations"`
	LocationIDs        []uuid.UUID     `json:"locationIds,omitempty"`
	ProductIDs         []uuid.UUID     `json:"productIds,omitempty"`
	RequiredProductIDs []uuid.UUID     `json:"requiredProductIds,omitempty"`
	CategoryIDs        []uuid.UUID     `json:"categoryIds,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// Promotion hydrates the record into an evaluatable promotion.
// Unknown types are a data-integrity problem and surface as an error.
func (r Record) Promotion() (Promotion, error) {
	rule, err := r.rule()
	if err != nil {
		return Promotion{}, err
	}
	days := make([]time.Weekday, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, time.Weekday(d))
	}
	required := make(map[uuid.UUID]bool, len(r.RequiredProductIDs))
	for _, id := range r.RequiredProductIDs {
		required[id] = true
	}
	products := make([]LinkedProduct, 0, len(r.ProductIDs))
	seen := make(map[uuid.UUID]bool, len(r.ProductIDs))
	for _, id := range r.ProductIDs {
		products = append(products, LinkedProduct{ProductID: id, Required: required[id]})
		seen[id] = true
	}
	for _, id := range r.RequiredProductIDs {
		if !seen[id] {
			products = append(products, LinkedProduct{ProductID: id, Required: true})
		}
	}
	return Promotion{
		ID:     r.ID,
		Name:   r.Name,
		Active: r.Active,
		Schedule: Schedule{
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Days:      days,
		},
		Priority:           r.Priority,
		MinQuantity:        r.MinQuantity,
		MaxTotalUses:       r.MaxTotalUses,
		MaxUsesPerCustomer: r.MaxUsesPerCustomer,
		CurrentUses:        r.CurrentUses,
		AllLocations:       r.AllLocations,
		LocationIDs:        r.LocationIDs,
		Products:           products,
		CategoryIDs:        r.CategoryIDs,
		Rule:               rule,
		CreatedAt:          r.CreatedAt,
	}, nil
}

func (r Record) rule() (Rule, error) {
	switch r.Type {
	case TypePercentageOff:
		return PercentageOff{Percent: r.Percent}, nil
	case TypeAmountOff:
		return AmountOff{Amount: r.Amount}, nil
	case TypeBuyXGetY:
		return BuyXGetY{BuyQty: r.BuyQty, GetQty: r.GetQty}, nil
	case TypeVolumeDiscount:
		return VolumeDiscount{MinQuantity: r.MinQuantity, Percent: r.Percent}, nil
	case TypeBundle:
		return Bundle{Amount: r.Amount, Required: r.RequiredProductIDs}, nil
	case TypeHappyHour:
		return HappyHour{Percent: r.Percent}, nil
	default:
		return nil, fmt.Errorf("unknown promotion type %q", r.Type)
	}
}
