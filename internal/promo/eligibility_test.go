package promo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRedemptions struct {
	counts map[string]int64
}

func (f *fakeRedemptions) CountRedemptions(_ context.Context, promotionID uuid.UUID, customerID string) (int64, error) {
	return f.counts[promotionID.String()+"/"+customerID], nil
}

func TestQualifyingLinesByProductAndCategory(t *testing.T) {
	linked := uuid.New()
	category := uuid.New()
	other := uuid.New()

	p := Promotion{
		Products:    []LinkedProduct{{ProductID: linked}},
		CategoryIDs: []uuid.UUID{category},
	}
	inCategory := line(uuid.New(), 1, 100)
	inCategory.CategoryID = &category

	got := QualifyingLines(p, []Line{line(linked, 1, 100), inCategory, line(other, 1, 100)})
	require.Len(t, got, 2)
}

func TestEligibleMinQuantity(t *testing.T) {
	id := uuid.New()
	p := Promotion{
		Products:    []LinkedProduct{{ProductID: id}},
		MinQuantity: 3,
	}
	qualifying := []Line{line(id, 2, 100)}
	ok, err := p.Eligible(context.Background(), qualifying, nil, nil)
	require.NoError(t, err)
	require.False(t, ok)

	qualifying = []Line{line(id, 3, 100)}
	ok, err = p.Eligible(context.Background(), qualifying, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEligibleTotalUsesQuota(t *testing.T) {
	id := uuid.New()
	limit := int32(10)
	p := Promotion{
		Products:     []LinkedProduct{{ProductID: id}},
		MaxTotalUses: &limit,
		CurrentUses:  10,
	}
	ok, err := p.Eligible(context.Background(), []Line{line(id, 1, 100)}, nil, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEligiblePerCustomerQuota(t *testing.T) {
	id := uuid.New()
	promoID := uuid.New()
	limit := int32(1)
	p := Promotion{
		ID:                 promoID,
		Products:           []LinkedProduct{{ProductID: id}},
		MaxUsesPerCustomer: &limit,
	}
	customer := "cust-1"
	counter := &fakeRedemptions{counts: map[string]int64{promoID.String() + "/" + customer: 1}}

	ok, err := p.Eligible(context.Background(), []Line{line(id, 1, 100)}, &customer, counter)
	require.NoError(t, err)
	require.False(t, ok)

	fresh := "cust-2"
	ok, err = p.Eligible(context.Background(), []Line{line(id, 1, 100)}, &fresh, counter)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEligibleAnonymousSkipsPerCustomerQuota(t *testing.T) {
	id := uuid.New()
	limit := int32(0)
	p := Promotion{
		Products:           []LinkedProduct{{ProductID: id}},
		MaxUsesPerCustomer: &limit,
	}
	ok, err := p.Eligible(context.Background(), []Line{line(id, 1, 100)}, nil, &fakeRedemptions{})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvaluateEndToEnd(t *testing.T) {
	id := uuid.New()
	p := Promotion{
		Products: []LinkedProduct{{ProductID: id}},
		Rule:     PercentageOff{Percent: decimal.NewFromInt(50)},
	}
	d, err := Evaluate(context.Background(), p, []Line{line(id, 2, 1000)}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.True(t, decimal.NewFromInt(1000).Equal(d.Amount))

	// out-of-scope cart produces nothing
	d, err = Evaluate(context.Background(), p, []Line{line(uuid.New(), 2, 1000)}, nil, nil)
	require.NoError(t, err)
	require.Nil(t, d)
}
