package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	tag   pgconn.CommandTag
	count int64
	sqls  []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return f.tag, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.sqls = append(f.sqls, sql)
	return fakeRow{n: f.count}
}

type fakeRow struct {
	n int64
}

func (r fakeRow) Scan(dest ...any) error {
	if p, ok := dest[0].(*int64); ok {
		*p = r.n
	}
	return nil
}

func TestRecordPromotionUse(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	l := &Ledger{DB: db}
	require.NoError(t, l.RecordPromotionUse(context.Background(), uuid.New()))
	require.Contains(t, db.sqls[0], "current_uses < max_total_uses")
}

func TestRecordPromotionUseQuotaExceeded(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	l := &Ledger{DB: db}
	err := l.RecordPromotionUse(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestRecordCouponUseQuotaExceeded(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	l := &Ledger{DB: db}
	err := l.RecordCouponUse(context.Background(), "SAVE10")
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestRecordRedemptionIdempotent(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("INSERT 0 0")}
	l := &Ledger{DB: db}
	// conflict on replay affects zero rows and is still a success
	require.NoError(t, l.RecordRedemption(context.Background(), uuid.New(), "cust-1", uuid.New()))
	require.Contains(t, db.sqls[0], "ON CONFLICT")
}

func TestCountRedemptions(t *testing.T) {
	db := &fakeDB{count: 3}
	l := &Ledger{DB: db}
	n, err := l.CountRedemptions(context.Background(), uuid.New(), "cust-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}
