package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DB is the pgx surface the store needs. Both *pgxpool.Pool and pgx.Tx
// satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the Postgres-backed repository for the pricing engine.
type Store struct {
	DB DB
}

// New wraps a pool or transaction in a Store.
func New(db DB) *Store {
	return &Store{DB: db}
}

// WithTx returns a Store bound to the given transaction.
func (s *Store) WithTx(tx DB) *Store {
	return &Store{DB: tx}
}

// Monetary columns hold whole currency units as BIGINT; the engine works in
// decimals and converts at the boundary.

func fromUnits(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func toUnits(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
