package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"

	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool used by the repositories. pgxmock pools
// satisfy it too.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

//go:embed schema.sql
var schema string

// EnsureSchema creates the ledger tables if they do not exist.
func EnsureSchema(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// errLamportsRange is returned when a balance does not fit in a BIGINT column.
var errLamportsRange = errors.New("lamports exceed BIGINT range")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func toBigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, errLamportsRange
	}
	return int64(v), nil
}

func toKey(raw []byte) (pubkey.PublicKey, error) {
	pk, err := pubkey.FromBytes(raw)
	if err != nil {
		return pubkey.PublicKey{}, fmt.Errorf("decode address column: %w", err)
	}
	return pk, nil
}
