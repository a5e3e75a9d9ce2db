package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"vault-custody/internal/core/domain"
	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Get fetches an account (non-locking read). Unknown addresses read as zero.
func (r *AccountRepo) Get(ctx context.Context, address pubkey.PublicKey) (*domain.Account, error) {
	query := `SELECT lamports, data_len, updated_at FROM accounts WHERE address = $1`

	a := &domain.Account{Address: address}
	var lamports int64
	err := r.pool.QueryRow(ctx, query, address.Bytes()).Scan(&lamports, &a.DataLen, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	a.Lamports = uint64(lamports)
	return a, nil
}

// LockForUpdate materializes missing rows, then takes row locks in address order.
// This MUST be called within a transaction.
func (r *AccountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, addresses ...pubkey.PublicKey) (map[pubkey.PublicKey]*domain.Account, error) {
	keys := sortedUnique(addresses)

	_, err := tx.Exec(ctx,
		`INSERT INTO accounts (address) SELECT unnest($1::bytea[]) ON CONFLICT (address) DO NOTHING`,
		keys,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure accounts: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT address, lamports, data_len, updated_at FROM accounts
		WHERE address = ANY($1) ORDER BY address FOR UPDATE`,
		keys,
	)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()

	out := make(map[pubkey.PublicKey]*domain.Account, len(keys))
	for rows.Next() {
		var (
			raw      []byte
			lamports int64
			a        domain.Account
		)
		if err := rows.Scan(&raw, &lamports, &a.DataLen, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.Address, err = toKey(raw); err != nil {
			return nil, err
		}
		a.Lamports = uint64(lamports)
		out[a.Address] = &a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	for _, addr := range addresses {
		if _, ok := out[addr]; !ok {
			out[addr] = &domain.Account{Address: addr}
		}
	}
	return out, nil
}

// Save writes balance and data length within a transaction. The row must
// already be locked by LockForUpdate.
func (r *AccountRepo) Save(ctx context.Context, tx pgx.Tx, account *domain.Account) error {
	lamports, err := toBigint(account.Lamports)
	if err != nil {
		return fmt.Errorf("save account %s: %w", account.Address, err)
	}

	query := `UPDATE accounts SET lamports = $1, data_len = $2, updated_at = NOW() WHERE address = $3`
	tag, err := tx.Exec(ctx, query, lamports, account.DataLen, account.Address.Bytes())
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", account.Address)
	}
	return nil
}

func sortedUnique(addresses []pubkey.PublicKey) [][]byte {
	sorted := append([]pubkey.PublicKey(nil), addresses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })

	keys := make([][]byte, 0, len(sorted))
	for i, a := range sorted {
		if i > 0 && sorted[i-1] == a {
			continue
		}
		keys = append(keys, a.Bytes())
	}
	return keys
}
