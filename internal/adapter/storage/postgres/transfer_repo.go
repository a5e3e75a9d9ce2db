package postgres

import (
	"context"
	"fmt"

	"vault-custody/internal/core/domain"
	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
)

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create inserts a transfer receipt within a database transaction.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	amount, err := toBigint(t.Amount)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	after, err := toBigint(t.VaultBalanceAfter)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	query := `INSERT INTO transfers (id, vault, authority, caller, recipient, amount, vault_balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, query,
		t.ID, t.Vault.Bytes(), t.Authority.Bytes(), t.Caller.Bytes(), t.Recipient.Bytes(),
		amount, after, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// ListByVault returns up to limit receipts for a vault, newest first.
func (r *TransferRepo) ListByVault(ctx context.Context, vault pubkey.PublicKey, limit int) ([]domain.Transfer, error) {
	query := `SELECT id, vault, authority, caller, recipient, amount, vault_balance_after, created_at
		FROM transfers WHERE vault = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, vault.Bytes(), limit)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	transfers := make([]domain.Transfer, 0)
	for rows.Next() {
		var t domain.Transfer
		var vaultRaw, authority, caller, recipient []byte
		var amount, after int64
		if err := rows.Scan(&t.ID, &vaultRaw, &authority, &caller, &recipient, &amount, &after, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		for _, f := range []struct {
			dst *pubkey.PublicKey
			raw []byte
		}{{&t.Vault, vaultRaw}, {&t.Authority, authority}, {&t.Caller, caller}, {&t.Recipient, recipient}} {
			if *f.dst, err = toKey(f.raw); err != nil {
				return nil, err
			}
		}
		t.Amount = uint64(amount)
		t.VaultBalanceAfter = uint64(after)
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}
