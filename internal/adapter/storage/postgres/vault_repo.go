package postgres

import (
	"context"
	"errors"
	"fmt"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
)

// VaultRepo implements ports.VaultRepository.
type VaultRepo struct {
	pool Pool
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(pool Pool) *VaultRepo {
	return &VaultRepo{pool: pool}
}

// Create inserts a vault record within a transaction.
func (r *VaultRepo) Create(ctx context.Context, tx pgx.Tx, v *domain.VaultRecord) error {
	query := `INSERT INTO vaults (address, authority, bump, created_at) VALUES ($1, $2, $3, $4)`

	_, err := tx.Exec(ctx, query, v.Address.Bytes(), v.Authority.Bytes(), int16(v.Bump), v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrAccountInUse
		}
		return fmt.Errorf("insert vault: %w", err)
	}
	return nil
}

// GetByAddress fetches a vault record (non-locking read).
func (r *VaultRepo) GetByAddress(ctx context.Context, address pubkey.PublicKey) (*domain.VaultRecord, error) {
	query := `SELECT address, authority, bump, created_at FROM vaults WHERE address = $1`
	return scanVault(r.pool.QueryRow(ctx, query, address.Bytes()))
}

// GetByAddressForUpdate fetches a vault record with pessimistic locking.
// This MUST be called within a transaction.
func (r *VaultRepo) GetByAddressForUpdate(ctx context.Context, tx pgx.Tx, address pubkey.PublicKey) (*domain.VaultRecord, error) {
	query := `SELECT address, authority, bump, created_at FROM vaults WHERE address = $1 FOR UPDATE`
	return scanVault(tx.QueryRow(ctx, query, address.Bytes()))
}

func scanVault(row pgx.Row) (*domain.VaultRecord, error) {
	var (
		address, authority []byte
		bump               int16
		v                  domain.VaultRecord
	)
	if err := row.Scan(&address, &authority, &bump, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan vault: %w", err)
	}

	var err error
	if v.Address, err = toKey(address); err != nil {
		return nil, err
	}
	if v.Authority, err = toKey(authority); err != nil {
		return nil, err
	}
	if bump < 0 || bump > 255 {
		return nil, fmt.Errorf("scan vault: bump %d out of range", bump)
	}
	v.Bump = uint8(bump)
	return &v, nil
}
