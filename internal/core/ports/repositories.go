package ports

import (
	"context"
	"errors"

	"vault-custody/internal/core/domain"
	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

// ErrAccountInUse is returned by VaultRepository.Create when the address already holds a record.
var ErrAccountInUse = errors.New("account already in use")

// VaultRepository persists vault records keyed by vault address.
// Get methods return nil, nil when no record exists.
type VaultRepository interface {
	Create(ctx context.Context, tx pgx.Tx, record *domain.VaultRecord) error
	GetByAddress(ctx context.Context, address pubkey.PublicKey) (*domain.VaultRecord, error)
	GetByAddressForUpdate(ctx context.Context, tx pgx.Tx, address pubkey.PublicKey) (*domain.VaultRecord, error)
}

// AccountRepository is the balance ledger. Unknown addresses read as zero-balance accounts.
type AccountRepository interface {
	Get(ctx context.Context, address pubkey.PublicKey) (*domain.Account, error)
	// LockForUpdate takes exclusive per-address locks, in ascending address order,
	// held until tx ends. The result contains an entry for every requested address.
	LockForUpdate(ctx context.Context, tx pgx.Tx, addresses ...pubkey.PublicKey) (map[pubkey.PublicKey]*domain.Account, error)
	Save(ctx context.Context, tx pgx.Tx, account *domain.Account) error
}

// TransferRepository stores transfer receipts.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	ListByVault(ctx context.Context, vault pubkey.PublicKey, limit int) ([]domain.Transfer, error)
}

// AuditRepository stores audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
