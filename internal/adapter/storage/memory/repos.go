package memory

import (
	"context"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	store *Store
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(store *Store) *AccountRepo {
	return &AccountRepo{store: store}
}

// Get returns the committed account at address.
func (r *AccountRepo) Get(ctx context.Context, address pubkey.PublicKey) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a := r.store.account(address)
	return &a, nil
}

// LockForUpdate locks every address for the lifetime of tx and returns their
// current state, including writes already staged in tx.
func (r *AccountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, addresses ...pubkey.PublicKey) (map[pubkey.PublicKey]*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, addresses...); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make(map[pubkey.PublicKey]*domain.Account, len(addresses))
	for _, addr := range addresses {
		a, staged := t.accounts[addr]
		if !staged {
			a = r.store.account(addr)
		}
		out[addr] = &a
	}
	return out, nil
}

// Save stages account in tx. The address must be locked by tx.
func (r *AccountRepo) Save(ctx context.Context, tx pgx.Tx, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if !t.holds(account.Address) {
		return errNotLocked
	}
	a := *account
	a.UpdatedAt = time.Now().UTC()
	t.accounts[a.Address] = a
	return nil
}

// VaultRepo implements ports.VaultRepository.
type VaultRepo struct {
	store *Store
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(store *Store) *VaultRepo {
	return &VaultRepo{store: store}
}

// Create stages a new record. Fails with ports.ErrAccountInUse if one exists.
func (r *VaultRepo) Create(ctx context.Context, tx pgx.Tx, record *domain.VaultRecord) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if !t.holds(record.Address) {
		return errNotLocked
	}
	if _, staged := t.vaults[record.Address]; staged {
		return ports.ErrAccountInUse
	}

	r.store.mu.RLock()
	_, exists := r.store.vaults[record.Address]
	r.store.mu.RUnlock()
	if exists {
		return ports.ErrAccountInUse
	}

	t.vaults[record.Address] = *record
	return nil
}

// GetByAddress returns the committed record, or nil.
func (r *VaultRepo) GetByAddress(ctx context.Context, address pubkey.PublicKey) (*domain.VaultRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	v, ok := r.store.vaults[address]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// GetByAddressForUpdate locks address and returns its record, or nil.
func (r *VaultRepo) GetByAddressForUpdate(ctx context.Context, tx pgx.Tx, address pubkey.PublicKey) (*domain.VaultRecord, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, address); err != nil {
		return nil, err
	}
	if v, staged := t.vaults[address]; staged {
		return &v, nil
	}
	return r.GetByAddress(ctx, address)
}

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	store *Store
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(store *Store) *TransferRepo {
	return &TransferRepo{store: store}
}

// Create stages a receipt in tx.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	t.transfers = append(t.transfers, *transfer)
	return nil
}

// ListByVault returns up to limit receipts for vault, newest first.
func (r *TransferRepo) ListByVault(ctx context.Context, vault pubkey.PublicKey, limit int) ([]domain.Transfer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Transfer, 0)
	for i := len(r.store.transfers) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.transfers[i].Vault == vault {
			out = append(out, r.store.transfers[i])
		}
	}
	return out, nil
}

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	store *Store
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(store *Store) *AuditRepo {
	return &AuditRepo{store: store}
}

// Create appends an audit entry.
func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.audit = append(r.store.audit, *entry)
	return nil
}

// Entries returns a copy of every stored audit entry, oldest first.
func (r *AuditRepo) Entries() []domain.AuditLog {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return append([]domain.AuditLog(nil), r.store.audit...)
}
