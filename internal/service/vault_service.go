package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/apperror"
	"vault-custody/pkg/logger"
	"vault-custody/pkg/pubkey"

	"github.com/rs/zerolog"
)

// VaultServiceImpl implements ports.VaultService (the vault registry).
type VaultServiceImpl struct {
	vaultRepo   ports.VaultRepository
	accountRepo ports.AccountRepository
	transactor  ports.DBTransactor
	programID   pubkey.PublicKey
	rent        domain.RentPolicy
	metrics     ports.Metrics
	log         zerolog.Logger
	now         func() time.Time
}

// NewVaultService creates a new VaultServiceImpl.
func NewVaultService(
	vaultRepo ports.VaultRepository,
	accountRepo ports.AccountRepository,
	transactor ports.DBTransactor,
	programID pubkey.PublicKey,
	rent domain.RentPolicy,
	metrics ports.Metrics,
	log zerolog.Logger,
) *VaultServiceImpl {
	return &VaultServiceImpl{
		vaultRepo:   vaultRepo,
		accountRepo: accountRepo,
		transactor:  transactor,
		programID:   programID,
		rent:        rent,
		metrics:     metrics,
		log:         logger.Component(log, "registry"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateVault derives the vault address for authority and persists its record.
// The authority pays whatever part of the rent-exempt minimum the vault address
// does not already hold.
func (s *VaultServiceImpl) CreateVault(ctx context.Context, authority pubkey.PublicKey) (*domain.VaultRecord, error) {
	if authority.IsZero() {
		return nil, apperror.Validation("authority is required")
	}

	address, bump, err := domain.DeriveVaultAddress(authority, s.programID)
	if err != nil {
		return nil, apperror.ErrNoValidDerivation(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	accounts, err := s.accountRepo.LockForUpdate(ctx, dbTx, authority, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock accounts: %w", err))
	}

	existing, err := s.vaultRepo.GetByAddressForUpdate(ctx, dbTx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load vault: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrVaultAlreadyExists()
	}

	payer := accounts[authority]
	vault := accounts[address]

	rentDue := s.rent.MinimumBalance(domain.VaultRecordSize)
	if vault.Lamports < rentDue {
		shortfall := rentDue - vault.Lamports
		if err := payer.Debit(shortfall, s.rent.MinimumFor(payer)); err != nil {
			return nil, apperror.ErrInsufficientFunds()
		}
		if err := vault.Credit(shortfall); err != nil {
			return nil, apperror.ErrBalanceOverflow()
		}
		if err := s.accountRepo.Save(ctx, dbTx, payer); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("save payer: %w", err))
		}
	}

	vault.DataLen = domain.VaultRecordSize
	if err := s.accountRepo.Save(ctx, dbTx, vault); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("save vault account: %w", err))
	}

	record := &domain.VaultRecord{
		Address:   address,
		Authority: authority,
		Bump:      bump,
		CreatedAt: s.now(),
	}
	if err := s.vaultRepo.Create(ctx, dbTx, record); err != nil {
		if errors.Is(err, ports.ErrAccountInUse) {
			return nil, apperror.ErrVaultAlreadyExists()
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create vault: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		if errors.Is(err, ports.ErrAccountInUse) {
			return nil, apperror.ErrVaultAlreadyExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.metrics.VaultCreated()
	s.log.Info().
		Str("vault", address.String()).
		Str("authority", authority.String()).
		Uint8("bump", bump).
		Uint64("rent_due", rentDue).
		Msg("vault created")

	return record, nil
}
