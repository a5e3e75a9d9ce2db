package service

import (
	"context"
	"fmt"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/apperror"
	"vault-custody/pkg/pubkey"
)

const (
	defaultTransferPageSize = 20
	maxTransferPageSize     = 100
)

type reportingService struct {
	vaultRepo    ports.VaultRepository
	accountRepo  ports.AccountRepository
	transferRepo ports.TransferRepository
	programID    pubkey.PublicKey
}

// NewReportingService creates a read-only query service over vaults and balances.
func NewReportingService(
	vaultRepo ports.VaultRepository,
	accountRepo ports.AccountRepository,
	transferRepo ports.TransferRepository,
	programID pubkey.PublicKey,
) ports.ReportingService {
	return &reportingService{
		vaultRepo:    vaultRepo,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		programID:    programID,
	}
}

// GetVault returns an initialized vault by address.
func (s *reportingService) GetVault(ctx context.Context, address pubkey.PublicKey) (*ports.VaultView, error) {
	record, err := s.vaultRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get vault: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrVaultNotFound()
	}

	account, err := s.accountRepo.Get(ctx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}

	return &ports.VaultView{
		Address:  address,
		Bump:     record.Bump,
		Status:   domain.VaultStatusActive,
		Record:   record,
		Lamports: account.Lamports,
	}, nil
}

// GetVaultByAuthority derives the vault address for authority and reports it,
// whether or not it has been initialized yet.
func (s *reportingService) GetVaultByAuthority(ctx context.Context, authority pubkey.PublicKey) (*ports.VaultView, error) {
	address, bump, err := domain.DeriveVaultAddress(authority, s.programID)
	if err != nil {
		return nil, apperror.ErrNoValidDerivation(err)
	}

	record, err := s.vaultRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get vault: %w", err))
	}
	account, err := s.accountRepo.Get(ctx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}

	view := &ports.VaultView{
		Address:  address,
		Bump:     bump,
		Status:   domain.VaultStatusUninitialized,
		Lamports: account.Lamports,
	}
	if record != nil {
		view.Status = domain.VaultStatusActive
		view.Record = record
	}
	return view, nil
}

// GetAccount returns the balance held at any address.
func (s *reportingService) GetAccount(ctx context.Context, address pubkey.PublicKey) (*domain.Account, error) {
	account, err := s.accountRepo.Get(ctx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	return account, nil
}

// ListTransfers returns the newest receipts for a vault.
func (s *reportingService) ListTransfers(ctx context.Context, vault pubkey.PublicKey, limit int) ([]domain.Transfer, error) {
	if limit <= 0 {
		limit = defaultTransferPageSize
	}
	if limit > maxTransferPageSize {
		limit = maxTransferPageSize
	}

	transfers, err := s.transferRepo.ListByVault(ctx, vault, limit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list transfers: %w", err))
	}
	return transfers, nil
}
