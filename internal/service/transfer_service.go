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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService: the gate that lets only
// the trusted service move lamports out of a vault.
//
// The trusted service can withdraw any amount from any vault without the
// authority's signature. Every attempt is logged; nothing else limits it.
type TransferServiceImpl struct {
	vaultRepo    ports.VaultRepository
	accountRepo  ports.AccountRepository
	transferRepo ports.TransferRepository
	transactor   ports.DBTransactor
	programID    pubkey.PublicKey
	rent         domain.RentPolicy
	metrics      ports.Metrics
	log          zerolog.Logger
	now          func() time.Time

	// Parsed once in the constructor, read-only afterwards.
	trustedService pubkey.PublicKey
	trustedErr     error
}

// NewTransferService creates a new TransferServiceImpl. trustedService is the
// base58 identity of the trusted service. A value that does not parse does not
// fail construction; every Transfer call then returns CFG_001.
func NewTransferService(
	trustedService string,
	vaultRepo ports.VaultRepository,
	accountRepo ports.AccountRepository,
	transferRepo ports.TransferRepository,
	transactor ports.DBTransactor,
	programID pubkey.PublicKey,
	rent domain.RentPolicy,
	metrics ports.Metrics,
	log zerolog.Logger,
) *TransferServiceImpl {
	s := &TransferServiceImpl{
		vaultRepo:    vaultRepo,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		transactor:   transactor,
		programID:    programID,
		rent:         rent,
		metrics:      metrics,
		log:          logger.Component(log, "gate"),
		now:          func() time.Time { return time.Now().UTC() },
	}

	s.trustedService, s.trustedErr = pubkey.Parse(trustedService)
	if s.trustedErr != nil {
		s.log.Error().Err(s.trustedErr).Msg("trusted service identity is invalid, transfers will be rejected")
	}
	return s
}

// TrustedService returns the configured identity, or the parse error.
func (s *TransferServiceImpl) TrustedService() (pubkey.PublicKey, error) {
	return s.trustedService, s.trustedErr
}

// Transfer moves req.Amount lamports from req.Vault to req.Recipient.
// On any error no balance changes.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transfer, error) {
	transfer, err := s.transfer(ctx, req)
	if err != nil {
		code := "UNKNOWN"
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			code = appErr.Code
		}
		s.metrics.TransferRejected(code)
		s.log.Warn().
			Str("code", code).
			Str("vault", req.Vault.String()).
			Str("caller", req.Caller.String()).
			Str("recipient", req.Recipient.String()).
			Uint64("amount", req.Amount).
			Msg("transfer rejected")
		return nil, err
	}

	s.metrics.TransferCommitted(req.Amount)
	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("vault", transfer.Vault.String()).
		Str("recipient", transfer.Recipient.String()).
		Uint64("amount", transfer.Amount).
		Uint64("vault_balance_after", transfer.VaultBalanceAfter).
		Msg("transfer committed")
	return transfer, nil
}

func (s *TransferServiceImpl) transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transfer, error) {
	// Identity check comes before any read of vault state.
	if s.trustedErr != nil {
		return nil, apperror.ErrInvalidTrustedServiceConfig(s.trustedErr)
	}
	if req.Caller != s.trustedService {
		return nil, apperror.ErrUnauthorizedCaller()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Both addresses stay locked until commit or rollback.
	accounts, err := s.accountRepo.LockForUpdate(ctx, dbTx, req.Vault, req.Recipient)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock accounts: %w", err))
	}

	record, err := s.vaultRepo.GetByAddressForUpdate(ctx, dbTx, req.Vault)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load vault: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrVaultNotFound()
	}
	if err := record.Authenticate(req.Vault, s.programID); err != nil {
		s.log.Error().
			Err(err).
			Str("vault", req.Vault.String()).
			Str("stored_authority", record.Authority.String()).
			Uint8("stored_bump", record.Bump).
			Msg("vault record failed re-derivation")
		return nil, apperror.ErrInvalidVaultRecord()
	}

	vault := accounts[req.Vault]
	recipient := accounts[req.Recipient]

	if !vault.CanDebit(req.Amount, s.rent.MinimumFor(vault)) {
		return nil, apperror.ErrInsufficientFunds()
	}

	if req.Recipient != req.Vault {
		if err := recipient.Credit(req.Amount); err != nil {
			return nil, apperror.ErrBalanceOverflow()
		}
		vault.Lamports -= req.Amount

		if err := s.accountRepo.Save(ctx, dbTx, vault); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("save vault account: %w", err))
		}
		if err := s.accountRepo.Save(ctx, dbTx, recipient); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("save recipient account: %w", err))
		}
	}

	transfer := &domain.Transfer{
		ID:                uuid.New(),
		Vault:             req.Vault,
		Authority:         record.Authority,
		Caller:            req.Caller,
		Recipient:         req.Recipient,
		Amount:            req.Amount,
		VaultBalanceAfter: vault.Lamports,
		CreatedAt:         s.now(),
	}
	if err := s.transferRepo.Create(ctx, dbTx, transfer); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create transfer: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return transfer, nil
}
