package service

import (
	"context"
	"fmt"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/apperror"
	"vault-custody/pkg/logger"
	"vault-custody/pkg/pubkey"

	"github.com/rs/zerolog"
)

// FaucetServiceImpl implements ports.FundingService. It mints lamports into an
// address, the way a devnet airdrop funds a vault from outside the custody flow.
type FaucetServiceImpl struct {
	accountRepo ports.AccountRepository
	transactor  ports.DBTransactor
	maxLamports uint64
	metrics     ports.Metrics
	log         zerolog.Logger
}

// NewFaucetService creates a faucet that credits at most maxLamports per call.
func NewFaucetService(
	accountRepo ports.AccountRepository,
	transactor ports.DBTransactor,
	maxLamports uint64,
	metrics ports.Metrics,
	log zerolog.Logger,
) *FaucetServiceImpl {
	return &FaucetServiceImpl{
		accountRepo: accountRepo,
		transactor:  transactor,
		maxLamports: maxLamports,
		metrics:     metrics,
		log:         logger.Component(log, "faucet"),
	}
}

// Airdrop credits lamports to address and returns the updated account.
func (s *FaucetServiceImpl) Airdrop(ctx context.Context, address pubkey.PublicKey, lamports uint64) (*domain.Account, error) {
	if lamports == 0 {
		return nil, apperror.Validation("lamports must be greater than zero")
	}
	if lamports > s.maxLamports {
		return nil, apperror.ErrFaucetLimit()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	accounts, err := s.accountRepo.LockForUpdate(ctx, dbTx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock account: %w", err))
	}
	account := accounts[address]

	if err := account.Credit(lamports); err != nil {
		return nil, apperror.ErrBalanceOverflow()
	}
	if err := s.accountRepo.Save(ctx, dbTx, account); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("save account: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.metrics.Airdropped(lamports)
	s.log.Info().
		Str("address", address.String()).
		Uint64("lamports", lamports).
		Uint64("balance", account.Lamports).
		Msg("airdrop credited")

	return account, nil
}
