package postgres

import (
	"context"
	"testing"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/pkg/pubkey"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer() *domain.Transfer {
	return &domain.Transfer{
		ID:                uuid.New(),
		Vault:             keyHigh,
		Authority:         keyLow,
		Caller:            pubkey.PublicKey{7},
		Recipient:         pubkey.PublicKey{8},
		Amount:            300,
		VaultBalanceAfter: 700,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transferColumns() []string {
	return []string{"id", "vault", "authority", "caller", "recipient", "amount", "vault_balance_after", "created_at"}
}

func TestTransferRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(tr.ID, tr.Vault.Bytes(), tr.Authority.Bytes(), tr.Caller.Bytes(), tr.Recipient.Bytes(),
			int64(300), int64(700), tr.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, tr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_ListByVault(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE vault .+ ORDER BY created_at DESC LIMIT").
		WithArgs(tr.Vault.Bytes(), 20).
		WillReturnRows(pgxmock.NewRows(transferColumns()).AddRow(
			tr.ID, tr.Vault.Bytes(), tr.Authority.Bytes(), tr.Caller.Bytes(), tr.Recipient.Bytes(),
			int64(300), int64(700), tr.CreatedAt,
		))

	list, err := repo.ListByVault(context.Background(), tr.Vault, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *tr, list[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_ListByVault_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transfers").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(transferColumns()))

	list, err := repo.ListByVault(context.Background(), keyLow, 5)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
