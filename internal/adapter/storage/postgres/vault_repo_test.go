package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault() *domain.VaultRecord {
	return &domain.VaultRecord{
		Address:   keyHigh,
		Authority: keyLow,
		Bump:      254,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func vaultRow(v *domain.VaultRecord) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"address", "authority", "bump", "created_at"}).
		AddRow(v.Address.Bytes(), v.Authority.Bytes(), int16(v.Bump), v.CreatedAt)
}

func TestVaultRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultRepo(mock)
	v := newTestVault()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vaults").
		WithArgs(v.Address.Bytes(), v.Authority.Bytes(), int16(254), v.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultRepo_Create_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vaults").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, newTestVault())
	assert.ErrorIs(t, err, ports.ErrAccountInUse)
}

func TestVaultRepo_Create_OtherError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vaults").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, newTestVault())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrAccountInUse)
}

func TestVaultRepo_GetByAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultRepo(mock)
	v := newTestVault()

	mock.ExpectQuery("SELECT .+ FROM vaults WHERE address").
		WithArgs(v.Address.Bytes()).
		WillReturnRows(vaultRow(v))

	result, err := repo.GetByAddress(context.Background(), v.Address)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, v.Authority, result.Authority)
	assert.Equal(t, uint8(254), result.Bump)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultRepo_GetByAddress_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM vaults WHERE address").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"address", "authority", "bump", "created_at"}))

	result, err := repo.GetByAddress(context.Background(), keyLow)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultRepo_GetByAddressForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultRepo(mock)
	v := newTestVault()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM vaults WHERE address .+ FOR UPDATE").
		WithArgs(v.Address.Bytes()).
		WillReturnRows(vaultRow(v))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByAddressForUpdate(context.Background(), tx, v.Address)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, v.Address, result.Address)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultRepo_GetByAddress_CorruptRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM vaults").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"address", "authority", "bump", "created_at"}).
			AddRow([]byte{1, 2, 3}, keyLow.Bytes(), int16(1), time.Now()))

	_, err = repo.GetByAddress(context.Background(), keyLow)
	assert.Error(t, err)
}
