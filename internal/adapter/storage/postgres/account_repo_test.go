package postgres

import (
	"context"
	"math"
	"testing"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/pkg/pubkey"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyLow  = pubkey.PublicKey{0x01, 0xaa}
	keyHigh = pubkey.PublicKey{0xf0, 0x01}
)

func accountColumns() []string {
	return []string{"address", "lamports", "data_len", "updated_at"}
}

func TestAccountRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT lamports, data_len, updated_at FROM accounts WHERE address").
		WithArgs(keyLow.Bytes()).
		WillReturnRows(pgxmock.NewRows([]string{"lamports", "data_len", "updated_at"}).AddRow(int64(700), 41, now))

	acct, err := repo.Get(context.Background(), keyLow)
	require.NoError(t, err)
	assert.Equal(t, keyLow, acct.Address)
	assert.Equal(t, uint64(700), acct.Lamports)
	assert.Equal(t, 41, acct.DataLen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Get_UnknownIsZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE address").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"lamports", "data_len", "updated_at"}))

	acct, err := repo.Get(context.Background(), keyHigh)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, uint64(0), acct.Lamports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_LockForUpdate_SortedAndComplete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	now := time.Now().UTC()
	sorted := [][]byte{keyLow.Bytes(), keyHigh.Bytes()}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts .+ ON CONFLICT").
		WithArgs(sorted).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT .+ FROM accounts .+ ORDER BY address FOR UPDATE").
		WithArgs(sorted).
		WillReturnRows(pgxmock.NewRows(accountColumns()).
			AddRow(keyLow.Bytes(), int64(1000), 41, now).
			AddRow(keyHigh.Bytes(), int64(0), 0, now))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	// Requested high-first and with a duplicate; locked low-first.
	accounts, err := repo.LockForUpdate(context.Background(), tx, keyHigh, keyLow, keyHigh)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, uint64(1000), accounts[keyLow].Lamports)
	assert.Equal(t, 41, accounts[keyLow].DataLen)
	assert.Equal(t, uint64(0), accounts[keyHigh].Lamports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET lamports").
		WithArgs(int64(300), 0, keyHigh.Bytes()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Save(context.Background(), tx, &domain.Account{Address: keyHigh, Lamports: 300})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Save_NotLocked(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET lamports").
		WithArgs(int64(1), 0, keyLow.Bytes()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Save(context.Background(), tx, &domain.Account{Address: keyLow, Lamports: 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
}

func TestAccountRepo_Save_OutOfRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Save(context.Background(), tx, &domain.Account{Address: keyLow, Lamports: math.MaxInt64 + 1})
	assert.ErrorIs(t, err, errLamportsRange)
	assert.NoError(t, mock.ExpectationsWereMet())
}
