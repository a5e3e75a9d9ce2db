package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

var testProgramID = pubkey.MustParse("BqvmMSVZZ6fNXHegCahrgSkD6STpiBASVpvbsAgmbNxC")

// mockTx implements pgx.Tx for testing
type mockTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (m *mockTx) Rollback(_ context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}

func (m *mockTx) Commit(_ context.Context) error {
	m.committed = true
	return nil
}

func newKeypair(t *testing.T) (pubkey.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := pubkey.FromBytes(pub)
	require.NoError(t, err)
	return pk, priv
}

func newKey(t *testing.T) pubkey.PublicKey {
	t.Helper()
	pk, _ := newKeypair(t)
	return pk
}
