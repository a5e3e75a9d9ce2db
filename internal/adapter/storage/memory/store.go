package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/pubkey"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	errNotMemoryTx   = errors.New("memory store: transaction was not started by this store")
	errNotLocked     = errors.New("memory store: address is not locked by this transaction")
	errSQLNotAllowed = errors.New("memory store: SQL is not supported")
)

// Store is an in-process ledger. Every address has its own lock; a Tx holds the
// locks it took until Commit or Rollback, and its writes become visible to
// readers all at once on Commit.
type Store struct {
	mu        sync.RWMutex
	accounts  map[pubkey.PublicKey]domain.Account
	vaults    map[pubkey.PublicKey]domain.VaultRecord
	transfers []domain.Transfer
	audit     []domain.AuditLog

	locksMu sync.Mutex
	locks   map[pubkey.PublicKey]chan struct{}
}

// NewStore creates an empty in-memory ledger.
func NewStore() *Store {
	return &Store{
		accounts: make(map[pubkey.PublicKey]domain.Account),
		vaults:   make(map[pubkey.PublicKey]domain.VaultRecord),
		locks:    make(map[pubkey.PublicKey]chan struct{}),
	}
}

func (s *Store) addressLock(addr pubkey.PublicKey) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[addr]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[addr] = l
	}
	return l
}

// account returns the committed account at addr, or a zero account. Caller holds s.mu.
func (s *Store) account(addr pubkey.PublicKey) domain.Account {
	if a, ok := s.accounts[addr]; ok {
		return a
	}
	return domain.Account{Address: addr}
}

// Tx is a unit of work against a Store. It satisfies pgx.Tx so the services
// can run unchanged on either storage driver; the SQL methods are not supported.
type Tx struct {
	store *Store
	held  []pubkey.PublicKey

	accounts  map[pubkey.PublicKey]domain.Account
	vaults    map[pubkey.PublicKey]domain.VaultRecord
	transfers []domain.Transfer
	done      bool
}

func asTx(tx pgx.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errNotMemoryTx
	}
	if t.done {
		return nil, pgx.ErrTxClosed
	}
	return t, nil
}

func (t *Tx) holds(addr pubkey.PublicKey) bool {
	for _, h := range t.held {
		if h == addr {
			return true
		}
	}
	return false
}

// lock acquires the per-address locks in ascending order, skipping ones already held.
func (t *Tx) lock(ctx context.Context, addrs ...pubkey.PublicKey) error {
	sorted := make([]pubkey.PublicKey, 0, len(addrs))
	for _, a := range addrs {
		if !t.holds(a) {
			sorted = append(sorted, a)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })

	for i, addr := range sorted {
		if i > 0 && sorted[i-1] == addr {
			continue
		}
		select {
		case t.store.addressLock(addr) <- struct{}{}:
			t.held = append(t.held, addr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (t *Tx) release() {
	for _, addr := range t.held {
		<-t.store.addressLock(addr)
	}
	t.held = nil
	t.done = true
}

// Commit applies staged writes atomically and releases every lock.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	defer t.release()

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr := range t.vaults {
		if _, exists := s.vaults[addr]; exists {
			return ports.ErrAccountInUse
		}
	}
	for addr, a := range t.accounts {
		s.accounts[addr] = a
	}
	for addr, v := range t.vaults {
		s.vaults[addr] = v
	}
	s.transfers = append(s.transfers, t.transfers...)
	return nil
}

// Rollback discards staged writes and releases every lock.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errSQLNotAllowed
}

func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errSQLNotAllowed
}

func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }

func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errSQLNotAllowed
}

func (t *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errSQLNotAllowed
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errSQLNotAllowed
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{}
}

func (t *Tx) Conn() *pgx.Conn { return nil }

type errRow struct{}

func (errRow) Scan(dest ...any) error { return errSQLNotAllowed }

// Transactor implements ports.DBTransactor for the memory store.
type Transactor struct {
	store *Store
}

// NewTransactor creates a Transactor over store.
func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

// Begin starts a unit of work. It never fails.
func (tr *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &Tx{
		store:    tr.store,
		accounts: make(map[pubkey.PublicKey]domain.Account),
		vaults:   make(map[pubkey.PublicKey]domain.VaultRecord),
	}, nil
}

// HealthCheck implements ports.HealthChecker for the memory store.
type HealthCheck struct{}

// NewHealthCheck creates a memory store health checker.
func NewHealthCheck() *HealthCheck {
	return &HealthCheck{}
}

// Ping always succeeds.
func (h *HealthCheck) Ping(ctx context.Context) error { return nil }

// Name returns the dependency name.
func (h *HealthCheck) Name() string { return "memory" }
