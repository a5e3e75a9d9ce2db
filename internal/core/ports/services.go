package ports

import (
	"context"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/pkg/pubkey"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

// SignatureService verifies ed25519 request signatures.
type SignatureService interface {
	Verify(signer pubkey.PublicKey, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, signer string, nonce string, ttl time.Duration) (bool, error)
}

// Metrics receives operation outcomes.
type Metrics interface {
	VaultCreated()
	TransferCommitted(amount uint64)
	TransferRejected(code string)
	Airdropped(amount uint64)
}

// --- Service Ports (Business Logic) ---

// VaultService is the vault registry.
type VaultService interface {
	CreateVault(ctx context.Context, authority pubkey.PublicKey) (*domain.VaultRecord, error)
}

// TransferService is the transfer authorization gate.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transfer, error)
}

// TransferRequest names a vault, the authenticated caller, a recipient and an amount in lamports.
type TransferRequest struct {
	Vault     pubkey.PublicKey
	Caller    pubkey.PublicKey
	Recipient pubkey.PublicKey
	Amount    uint64
}

// FundingService credits addresses from the faucet.
type FundingService interface {
	Airdrop(ctx context.Context, address pubkey.PublicKey, lamports uint64) (*domain.Account, error)
}

// ReportingService answers read-only queries about vaults and balances.
type ReportingService interface {
	GetVault(ctx context.Context, address pubkey.PublicKey) (*VaultView, error)
	GetVaultByAuthority(ctx context.Context, authority pubkey.PublicKey) (*VaultView, error)
	GetAccount(ctx context.Context, address pubkey.PublicKey) (*domain.Account, error)
	ListTransfers(ctx context.Context, vault pubkey.PublicKey, limit int) ([]domain.Transfer, error)
}

// VaultView combines a vault address, its record (if initialized) and its balance.
type VaultView struct {
	Address  pubkey.PublicKey
	Bump     uint8
	Status   domain.VaultStatus
	Record   *domain.VaultRecord // nil while uninitialized
	Lamports uint64
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// HealthChecker checks a storage dependency ("postgresql", "redis", "memory").
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
