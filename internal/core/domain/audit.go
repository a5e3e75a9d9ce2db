package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreateVault AuditAction = "CREATE_VAULT"
	AuditActionTransfer    AuditAction = "TRANSFER"
	AuditActionAirdrop     AuditAction = "AIRDROP"
)

// AuditLog records a single mutating request, including rejected ones.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Signer       *string     `json:"signer,omitempty"` // base58 identity, nil when unauthenticated
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Status       int         `json:"status"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Succeeded reports whether the audited request completed with a 2xx status.
func (a *AuditLog) Succeeded() bool {
	return a.Status >= 200 && a.Status < 300
}
