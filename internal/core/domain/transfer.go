package domain

import (
	"time"

	"vault-custody/pkg/pubkey"

	"github.com/google/uuid"
)

// Transfer is the receipt written for every committed withdrawal from a vault.
type Transfer struct {
	ID                uuid.UUID        `json:"id"`
	Vault             pubkey.PublicKey `json:"vault"`
	Authority         pubkey.PublicKey `json:"authority"`
	Caller            pubkey.PublicKey `json:"caller"`
	Recipient         pubkey.PublicKey `json:"recipient"`
	Amount            uint64           `json:"amount"`
	VaultBalanceAfter uint64           `json:"vault_balance_after"`
	CreatedAt         time.Time        `json:"created_at"`
}
