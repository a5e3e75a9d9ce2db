package domain

import (
	"errors"
	"time"

	"vault-custody/pkg/pubkey"
)

// VaultSeed is the domain-separation tag hashed in front of the authority key.
const VaultSeed = "manager"

// VaultRecordSize is the on-ledger size of a vault record:
// 8-byte discriminator, 32-byte authority, 1-byte bump.
const VaultRecordSize = 8 + pubkey.Size + 1

// VaultStatus is the lifecycle state of a vault address.
type VaultStatus string

const (
	VaultStatusUninitialized VaultStatus = "UNINITIALIZED"
	VaultStatusActive        VaultStatus = "ACTIVE"
)

// ErrRecordMismatch means a record's stored fields do not re-derive its address.
var ErrRecordMismatch = errors.New("vault record does not re-derive its address")

// VaultRecord is persisted at the vault address. Authority and Bump never change.
type VaultRecord struct {
	Address   pubkey.PublicKey `json:"address"`
	Authority pubkey.PublicKey `json:"authority"`
	Bump      uint8            `json:"bump"`
	CreatedAt time.Time        `json:"created_at"`
}

// VaultSeeds returns the derivation seeds for an authority, without the bump.
func VaultSeeds(authority pubkey.PublicKey) [][]byte {
	return [][]byte{[]byte(VaultSeed), authority[:]}
}

// DeriveVaultAddress finds the vault address and bump for an authority.
func DeriveVaultAddress(authority, programID pubkey.PublicKey) (pubkey.PublicKey, uint8, error) {
	return pubkey.FindProgramAddress(VaultSeeds(authority), programID)
}

// VaultAddressFor recomputes the address from an authority and a known bump.
func VaultAddressFor(authority pubkey.PublicKey, bump uint8, programID pubkey.PublicKey) (pubkey.PublicKey, error) {
	return pubkey.CreateProgramAddress(append(VaultSeeds(authority), []byte{bump}), programID)
}

// Authenticate checks that Authority and Bump re-derive the given address.
func (r *VaultRecord) Authenticate(address, programID pubkey.PublicKey) error {
	expected, err := VaultAddressFor(r.Authority, r.Bump, programID)
	if err != nil {
		return errors.Join(ErrRecordMismatch, err)
	}
	if expected != address {
		return ErrRecordMismatch
	}
	return nil
}
