package domain

import (
	"errors"
	"math"
	"time"

	"vault-custody/pkg/pubkey"
)

// AccountStorageOverhead is the per-account byte overhead charged by the rent policy.
const AccountStorageOverhead = 128

var (
	// ErrInsufficientLamports means a debit would drop below the retained minimum.
	ErrInsufficientLamports = errors.New("insufficient lamports")
	// ErrLamportsOverflow means a credit would overflow uint64.
	ErrLamportsOverflow = errors.New("lamports overflow")
)

// Account is the native balance held at an address. An address that was never
// written reads as a zero-balance account with no data.
type Account struct {
	Address   pubkey.PublicKey `json:"address"`
	Lamports  uint64           `json:"lamports"`
	DataLen   int              `json:"data_len"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount uint64) error {
	if a.Lamports > math.MaxUint64-amount {
		return ErrLamportsOverflow
	}
	a.Lamports += amount
	return nil
}

// Debit removes amount, keeping at least minRetained in the account.
func (a *Account) Debit(amount, minRetained uint64) error {
	if !a.CanDebit(amount, minRetained) {
		return ErrInsufficientLamports
	}
	a.Lamports -= amount
	return nil
}

// CanDebit reports whether Lamports >= amount + minRetained without overflowing.
func (a *Account) CanDebit(amount, minRetained uint64) bool {
	if a.Lamports < minRetained {
		return false
	}
	return a.Lamports-minRetained >= amount
}

// RentPolicy sets the minimum balance an account holding data must retain.
type RentPolicy struct {
	LamportsPerByte uint64
}

// MinimumBalance returns (overhead + dataLen) * LamportsPerByte, saturating at MaxUint64.
func (p RentPolicy) MinimumBalance(dataLen int) uint64 {
	if p.LamportsPerByte == 0 || dataLen < 0 {
		return 0
	}
	size := uint64(AccountStorageOverhead + dataLen)
	if size > math.MaxUint64/p.LamportsPerByte {
		return math.MaxUint64
	}
	return size * p.LamportsPerByte
}

// MinimumFor is MinimumBalance for an existing account. Accounts without data
// have no floor and may be drained to zero.
func (p RentPolicy) MinimumFor(a *Account) uint64 {
	if a.DataLen == 0 {
		return 0
	}
	return p.MinimumBalance(a.DataLen)
}
