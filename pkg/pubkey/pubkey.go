package pubkey

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the byte length of a public key.
const Size = 32

// PublicKey is a 32-byte identity: an ed25519 public key or a program-derived address.
type PublicKey [Size]byte

// ErrInvalidLength is returned when decoded input is not exactly Size bytes.
var ErrInvalidLength = errors.New("invalid public key length")

// Parse decodes a base58 string into a PublicKey.
func Parse(s string) (PublicKey, error) {
	var pk PublicKey
	if s == "" {
		return pk, fmt.Errorf("parse public key: empty string")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("parse public key %q: %w", s, err)
	}
	if len(raw) != Size {
		return pk, fmt.Errorf("parse public key %q: %w (%d bytes)", s, ErrInvalidLength, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustParse is Parse for compile-time constants. It panics on bad input.
func MustParse(s string) PublicKey {
	pk, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// FromBytes copies b into a PublicKey.
func FromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != Size {
		return pk, fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// String returns the base58 encoding.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Bytes returns a copy of the key bytes.
func (pk PublicKey) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, pk[:])
	return out
}

// IsZero reports whether every byte is zero.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// Equal reports byte equality.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk == other
}

// Compare orders keys bytewise. Used to acquire per-address locks in a stable order.
func (pk PublicKey) Compare(other PublicKey) int {
	return bytes.Compare(pk[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}
