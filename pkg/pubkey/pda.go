package pubkey

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	sha256 "github.com/minio/sha256-simd"
)

const (
	// MaxSeeds is the maximum number of seeds, including the bump, accepted by CreateProgramAddress.
	MaxSeeds = 16
	// MaxSeedLen is the maximum length of a single seed.
	MaxSeedLen = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	// ErrOnCurve is returned when a candidate address is a valid ed25519 point.
	ErrOnCurve = errors.New("derived address is on the ed25519 curve")
	// ErrNoViableBump is returned when every bump in [0, 255] yields an on-curve address.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
	// ErrMaxSeedLength is returned when too many or too long seeds are supplied.
	ErrMaxSeedLength = errors.New("seed limits exceeded")
)

// IsOnCurve reports whether b decodes to a point on the ed25519 curve.
// Addresses for which this is false have no corresponding private key.
func IsOnCurve(b PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

// CreateProgramAddress hashes seeds with the owning program ID into an address that
// must not lie on the curve. The bump, when used, is expected as the last seed.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return PublicKey{}, fmt.Errorf("%w: %d seeds", ErrMaxSeedLength, len(seeds))
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return PublicKey{}, fmt.Errorf("%w: seed of %d bytes", ErrMaxSeedLength, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var addr PublicKey
	copy(addr[:], h.Sum(nil))

	if IsOnCurve(addr) {
		return PublicKey{}, ErrOnCurve
	}
	return addr, nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the first
// off-curve address together with the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return PublicKey{}, 0, err
		}
	}
	return PublicKey{}, 0, ErrNoViableBump
}
