package service

import (
	"crypto/ed25519"
	"fmt"

	"vault-custody/pkg/pubkey"

	"github.com/mr-tron/base58"
)

// Ed25519SignatureService implements ports.SignatureService. Signatures are
// base58-encoded 64-byte ed25519 signatures, as wallets produce them.
type Ed25519SignatureService struct{}

// NewEd25519SignatureService creates a new ed25519 signature service.
func NewEd25519SignatureService() *Ed25519SignatureService {
	return &Ed25519SignatureService{}
}

// Sign signs payload with key and returns the base58 signature. Used by clients and tests.
func (s *Ed25519SignatureService) Sign(key ed25519.PrivateKey, payload string) string {
	return base58.Encode(ed25519.Sign(key, []byte(payload)))
}

// Verify checks signature against payload for signer.
func (s *Ed25519SignatureService) Verify(signer pubkey.PublicKey, payload string, signature string) bool {
	raw, err := base58.Decode(signature)
	if err != nil || len(raw) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(signer[:]), []byte(payload), raw)
}

// BuildCanonicalString constructs the canonical payload for signing.
// Format: METHOD|PATH|TIMESTAMP|NONCE|BODY
func (s *Ed25519SignatureService) BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", method, path, timestamp, nonce, body)
}
