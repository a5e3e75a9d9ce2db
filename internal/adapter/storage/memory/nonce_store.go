package memory

import (
	"context"
	"sync"
	"time"
)

// NonceStore implements ports.NonceStore in process memory, for deployments
// without Redis.
type NonceStore struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	now    func() time.Time
	checks int
}

// NewNonceStore creates an empty nonce store.
func NewNonceStore() *NonceStore {
	return &NonceStore{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// CheckAndSet returns true if nonce was not seen for signer within ttl.
func (s *NonceStore) CheckAndSet(ctx context.Context, signer string, nonce string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.checks++
	if s.checks%256 == 0 {
		for k, exp := range s.seen {
			if !now.Before(exp) {
				delete(s.seen, k)
			}
		}
	}

	key := signer + ":" + nonce
	if exp, ok := s.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.seen[key] = now.Add(ttl)
	return true, nil
}
