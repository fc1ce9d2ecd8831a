// Package proofs tracks consumed proof digests. A digest enters the registry
// at most once; a second MarkUsed is the replay signal.
package proofs

import (
	"context"
	"sync"

	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
)

// InMemoryStore is the process-local replay registry.
type InMemoryStore struct {
	mu   sync.RWMutex
	used map[domain.Hash32]bool
}

func New() *InMemoryStore {
	return &InMemoryStore{used: make(map[domain.Hash32]bool)}
}

func (s *InMemoryStore) IsUsed(_ context.Context, digest domain.Hash32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.used[digest], nil
}

// MarkUsed records the digest. Returns sentinel.ErrAlreadyUsed when the
// digest was already present; the check and the write are one atomic step.
func (s *InMemoryStore) MarkUsed(_ context.Context, digest domain.Hash32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.used[digest] {
		return sentinel.ErrAlreadyUsed
	}
	s.used[digest] = true
	return nil
}
