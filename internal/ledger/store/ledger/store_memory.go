// Package ledger stores accounts and voting-power checkpoint histories.
package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"

	"zkdao/internal/ledger/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts and checkpoint histories in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[domain.Address]*models.Account
	history  map[domain.Address][]models.Checkpoint
	supply   []models.Checkpoint
	lastMint time.Time
}

func New() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[domain.Address]*models.Account),
		history:  make(map[domain.Address][]models.Checkpoint),
	}
}

func (s *InMemoryStore) Account(_ context.Context, addr domain.Address) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.accounts[addr]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	cp.Balance = new(big.Int).Set(a.Balance)
	return &cp, nil
}

func (s *InMemoryStore) SaveAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	cp.Balance = new(big.Int).Set(a.Balance)
	s.accounts[a.Address] = &cp
	return nil
}

func (s *InMemoryStore) Checkpoints(_ context.Context, addr domain.Address) ([]models.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneCheckpoints(s.history[addr]), nil
}

// WriteCheckpoint appends the entry, or overwrites the latest entry's votes
// when the timestamps match so several mutations within one call collapse
// into one history slot. A timestamp before the latest entry is a clock
// violation and returns sentinel.ErrInvalidState.
func (s *InMemoryStore) WriteCheckpoint(_ context.Context, addr domain.Address, cp models.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := writeCheckpoint(s.history[addr], cp)
	if err != nil {
		return err
	}
	s.history[addr] = updated
	return nil
}

func (s *InMemoryStore) SupplyCheckpoints(_ context.Context) ([]models.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneCheckpoints(s.supply), nil
}

func (s *InMemoryStore) WriteSupplyCheckpoint(_ context.Context, cp models.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := writeCheckpoint(s.supply, cp)
	if err != nil {
		return err
	}
	s.supply = updated
	return nil
}

func (s *InMemoryStore) LastMint(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastMint.IsZero() {
		return time.Time{}, sentinel.ErrNotFound
	}
	return s.lastMint, nil
}

func (s *InMemoryStore) SaveLastMint(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastMint = t
	return nil
}

func writeCheckpoint(history []models.Checkpoint, cp models.Checkpoint) ([]models.Checkpoint, error) {
	entry := models.Checkpoint{Timestamp: cp.Timestamp, Votes: new(big.Int).Set(cp.Votes)}
	if n := len(history); n > 0 {
		last := history[n-1]
		switch {
		case cp.Timestamp.Equal(last.Timestamp):
			history[n-1] = entry
			return history, nil
		case cp.Timestamp.Before(last.Timestamp):
			return nil, sentinel.ErrInvalidState
		}
	}
	return append(history, entry), nil
}

func cloneCheckpoints(history []models.Checkpoint) []models.Checkpoint {
	out := make([]models.Checkpoint, len(history))
	for i, cp := range history {
		out[i] = models.Checkpoint{Timestamp: cp.Timestamp, Votes: new(big.Int).Set(cp.Votes)}
	}
	return out
}
