package member

import (
	"context"
	"sync"

	"zkdao/internal/proofgate/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
)

// InMemoryStore keeps membership records and the verifier set in process
// memory. Default backend for tests and single-node deployments.
type InMemoryStore struct {
	mu        sync.RWMutex
	members   map[domain.Address]*models.Member
	verifiers map[domain.Address]bool
}

func New() *InMemoryStore {
	return &InMemoryStore{
		members:   make(map[domain.Address]*models.Member),
		verifiers: make(map[domain.Address]bool),
	}
}

func (s *InMemoryStore) Get(_ context.Context, addr domain.Address) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.members[addr]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.members[m.Address] = &cp
	return nil
}

func (s *InMemoryStore) AddVerifier(_ context.Context, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifiers[addr] = true
	return nil
}

func (s *InMemoryStore) IsVerifier(_ context.Context, addr domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.verifiers[addr], nil
}
