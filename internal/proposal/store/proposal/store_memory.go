package proposal

import (
	"context"
	"math/big"
	"sync"

	"zkdao/internal/proposal/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
)

type voteKey struct {
	proposal domain.ProposalID
	voter    domain.Address
}

// InMemoryStore keeps proposals, execution records, and vote records in
// process memory. Default backend for tests and single-node deployments.
type InMemoryStore struct {
	mu         sync.RWMutex
	nextID     domain.ProposalID
	proposals  map[domain.ProposalID]*models.Proposal
	executions map[domain.ProposalID]*models.Execution
	votes      map[voteKey]*models.VoteRecord
}

func New() *InMemoryStore {
	return &InMemoryStore{
		nextID:     1,
		proposals:  make(map[domain.ProposalID]*models.Proposal),
		executions: make(map[domain.ProposalID]*models.Execution),
		votes:      make(map[voteKey]*models.VoteRecord),
	}
}

func (s *InMemoryStore) NextID(_ context.Context) (domain.ProposalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	return id, nil
}

func (s *InMemoryStore) Proposal(_ context.Context, id domain.ProposalID) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.proposals[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return cloneProposal(p), nil
}

func (s *InMemoryStore) SaveProposal(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proposals[p.ID] = cloneProposal(p)
	return nil
}

func (s *InMemoryStore) Execution(_ context.Context, id domain.ProposalID) (*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.executions[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return cloneExecution(e), nil
}

func (s *InMemoryStore) SaveExecution(_ context.Context, e *models.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[e.ProposalID] = cloneExecution(e)
	return nil
}

func (s *InMemoryStore) VoteRecord(_ context.Context, id domain.ProposalID, voter domain.Address) (*models.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.votes[voteKey{id, voter}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *v
	cp.Weight = new(big.Int).Set(v.Weight)
	return &cp, nil
}

// SaveVoteRecord is write-once per (proposal, voter) pair.
func (s *InMemoryStore) SaveVoteRecord(_ context.Context, v *models.VoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{v.ProposalID, v.Voter}
	if _, exists := s.votes[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *v
	cp.Weight = new(big.Int).Set(v.Weight)
	s.votes[key] = &cp
	return nil
}

// DeleteProposal removes a proposal together with its execution record and
// any vote records. Compensation path: it unwinds a stored proposal whose
// proof digest turned out to be spent.
func (s *InMemoryStore) DeleteProposal(_ context.Context, id domain.ProposalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.proposals, id)
	delete(s.executions, id)
	for key := range s.votes {
		if key.proposal == id {
			delete(s.votes, key)
		}
	}
	return nil
}

// DeleteVoteRecord removes a single ballot. Compensation path: it unwinds a
// recorded vote whose proof digest turned out to be spent.
func (s *InMemoryStore) DeleteVoteRecord(_ context.Context, id domain.ProposalID, voter domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.votes, voteKey{id, voter})
	return nil
}

func cloneProposal(p *models.Proposal) *models.Proposal {
	cp := *p
	cp.ForVotes = new(big.Int).Set(p.ForVotes)
	cp.AgainstVotes = new(big.Int).Set(p.AgainstVotes)
	cp.AbstainVotes = new(big.Int).Set(p.AbstainVotes)
	return &cp
}

func cloneExecution(e *models.Execution) *models.Execution {
	cp := *e
	cp.Value = new(big.Int).Set(e.Value)
	cp.Payload = append([]byte(nil), e.Payload...)
	return &cp
}
