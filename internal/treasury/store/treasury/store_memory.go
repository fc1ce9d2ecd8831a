package treasury

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"zkdao/internal/treasury/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
)

// InMemoryStore keeps the treasury balance and withdrawal queue in process
// memory. Default backend for tests and single-node deployments.
type InMemoryStore struct {
	mu          sync.RWMutex
	nextID      domain.WithdrawalID
	balance     *big.Int
	withdrawals map[domain.WithdrawalID]*models.Withdrawal
}

func New() *InMemoryStore {
	return &InMemoryStore{
		nextID:      1,
		balance:     new(big.Int),
		withdrawals: make(map[domain.WithdrawalID]*models.Withdrawal),
	}
}

func (s *InMemoryStore) NextID(_ context.Context) (domain.WithdrawalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	return id, nil
}

func (s *InMemoryStore) Withdrawal(_ context.Context, id domain.WithdrawalID) (*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.withdrawals[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return cloneWithdrawal(w), nil
}

func (s *InMemoryStore) SaveWithdrawal(_ context.Context, w *models.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.withdrawals[w.ID] = cloneWithdrawal(w)
	return nil
}

// PendingWithdrawals returns unexecuted, uncancelled records in id order.
func (s *InMemoryStore) PendingWithdrawals(_ context.Context) ([]*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*models.Withdrawal
	for _, w := range s.withdrawals {
		if w.Pending() {
			pending = append(pending, cloneWithdrawal(w))
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func (s *InMemoryStore) Balance(_ context.Context) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(big.Int).Set(s.balance), nil
}

func (s *InMemoryStore) SaveBalance(_ context.Context, balance *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balance = new(big.Int).Set(balance)
	return nil
}

func cloneWithdrawal(w *models.Withdrawal) *models.Withdrawal {
	cp := *w
	cp.Amount = new(big.Int).Set(w.Amount)
	return &cp
}
