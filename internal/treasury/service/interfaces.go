package service

import (
	"context"
	"math/big"

	"zkdao/internal/treasury/models"
	"zkdao/pkg/domain"
)

// Store persists the treasury balance and withdrawal queue.
//
// Withdrawal returns sentinel.ErrNotFound for unknown ids. NextID allocates
// monotonic ids starting at 1. PendingWithdrawals returns unexecuted,
// uncancelled records in id order.
type Store interface {
	NextID(ctx context.Context) (domain.WithdrawalID, error)
	Withdrawal(ctx context.Context, id domain.WithdrawalID) (*models.Withdrawal, error)
	SaveWithdrawal(ctx context.Context, w *models.Withdrawal) error
	PendingWithdrawals(ctx context.Context) ([]*models.Withdrawal, error)
	Balance(ctx context.Context) (*big.Int, error)
	SaveBalance(ctx context.Context, balance *big.Int) error
}
