package service

import (
	"context"
	"time"

	"zkdao/internal/ledger/models"
	"zkdao/pkg/domain"
)

// Store persists accounts, checkpoint histories, and the mint cooldown state.
//
// Account returns sentinel.ErrNotFound for unknown addresses. Checkpoint
// histories are returned in ascending timestamp order. WriteCheckpoint
// appends, or overwrites the latest entry when timestamps are equal, and
// returns sentinel.ErrInvalidState on a timestamp regression. LastMint
// returns sentinel.ErrNotFound before the first mint.
type Store interface {
	Account(ctx context.Context, addr domain.Address) (*models.Account, error)
	SaveAccount(ctx context.Context, a *models.Account) error
	Checkpoints(ctx context.Context, addr domain.Address) ([]models.Checkpoint, error)
	WriteCheckpoint(ctx context.Context, addr domain.Address, cp models.Checkpoint) error
	SupplyCheckpoints(ctx context.Context) ([]models.Checkpoint, error)
	WriteSupplyCheckpoint(ctx context.Context, cp models.Checkpoint) error
	LastMint(ctx context.Context) (time.Time, error)
	SaveLastMint(ctx context.Context, t time.Time) error
}
