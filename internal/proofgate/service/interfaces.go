package service

import (
	"context"

	"zkdao/internal/proofgate/models"
	"zkdao/pkg/domain"
)

// MemberStore persists membership records and the verifier set.
//
// Get returns sentinel.ErrNotFound for unknown addresses. Upsert replaces
// the whole record.
type MemberStore interface {
	Get(ctx context.Context, addr domain.Address) (*models.Member, error)
	Upsert(ctx context.Context, m *models.Member) error
	AddVerifier(ctx context.Context, addr domain.Address) error
	IsVerifier(ctx context.Context, addr domain.Address) (bool, error)
}

// ProofRegistry is the replay-protection set of consumed proof digests.
//
// MarkUsed returns sentinel.ErrAlreadyUsed when the digest is already
// present; the existence check and the write are one atomic step.
type ProofRegistry interface {
	IsUsed(ctx context.Context, digest domain.Hash32) (bool, error)
	MarkUsed(ctx context.Context, digest domain.Hash32) error
}
