package service

import (
	"context"
	"math/big"

	"zkdao/internal/proposal/models"
	"zkdao/pkg/domain"
)

// Store persists proposals, execution records, and vote records.
//
// Proposal, Execution, and VoteRecord return sentinel.ErrNotFound for
// unknown keys. SaveVoteRecord is write-once per (proposal, voter) pair and
// returns sentinel.ErrConflict on a duplicate. NextID allocates monotonic
// ids starting at 1. The Delete methods are compensation paths that unwind
// writes whose proof digest turned out to be spent.
type Store interface {
	NextID(ctx context.Context) (domain.ProposalID, error)
	Proposal(ctx context.Context, id domain.ProposalID) (*models.Proposal, error)
	SaveProposal(ctx context.Context, p *models.Proposal) error
	DeleteProposal(ctx context.Context, id domain.ProposalID) error
	Execution(ctx context.Context, id domain.ProposalID) (*models.Execution, error)
	SaveExecution(ctx context.Context, e *models.Execution) error
	VoteRecord(ctx context.Context, id domain.ProposalID, voter domain.Address) (*models.VoteRecord, error)
	SaveVoteRecord(ctx context.Context, v *models.VoteRecord) error
	DeleteVoteRecord(ctx context.Context, id domain.ProposalID, voter domain.Address) error
}

// ProofGate is the identity boundary: every proof-gated engine entry point
// checks IsVerified and Validate on the way in and consumes the digest only
// after the gated action succeeded.
type ProofGate interface {
	IsVerified(ctx context.Context, user domain.Address) (bool, error)
	Validate(ctx context.Context, user domain.Address, commitment, proofHash domain.Hash32) (bool, error)
	ConsumeProof(ctx context.Context, proofHash domain.Hash32) error
}

// VotingPower reads vote weights from the ledger.
type VotingPower interface {
	GetVotes(ctx context.Context, account domain.Address) (*big.Int, error)
}

// Executor performs the allow-listed call of a passed proposal. The treasury
// queue implements it for value transfers.
type Executor interface {
	Execute(ctx context.Context, target domain.Address, value *big.Int, payload []byte) error
}
