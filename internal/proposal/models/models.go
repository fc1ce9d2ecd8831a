// Package models defines the proposal lifecycle types: the proposal core,
// its execution record, and per-voter vote records.
package models

import (
	"math/big"
	"time"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

// ProposalState is the lifecycle position of a proposal.
// Active -> {Passed, Rejected} -> Executed; Active -> Cancelled.
// Executed, Rejected, and Cancelled are terminal.
type ProposalState string

const (
	StateActive    ProposalState = "active"
	StatePassed    ProposalState = "passed"
	StateRejected  ProposalState = "rejected"
	StateExecuted  ProposalState = "executed"
	StateCancelled ProposalState = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (st ProposalState) IsTerminal() bool {
	return st == StateExecuted || st == StateRejected || st == StateCancelled
}

// VoteChoice is the ballot bucket a vote tallies into.
type VoteChoice string

const (
	ChoiceFor     VoteChoice = "for"
	ChoiceAgainst VoteChoice = "against"
	ChoiceAbstain VoteChoice = "abstain"
)

// ParseVoteChoice constructs a VoteChoice from external input.
//
// Errors: returns CodeInvalidChoice for anything outside the three buckets.
func ParseVoteChoice(s string) (VoteChoice, error) {
	switch VoteChoice(s) {
	case ChoiceFor, ChoiceAgainst, ChoiceAbstain:
		return VoteChoice(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidChoice, "%q is not a valid vote choice", s)
	}
}

func (c VoteChoice) String() string {
	return string(c)
}

// Proposal is the governance proposal core. Identity fields are immutable
// after creation; votes mutate the tallies and lifecycle calls mutate the
// state.
type Proposal struct {
	ID          domain.ProposalID
	Proposer    domain.Address
	Title       string
	Description string

	StartTime time.Time
	EndTime   time.Time

	ForVotes     *big.Int
	AgainstVotes *big.Int
	AbstainVotes *big.Int

	State ProposalState

	// Commitment and ProofHash record the pair the proposer presented at
	// creation, for audit lineage.
	Commitment domain.Hash32
	ProofHash  domain.Hash32
}

// NewProposal returns an Active proposal with zeroed tallies.
func NewProposal(id domain.ProposalID, proposer domain.Address, title, description string, start, end time.Time) *Proposal {
	return &Proposal{
		ID:           id,
		Proposer:     proposer,
		Title:        title,
		Description:  description,
		StartTime:    start,
		EndTime:      end,
		ForVotes:     new(big.Int),
		AgainstVotes: new(big.Int),
		AbstainVotes: new(big.Int),
		State:        StateActive,
	}
}

// TotalVotes is the quorum denominator: all three buckets combined.
func (p *Proposal) TotalVotes() *big.Int {
	total := new(big.Int).Add(p.ForVotes, p.AgainstVotes)
	return total.Add(total, p.AbstainVotes)
}

// Tally adds weight to the bucket for choice.
func (p *Proposal) Tally(choice VoteChoice, weight *big.Int) {
	switch choice {
	case ChoiceFor:
		p.ForVotes.Add(p.ForVotes, weight)
	case ChoiceAgainst:
		p.AgainstVotes.Add(p.AgainstVotes, weight)
	case ChoiceAbstain:
		p.AbstainVotes.Add(p.AbstainVotes, weight)
	}
}

// Untally removes weight from the bucket for choice, reversing a Tally that
// could not be committed.
func (p *Proposal) Untally(choice VoteChoice, weight *big.Int) {
	switch choice {
	case ChoiceFor:
		p.ForVotes.Sub(p.ForVotes, weight)
	case ChoiceAgainst:
		p.AgainstVotes.Sub(p.AgainstVotes, weight)
	case ChoiceAbstain:
		p.AbstainVotes.Sub(p.AbstainVotes, weight)
	}
}

// Execution is the action a passed proposal performs. Created alongside the
// proposal with a zero TimelockEnd; finalization stamps the timelock and
// execution flips Executed exactly once.
type Execution struct {
	ProposalID  domain.ProposalID
	Target      domain.Address
	Value       *big.Int
	Payload     []byte
	Executed    bool
	TimelockEnd time.Time
}

// VoteRecord is the write-once ballot for a (proposal, voter) pair.
type VoteRecord struct {
	ProposalID domain.ProposalID
	Voter      domain.Address
	Choice     VoteChoice
	Weight     *big.Int
	ProofHash  domain.Hash32
	CastAt     time.Time
}
