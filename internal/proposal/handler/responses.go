package handler

import (
	"encoding/hex"
	"time"

	"zkdao/internal/proposal/models"
)

// ProposalResponse is the HTTP shape of a proposal. Tallies are decimal
// base-unit strings.
type ProposalResponse struct {
	ID           uint64    `json:"id"`
	Proposer     string    `json:"proposer"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ForVotes     string    `json:"for_votes"`
	AgainstVotes string    `json:"against_votes"`
	AbstainVotes string    `json:"abstain_votes"`
	State        string    `json:"state"`
	Commitment   string    `json:"commitment,omitempty"`
	ProofHash    string    `json:"proof_hash,omitempty"`
}

// FromProposal converts a domain proposal to its response shape.
func FromProposal(p *models.Proposal) ProposalResponse {
	resp := ProposalResponse{
		ID:           uint64(p.ID),
		Proposer:     p.Proposer.String(),
		Title:        p.Title,
		Description:  p.Description,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		ForVotes:     p.ForVotes.String(),
		AgainstVotes: p.AgainstVotes.String(),
		AbstainVotes: p.AbstainVotes.String(),
		State:        string(p.State),
	}
	if !p.Commitment.IsZero() {
		resp.Commitment = p.Commitment.String()
	}
	if !p.ProofHash.IsZero() {
		resp.ProofHash = p.ProofHash.String()
	}
	return resp
}

// ExecutionResponse is the HTTP shape of a proposal's execution record.
type ExecutionResponse struct {
	ProposalID  uint64     `json:"proposal_id"`
	Target      string     `json:"target"`
	Value       string     `json:"value"`
	Payload     string     `json:"payload,omitempty"`
	Executed    bool       `json:"executed"`
	TimelockEnd *time.Time `json:"timelock_end,omitempty"`
}

// FromExecution converts a domain execution record to its response shape.
// TimelockEnd is omitted until finalization stamps it.
func FromExecution(e *models.Execution) ExecutionResponse {
	resp := ExecutionResponse{
		ProposalID: uint64(e.ProposalID),
		Target:     e.Target.String(),
		Value:      e.Value.String(),
		Executed:   e.Executed,
	}
	if len(e.Payload) > 0 {
		resp.Payload = "0x" + hex.EncodeToString(e.Payload)
	}
	if !e.TimelockEnd.IsZero() {
		t := e.TimelockEnd
		resp.TimelockEnd = &t
	}
	return resp
}

// VoteRecordResponse is the HTTP shape of a cast ballot.
type VoteRecordResponse struct {
	ProposalID uint64    `json:"proposal_id"`
	Voter      string    `json:"voter"`
	Choice     string    `json:"choice"`
	Weight     string    `json:"weight"`
	CastAt     time.Time `json:"cast_at"`
}

// FromVoteRecord converts a domain vote record to its response shape.
func FromVoteRecord(v *models.VoteRecord) VoteRecordResponse {
	return VoteRecordResponse{
		ProposalID: uint64(v.ProposalID),
		Voter:      v.Voter.String(),
		Choice:     v.Choice.String(),
		Weight:     v.Weight.String(),
		CastAt:     v.CastAt,
	}
}

// CreateProposalResponse is the HTTP response for POST /proposals.
type CreateProposalResponse struct {
	ID uint64 `json:"id"`
}

// FinalizeResponse is the HTTP response for POST /proposals/{id}/finalize.
type FinalizeResponse struct {
	ID    uint64 `json:"id"`
	State string `json:"state"`
}
