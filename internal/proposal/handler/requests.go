package handler

import (
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"zkdao/internal/proposal/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

// CreateProposalRequest is the HTTP request body for POST /proposals.
type CreateProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Target      string `json:"target"`
	Value       string `json:"value"`
	Payload     string `json:"payload,omitempty"`
	Commitment  string `json:"commitment"`
	ProofHash   string `json:"proof_hash"`

	parsedTarget     domain.Address
	parsedValue      *big.Int
	parsedPayload    []byte
	parsedCommitment domain.Hash32
	parsedProofHash  domain.Hash32
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateProposalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedTarget, err = domain.ParseAddress(strings.TrimSpace(r.Target)); err != nil {
		return err
	}
	if r.parsedValue, err = parseValue(r.Value); err != nil {
		return err
	}
	if r.Payload != "" {
		if r.parsedPayload, err = parseHexBytes(r.Payload, "payload"); err != nil {
			return err
		}
	}
	if r.parsedCommitment, err = domain.ParseHash32(r.Commitment); err != nil {
		return err
	}
	r.parsedProofHash, err = domain.ParseHash32(r.ProofHash)
	return err
}

// VoteRequest is the HTTP request body for POST /proposals/{id}/votes.
type VoteRequest struct {
	Choice     string `json:"choice"`
	Commitment string `json:"commitment"`
	ProofHash  string `json:"proof_hash"`

	parsedChoice     models.VoteChoice
	parsedCommitment domain.Hash32
	parsedProofHash  domain.Hash32
}

func (r *VoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedChoice, err = models.ParseVoteChoice(strings.TrimSpace(r.Choice)); err != nil {
		return err
	}
	if r.parsedCommitment, err = domain.ParseHash32(r.Commitment); err != nil {
		return err
	}
	r.parsedProofHash, err = domain.ParseHash32(r.ProofHash)
	return err
}

// ExecuteProposalRequest is the HTTP request body for POST /proposals/{id}/execute.
type ExecuteProposalRequest struct {
	Commitment string `json:"commitment"`
	ProofHash  string `json:"proof_hash"`

	parsedCommitment domain.Hash32
	parsedProofHash  domain.Hash32
}

func (r *ExecuteProposalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedCommitment, err = domain.ParseHash32(r.Commitment); err != nil {
		return err
	}
	r.parsedProofHash, err = domain.ParseHash32(r.ProofHash)
	return err
}

// SetAllowedTargetRequest is the HTTP request body for PUT /governance/targets.
type SetAllowedTargetRequest struct {
	Target  string `json:"target"`
	Allowed bool   `json:"allowed"`

	parsedTarget domain.Address
}

func (r *SetAllowedTargetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	r.parsedTarget, err = domain.ParseAddress(strings.TrimSpace(r.Target))
	return err
}

// SetDurationRequest carries a governance timing parameter in seconds. Used
// by PUT /governance/voting-period and PUT /governance/execution-delay.
type SetDurationRequest struct {
	Seconds int64 `json:"seconds"`

	parsedDuration time.Duration
}

func (r *SetDurationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Seconds < 0 {
		return dErrors.New(dErrors.CodeValidation, "seconds must not be negative")
	}
	r.parsedDuration = time.Duration(r.Seconds) * time.Second
	return nil
}

// SetQuorumRequest is the HTTP request body for PUT /governance/quorum.
type SetQuorumRequest struct {
	Quorum string `json:"quorum"`

	parsedQuorum *big.Int
}

func (r *SetQuorumRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	r.parsedQuorum, err = parseValue(r.Quorum)
	return err
}

// parseValue parses a non-negative decimal base-unit amount. Zero is legal
// here: proposals may carry no value transfer and quorum may be disabled.
func parseValue(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "value must be a decimal integer")
	}
	if n.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "value must not be negative")
	}
	return n, nil
}

// parseHexBytes decodes a 0x-prefixed hex field.
func parseHexBytes(s, field string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%s must be 0x-prefixed hex", field)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%s is not valid hex", field)
	}
	return b, nil
}
