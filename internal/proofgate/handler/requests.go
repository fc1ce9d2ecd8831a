package handler

import (
	"encoding/hex"
	"strings"

	"zkdao/internal/proofgate/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

// SubmitProofRequest is the HTTP request body for POST /members/{address}/proofs.
type SubmitProofRequest struct {
	Proof            string `json:"proof"`
	PublicInputs     string `json:"public_inputs"`
	Commitment       string `json:"commitment"`
	ProofHash        string `json:"proof_hash"`
	VerificationType string `json:"verification_type"`

	parsedProof      []byte
	parsedInputs     []byte
	parsedCommitment domain.Hash32
	parsedProofHash  domain.Hash32
	parsedType       models.VerificationType
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitProofRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedProof, err = parseHexBytes(r.Proof, "proof"); err != nil {
		return err
	}
	if r.parsedInputs, err = parseHexBytes(r.PublicInputs, "public_inputs"); err != nil {
		return err
	}
	if r.parsedCommitment, err = domain.ParseHash32(r.Commitment); err != nil {
		return err
	}
	if r.parsedProofHash, err = domain.ParseHash32(r.ProofHash); err != nil {
		return err
	}
	if r.parsedType, err = models.ParseVerificationType(r.VerificationType); err != nil {
		return err
	}
	return nil
}

// AddressRequest is the HTTP request body for POST /members and POST /verifiers.
type AddressRequest struct {
	Address string `json:"address"`

	parsedAddress domain.Address
}

func (r *AddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	r.parsedAddress, err = domain.ParseAddress(strings.TrimSpace(r.Address))
	return err
}

// VerifyMemberRequest is the HTTP request body for POST /members/{address}/verify.
type VerifyMemberRequest struct {
	VerificationType string `json:"verification_type"`

	parsedType models.VerificationType
}

func (r *VerifyMemberRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	r.parsedType, err = models.ParseVerificationType(r.VerificationType)
	return err
}

// UpdatePolicyRequest is the HTTP request body for PUT /policy.
type UpdatePolicyRequest struct {
	Policy uint32 `json:"policy"`

	parsedPolicy models.Policy
}

func (r *UpdatePolicyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	r.parsedPolicy, err = models.ParsePolicy(r.Policy)
	return err
}

// BatchVerifyRequest is the HTTP request body for POST /members/batch-verify.
type BatchVerifyRequest struct {
	Addresses []string `json:"addresses"`

	parsedAddresses []domain.Address
}

func (r *BatchVerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Addresses) == 0 {
		return dErrors.New(dErrors.CodeValidation, "addresses is required")
	}
	if len(r.Addresses) > 100 {
		return dErrors.New(dErrors.CodeValidation, "at most 100 addresses per batch")
	}

	r.parsedAddresses = make([]domain.Address, 0, len(r.Addresses))
	for _, raw := range r.Addresses {
		addr, err := domain.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		r.parsedAddresses = append(r.parsedAddresses, addr)
	}
	return nil
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
