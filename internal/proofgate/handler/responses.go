package handler

import (
	"time"

	"zkdao/internal/proofgate/models"
)

// MemberStatusResponse is the HTTP response for GET /members/{address}.
type MemberStatusResponse struct {
	Address          string     `json:"address"`
	IsMember         bool       `json:"is_member"`
	IsVerified       bool       `json:"is_verified"`
	VerificationType string     `json:"verification_type"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	Commitment       string     `json:"commitment,omitempty"`
	ProofHash        string     `json:"proof_hash,omitempty"`
}

// FromKycStatus converts the verification read-model to an HTTP response.
func FromKycStatus(status *models.KycStatus) *MemberStatusResponse {
	resp := &MemberStatusResponse{
		Address:          status.Address.String(),
		IsMember:         status.IsMember,
		IsVerified:       status.IsVerified,
		VerificationType: status.Type.String(),
	}
	if !status.VerifiedAt.IsZero() {
		at := status.VerifiedAt
		resp.VerifiedAt = &at
	}
	if !status.Commitment.IsZero() {
		resp.Commitment = status.Commitment.String()
	}
	if !status.ProofHash.IsZero() {
		resp.ProofHash = status.ProofHash.String()
	}
	return resp
}

// BatchVerifyResponse is the HTTP response for POST /members/batch-verify.
type BatchVerifyResponse struct {
	Results map[string]bool `json:"results"`
}

// PolicyResponse is the HTTP response for GET /policy.
type PolicyResponse struct {
	Policy uint32 `json:"policy"`
}
