// Package models holds the membership and verification domain types.
package models

import (
	"time"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

// VerificationType classifies what kind of verification a member proved.
type VerificationType uint8

const (
	VerificationNone VerificationType = iota
	VerificationKYC
	VerificationKYB
	VerificationBoth
)

var verificationNames = map[VerificationType]string{
	VerificationNone: "none",
	VerificationKYC:  "kyc",
	VerificationKYB:  "kyb",
	VerificationBoth: "both",
}

// ParseVerificationType constructs a VerificationType from external input.
//
// Errors: returns CodeInvalidInput for unknown values.
func ParseVerificationType(s string) (VerificationType, error) {
	for vt, name := range verificationNames {
		if name == s {
			return vt, nil
		}
	}
	return VerificationNone, dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification type %q", s)
}

func (vt VerificationType) String() string {
	if name, ok := verificationNames[vt]; ok {
		return name
	}
	return "none"
}

// Member is the per-account membership record.
type Member struct {
	Address domain.Address
	// IsMember is set by admin enrollment and cleared only by revocation.
	IsMember bool
	// Verified is set by a registered verifier or a valid proof submission.
	Verified bool
	// Commitment is the identity commitment bound to the member's latest
	// proof. Zero means no proof on record.
	Commitment domain.Hash32
	// ProofHash is the digest of the latest accepted proof.
	ProofHash  domain.Hash32
	VerifiedAt time.Time
	Type       VerificationType
}

// HasProof reports whether the member carries a non-sentinel commitment and
// proof digest. Verified is necessary but not sufficient: revoking either
// hash demotes the member without touching the flag.
func (m *Member) HasProof() bool {
	return !m.Commitment.IsZero() && !m.ProofHash.IsZero()
}

// Policy is the verification policy bitmask. A proof satisfies the policy
// when every flag required by the policy is present in the proof's public
// inputs: policy AND inputs == policy. A zero policy accepts everything.
type Policy uint32

const (
	FlagBusinessRegistration Policy = 1 << iota
	FlagUBOVerification
	FlagRevenueThreshold
	FlagDocumentAuthenticity
	FlagWalletBinding
)

// validPolicyMask covers every defined flag.
const validPolicyMask = FlagBusinessRegistration | FlagUBOVerification |
	FlagRevenueThreshold | FlagDocumentAuthenticity | FlagWalletBinding

// ParsePolicy constructs a Policy from external input.
//
// Errors: returns CodeInvalidInput when unknown bits are set.
func ParsePolicy(raw uint32) (Policy, error) {
	p := Policy(raw)
	if p&^validPolicyMask != 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "policy contains unknown flags")
	}
	return p, nil
}

// SatisfiedBy reports whether the given input flags cover every required
// policy flag. The check is strict bitwise implication, not equality, so
// proofs may carry extra attestations.
func (p Policy) SatisfiedBy(inputs Policy) bool {
	return p&inputs == p
}

// KycStatus is the read-model returned by status queries.
type KycStatus struct {
	Address    domain.Address
	IsMember   bool
	IsVerified bool
	Type       VerificationType
	VerifiedAt time.Time
	Commitment domain.Hash32
	ProofHash  domain.Hash32
}
