// Package verifier checks zero-knowledge membership proofs. The engine
// treats verification as a boolean oracle: implementations validate the
// Noir/BN254 encoding and the verification-key binding, and report a
// verdict plus the canonical digest used for replay protection.
package verifier

import (
	"context"
	"math/big"

	"golang.org/x/crypto/sha3"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks zkdao/internal/proofgate/verifier ProofVerifier

// ProofVerifier is the verification oracle.
//
// A (nil, nil) return never happens: a verdict is always produced unless the
// inputs are structurally invalid, in which case the error carries
// CodeInvalidProof or CodeInvalidPublicInputs.
type ProofVerifier interface {
	Verify(ctx context.Context, proof, publicInputs []byte, circuit string) (*Outcome, error)
}

// Outcome is the verifier verdict.
type Outcome struct {
	Valid   bool
	Circuit string
	// Reason is populated when Valid is false.
	Reason string
}

// fieldModulus is the BN254 scalar field order. Every public input must be a
// canonical field element strictly below it.
var fieldModulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// FieldElement is a 32-byte big-endian BN254 scalar.
type FieldElement [32]byte

// IsCanonical reports whether the element is strictly below the field
// modulus.
func (f FieldElement) IsCanonical() bool {
	return new(big.Int).SetBytes(f[:]).Cmp(fieldModulus) < 0
}

// Uint32 truncates the element to its low 32 bits. Used for the policy-flags
// input, which is a small scalar by construction.
func (f FieldElement) Uint32() uint32 {
	return uint32(f[31]) | uint32(f[30])<<8 | uint32(f[29])<<16 | uint32(f[28])<<24
}

// PublicInputs is the decoded public-input vector of the membership circuit.
// The layout is fixed: five field elements in this order.
type PublicInputs struct {
	RegistrationCommitment FieldElement
	UBOCommitment          FieldElement
	RevenueCommitment      FieldElement
	DocumentHash           FieldElement
	PolicyFlags            FieldElement
}

const (
	fieldSize       = 32
	publicInputsLen = 5 * fieldSize

	// Proof size bounds for the membership circuit encoding.
	minProofLen = 64
	maxProofLen = 512
)

// ParsePublicInputs decodes and validates the raw public-input bytes.
//
// Errors: returns CodeInvalidPublicInputs when the length is wrong or any
// element is not a canonical field element.
func ParsePublicInputs(raw []byte) (*PublicInputs, error) {
	if len(raw) != publicInputsLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidPublicInputs,
			"public inputs must be %d bytes, got %d", publicInputsLen, len(raw))
	}

	var fields [5]FieldElement
	for i := range fields {
		copy(fields[i][:], raw[i*fieldSize:(i+1)*fieldSize])
		if !fields[i].IsCanonical() {
			return nil, dErrors.Newf(dErrors.CodeInvalidPublicInputs,
				"public input %d is not a canonical field element", i)
		}
	}

	return &PublicInputs{
		RegistrationCommitment: fields[0],
		UBOCommitment:          fields[1],
		RevenueCommitment:      fields[2],
		DocumentHash:           fields[3],
		PolicyFlags:            fields[4],
	}, nil
}

// ProofDigest computes the canonical replay-protection digest:
// Keccak-256 over the proof bytes followed by the public-input bytes.
func ProofDigest(proof, publicInputs []byte) domain.Hash32 {
	h := sha3.NewLegacyKeccak256()
	h.Write(proof)
	h.Write(publicInputs)
	var digest domain.Hash32
	copy(digest[:], h.Sum(nil))
	return digest
}

// validateProofShape applies the structural rules shared by verifier
// implementations.
func validateProofShape(proof []byte) error {
	switch {
	case len(proof) < minProofLen:
		return dErrors.Newf(dErrors.CodeInvalidProof, "proof too short: %d bytes", len(proof))
	case len(proof) > maxProofLen:
		return dErrors.Newf(dErrors.CodeInvalidProof, "proof too long: %d bytes", len(proof))
	case len(proof)%fieldSize != 0:
		return dErrors.New(dErrors.CodeInvalidProof, "proof length must be a multiple of 32")
	}
	return nil
}
