package verifier

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	dErrors "zkdao/pkg/domain-errors"
)

const testCircuit = "membership_v1"

var testKey = []byte("verification-key-bytes")

// validProof builds a structurally valid proof whose trailer commits to the
// registered key.
func validProof(t *testing.T) []byte {
	t.Helper()
	h := sha3.NewLegacyKeccak256()
	h.Write(testKey)
	proof := make([]byte, 128)
	copy(proof[96:], h.Sum(nil))
	return proof
}

// validInputs builds five canonical field elements.
func validInputs(policyFlags uint32) []byte {
	raw := make([]byte, publicInputsLen)
	for i := range 5 {
		raw[(i+1)*fieldSize-1] = byte(i + 1)
	}
	// overwrite the policy slot
	raw[4*fieldSize+28] = byte(policyFlags >> 24)
	raw[4*fieldSize+29] = byte(policyFlags >> 16)
	raw[4*fieldSize+30] = byte(policyFlags >> 8)
	raw[4*fieldSize+31] = byte(policyFlags)
	return raw
}

func newTestVerifier(t *testing.T) *NoirVerifier {
	t.Helper()
	v := NewNoirVerifier()
	require.NoError(t, v.RegisterVerificationKey(testCircuit, testKey))
	return v
}

func TestNoirVerifier_AcceptsWellFormedProof(t *testing.T) {
	v := newTestVerifier(t)

	outcome, err := v.Verify(context.Background(), validProof(t), validInputs(3), testCircuit)
	require.NoError(t, err)
	assert.True(t, outcome.Valid)
	assert.Equal(t, testCircuit, outcome.Circuit)
}

func TestNoirVerifier_RejectsUnregisteredCircuit(t *testing.T) {
	v := newTestVerifier(t)

	_, err := v.Verify(context.Background(), validProof(t), validInputs(0), "unknown_circuit")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidProof))
}

func TestNoirVerifier_ProofShape(t *testing.T) {
	v := newTestVerifier(t)
	inputs := validInputs(0)

	tests := []struct {
		name  string
		proof []byte
	}{
		{"empty", nil},
		{"too short", make([]byte, 32)},
		{"too long", make([]byte, 544)},
		{"not multiple of 32", make([]byte, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.proof, inputs, testCircuit)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidProof))
		})
	}
}

func TestNoirVerifier_RejectsNonCanonicalFieldElement(t *testing.T) {
	v := newTestVerifier(t)

	inputs := validInputs(0)
	// Force the first element above the BN254 modulus.
	over := new(big.Int).Add(fieldModulus, big.NewInt(1)).FillBytes(make([]byte, 32))
	copy(inputs[:32], over)

	_, err := v.Verify(context.Background(), validProof(t), inputs, testCircuit)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPublicInputs))
}

func TestNoirVerifier_WrongKeyCommitmentIsInvalidNotError(t *testing.T) {
	v := newTestVerifier(t)

	proof := validProof(t)
	proof[len(proof)-1] ^= 0xff

	outcome, err := v.Verify(context.Background(), proof, validInputs(0), testCircuit)
	require.NoError(t, err)
	assert.False(t, outcome.Valid)
	assert.NotEmpty(t, outcome.Reason)
}

func TestNoirVerifier_KeyRotationInvalidatesOldProofs(t *testing.T) {
	v := newTestVerifier(t)
	proof := validProof(t)

	require.NoError(t, v.RegisterVerificationKey(testCircuit, []byte("rotated-key")))

	outcome, err := v.Verify(context.Background(), proof, validInputs(0), testCircuit)
	require.NoError(t, err)
	assert.False(t, outcome.Valid)
}

func TestParsePublicInputs(t *testing.T) {
	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParsePublicInputs(make([]byte, 4*fieldSize))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPublicInputs))
	})

	t.Run("decodes layout in order", func(t *testing.T) {
		inputs, err := ParsePublicInputs(validInputs(17))
		require.NoError(t, err)
		assert.Equal(t, byte(1), inputs.RegistrationCommitment[31])
		assert.Equal(t, byte(2), inputs.UBOCommitment[31])
		assert.Equal(t, byte(3), inputs.RevenueCommitment[31])
		assert.Equal(t, byte(4), inputs.DocumentHash[31])
		assert.Equal(t, uint32(17), inputs.PolicyFlags.Uint32())
	})
}

func TestProofDigest(t *testing.T) {
	proof := bytes.Repeat([]byte{0xaa}, 64)
	inputs := bytes.Repeat([]byte{0xbb}, 160)

	d1 := ProofDigest(proof, inputs)
	d2 := ProofDigest(proof, inputs)
	assert.Equal(t, d1, d2, "digest must be deterministic")
	assert.False(t, d1.IsZero())

	mutated := append([]byte(nil), proof...)
	mutated[0] ^= 1
	assert.NotEqual(t, d1, ProofDigest(mutated, inputs))

	// Digest binds the proof/inputs boundary, not just the concatenation
	// content ordering.
	assert.NotEqual(t, ProofDigest(proof, inputs), ProofDigest(inputs, proof))
}
