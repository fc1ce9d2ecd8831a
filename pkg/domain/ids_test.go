package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "zkdao/pkg/domain-errors"
)

// TestParseAddress_Invariants validates the parsing invariant:
// "Addresses must be 20 bytes of 0x-prefixed hex and never the zero address."
func TestParseAddress_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"missing prefix", "1111111111111111111111111111111111111111", true},
		{"too short", "0x1111", true},
		{"too long", "0x" + strings.Repeat("11", 21), true},
		{"non-hex characters", "0x" + strings.Repeat("zz", 20), true},
		{"zero address", "0x" + strings.Repeat("00", 20), true},
		{"null byte injection", "0x11\x0011111111111111111111111111111111111111", true},
		{"oversized input", "0x" + strings.Repeat("1", 1000), true},
		{"valid lowercase", "0x" + strings.Repeat("ab", 20), false},
		{"valid uppercase prefix", "0X" + strings.Repeat("ab", 20), false},
		{"valid with surrounding whitespace", "  0x" + strings.Repeat("ab", 20) + " ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAddress))
			} else {
				require.NoError(t, err)
			}
		})
	}

	t.Run("round trips through String", func(t *testing.T) {
		in := "0x" + strings.Repeat("ab", 20)
		a, err := ParseAddress(in)
		require.NoError(t, err)
		assert.Equal(t, in, a.String())
	})
}

// TestParseHash32_AcceptsZero documents that the zero hash parses: "no hash
// yet" is a readable state that callers reject explicitly via IsZero.
func TestParseHash32_AcceptsZero(t *testing.T) {
	h, err := ParseHash32("0x" + strings.Repeat("00", 32))
	require.NoError(t, err)
	assert.True(t, h.IsZero())
}

func TestParseHash32_Invariants(t *testing.T) {
	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseHash32("0xabcd")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseHash32(strings.Repeat("ab", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid digest", func(t *testing.T) {
		in := "0x" + strings.Repeat("cd", 32)
		h, err := ParseHash32(in)
		require.NoError(t, err)
		assert.Equal(t, in, h.String())
		assert.False(t, h.IsZero())
	})
}

// TestParseSequenceIDs validates the shared numbering invariant: IDs start
// at 1, so zero and non-numeric input are rejected at the boundary.
func TestParseSequenceIDs(t *testing.T) {
	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseProposalID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative", func(t *testing.T) {
		_, err := ParseWithdrawalID("-1")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := ParseProposalID("abc")
		require.Error(t, err)
	})

	t.Run("accepts positive", func(t *testing.T) {
		id, err := ParseProposalID("42")
		require.NoError(t, err)
		assert.Equal(t, ProposalID(42), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	proposalID := ProposalID(1)
	withdrawalID := WithdrawalID(1)

	// These would fail to compile if types were interchangeable:
	// var _ ProposalID = withdrawalID   // compile error
	// var _ WithdrawalID = proposalID   // compile error

	assert.Equal(t, uint64(proposalID), uint64(withdrawalID))
}
