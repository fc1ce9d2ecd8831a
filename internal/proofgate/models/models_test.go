package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "zkdao/pkg/domain-errors"
)

func TestPolicy_SatisfiedBy(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		inputs Policy
		want   bool
	}{
		{"zero policy accepts zero inputs", 0, 0, true},
		{"zero policy accepts any inputs", 0, FlagWalletBinding, true},
		{"exact match", FlagBusinessRegistration | FlagUBOVerification, FlagBusinessRegistration | FlagUBOVerification, true},
		{"extra input flags allowed", FlagBusinessRegistration, FlagBusinessRegistration | FlagRevenueThreshold, true},
		{"missing required flag", FlagBusinessRegistration | FlagDocumentAuthenticity, FlagBusinessRegistration, false},
		{"disjoint flags", FlagWalletBinding, FlagRevenueThreshold, false},
		{"all flags required, all present", validPolicyMask, validPolicyMask, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.SatisfiedBy(tt.inputs))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	t.Run("rejects unknown bits", func(t *testing.T) {
		_, err := ParsePolicy(1 << 10)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts defined flags", func(t *testing.T) {
		p, err := ParsePolicy(uint32(FlagBusinessRegistration | FlagWalletBinding))
		require.NoError(t, err)
		assert.Equal(t, FlagBusinessRegistration|FlagWalletBinding, p)
	})

	t.Run("accepts zero", func(t *testing.T) {
		p, err := ParsePolicy(0)
		require.NoError(t, err)
		assert.Equal(t, Policy(0), p)
	})
}

func TestParseVerificationType(t *testing.T) {
	for _, name := range []string{"none", "kyc", "kyb", "both"} {
		vt, err := ParseVerificationType(name)
		require.NoError(t, err)
		assert.Equal(t, name, vt.String())
	}

	_, err := ParseVerificationType("full")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
