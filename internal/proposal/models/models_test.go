package models

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

func TestParseVoteChoice(t *testing.T) {
	for _, name := range []string{"for", "against", "abstain"} {
		c, err := ParseVoteChoice(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.String())
	}

	for _, bad := range []string{"", "FOR", "yes", "nay"} {
		_, err := ParseVoteChoice(bad)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidChoice))
	}
}

func TestProposalState_IsTerminal(t *testing.T) {
	tests := []struct {
		state ProposalState
		want  bool
	}{
		{StateActive, false},
		{StatePassed, false},
		{StateRejected, true},
		{StateExecuted, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.IsTerminal())
		})
	}
}

func TestProposal_Tally(t *testing.T) {
	p := NewProposal(1, domain.Address{0x01}, "t", "d", time.Time{}, time.Time{})

	p.Tally(ChoiceFor, big.NewInt(80))
	p.Tally(ChoiceAgainst, big.NewInt(10))
	p.Tally(ChoiceAbstain, big.NewInt(20))
	p.Tally(ChoiceFor, big.NewInt(5))

	assert.Equal(t, big.NewInt(85), p.ForVotes)
	assert.Equal(t, big.NewInt(10), p.AgainstVotes)
	assert.Equal(t, big.NewInt(20), p.AbstainVotes)
	assert.Equal(t, big.NewInt(115), p.TotalVotes())
}
