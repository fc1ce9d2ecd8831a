package proposal

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zkdao/internal/proposal/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
)

// Write-once vote records and monotonic id allocation are enforced here
// beyond the service tests.
type ProposalStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	voter domain.Address
}

func (s *ProposalStoreSuite) SetupTest() {
	s.store = New()
	voter, err := domain.ParseAddress("0x" + strings.Repeat("ab", 20))
	s.Require().NoError(err)
	s.voter = voter
}

func TestProposalStoreSuite(t *testing.T) {
	suite.Run(t, new(ProposalStoreSuite))
}

func (s *ProposalStoreSuite) TestNextID() {
	s.Run("ids are monotonic from 1", func() {
		ctx := context.Background()
		for want := domain.ProposalID(1); want <= 3; want++ {
			id, err := s.store.NextID(ctx)
			s.Require().NoError(err)
			s.Equal(want, id)
		}
	})
}

func (s *ProposalStoreSuite) TestProposalRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s.Run("returns ErrNotFound for unknown ids", func() {
		_, err := s.store.Proposal(ctx, 42)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("stored proposal is isolated from later mutation", func() {
		p := models.NewProposal(1, s.voter, "fund grants", "q3 budget", now, now.Add(time.Hour))
		s.Require().NoError(s.store.SaveProposal(ctx, p))

		// Mutating the caller's copy must not leak into the store.
		p.ForVotes.SetInt64(999)
		p.State = models.StateCancelled

		got, err := s.store.Proposal(ctx, 1)
		s.Require().NoError(err)
		s.Equal(models.StateActive, got.State)
		s.Zero(got.ForVotes.Sign())
	})
}

func (s *ProposalStoreSuite) TestExecutionRoundTrip() {
	ctx := context.Background()

	s.Run("returns ErrNotFound for unknown ids", func() {
		_, err := s.store.Execution(ctx, 1)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("stores target, value, and payload", func() {
		e := &models.Execution{
			ProposalID: 1,
			Target:     s.voter,
			Value:      big.NewInt(500),
			Payload:    []byte{0x01, 0x02},
		}
		s.Require().NoError(s.store.SaveExecution(ctx, e))

		got, err := s.store.Execution(ctx, 1)
		s.Require().NoError(err)
		s.Equal(e, got)
	})
}

func (s *ProposalStoreSuite) TestDeleteProposal() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s.Run("removes the proposal with its execution and votes", func() {
		p := models.NewProposal(1, s.voter, "fund grants", "", now, now.Add(time.Hour))
		s.Require().NoError(s.store.SaveProposal(ctx, p))
		s.Require().NoError(s.store.SaveExecution(ctx, &models.Execution{ProposalID: 1, Target: s.voter, Value: big.NewInt(1)}))
		s.Require().NoError(s.store.SaveVoteRecord(ctx, &models.VoteRecord{
			ProposalID: 1, Voter: s.voter, Choice: models.ChoiceFor, Weight: big.NewInt(10), CastAt: now,
		}))

		s.Require().NoError(s.store.DeleteProposal(ctx, 1))

		_, err := s.store.Proposal(ctx, 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.Execution(ctx, 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.VoteRecord(ctx, 1, s.voter)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("other proposals are untouched", func() {
		p := models.NewProposal(2, s.voter, "other", "", now, now.Add(time.Hour))
		s.Require().NoError(s.store.SaveProposal(ctx, p))

		s.Require().NoError(s.store.DeleteProposal(ctx, 1))

		_, err := s.store.Proposal(ctx, 2)
		s.NoError(err)
	})
}

func (s *ProposalStoreSuite) TestDeleteVoteRecord() {
	ctx := context.Background()

	s.Run("a deleted ballot can be re-cast", func() {
		record := &models.VoteRecord{
			ProposalID: 1, Voter: s.voter, Choice: models.ChoiceFor,
			Weight: big.NewInt(100), CastAt: time.Now().UTC(),
		}
		s.Require().NoError(s.store.SaveVoteRecord(ctx, record))
		s.Require().NoError(s.store.DeleteVoteRecord(ctx, 1, s.voter))

		_, err := s.store.VoteRecord(ctx, 1, s.voter)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.NoError(s.store.SaveVoteRecord(ctx, record))
	})
}

func (s *ProposalStoreSuite) TestVoteRecordWriteOnce() {
	ctx := context.Background()
	record := &models.VoteRecord{
		ProposalID: 1,
		Voter:      s.voter,
		Choice:     models.ChoiceFor,
		Weight:     big.NewInt(100),
		CastAt:     time.Now().UTC(),
	}

	s.Run("first write succeeds, second conflicts", func() {
		s.Require().NoError(s.store.SaveVoteRecord(ctx, record))

		err := s.store.SaveVoteRecord(ctx, record)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("same voter may vote on a different proposal", func() {
		other := *record
		other.ProposalID = 2
		s.NoError(s.store.SaveVoteRecord(ctx, &other))
	})

	s.Run("lookup returns the stored ballot", func() {
		got, err := s.store.VoteRecord(ctx, 1, s.voter)
		s.Require().NoError(err)
		s.Equal(models.ChoiceFor, got.Choice)
		s.Equal(big.NewInt(100), got.Weight)
	})

	s.Run("unknown pair returns ErrNotFound", func() {
		_, err := s.store.VoteRecord(ctx, 9, s.voter)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
