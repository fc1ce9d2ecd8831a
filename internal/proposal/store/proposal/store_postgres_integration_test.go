//go:build integration

package proposal_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zkdao/internal/proposal/models"
	"zkdao/internal/proposal/store/proposal"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
	"zkdao/pkg/platform/tx"
	"zkdao/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *proposal.PostgresStore
	proposer domain.Address
	voter    domain.Address
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = proposal.NewPostgres(s.postgres.DB)

	var err error
	s.proposer, err = domain.ParseAddress("0x" + strings.Repeat("ab", 20))
	s.Require().NoError(err)
	s.voter, err = domain.ParseAddress("0x" + strings.Repeat("cd", 20))
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "vote_records", "proposal_executions", "proposals")
	s.Require().NoError(err)
	s.Require().NoError(s.postgres.ResetSequences(ctx, "proposal_ids"))
}

func (s *PostgresStoreSuite) newProposal(id domain.ProposalID) *models.Proposal {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := models.NewProposal(id, s.proposer, "fund grants", "q3 budget", now, now.Add(time.Hour))
	p.Commitment = domain.Hash32{0x01}
	p.ProofHash = domain.Hash32{0x02}
	return p
}

func (s *PostgresStoreSuite) TestNextID() {
	ctx := context.Background()
	for want := domain.ProposalID(1); want <= 3; want++ {
		id, err := s.store.NextID(ctx)
		s.Require().NoError(err)
		s.Equal(want, id)
	}
}

func (s *PostgresStoreSuite) TestProposalRoundTrip() {
	ctx := context.Background()

	_, err := s.store.Proposal(ctx, 42)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	p := s.newProposal(1)
	s.Require().NoError(s.store.SaveProposal(ctx, p))

	got, err := s.store.Proposal(ctx, 1)
	s.Require().NoError(err)
	s.Equal(p.Proposer, got.Proposer)
	s.Equal(p.Title, got.Title)
	s.True(p.StartTime.Equal(got.StartTime))
	s.True(p.EndTime.Equal(got.EndTime))
	s.Equal(models.StateActive, got.State)
	s.Equal(p.Commitment, got.Commitment)

	// The upsert only touches tallies and state; identity stays put.
	p.Tally(models.ChoiceFor, big.NewInt(80))
	p.State = models.StatePassed
	p.Title = "renamed"
	s.Require().NoError(s.store.SaveProposal(ctx, p))

	got, err = s.store.Proposal(ctx, 1)
	s.Require().NoError(err)
	s.Equal(big.NewInt(80), got.ForVotes)
	s.Equal(models.StatePassed, got.State)
	s.Equal("fund grants", got.Title)
}

func (s *PostgresStoreSuite) TestExecutionRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveProposal(ctx, s.newProposal(1)))

	e := &models.Execution{
		ProposalID: 1,
		Target:     s.voter,
		Value:      big.NewInt(500),
		Payload:    []byte{0xde, 0xad},
	}
	s.Require().NoError(s.store.SaveExecution(ctx, e))

	got, err := s.store.Execution(ctx, 1)
	s.Require().NoError(err)
	s.Equal(e.Target, got.Target)
	s.Equal(e.Value, got.Value)
	s.Equal(e.Payload, got.Payload)
	s.False(got.Executed)
	s.True(got.TimelockEnd.IsZero(), "unstamped timelock should read back zero")

	e.Executed = true
	e.TimelockEnd = time.Now().UTC().Truncate(time.Microsecond).Add(48 * time.Hour)
	s.Require().NoError(s.store.SaveExecution(ctx, e))

	got, err = s.store.Execution(ctx, 1)
	s.Require().NoError(err)
	s.True(got.Executed)
	s.True(e.TimelockEnd.Equal(got.TimelockEnd))
}

func (s *PostgresStoreSuite) TestDeleteProposal() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveProposal(ctx, s.newProposal(1)))
	s.Require().NoError(s.store.SaveExecution(ctx, &models.Execution{
		ProposalID: 1, Target: s.voter, Value: big.NewInt(1),
	}))
	s.Require().NoError(s.store.SaveVoteRecord(ctx, &models.VoteRecord{
		ProposalID: 1, Voter: s.voter, Choice: models.ChoiceFor,
		Weight: big.NewInt(10), ProofHash: domain.Hash32{0x03},
		CastAt: time.Now().UTC().Truncate(time.Microsecond),
	}))

	s.Require().NoError(s.store.DeleteProposal(ctx, 1))

	_, err := s.store.Proposal(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Execution(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.VoteRecord(ctx, 1, s.voter)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteVoteRecord() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveProposal(ctx, s.newProposal(1)))

	v := &models.VoteRecord{
		ProposalID: 1, Voter: s.voter, Choice: models.ChoiceFor,
		Weight: big.NewInt(80), ProofHash: domain.Hash32{0x03},
		CastAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.SaveVoteRecord(ctx, v))
	s.Require().NoError(s.store.DeleteVoteRecord(ctx, 1, s.voter))

	_, err := s.store.VoteRecord(ctx, 1, s.voter)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// The write-once key is free again after the delete.
	s.NoError(s.store.SaveVoteRecord(ctx, v))
}

func (s *PostgresStoreSuite) TestBallotAndTalliesRollBackTogether() {
	ctx := context.Background()
	p := s.newProposal(1)
	s.Require().NoError(s.store.SaveProposal(ctx, p))

	runner := tx.NewSQLRunner(s.postgres.DB)
	boom := errors.New("boom")

	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		v := &models.VoteRecord{
			ProposalID: 1, Voter: s.voter, Choice: models.ChoiceFor,
			Weight: big.NewInt(80), ProofHash: domain.Hash32{0x03},
			CastAt: time.Now().UTC().Truncate(time.Microsecond),
		}
		if err := s.store.SaveVoteRecord(txCtx, v); err != nil {
			return err
		}
		p.ForVotes = big.NewInt(80)
		if err := s.store.SaveProposal(txCtx, p); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	// Neither the ballot nor the tally survives the rollback.
	_, err = s.store.VoteRecord(ctx, 1, s.voter)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	got, err := s.store.Proposal(ctx, 1)
	s.Require().NoError(err)
	s.Zero(got.ForVotes.Sign())
}

func (s *PostgresStoreSuite) TestVoteRecordsAreWriteOnce() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveProposal(ctx, s.newProposal(1)))

	v := &models.VoteRecord{
		ProposalID: 1,
		Voter:      s.voter,
		Choice:     models.ChoiceFor,
		Weight:     big.NewInt(80),
		ProofHash:  domain.Hash32{0x03},
		CastAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.SaveVoteRecord(ctx, v))

	got, err := s.store.VoteRecord(ctx, 1, s.voter)
	s.Require().NoError(err)
	s.Equal(models.ChoiceFor, got.Choice)
	s.Equal(big.NewInt(80), got.Weight)

	overwrite := *v
	overwrite.Choice = models.ChoiceAgainst
	err = s.store.SaveVoteRecord(ctx, &overwrite)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.VoteRecord(ctx, 1, s.proposer)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
