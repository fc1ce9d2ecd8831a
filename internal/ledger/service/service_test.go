package service

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zkdao/internal/ledger/models"
	ledgerStore "zkdao/internal/ledger/store/ledger"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/requestcontext"
)

// =============================================================================
// Voting-Power Ledger Test Suite
// =============================================================================
// Justification for unit tests: checkpoint ordering, past-vote lookups, and
// delegation accounting decide proposal outcomes; an off-by-one here changes
// who governs.

type LedgerSuite struct {
	suite.Suite
	store   *ledgerStore.InMemoryStore
	service *Service
	owner   domain.Address
	alice   domain.Address
	bob     domain.Address
	genesis time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func addr(hexByte string) domain.Address {
	a, err := domain.ParseAddress("0x" + strings.Repeat(hexByte, 20))
	if err != nil {
		panic(err)
	}
	return a
}

func (s *LedgerSuite) SetupTest() {
	s.store = ledgerStore.New()
	s.owner = addr("aa")
	s.alice = addr("bb")
	s.bob = addr("cc")
	s.genesis = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(s.store, s.owner)
	s.Require().NoError(err)
}

// SetupSubTest gives every subtest a fresh ledger; balances and checkpoint
// timestamps would otherwise bleed between scenarios.
func (s *LedgerSuite) SetupSubTest() {
	s.SetupTest()
}

// ctxAt binds the caller and a fixed request time, so checkpoint timestamps
// are deterministic.
func (s *LedgerSuite) ctxAt(caller domain.Address, at time.Time) context.Context {
	ctx := requestcontext.WithCaller(context.Background(), caller)
	return requestcontext.WithTime(ctx, at)
}

func (s *LedgerSuite) ownerCtx(at time.Time) context.Context {
	return s.ctxAt(s.owner, at)
}

// mintAt issues tokens with the cooldown disabled so scenarios can mint
// freely across timestamps.
func (s *LedgerSuite) mintAt(to domain.Address, tokens uint64, at time.Time) {
	s.service.mintCooldown = 0
	s.Require().NoError(s.service.Mint(s.ownerCtx(at), to, models.WholeTokens(tokens)))
}

// =============================================================================
// Constructor
// =============================================================================

func (s *LedgerSuite) TestNew() {
	s.Run("requires a store", func() {
		_, err := New(nil, s.owner)
		s.Error(err)
	})

	s.Run("requires a non-zero owner", func() {
		_, err := New(s.store, domain.ZeroAddress)
		s.Error(err)
	})
}

// =============================================================================
// Mint
// =============================================================================

func (s *LedgerSuite) TestMint() {
	s.Run("credits balance, supply, and voting power", func() {
		s.mintAt(s.alice, 100, s.genesis)

		balance, err := s.service.BalanceOf(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(100), balance)

		supply, err := s.service.TotalSupply(context.Background())
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(100), supply)

		votes, err := s.service.GetVotes(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(100), votes)
	})

	s.Run("auto-delegates the first receipt to self", func() {
		s.mintAt(s.alice, 10, s.genesis)

		delegate, err := s.service.DelegateOf(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(s.alice, delegate)
	})

	s.Run("without auto-delegation power stays unassigned", func() {
		svc, err := New(ledgerStore.New(), s.owner, WithAutoDelegation(false), WithMintCooldown(0))
		s.Require().NoError(err)
		s.Require().NoError(svc.Mint(s.ownerCtx(s.genesis), s.alice, models.WholeTokens(10)))

		delegate, err := svc.DelegateOf(context.Background(), s.alice)
		s.Require().NoError(err)
		s.True(delegate.IsZero())

		votes, err := svc.GetVotes(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Zero(votes.Sign())
	})

	s.Run("rejects non-owner callers", func() {
		err := s.service.Mint(s.ctxAt(s.alice, s.genesis), s.alice, models.WholeTokens(1))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects the zero recipient", func() {
		err := s.service.Mint(s.ownerCtx(s.genesis), domain.ZeroAddress, models.WholeTokens(1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAddress))
	})

	s.Run("rejects non-positive amounts", func() {
		err := s.service.Mint(s.ownerCtx(s.genesis), s.alice, big.NewInt(0))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))

		err = s.service.Mint(s.ownerCtx(s.genesis), s.alice, big.NewInt(-1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})

	s.Run("enforces the cooldown between mints", func() {
		svc, err := New(ledgerStore.New(), s.owner, WithMintCooldown(time.Hour))
		s.Require().NoError(err)

		s.Require().NoError(svc.Mint(s.ownerCtx(s.genesis), s.alice, models.WholeTokens(1)))

		err = svc.Mint(s.ownerCtx(s.genesis.Add(30*time.Minute)), s.alice, models.WholeTokens(1))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		s.NoError(svc.Mint(s.ownerCtx(s.genesis.Add(time.Hour)), s.alice, models.WholeTokens(1)))
	})

	s.Run("cooldown survives a service restart", func() {
		store := ledgerStore.New()
		svc, err := New(store, s.owner, WithMintCooldown(time.Hour))
		s.Require().NoError(err)
		s.Require().NoError(svc.Mint(s.ownerCtx(s.genesis), s.alice, models.WholeTokens(1)))

		// A fresh service over the same store sees the persisted mint time.
		restarted, err := New(store, s.owner, WithMintCooldown(time.Hour))
		s.Require().NoError(err)

		err = restarted.Mint(s.ownerCtx(s.genesis.Add(30*time.Minute)), s.alice, models.WholeTokens(1))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		s.NoError(restarted.Mint(s.ownerCtx(s.genesis.Add(time.Hour)), s.alice, models.WholeTokens(1)))
	})

	s.Run("enforces the max supply", func() {
		svc, err := New(ledgerStore.New(), s.owner, WithMaxSupply(models.WholeTokens(100)), WithMintCooldown(0))
		s.Require().NoError(err)

		s.Require().NoError(svc.Mint(s.ownerCtx(s.genesis), s.alice, models.WholeTokens(100)))

		err = svc.Mint(s.ownerCtx(s.genesis.Add(time.Minute)), s.alice, big.NewInt(1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})
}

// =============================================================================
// Burn
// =============================================================================

func (s *LedgerSuite) TestBurn() {
	s.Run("holder burns own tokens", func() {
		s.mintAt(s.alice, 100, s.genesis)

		err := s.service.Burn(s.ctxAt(s.alice, s.genesis.Add(time.Hour)), s.alice, models.WholeTokens(40))
		s.Require().NoError(err)

		balance, err := s.service.BalanceOf(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(60), balance)

		supply, err := s.service.TotalSupply(context.Background())
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(60), supply)

		votes, err := s.service.GetVotes(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(60), votes)
	})

	s.Run("owner burns from any account", func() {
		s.mintAt(s.alice, 100, s.genesis)

		err := s.service.Burn(s.ownerCtx(s.genesis.Add(time.Hour)), s.alice, models.WholeTokens(100))
		s.NoError(err)
	})

	s.Run("third party may not burn", func() {
		s.mintAt(s.alice, 100, s.genesis)

		err := s.service.Burn(s.ctxAt(s.bob, s.genesis.Add(time.Hour)), s.alice, models.WholeTokens(1))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects burning more than the balance", func() {
		s.mintAt(s.alice, 10, s.genesis)

		err := s.service.Burn(s.ctxAt(s.alice, s.genesis.Add(time.Hour)), s.alice, models.WholeTokens(11))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})
}

// =============================================================================
// Transfer
// =============================================================================

func (s *LedgerSuite) TestTransfer() {
	s.Run("moves balance and voting power", func() {
		s.mintAt(s.alice, 100, s.genesis)

		err := s.service.Transfer(s.ctxAt(s.alice, s.genesis.Add(time.Hour)), s.bob, models.WholeTokens(30))
		s.Require().NoError(err)

		aliceBalance, err := s.service.BalanceOf(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(70), aliceBalance)

		bobBalance, err := s.service.BalanceOf(context.Background(), s.bob)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(30), bobBalance)

		aliceVotes, err := s.service.GetVotes(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(70), aliceVotes)

		// Recipient's first receipt self-delegates.
		bobVotes, err := s.service.GetVotes(context.Background(), s.bob)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(30), bobVotes)
	})

	s.Run("requires authentication", func() {
		err := s.service.Transfer(requestcontext.WithTime(context.Background(), s.genesis), s.bob, models.WholeTokens(1))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects self transfers", func() {
		s.mintAt(s.alice, 10, s.genesis)

		err := s.service.Transfer(s.ctxAt(s.alice, s.genesis.Add(time.Hour)), s.alice, models.WholeTokens(1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects spending more than the balance", func() {
		s.mintAt(s.alice, 10, s.genesis)

		err := s.service.Transfer(s.ctxAt(s.alice, s.genesis.Add(time.Hour)), s.bob, models.WholeTokens(11))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})
}

// =============================================================================
// Delegation
// =============================================================================

func (s *LedgerSuite) TestDelegate() {
	s.Run("moves the whole balance to the new delegate", func() {
		s.mintAt(s.alice, 100, s.genesis)

		err := s.service.Delegate(s.ctxAt(s.alice, s.genesis.Add(time.Hour)), s.bob)
		s.Require().NoError(err)

		aliceVotes, err := s.service.GetVotes(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Zero(aliceVotes.Sign())

		bobVotes, err := s.service.GetVotes(context.Background(), s.bob)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(100), bobVotes)

		// Balance stays put; only voting power moves.
		balance, err := s.service.BalanceOf(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(100), balance)
	})

	s.Run("redelegation is a no-op for the same delegatee", func() {
		s.mintAt(s.alice, 100, s.genesis)
		before, err := s.store.Checkpoints(context.Background(), s.alice)
		s.Require().NoError(err)

		s.Require().NoError(s.service.Delegate(s.ctxAt(s.alice, s.genesis.Add(time.Hour)), s.alice))

		after, err := s.store.Checkpoints(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Len(after, len(before))
	})

	s.Run("requires authentication and a non-zero delegatee", func() {
		err := s.service.Delegate(requestcontext.WithTime(context.Background(), s.genesis), s.bob)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		err = s.service.Delegate(s.ctxAt(s.alice, s.genesis), domain.ZeroAddress)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAddress))
	})
}

// =============================================================================
// Historical lookups
// =============================================================================

func (s *LedgerSuite) TestGetPastVotes() {
	s.Run("returns the last checkpoint at or before t", func() {
		s.mintAt(s.alice, 100, s.genesis)
		s.mintAt(s.alice, 50, s.genesis.Add(2*time.Hour))

		now := s.genesis.Add(24 * time.Hour)

		votes, err := s.service.GetPastVotes(requestcontext.WithTime(context.Background(), now), s.alice, s.genesis.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(100), votes)

		votes, err = s.service.GetPastVotes(requestcontext.WithTime(context.Background(), now), s.alice, s.genesis.Add(3*time.Hour))
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(150), votes)
	})

	s.Run("is zero before the first checkpoint", func() {
		s.mintAt(s.alice, 100, s.genesis)

		ctx := requestcontext.WithTime(context.Background(), s.genesis.Add(time.Hour))
		votes, err := s.service.GetPastVotes(ctx, s.alice, s.genesis.Add(-time.Hour))
		s.Require().NoError(err)
		s.Zero(votes.Sign())
	})

	s.Run("rejects the present and the future", func() {
		now := s.genesis.Add(time.Hour)
		ctx := requestcontext.WithTime(context.Background(), now)

		_, err := s.service.GetPastVotes(ctx, s.alice, now)
		s.True(dErrors.HasCode(err, dErrors.CodeFutureTimepoint))

		_, err = s.service.GetPastVotes(ctx, s.alice, now.Add(time.Minute))
		s.True(dErrors.HasCode(err, dErrors.CodeFutureTimepoint))
	})

	s.Run("same-timestamp writes overwrite in place", func() {
		s.mintAt(s.alice, 100, s.genesis)
		// A second mutation within the same request time must not create a
		// second checkpoint.
		err := s.service.Transfer(s.ctxAt(s.alice, s.genesis), s.bob, models.WholeTokens(30))
		s.Require().NoError(err)

		history, err := s.store.Checkpoints(context.Background(), s.alice)
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(models.WholeTokens(70), history[0].Votes)
	})
}

func (s *LedgerSuite) TestGetPastTotalSupply() {
	s.Run("reads the supply history", func() {
		s.mintAt(s.alice, 100, s.genesis)
		s.mintAt(s.bob, 200, s.genesis.Add(2*time.Hour))

		now := s.genesis.Add(24 * time.Hour)

		supply, err := s.service.GetPastTotalSupply(requestcontext.WithTime(context.Background(), now), s.genesis.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(100), supply)

		supply, err = s.service.GetPastTotalSupply(requestcontext.WithTime(context.Background(), now), s.genesis.Add(3*time.Hour))
		s.Require().NoError(err)
		s.Equal(models.WholeTokens(300), supply)
	})

	s.Run("rejects the present", func() {
		ctx := requestcontext.WithTime(context.Background(), s.genesis)
		_, err := s.service.GetPastTotalSupply(ctx, s.genesis)
		s.True(dErrors.HasCode(err, dErrors.CodeFutureTimepoint))
	})
}

// =============================================================================
// Views and admin
// =============================================================================

func (s *LedgerSuite) TestViews() {
	s.Run("unknown accounts read as zero", func() {
		balance, err := s.service.BalanceOf(context.Background(), s.bob)
		s.Require().NoError(err)
		s.Zero(balance.Sign())

		votes, err := s.service.GetVotes(context.Background(), s.bob)
		s.Require().NoError(err)
		s.Zero(votes.Sign())

		delegate, err := s.service.DelegateOf(context.Background(), s.bob)
		s.Require().NoError(err)
		s.True(delegate.IsZero())
	})
}

func (s *LedgerSuite) TestSetAutoDelegation() {
	s.Run("owner only", func() {
		err := s.service.SetAutoDelegation(s.ctxAt(s.alice, s.genesis), false)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		s.NoError(s.service.SetAutoDelegation(s.ownerCtx(s.genesis), false))
	})

	s.Run("disabling stops self-delegation for new holders", func() {
		s.Require().NoError(s.service.SetAutoDelegation(s.ownerCtx(s.genesis), false))
		s.mintAt(s.alice, 10, s.genesis)

		delegate, err := s.service.DelegateOf(context.Background(), s.alice)
		s.Require().NoError(err)
		s.True(delegate.IsZero())
	})
}
