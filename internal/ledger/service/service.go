// Package service implements the voting-power ledger: balances, delegation,
// and the checkpoint histories that answer "how many votes did this account
// carry at time t".
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"zkdao/internal/ledger/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/audit"
	"zkdao/pkg/platform/sentinel"
	txcontext "zkdao/pkg/platform/tx"
	"zkdao/pkg/requestcontext"
)

// DefaultMintCooldown is the minimum spacing between mints.
const DefaultMintCooldown = 24 * time.Hour

type Service struct {
	store Store
	owner domain.Address

	// mu serializes mutations: every balance change is a multi-step
	// read-modify-write across accounts and checkpoints, mirroring the
	// single-writer transaction model of the ledger.
	mu             sync.Mutex
	tx             txcontext.Runner
	maxSupply      *big.Int
	mintCooldown   time.Duration
	autoDelegation bool

	logger         *slog.Logger
	auditPublisher audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMaxSupply(cap *big.Int) Option {
	return func(s *Service) {
		s.maxSupply = new(big.Int).Set(cap)
	}
}

func WithMintCooldown(d time.Duration) Option {
	return func(s *Service) {
		s.mintCooldown = d
	}
}

func WithAutoDelegation(enabled bool) Option {
	return func(s *Service) {
		s.autoDelegation = enabled
	}
}

// WithTxRunner sets the transactional boundary for multi-write mutations.
// The persistent deployment passes a SQL runner so account balances and
// checkpoint histories commit or roll back together.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func New(store Store, owner domain.Address, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	if owner.IsZero() {
		return nil, errors.New("owner address is required")
	}

	svc := &Service{
		store:          store,
		owner:          owner,
		tx:             txcontext.Passthrough{},
		maxSupply:      new(big.Int).Set(models.DefaultMaxSupply),
		mintCooldown:   DefaultMintCooldown,
		autoDelegation: true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// -----------------------------------------------------------------------------
// Supply mutations
// -----------------------------------------------------------------------------

// Mint credits newly issued tokens. Owner only, capped at the max supply,
// and rate-limited by the mint cooldown.
func (s *Service) Mint(ctx context.Context, to domain.Address, amount *big.Int) error {
	caller := requestcontext.Caller(ctx)
	if caller != s.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "recipient address is required")
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	// The cooldown timestamp lives in the store so it survives a restart.
	lastMint, err := s.store.LastMint(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load mint state")
	}
	if !lastMint.IsZero() && now.Sub(lastMint) < s.mintCooldown {
		return dErrors.New(dErrors.CodeConflict, "mint cooldown active")
	}

	supply, err := s.totalSupplyLocked(ctx)
	if err != nil {
		return err
	}
	if new(big.Int).Add(supply, amount).Cmp(s.maxSupply) > 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "mint would exceed the max supply")
	}

	account, err := s.accountLocked(ctx, to)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		account.Balance.Add(account.Balance, amount)
		s.applyAutoDelegation(account)
		if err := s.store.SaveAccount(txCtx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store account")
		}

		if err := s.moveVotingPower(txCtx, now, domain.ZeroAddress, account.Delegate, amount); err != nil {
			return err
		}
		if err := s.writeSupply(txCtx, now, new(big.Int).Add(supply, amount)); err != nil {
			return err
		}
		if err := s.store.SaveLastMint(txCtx, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store mint state")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.EventTokensMinted, caller, to.String(), amount)
	return nil
}

// Burn destroys tokens. The owner may burn from any account; everyone else
// only from their own.
func (s *Service) Burn(ctx context.Context, from domain.Address, amount *big.Int) error {
	caller := requestcontext.Caller(ctx)
	if caller != s.owner && caller != from {
		return dErrors.New(dErrors.CodeUnauthorized, "caller may only burn own tokens")
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.accountLocked(ctx, from)
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, "burn exceeds balance")
	}

	supply, err := s.totalSupplyLocked(ctx)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		account.Balance.Sub(account.Balance, amount)
		if err := s.store.SaveAccount(txCtx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store account")
		}

		now := requestcontext.Now(ctx)
		if err := s.moveVotingPower(txCtx, now, account.Delegate, domain.ZeroAddress, amount); err != nil {
			return err
		}
		return s.writeSupply(txCtx, now, new(big.Int).Sub(supply, amount))
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.EventTokensBurned, caller, from.String(), amount)
	return nil
}

// Transfer moves tokens from the caller to another account, shifting voting
// power between the two delegates.
func (s *Service) Transfer(ctx context.Context, to domain.Address, amount *big.Int) error {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "recipient address is required")
	}
	if to == caller {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot transfer to self")
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := s.accountLocked(ctx, caller)
	if err != nil {
		return err
	}
	if from.Balance.Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, "transfer exceeds balance")
	}
	recipient, err := s.accountLocked(ctx, to)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		from.Balance.Sub(from.Balance, amount)
		recipient.Balance.Add(recipient.Balance, amount)
		s.applyAutoDelegation(recipient)

		if err := s.store.SaveAccount(txCtx, from); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store account")
		}
		if err := s.store.SaveAccount(txCtx, recipient); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store account")
		}

		now := requestcontext.Now(ctx)
		return s.moveVotingPower(txCtx, now, from.Delegate, recipient.Delegate, amount)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.EventTokensMoved, caller, to.String(), amount)
	return nil
}

// -----------------------------------------------------------------------------
// Delegation
// -----------------------------------------------------------------------------

// Delegate assigns the caller's voting power to delegatee. Redelegation
// moves the caller's whole current balance between the old and new
// delegates' histories.
func (s *Service) Delegate(ctx context.Context, delegatee domain.Address) error {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if delegatee.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "delegatee address is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.accountLocked(ctx, caller)
	if err != nil {
		return err
	}
	previous := account.Delegate
	if previous == delegatee {
		return nil
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		account.Delegate = delegatee
		if err := s.store.SaveAccount(txCtx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store account")
		}

		now := requestcontext.Now(ctx)
		return s.moveVotingPower(txCtx, now, previous, delegatee, account.Balance)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.EventDelegateChanged, caller, delegatee.String(), account.Balance)
	return nil
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

// GetVotes returns the account's current voting power: the latest checkpoint
// or zero.
func (s *Service) GetVotes(ctx context.Context, account domain.Address) (*big.Int, error) {
	history, err := s.store.Checkpoints(ctx, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checkpoints")
	}
	return latestVotes(history), nil
}

// GetPastVotes returns the account's voting power at timepoint t. The
// timepoint must be strictly in the past; an unfinalized present would let
// callers read a value that the current request may still change.
func (s *Service) GetPastVotes(ctx context.Context, account domain.Address, t time.Time) (*big.Int, error) {
	if !t.Before(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeFutureTimepoint, "timepoint is not yet final")
	}
	history, err := s.store.Checkpoints(ctx, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checkpoints")
	}
	return votesAt(history, t), nil
}

// GetPastTotalSupply returns the token supply at timepoint t, with the same
// finality rule as GetPastVotes.
func (s *Service) GetPastTotalSupply(ctx context.Context, t time.Time) (*big.Int, error) {
	if !t.Before(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeFutureTimepoint, "timepoint is not yet final")
	}
	history, err := s.store.SupplyCheckpoints(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load supply checkpoints")
	}
	return votesAt(history, t), nil
}

// TotalSupply returns the current token supply.
func (s *Service) TotalSupply(ctx context.Context) (*big.Int, error) {
	history, err := s.store.SupplyCheckpoints(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load supply checkpoints")
	}
	return latestVotes(history), nil
}

// BalanceOf returns the account's token balance.
func (s *Service) BalanceOf(ctx context.Context, addr domain.Address) (*big.Int, error) {
	account, err := s.store.Account(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account.Balance, nil
}

// DelegateOf returns the account's current delegate, zero when undelegated.
func (s *Service) DelegateOf(ctx context.Context, addr domain.Address) (domain.Address, error) {
	account, err := s.store.Account(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.ZeroAddress, nil
	}
	if err != nil {
		return domain.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account.Delegate, nil
}

// SetAutoDelegation toggles delegate-to-self on first receipt. Owner only.
func (s *Service) SetAutoDelegation(ctx context.Context, enabled bool) error {
	if requestcontext.Caller(ctx) != s.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoDelegation = enabled
	return nil
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

func (s *Service) accountLocked(ctx context.Context, addr domain.Address) (*models.Account, error) {
	account, err := s.store.Account(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewAccount(addr), nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// applyAutoDelegation self-delegates an account receiving its first tokens.
func (s *Service) applyAutoDelegation(account *models.Account) {
	if s.autoDelegation && account.Delegate.IsZero() && account.Balance.Sign() > 0 {
		account.Delegate = account.Address
	}
}

// moveVotingPower shifts amount between two delegates' checkpoint histories.
// A zero endpoint means power appears (mint) or disappears (burn) on that
// side.
func (s *Service) moveVotingPower(ctx context.Context, now time.Time, from, to domain.Address, amount *big.Int) error {
	if from == to || amount.Sign() == 0 {
		return nil
	}

	if !from.IsZero() {
		history, err := s.store.Checkpoints(ctx, from)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checkpoints")
		}
		votes := new(big.Int).Sub(latestVotes(history), amount)
		if votes.Sign() < 0 {
			// Accounting drift would be a bug, not a user error.
			return dErrors.New(dErrors.CodeInternal, "voting power underflow")
		}
		if err := s.store.WriteCheckpoint(ctx, from, models.Checkpoint{Timestamp: now, Votes: votes}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write checkpoint")
		}
	}
	if !to.IsZero() {
		history, err := s.store.Checkpoints(ctx, to)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checkpoints")
		}
		votes := new(big.Int).Add(latestVotes(history), amount)
		if err := s.store.WriteCheckpoint(ctx, to, models.Checkpoint{Timestamp: now, Votes: votes}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write checkpoint")
		}
	}
	return nil
}

func (s *Service) totalSupplyLocked(ctx context.Context) (*big.Int, error) {
	history, err := s.store.SupplyCheckpoints(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load supply checkpoints")
	}
	return latestVotes(history), nil
}

func (s *Service) writeSupply(ctx context.Context, now time.Time, supply *big.Int) error {
	if err := s.store.WriteSupplyCheckpoint(ctx, models.Checkpoint{Timestamp: now, Votes: supply}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write supply checkpoint")
	}
	return nil
}

// latestVotes returns the newest entry's votes, zero for an empty history.
func latestVotes(history []models.Checkpoint) *big.Int {
	if len(history) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(history[len(history)-1].Votes)
}

// votesAt scans the ascending history from the newest entry down and returns
// the last checkpoint at or before t, zero when t predates the history.
func votesAt(history []models.Checkpoint, t time.Time) *big.Int {
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Timestamp.After(t) {
			return new(big.Int).Set(history[i].Votes)
		}
	}
	return new(big.Int)
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.GovernanceEvent, actor domain.Address, subject string, amount *big.Int) {
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Emit(ctx, audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		Actor:     actor.String(),
		Subject:   subject,
		Action:    string(action),
		Amount:    amount.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
}
