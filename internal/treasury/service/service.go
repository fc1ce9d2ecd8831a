// Package service implements the treasury queue: timelocked withdrawals over
// a custodied balance, with checks-effects-interactions ordering on every
// outbound transfer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"zkdao/internal/platform/metrics"
	"zkdao/internal/treasury/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/audit"
	"zkdao/pkg/platform/reentrancy"
	"zkdao/pkg/platform/sentinel"
	txcontext "zkdao/pkg/platform/tx"
	"zkdao/pkg/requestcontext"
)

const (
	// DefaultWithdrawalDelay is the timelock between queueing and execution.
	DefaultWithdrawalDelay = 24 * time.Hour

	// MinWithdrawalDelay and MaxWithdrawalDelay bound SetWithdrawalDelay.
	MinWithdrawalDelay = time.Hour
	MaxWithdrawalDelay = 30 * 24 * time.Hour
)

type Service struct {
	store Store
	owner domain.Address
	guard *reentrancy.Guard

	// mu serializes balance mutations and the queue's ratchet flags.
	mu              sync.Mutex
	tx              txcontext.Runner
	withdrawalDelay time.Duration
	paused          bool

	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithWithdrawalDelay(d time.Duration) Option {
	return func(s *Service) {
		s.withdrawalDelay = d
	}
}

// WithTxRunner sets the transactional boundary for multi-write mutations.
// The persistent deployment passes a SQL runner so the executed flag and the
// balance debit commit or roll back together.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func New(store Store, owner domain.Address, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("treasury store is required")
	}
	if owner.IsZero() {
		return nil, errors.New("owner address is required")
	}

	svc := &Service{
		store:           store,
		owner:           owner,
		guard:           reentrancy.New(),
		tx:              txcontext.Passthrough{},
		withdrawalDelay: DefaultWithdrawalDelay,
		logger:          slog.Default(),
		tracer:          otel.Tracer("zkdao/treasury"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// -----------------------------------------------------------------------------
// Deposits and the withdrawal queue
// -----------------------------------------------------------------------------

// Deposit credits funds to the treasury balance.
func (s *Service) Deposit(ctx context.Context, from domain.Address, amount *big.Int) error {
	if from.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "depositor address is required")
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return dErrors.New(dErrors.CodePaused, "treasury is paused")
	}

	balance, err := s.balanceLocked(ctx)
	if err != nil {
		return err
	}
	if err := s.saveBalance(ctx, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}

	s.emit(ctx, audit.EventFundsDeposited, from, "", "", amount)
	return nil
}

// QueueWithdrawal schedules a timelocked payout. Owner only. The unlock time
// is stamped from the request clock plus the configured delay.
func (s *Service) QueueWithdrawal(ctx context.Context, recipient domain.Address, amount *big.Int) (domain.WithdrawalID, error) {
	ctx, span := s.tracer.Start(ctx, "treasury.QueueWithdrawal")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return 0, err
	}
	if recipient.IsZero() {
		return 0, dErrors.New(dErrors.CodeInvalidAddress, "recipient address is required")
	}
	if err := validAmount(amount); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return 0, dErrors.New(dErrors.CodePaused, "treasury is paused")
	}

	balance, err := s.balanceLocked(ctx)
	if err != nil {
		return 0, err
	}
	if balance.Cmp(amount) < 0 {
		return 0, dErrors.New(dErrors.CodeInsufficientFunds, "withdrawal exceeds the treasury balance")
	}

	id, err := s.store.NextID(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate withdrawal id")
	}

	now := requestcontext.Now(ctx)
	w := &models.Withdrawal{
		ID:         id,
		Recipient:  recipient,
		Amount:     new(big.Int).Set(amount),
		QueuedAt:   now,
		UnlockTime: now.Add(s.withdrawalDelay),
	}
	if err := s.store.SaveWithdrawal(ctx, w); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store withdrawal")
	}

	if s.metrics != nil {
		s.metrics.WithdrawalsQueued.Inc()
	}
	s.emit(ctx, audit.EventWithdrawalQueued, caller, id.String(), recipient.String(), amount)
	s.logger.InfoContext(ctx, "withdrawal queued",
		"withdrawal_id", id,
		"recipient", recipient,
		"unlock_time", w.UnlockTime,
		"request_id", requestcontext.RequestID(ctx),
	)
	return id, nil
}

// ExecuteWithdrawal pays out a queued withdrawal once its timelock has
// expired. Owner only. The record is marked executed before the balance is
// debited, so a reentrant call observes a spent record, never an intermediate
// state.
func (s *Service) ExecuteWithdrawal(ctx context.Context, id domain.WithdrawalID) error {
	ctx, span := s.tracer.Start(ctx, "treasury.ExecuteWithdrawal")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}

	release, err := s.guard.Acquire()
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReentrancyRejected.Inc()
		}
		s.emit(ctx, audit.EventReentrancyRejected, caller, id.String(), "execute_withdrawal", nil)
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return dErrors.New(dErrors.CodePaused, "treasury is paused")
	}

	w, err := s.loadWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if w.Cancelled {
		return dErrors.New(dErrors.CodeAlreadyCancelled, "withdrawal was cancelled")
	}
	if w.Executed {
		return dErrors.New(dErrors.CodeAlreadyExecuted, "withdrawal already executed")
	}
	now := requestcontext.Now(ctx)
	if now.Before(w.UnlockTime) {
		return dErrors.New(dErrors.CodeTimelockNotExpired, "withdrawal timelock has not expired")
	}

	balance, err := s.balanceLocked(ctx)
	if err != nil {
		return err
	}
	if balance.Cmp(w.Amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, "withdrawal exceeds the treasury balance")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		w.Executed = true
		if err := s.store.SaveWithdrawal(txCtx, w); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store withdrawal")
		}
		return s.saveBalance(txCtx, new(big.Int).Sub(balance, w.Amount))
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.WithdrawalsExecuted.Inc()
	}
	s.emit(ctx, audit.EventWithdrawalExecuted, caller, id.String(), w.Recipient.String(), w.Amount)
	return nil
}

// CancelWithdrawal retires a pending withdrawal. Owner only; one-way.
func (s *Service) CancelWithdrawal(ctx context.Context, id domain.WithdrawalID) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.loadWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if w.Executed {
		return dErrors.New(dErrors.CodeAlreadyExecuted, "withdrawal already executed")
	}
	if w.Cancelled {
		return dErrors.New(dErrors.CodeAlreadyCancelled, "withdrawal already cancelled")
	}

	w.Cancelled = true
	if err := s.store.SaveWithdrawal(ctx, w); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store withdrawal")
	}

	s.emit(ctx, audit.EventWithdrawalCancelled, caller, id.String(), "", nil)
	return nil
}

// -----------------------------------------------------------------------------
// Proposal execution backend
// -----------------------------------------------------------------------------

// Execute performs an allow-listed call on behalf of the proposal engine.
// Value transfers debit the treasury balance; the payload is recorded for
// audit but carries no further semantics at this layer.
func (s *Service) Execute(ctx context.Context, target domain.Address, value *big.Int, payload []byte) error {
	if target.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "target address is required")
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "value cannot be negative")
	}

	release, err := s.guard.Acquire()
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReentrancyRejected.Inc()
		}
		s.emit(ctx, audit.EventReentrancyRejected, requestcontext.Caller(ctx), target.String(), "execute", nil)
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return dErrors.New(dErrors.CodePaused, "treasury is paused")
	}

	if value.Sign() > 0 {
		balance, err := s.balanceLocked(ctx)
		if err != nil {
			return err
		}
		if balance.Cmp(value) < 0 {
			return dErrors.New(dErrors.CodeInsufficientFunds, "call value exceeds the treasury balance")
		}
		if err := s.saveBalance(ctx, new(big.Int).Sub(balance, value)); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "treasury call executed",
		"target", target,
		"value", value,
		"payload_bytes", len(payload),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Emergency and administration
// -----------------------------------------------------------------------------

// EmergencyWithdraw bypasses the queue and the pause switch. Owner only.
func (s *Service) EmergencyWithdraw(ctx context.Context, recipient domain.Address, amount *big.Int) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if recipient.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "recipient address is required")
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	release, err := s.guard.Acquire()
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReentrancyRejected.Inc()
		}
		s.emit(ctx, audit.EventReentrancyRejected, caller, recipient.String(), "emergency_withdraw", nil)
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.balanceLocked(ctx)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, "withdrawal exceeds the treasury balance")
	}
	if err := s.saveBalance(ctx, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}

	s.emit(ctx, audit.EventEmergencyWithdraw, caller, recipient.String(), "", amount)
	s.logger.WarnContext(ctx, "emergency withdrawal",
		"recipient", recipient,
		"amount", amount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// SetWithdrawalDelay changes the timelock for future queueing. Owner only,
// bounded to [1 hour, 30 days].
func (s *Service) SetWithdrawalDelay(ctx context.Context, d time.Duration) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if d < MinWithdrawalDelay || d > MaxWithdrawalDelay {
		return dErrors.New(dErrors.CodeInvalidInput, "withdrawal delay must be between 1 hour and 30 days")
	}

	s.mu.Lock()
	s.withdrawalDelay = d
	s.mu.Unlock()

	s.emit(ctx, audit.EventDelayUpdated, caller, d.String(), "", nil)
	return nil
}

// Pause halts deposits, queueing, and execution. Owner only. Emergency
// withdrawal stays available while paused.
func (s *Service) Pause(ctx context.Context) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}

	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()

	s.emit(ctx, audit.EventTreasuryPaused, caller, "", "", nil)
	return nil
}

func (s *Service) Unpause(ctx context.Context) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}

	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()

	s.emit(ctx, audit.EventTreasuryUnpaused, caller, "", "", nil)
	return nil
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

func (s *Service) GetWithdrawal(ctx context.Context, id domain.WithdrawalID) (*models.Withdrawal, error) {
	return s.loadWithdrawal(ctx, id)
}

func (s *Service) PendingWithdrawals(ctx context.Context) ([]*models.Withdrawal, error) {
	pending, err := s.store.PendingWithdrawals(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending withdrawals")
	}
	return pending, nil
}

func (s *Service) Balance(ctx context.Context) (*big.Int, error) {
	balance, err := s.store.Balance(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load treasury balance")
	}
	return balance, nil
}

// Paused reports the pause switch.
func (s *Service) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

func (s *Service) requireOwner(ctx context.Context, caller domain.Address) error {
	if caller != s.owner {
		s.emit(ctx, audit.EventUnauthorizedCall, caller, "", "owner-only operation", nil)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

func (s *Service) loadWithdrawal(ctx context.Context, id domain.WithdrawalID) (*models.Withdrawal, error) {
	w, err := s.store.Withdrawal(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "withdrawal not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load withdrawal")
	}
	return w, nil
}

func (s *Service) balanceLocked(ctx context.Context) (*big.Int, error) {
	balance, err := s.store.Balance(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load treasury balance")
	}
	return balance, nil
}

func (s *Service) saveBalance(ctx context.Context, balance *big.Int) error {
	if err := s.store.SaveBalance(ctx, balance); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store treasury balance")
	}
	return nil
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.GovernanceEvent, actor domain.Address, subject, reason string, amount *big.Int) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		Actor:     actor.String(),
		Subject:   subject,
		Action:    string(action),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if amount != nil {
		event.Amount = amount.String()
	}
	s.auditPublisher.Emit(ctx, event)
}
