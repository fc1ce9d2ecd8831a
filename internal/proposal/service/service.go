// Package service implements the proposal engine: the Active -> Passed ->
// Executed lifecycle, proof-gated participation, and timelocked execution of
// allow-listed calls.
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
	"zkdao/internal/proposal/models"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/audit"
	"zkdao/pkg/platform/reentrancy"
	"zkdao/pkg/platform/sentinel"
	txcontext "zkdao/pkg/platform/tx"
	"zkdao/pkg/requestcontext"
)

const (
	// DefaultVotingPeriod is how long a proposal accepts votes.
	DefaultVotingPeriod = 7 * 24 * time.Hour

	// DefaultExecutionDelay is the timelock between passing and execution.
	DefaultExecutionDelay = 48 * time.Hour
)

type Service struct {
	store    Store
	gate     ProofGate
	votes    VotingPower
	executor Executor
	owner    domain.Address
	guard    *reentrancy.Guard
	tx       txcontext.Runner

	// mu serializes proposal mutations: tallies and state transitions are
	// read-modify-write sequences over the store.
	mu sync.Mutex

	paramsMu          sync.RWMutex
	votingPeriod      time.Duration
	quorumThreshold   *big.Int
	executionDelay    time.Duration
	proposalThreshold *big.Int
	allowedTargets    map[domain.Address]bool

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

func WithVotingPeriod(d time.Duration) Option {
	return func(s *Service) {
		s.votingPeriod = d
	}
}

func WithQuorumThreshold(q *big.Int) Option {
	return func(s *Service) {
		s.quorumThreshold = new(big.Int).Set(q)
	}
}

func WithExecutionDelay(d time.Duration) Option {
	return func(s *Service) {
		s.executionDelay = d
	}
}

func WithProposalThreshold(t *big.Int) Option {
	return func(s *Service) {
		s.proposalThreshold = new(big.Int).Set(t)
	}
}

// WithAllowedTarget seeds the execution allow-list.
func WithAllowedTarget(target domain.Address) Option {
	return func(s *Service) {
		s.allowedTargets[target] = true
	}
}

// WithTxRunner sets the transactional boundary for multi-write mutations.
// The persistent deployment passes a SQL runner so vote records, tallies,
// and execution flags commit or roll back together.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func New(store Store, gate ProofGate, votes VotingPower, executor Executor, owner domain.Address, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("proposal store is required")
	}
	if gate == nil {
		return nil, errors.New("proof gate is required")
	}
	if votes == nil {
		return nil, errors.New("voting power source is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if owner.IsZero() {
		return nil, errors.New("owner address is required")
	}

	svc := &Service{
		store:             store,
		gate:              gate,
		votes:             votes,
		executor:          executor,
		owner:             owner,
		guard:             reentrancy.New(),
		tx:                txcontext.Passthrough{},
		votingPeriod:      DefaultVotingPeriod,
		quorumThreshold:   new(big.Int),
		executionDelay:    DefaultExecutionDelay,
		proposalThreshold: new(big.Int),
		allowedTargets:    make(map[domain.Address]bool),
		logger:            slog.Default(),
		tracer:            otel.Tracer("zkdao/proposal"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// CreateProposal opens a new Active proposal against an allow-listed target.
// The caller must be a verified member presenting a fresh proof pair and must
// hold at least the proposal threshold in voting power. The proof digest is
// consumed only after the proposal is stored, so a storage failure does not
// burn it.
func (s *Service) CreateProposal(ctx context.Context, title, description string, target domain.Address, value *big.Int, payload []byte, commitment, proofHash domain.Hash32) (domain.ProposalID, error) {
	ctx, span := s.tracer.Start(ctx, "proposal.CreateProposal")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if title == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if target.IsZero() {
		return 0, dErrors.New(dErrors.CodeInvalidAddress, "target address is required")
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "value cannot be negative")
	}

	if !s.isAllowedTarget(target) {
		return 0, dErrors.New(dErrors.CodeTargetNotAllowed, "target is not allow-listed")
	}

	weight, err := s.votes.GetVotes(ctx, caller)
	if err != nil {
		return 0, err
	}
	if weight.Cmp(s.threshold()) < 0 {
		return 0, dErrors.New(dErrors.CodeInsufficientFunds, "voting power below the proposal threshold")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The replay check and the consumption below run under the same lock,
	// so a second call presenting the same digest serializes behind this
	// one and fails validation.
	if err := s.requireVerified(ctx, caller, commitment, proofHash); err != nil {
		return 0, err
	}

	now := requestcontext.Now(ctx)
	var id domain.ProposalID
	var p *models.Proposal
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		id, err = s.store.NextID(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate proposal id")
		}

		p = models.NewProposal(id, caller, title, description, now, now.Add(s.period()))
		p.Commitment = commitment
		p.ProofHash = proofHash
		if err := s.store.SaveProposal(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proposal")
		}
		if err := s.store.SaveExecution(txCtx, &models.Execution{
			ProposalID: id,
			Target:     target,
			Value:      new(big.Int).Set(value),
			Payload:    payload,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store execution record")
		}

		if err := s.gate.ConsumeProof(txCtx, proofHash); err != nil {
			// The digest was spent elsewhere after validation. Unwind the
			// stored proposal so the replay leaves no trace.
			if derr := s.store.DeleteProposal(txCtx, id); derr != nil {
				s.logger.ErrorContext(txCtx, "failed to unwind proposal after spent digest",
					"proposal_id", id,
					"error", derr,
				)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.ProposalsCreated.Inc()
	}
	s.emit(ctx, audit.EventProposalCreated, caller, id.String(), "", "", proofHash)
	s.logger.InfoContext(ctx, "proposal created",
		"proposal_id", id,
		"proposer", caller,
		"target", target,
		"end_time", p.EndTime,
		"request_id", requestcontext.RequestID(ctx),
	)
	return id, nil
}

// Vote casts a ballot on an Active proposal. The weight is the caller's
// current voting power at call time, not a snapshot at proposal creation.
// The vote record is written before the tallies, so the write-once key is
// what makes double voting impossible.
func (s *Service) Vote(ctx context.Context, id domain.ProposalID, choice models.VoteChoice, commitment, proofHash domain.Hash32) error {
	ctx, span := s.tracer.Start(ctx, "proposal.Vote")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if _, err := models.ParseVoteChoice(string(choice)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replay check and consumption share the lock; see CreateProposal.
	if err := s.requireVerified(ctx, caller, commitment, proofHash); err != nil {
		return err
	}

	p, err := s.loadProposal(ctx, id)
	if err != nil {
		return err
	}
	if p.State != models.StateActive {
		return dErrors.New(dErrors.CodeProposalNotActive, "proposal is not active")
	}
	now := requestcontext.Now(ctx)
	if now.After(p.EndTime) {
		return dErrors.New(dErrors.CodeProposalNotActive, "voting period has ended")
	}

	weight, err := s.votes.GetVotes(ctx, caller)
	if err != nil {
		return err
	}

	record := &models.VoteRecord{
		ProposalID: id,
		Voter:      caller,
		Choice:     choice,
		Weight:     weight,
		ProofHash:  proofHash,
		CastAt:     now,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		err := s.store.SaveVoteRecord(txCtx, record)
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyVoted, "caller already voted on this proposal")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store vote record")
		}

		p.Tally(choice, weight)
		if err := s.store.SaveProposal(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proposal")
		}

		if err := s.gate.ConsumeProof(txCtx, proofHash); err != nil {
			// The digest was spent elsewhere after validation. Unwind the
			// ballot so a replayed proof never leaves a counted vote.
			p.Untally(choice, weight)
			if derr := s.store.DeleteVoteRecord(txCtx, id, caller); derr != nil {
				s.logger.ErrorContext(txCtx, "failed to unwind vote record after spent digest",
					"proposal_id", id,
					"voter", caller,
					"error", derr,
				)
			}
			if serr := s.store.SaveProposal(txCtx, p); serr != nil {
				s.logger.ErrorContext(txCtx, "failed to unwind tallies after spent digest",
					"proposal_id", id,
					"error", serr,
				)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.VotesCast.WithLabelValues(choice.String()).Inc()
	}
	s.emit(ctx, audit.EventVoteCast, caller, id.String(), choice.String(), "", proofHash)
	return nil
}

// FinalizeProposal settles an Active proposal whose voting period has ended.
// Passed requires quorum on the combined tallies and a strict for-majority.
// Anyone may finalize; the outcome is a pure function of the stored tallies.
func (s *Service) FinalizeProposal(ctx context.Context, id domain.ProposalID) (models.ProposalState, error) {
	ctx, span := s.tracer.Start(ctx, "proposal.FinalizeProposal")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadProposal(ctx, id)
	if err != nil {
		return "", err
	}
	if p.State != models.StateActive {
		return "", dErrors.New(dErrors.CodeProposalNotActive, "proposal is not active")
	}
	now := requestcontext.Now(ctx)
	if !now.After(p.EndTime) {
		return "", dErrors.New(dErrors.CodeConflict, "voting period is still open")
	}

	passed := p.TotalVotes().Cmp(s.quorum()) >= 0 && p.ForVotes.Cmp(p.AgainstVotes) > 0
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if passed {
			p.State = models.StatePassed

			exec, err := s.loadExecution(txCtx, id)
			if err != nil {
				return err
			}
			exec.TimelockEnd = now.Add(s.delay())
			if err := s.store.SaveExecution(txCtx, exec); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store execution record")
			}
		} else {
			p.State = models.StateRejected
		}
		if err := s.store.SaveProposal(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proposal")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if s.metrics != nil {
		s.metrics.ProposalsFinalized.WithLabelValues(string(p.State)).Inc()
	}
	s.emit(ctx, audit.EventProposalFinalized, requestcontext.Caller(ctx), id.String(), string(p.State), "", domain.ZeroHash)
	s.logger.InfoContext(ctx, "proposal finalized",
		"proposal_id", id,
		"outcome", p.State,
		"for", p.ForVotes,
		"against", p.AgainstVotes,
		"abstain", p.AbstainVotes,
		"request_id", requestcontext.RequestID(ctx),
	)
	return p.State, nil
}

// ExecuteProposal performs a Passed proposal's call once its timelock has
// expired. The proposal is marked executed before the target call is made,
// and the reentrancy guard is held across it, so a reentrant target cannot
// trigger a second execution. A failed target call unwinds the executed
// marks back to Passed and does not consume the proof, so the execution can
// be retried.
func (s *Service) ExecuteProposal(ctx context.Context, id domain.ProposalID, commitment, proofHash domain.Hash32) error {
	ctx, span := s.tracer.Start(ctx, "proposal.ExecuteProposal")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	// The guard comes before the mutex: a reentrant call from the target
	// must fail fast on the guard, not deadlock on the lock.
	release, err := s.guard.Acquire()
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReentrancyRejected.Inc()
		}
		s.emit(ctx, audit.EventReentrancyRejected, caller, id.String(), "", "execute_proposal", domain.ZeroHash)
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replay check and consumption share the lock; see CreateProposal.
	if err := s.requireVerified(ctx, caller, commitment, proofHash); err != nil {
		return err
	}

	p, err := s.loadProposal(ctx, id)
	if err != nil {
		return err
	}
	if p.State != models.StatePassed {
		return dErrors.New(dErrors.CodeProposalNotPassed, "proposal has not passed")
	}
	exec, err := s.loadExecution(ctx, id)
	if err != nil {
		return err
	}
	if exec.Executed {
		return dErrors.New(dErrors.CodeAlreadyExecuted, "proposal already executed")
	}
	now := requestcontext.Now(ctx)
	if now.Before(exec.TimelockEnd) {
		return dErrors.New(dErrors.CodeTimelockNotExpired, "timelock has not expired")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		exec.Executed = true
		if err := s.store.SaveExecution(txCtx, exec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store execution record")
		}
		p.State = models.StateExecuted
		if err := s.store.SaveProposal(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proposal")
		}

		if err := s.executor.Execute(txCtx, exec.Target, exec.Value, exec.Payload); err != nil {
			s.logger.ErrorContext(txCtx, "proposal execution call failed",
				"proposal_id", id,
				"target", exec.Target,
				"error", err,
				"request_id", requestcontext.RequestID(txCtx),
			)
			s.unwindExecution(txCtx, p, exec)
			return err
		}

		if err := s.gate.ConsumeProof(txCtx, proofHash); err != nil {
			s.unwindExecution(txCtx, p, exec)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ProposalsExecuted.Inc()
	}
	s.emit(ctx, audit.EventProposalExecuted, caller, id.String(), "", "", proofHash)
	return nil
}

// CancelProposal withdraws an Active proposal. Owner only; terminal.
func (s *Service) CancelProposal(ctx context.Context, id domain.ProposalID) error {
	caller := requestcontext.Caller(ctx)
	if caller != s.owner {
		s.emit(ctx, audit.EventUnauthorizedCall, caller, id.String(), "", "cancel_proposal is owner-only", domain.ZeroHash)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadProposal(ctx, id)
	if err != nil {
		return err
	}
	if p.State != models.StateActive {
		return dErrors.New(dErrors.CodeProposalNotActive, "proposal is not active")
	}

	p.State = models.StateCancelled
	if err := s.store.SaveProposal(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proposal")
	}

	s.emit(ctx, audit.EventProposalCancelled, caller, id.String(), "", "", domain.ZeroHash)
	return nil
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

func (s *Service) GetProposal(ctx context.Context, id domain.ProposalID) (*models.Proposal, error) {
	return s.loadProposal(ctx, id)
}

func (s *Service) GetExecution(ctx context.Context, id domain.ProposalID) (*models.Execution, error) {
	return s.loadExecution(ctx, id)
}

func (s *Service) GetVoteRecord(ctx context.Context, id domain.ProposalID, voter domain.Address) (*models.VoteRecord, error) {
	v, err := s.store.VoteRecord(ctx, id, voter)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "vote record not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vote record")
	}
	return v, nil
}

// -----------------------------------------------------------------------------
// Administration
// -----------------------------------------------------------------------------

// SetAllowedTarget adds or removes an execution target. Owner only.
func (s *Service) SetAllowedTarget(ctx context.Context, target domain.Address, allowed bool) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if target.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "target address is required")
	}

	s.paramsMu.Lock()
	if allowed {
		s.allowedTargets[target] = true
	} else {
		delete(s.allowedTargets, target)
	}
	s.paramsMu.Unlock()
	return nil
}

// SetVotingPeriod changes how long new proposals accept votes. Owner only.
// Existing proposals keep the end time stamped at creation.
func (s *Service) SetVotingPeriod(ctx context.Context, d time.Duration) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if d <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "voting period must be positive")
	}

	s.paramsMu.Lock()
	s.votingPeriod = d
	s.paramsMu.Unlock()
	return nil
}

// SetQuorumThreshold changes the quorum for future finalizations. Owner only.
func (s *Service) SetQuorumThreshold(ctx context.Context, q *big.Int) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if q == nil || q.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "quorum cannot be negative")
	}

	s.paramsMu.Lock()
	s.quorumThreshold = new(big.Int).Set(q)
	s.paramsMu.Unlock()
	return nil
}

// SetExecutionDelay changes the timelock for future finalizations. Owner only.
func (s *Service) SetExecutionDelay(ctx context.Context, d time.Duration) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if d < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "execution delay cannot be negative")
	}

	s.paramsMu.Lock()
	s.executionDelay = d
	s.paramsMu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

// requireVerified gates proof-bearing entry points: derived membership check
// first, then proof-pair validation. The digest is NOT consumed here.
func (s *Service) requireVerified(ctx context.Context, caller domain.Address, commitment, proofHash domain.Hash32) error {
	verified, err := s.gate.IsVerified(ctx, caller)
	if err != nil {
		return err
	}
	if !verified {
		return dErrors.New(dErrors.CodeNotVerified, "caller is not a verified member")
	}

	ok, err := s.gate.Validate(ctx, caller, commitment, proofHash)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeInvalidProof, "proof validation failed")
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context) error {
	caller := requestcontext.Caller(ctx)
	if caller != s.owner {
		s.emit(ctx, audit.EventUnauthorizedCall, caller, "", "", "owner-only operation", domain.ZeroHash)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

// unwindExecution restores a Passed proposal after its target call or proof
// registration failed, so execution can be retried. Inside a SQL transaction
// the surrounding rollback discards these writes together with the marks
// they reverse; against the in-memory store they are the rollback.
func (s *Service) unwindExecution(ctx context.Context, p *models.Proposal, exec *models.Execution) {
	exec.Executed = false
	if err := s.store.SaveExecution(ctx, exec); err != nil {
		s.logger.ErrorContext(ctx, "failed to unwind execution record",
			"proposal_id", exec.ProposalID,
			"error", err,
		)
	}
	p.State = models.StatePassed
	if err := s.store.SaveProposal(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to unwind proposal state",
			"proposal_id", p.ID,
			"error", err,
		)
	}
}

func (s *Service) loadProposal(ctx context.Context, id domain.ProposalID) (*models.Proposal, error) {
	p, err := s.store.Proposal(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p, nil
}

func (s *Service) loadExecution(ctx context.Context, id domain.ProposalID) (*models.Execution, error) {
	e, err := s.store.Execution(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "execution record not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load execution record")
	}
	return e, nil
}

func (s *Service) isAllowedTarget(target domain.Address) bool {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return s.allowedTargets[target]
}

func (s *Service) period() time.Duration {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return s.votingPeriod
}

func (s *Service) quorum() *big.Int {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return new(big.Int).Set(s.quorumThreshold)
}

func (s *Service) delay() time.Duration {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return s.executionDelay
}

func (s *Service) threshold() *big.Int {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return new(big.Int).Set(s.proposalThreshold)
}

func (s *Service) emit(ctx context.Context, action audit.GovernanceEvent, actor domain.Address, subject, decision, reason string, proofHash domain.Hash32) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		Actor:     actor.String(),
		Subject:   subject,
		Action:    string(action),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if !proofHash.IsZero() {
		event.ProofHash = proofHash.String()
	}
	s.auditPublisher.Emit(ctx, event)
}
