// Package service implements the proof gate: ZK-proof-backed membership
// verification with single-use proof digests. Everything the proposal engine
// knows about identity it learns from this service.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"zkdao/internal/platform/metrics"
	"zkdao/internal/proofgate/models"
	"zkdao/internal/proofgate/verifier"
	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
	"zkdao/pkg/platform/audit"
	"zkdao/pkg/platform/sentinel"
	"zkdao/pkg/requestcontext"
)

// DefaultCircuit is the membership circuit submissions verify against unless
// configured otherwise.
const DefaultCircuit = "membership_v1"

// batchConcurrency bounds parallel status lookups in BatchVerifyMembers.
const batchConcurrency = 8

type Service struct {
	members  MemberStore
	proofs   ProofRegistry
	verifier verifier.ProofVerifier
	owner    domain.Address
	circuit  string

	policyMu sync.RWMutex
	policy   models.Policy

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

func WithPolicy(p models.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithCircuit(circuit string) Option {
	return func(s *Service) {
		s.circuit = circuit
	}
}

func New(members MemberStore, proofs ProofRegistry, oracle verifier.ProofVerifier, owner domain.Address, opts ...Option) (*Service, error) {
	if members == nil {
		return nil, errors.New("member store is required")
	}
	if proofs == nil {
		return nil, errors.New("proof registry is required")
	}
	if oracle == nil {
		return nil, errors.New("proof verifier is required")
	}
	if owner.IsZero() {
		return nil, errors.New("owner address is required")
	}

	svc := &Service{
		members:  members,
		proofs:   proofs,
		verifier: oracle,
		owner:    owner,
		circuit:  DefaultCircuit,
		logger:   slog.Default(),
		tracer:   otel.Tracer("zkdao/proofgate"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// -----------------------------------------------------------------------------
// Proof submission and validation
// -----------------------------------------------------------------------------

// SubmitProof verifies and records a membership proof for user. Only the
// owner or a registered verifier may submit; users themselves route through
// that backend.
//
// The submitted proofHash must equal the canonical digest
// Keccak-256(proof ++ publicInputs). Submission consumes the digest: the
// proof cannot be replayed through any path afterwards.
func (s *Service) SubmitProof(ctx context.Context, user domain.Address, proof, publicInputs []byte, commitment, proofHash domain.Hash32, vtype models.VerificationType) error {
	ctx, span := s.tracer.Start(ctx, "proofgate.SubmitProof")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if err := s.requireOwnerOrVerifier(ctx, caller); err != nil {
		return err
	}
	if user.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "user address is required")
	}
	if commitment.IsZero() || proofHash.IsZero() {
		s.countProof("rejected")
		return dErrors.New(dErrors.CodeInvalidProof, "commitment and proof hash are required")
	}

	// The digest is recomputed server-side; a submitted hash that does not
	// match the proof bytes is a forgery attempt, not a format error.
	if verifier.ProofDigest(proof, publicInputs) != proofHash {
		s.countProof("rejected")
		return dErrors.New(dErrors.CodeInvalidProof, "proof hash does not match proof contents")
	}

	start := time.Now()
	outcome, err := s.verifier.Verify(ctx, proof, publicInputs, s.circuit)
	if s.metrics != nil {
		s.metrics.ProofVerifyDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.countProof("rejected")
		return err
	}
	if !outcome.Valid {
		s.countProof("rejected")
		return dErrors.Newf(dErrors.CodeInvalidProof, "proof verification failed: %s", outcome.Reason)
	}

	inputs, err := verifier.ParsePublicInputs(publicInputs)
	if err != nil {
		s.countProof("rejected")
		return err
	}
	if policy := s.Policy(); !policy.SatisfiedBy(models.Policy(inputs.PolicyFlags.Uint32())) {
		s.countProof("rejected")
		return dErrors.New(dErrors.CodeInvalidProof, "proof does not satisfy the verification policy")
	}

	if err := s.consume(ctx, caller, proofHash); err != nil {
		return err
	}

	m, err := s.getOrDefault(ctx, user)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	m.Verified = true
	m.Commitment = commitment
	m.ProofHash = proofHash
	m.VerifiedAt = requestcontext.Now(ctx)
	m.Type = vtype
	if err := s.members.Upsert(ctx, m); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store member")
	}

	s.countProof("accepted")
	s.emit(ctx, audit.EventProofSubmitted, caller, user.String(), "accepted", "", proofHash)
	s.logger.InfoContext(ctx, "proof accepted",
		"user", user,
		"type", vtype.String(),
		"circuit", outcome.Circuit,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Validate checks that the caller-presented commitment and proof hash are
// usable for a gated action. A zero commitment or hash validates false
// without error. A consumed hash is an error: the caller is replaying.
//
// On success the member record is updated with the presented pair and the
// validation timestamp. Validate does NOT consume the hash; the engine calls
// ConsumeProof after the gated action succeeded, so a failed action never
// burns the proof.
func (s *Service) Validate(ctx context.Context, user domain.Address, commitment, proofHash domain.Hash32) (bool, error) {
	if commitment.IsZero() || proofHash.IsZero() {
		return false, nil
	}

	used, err := s.proofs.IsUsed(ctx, proofHash)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check proof registry")
	}
	if used {
		s.markReplay(ctx, user, proofHash)
		return false, dErrors.New(dErrors.CodeProofAlreadyUsed, "proof hash already consumed")
	}

	m, err := s.getOrDefault(ctx, user)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	m.Commitment = commitment
	m.ProofHash = proofHash
	m.VerifiedAt = requestcontext.Now(ctx)
	if err := s.members.Upsert(ctx, m); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store member")
	}

	s.emit(ctx, audit.EventProofValidated, requestcontext.Caller(ctx), user.String(), "valid", "", proofHash)
	return true, nil
}

// ConsumeProof registers the digest as spent. Called by the proposal engine
// after the proof-gated action succeeded.
func (s *Service) ConsumeProof(ctx context.Context, proofHash domain.Hash32) error {
	if proofHash.IsZero() {
		return dErrors.New(dErrors.CodeInvalidProof, "proof hash is required")
	}
	return s.consume(ctx, requestcontext.Caller(ctx), proofHash)
}

// IsVerified is the derived membership view, recomputed on every call:
// verified flag set AND a non-sentinel commitment AND proof hash on record.
// Revoking any of the three demotes the account immediately.
func (s *Service) IsVerified(ctx context.Context, user domain.Address) (bool, error) {
	m, err := s.members.Get(ctx, user)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m.Verified && m.HasProof(), nil
}

// KycStatus returns the full verification read-model for an account.
func (s *Service) KycStatus(ctx context.Context, user domain.Address) (*models.KycStatus, error) {
	m, err := s.members.Get(ctx, user)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &models.KycStatus{Address: user}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return &models.KycStatus{
		Address:    user,
		IsMember:   m.IsMember,
		IsVerified: m.Verified && m.HasProof(),
		Type:       m.Type,
		VerifiedAt: m.VerifiedAt,
		Commitment: m.Commitment,
		ProofHash:  m.ProofHash,
	}, nil
}

// BatchVerifyMembers resolves the derived verification status for many
// accounts in parallel. Results align with the input slice.
func (s *Service) BatchVerifyMembers(ctx context.Context, users []domain.Address) ([]bool, error) {
	results := make([]bool, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, user := range users {
		g.Go(func() error {
			ok, err := s.IsVerified(gctx, user)
			if err != nil {
				return err
			}
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// -----------------------------------------------------------------------------
// Administration
// -----------------------------------------------------------------------------

// AddMember enrolls an account. Owner only. Enrollment does not verify; the
// member still needs a proof or a verifier attestation.
func (s *Service) AddMember(ctx context.Context, addr domain.Address) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "member address is required")
	}

	m, err := s.getOrDefault(ctx, addr)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	m.IsMember = true
	if err := s.members.Upsert(ctx, m); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store member")
	}

	s.emit(ctx, audit.EventMemberAdded, caller, addr.String(), "", "", domain.ZeroHash)
	return nil
}

// VerifyMember is the attestation path: a registered verifier vouches for a
// member without a proof submission.
func (s *Service) VerifyMember(ctx context.Context, addr domain.Address, vtype models.VerificationType) error {
	caller := requestcontext.Caller(ctx)
	isVerifier, err := s.members.IsVerifier(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verifier role")
	}
	if !isVerifier {
		s.emit(ctx, audit.EventUnauthorizedCall, caller, addr.String(), "", "verify_member requires verifier role", domain.ZeroHash)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not a registered verifier")
	}

	m, err := s.members.Get(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "member not enrolled")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	m.Verified = true
	m.VerifiedAt = requestcontext.Now(ctx)
	m.Type = vtype
	if err := s.members.Upsert(ctx, m); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store member")
	}

	s.emit(ctx, audit.EventMemberVerified, caller, addr.String(), vtype.String(), "", domain.ZeroHash)
	return nil
}

// AddVerifier grants the verifier role. Owner only.
func (s *Service) AddVerifier(ctx context.Context, addr domain.Address) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAddress, "verifier address is required")
	}

	if err := s.members.AddVerifier(ctx, addr); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verifier")
	}

	s.emit(ctx, audit.EventVerifierAdded, caller, addr.String(), "", "", domain.ZeroHash)
	return nil
}

// RevokeMember clears the verified flag. Owner only. The derived IsVerified
// view makes revocation effective immediately.
func (s *Service) RevokeMember(ctx context.Context, addr domain.Address) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}

	m, err := s.members.Get(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "member not enrolled")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	m.Verified = false
	if err := s.members.Upsert(ctx, m); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store member")
	}

	s.emit(ctx, audit.EventMemberRevoked, caller, addr.String(), "", "", domain.ZeroHash)
	return nil
}

// Policy returns the active verification policy.
func (s *Service) Policy() models.Policy {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()
	return s.policy
}

// UpdatePolicy replaces the verification policy bitmask. Owner only.
// Existing verified members are unaffected; the policy gates future
// submissions.
func (s *Service) UpdatePolicy(ctx context.Context, p models.Policy) error {
	caller := requestcontext.Caller(ctx)
	if err := s.requireOwner(ctx, caller); err != nil {
		return err
	}

	s.policyMu.Lock()
	s.policy = p
	s.policyMu.Unlock()

	s.emit(ctx, audit.EventPolicyUpdated, caller, "", "", "", domain.ZeroHash)
	return nil
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

func (s *Service) requireOwner(ctx context.Context, caller domain.Address) error {
	if caller != s.owner {
		s.emit(ctx, audit.EventUnauthorizedCall, caller, "", "", "owner-only operation", domain.ZeroHash)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

func (s *Service) requireOwnerOrVerifier(ctx context.Context, caller domain.Address) error {
	if caller == s.owner {
		return nil
	}
	isVerifier, err := s.members.IsVerifier(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verifier role")
	}
	if !isVerifier {
		s.emit(ctx, audit.EventUnauthorizedCall, caller, "", "", "submission requires owner or verifier role", domain.ZeroHash)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner or a registered verifier")
	}
	return nil
}

func (s *Service) getOrDefault(ctx context.Context, addr domain.Address) (*models.Member, error) {
	m, err := s.members.Get(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &models.Member{Address: addr}, nil
	}
	return m, err
}

func (s *Service) consume(ctx context.Context, actor domain.Address, proofHash domain.Hash32) error {
	err := s.proofs.MarkUsed(ctx, proofHash)
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		s.markReplay(ctx, actor, proofHash)
		return dErrors.New(dErrors.CodeProofAlreadyUsed, "proof hash already consumed")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register proof hash")
	}
	s.emit(ctx, audit.EventProofConsumed, actor, "", "", "", proofHash)
	return nil
}

func (s *Service) markReplay(ctx context.Context, actor domain.Address, proofHash domain.Hash32) {
	if s.metrics != nil {
		s.metrics.ProofReplays.Inc()
	}
	s.emit(ctx, audit.EventProofReplayed, actor, "", "replayed", "", proofHash)
	s.logger.WarnContext(ctx, "proof replay rejected",
		"actor", actor,
		"proof_hash", proofHash,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) countProof(result string) {
	if s.metrics != nil {
		s.metrics.ProofsSubmitted.WithLabelValues(result).Inc()
	}
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
