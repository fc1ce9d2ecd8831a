package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: membership changes, proof submissions, verifier grants.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// Examples: proof replays, reentrancy rejections, unauthorized calls.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational visibility.
	// Examples: proposal lifecycle transitions, votes, treasury movements.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key governance actions. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Actor is the caller address that performed the action, as 0x-hex.
	Actor string
	// Subject identifies the entity acted on: a proposal ID, withdrawal ID,
	// or member address depending on Action.
	Subject string
	Action  string
	// Decision is the outcome where the action has one ("passed", "rejected",
	// "valid", "replayed").
	Decision string
	Reason   string
	// Amount is the token or fund amount involved, in base units as a
	// decimal string, empty when not applicable.
	Amount string
	// ProofHash is set for proof-gated actions so replay investigations can
	// correlate without storing proof bytes.
	ProofHash string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

type GovernanceEvent string

const (
	// Membership and proof events
	EventMemberAdded    GovernanceEvent = "member_added"
	EventMemberVerified GovernanceEvent = "member_verified"
	EventMemberRevoked  GovernanceEvent = "member_revoked"
	EventVerifierAdded  GovernanceEvent = "verifier_added"
	EventPolicyUpdated  GovernanceEvent = "policy_updated"
	EventProofSubmitted GovernanceEvent = "proof_submitted"
	EventProofValidated GovernanceEvent = "proof_validated"
	EventProofConsumed  GovernanceEvent = "proof_consumed"
	EventProofReplayed  GovernanceEvent = "proof_replayed"

	// Proposal events
	EventProposalCreated   GovernanceEvent = "proposal_created"
	EventVoteCast          GovernanceEvent = "vote_cast"
	EventProposalFinalized GovernanceEvent = "proposal_finalized"
	EventProposalExecuted  GovernanceEvent = "proposal_executed"
	EventProposalCancelled GovernanceEvent = "proposal_cancelled"

	// Ledger events
	EventTokensMinted    GovernanceEvent = "tokens_minted"
	EventTokensBurned    GovernanceEvent = "tokens_burned"
	EventTokensMoved     GovernanceEvent = "tokens_transferred"
	EventDelegateChanged GovernanceEvent = "delegate_changed"

	// Treasury events
	EventFundsDeposited      GovernanceEvent = "funds_deposited"
	EventWithdrawalQueued    GovernanceEvent = "withdrawal_queued"
	EventWithdrawalExecuted  GovernanceEvent = "withdrawal_executed"
	EventWithdrawalCancelled GovernanceEvent = "withdrawal_cancelled"
	EventDelayUpdated        GovernanceEvent = "withdrawal_delay_updated"
	EventTreasuryPaused      GovernanceEvent = "treasury_paused"
	EventTreasuryUnpaused    GovernanceEvent = "treasury_unpaused"
	EventEmergencyWithdraw   GovernanceEvent = "emergency_withdrawal"

	// Security events
	EventReentrancyRejected GovernanceEvent = "reentrancy_rejected"
	EventUnauthorizedCall   GovernanceEvent = "unauthorized_call"
)

// eventCategories maps each governance event to its category.
var eventCategories = map[GovernanceEvent]EventCategory{
	// Compliance events - require tamper-proof storage
	EventMemberAdded:    CategoryCompliance,
	EventMemberVerified: CategoryCompliance,
	EventMemberRevoked:  CategoryCompliance,
	EventVerifierAdded:  CategoryCompliance,
	EventPolicyUpdated:  CategoryCompliance,
	EventProofSubmitted: CategoryCompliance,
	EventProofValidated: CategoryCompliance,
	EventProofConsumed:  CategoryCompliance,

	// Security events - feed into SIEM and alerting
	EventProofReplayed:      CategorySecurity,
	EventReentrancyRejected: CategorySecurity,
	EventUnauthorizedCall:   CategorySecurity,
	EventTreasuryPaused:     CategorySecurity,
	EventEmergencyWithdraw:  CategorySecurity,

	// Operations events - routine governance activity
	EventProposalCreated:     CategoryOperations,
	EventVoteCast:            CategoryOperations,
	EventProposalFinalized:   CategoryOperations,
	EventProposalExecuted:    CategoryOperations,
	EventProposalCancelled:   CategoryOperations,
	EventTokensMinted:        CategoryOperations,
	EventTokensBurned:        CategoryOperations,
	EventTokensMoved:         CategoryOperations,
	EventDelegateChanged:     CategoryOperations,
	EventFundsDeposited:      CategoryOperations,
	EventWithdrawalQueued:    CategoryOperations,
	EventWithdrawalExecuted:  CategoryOperations,
	EventWithdrawalCancelled: CategoryOperations,
	EventDelayUpdated:        CategoryOperations,
	EventTreasuryUnpaused:    CategoryOperations,
}

// Category returns the EventCategory for this governance event.
// Unknown events default to CategoryOperations.
func (e GovernanceEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Publisher is the emission side of the audit pipeline. Services hold a
// Publisher; the transport behind it (channel worker, Kafka, log) is wiring.
// Emit must never block domain logic for long; implementations buffer.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
