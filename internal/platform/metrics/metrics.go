package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the governance engine.
type Metrics struct {
	ProposalsCreated    prometheus.Counter
	VotesCast           *prometheus.CounterVec
	ProposalsFinalized  *prometheus.CounterVec
	ProposalsExecuted   prometheus.Counter
	ProofsSubmitted     *prometheus.CounterVec
	ProofReplays        prometheus.Counter
	WithdrawalsQueued   prometheus.Counter
	WithdrawalsExecuted prometheus.Counter
	ReentrancyRejected  prometheus.Counter
	ProofVerifyDuration prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ProposalsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkdao_proposals_created_total",
			Help: "Total number of proposals created",
		}),
		VotesCast: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkdao_votes_cast_total",
			Help: "Total number of votes cast, by choice",
		}, []string{"choice"}),
		ProposalsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkdao_proposals_finalized_total",
			Help: "Total number of proposals finalized, by outcome",
		}, []string{"outcome"}),
		ProposalsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkdao_proposals_executed_total",
			Help: "Total number of proposals executed",
		}),
		ProofsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkdao_proofs_submitted_total",
			Help: "Total number of membership proofs submitted, by result",
		}, []string{"result"}),
		ProofReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkdao_proof_replays_total",
			Help: "Total number of rejected proof replay attempts",
		}),
		WithdrawalsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkdao_withdrawals_queued_total",
			Help: "Total number of treasury withdrawals queued",
		}),
		WithdrawalsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkdao_withdrawals_executed_total",
			Help: "Total number of treasury withdrawals executed",
		}),
		ReentrancyRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkdao_reentrancy_rejected_total",
			Help: "Total number of calls rejected by the reentrancy guard",
		}),
		ProofVerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zkdao_proof_verify_duration_seconds",
			Help:    "Latency of proof verification",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
