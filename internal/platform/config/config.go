// Package config assembles runtime configuration from the environment so
// main stays lean. Governance parameters deliberately have development
// defaults; production deployments override every ZKDAO_* variable.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// VerificationKey is the hex-encoded Noir verification key for the
	// membership circuit. Empty leaves the circuit unregistered and proof
	// submission disabled until one is provided.
	VerificationKey string

	Governance Governance
	Redis      RedisConfig
	Postgres   PostgresConfig
	Kafka      KafkaConfig
}

// Governance holds the protocol parameters fixed at startup.
type Governance struct {
	// Owner is the administrative address: it manages members, verifiers,
	// policy, governance parameters, and the treasury.
	Owner string
	// VotingPeriod is how long a proposal accepts votes after creation.
	VotingPeriod time.Duration
	// Quorum is the minimum total vote weight (in whole tokens) for a
	// proposal to pass.
	Quorum uint64
	// ExecutionDelay is the timelock between a proposal passing and
	// becoming executable.
	ExecutionDelay time.Duration
	// WithdrawalDelay is the initial treasury timelock.
	WithdrawalDelay time.Duration
	// ProposalThreshold is the minimum vote weight (in whole tokens)
	// required to create a proposal.
	ProposalThreshold uint64
	// PolicyFlags is the initial verification policy bitmask.
	PolicyFlags uint32
}

// RedisConfig holds connection settings for the proof replay registry.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the database connection settings. An empty DSN keeps
// the service on in-memory stores.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig holds audit stream settings. Empty brokers disable Kafka and
// route audit events to the structured log.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:            envOr("ZKDAO_ADDR", ":8080"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		VerificationKey: os.Getenv("ZKDAO_VERIFICATION_KEY"),
		Governance: Governance{
			Owner:             os.Getenv("ZKDAO_OWNER_ADDRESS"),
			VotingPeriod:      envDuration("ZKDAO_VOTING_PERIOD", 7*24*time.Hour),
			Quorum:            envUint("ZKDAO_QUORUM", 1000),
			ExecutionDelay:    envDuration("ZKDAO_EXECUTION_DELAY", 48*time.Hour),
			WithdrawalDelay:   envDuration("ZKDAO_WITHDRAWAL_DELAY", 24*time.Hour),
			ProposalThreshold: envUint("ZKDAO_PROPOSAL_THRESHOLD", 100),
			PolicyFlags:       uint32(envUint("ZKDAO_POLICY_FLAGS", 0)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     int(envUint("REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(envUint("REDIS_MIN_IDLE_CONNS", 2)),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    int(envUint("DATABASE_MAX_OPEN_CONNS", 25)),
			MaxIdleConns:    int(envUint("DATABASE_MAX_IDLE_CONNS", 5)),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   os.Getenv("KAFKA_AUDIT_TOPIC"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
