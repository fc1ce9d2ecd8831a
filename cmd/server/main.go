package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"zkdao/internal/jwttoken"
	ledgerHandler "zkdao/internal/ledger/handler"
	ledgerModels "zkdao/internal/ledger/models"
	ledgerService "zkdao/internal/ledger/service"
	ledgerStore "zkdao/internal/ledger/store/ledger"
	"zkdao/internal/platform/config"
	"zkdao/internal/platform/httpserver"
	"zkdao/internal/platform/logger"
	"zkdao/internal/platform/metrics"
	platformPostgres "zkdao/internal/platform/postgres"
	platformRedis "zkdao/internal/platform/redis"
	proofgateHandler "zkdao/internal/proofgate/handler"
	proofgateModels "zkdao/internal/proofgate/models"
	proofgateService "zkdao/internal/proofgate/service"
	memberStore "zkdao/internal/proofgate/store/member"
	proofStore "zkdao/internal/proofgate/store/proofs"
	"zkdao/internal/proofgate/verifier"
	proposalHandler "zkdao/internal/proposal/handler"
	proposalService "zkdao/internal/proposal/service"
	proposalStore "zkdao/internal/proposal/store/proposal"
	httptransport "zkdao/internal/transport/http"
	treasuryHandler "zkdao/internal/treasury/handler"
	treasuryService "zkdao/internal/treasury/service"
	treasuryStore "zkdao/internal/treasury/store/treasury"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/audit"
	"zkdao/pkg/platform/audit/publisher"
	auditMemory "zkdao/pkg/platform/audit/store/memory"
	auditPostgres "zkdao/pkg/platform/audit/store/postgres"
	auditWorker "zkdao/pkg/platform/audit/worker"
	txcontext "zkdao/pkg/platform/tx"
)

const auditBufferSize = 256

// main wires stores, services, and the HTTP surface, then runs the server
// until a shutdown signal. Business logic lives in the internal services.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := domain.ParseAddress(strings.TrimSpace(cfg.Governance.Owner))
	if err != nil {
		return fmt.Errorf("ZKDAO_OWNER_ADDRESS must be a non-zero address: %w", err)
	}
	if owner.IsZero() {
		return errors.New("ZKDAO_OWNER_ADDRESS must be a non-zero address")
	}

	g, ctx := errgroup.WithContext(ctx)

	// Persistent backends are optional: an empty DSN or Redis URL keeps the
	// corresponding stores in memory for development.
	var (
		members    proofgateService.MemberStore
		proofs     proofgateService.ProofRegistry
		ledgers    ledgerService.Store
		proposals  proposalService.Store
		treasuries treasuryService.Store
		auditSink  audit.Store
	)
	// In-memory stores rely on each service's mutex as the write boundary;
	// Postgres swaps in a real transaction runner below.
	var runner txcontext.Runner = txcontext.Passthrough{}

	if cfg.Postgres.DSN != "" {
		db, err := platformPostgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		members = memberStore.NewPostgres(db)
		ledgers = ledgerStore.NewPostgres(db)
		proposals = proposalStore.NewPostgres(db)
		treasuries = treasuryStore.NewPostgres(db)
		auditSink = auditPostgres.New(db)
		runner = txcontext.NewSQLRunner(db)
	} else {
		members = memberStore.New()
		ledgers = ledgerStore.New()
		proposals = proposalStore.New()
		treasuries = treasuryStore.New()
		auditSink = auditMemory.NewInMemoryStore()
	}

	if cfg.Redis.URL != "" {
		client, err := platformRedis.New(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		proofs = proofStore.NewRedis(client.Client)
	} else {
		proofs = proofStore.New()
	}

	// Audit pipeline. Kafka when brokers are configured; otherwise events go
	// through the buffered worker into the audit store.
	var auditPub audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := publisher.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kafkaPub.Close(closeCtx)
		}()
		auditPub = kafkaPub
	} else {
		events := make(chan audit.Event, auditBufferSize)
		auditPub = auditWorker.NewChanPublisher(events, log)
		w := auditWorker.NewWorker(auditSink, events, log)
		g.Go(func() error {
			if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	m := metrics.New()

	oracle := verifier.NewNoirVerifier()
	if cfg.VerificationKey != "" {
		keyBytes, err := hex.DecodeString(strings.TrimPrefix(cfg.VerificationKey, "0x"))
		if err != nil {
			return fmt.Errorf("decode verification key: %w", err)
		}
		if err := oracle.RegisterVerificationKey(proofgateService.DefaultCircuit, keyBytes); err != nil {
			return fmt.Errorf("register verification key: %w", err)
		}
	} else {
		log.Warn("no verification key configured, proof submission is disabled")
	}

	policy, err := proofgateModels.ParsePolicy(cfg.Governance.PolicyFlags)
	if err != nil {
		return fmt.Errorf("ZKDAO_POLICY_FLAGS: %w", err)
	}

	gate, err := proofgateService.New(members, proofs, oracle, owner,
		proofgateService.WithLogger(log),
		proofgateService.WithAuditPublisher(auditPub),
		proofgateService.WithMetrics(m),
		proofgateService.WithPolicy(policy),
	)
	if err != nil {
		return fmt.Errorf("proofgate service: %w", err)
	}

	ledger, err := ledgerService.New(ledgers, owner,
		ledgerService.WithLogger(log),
		ledgerService.WithAuditPublisher(auditPub),
		ledgerService.WithTxRunner(runner),
	)
	if err != nil {
		return fmt.Errorf("ledger service: %w", err)
	}

	treasury, err := treasuryService.New(treasuries, owner,
		treasuryService.WithLogger(log),
		treasuryService.WithAuditPublisher(auditPub),
		treasuryService.WithMetrics(m),
		treasuryService.WithWithdrawalDelay(cfg.Governance.WithdrawalDelay),
		treasuryService.WithTxRunner(runner),
	)
	if err != nil {
		return fmt.Errorf("treasury service: %w", err)
	}

	// The treasury is both a domain service and the execution backend for
	// passed proposals.
	engine, err := proposalService.New(proposals, gate, ledger, treasury, owner,
		proposalService.WithLogger(log),
		proposalService.WithAuditPublisher(auditPub),
		proposalService.WithMetrics(m),
		proposalService.WithVotingPeriod(cfg.Governance.VotingPeriod),
		proposalService.WithQuorumThreshold(ledgerModels.WholeTokens(cfg.Governance.Quorum)),
		proposalService.WithExecutionDelay(cfg.Governance.ExecutionDelay),
		proposalService.WithProposalThreshold(ledgerModels.WholeTokens(cfg.Governance.ProposalThreshold)),
		proposalService.WithTxRunner(runner),
	)
	if err != nil {
		return fmt.Errorf("proposal service: %w", err)
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "zkdao", "zkdao-api")

	router := httptransport.NewRouter(httptransport.Config{
		TokenValidator: tokens,
		Logger:         log,
		Handlers: []httptransport.Registrar{
			proofgateHandler.New(gate, log),
			ledgerHandler.New(ledger, log),
			proposalHandler.New(engine, log),
			treasuryHandler.New(treasury, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting zkdao server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
