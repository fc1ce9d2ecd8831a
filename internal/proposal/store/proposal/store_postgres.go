package proposal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/lib/pq"

	"zkdao/internal/proposal/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
	txcontext "zkdao/pkg/platform/tx"
)

// PostgresStore persists proposals, execution records, and vote records.
// Vote weights and call values are NUMERIC(78,0) text to cover the full
// 256-bit range.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) NextID(ctx context.Context) (domain.ProposalID, error) {
	var id uint64
	query := `SELECT nextval('proposal_ids')`
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate proposal id: %w", err)
	}
	return domain.ProposalID(id), nil
}

func (s *PostgresStore) Proposal(ctx context.Context, id domain.ProposalID) (*models.Proposal, error) {
	query := `
		SELECT proposer, title, description, start_time, end_time,
		       for_votes::text, against_votes::text, abstain_votes::text,
		       state, commitment, proof_hash
		FROM proposals
		WHERE id = $1
	`

	var (
		p                        = models.Proposal{ID: id}
		proposerStr              string
		forStr, againstStr       string
		abstainStr, stateStr     string
		commitment, proofHash    []byte
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uint64(id)).Scan(
		&proposerStr, &p.Title, &p.Description, &p.StartTime, &p.EndTime,
		&forStr, &againstStr, &abstainStr,
		&stateStr, &commitment, &proofHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query proposal: %w", err)
	}

	if p.Proposer, err = domain.ParseAddress(proposerStr); err != nil {
		return nil, fmt.Errorf("decode proposer: %w", err)
	}
	if p.ForVotes, err = decodeNumeric(forStr); err != nil {
		return nil, err
	}
	if p.AgainstVotes, err = decodeNumeric(againstStr); err != nil {
		return nil, err
	}
	if p.AbstainVotes, err = decodeNumeric(abstainStr); err != nil {
		return nil, err
	}
	p.State = models.ProposalState(stateStr)
	copy(p.Commitment[:], commitment)
	copy(p.ProofHash[:], proofHash)
	return &p, nil
}

func (s *PostgresStore) SaveProposal(ctx context.Context, p *models.Proposal) error {
	query := `
		INSERT INTO proposals (
			id, proposer, title, description, start_time, end_time,
			for_votes, against_votes, abstain_votes, state, commitment, proof_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9::numeric, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			for_votes = EXCLUDED.for_votes,
			against_votes = EXCLUDED.against_votes,
			abstain_votes = EXCLUDED.abstain_votes,
			state = EXCLUDED.state
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uint64(p.ID), p.Proposer.String(), p.Title, p.Description, p.StartTime, p.EndTime,
		p.ForVotes.String(), p.AgainstVotes.String(), p.AbstainVotes.String(),
		string(p.State), p.Commitment[:], p.ProofHash[:],
	)
	if err != nil {
		return fmt.Errorf("upsert proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) Execution(ctx context.Context, id domain.ProposalID) (*models.Execution, error) {
	query := `
		SELECT target, value::text, payload, executed, timelock_end
		FROM proposal_executions
		WHERE proposal_id = $1
	`

	var (
		e           = models.Execution{ProposalID: id}
		targetStr   string
		valueStr    string
		timelockEnd sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uint64(id)).Scan(
		&targetStr, &valueStr, &e.Payload, &e.Executed, &timelockEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query execution: %w", err)
	}

	if e.Target, err = domain.ParseAddress(targetStr); err != nil {
		return nil, fmt.Errorf("decode target: %w", err)
	}
	if e.Value, err = decodeNumeric(valueStr); err != nil {
		return nil, err
	}
	if timelockEnd.Valid {
		e.TimelockEnd = timelockEnd.Time
	}
	return &e, nil
}

func (s *PostgresStore) SaveExecution(ctx context.Context, e *models.Execution) error {
	var timelockEnd sql.NullTime
	if !e.TimelockEnd.IsZero() {
		timelockEnd = sql.NullTime{Time: e.TimelockEnd, Valid: true}
	}

	query := `
		INSERT INTO proposal_executions (proposal_id, target, value, payload, executed, timelock_end)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		ON CONFLICT (proposal_id) DO UPDATE SET
			executed = EXCLUDED.executed,
			timelock_end = EXCLUDED.timelock_end
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uint64(e.ProposalID), e.Target.String(), e.Value.String(), e.Payload, e.Executed, timelockEnd,
	)
	if err != nil {
		return fmt.Errorf("upsert execution: %w", err)
	}
	return nil
}

func (s *PostgresStore) VoteRecord(ctx context.Context, id domain.ProposalID, voter domain.Address) (*models.VoteRecord, error) {
	query := `
		SELECT choice, weight::text, proof_hash, cast_at
		FROM vote_records
		WHERE proposal_id = $1 AND voter = $2
	`

	var (
		v         = models.VoteRecord{ProposalID: id, Voter: voter}
		choiceStr string
		weightStr string
		proofHash []byte
		castAt    time.Time
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uint64(id), voter.String()).Scan(
		&choiceStr, &weightStr, &proofHash, &castAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query vote record: %w", err)
	}

	v.Choice = models.VoteChoice(choiceStr)
	if v.Weight, err = decodeNumeric(weightStr); err != nil {
		return nil, err
	}
	copy(v.ProofHash[:], proofHash)
	v.CastAt = castAt
	return &v, nil
}

// SaveVoteRecord is write-once: a duplicate (proposal, voter) insert trips
// the primary key and surfaces as sentinel.ErrConflict.
func (s *PostgresStore) SaveVoteRecord(ctx context.Context, v *models.VoteRecord) error {
	query := `
		INSERT INTO vote_records (proposal_id, voter, choice, weight, proof_hash, cast_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uint64(v.ProposalID), v.Voter.String(), string(v.Choice), v.Weight.String(), v.ProofHash[:], v.CastAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert vote record: %w", err)
	}
	return nil
}

// DeleteProposal removes a proposal together with its execution record and
// any vote records. Compensation path; callers run it inside the same
// transaction as the writes it unwinds.
func (s *PostgresStore) DeleteProposal(ctx context.Context, id domain.ProposalID) error {
	db := s.execer(ctx)
	if _, err := db.ExecContext(ctx, `DELETE FROM vote_records WHERE proposal_id = $1`, uint64(id)); err != nil {
		return fmt.Errorf("delete vote records: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM proposal_executions WHERE proposal_id = $1`, uint64(id)); err != nil {
		return fmt.Errorf("delete execution: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, uint64(id)); err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	return nil
}

// DeleteVoteRecord removes a single ballot. Compensation path.
func (s *PostgresStore) DeleteVoteRecord(ctx context.Context, id domain.ProposalID, voter domain.Address) error {
	query := `DELETE FROM vote_records WHERE proposal_id = $1 AND voter = $2`
	if _, err := s.execer(ctx).ExecContext(ctx, query, uint64(id), voter.String()); err != nil {
		return fmt.Errorf("delete vote record: %w", err)
	}
	return nil
}

func decodeNumeric(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("decode numeric %q", s)
	}
	return n, nil
}
