package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"zkdao/internal/proofgate/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
	txcontext "zkdao/pkg/platform/tx"
)

// PostgresStore persists membership records and the verifier set.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context, addr domain.Address) (*models.Member, error) {
	query := `
		SELECT address, is_member, verified, commitment, proof_hash, verified_at, verification_type
		FROM members
		WHERE address = $1
	`

	var (
		m          models.Member
		address    string
		commitment []byte
		proofHash  []byte
		vtype      int16
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, addr.String()).Scan(
		&address, &m.IsMember, &m.Verified, &commitment, &proofHash, &m.VerifiedAt, &vtype,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query member: %w", err)
	}

	m.Address = addr
	m.Type = models.VerificationType(vtype)
	if m.Commitment, err = domain.Hash32FromBytes(commitment); err != nil {
		return nil, fmt.Errorf("decode commitment: %w", err)
	}
	if m.ProofHash, err = domain.Hash32FromBytes(proofHash); err != nil {
		return nil, fmt.Errorf("decode proof hash: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (address, is_member, verified, commitment, proof_hash, verified_at, verification_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO UPDATE SET
			is_member = EXCLUDED.is_member,
			verified = EXCLUDED.verified,
			commitment = EXCLUDED.commitment,
			proof_hash = EXCLUDED.proof_hash,
			verified_at = EXCLUDED.verified_at,
			verification_type = EXCLUDED.verification_type
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		m.Address.String(),
		m.IsMember,
		m.Verified,
		m.Commitment[:],
		m.ProofHash[:],
		m.VerifiedAt,
		int16(m.Type),
	)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddVerifier(ctx context.Context, addr domain.Address) error {
	query := `
		INSERT INTO verifiers (address)
		VALUES ($1)
		ON CONFLICT (address) DO NOTHING
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, addr.String()); err != nil {
		return fmt.Errorf("insert verifier: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsVerifier(ctx context.Context, addr domain.Address) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM verifiers WHERE address = $1)`

	var exists bool
	if err := s.execer(ctx).QueryRowContext(ctx, query, addr.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("query verifier: %w", err)
	}
	return exists, nil
}
