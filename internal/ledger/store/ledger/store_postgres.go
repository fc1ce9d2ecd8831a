package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"zkdao/internal/ledger/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
	txcontext "zkdao/pkg/platform/tx"
)

// supplyKey is the reserved history owner for total-supply checkpoints.
const supplyKey = "supply"

// PostgresStore persists accounts and checkpoint histories. Balances and
// votes are stored as NUMERIC(78,0) text to cover the full 256-bit range.
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

func (s *PostgresStore) Account(ctx context.Context, addr domain.Address) (*models.Account, error) {
	query := `SELECT balance::text, delegate FROM ledger_accounts WHERE address = $1`

	var balanceStr, delegateStr string
	err := s.execer(ctx).QueryRowContext(ctx, query, addr.String()).Scan(&balanceStr, &delegateStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}

	balance, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok {
		return nil, fmt.Errorf("decode balance %q", balanceStr)
	}

	a := &models.Account{Address: addr, Balance: balance}
	if delegateStr != "" {
		if a.Delegate, err = domain.ParseAddress(delegateStr); err != nil {
			return nil, fmt.Errorf("decode delegate: %w", err)
		}
	}
	return a, nil
}

func (s *PostgresStore) SaveAccount(ctx context.Context, a *models.Account) error {
	delegateStr := ""
	if !a.Delegate.IsZero() {
		delegateStr = a.Delegate.String()
	}

	query := `
		INSERT INTO ledger_accounts (address, balance, delegate)
		VALUES ($1, $2::numeric, $3)
		ON CONFLICT (address) DO UPDATE SET
			balance = EXCLUDED.balance,
			delegate = EXCLUDED.delegate
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, a.Address.String(), a.Balance.String(), delegateStr); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Checkpoints(ctx context.Context, addr domain.Address) ([]models.Checkpoint, error) {
	return s.checkpoints(ctx, addr.String())
}

func (s *PostgresStore) WriteCheckpoint(ctx context.Context, addr domain.Address, cp models.Checkpoint) error {
	return s.writeCheckpoint(ctx, addr.String(), cp)
}

func (s *PostgresStore) SupplyCheckpoints(ctx context.Context) ([]models.Checkpoint, error) {
	return s.checkpoints(ctx, supplyKey)
}

func (s *PostgresStore) WriteSupplyCheckpoint(ctx context.Context, cp models.Checkpoint) error {
	return s.writeCheckpoint(ctx, supplyKey, cp)
}

func (s *PostgresStore) LastMint(ctx context.Context) (time.Time, error) {
	query := `SELECT last_mint FROM ledger_mint_state WHERE singleton`

	var t time.Time
	err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, sentinel.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query mint state: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) SaveLastMint(ctx context.Context, t time.Time) error {
	query := `
		INSERT INTO ledger_mint_state (singleton, last_mint)
		VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET last_mint = EXCLUDED.last_mint
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("upsert mint state: %w", err)
	}
	return nil
}

func (s *PostgresStore) checkpoints(ctx context.Context, owner string) ([]models.Checkpoint, error) {
	query := `
		SELECT ts, votes::text
		FROM ledger_checkpoints
		WHERE owner = $1
		ORDER BY ts ASC
	`

	rows, err := s.execer(ctx).QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	var history []models.Checkpoint
	for rows.Next() {
		var (
			ts       time.Time
			votesStr string
		)
		if err := rows.Scan(&ts, &votesStr); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		votes, ok := new(big.Int).SetString(votesStr, 10)
		if !ok {
			return nil, fmt.Errorf("decode votes %q", votesStr)
		}
		history = append(history, models.Checkpoint{Timestamp: ts, Votes: votes})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return history, nil
}

// writeCheckpoint relies on the (owner, ts) primary key: an insert at the
// latest timestamp becomes an in-place votes update. The strictly-increasing
// timestamp invariant is enforced against the newest row.
func (s *PostgresStore) writeCheckpoint(ctx context.Context, owner string, cp models.Checkpoint) error {
	var latest sql.NullTime
	latestQuery := `SELECT MAX(ts) FROM ledger_checkpoints WHERE owner = $1`
	if err := s.execer(ctx).QueryRowContext(ctx, latestQuery, owner).Scan(&latest); err != nil {
		return fmt.Errorf("query latest checkpoint: %w", err)
	}
	if latest.Valid && cp.Timestamp.Before(latest.Time) {
		return sentinel.ErrInvalidState
	}

	query := `
		INSERT INTO ledger_checkpoints (owner, ts, votes)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (owner, ts) DO UPDATE SET votes = EXCLUDED.votes
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, owner, cp.Timestamp, cp.Votes.String()); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
