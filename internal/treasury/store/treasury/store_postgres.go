package treasury

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"zkdao/internal/treasury/models"
	"zkdao/pkg/domain"
	"zkdao/pkg/platform/sentinel"
	txcontext "zkdao/pkg/platform/tx"
)

// PostgresStore persists the treasury balance and withdrawal queue. Amounts
// are NUMERIC(78,0) text to cover the full 256-bit range. The balance lives
// in a single-row table seeded by the migration.
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

func (s *PostgresStore) NextID(ctx context.Context) (domain.WithdrawalID, error) {
	var id uint64
	query := `SELECT nextval('withdrawal_ids')`
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate withdrawal id: %w", err)
	}
	return domain.WithdrawalID(id), nil
}

func (s *PostgresStore) Withdrawal(ctx context.Context, id domain.WithdrawalID) (*models.Withdrawal, error) {
	query := `
		SELECT recipient, amount::text, queued_at, unlock_time, executed, cancelled
		FROM treasury_withdrawals
		WHERE id = $1
	`

	var (
		w            = models.Withdrawal{ID: id}
		recipientStr string
		amountStr    string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uint64(id)).Scan(
		&recipientStr, &amountStr, &w.QueuedAt, &w.UnlockTime, &w.Executed, &w.Cancelled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query withdrawal: %w", err)
	}

	if w.Recipient, err = domain.ParseAddress(recipientStr); err != nil {
		return nil, fmt.Errorf("decode recipient: %w", err)
	}
	if w.Amount, err = decodeNumeric(amountStr); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresStore) SaveWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	query := `
		INSERT INTO treasury_withdrawals (id, recipient, amount, queued_at, unlock_time, executed, cancelled)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			executed = EXCLUDED.executed,
			cancelled = EXCLUDED.cancelled
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uint64(w.ID), w.Recipient.String(), w.Amount.String(), w.QueuedAt, w.UnlockTime, w.Executed, w.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("upsert withdrawal: %w", err)
	}
	return nil
}

func (s *PostgresStore) PendingWithdrawals(ctx context.Context) ([]*models.Withdrawal, error) {
	query := `
		SELECT id, recipient, amount::text, queued_at, unlock_time
		FROM treasury_withdrawals
		WHERE NOT executed AND NOT cancelled
		ORDER BY id ASC
	`

	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending withdrawals: %w", err)
	}
	defer rows.Close()

	var pending []*models.Withdrawal
	for rows.Next() {
		var (
			w            models.Withdrawal
			id           uint64
			recipientStr string
			amountStr    string
		)
		if err := rows.Scan(&id, &recipientStr, &amountStr, &w.QueuedAt, &w.UnlockTime); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		w.ID = domain.WithdrawalID(id)
		if w.Recipient, err = domain.ParseAddress(recipientStr); err != nil {
			return nil, fmt.Errorf("decode recipient: %w", err)
		}
		if w.Amount, err = decodeNumeric(amountStr); err != nil {
			return nil, err
		}
		pending = append(pending, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawals: %w", err)
	}
	return pending, nil
}

func (s *PostgresStore) Balance(ctx context.Context) (*big.Int, error) {
	var balanceStr string
	query := `SELECT balance::text FROM treasury_balance WHERE singleton`
	err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	return decodeNumeric(balanceStr)
}

func (s *PostgresStore) SaveBalance(ctx context.Context, balance *big.Int) error {
	query := `
		INSERT INTO treasury_balance (singleton, balance)
		VALUES (TRUE, $1::numeric)
		ON CONFLICT (singleton) DO UPDATE SET balance = EXCLUDED.balance
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, balance.String()); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
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
