package tx

import (
	"context"
	"database/sql"
	"time"
)

// defaultRunnerTimeout bounds a transaction that arrives without a deadline.
const defaultRunnerTimeout = 5 * time.Second

// Runner provides the transactional boundary for multi-write mutations.
// Services run every write sequence of an entry point through a Runner so
// that a late failure cannot strand a partial commit.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// SQLRunner executes fn inside a database transaction carried through the
// context. Store methods that resolve their executor via From participate
// automatically, so writes across stores sharing the database commit or
// roll back as one unit.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultRunnerTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Passthrough satisfies Runner for the in-memory deployment, where the
// owning service's mutex is the transaction boundary and store writes are
// individually atomic.
type Passthrough struct{}

func (Passthrough) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
