// Package sqlstore implements the store contracts on database/sql for the
// MySQL and PostgreSQL (pgx) drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mini-planner/apperr"
	"mini-planner/db"
	"mini-planner/store"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct {
	db      *sql.DB
	dialect db.Dialect
	timeout time.Duration
}

var _ store.Repository = (*Repo)(nil)

// New wraps an open pool. timeout bounds every statement; zero disables it.
func New(conn *sql.DB, dialect db.Dialect, timeout time.Duration) *Repo {
	return &Repo{db: conn, dialect: dialect, timeout: timeout}
}

func (r *Repo) Stores() store.Stores { return r.bind(r.db) }

func (r *Repo) Atomic(ctx context.Context, fn func(store.Stores) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.bind(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) bind(q querier) store.Stores {
	c := &conn{q: q, dialect: r.dialect, timeout: r.timeout}
	return store.Stores{
		Users:       &userStore{c: c},
		Lists:       newListStore(c),
		Tags:        newTagStore(c),
		StickyNotes: newStickyNoteStore(c),
		Tasks:       &taskStore{c: c},
	}
}

// conn rebinds placeholders and applies the statement timeout.
type conn struct {
	q       querier
	dialect db.Dialect
	timeout time.Duration
}

func (c *conn) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *conn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.q.ExecContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.dialect.Rebind(query), args...)
}

func (c *conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.dialect.Rebind(query), args...)
}

// duplicate converts a unique violation into apperr.DuplicateKey.
func (c *conn) duplicate(err error) error {
	fields, ok := c.dialect.DuplicateFields(err)
	if !ok {
		return err
	}
	if len(fields) == 0 {
		return apperr.Wrap(apperr.DuplicateKey, err)
	}
	return apperr.Duplicate(fields...)
}

// constraint converts unique and foreign key violations into their apperr
// kinds. A missing owner means the user was deleted under a live token.
func (c *conn) constraint(err error) error {
	if field, ok := c.dialect.MissingReference(err); ok {
		if field == "" {
			return apperr.Wrap(apperr.EntityNotFound, err)
		}
		return apperr.MissingRelation(field)
	}
	return c.duplicate(err)
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func newID() string { return uuid.NewString() }

func updated(affected int64) store.UpdateResult {
	return store.UpdateResult{Matched: affected, Modified: affected}
}

func deleted(affected int64) store.DeleteResult {
	return store.DeleteResult{Acknowledged: true, Deleted: affected}
}

type scanner interface {
	Scan(dest ...any) error
}

func (c *conn) window(skip, limit int) (string, []any) {
	if limit <= 0 {
		switch {
		case skip <= 0:
			return "", nil
		case c.dialect == db.Postgres:
			return " OFFSET ?", []any{skip}
		default:
			// mysql has no OFFSET without LIMIT
			return " LIMIT 18446744073709551615 OFFSET ?", []any{skip}
		}
	}
	return " LIMIT ? OFFSET ?", []any{limit, max(skip, 0)}
}
