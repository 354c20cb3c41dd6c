package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "pgx"
)

type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens and pings a pool for the given driver. MySQL DSNs are forced
// to parse DATETIME columns as UTC time.Time values.
func Connect(ctx context.Context, driver Dialect, dsn string, pool Pool) (*sql.DB, error) {
	switch driver {
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		dsn = cfg.FormatDSN()
	case Postgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	conn, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if pool.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return conn, nil
}

// Migrate creates the tables and indexes when they are missing.
func Migrate(ctx context.Context, conn *sql.DB, d Dialect) error {
	for _, stmt := range d.Schema() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

var uniqueFields = map[string]string{
	"uq_users_email":     "email",
	"uq_users_user_name": "userName",
}

// DuplicateFields reports whether err is a unique violation and, when the
// constraint is known, which input field caused it.
func (d Dialect) DuplicateFields(err error) ([]string, bool) {
	var constraint string

	var myErr *mysql.MySQLError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &myErr) && myErr.Number == 1062:
		constraint = myErr.Message
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		constraint = pgErr.ConstraintName
	default:
		return nil, false
	}

	var fields []string
	for name, field := range uniqueFields {
		if strings.Contains(constraint, name) {
			fields = append(fields, field)
		}
	}
	return fields, true
}

var referenceFields = map[string]string{
	"fk_tasks_list": "listID",
	"fk_tasks_tag":  "tagID",
}

// MissingReference reports whether err is a foreign key violation and which
// input field caused it. A vanished owner reports the empty field.
func (d Dialect) MissingReference(err error) (string, bool) {
	var constraint string

	var myErr *mysql.MySQLError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &myErr) && myErr.Number == 1452:
		constraint = myErr.Message
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		constraint = pgErr.ConstraintName
	default:
		return "", false
	}

	for name, field := range referenceFields {
		if strings.Contains(constraint, name) {
			return field, true
		}
	}
	return "", true
}

func (d Dialect) Schema() []string {
	if d == Postgres {
		return postgresSchema
	}
	return mysqlSchema
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) PRIMARY KEY,
		user_name VARCHAR(30) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		CONSTRAINT uq_users_email UNIQUE (email),
		CONSTRAINT uq_users_user_name UNIQUE (user_name)
	)`,
	`CREATE TABLE IF NOT EXISTS lists (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		heading VARCHAR(255) NOT NULL,
		color VARCHAR(7) NOT NULL DEFAULT '#dbdbdb',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_lists_owner (user_id, created_at, id),
		CONSTRAINT fk_lists_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		heading VARCHAR(255) NOT NULL,
		color VARCHAR(7) NOT NULL DEFAULT '#dbdbdb',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_tags_owner (user_id, created_at, id),
		CONSTRAINT fk_tags_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS sticky_notes (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		content TEXT NOT NULL,
		color VARCHAR(7) NOT NULL DEFAULT '#dbdbdb',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_sticky_notes_owner (user_id, created_at, id),
		CONSTRAINT fk_sticky_notes_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		heading VARCHAR(255) NOT NULL,
		description VARCHAR(2000) NOT NULL DEFAULT '',
		due_date DATETIME(6) NULL,
		list_id CHAR(36) NULL,
		tag_id CHAR(36) NULL,
		done BOOLEAN NOT NULL DEFAULT FALSE,
		sub_tasks TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_tasks_owner (user_id, created_at, id),
		INDEX idx_tasks_list (list_id),
		INDEX idx_tasks_tag (tag_id),
		CONSTRAINT fk_tasks_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_tasks_list FOREIGN KEY (list_id) REFERENCES lists (id) ON DELETE SET NULL,
		CONSTRAINT fk_tasks_tag FOREIGN KEY (tag_id) REFERENCES tags (id) ON DELETE SET NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) PRIMARY KEY,
		user_name VARCHAR(30) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMP(6) NOT NULL,
		updated_at TIMESTAMP(6) NOT NULL,
		CONSTRAINT uq_users_email UNIQUE (email),
		CONSTRAINT uq_users_user_name UNIQUE (user_name)
	)`,
	`CREATE TABLE IF NOT EXISTS lists (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		heading VARCHAR(255) NOT NULL,
		color VARCHAR(7) NOT NULL DEFAULT '#dbdbdb',
		created_at TIMESTAMP(6) NOT NULL,
		updated_at TIMESTAMP(6) NOT NULL,
		CONSTRAINT fk_lists_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lists_owner ON lists (user_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		heading VARCHAR(255) NOT NULL,
		color VARCHAR(7) NOT NULL DEFAULT '#dbdbdb',
		created_at TIMESTAMP(6) NOT NULL,
		updated_at TIMESTAMP(6) NOT NULL,
		CONSTRAINT fk_tags_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tags_owner ON tags (user_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS sticky_notes (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		content TEXT NOT NULL,
		color VARCHAR(7) NOT NULL DEFAULT '#dbdbdb',
		created_at TIMESTAMP(6) NOT NULL,
		updated_at TIMESTAMP(6) NOT NULL,
		CONSTRAINT fk_sticky_notes_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sticky_notes_owner ON sticky_notes (user_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		heading VARCHAR(255) NOT NULL,
		description VARCHAR(2000) NOT NULL DEFAULT '',
		due_date TIMESTAMP(6) NULL,
		list_id CHAR(36) NULL,
		tag_id CHAR(36) NULL,
		done BOOLEAN NOT NULL DEFAULT FALSE,
		sub_tasks TEXT NOT NULL,
		created_at TIMESTAMP(6) NOT NULL,
		updated_at TIMESTAMP(6) NOT NULL,
		CONSTRAINT fk_tasks_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_tasks_list FOREIGN KEY (list_id) REFERENCES lists (id) ON DELETE SET NULL,
		CONSTRAINT fk_tasks_tag FOREIGN KEY (tag_id) REFERENCES tags (id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks (user_id, created_at, id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_list ON tasks (list_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_tag ON tasks (tag_id)`,
}
