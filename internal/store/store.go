// Package store persists the history of documentation runs in SQLite or
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/julianshen/componentdoc/internal/errors"
)

// RunRecord is one finished run.
type RunRecord struct {
	ID          string    `json:"id"`
	Input       string    `json:"input"`
	Component   string    `json:"component,omitempty"`
	Status      string    `json:"status"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	ReadmeURL   string    `json:"readme_url,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store wraps the run history database.
type Store struct {
	db       *sql.DB
	postgres bool
}

// IsPostgresDSN reports whether dsn selects the PostgreSQL driver.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// NewStore opens (or creates) the history database. A postgres:// or
// postgresql:// DSN uses PostgreSQL; anything else is a SQLite path, with
// ":memory:" for an in-memory database.
func NewStore(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("history dsn is empty")
	}

	driver := "sqlite"
	if IsPostgresDSN(dsn) {
		driver = "pgx"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if driver == "sqlite" {
		// one connection keeps ":memory:" a single database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, postgres: driver == "pgx"}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create tables")
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			input        TEXT NOT NULL,
			component    TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL,
			failed_stage TEXT NOT NULL DEFAULT '',
			error        TEXT NOT NULL DEFAULT '',
			readme_url   TEXT NOT NULL DEFAULT '',
			started_at   BIGINT NOT NULL,
			finished_at  BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "exec %q", stmt[:30])
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RecordRun inserts rec, replacing an earlier record with the same ID.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		return errors.New("run id is required")
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO runs (id, input, component, status, failed_stage, error, readme_url, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   input = excluded.input, component = excluded.component, status = excluded.status,
		   failed_stage = excluded.failed_stage, error = excluded.error, readme_url = excluded.readme_url,
		   started_at = excluded.started_at, finished_at = excluded.finished_at`),
		rec.ID, rec.Input, rec.Component, rec.Status, rec.FailedStage, rec.Error, rec.ReadmeURL,
		rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return errors.Wrap(err, "record run")
	}
	return nil
}

const selectRuns = `SELECT id, input, component, status, failed_stage, error, readme_url, started_at, finished_at FROM runs`

// GetRun retrieves a run by ID. Returns nil if the run is not found.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectRuns+` WHERE id = ?`), id)
	if err != nil {
		return nil, errors.Wrap(err, "get run")
	}
	recs, err := scanRuns(rows)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := selectRuns + ` ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]RunRecord, error) {
	defer rows.Close()
	var recs []RunRecord
	for rows.Next() {
		var (
			r                 RunRecord
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &r.Input, &r.Component, &r.Status, &r.FailedStage, &r.Error, &r.ReadmeURL, &started, &finished); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
