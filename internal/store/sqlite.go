package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/issue-updater/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordRun inserts a run and its steps in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.StartedAt.IsZero() {
		report.StartedAt = time.Now().UTC()
	}
	if report.FinishedAt.IsZero() {
		report.FinishedAt = report.StartedAt
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, query, status, succeeded, issue_count,
			truncated, dry_run, message, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Query, string(report.Status), boolToInt(report.Succeeded), report.IssueCount,
		boolToInt(report.Truncated), boolToInt(report.DryRun), report.Message,
		report.StartedAt.UTC(), report.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", report.ID, err)
	}

	if len(report.Steps) > 0 {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO run_steps (run_id, seq, issue_key, step, result, message)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing step statement: %w", err)
		}
		defer stmt.Close()

		for i, step := range report.Steps {
			_, err = stmt.ExecContext(ctx,
				report.ID, i, step.IssueKey, string(step.Step), string(step.Result), step.Message,
			)
			if err != nil {
				return fmt.Errorf("inserting step %d of run %s: %w", i, report.ID, err)
			}
		}
	}

	return tx.Commit()
}

const runColumns = `id, query, status, succeeded, issue_count, truncated,
	dry_run, message, started_at, finished_at`

// GetRuns retrieves runs matching the provided filter, newest first.
func (s *SQLiteStore) GetRuns(ctx context.Context, opts RunFilter) ([]model.Report, error) {
	var conditions []string
	var args []interface{}

	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*opts.Status))
	}
	if opts.Succeeded != nil {
		conditions = append(conditions, "succeeded = ?")
		args = append(args, boolToInt(*opts.Succeeded))
	}
	if len(opts.IssueKeys) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(opts.IssueKeys)), ", ")
		conditions = append(conditions,
			"id IN (SELECT run_id FROM run_steps WHERE issue_key IN ("+placeholders+"))")
		for _, key := range opts.IssueKeys {
			args = append(args, key)
		}
	}

	query := "SELECT " + runColumns + " FROM runs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC, id"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}

	var runs []model.Report
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	return runs, nil
}

// GetRunByID retrieves a single run with its steps.
func (s *SQLiteStore) GetRunByID(ctx context.Context, id string) (*model.Report, error) {
	var run model.Report
	err := s.db.GetContext(ctx, &run, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}

	err = s.db.SelectContext(ctx, &run.Steps, `
		SELECT issue_key, step, result, message
		FROM run_steps WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("getting steps of run %s: %w", id, err)
	}

	return &run, nil
}

// PruneRuns keeps the newest keep runs and deletes the rest. Steps are
// removed by the foreign key cascade.
func (s *SQLiteStore) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return result.RowsAffected()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
