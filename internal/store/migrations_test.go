package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/nhle/issue-updater/internal/model"
)

func TestMigrations_Sequential(t *testing.T) {
	t.Parallel()
	for i, m := range migrations {
		assert.Equal(t, i+1, m.version)
	}
}

func TestMigrations_CancelledStatusUpgradeKeepsSteps(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	require.NoError(t, err)
	for _, m := range migrations[:2] {
		_, err = db.Exec(m.sql)
		require.NoError(t, err)
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO runs (id, query, status, succeeded, started_at, finished_at)
		VALUES ('old', 'project = ABC', 'completed', 1, ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO run_steps (run_id, seq, issue_key, step, result, message)
		VALUES ('old', 0, 'ABC-1', 'comment', 'ok', '')`)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO runs (id, status, started_at, finished_at) VALUES ('x', 'cancelled', ?, ?)", now, now)
	require.Error(t, err, "v2 schema rejects the cancelled status")
	require.NoError(t, db.Close())

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	got, err := s.GetRunByID(ctx, "old")
	require.NoError(t, err)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "ABC-1", got.Steps[0].IssueKey)

	require.NoError(t, s.RecordRun(ctx, &model.Report{ID: "new", Status: model.RunCancelled}))
	got, err = s.GetRunByID(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, model.RunCancelled, got.Status)
}
