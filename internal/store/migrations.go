package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL CHECK(status IN ('completed', 'connection_failed', 'query_failed', 'empty')),
	succeeded   INTEGER NOT NULL DEFAULT 0 CHECK(succeeded IN (0, 1)),
	issue_count INTEGER NOT NULL DEFAULT 0,
	truncated   INTEGER NOT NULL DEFAULT 0 CHECK(truncated IN (0, 1)),
	message     TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_steps (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	issue_key TEXT NOT NULL DEFAULT '',
	step      TEXT NOT NULL,
	result    TEXT NOT NULL CHECK(result IN ('ok', 'failed', 'skipped')),
	message   TEXT NOT NULL DEFAULT '',
	UNIQUE(run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_steps_run_id ON run_steps(run_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE runs ADD COLUMN dry_run INTEGER NOT NULL DEFAULT 0 CHECK(dry_run IN (0, 1));

CREATE INDEX IF NOT EXISTS idx_run_steps_issue_key ON run_steps(issue_key);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		// Rebuilds runs to admit the cancelled status. Foreign keys are off
		// while the table is swapped so run_steps rows survive the drop.
		version: 3,
		sql: `
PRAGMA foreign_keys = OFF;

CREATE TABLE runs_new (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL CHECK(status IN ('completed', 'connection_failed', 'query_failed', 'empty', 'cancelled')),
	succeeded   INTEGER NOT NULL DEFAULT 0 CHECK(succeeded IN (0, 1)),
	issue_count INTEGER NOT NULL DEFAULT 0,
	truncated   INTEGER NOT NULL DEFAULT 0 CHECK(truncated IN (0, 1)),
	message     TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	dry_run     INTEGER NOT NULL DEFAULT 0 CHECK(dry_run IN (0, 1))
);

INSERT INTO runs_new (id, query, status, succeeded, issue_count, truncated, message, started_at, finished_at, dry_run)
SELECT id, query, status, succeeded, issue_count, truncated, message, started_at, finished_at, dry_run FROM runs;

DROP TABLE runs;
ALTER TABLE runs_new RENAME TO runs;

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

PRAGMA foreign_keys = ON;

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
