package store

import (
	"context"
	"errors"

	"github.com/nhle/issue-updater/internal/model"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunFilter controls filtering and pagination for run history queries.
type RunFilter struct {
	Status    *model.RunStatus // terminal status, or nil (all)
	Succeeded *bool            // outcome, or nil (all)
	IssueKeys []string         // runs that touched any of these issues
	Limit     int
	Offset    int
}

// Store defines the persistence interface for run history.
type Store interface {
	// RecordRun persists a finished run and its step outcomes. A report
	// without an id is assigned one.
	RecordRun(ctx context.Context, report *model.Report) error

	// GetRuns returns runs newest first, without their steps.
	GetRuns(ctx context.Context, filter RunFilter) ([]model.Report, error)

	// GetRunByID returns one run with its steps in execution order.
	GetRunByID(ctx context.Context, id string) (*model.Report, error)

	// PruneRuns deletes all but the newest keep runs and returns how many
	// were removed.
	PruneRuns(ctx context.Context, keep int) (int64, error)

	Close() error
}
