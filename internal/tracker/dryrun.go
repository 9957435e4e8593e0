package tracker

import (
	"context"
	"log/slog"

	"github.com/nhle/issue-updater/internal/model"
)

// DryRun wraps a Client so that reads reach the tracker while every
// mutation is logged and reported as successful without being sent.
type DryRun struct {
	next   Client
	logger *slog.Logger
}

// NewDryRun returns a dry-run decorator around next.
func NewDryRun(next Client, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{next: next, logger: logger.With("dry_run", true)}
}

func (d *DryRun) FindIssues(ctx context.Context, query string, maxResults int) ([]model.Issue, error) {
	return d.next.FindIssues(ctx, query, maxResults)
}

func (d *DryRun) Transitions(ctx context.Context, issueKey string) ([]model.Transition, error) {
	return d.next.Transitions(ctx, issueKey)
}

func (d *DryRun) Versions(ctx context.Context, projectKey string) ([]model.Version, error) {
	return d.next.Versions(ctx, projectKey)
}

func (d *DryRun) ApplyTransition(_ context.Context, issueKey, transitionID string) error {
	d.logger.Info("would apply transition", "issue", issueKey, "transition_id", transitionID)
	return nil
}

func (d *DryRun) AddComment(_ context.Context, issueKey, text string) error {
	d.logger.Info("would add comment", "issue", issueKey, "length", len(text))
	return nil
}

func (d *DryRun) SetCustomField(_ context.Context, issueKey, fieldID, value string) error {
	d.logger.Info("would set field", "issue", issueKey, "field", fieldID, "value", value)
	return nil
}

func (d *DryRun) ReplaceFixedVersions(_ context.Context, issueKey string, ids []string) error {
	d.logger.Info("would replace fixed versions", "issue", issueKey, "ids", ids)
	return nil
}

// CreateVersion logs the creation and returns a placeholder version whose
// id is empty, so it is never sent in a later mutation.
func (d *DryRun) CreateVersion(_ context.Context, projectKey, name string) (model.Version, error) {
	d.logger.Info("would create version", "project", projectKey, "name", name)
	return model.Version{Name: name}, nil
}
