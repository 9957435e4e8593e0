// Package updater applies the configured updates to every issue matched by
// the update query.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/substitute"
	"github.com/nhle/issue-updater/internal/tracker"
	"github.com/nhle/issue-updater/internal/version"
)

// MaxIssues is the largest number of issues updated by one run.
const MaxIssues = 10000

// Options controls a run.
type Options struct {
	Policy Policy

	// ResetFixedVersions replaces current fixed versions instead of
	// merging into them.
	ResetFixedVersions bool

	// CreateMissingVersions creates configured versions that do not exist.
	CreateMissingVersions bool

	// MaxIssues caps the result set. Zero means MaxIssues.
	MaxIssues int

	// DryRun is recorded on the report.
	DryRun bool
}

// Updater runs the update sequence against one tracker session.
type Updater struct {
	client tracker.Client
	opts   Options
	logger *slog.Logger
}

// New creates an Updater for client.
func New(client tracker.Client, opts Options, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = MaxIssues
	}
	return &Updater{client: client, opts: opts, logger: logger}
}

func (u *Updater) newReport() *model.Report {
	return &model.Report{
		ID:        uuid.New().String(),
		DryRun:    u.opts.DryRun,
		StartedAt: time.Now().UTC(),
	}
}

// Run resolves the templates, queries the tracker and updates each matched
// issue. The returned report is never nil.
func (u *Updater) Run(ctx context.Context, templates model.Templates, vars model.Variables) *model.Report {
	return u.run(ctx, u.newReport(), templates, vars)
}

func (u *Updater) run(ctx context.Context, report *model.Report, templates model.Templates, vars model.Variables) *model.Report {
	log := u.logger.With("run_id", report.ID)
	resolved := substitute.Resolve(templates, vars, log)
	report.Query = resolved.Query

	log.Info("searching issues", "query", resolved.Query)
	issues, err := u.client.FindIssues(ctx, resolved.Query, u.opts.MaxIssues+1)
	if err != nil {
		report.Record("", model.StepQuery, model.ResultFailed, err.Error())
		if ctx.Err() != nil {
			log.Error("run cancelled during the search", "query", resolved.Query, "error", err)
			return u.finish(log, report, model.RunCancelled, "run cancelled during the search")
		}
		log.Error("query failed", "query", resolved.Query, "error", err)
		return u.finish(log, report, model.RunQueryFailed, fmt.Sprintf("query failed: %v", err))
	}

	if len(issues) > u.opts.MaxIssues {
		log.Warn("query matched too many issues, truncating",
			"limit", u.opts.MaxIssues,
			"returned", len(issues),
		)
		issues = issues[:u.opts.MaxIssues]
		report.Truncated = true
	}
	report.IssueCount = len(issues)
	report.Record("", model.StepQuery, model.ResultOK, fmt.Sprintf("%d issues", len(issues)))

	if len(issues) == 0 {
		log.Info("query did not return any issues, nothing will be updated", "query", resolved.Query)
		return u.finish(log, report, model.RunEmpty, "query did not return any issues")
	}

	resolver := version.NewResolver(u.client, version.NewCache(), u.opts.CreateMissingVersions, log)

	for i, issue := range issues {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled, remaining issues skipped", "remaining", len(issues)-i, "error", err)
			for _, rest := range issues[i:] {
				report.Record(rest.Key, model.StepIssue, model.ResultSkipped, "run cancelled")
			}
			return u.finish(log, report, model.RunCancelled,
				fmt.Sprintf("run cancelled, %d of %d issues skipped", len(issues)-i, len(issues)))
		}
		u.updateIssue(ctx, log, report, resolver, resolved, issue)
	}

	return u.finish(log, report, model.RunCompleted, "")
}

func (u *Updater) finish(log *slog.Logger, report *model.Report, status model.RunStatus, message string) *model.Report {
	report.Status = status
	report.Succeeded = u.opts.Policy.Succeeded(status)
	report.Message = message
	report.FinishedAt = time.Now().UTC()

	attrs := []any{
		"status", status,
		"succeeded", report.Succeeded,
		"issues", report.IssueCount,
		"failed_steps", report.Count(model.ResultFailed),
	}
	if report.Succeeded {
		log.Info("run finished", attrs...)
	} else {
		log.Error("run finished", attrs...)
	}
	return report
}

func (u *Updater) updateIssue(
	ctx context.Context,
	log *slog.Logger,
	report *model.Report,
	resolver *version.Resolver,
	r model.Resolved,
	issue model.Issue,
) {
	log = log.With("issue", issue.Key)
	log.Info("updating issue", "summary", issue.Summary)

	if name := strings.TrimSpace(r.Transition); name != "" {
		u.step(log, report, issue.Key, model.StepTransition, u.transition(ctx, log, issue.Key, name))
	}

	if strings.TrimSpace(r.Comment) != "" {
		u.step(log, report, issue.Key, model.StepComment, u.client.AddComment(ctx, issue.Key, r.Comment))
	}

	if field := strings.TrimSpace(r.CustomFieldID); field != "" {
		u.step(log, report, issue.Key, model.StepField, u.client.SetCustomField(ctx, issue.Key, field, r.CustomFieldValue))
	}

	if u.opts.ResetFixedVersions || len(r.VersionNames) > 0 {
		u.step(log, report, issue.Key, model.StepVersions, u.fixedVersions(ctx, log, resolver, r.VersionNames, issue))
	}
}

func (u *Updater) step(log *slog.Logger, report *model.Report, issueKey string, step model.StepKind, err error) {
	if err != nil {
		log.Error("update step failed", "step", step, "error", err)
		report.Record(issueKey, step, model.ResultFailed, err.Error())
		return
	}
	log.Debug("update step succeeded", "step", step)
	report.Record(issueKey, step, model.ResultOK, "")
}

// transition applies the first available transition whose name matches
// name case-insensitively.
func (u *Updater) transition(ctx context.Context, log *slog.Logger, issueKey, name string) error {
	available, err := u.client.Transitions(ctx, issueKey)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(available))
	for _, t := range available {
		if strings.EqualFold(strings.TrimSpace(t.Name), name) {
			log.Debug("applying transition", "transition", t.Name, "id", t.ID)
			return u.client.ApplyTransition(ctx, issueKey, t.ID)
		}
		names = append(names, t.Name)
	}

	return fmt.Errorf("%q for %s (available: %s): %w",
		name, issueKey, strings.Join(names, ", "), tracker.ErrTransitionNotAvailable)
}

// fixedVersions replaces the issue's fixed versions with the resolved ids,
// merged with the current ids unless ResetFixedVersions is set.
func (u *Updater) fixedVersions(
	ctx context.Context,
	log *slog.Logger,
	resolver *version.Resolver,
	names []string,
	issue model.Issue,
) error {
	var resolved []string
	if len(names) > 0 {
		if issue.ProjectKey == "" {
			log.Warn("issue has no project, versions not resolved", "versions", names)
		} else {
			resolved = resolver.Resolve(ctx, issue.ProjectKey, names)
		}
	}

	var ids []string
	if !u.opts.ResetFixedVersions {
		ids = mergeIDs(ids, issue.FixVersionIDs)
	}
	ids = mergeIDs(ids, resolved)

	log.Debug("replacing fixed versions", "ids", ids, "reset", u.opts.ResetFixedVersions)
	return u.client.ReplaceFixedVersions(ctx, issue.Key, ids)
}

// mergeIDs appends the ids in add that are not already in dst.
func mergeIDs(dst, add []string) []string {
	seen := make(map[string]bool, len(dst)+len(add))
	for _, id := range dst {
		seen[id] = true
	}
	for _, id := range add {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		dst = append(dst, id)
	}
	return dst
}

// Endpoint identifies the tracker account used by Execute.
type Endpoint struct {
	URL      string
	Username string
	Password string
}

// Execute connects through connector and runs the update. A connection
// failure ends the run before any query is made and is judged by
// Policy.FailOnConnectionError. With DryRun set, mutations are logged
// instead of sent.
func Execute(
	ctx context.Context,
	connector tracker.Connector,
	endpoint Endpoint,
	opts Options,
	templates model.Templates,
	vars model.Variables,
	logger *slog.Logger,
) *model.Report {
	u := New(nil, opts, logger)
	report := u.newReport()
	log := u.logger.With("run_id", report.ID)

	client, err := connector.Connect(ctx, endpoint.URL, endpoint.Username, endpoint.Password)
	if err != nil {
		report.Query = substitute.All(templates.Query, vars)
		report.Record("", model.StepConnect, model.ResultFailed, err.Error())
		if ctx.Err() != nil {
			log.Error("run cancelled while connecting", "url", endpoint.URL, "error", err)
			return u.finish(log, report, model.RunCancelled, "run cancelled while connecting")
		}
		if tracker.IsAuthError(err) {
			log.Error("authentication to the tracker failed", "url", endpoint.URL, "error", err)
		} else {
			log.Error("could not connect to the tracker", "url", endpoint.URL, "error", err)
		}
		if !u.opts.Policy.FailOnConnectionError {
			log.Warn("connection failure does not fail the build")
		}
		return u.finish(log, report, model.RunConnectionFailed, fmt.Sprintf("connection failed: %v", err))
	}
	report.Record("", model.StepConnect, model.ResultOK, "")

	if opts.DryRun {
		client = tracker.NewDryRun(client, log)
	}
	u.client = client

	return u.run(ctx, report, templates, vars)
}
