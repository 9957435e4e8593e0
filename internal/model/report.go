package model

import "time"

// StepKind names one operation performed during a run.
type StepKind string

const (
	StepConnect    StepKind = "connect"
	StepQuery      StepKind = "query"
	StepTransition StepKind = "transition"
	StepComment    StepKind = "comment"
	StepField      StepKind = "field"
	StepVersions   StepKind = "versions"

	// StepIssue marks an issue that was not processed at all.
	StepIssue StepKind = "issue"
)

// StepResult is the outcome of a single step.
type StepResult string

const (
	ResultOK      StepResult = "ok"
	ResultFailed  StepResult = "failed"
	ResultSkipped StepResult = "skipped"
)

// RunStatus is the terminal state reached by a run.
type RunStatus string

const (
	RunCompleted        RunStatus = "completed"
	RunConnectionFailed RunStatus = "connection_failed"
	RunQueryFailed      RunStatus = "query_failed"
	RunEmpty            RunStatus = "empty"

	// RunCancelled marks a run interrupted before it finished. It always
	// fails the build.
	RunCancelled RunStatus = "cancelled"
)

// StepOutcome records what happened to one step, optionally for one issue.
type StepOutcome struct {
	IssueKey string     `json:"issue_key,omitempty" db:"issue_key"`
	Step     StepKind   `json:"step" db:"step"`
	Result   StepResult `json:"result" db:"result"`
	Message  string     `json:"message,omitempty" db:"message"`
}

// Report is the aggregated result of one orchestration run.
type Report struct {
	ID         string    `json:"id" db:"id"`
	Query      string    `json:"query" db:"query"`
	Status     RunStatus `json:"status" db:"status"`
	Succeeded  bool      `json:"succeeded" db:"succeeded"`
	IssueCount int       `json:"issue_count" db:"issue_count"`
	Truncated  bool      `json:"truncated" db:"truncated"`
	DryRun     bool      `json:"dry_run" db:"dry_run"`
	Message    string    `json:"message,omitempty" db:"message"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`

	Steps []StepOutcome `json:"steps,omitempty" db:"-"`
}

// Record appends a step outcome to the report.
func (r *Report) Record(issueKey string, step StepKind, result StepResult, message string) {
	r.Steps = append(r.Steps, StepOutcome{
		IssueKey: issueKey,
		Step:     step,
		Result:   result,
		Message:  message,
	})
}

// Count returns how many recorded steps ended with the given result.
func (r *Report) Count(result StepResult) int {
	n := 0
	for _, s := range r.Steps {
		if s.Result == result {
			n++
		}
	}
	return n
}

// IssueSteps returns the recorded steps for one issue in execution order.
func (r *Report) IssueSteps(issueKey string) []StepOutcome {
	var steps []StepOutcome
	for _, s := range r.Steps {
		if s.IssueKey == issueKey {
			steps = append(steps, s)
		}
	}
	return steps
}
