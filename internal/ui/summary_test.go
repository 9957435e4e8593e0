package ui_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/ui"
)

func sampleReport() *model.Report {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &model.Report{
		ID:         "run-1",
		Query:      "project=PROJ",
		Status:     model.RunCompleted,
		Succeeded:  true,
		IssueCount: 2,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
	r.Record("", model.StepConnect, model.ResultOK, "")
	r.Record("", model.StepQuery, model.ResultOK, "2 issues")
	r.Record("PROJ-1", model.StepTransition, model.ResultOK, "Resolve Issue")
	r.Record("PROJ-1", model.StepComment, model.ResultOK, "")
	r.Record("PROJ-2", model.StepTransition, model.ResultFailed, "transition not available")
	return r
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	out := ui.RenderReport(100, sampleReport())

	assert.Contains(t, out, "project=PROJ")
	assert.Contains(t, out, "PROJ-1")
	assert.Contains(t, out, "PROJ-2")
	assert.Contains(t, out, "transition not available")
	assert.Contains(t, out, "4 ok, 1 failed, 0 skipped")
	assert.Contains(t, out, "SUCCESS")
}

func TestRenderReport_Truncated(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Truncated = true
	r.Succeeded = false

	out := ui.RenderReport(100, r)

	assert.Contains(t, out, "2 (truncated)")
	assert.Contains(t, out, "FAILURE")
}

func TestRenderBanner(t *testing.T) {
	t.Parallel()

	out := ui.RenderBanner(80, "https://jira.example.com", true)

	assert.Contains(t, out, ui.BannerTitle)
	assert.Contains(t, out, "https://jira.example.com (dry run)")
}

func TestRenderRunList(t *testing.T) {
	t.Parallel()

	assert.Contains(t, ui.RenderRunList(nil), "No runs recorded.")

	out := ui.RenderRunList([]model.Report{*sampleReport()})
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "completed")
}
