package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/theme"
)

// BannerTitle is printed at the top of every run.
const BannerTitle = "JIRA Update Build Step"

// RenderBanner renders the run banner with the target tracker URL.
func RenderBanner(width int, trackerURL string, dryRun bool) string {
	status := trackerURL
	if dryRun {
		status += " (dry run)"
	}
	return NewLayout(width, 0).RenderHeader(BannerTitle, status)
}

// RenderReport renders a finished run: an overview followed by one block
// per issue listing each step outcome.
func RenderReport(width int, r *model.Report) string {
	l := NewLayout(width, 0)

	var b strings.Builder
	b.WriteString(overview(r))

	if steps := runLevelSteps(r); len(steps) > 0 {
		b.WriteString("\n")
		for _, s := range steps {
			b.WriteString(stepLine(s))
		}
	}

	for _, key := range issueKeys(r) {
		b.WriteString("\n")
		b.WriteString(theme.IssueKeyStyle.Render(key))
		b.WriteString("\n")
		for _, s := range r.IssueSteps(key) {
			b.WriteString(stepLine(s))
		}
	}

	panel := theme.PanelStyle.Width(l.ContentWidth()).Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, panel, verdict(r))
}

// RenderRunList renders a compact table of past runs, newest first.
func RenderRunList(runs []model.Report) string {
	if len(runs) == 0 {
		return theme.HelpStyle.Render("No runs recorded.")
	}

	var b strings.Builder
	for _, r := range runs {
		mark := theme.ResultStyle(string(model.ResultOK)).Render("PASS")
		if !r.Succeeded {
			mark = theme.ResultStyle(string(model.ResultFailed)).Render("FAIL")
		}
		fmt.Fprintf(&b, "%s  %s  %-18s %4d issues  %s\n",
			mark,
			theme.LabelStyle.Render(r.StartedAt.Local().Format("2006-01-02 15:04")),
			r.Status,
			r.IssueCount,
			r.ID,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func overview(r *model.Report) string {
	rows := [][2]string{
		{"Query", r.Query},
		{"Status", string(r.Status)},
		{"Issues", issueCount(r)},
		{"Steps", fmt.Sprintf("%d ok, %d failed, %d skipped",
			r.Count(model.ResultOK), r.Count(model.ResultFailed), r.Count(model.ResultSkipped))},
		{"Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()},
	}
	if r.DryRun {
		rows = append(rows, [2]string{"Mode", "dry run"})
	}
	if r.Message != "" {
		rows = append(rows, [2]string{"Message", r.Message})
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", theme.LabelStyle.Width(10).Render(row[0]), row[1])
	}
	return b.String()
}

func issueCount(r *model.Report) string {
	if r.Truncated {
		return fmt.Sprintf("%d (truncated)", r.IssueCount)
	}
	return fmt.Sprintf("%d", r.IssueCount)
}

func stepLine(s model.StepOutcome) string {
	result := theme.ResultStyle(string(s.Result)).Width(8).Render(string(s.Result))
	line := fmt.Sprintf("  %s %-10s", result, s.Step)
	if s.Message != "" {
		line += " " + s.Message
	}
	return line + "\n"
}

func verdict(r *model.Report) string {
	if r.Succeeded {
		return theme.OutcomeStyle(true).Render("SUCCESS")
	}
	return theme.OutcomeStyle(false).Render("FAILURE")
}

// runLevelSteps returns the steps not tied to an issue (connect, query).
func runLevelSteps(r *model.Report) []model.StepOutcome {
	var steps []model.StepOutcome
	for _, s := range r.Steps {
		if s.IssueKey == "" {
			steps = append(steps, s)
		}
	}
	return steps
}

// issueKeys returns the distinct issue keys in first-seen order.
func issueKeys(r *model.Report) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range r.Steps {
		if s.IssueKey == "" || seen[s.IssueKey] {
			continue
		}
		seen[s.IssueKey] = true
		keys = append(keys, s.IssueKey)
	}
	return keys
}
