// Package substitute expands $NAME placeholders in update templates.
package substitute

import (
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/nhle/issue-updater/internal/model"
)

// VersionDelimiter separates names in the fixed-versions template.
const VersionDelimiter = ","

// Var replaces every literal occurrence of "$"+name in template with value.
// Neither name nor value is interpreted as a pattern.
func Var(template, name, value string) string {
	if template == "" || name == "" {
		return template
	}
	return strings.ReplaceAll(template, "$"+name, value)
}

// All applies Var once for every entry in vars, in ascending key order.
// Each entry sees the output of the previous one, so a value inserted by
// one entry can be rewritten by a later entry.
func All(template string, vars model.Variables) string {
	if template == "" {
		return template
	}
	for _, name := range sortedNames(vars) {
		template = Var(template, name, vars[name])
	}
	return template
}

// VersionNames expands the fixed-versions template and splits it into
// trimmed, non-empty names.
func VersionNames(template string, vars model.Variables) []string {
	expanded := strings.TrimSpace(All(strings.TrimSpace(template), vars))
	if expanded == "" {
		return nil
	}

	var names []string
	for _, part := range strings.Split(expanded, VersionDelimiter) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Resolve produces a fresh Resolved copy of t for one run. When a comment
// file is configured its contents become the comment body; if the file
// cannot be read the configured comment text is used instead.
func Resolve(t model.Templates, vars model.Variables, logger *slog.Logger) model.Resolved {
	if logger == nil {
		logger = slog.Default()
	}

	comment := t.Comment
	if t.CommentFile != "" {
		path := All(t.CommentFile, vars)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("comment file unreadable, using configured comment", "path", path, "error", err)
		} else {
			comment = string(data)
		}
	}

	r := model.Resolved{
		Query:            All(t.Query, vars),
		Transition:       All(t.Transition, vars),
		Comment:          All(comment, vars),
		CustomFieldID:    All(t.CustomFieldID, vars),
		CustomFieldValue: All(t.CustomFieldValue, vars),
		VersionNames:     VersionNames(t.FixedVersions, vars),
	}
	logger.Debug("resolved templates",
		"query", r.Query,
		"transition", r.Transition,
		"comment", r.Comment,
		"field", r.CustomFieldID,
		"versions", r.VersionNames,
	)
	return r
}

func sortedNames(vars model.Variables) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
