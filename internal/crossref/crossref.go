package crossref

import (
	"regexp"
	"strings"
)

// issueKeyPattern matches Jira issue keys (e.g., PROJ-123, ABC-1).
var issueKeyPattern = regexp.MustCompile(`([A-Z][A-Z0-9_]+)-(\d+)`)

// ExtractIssueKeys extracts all issue key matches from text.
// Returns a deduplicated list preserving the order of first occurrence.
func ExtractIssueKeys(text string) []string {
	matches := issueKeyPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		result = append(result, m)
	}
	return result
}

// ProjectKey returns the project part of an issue key (ABC for ABC-12),
// or an empty string when key is not an issue key.
func ProjectKey(key string) string {
	key = strings.TrimSpace(key)
	m := issueKeyPattern.FindStringSubmatch(key)
	if m == nil || m[0] != key {
		return ""
	}
	return m[1]
}
