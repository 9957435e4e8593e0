package jira

import (
	"sort"
	"strings"
)

// SearchRequest is the body of POST /rest/api/2/search.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

// SearchResponse is the response from POST /rest/api/2/search.
type SearchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Issue represents a single Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the issue fields requested by a search.
type IssueFields struct {
	Summary     string    `json:"summary"`
	Project     *Project  `json:"project,omitempty"`
	FixVersions []Version `json:"fixVersions,omitempty"`

	// Versions holds the affects versions when they are returned.
	Versions []Version `json:"versions,omitempty"`
}

// Project represents a Jira project.
type Project struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Version is a project version as returned inside issue fields and by
// GET /rest/api/2/project/{key}/versions.
type Version struct {
	Self        string `json:"self,omitempty"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Archived    bool   `json:"archived"`
	Released    bool   `json:"released"`
	ProjectID   int64  `json:"projectId,omitempty"`
}

// CreateVersionRequest is the body of POST /rest/api/2/version.
type CreateVersionRequest struct {
	Name    string `json:"name"`
	Project string `json:"project"`
}

// VersionRef references a version by id in an issue update.
type VersionRef struct {
	ID string `json:"id"`
}

// Transition represents a possible status transition for a Jira issue.
type Transition struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	To   TransitionTo `json:"to"`
}

// TransitionTo describes the target status of a transition.
type TransitionTo struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// TransitionsResponse wraps the list of transitions returned by the API.
type TransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// TransitionRequest is the body of POST /rest/api/2/issue/{key}/transitions.
type TransitionRequest struct {
	Transition TransitionRef `json:"transition"`
}

// TransitionRef references a transition by id.
type TransitionRef struct {
	ID string `json:"id"`
}

// CommentRequest is the body of POST /rest/api/2/issue/{key}/comment.
type CommentRequest struct {
	Body string `json:"body"`
}

// Comment represents a single comment on a Jira issue.
type Comment struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// UpdateRequest is the body of PUT /rest/api/2/issue/{key}.
type UpdateRequest struct {
	Fields map[string]interface{} `json:"fields"`
}

// Myself is the response from GET /rest/api/2/myself.
type Myself struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

// ErrorResponse is the standard Jira error response format.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// String joins the messages and field errors in a stable order.
func (e ErrorResponse) String() string {
	parts := append([]string(nil), e.ErrorMessages...)
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, field+": "+e.Errors[field])
	}
	return strings.Join(parts, "; ")
}
