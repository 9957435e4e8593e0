package soap

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/issue-updater/internal/crossref"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker"
)

// fixVersionsField is the updateIssue field id for fixed versions.
const fixVersionsField = "fixVersions"

// Session is an authenticated jirasoapservice-v2 session. It implements
// tracker.Client and tracker.VersionCreator.
type Session struct {
	client *Client
	token  string
}

var (
	_ tracker.Client         = (*Session)(nil)
	_ tracker.VersionCreator = (*Session)(nil)
)

// Login authenticates and returns a session.
func Login(ctx context.Context, client *Client, username, password string) (*Session, error) {
	var resp loginResponse
	err := client.Call(ctx, "login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, fmt.Errorf("logging in to Jira: %w", err)
	}
	if resp.Token == "" {
		return nil, &tracker.AuthError{Endpoint: client.endpoint, Message: "login returned no session token"}
	}
	return &Session{client: client, token: resp.Token}, nil
}

// Connector returns a tracker.Connector that opens SOAP sessions.
func Connector(timeout time.Duration) tracker.Connector {
	return tracker.ConnectorFunc(func(ctx context.Context, endpoint, username, password string) (tracker.Client, error) {
		return Login(ctx, NewClient(endpoint, timeout), username, password)
	})
}

// FindIssues runs a JQL search and returns at most maxResults issues.
func (s *Session) FindIssues(ctx context.Context, query string, maxResults int) ([]model.Issue, error) {
	var resp searchResponse
	req := searchRequest{Token: s.token, JQL: query, MaxResults: maxResults}
	if err := s.client.Call(ctx, "getIssuesFromJqlSearch", req, &resp); err != nil {
		return nil, fmt.Errorf("searching Jira issues: %w", err)
	}

	issues := make([]model.Issue, 0, len(resp.Issues))
	for _, ri := range resp.Issues {
		issues = append(issues, toIssue(ri))
	}
	return issues, nil
}

// Transitions lists the workflow actions available for an issue.
func (s *Session) Transitions(ctx context.Context, issueKey string) ([]model.Transition, error) {
	var resp actionsResponse
	req := actionsRequest{Token: s.token, IssueKey: issueKey}
	if err := s.client.Call(ctx, "getAvailableActions", req, &resp); err != nil {
		return nil, fmt.Errorf("listing transitions for %s: %w", issueKey, err)
	}

	transitions := make([]model.Transition, 0, len(resp.Actions))
	for _, a := range resp.Actions {
		transitions = append(transitions, model.Transition{ID: a.ID, Name: a.Name})
	}
	return transitions, nil
}

// ApplyTransition progresses the issue through a workflow action.
func (s *Session) ApplyTransition(ctx context.Context, issueKey, transitionID string) error {
	req := progressRequest{Token: s.token, IssueKey: issueKey, ActionID: transitionID}
	if err := s.client.Call(ctx, "progressWorkflowAction", req, nil); err != nil {
		return fmt.Errorf("transitioning %s: %w", issueKey, err)
	}
	return nil
}

// AddComment posts a comment to an issue.
func (s *Session) AddComment(ctx context.Context, issueKey, text string) error {
	req := commentRequest{Token: s.token, IssueKey: issueKey, Comment: RemoteComment{Body: text}}
	if err := s.client.Call(ctx, "addComment", req, nil); err != nil {
		return fmt.Errorf("commenting on %s: %w", issueKey, err)
	}
	return nil
}

// SetCustomField sets a single field to a string value.
func (s *Session) SetCustomField(ctx context.Context, issueKey, fieldID, value string) error {
	return s.update(ctx, issueKey, RemoteFieldValue{ID: fieldID, Values: []string{value}})
}

// Versions returns every version defined in a project.
func (s *Session) Versions(ctx context.Context, projectKey string) ([]model.Version, error) {
	var resp versionsResponse
	req := versionsRequest{Token: s.token, ProjectKey: projectKey}
	if err := s.client.Call(ctx, "getVersions", req, &resp); err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", projectKey, err)
	}

	versions := make([]model.Version, 0, len(resp.Versions))
	for _, v := range resp.Versions {
		versions = append(versions, toVersion(v))
	}
	return versions, nil
}

// CreateVersion adds a version to a project.
func (s *Session) CreateVersion(ctx context.Context, projectKey, name string) (model.Version, error) {
	var resp addVersionResponse
	req := addVersionRequest{Token: s.token, ProjectKey: projectKey, Version: RemoteVersion{Name: name}}
	if err := s.client.Call(ctx, "addVersion", req, &resp); err != nil {
		return model.Version{}, fmt.Errorf("creating version %q in %s: %w", name, projectKey, err)
	}
	return toVersion(resp.Version), nil
}

// ReplaceFixedVersions sets the issue's fixed versions to exactly ids.
func (s *Session) ReplaceFixedVersions(ctx context.Context, issueKey string, ids []string) error {
	values := append([]string{}, ids...)
	return s.update(ctx, issueKey, RemoteFieldValue{ID: fixVersionsField, Values: values})
}

func (s *Session) update(ctx context.Context, issueKey string, field RemoteFieldValue) error {
	req := updateRequest{Token: s.token, IssueKey: issueKey, Fields: []RemoteFieldValue{field}}
	if err := s.client.Call(ctx, "updateIssue", req, nil); err != nil {
		return fmt.Errorf("updating %s on %s: %w", field.ID, issueKey, err)
	}
	return nil
}

func toIssue(ri RemoteIssue) model.Issue {
	projectKey := ri.Project
	if projectKey == "" {
		projectKey = crossref.ProjectKey(ri.Key)
	}

	var ids []string
	for _, v := range ri.FixVersions {
		if v.ID != "" {
			ids = append(ids, v.ID)
		}
	}

	return model.Issue{
		Key:           ri.Key,
		Summary:       ri.Summary,
		ProjectKey:    projectKey,
		FixVersionIDs: ids,
	}
}

func toVersion(v RemoteVersion) model.Version {
	return model.Version{
		ID:       v.ID,
		Name:     v.Name,
		Archived: v.Archived,
		Released: v.Released,
	}
}
