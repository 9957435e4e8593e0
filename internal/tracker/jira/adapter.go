package jira

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nhle/issue-updater/internal/crossref"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker"
)

// searchFields are the Jira fields requested by FindIssues.
var searchFields = []string{"summary", "project", "fixVersions"}

// Adapter implements tracker.Client and tracker.VersionCreator for Jira
// Server/DC over REST API v2.
type Adapter struct {
	client *Client
	me     Myself
}

var (
	_ tracker.Client         = (*Adapter)(nil)
	_ tracker.VersionCreator = (*Adapter)(nil)
)

// NewAdapter creates a new Jira REST adapter without contacting the server.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Connector returns a tracker.Connector that opens REST sessions with the
// given per-request timeout.
func Connector(timeout time.Duration) tracker.Connector {
	return tracker.ConnectorFunc(func(ctx context.Context, endpoint, username, password string) (tracker.Client, error) {
		a := NewAdapter(NewClient(endpoint, username, password, timeout))
		if _, err := a.ValidateConnection(ctx); err != nil {
			return nil, err
		}
		return a, nil
	})
}

// ValidateConnection verifies credentials by calling GET /rest/api/2/myself.
// Returns the user's display name on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var me Myself
	if err := a.client.Get(ctx, "/myself", &me); err != nil {
		return "", fmt.Errorf("validating Jira connection: %w", err)
	}
	a.me = me
	if me.DisplayName != "" {
		return me.DisplayName, nil
	}
	return me.Name, nil
}

// FindIssues runs a JQL search and returns at most maxResults issues.
func (a *Adapter) FindIssues(ctx context.Context, query string, maxResults int) ([]model.Issue, error) {
	body := SearchRequest{
		JQL:        query,
		StartAt:    0,
		MaxResults: maxResults,
		Fields:     searchFields,
	}

	var searchResp SearchResponse
	if err := a.client.Post(ctx, "/search", body, &searchResp); err != nil {
		return nil, fmt.Errorf("searching Jira issues: %w", err)
	}

	issues := make([]model.Issue, 0, len(searchResp.Issues))
	for _, issue := range searchResp.Issues {
		issues = append(issues, toIssue(issue))
	}
	return issues, nil
}

// Transitions lists the transitions available for an issue.
func (a *Adapter) Transitions(ctx context.Context, issueKey string) ([]model.Transition, error) {
	var resp TransitionsResponse
	if err := a.client.Get(ctx, issuePath(issueKey, "/transitions"), &resp); err != nil {
		return nil, fmt.Errorf("listing transitions for %s: %w", issueKey, err)
	}

	transitions := make([]model.Transition, 0, len(resp.Transitions))
	for _, t := range resp.Transitions {
		transitions = append(transitions, model.Transition{ID: t.ID, Name: t.Name})
	}
	return transitions, nil
}

// ApplyTransition performs a status transition on a Jira issue.
func (a *Adapter) ApplyTransition(ctx context.Context, issueKey, transitionID string) error {
	payload := TransitionRequest{Transition: TransitionRef{ID: transitionID}}

	// Transition endpoint returns 204 No Content on success.
	if err := a.client.Post(ctx, issuePath(issueKey, "/transitions"), payload, nil); err != nil {
		return fmt.Errorf("transitioning %s: %w", issueKey, err)
	}
	return nil
}

// AddComment posts a new comment to a Jira issue.
func (a *Adapter) AddComment(ctx context.Context, issueKey, text string) error {
	var result Comment
	if err := a.client.Post(ctx, issuePath(issueKey, "/comment"), CommentRequest{Body: text}, &result); err != nil {
		return fmt.Errorf("commenting on %s: %w", issueKey, err)
	}
	return nil
}

// SetCustomField sets a single field on a Jira issue to a string value.
func (a *Adapter) SetCustomField(ctx context.Context, issueKey, fieldID, value string) error {
	payload := UpdateRequest{Fields: map[string]interface{}{fieldID: value}}
	if err := a.client.Put(ctx, issuePath(issueKey, ""), payload, nil); err != nil {
		return fmt.Errorf("setting %s on %s: %w", fieldID, issueKey, err)
	}
	return nil
}

// Versions returns every version defined in a project.
func (a *Adapter) Versions(ctx context.Context, projectKey string) ([]model.Version, error) {
	var resp []Version
	path := "/project/" + url.PathEscape(projectKey) + "/versions"
	if err := a.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", projectKey, err)
	}

	versions := make([]model.Version, 0, len(resp))
	for _, v := range resp {
		versions = append(versions, toVersion(v))
	}
	return versions, nil
}

// CreateVersion adds a version to a project's catalog.
func (a *Adapter) CreateVersion(ctx context.Context, projectKey, name string) (model.Version, error) {
	var created Version
	body := CreateVersionRequest{Name: name, Project: projectKey}
	if err := a.client.Post(ctx, "/version", body, &created); err != nil {
		return model.Version{}, fmt.Errorf("creating version %q in %s: %w", name, projectKey, err)
	}
	return toVersion(created), nil
}

// ReplaceFixedVersions sets the fixVersions field to exactly ids.
func (a *Adapter) ReplaceFixedVersions(ctx context.Context, issueKey string, ids []string) error {
	refs := make([]VersionRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, VersionRef{ID: id})
	}

	payload := UpdateRequest{Fields: map[string]interface{}{"fixVersions": refs}}
	if err := a.client.Put(ctx, issuePath(issueKey, ""), payload, nil); err != nil {
		return fmt.Errorf("updating fix versions of %s: %w", issueKey, err)
	}
	return nil
}

func issuePath(issueKey, suffix string) string {
	return "/issue/" + url.PathEscape(issueKey) + suffix
}

// toIssue converts a Jira Issue to a model.Issue. The project key falls
// back to the prefix of the issue key when the project field is absent.
func toIssue(issue Issue) model.Issue {
	projectKey := ""
	if issue.Fields.Project != nil {
		projectKey = issue.Fields.Project.Key
	}
	if projectKey == "" {
		projectKey = crossref.ProjectKey(issue.Key)
	}

	var ids []string
	for _, v := range issue.Fields.FixVersions {
		if v.ID != "" {
			ids = append(ids, v.ID)
		}
	}

	return model.Issue{
		Key:           issue.Key,
		Summary:       issue.Fields.Summary,
		ProjectKey:    projectKey,
		FixVersionIDs: ids,
	}
}

func toVersion(v Version) model.Version {
	return model.Version{
		ID:       v.ID,
		Name:     v.Name,
		Archived: v.Archived,
		Released: v.Released,
	}
}
