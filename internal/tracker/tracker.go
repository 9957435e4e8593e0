// Package tracker defines the contract between the update orchestrator and
// an issue tracker transport.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/issue-updater/internal/model"
)

// ErrTransitionNotAvailable is returned when the requested workflow
// transition is not reachable from an issue's current state.
var ErrTransitionNotAvailable = errors.New("transition not available")

// AuthError indicates that the tracker rejected the supplied credentials.
// It is returned by clients when a 401 response or login fault is received.
type AuthError struct {
	Endpoint string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Endpoint, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Client is an authenticated session with an issue tracker. A zero-result
// search returns an empty slice and a nil error.
type Client interface {
	// FindIssues runs a query and returns at most maxResults issues in
	// tracker order.
	FindIssues(ctx context.Context, query string, maxResults int) ([]model.Issue, error)

	// Transitions lists the workflow transitions available for an issue.
	Transitions(ctx context.Context, issueKey string) ([]model.Transition, error)

	ApplyTransition(ctx context.Context, issueKey, transitionID string) error

	AddComment(ctx context.Context, issueKey, text string) error

	SetCustomField(ctx context.Context, issueKey, fieldID, value string) error

	// Versions returns the full version catalog of a project.
	Versions(ctx context.Context, projectKey string) ([]model.Version, error)

	// ReplaceFixedVersions sets the issue's fixed versions to exactly ids.
	ReplaceFixedVersions(ctx context.Context, issueKey string, ids []string) error
}

// VersionCreator is implemented by clients that can add a version to a
// project's catalog.
type VersionCreator interface {
	CreateVersion(ctx context.Context, projectKey, name string) (model.Version, error)
}

// Connector opens a Client. Connect is called once per run; its failure is
// the run's connection error.
type Connector interface {
	Connect(ctx context.Context, endpoint, username, password string) (Client, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, endpoint, username, password string) (Client, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, endpoint, username, password string) (Client, error) {
	return f(ctx, endpoint, username, password)
}

// apiSuffixes are the service paths a user may have pasted into the URL.
var apiSuffixes = []string{
	"/rest/api/2",
	"/rest/api/latest",
	"/rpc/soap/jirasoapservice-v2",
}

// BaseURL normalises a configured tracker URL to the server root,
// stripping trailing slashes and any known API service path.
func BaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	for _, suffix := range apiSuffixes {
		if i := strings.Index(u, suffix); i >= 0 {
			u = u[:i]
			break
		}
	}
	return strings.TrimRight(u, "/")
}
