// Package trackertest provides an in-memory tracker.Client for tests.
package trackertest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/nhle/issue-updater/internal/model"
)

// Call records one client method invocation.
type Call struct {
	Method string
	Key    string
	Args   []string
}

// Fake is a scriptable in-memory tracker. Set the exported fields before
// use; every call is recorded in order.
type Fake struct {
	mu sync.Mutex

	Issues        []model.Issue
	SearchErr     error
	TransitionMap map[string][]model.Transition
	ProjectVers   map[string][]model.Version

	// Errs maps "Method" or "Method:KEY" to the error that call returns.
	Errs map[string]error

	calls  []Call
	nextID int
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		TransitionMap: make(map[string][]model.Transition),
		ProjectVers:   make(map[string][]model.Version),
		Errs:          make(map[string]error),
		nextID:        20000,
	}
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded calls to one method.
func (f *Fake) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) record(method, key string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Key: key, Args: args})
	if err, ok := f.Errs[method+":"+key]; ok {
		return err
	}
	return f.Errs[method]
}

func (f *Fake) FindIssues(_ context.Context, query string, maxResults int) ([]model.Issue, error) {
	if err := f.record("FindIssues", "", query, strconv.Itoa(maxResults)); err != nil {
		return nil, err
	}
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	issues := f.Issues
	if len(issues) > maxResults {
		issues = issues[:maxResults]
	}
	out := make([]model.Issue, len(issues))
	copy(out, issues)
	return out, nil
}

func (f *Fake) Transitions(_ context.Context, issueKey string) ([]model.Transition, error) {
	if err := f.record("Transitions", issueKey); err != nil {
		return nil, err
	}
	return f.TransitionMap[issueKey], nil
}

func (f *Fake) ApplyTransition(_ context.Context, issueKey, transitionID string) error {
	return f.record("ApplyTransition", issueKey, transitionID)
}

func (f *Fake) AddComment(_ context.Context, issueKey, text string) error {
	return f.record("AddComment", issueKey, text)
}

func (f *Fake) SetCustomField(_ context.Context, issueKey, fieldID, value string) error {
	return f.record("SetCustomField", issueKey, fieldID, value)
}

func (f *Fake) Versions(_ context.Context, projectKey string) ([]model.Version, error) {
	if err := f.record("Versions", projectKey); err != nil {
		return nil, err
	}
	return f.ProjectVers[projectKey], nil
}

func (f *Fake) ReplaceFixedVersions(_ context.Context, issueKey string, ids []string) error {
	return f.record("ReplaceFixedVersions", issueKey, ids...)
}

// Creator is a Fake that also implements tracker.VersionCreator.
type Creator struct {
	*Fake
}

// NewCreator returns a Fake that can create versions.
func NewCreator() *Creator {
	return &Creator{Fake: NewFake()}
}

func (c *Creator) CreateVersion(_ context.Context, projectKey, name string) (model.Version, error) {
	if err := c.record("CreateVersion", projectKey, name); err != nil {
		return model.Version{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	v := model.Version{ID: fmt.Sprintf("%d", c.nextID), Name: name}
	c.ProjectVers[projectKey] = append(c.ProjectVers[projectKey], v)
	return v, nil
}
