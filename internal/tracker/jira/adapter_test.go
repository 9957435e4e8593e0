package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker"
)

// fakeJira serves a minimal subset of the REST API v2 and records the
// bodies it receives.
type fakeJira struct {
	t      *testing.T
	mux    *http.ServeMux
	bodies map[string][]byte
}

func newFakeJira(t *testing.T) *fakeJira {
	f := &fakeJira{t: t, mux: http.NewServeMux(), bodies: make(map[string][]byte)}
	return f
}

func (f *fakeJira) handle(pattern string, status int, response string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(f.t, err)
		f.bodies[pattern] = body
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	})
}

func (f *fakeJira) adapter() *Adapter {
	srv := httptest.NewServer(f.mux)
	f.t.Cleanup(srv.Close)
	return NewAdapter(NewClient(srv.URL, "builder", "secret", 5*time.Second))
}

func (f *fakeJira) body(pattern string, v interface{}) {
	require.NoError(f.t, json.Unmarshal(f.bodies[pattern], v))
}

const searchWithVersions = `{ "expand" : "names,schema",
  "issues" : [ { "expand" : "operations,transitions,renderedFields",
      "fields" : { "summary" : "Check _52",
          "versions" : [ { "archived" : false,
                "description" : "Demo version",
                "id" : "10505",
                "name" : "1.0",
                "released" : false,
                "self" : "http://jira.example.com:8080/rest/api/2/version/10505"
              } ]
        },
      "id" : "11274",
      "key" : "SA-52",
      "self" : "http://jira.example.com:8080/rest/api/2/issue/11274"
    } ],
  "maxResults" : 1000,
  "startAt" : 0,
  "total" : 1
}`

func TestSearchResponse_ParsesManagedVersions(t *testing.T) {
	t.Parallel()
	var resp SearchResponse
	require.NoError(t, json.Unmarshal([]byte(searchWithVersions), &resp))

	require.Len(t, resp.Issues, 1)
	require.Len(t, resp.Issues[0].Fields.Versions, 1)
	v := resp.Issues[0].Fields.Versions[0]
	assert.False(t, v.Archived)
	assert.False(t, v.Released)
	assert.Equal(t, "10505", v.ID)
}

func TestFindIssues(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/search", http.StatusOK, `{
		"total": 2,
		"issues": [
			{"key": "ABC-1", "fields": {"summary": "First", "project": {"key": "ABC"},
			 "fixVersions": [{"id": "10001", "name": "1.0"}]}},
			{"key": "SA-52", "fields": {"summary": "Check _52"}}
		]}`)

	issues, err := f.adapter().FindIssues(context.Background(), "project = ABC", 10001)
	require.NoError(t, err)

	assert.Equal(t, []model.Issue{
		{Key: "ABC-1", Summary: "First", ProjectKey: "ABC", FixVersionIDs: []string{"10001"}},
		{Key: "SA-52", Summary: "Check _52", ProjectKey: "SA"},
	}, issues)

	var req SearchRequest
	f.body("/rest/api/2/search", &req)
	assert.Equal(t, "project = ABC", req.JQL)
	assert.Equal(t, 0, req.StartAt)
	assert.Equal(t, 10001, req.MaxResults)
	assert.Equal(t, []string{"summary", "project", "fixVersions"}, req.Fields)
}

func TestFindIssues_Empty(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/search", http.StatusOK, `{"total": 0, "issues": []}`)

	issues, err := f.adapter().FindIssues(context.Background(), "project = ABC", 10)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.NotNil(t, issues)
}

func TestTransitions(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/issue/ABC-1/transitions", http.StatusOK,
		`{"transitions": [{"id": "11", "name": "Start"}, {"id": "31", "name": "Resolve Issue"}]}`)

	got, err := f.adapter().Transitions(context.Background(), "ABC-1")
	require.NoError(t, err)
	assert.Equal(t, []model.Transition{{ID: "11", Name: "Start"}, {ID: "31", Name: "Resolve Issue"}}, got)
}

func TestApplyTransition(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/issue/ABC-1/transitions", http.StatusNoContent, "")

	require.NoError(t, f.adapter().ApplyTransition(context.Background(), "ABC-1", "31"))

	var req TransitionRequest
	f.body("/rest/api/2/issue/ABC-1/transitions", &req)
	assert.Equal(t, "31", req.Transition.ID)
}

func TestAddComment_EscapesBody(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/issue/ABC-1/comment", http.StatusCreated, `{"id": "100"}`)

	text := "Fixed in \"build 7\"\n\tpath C:\\work"
	require.NoError(t, f.adapter().AddComment(context.Background(), "ABC-1", text))

	var req CommentRequest
	f.body("/rest/api/2/issue/ABC-1/comment", &req)
	assert.Equal(t, text, req.Body)
}

func TestSetCustomField(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/issue/ABC-1", http.StatusNoContent, "")

	require.NoError(t, f.adapter().SetCustomField(context.Background(), "ABC-1", "customfield_10000", "build-7"))

	var req map[string]map[string]string
	f.body("/rest/api/2/issue/ABC-1", &req)
	assert.Equal(t, "build-7", req["fields"]["customfield_10000"])
}

func TestReplaceFixedVersions(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/issue/ABC-1", http.StatusNoContent, "")

	require.NoError(t, f.adapter().ReplaceFixedVersions(context.Background(), "ABC-1", []string{"10505", "10506"}))

	var req struct {
		Fields struct {
			FixVersions []VersionRef `json:"fixVersions"`
		} `json:"fields"`
	}
	f.body("/rest/api/2/issue/ABC-1", &req)
	assert.Equal(t, []VersionRef{{ID: "10505"}, {ID: "10506"}}, req.Fields.FixVersions)
}

func TestReplaceFixedVersions_EmptyClears(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/issue/ABC-1", http.StatusNoContent, "")

	require.NoError(t, f.adapter().ReplaceFixedVersions(context.Background(), "ABC-1", nil))
	assert.JSONEq(t, `{"fields":{"fixVersions":[]}}`, string(f.bodies["/rest/api/2/issue/ABC-1"]))
}

func TestVersions(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/project/ABC/versions", http.StatusOK,
		`[{"id": "10505", "name": "1.0", "released": true}, {"id": "10506", "name": "1.1"}]`)

	got, err := f.adapter().Versions(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, []model.Version{
		{ID: "10505", Name: "1.0", Released: true},
		{ID: "10506", Name: "1.1"},
	}, got)
}

func TestCreateVersion(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/version", http.StatusCreated, `{"id": "10600", "name": "2.0"}`)

	v, err := f.adapter().CreateVersion(context.Background(), "ABC", "2.0")
	require.NoError(t, err)
	assert.Equal(t, model.Version{ID: "10600", Name: "2.0"}, v)

	var req CreateVersionRequest
	f.body("/rest/api/2/version", &req)
	assert.Equal(t, CreateVersionRequest{Name: "2.0", Project: "ABC"}, req)
}

func TestConnector(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/myself", http.StatusOK, `{"name": "builder", "displayName": "Build Bot"}`)
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	client, err := Connector(time.Second).Connect(context.Background(), srv.URL+"/rest/api/2", "builder", "secret")
	require.NoError(t, err)
	assert.IsType(t, &Adapter{}, client)
}

func TestConnector_AuthFailure(t *testing.T) {
	t.Parallel()
	f := newFakeJira(t)
	f.handle("/rest/api/2/myself", http.StatusUnauthorized, "")
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	_, err := Connector(time.Second).Connect(context.Background(), srv.URL, "builder", "wrong")
	require.Error(t, err)
	assert.True(t, tracker.IsAuthError(err))

	var authErr *tracker.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, srv.URL, authErr.Endpoint)
}
