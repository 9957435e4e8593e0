package soap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker"
)

// fakeService answers SOAP calls by operation name with canned bodies.
type fakeService struct {
	t         *testing.T
	mu        sync.Mutex
	responses map[string]string
	faults    map[string]string
	requests  map[string]string
}

func newFakeService(t *testing.T) *fakeService {
	return &fakeService{
		t:         t,
		responses: make(map[string]string),
		faults:    make(map[string]string),
		requests:  make(map[string]string),
	}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, servicePath, r.URL.Path)
	assert.Equal(f.t, http.MethodPost, r.Method)

	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	var env struct {
		Body struct {
			Call struct {
				XMLName xml.Name
			} `xml:",any"`
		} `xml:"Body"`
	}
	require.NoError(f.t, xml.Unmarshal(body, &env))
	op := env.Body.Call.XMLName.Local

	f.mu.Lock()
	f.requests[op] = string(body)
	fault, isFault := f.faults[op]
	resp := f.responses[op]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	if isFault {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `<?xml version="1.0"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>
<soapenv:Fault><faultcode>soapenv:Server.userException</faultcode><faultstring>%s</faultstring></soapenv:Fault>
</soapenv:Body></soapenv:Envelope>`, fault)
		return
	}
	fmt.Fprintf(w, `<?xml version="1.0"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>
<ns1:%[1]sResponse xmlns:ns1="http://soap.rpc.jira.atlassian.com">%[2]s</ns1:%[1]sResponse>
</soapenv:Body></soapenv:Envelope>`, op, resp)
}

func (f *fakeService) request(op string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[op]
}

func login(t *testing.T, f *fakeService) *Session {
	t.Helper()
	f.responses["login"] = `<loginReturn>tok-1</loginReturn>`
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := Login(context.Background(), NewClient(srv.URL, time.Second), "builder", "secret")
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFakeService(t)
	s := login(t, f)

	assert.Equal(t, "tok-1", s.token)
	req := f.request("login")
	assert.Contains(t, req, "<in0>builder</in0>")
	assert.Contains(t, req, "<in1>secret</in1>")
}

func TestLogin_AuthFault(t *testing.T) {
	t.Parallel()
	f := newFakeService(t)
	f.faults["login"] = "com.atlassian.jira.rpc.exception.RemoteAuthenticationException: Invalid username or password."
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	_, err := Connector(time.Second).Connect(context.Background(), srv.URL, "builder", "wrong")
	require.Error(t, err)
	assert.True(t, tracker.IsAuthError(err))
}

func TestFindIssues(t *testing.T) {
	t.Parallel()
	f := newFakeService(t)
	s := login(t, f)
	f.responses["getIssuesFromJqlSearch"] = `<getIssuesFromJqlSearchReturn>
		<item><key>ABC-1</key><summary>First</summary><project>ABC</project>
			<fixVersions><item><id>10505</id><name>1.0</name></item></fixVersions></item>
		<item><key>SA-52</key><summary>Check _52</summary></item>
	</getIssuesFromJqlSearchReturn>`

	issues, err := s.FindIssues(context.Background(), "project = ABC", 10001)
	require.NoError(t, err)
	assert.Equal(t, []model.Issue{
		{Key: "ABC-1", Summary: "First", ProjectKey: "ABC", FixVersionIDs: []string{"10505"}},
		{Key: "SA-52", Summary: "Check _52", ProjectKey: "SA"},
	}, issues)

	req := f.request("getIssuesFromJqlSearch")
	assert.Contains(t, req, "<in0>tok-1</in0>")
	assert.Contains(t, req, "<in1>project = ABC</in1>")
	assert.Contains(t, req, "<in2>10001</in2>")
}

func TestFindIssues_Fault(t *testing.T) {
	t.Parallel()
	f := newFakeService(t)
	s := login(t, f)
	f.faults["getIssuesFromJqlSearch"] = "Error in the JQL Query"

	_, err := s.FindIssues(context.Background(), "bad jql", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error in the JQL Query")
	assert.False(t, tracker.IsAuthError(err))
}

func TestTransitions(t *testing.T) {
	t.Parallel()
	f := newFakeService(t)
	s := login(t, f)
	f.responses["getAvailableActions"] = `<getAvailableActionsReturn>
		<item><id>5</id><name>Resolve Issue</name></item>
		<item><id>2</id><name>Close Issue</name></item>
	</getAvailableActionsReturn>`

	got, err := s.Transitions(context.Background(), "ABC-1")
	require.NoError(t, err)
	assert.Equal(t, []model.Transition{{ID: "5", Name: "Resolve Issue"}, {ID: "2", Name: "Close Issue"}}, got)
}

func TestMutations(t *testing.T) {
	t.Parallel()
	f := newFakeService(t)
	s := login(t, f)
	ctx := context.Background()

	require.NoError(t, s.ApplyTransition(ctx, "ABC-1", "5"))
	assert.Contains(t, f.request("progressWorkflowAction"), "<in2>5</in2>")

	require.NoError(t, s.AddComment(ctx, "ABC-1", `fixed <b> & "done"`))
	assert.Contains(t, f.request("addComment"), "<in2><body>fixed &lt;b&gt; &amp; &#34;done&#34;</body></in2>")

	require.NoError(t, s.SetCustomField(ctx, "ABC-1", "customfield_10000", "17"))
	req := f.request("updateIssue")
	assert.Contains(t, req, "<id>customfield_10000</id>")
	assert.Contains(t, req, "<values><item>17</item></values>")

	require.NoError(t, s.ReplaceFixedVersions(ctx, "ABC-1", []string{"10505", "10506"}))
	req = f.request("updateIssue")
	assert.Contains(t, req, "<id>fixVersions</id>")
	assert.True(t, strings.Contains(req, "<item>10505</item><item>10506</item>"))
}

func TestVersionsAndCreate(t *testing.T) {
	t.Parallel()
	f := newFakeService(t)
	s := login(t, f)
	ctx := context.Background()

	f.responses["getVersions"] = `<getVersionsReturn>
		<item><id>10505</id><name>1.0</name><released>true</released><archived>false</archived></item>
	</getVersionsReturn>`
	versions, err := s.Versions(ctx, "ABC")
	require.NoError(t, err)
	assert.Equal(t, []model.Version{{ID: "10505", Name: "1.0", Released: true}}, versions)

	f.responses["addVersion"] = `<addVersionReturn><id>10600</id><name>2.0</name></addVersionReturn>`
	v, err := s.CreateVersion(ctx, "ABC", "2.0")
	require.NoError(t, err)
	assert.Equal(t, model.Version{ID: "10600", Name: "2.0"}, v)
	assert.Contains(t, f.request("addVersion"), "<in1>ABC</in1>")
}

func TestNewClient_NormalisesEndpoint(t *testing.T) {
	t.Parallel()
	c := NewClient("https://jira.example.com/rpc/soap/jirasoapservice-v2/", 0)
	assert.Equal(t, "https://jira.example.com/rpc/soap/jirasoapservice-v2", c.endpoint)
}
