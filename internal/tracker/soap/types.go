package soap

import "encoding/xml"

const (
	envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	serviceNS  = "http://soap.rpc.jira.atlassian.com"
)

// requestEnvelope wraps one RPC call element.
type requestEnvelope struct {
	XMLName   xml.Name `xml:"soapenv:Envelope"`
	EnvNS     string   `xml:"xmlns:soapenv,attr"`
	ServiceNS string   `xml:"xmlns:soap,attr"`
	Body      struct {
		Call interface{}
	} `xml:"soapenv:Body"`
}

// responseEnvelope captures the body of any response. Content holds the raw
// response element and is decoded by the caller.
type responseEnvelope struct {
	Body struct {
		Fault   *Fault `xml:"Fault"`
		Content []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// Fault is a SOAP 1.1 fault.
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Detail struct {
		Raw string `xml:",innerxml"`
	} `xml:"detail"`
}

// RemoteIssue is the subset of jirasoapservice-v2 RemoteIssue used here.
type RemoteIssue struct {
	ID          string          `xml:"id"`
	Key         string          `xml:"key"`
	Summary     string          `xml:"summary"`
	Project     string          `xml:"project"`
	FixVersions []RemoteVersion `xml:"fixVersions>item"`
}

// RemoteVersion is a project version.
type RemoteVersion struct {
	ID       string `xml:"id,omitempty"`
	Name     string `xml:"name"`
	Archived bool   `xml:"archived"`
	Released bool   `xml:"released"`
}

// RemoteNamedObject is an id/name pair, used for workflow actions.
type RemoteNamedObject struct {
	ID   string `xml:"id"`
	Name string `xml:"name"`
}

// RemoteComment is a new issue comment.
type RemoteComment struct {
	Body string `xml:"body"`
}

// RemoteFieldValue sets one issue field to a list of values.
type RemoteFieldValue struct {
	ID     string   `xml:"id"`
	Values []string `xml:"values>item"`
}

type loginRequest struct {
	XMLName  xml.Name `xml:"soap:login"`
	Username string   `xml:"in0"`
	Password string   `xml:"in1"`
}

type loginResponse struct {
	Token string `xml:"loginReturn"`
}

type searchRequest struct {
	XMLName    xml.Name `xml:"soap:getIssuesFromJqlSearch"`
	Token      string   `xml:"in0"`
	JQL        string   `xml:"in1"`
	MaxResults int      `xml:"in2"`
}

type searchResponse struct {
	Issues []RemoteIssue `xml:"getIssuesFromJqlSearchReturn>item"`
}

type actionsRequest struct {
	XMLName  xml.Name `xml:"soap:getAvailableActions"`
	Token    string   `xml:"in0"`
	IssueKey string   `xml:"in1"`
}

type actionsResponse struct {
	Actions []RemoteNamedObject `xml:"getAvailableActionsReturn>item"`
}

type progressRequest struct {
	XMLName  xml.Name           `xml:"soap:progressWorkflowAction"`
	Token    string             `xml:"in0"`
	IssueKey string             `xml:"in1"`
	ActionID string             `xml:"in2"`
	Fields   []RemoteFieldValue `xml:"in3>item"`
}

type commentRequest struct {
	XMLName  xml.Name      `xml:"soap:addComment"`
	Token    string        `xml:"in0"`
	IssueKey string        `xml:"in1"`
	Comment  RemoteComment `xml:"in2"`
}

type updateRequest struct {
	XMLName  xml.Name           `xml:"soap:updateIssue"`
	Token    string             `xml:"in0"`
	IssueKey string             `xml:"in1"`
	Fields   []RemoteFieldValue `xml:"in2>item"`
}

type versionsRequest struct {
	XMLName    xml.Name `xml:"soap:getVersions"`
	Token      string   `xml:"in0"`
	ProjectKey string   `xml:"in1"`
}

type versionsResponse struct {
	Versions []RemoteVersion `xml:"getVersionsReturn>item"`
}

type addVersionRequest struct {
	XMLName    xml.Name      `xml:"soap:addVersion"`
	Token      string        `xml:"in0"`
	ProjectKey string        `xml:"in1"`
	Version    RemoteVersion `xml:"in2"`
}

type addVersionResponse struct {
	Version RemoteVersion `xml:"addVersionReturn"`
}
