// Package soap implements the tracker client over Jira's legacy
// jirasoapservice-v2 RPC endpoint.
package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/issue-updater/internal/tracker"
)

// servicePath is the SOAP endpoint below the server URL.
const servicePath = "/rpc/soap/jirasoapservice-v2"

// Client posts SOAP envelopes to a Jira server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a SOAP client for the Jira instance at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   tracker.BaseURL(baseURL) + servicePath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Call sends one RPC request and decodes the response element into result,
// which may be nil. A SOAP fault is returned as an error. op names the
// operation in errors.
func (c *Client) Call(ctx context.Context, op string, request, result interface{}) error {
	env := requestEnvelope{EnvNS: envelopeNS, ServiceNS: serviceNS}
	env.Body.Call = request

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("encoding SOAP request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing %s: %w", op, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	var out responseEnvelope
	if err := xml.Unmarshal(respBody, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("unexpected status %d on %s", resp.StatusCode, op)
		}
		return fmt.Errorf("decoding %s response: %w", op, err)
	}

	if f := out.Body.Fault; f != nil {
		return c.faultError(op, f)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d on %s", resp.StatusCode, op)
	}

	if result == nil {
		return nil
	}
	if err := xml.Unmarshal(out.Body.Content, result); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}

func (c *Client) faultError(op string, f *Fault) error {
	msg := strings.TrimSpace(f.String)
	if strings.Contains(f.String, "RemoteAuthenticationException") ||
		strings.Contains(f.Detail.Raw, "RemoteAuthenticationException") {
		return &tracker.AuthError{Endpoint: c.endpoint, Message: msg}
	}
	return fmt.Errorf("SOAP fault on %s: %s", op, msg)
}
