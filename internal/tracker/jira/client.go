package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nhle/issue-updater/internal/tracker"
)

// apiPrefix is the REST API v2 root below the server URL.
const apiPrefix = "/rest/api/2"

// Client is a thin HTTP client for the Jira Server/DC REST API v2.
// It handles Basic or Bearer authentication, JSON marshaling, and
// retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewClient creates a new Jira HTTP client. The baseURL should be the
// root URL of the Jira instance (e.g., https://jira.corp.example.com).
// With a username the password is sent as Basic auth; without one it is
// treated as a Personal Access Token and sent as a Bearer token.
func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  tracker.BaseURL(baseURL),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = time.Second
			bo.MaxInterval = 30 * time.Second
			return bo
		},
	}
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs an HTTP PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// rateLimited is returned by a single attempt that received HTTP 429.
type rateLimited struct {
	method, path string
	retryAfter   time.Duration
}

func (e *rateLimited) Error() string {
	return fmt.Sprintf("rate limited (429) on %s %s", e.method, e.path)
}

// retryAfterBackOff prefers the server's Retry-After delay over the
// wrapped policy for the next wait.
type retryAfterBackOff struct {
	backoff.BackOff
	next time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	wait := b.BackOff.NextBackOff()
	if wait == backoff.Stop {
		return wait
	}
	if b.next > 0 {
		wait, b.next = b.next, 0
	}
	return wait
}

// do builds the request, handles auth, rate limiting with exponential
// backoff, and JSON (de)serialization. Only HTTP 429 is retried.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + apiPrefix + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	bo := &retryAfterBackOff{BackOff: c.newBackOff()}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	err := backoff.Retry(func() error {
		err := c.attempt(ctx, method, url, path, payload, result)
		var limited *rateLimited
		if errors.As(err, &limited) {
			bo.next = limited.retryAfter
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, policy)

	var limited *rateLimited
	if errors.As(err, &limited) {
		return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, err)
	}
	return err
}

func (c *Client) attempt(
	ctx context.Context,
	method, url, path string,
	payload []byte,
	result interface{},
) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.password)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &rateLimited{method: method, path: path, retryAfter: retryAfter(resp)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &tracker.AuthError{
			Endpoint: c.baseURL,
			Message:  "authentication failed (401): check the username and password or token",
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var jiraErr ErrorResponse
		if json.Unmarshal(respBody, &jiraErr) == nil &&
			(len(jiraErr.ErrorMessages) > 0 || len(jiraErr.Errors) > 0) {
			return fmt.Errorf(
				"jira API error (%d) on %s %s: %s",
				resp.StatusCode, method, path, jiraErr.String(),
			)
		}
		return fmt.Errorf(
			"unexpected status %d on %s %s: %s",
			resp.StatusCode, method, path, strings.TrimSpace(string(respBody)),
		)
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// retryAfter reads the Retry-After header in seconds. Zero means the
// backoff policy decides.
func retryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
