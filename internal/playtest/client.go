package playtest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/eraquiz/internal/domain/types"
)

// Client talks to the quiz HTTP API.
type Client struct {
	baseURL  string
	http     *http.Client
	requests atomic.Int64
}

// NewClient returns a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Requests reports how many requests the client has sent.
func (c *Client) Requests() int64 { return c.requests.Load() }

// Health checks the metrics endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.requests.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// StartSession creates a new session.
func (c *Client) StartSession(ctx context.Context) (types.SessionView, error) {
	var v types.SessionView
	err := c.do(ctx, http.MethodPost, "/sessions", nil, &v)
	return v, err
}

// Answer records recognized for the current figure.
func (c *Client) Answer(ctx context.Context, id string, recognized bool) (types.SessionView, error) {
	var v types.SessionView
	body := map[string]bool{"recognized": recognized}
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/answer", body, &v)
	return v, err
}

// Change reopens the current figure for answering.
func (c *Client) Change(ctx context.Context, id string) (types.SessionView, error) {
	return c.move(ctx, id, "change")
}

// Advance moves to the next figure or finishes the session.
func (c *Client) Advance(ctx context.Context, id string) (types.SessionView, error) {
	return c.move(ctx, id, "advance")
}

// Back steps to the previous figure.
func (c *Client) Back(ctx context.Context, id string) (types.SessionView, error) {
	return c.move(ctx, id, "back")
}

// Results fetches the results of a finished session.
func (c *Client) Results(ctx context.Context, id string) (types.ResultsPayload, error) {
	var r types.ResultsPayload
	err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/results", nil, &r)
	return r, err
}

func (c *Client) move(ctx context.Context, id, action string) (types.SessionView, error) {
	var v types.SessionView
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/"+action, nil, &v)
	return v, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.requests.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(data, se)
		return se
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
