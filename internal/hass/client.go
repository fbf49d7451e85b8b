package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// maxErrorBody caps how much of a failed response body is carried in
// error messages.
const maxErrorBody = 4 << 10

// StateDocument is the hub's representation of one entity, as returned
// by GET /api/states/{entity_id}.
type StateDocument struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Attribute returns the named attribute, or fallback when absent.
func (d *StateDocument) Attribute(name string, fallback any) any {
	if v, ok := d.Attributes[name]; ok {
		return v
	}
	return fallback
}

// HubStats holds hub traffic counters for health reporting.
type HubStats struct {
	Requests    uint64    `json:"requests"`
	Failures    uint64    `json:"failures"`
	LastSuccess time.Time `json:"last_success"`
}

// Client issues authenticated REST calls against a Home Assistant
// instance.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	// Statistics (atomic for lock-free reads from the health reporter)
	requests    atomic.Uint64
	failures    atomic.Uint64
	lastSuccess atomic.Int64 // Unix seconds; 0 until the first response
}

// NewClient builds a hub client from resolved connection values.
//
// Parameters:
//   - baseURL: scheme, host and port, e.g. "http://homeassistant.local:8123"
//   - token: long-lived access token sent as a bearer credential
//   - timeout: per-request timeout applied to every hub call
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// EntityState fetches the current state document for an entity.
//
// Returns:
//   - *StateDocument: decoded state and attributes
//   - error: ErrRequestFailed on a non-200 response (message carries
//     status and body), ErrTransport when the hub is unreachable
func (c *Client) EntityState(ctx context.Context, entityID string) (*StateDocument, error) {
	url := fmt.Sprintf("%s/api/states/%s", c.baseURL, entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.requestError(resp)
	}

	var doc StateDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		c.failures.Add(1)
		return nil, fmt.Errorf("%w: decoding state for %s: %w", ErrRequestFailed, entityID, err)
	}
	return &doc, nil
}

// CallService invokes POST /api/services/{domain}/{service}. The JSON
// body is entity_id plus any extra fields from the codec.
//
// Only a 200 response counts as success.
func (c *Client) CallService(ctx context.Context, domain, service, entityID string, fields map[string]any) error {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["entity_id"] = entityID

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding %s.%s payload: %w", ErrRequestFailed, domain, service, err)
	}

	url := fmt.Sprintf("%s/api/services/%s/%s", c.baseURL, domain, service)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.requestError(resp)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// HealthCheck verifies the hub is reachable and accepts the token by
// hitting the API root.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	c.setHeaders(req)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.requestError(resp)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Stats returns current hub traffic counters.
func (c *Client) Stats() HubStats {
	stats := HubStats{
		Requests: c.requests.Load(),
		Failures: c.failures.Load(),
	}
	if ts := c.lastSuccess.Load(); ts > 0 {
		stats.LastSuccess = time.Unix(ts, 0)
	}
	return stats
}

// BaseURL returns the hub base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
}

// do executes the request and tracks counters. Network failures map to
// ErrTransport; any completed exchange, whatever its status, counts as
// hub contact for LastSuccess.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.requests.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		c.failures.Add(1)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	c.lastSuccess.Store(time.Now().Unix())
	return resp, nil
}

// requestError drains the body into an ErrRequestFailed carrying the
// method, path, status and (truncated) response body.
func (c *Client) requestError(resp *http.Response) error {
	c.failures.Add(1)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%w: %s %s returned %d: %s",
		ErrRequestFailed, resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
}
