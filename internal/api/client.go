package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidpipe/internal/session"
)

// Client provides HTTP access to a running daemon's API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the daemon listening on the given bind
// address. Bare host:port addresses are promoted to http URLs.
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SessionStatus retrieves the poll payload for one session.
func (c *Client) SessionStatus(ctx context.Context, id string) (*SessionStatus, error) {
	var status SessionStatus
	if err := c.get(ctx, "/api/status/"+url.PathEscape(id), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Sessions lists the sessions known to the daemon.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var resp SessionListResponse
	if err := c.get(ctx, "/api/sessions", &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Describe retrieves the full record for one session.
func (c *Client) Describe(ctx context.Context, id string) (*Session, error) {
	var resp SessionResponse
	if err := c.get(ctx, "/api/sessions/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", apiErrorMessage(resp, "not found"), session.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("daemon: %s", apiErrorMessage(resp, fmt.Sprintf("returned %d", resp.StatusCode)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiErrorMessage(resp *http.Response, fallback string) string {
	var apiErr ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
		if msg := strings.TrimSpace(apiErr.Error); msg != "" {
			return msg
		}
	}
	return fallback
}
