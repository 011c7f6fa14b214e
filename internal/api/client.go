// Package api is the client for the control-plane endpoints. One client (and
// one connection pool) is shared for the process lifetime; callers own retry
// and scheduling policy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pipecdn/agent/internal/domain"
)

// ErrRateLimited signals an HTTP 429 from the heartbeat endpoint. Retrying
// into a rate limiter only worsens the condition, so callers must stop the
// current attempt series when they see this.
var ErrRateLimited = errors.New("rate limited")

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type heartbeatPayload struct {
	IP string `json:"ip"`
}

// Heartbeat posts the node's current public IP. nil means delivered and
// acknowledged (200 or 201). 429 maps to ErrRateLimited; anything else is a
// plain error the caller may retry.
func (c *Client) Heartbeat(ctx context.Context, ip string) error {
	resp, err := c.postJSON(ctx, "/heartbeat", heartbeatPayload{IP: ip})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("heartbeat endpoint returned %s", resp.Status)
	}
}

// Nodes fetches the peer nodes this agent should probe.
func (c *Client) Nodes(ctx context.Context) ([]domain.NodeDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/nodes", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nodes endpoint returned %s", resp.Status)
	}

	var nodes []domain.NodeDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("decode node list: %w", err)
	}
	return nodes, nil
}

// ReportTest submits one probe result. Only an exact 200 counts as accepted;
// the endpoint does not use the rest of the 2xx range.
func (c *Client) ReportTest(ctx context.Context, r domain.ProbeResult) error {
	resp, err := c.postJSON(ctx, "/test", r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("test endpoint returned %s", resp.Status)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	return c.HTTP.Do(req)
}
