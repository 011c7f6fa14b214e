// Package netinfo discovers the agent's current public IP.
package netinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrIPUnavailable means the echo service could not tell us our IP right now.
// Callers treat this as transient; it is never fatal to the process.
var ErrIPUnavailable = errors.New("public ip unavailable")

type Resolver struct {
	EchoURL string
	Client  *http.Client
}

func NewResolver(echoURL string, timeout time.Duration) *Resolver {
	return &Resolver{
		EchoURL: echoURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type echoPayload struct {
	IP string `json:"ip"`
}

// Resolve does a single GET against the echo endpoint. No retry here; the
// retry policy belongs to the caller.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.EchoURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIPUnavailable, err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIPUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: echo service returned %s", ErrIPUnavailable, resp.Status)
	}

	var p echoPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIPUnavailable, err)
	}
	if p.IP == "" {
		return "", fmt.Errorf("%w: empty ip in echo response", ErrIPUnavailable)
	}
	return p.IP, nil
}
