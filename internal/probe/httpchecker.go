package probe

import (
	"context"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

// Check measures wall-clock latency from request start to response headers.
// Only an exact 200 counts as online; the probe target is the node's bare
// HTTP root and anything else means the node is not serving.
func (h *HTTPChecker) Check(ctx context.Context, target string) Outcome {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Online: false, Message: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Outcome{Online: false, Message: err.Error()}
	}
	defer resp.Body.Close()

	return Outcome{
		Online:     resp.StatusCode == http.StatusOK,
		StatusCode: resp.StatusCode,
		Latency:    latency,
		Message:    resp.Status,
	}
}
