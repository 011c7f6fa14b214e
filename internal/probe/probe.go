package probe

import (
	"context"
	"time"
)

// Outcome is the raw result of a single reachability check.
//
// StatusCode is 0 for transport errors (timeout, refused connection, DNS).
type Outcome struct {
	Online     bool
	StatusCode int
	Latency    time.Duration
	Message    string
}

// Checker performs a single check against one target URL.
type Checker interface {
	Check(ctx context.Context, target string) Outcome
}
