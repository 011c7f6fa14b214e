package store

import (
	"context"

	"github.com/pipecdn/agent/internal/domain"
)

// ResultStore keeps local probe history for the status API. Best-effort
// observability data; losing it never affects the agent's behavior.
type ResultStore interface {
	Append(ctx context.Context, r *domain.ProbeRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.ProbeRecord, error)
}
