// Package report submits probe results back to the control plane.
package report

import (
	"context"

	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/domain"
)

// API is the slice of the control-plane client a reporter needs.
type API interface {
	ReportTest(ctx context.Context, r domain.ProbeResult) error
}

type Reporter struct {
	Logger *zap.Logger
	API    API
}

func NewReporter(logger *zap.Logger, client API) *Reporter {
	return &Reporter{Logger: logger, API: client}
}

// ReportAll submits each result independently, single attempt each. Unlike
// the heartbeat path there is no retry; one node's failed report never blocks
// the rest of the batch.
func (r *Reporter) ReportAll(ctx context.Context, results []domain.ProbeResult) {
	for _, res := range results {
		if err := r.API.ReportTest(ctx, res); err != nil {
			r.Logger.Warn("report_failed",
				zap.String("node_id", res.NodeID),
				zap.String("ip", res.IP),
				zap.Error(err),
			)
			continue
		}
		r.Logger.Info("report_sent",
			zap.String("node_id", res.NodeID),
			zap.String("status", string(res.Status)),
			zap.Int64("latency_ms", res.LatencyMS),
		)
	}
}
