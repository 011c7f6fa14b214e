package probe

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/domain"
)

// Prober fans a batch of node checks out concurrently and joins on all of
// them; there are no partial results.
type Prober struct {
	Logger  *zap.Logger
	Checker Checker
}

func NewProber(logger *zap.Logger, checker Checker) *Prober {
	return &Prober{Logger: logger, Checker: checker}
}

// ProbeAll returns exactly one result per descriptor. Each probe owns its own
// request/response cycle and writes only its own slot, so no locking is
// needed; one node failing cannot affect any other node's probe.
func (p *Prober) ProbeAll(ctx context.Context, nodes []domain.NodeDescriptor) []domain.ProbeResult {
	results := make([]domain.ProbeResult, len(nodes))

	var wg sync.WaitGroup
	for i, n := range nodes {
		wg.Add(1)
		go func(i int, n domain.NodeDescriptor) {
			defer wg.Done()
			results[i] = p.probeOne(ctx, n)
		}(i, n)
	}
	wg.Wait()

	return results
}

func (p *Prober) probeOne(ctx context.Context, n domain.NodeDescriptor) domain.ProbeResult {
	out := p.Checker.Check(ctx, "http://"+n.IP)

	r := domain.ProbeResult{
		NodeID:    n.NodeID,
		IP:        n.IP,
		LatencyMS: domain.LatencyUnmeasured,
		Status:    domain.StatusOffline,
	}
	if out.Online {
		r.Status = domain.StatusOnline
		r.LatencyMS = out.Latency.Milliseconds()
	}

	p.Logger.Debug("node_probed",
		zap.String("node_id", n.NodeID),
		zap.String("ip", n.IP),
		zap.String("status", string(r.Status)),
		zap.Int64("latency_ms", r.LatencyMS),
		zap.String("detail", out.Message),
	)
	return r
}
