package probe

import (
	"context"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/domain"
)

// fake checker keyed by target so concurrent probes stay deterministic
type fakeChecker struct {
	byTarget map[string]Outcome
}

func (f *fakeChecker) Check(ctx context.Context, target string) Outcome {
	if out, ok := f.byTarget[target]; ok {
		return out
	}
	return Outcome{Online: false, Message: "unknown target"}
}

func TestProbeAll_EmptyList(t *testing.T) {
	p := NewProber(zap.NewNop(), &fakeChecker{})
	results := p.ProbeAll(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("want empty result set, got %d", len(results))
	}
}

func TestProbeAll_OneResultPerNode(t *testing.T) {
	chk := &fakeChecker{byTarget: map[string]Outcome{
		"http://10.0.0.1": {Online: true, StatusCode: 200, Latency: 120 * time.Millisecond},
		// 10.0.0.2 missing: treated as a failed probe
	}}
	nodes := []domain.NodeDescriptor{
		{NodeID: "n1", IP: "10.0.0.1"},
		{NodeID: "n2", IP: "10.0.0.2"},
	}

	p := NewProber(zap.NewNop(), chk)
	results := p.ProbeAll(context.Background(), nodes)
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].NodeID < results[j].NodeID })

	if results[0].NodeID != "n1" || results[0].Status != domain.StatusOnline || results[0].LatencyMS != 120 {
		t.Fatalf("n1 wrong: %+v", results[0])
	}
	if results[1].NodeID != "n2" || results[1].Status != domain.StatusOffline || results[1].LatencyMS != domain.LatencyUnmeasured {
		t.Fatalf("n2 wrong: %+v", results[1])
	}
}

func TestProbeAll_AllFailuresStillFullCardinality(t *testing.T) {
	nodes := []domain.NodeDescriptor{
		{NodeID: "a", IP: "10.0.0.1"},
		{NodeID: "b", IP: "10.0.0.2"},
		{NodeID: "c", IP: "10.0.0.3"},
	}

	p := NewProber(zap.NewNop(), &fakeChecker{})
	results := p.ProbeAll(context.Background(), nodes)
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != domain.StatusOffline || r.LatencyMS != domain.LatencyUnmeasured {
			t.Fatalf("failed probe should be offline with -1 latency: %+v", r)
		}
	}
}
