package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pipecdn/agent/internal/domain"
)

func rec(nodeID string, at time.Time) *domain.ProbeRecord {
	return &domain.ProbeRecord{
		ProbeResult: domain.ProbeResult{
			NodeID:    nodeID,
			IP:        "10.0.0.1",
			LatencyMS: 10,
			Status:    domain.StatusOnline,
		},
		CheckedAt: at,
	}
}

func TestMemoryStore_AppendAndRecent(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, rec(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 records, got %d", len(got))
	}
	// newest first
	if got[0].NodeID != "c" || got[1].NodeID != "b" {
		t.Fatalf("unexpected order: %s, %s", got[0].NodeID, got[1].NodeID)
	}
}

func TestMemoryStore_RecentWithoutLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Append(ctx, rec("a", time.Now()))

	got, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want all records, got %d", len(got))
	}
}
