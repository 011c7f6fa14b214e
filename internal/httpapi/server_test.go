package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/domain"
	"github.com/pipecdn/agent/internal/scheduler"
	"github.com/pipecdn/agent/internal/store/memory"
)

func testServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	status := func() scheduler.Snapshot {
		return scheduler.Snapshot{HeartbeatsSent: 3, LastHeartbeatOK: true}
	}
	return NewServer(zap.NewNop(), st, status), st
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestStatus_ReturnsSnapshot(t *testing.T) {
	s, _ := testServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var snap scheduler.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.HeartbeatsSent != 3 || !snap.LastHeartbeatOK {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestResults_ReturnsRecentRecords(t *testing.T) {
	s, st := testServer(t)
	_ = st.Append(context.Background(), &domain.ProbeRecord{
		ProbeResult: domain.ProbeResult{NodeID: "n1", IP: "10.0.0.1", LatencyMS: 12, Status: domain.StatusOnline},
		CheckedAt:   time.Now().UTC(),
	})

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/results?limit=10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var recs []domain.ProbeRecord
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].NodeID != "n1" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestResults_BadLimitRejected(t *testing.T) {
	s, _ := testServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/results?limit=zero")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
}
