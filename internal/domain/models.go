package domain

import "time"

type NodeStatus string

const (
	StatusOnline  NodeStatus = "online"
	StatusOffline NodeStatus = "offline"
)

// LatencyUnmeasured is what we report when a probe never got an answer.
// The reporting endpoint expects the -1 sentinel, not null.
const LatencyUnmeasured int64 = -1

// NodeDescriptor is one peer node as returned by the node-list endpoint.
type NodeDescriptor struct {
	NodeID string `json:"node_id"`
	IP     string `json:"ip"`
}

// ProbeResult is the outcome of probing a single node; one per descriptor,
// posted as-is to the report endpoint.
type ProbeResult struct {
	NodeID    string     `json:"node_id"`
	IP        string     `json:"ip"`
	LatencyMS int64      `json:"latency_ms"`
	Status    NodeStatus `json:"status"`
}

// ProbeRecord is a ProbeResult plus the time it was observed, as kept in the
// local history store.
type ProbeRecord struct {
	ProbeResult
	CheckedAt time.Time `json:"checked_at"`
}
