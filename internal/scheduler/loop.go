// Package scheduler drives the agent: two independent due-times polled on a
// short tick, heartbeat and node-test actions run synchronously when due.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/domain"
	"github.com/pipecdn/agent/internal/store"
)

type HeartbeatSender interface {
	Send(ctx context.Context) bool
}

type NodeLister interface {
	Nodes(ctx context.Context) ([]domain.NodeDescriptor, error)
}

type Prober interface {
	ProbeAll(ctx context.Context, nodes []domain.NodeDescriptor) []domain.ProbeResult
}

type Reporter interface {
	ReportAll(ctx context.Context, results []domain.ProbeResult)
}

type Config struct {
	HeartbeatInterval time.Duration // advance after a delivered heartbeat
	TestInterval      time.Duration // advance after a test cycle, success or not
	RetryDelay        time.Duration // advance after a failed heartbeat
	TickInterval      time.Duration // poll interval
}

// Snapshot is the loop's externally visible state, served by the status API.
type Snapshot struct {
	StartedAt        time.Time `json:"started_at"`
	NextHeartbeatDue time.Time `json:"next_heartbeat_due"`
	NextTestDue      time.Time `json:"next_test_due"`
	LastHeartbeatAt  time.Time `json:"last_heartbeat_at,omitempty"`
	LastHeartbeatOK  bool      `json:"last_heartbeat_ok"`
	HeartbeatsSent   int       `json:"heartbeats_sent"`
	LastTestAt       time.Time `json:"last_test_at,omitempty"`
	LastTestNodes    int       `json:"last_test_nodes"`
	TestCycles       int       `json:"test_cycles"`
}

// scheduleState is the loop's only mutable state: the two due-times plus the
// first-heartbeat marker. Touched by nothing but tick.
type scheduleState struct {
	heartbeatDue   time.Time
	testDue        time.Time
	firstHeartbeat bool
}

type Loop struct {
	Logger    *zap.Logger
	Heartbeat HeartbeatSender
	Nodes     NodeLister
	Prober    Prober
	Reporter  Reporter
	History   store.ResultStore // optional; nil disables local history
	Cfg       Config

	now func() time.Time

	mu   sync.Mutex
	snap Snapshot
}

func New(logger *zap.Logger, hb HeartbeatSender, nodes NodeLister, prober Prober, reporter Reporter, history store.ResultStore, cfg Config) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Loop{
		Logger:    logger,
		Heartbeat: hb,
		Nodes:     nodes,
		Prober:    prober,
		Reporter:  reporter,
		History:   history,
		Cfg:       cfg,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled. Both timers are due immediately, so the
// first tick fires the first heartbeat and the first test cycle. Actions run
// synchronously inside the tick; an interrupt never aborts one mid-flight,
// the loop just declines to start the next tick.
func (l *Loop) Run(ctx context.Context) {
	st := &scheduleState{
		heartbeatDue:   l.now(),
		testDue:        l.now(),
		firstHeartbeat: true,
	}
	l.mu.Lock()
	l.snap.StartedAt = l.now()
	l.mu.Unlock()

	t := time.NewTicker(l.Cfg.TickInterval)
	defer t.Stop()

	l.tick(ctx, st)

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("scheduler_stopped")
			return
		case <-t.C:
			l.tick(ctx, st)
		}
	}
}

// tick evaluates both timers against one observation of the clock, so both
// can fire in the same tick. Heartbeat runs before the test cycle; the two
// are never concurrent with each other.
func (l *Loop) tick(ctx context.Context, st *scheduleState) {
	now := l.now()

	if !now.Before(st.heartbeatDue) {
		if st.firstHeartbeat {
			l.Logger.Info("first_heartbeat")
			st.firstHeartbeat = false
		}
		ok := l.Heartbeat.Send(ctx)

		done := l.now()
		if ok {
			st.heartbeatDue = done.Add(l.Cfg.HeartbeatInterval)
		} else {
			// failed heartbeats come back at the short interval rather
			// than waiting out a full cycle
			st.heartbeatDue = done.Add(l.Cfg.RetryDelay)
		}
		l.Logger.Info("heartbeat_rescheduled",
			zap.Bool("delivered", ok),
			zap.Time("next_due", st.heartbeatDue),
		)

		l.mu.Lock()
		l.snap.LastHeartbeatAt = done
		l.snap.LastHeartbeatOK = ok
		if ok {
			l.snap.HeartbeatsSent++
		}
		l.snap.NextHeartbeatDue = st.heartbeatDue
		l.mu.Unlock()
	}

	if !now.Before(st.testDue) {
		nodes := l.runTestCycle(ctx)

		// unconditional: a failed cycle waits for the next scheduled slot
		st.testDue = l.now().Add(l.Cfg.TestInterval)

		l.mu.Lock()
		l.snap.LastTestAt = l.now()
		l.snap.LastTestNodes = nodes
		l.snap.TestCycles++
		l.snap.NextTestDue = st.testDue
		l.mu.Unlock()
	}
}

// runTestCycle fetches the node list, probes every node concurrently and
// reports each result. Returns the number of nodes probed; -1 when the list
// fetch failed and the cycle was skipped.
func (l *Loop) runTestCycle(ctx context.Context) int {
	nodes, err := l.Nodes.Nodes(ctx)
	if err != nil {
		// single attempt, no retry: the cycle is simply skipped
		l.Logger.Warn("node_list_fetch_failed", zap.Error(err))
		return -1
	}

	results := l.Prober.ProbeAll(ctx, nodes)
	l.Reporter.ReportAll(ctx, results)
	l.appendHistory(ctx, results)

	l.Logger.Info("test_cycle_done", zap.Int("nodes", len(nodes)))
	return len(nodes)
}

func (l *Loop) appendHistory(ctx context.Context, results []domain.ProbeResult) {
	if l.History == nil {
		return
	}
	now := l.now()
	for _, res := range results {
		rec := &domain.ProbeRecord{ProbeResult: res, CheckedAt: now}
		if err := l.History.Append(ctx, rec); err != nil {
			l.Logger.Warn("history_append_failed",
				zap.String("node_id", res.NodeID),
				zap.Error(err),
			)
		}
	}
}

// Status returns a copy of the current snapshot.
func (l *Loop) Status() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}
