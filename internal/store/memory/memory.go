package memory

import (
	"context"
	"sync"

	"github.com/pipecdn/agent/internal/domain"
)

// maxRecords caps memory growth on long runs; oldest entries are dropped.
const maxRecords = 4096

type Store struct {
	mu      sync.RWMutex
	records []domain.ProbeRecord
}

func New() *Store {
	return &Store{records: make([]domain.ProbeRecord, 0, 128)}
}

func (m *Store) Append(ctx context.Context, r *domain.ProbeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *r)
	if len(m.records) > maxRecords {
		m.records = m.records[len(m.records)-maxRecords:]
	}
	return nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]domain.ProbeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]domain.ProbeRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}
