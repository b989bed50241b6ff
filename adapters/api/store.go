package api

import (
	"context"
	"encoding/json"
	"sync"

	"groupstat/domain/core"
	domstats "groupstat/domain/stats"
	"groupstat/internal/errors"
)

// ReportStore abstracts report persistence so the server runs with or
// without a database behind it.
type ReportStore interface {
	SaveOmnibus(ctx context.Context, report *domstats.OmnibusReport) error
	SaveSummary(ctx context.Context, table *domstats.SummaryTable) error
	Get(ctx context.Context, id core.AnalysisID) (kind string, payload []byte, err error)
}

// MemoryStore is the fallback store used when no DATABASE_URL is configured
type MemoryStore struct {
	mu      sync.RWMutex
	kinds   map[core.AnalysisID]string
	reports map[core.AnalysisID][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kinds:   make(map[core.AnalysisID]string),
		reports: make(map[core.AnalysisID][]byte),
	}
}

// SaveOmnibus stores a serialized omnibus report
func (s *MemoryStore) SaveOmnibus(ctx context.Context, report *domstats.OmnibusReport) error {
	return s.put(report.ID, "omnibus", report)
}

// SaveSummary stores a serialized summary table
func (s *MemoryStore) SaveSummary(ctx context.Context, table *domstats.SummaryTable) error {
	return s.put(table.ID, "summary", table)
}

func (s *MemoryStore) put(id core.AnalysisID, kind string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds[id] = kind
	s.reports[id] = raw
	return nil
}

// Get fetches a stored report by id
func (s *MemoryStore) Get(ctx context.Context, id core.AnalysisID) (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.reports[id]
	if !ok {
		return "", nil, errors.NotFound("analysis " + string(id))
	}
	return s.kinds[id], raw, nil
}
