package jobstore

import (
	"context"
	"sync"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
)

// MemoryStore keeps job state in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]analysis.Job
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]analysis.Job)}
}

func (s *MemoryStore) Save(_ context.Context, job analysis.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, accountID int64, id string) (analysis.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok || job.AccountID != accountID {
		return analysis.Job{}, analysis.ErrNotFound
	}
	return job, nil
}

var _ analysis.JobStore = (*MemoryStore)(nil)
