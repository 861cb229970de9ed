package historyrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
)

// MemoryRepository keeps analysis records in memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]analysis.Record
}

// NewMemoryRepository constructs an empty history.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]analysis.Record)}
}

func (r *MemoryRepository) Save(_ context.Context, record analysis.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = record
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, accountID int64, id string) (analysis.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok || record.AccountID != accountID {
		return analysis.Record{}, analysis.ErrNotFound
	}
	return record, nil
}

// List returns newest first.
func (r *MemoryRepository) List(_ context.Context, accountID int64, limit int) ([]analysis.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]analysis.Record, 0)
	for _, record := range r.records {
		if record.AccountID == accountID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ analysis.HistoryRepository = (*MemoryRepository)(nil)
