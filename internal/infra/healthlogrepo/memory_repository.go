package healthlogrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/nutriforecast/internal/domain/healthlog"
)

// MemoryRepository keeps measurements in process memory for local runs and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []healthlog.Entry
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, entry healthlog.Entry) (healthlog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *MemoryRepository) List(_ context.Context, accountID int64, memberID string, code healthlog.MetricCode, limit int) ([]healthlog.Entry, error) {
	out := r.filter(func(e healthlog.Entry) bool {
		return e.AccountID == accountID && e.MemberID == memberID && (code == "" || e.Code == code)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Latest(_ context.Context, accountID int64, memberID string) ([]healthlog.Entry, error) {
	seen := make(map[healthlog.MetricCode]bool)
	out := make([]healthlog.Entry, 0)
	for _, e := range r.filter(func(e healthlog.Entry) bool {
		return e.AccountID == accountID && e.MemberID == memberID
	}) {
		if seen[e.Code] {
			continue
		}
		seen[e.Code] = true
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepository) Since(_ context.Context, accountID int64, memberID string, codes []healthlog.MetricCode, since time.Time) ([]healthlog.Entry, error) {
	wanted := make(map[healthlog.MetricCode]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	return r.filter(func(e healthlog.Entry) bool {
		return e.AccountID == accountID && e.MemberID == memberID && wanted[e.Code] && !e.MeasuredAt.Before(since)
	}), nil
}

// filter returns matching entries, newest measurement first.
func (r *MemoryRepository) filter(keep func(healthlog.Entry) bool) []healthlog.Entry {
	r.mu.RLock()
	out := make([]healthlog.Entry, 0)
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MeasuredAt.Equal(out[j].MeasuredAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].MeasuredAt.After(out[j].MeasuredAt)
	})
	return out
}

var _ healthlog.Repository = (*MemoryRepository)(nil)
