package comborepo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// MemoryRepository keeps the combo catalogue in memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	combos map[string]combo.Combo
}

// NewMemoryRepository constructs an empty catalogue.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{combos: make(map[string]combo.Combo)}
}

func (r *MemoryRepository) Create(_ context.Context, c combo.Combo) (combo.Combo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.combos[c.ID] = c
	return c, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (combo.Combo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.combos[id]
	if !ok {
		return combo.Combo{}, combo.ErrNotFound
	}
	return c, nil
}

// List returns newest first.
func (r *MemoryRepository) List(_ context.Context, filter combo.ListFilter) ([]combo.Combo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]combo.Combo, 0, len(r.combos))
	for _, c := range r.combos {
		if filter.MealType != "" && c.MealType != filter.MealType {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) Nearest(_ context.Context, target nutrition.MacroRatios, limit int) ([]combo.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := make([]combo.Recommendation, 0, len(r.combos))
	for _, c := range r.combos {
		recs = append(recs, combo.Recommendation{Combo: c, Distance: distance(c.Ratios, target)})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Distance == recs[j].Distance {
			return recs[i].Combo.ID < recs[j].Combo.ID
		}
		return recs[i].Distance < recs[j].Distance
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func distance(a, b nutrition.MacroRatios) float64 {
	dp := a.Protein - b.Protein
	df := a.Fat - b.Fat
	dc := a.Carbs - b.Carbs
	return math.Sqrt(dp*dp + df*df + dc*dc)
}

var _ combo.Repository = (*MemoryRepository)(nil)
