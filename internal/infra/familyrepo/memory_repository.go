package familyrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/nutriforecast/internal/domain/family"
)

// MemoryRepository keeps members in process memory for local runs and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	members map[string]family.Member
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{members: make(map[string]family.Member)}
}

func (r *MemoryRepository) Create(_ context.Context, member family.Member) (family.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[member.ID] = member
	return member, nil
}

// List returns the account's members, oldest first.
func (r *MemoryRepository) List(_ context.Context, accountID int64) ([]family.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]family.Member, 0)
	for _, member := range r.members {
		if member.AccountID == accountID {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, accountID int64, id string) (family.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[id]
	if !ok || member.AccountID != accountID {
		return family.Member{}, family.ErrNotFound
	}
	return member, nil
}

func (r *MemoryRepository) Update(_ context.Context, member family.Member) (family.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.members[member.ID]
	if !ok || existing.AccountID != member.AccountID {
		return family.Member{}, family.ErrNotFound
	}
	r.members[member.ID] = member
	return member, nil
}

func (r *MemoryRepository) Delete(_ context.Context, accountID int64, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[id]
	if !ok || member.AccountID != accountID {
		return family.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

var _ family.Repository = (*MemoryRepository)(nil)
