package accountrepo

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/nutriforecast/internal/domain/auth"
)

// MemoryRepository provides an in-memory account store for tests/dev.
type MemoryRepository struct {
	mu         sync.RWMutex
	accounts   map[int64]auth.Account
	emailIndex map[string]int64
	seq        int64
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:   make(map[int64]auth.Account),
		emailIndex: make(map[string]int64),
	}
}

// Create stores the account record.
func (r *MemoryRepository) Create(_ context.Context, email, familyName, passwordHash string) (auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emailIndex[email]; exists {
		return auth.Account{}, auth.ErrEmailExists
	}
	r.seq++
	account := auth.Account{
		ID:           r.seq,
		Email:        email,
		FamilyName:   familyName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.accounts[account.ID] = account
	r.emailIndex[email] = account.ID
	return account, nil
}

// GetByEmail returns an account by email.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.emailIndex[email]; ok {
		return r.accounts[id], true, nil
	}
	return auth.Account{}, false, nil
}

// GetByID fetches by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	return account, ok, nil
}

var _ auth.Repository = (*MemoryRepository)(nil)
