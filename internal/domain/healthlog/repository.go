package healthlog

import (
	"context"
	"time"
)

// Repository persists measurements. Every call is scoped to an account.
type Repository interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	// List returns entries newest first, filtered by code when code is set.
	List(ctx context.Context, accountID int64, memberID string, code MetricCode, limit int) ([]Entry, error)
	// Latest returns the newest entry of every code.
	Latest(ctx context.Context, accountID int64, memberID string) ([]Entry, error)
	// Since returns entries of the given codes measured at or after since.
	Since(ctx context.Context, accountID int64, memberID string, codes []MetricCode, since time.Time) ([]Entry, error)
}
