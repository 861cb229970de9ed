package family

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a member does not exist for the account.
var ErrNotFound = errors.New("member not found")

// Repository persists members. Every call is scoped to an account.
type Repository interface {
	Create(ctx context.Context, member Member) (Member, error)
	List(ctx context.Context, accountID int64) ([]Member, error)
	Get(ctx context.Context, accountID int64, id string) (Member, error)
	Update(ctx context.Context, member Member) (Member, error)
	Delete(ctx context.Context, accountID int64, id string) error
}
