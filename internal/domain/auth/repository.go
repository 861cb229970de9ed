package auth

import "context"

// Repository abstracts account persistence.
type Repository interface {
	Create(ctx context.Context, email, familyName, passwordHash string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, bool, error)
	GetByID(ctx context.Context, id int64) (Account, bool, error)
}
