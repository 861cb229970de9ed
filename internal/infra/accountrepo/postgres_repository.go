package accountrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/nutriforecast/internal/domain/auth"
)

const uniqueViolation = "23505"

// PostgresRepository persists family accounts in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new account row.
func (r *PostgresRepository) Create(ctx context.Context, email, familyName, passwordHash string) (auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, family_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, family_name, password_hash, created_at
	`, email, familyName, passwordHash)
	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.Account{}, auth.ErrEmailExists
		}
		return auth.Account{}, err
	}
	return account, nil
}

// GetByEmail fetches an account by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.Account, bool, error) {
	return r.getOne(ctx, `
		SELECT id, email, family_name, password_hash, created_at
		FROM accounts
		WHERE email = $1
		LIMIT 1
	`, email)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (auth.Account, bool, error) {
	return r.getOne(ctx, `
		SELECT id, email, family_name, password_hash, created_at
		FROM accounts
		WHERE id = $1
		LIMIT 1
	`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (auth.Account, bool, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return auth.Account{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return auth.Account{}, false, rows.Err()
	}
	account, err := scanAccount(rows)
	if err != nil {
		return auth.Account{}, false, err
	}
	return account, true, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (auth.Account, error) {
	var account auth.Account
	var created time.Time
	if err := row.Scan(&account.ID, &account.Email, &account.FamilyName, &account.PasswordHash, &created); err != nil {
		return auth.Account{}, err
	}
	account.CreatedAt = created.UTC()
	return account, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)
