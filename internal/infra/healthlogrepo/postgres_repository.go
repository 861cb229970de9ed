package healthlogrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/nutriforecast/internal/domain/healthlog"
)

const entryColumns = `id, account_id, member_id, code, value, unit, status, source, measured_at, created_at`

// PostgresRepository persists measurements in the member_metrics table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, e healthlog.Entry) (healthlog.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO member_metrics (id, account_id, member_id, code, value, unit, status, source, measured_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+entryColumns,
		e.ID, e.AccountID, e.MemberID, string(e.Code), e.Value, e.Unit, string(e.Status), string(e.Source), e.MeasuredAt, e.CreatedAt)
	return scanEntry(row)
}

func (r *PostgresRepository) List(ctx context.Context, accountID int64, memberID string, code healthlog.MetricCode, limit int) ([]healthlog.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM member_metrics
		WHERE account_id = $1 AND member_id = $2 AND ($3::text = '' OR code = $3)
		ORDER BY measured_at DESC, created_at DESC
		LIMIT $4
	`, accountID, memberID, string(code), limit)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (r *PostgresRepository) Latest(ctx context.Context, accountID int64, memberID string) ([]healthlog.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (code) `+entryColumns+`
		FROM member_metrics
		WHERE account_id = $1 AND member_id = $2
		ORDER BY code, measured_at DESC, created_at DESC
	`, accountID, memberID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (r *PostgresRepository) Since(ctx context.Context, accountID int64, memberID string, codes []healthlog.MetricCode, since time.Time) ([]healthlog.Entry, error) {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = string(c)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM member_metrics
		WHERE account_id = $1 AND member_id = $2 AND code = ANY($3) AND measured_at >= $4
		ORDER BY measured_at DESC, created_at DESC
	`, accountID, memberID, names, since)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]healthlog.Entry, error) {
	defer rows.Close()
	out := make([]healthlog.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (healthlog.Entry, error) {
	var (
		e                    healthlog.Entry
		code, status, source string
	)
	if err := row.Scan(&e.ID, &e.AccountID, &e.MemberID, &code, &e.Value, &e.Unit, &status, &source, &e.MeasuredAt, &e.CreatedAt); err != nil {
		return healthlog.Entry{}, err
	}
	e.Code = healthlog.MetricCode(code)
	e.Status = healthlog.Status(status)
	e.Source = healthlog.Source(source)
	return e, nil
}

var _ healthlog.Repository = (*PostgresRepository)(nil)
