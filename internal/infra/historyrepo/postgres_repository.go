package historyrepo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
)

// PostgresRepository stores each record as a JSONB document in the analyses table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Save(ctx context.Context, record analysis.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO analyses (id, account_id, horizon_days, members, failed, report_key, record, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (id) DO UPDATE SET report_key = EXCLUDED.report_key, record = EXCLUDED.record
	`, record.ID, record.AccountID, record.Result.HorizonDays, len(record.Result.Outcomes),
		record.Result.Failed(), record.ReportKey, payload, record.CreatedAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, accountID int64, id string) (analysis.Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT account_id, record
		FROM analyses
		WHERE id = $1 AND account_id = $2
		LIMIT 1
	`, id, accountID)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return analysis.Record{}, analysis.ErrNotFound
	}
	return record, err
}

func (r *PostgresRepository) List(ctx context.Context, accountID int64, limit int) ([]analysis.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, record
		FROM analyses
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]analysis.Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (analysis.Record, error) {
	var (
		accountID int64
		raw       []byte
	)
	if err := row.Scan(&accountID, &raw); err != nil {
		return analysis.Record{}, err
	}
	var record analysis.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return analysis.Record{}, err
	}
	record.AccountID = accountID
	return record, nil
}

var _ analysis.HistoryRepository = (*PostgresRepository)(nil)
