package comborepo

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

const comboColumns = `id, account_id, name, meal_type, need_codes, dishes, total, ratios, total_cook_minutes, created_at`

// PostgresRepository stores combos with their macro ratio vector in a pgvector column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, c combo.Combo) (combo.Combo, error) {
	dishes, err := json.Marshal(c.Dishes)
	if err != nil {
		return combo.Combo{}, err
	}
	total, err := json.Marshal(c.Total)
	if err != nil {
		return combo.Combo{}, err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO combos (id, account_id, name, meal_type, need_codes, dishes, total, ratios, total_cook_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.AccountID, c.Name, string(c.MealType), c.NeedCodes, dishes, total, toVector(c.Ratios), c.TotalCookMinutes, c.CreatedAt)
	if err != nil {
		return combo.Combo{}, err
	}
	return c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (combo.Combo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+comboColumns+` FROM combos WHERE id = $1 LIMIT 1`, id)
	c, err := scanCombo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return combo.Combo{}, combo.ErrNotFound
	}
	return c, err
}

func (r *PostgresRepository) List(ctx context.Context, filter combo.ListFilter) ([]combo.Combo, error) {
	query := `SELECT ` + comboColumns + ` FROM combos`
	args := []any{}
	if filter.MealType != "" {
		query += ` WHERE meal_type = $1`
		args = append(args, string(filter.MealType))
	}
	query += ` ORDER BY created_at DESC, id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	combos := make([]combo.Combo, 0)
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}
	return combos, rows.Err()
}

func (r *PostgresRepository) Nearest(ctx context.Context, target nutrition.MacroRatios, limit int) ([]combo.Recommendation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+comboColumns+`, (ratios <-> $1) AS distance
		FROM combos
		ORDER BY ratios <-> $1 ASC, id ASC
		LIMIT $2
	`, toVector(target), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := make([]combo.Recommendation, 0, limit)
	for rows.Next() {
		var distance float64
		c, err := scanCombo(rows, &distance)
		if err != nil {
			return nil, err
		}
		recs = append(recs, combo.Recommendation{Combo: c, Distance: distance})
	}
	return recs, rows.Err()
}

func scanCombo(row pgx.Row, extra ...any) (combo.Combo, error) {
	var (
		c         combo.Combo
		mealType  string
		dishesRaw []byte
		totalRaw  []byte
		ratios    pgvector.Vector
	)
	dest := []any{&c.ID, &c.AccountID, &c.Name, &mealType, &c.NeedCodes, &dishesRaw, &totalRaw, &ratios, &c.TotalCookMinutes, &c.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return combo.Combo{}, err
	}
	c.MealType = nutrition.MealType(mealType)
	if err := json.Unmarshal(dishesRaw, &c.Dishes); err != nil {
		return combo.Combo{}, err
	}
	if err := json.Unmarshal(totalRaw, &c.Total); err != nil {
		return combo.Combo{}, err
	}
	if v := ratios.Slice(); len(v) == 3 {
		c.Ratios = nutrition.MacroRatios{Protein: float64(v[0]), Fat: float64(v[1]), Carbs: float64(v[2])}
	}
	return c, nil
}

func toVector(r nutrition.MacroRatios) pgvector.Vector {
	return pgvector.NewVector([]float32{float32(r.Protein), float32(r.Fat), float32(r.Carbs)})
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

var _ combo.Repository = (*PostgresRepository)(nil)
