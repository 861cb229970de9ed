package familyrepo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

const memberColumns = `id, account_id, name, gender, birth_date, height_cm, weight_kg, age_group,
	exercise_frequency, exercise_duration, exercise_intensity, default_intake, created_at, updated_at`

// PostgresRepository persists members in the family_members table. Deletes are soft.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, m family.Member) (family.Member, error) {
	intake, err := encodeIntake(m.DefaultIntake)
	if err != nil {
		return family.Member{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO family_members (id, account_id, name, gender, birth_date, height_cm, weight_kg, age_group,
			exercise_frequency, exercise_duration, exercise_intensity, default_intake, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+memberColumns,
		m.ID, m.AccountID, m.Name, m.Gender, m.BirthDate, m.HeightCM, m.WeightKG, m.AgeGroup,
		m.ExerciseFrequency, m.ExerciseDuration, m.ExerciseIntensity, intake, m.CreatedAt, m.UpdatedAt)
	return scanMember(row)
}

func (r *PostgresRepository) List(ctx context.Context, accountID int64) ([]family.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM family_members
		WHERE account_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]family.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, accountID int64, id string) (family.Member, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM family_members
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
		LIMIT 1
	`, id, accountID)
	return scanMember(row)
}

func (r *PostgresRepository) Update(ctx context.Context, m family.Member) (family.Member, error) {
	intake, err := encodeIntake(m.DefaultIntake)
	if err != nil {
		return family.Member{}, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE family_members
		SET name = $3, gender = $4, birth_date = $5, height_cm = $6, weight_kg = $7, age_group = $8,
			exercise_frequency = $9, exercise_duration = $10, exercise_intensity = $11,
			default_intake = $12, updated_at = $13
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
		RETURNING `+memberColumns,
		m.ID, m.AccountID, m.Name, m.Gender, m.BirthDate, m.HeightCM, m.WeightKG, m.AgeGroup,
		m.ExerciseFrequency, m.ExerciseDuration, m.ExerciseIntensity, intake, m.UpdatedAt)
	return scanMember(row)
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID int64, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE family_members
		SET deleted_at = NOW()
		WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
	`, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return family.ErrNotFound
	}
	return nil
}

func scanMember(row pgx.Row) (family.Member, error) {
	var (
		m         family.Member
		intakeRaw []byte
	)
	err := row.Scan(&m.ID, &m.AccountID, &m.Name, &m.Gender, &m.BirthDate, &m.HeightCM, &m.WeightKG, &m.AgeGroup,
		&m.ExerciseFrequency, &m.ExerciseDuration, &m.ExerciseIntensity, &intakeRaw, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return family.Member{}, family.ErrNotFound
		}
		return family.Member{}, err
	}
	if len(intakeRaw) > 0 {
		var intake nutrition.Intake
		if err := json.Unmarshal(intakeRaw, &intake); err != nil {
			return family.Member{}, err
		}
		m.DefaultIntake = &intake
	}
	return m, nil
}

func encodeIntake(intake *nutrition.Intake) ([]byte, error) {
	if intake == nil {
		return nil, nil
	}
	return json.Marshal(intake)
}

var _ family.Repository = (*PostgresRepository)(nil)
