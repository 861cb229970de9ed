package family

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
	"github.com/yanqian/nutriforecast/pkg/util"
)

// Service manages the members of a family account.
type Service interface {
	Create(ctx context.Context, accountID int64, in MemberInput) (Member, error)
	List(ctx context.Context, accountID int64) ([]Member, error)
	Get(ctx context.Context, accountID int64, id string) (Member, error)
	Update(ctx context.Context, accountID int64, id string, in MemberInput) (Member, error)
	Delete(ctx context.Context, accountID int64, id string) error
	// Profiles loads members as engine input with their age as of today.
	Profiles(ctx context.Context, accountID int64, ids []string) ([]nutrition.ProfileInput, error)
	MealTargets(ctx context.Context, accountID int64, id, meal string) (nutrition.MealTarget, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the family service.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "family.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Create(ctx context.Context, accountID int64, in MemberInput) (Member, error) {
	member, err := s.buildMember(in)
	if err != nil {
		return Member{}, err
	}
	now := s.now()
	member.ID = uuid.NewString()
	member.AccountID = accountID
	member.CreatedAt = now
	member.UpdatedAt = now
	created, err := s.repo.Create(ctx, member)
	if err != nil {
		return Member{}, apperrors.Wrap("family_error", "failed to create member", err)
	}
	s.logger.Info("member created", "account_id", accountID, "member_id", created.ID)
	return created, nil
}

func (s *service) List(ctx context.Context, accountID int64) ([]Member, error) {
	members, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, apperrors.Wrap("family_error", "failed to list members", err)
	}
	return members, nil
}

func (s *service) Get(ctx context.Context, accountID int64, id string) (Member, error) {
	member, err := s.repo.Get(ctx, accountID, strings.TrimSpace(id))
	if err != nil {
		return Member{}, wrapRepoErr(err, "failed to load member")
	}
	return member, nil
}

func (s *service) Update(ctx context.Context, accountID int64, id string, in MemberInput) (Member, error) {
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return Member{}, err
	}
	member, err := s.buildMember(in)
	if err != nil {
		return Member{}, err
	}
	member.ID = existing.ID
	member.AccountID = accountID
	member.CreatedAt = existing.CreatedAt
	member.UpdatedAt = s.now()
	updated, err := s.repo.Update(ctx, member)
	if err != nil {
		return Member{}, wrapRepoErr(err, "failed to update member")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, accountID int64, id string) error {
	if err := s.repo.Delete(ctx, accountID, strings.TrimSpace(id)); err != nil {
		return wrapRepoErr(err, "failed to delete member")
	}
	s.logger.Info("member deleted", "account_id", accountID, "member_id", id)
	return nil
}

func (s *service) Profiles(ctx context.Context, accountID int64, ids []string) ([]nutrition.ProfileInput, error) {
	out := make([]nutrition.ProfileInput, 0, len(ids))
	today := s.now()
	for _, id := range ids {
		member, err := s.Get(ctx, accountID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ToProfileInput(member, today))
	}
	return out, nil
}

func (s *service) MealTargets(ctx context.Context, accountID int64, id, meal string) (nutrition.MealTarget, error) {
	mealType, err := nutrition.ParseMealType(defaultString(meal, string(nutrition.MealAll)))
	if err != nil {
		return nutrition.MealTarget{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	member, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nutrition.MealTarget{}, err
	}
	in := ToProfileInput(member, s.now())
	in.Intake = nil
	profile, err := nutrition.ParseProfile(in, false)
	if err != nil {
		return nutrition.MealTarget{}, apperrors.WrapDetails("invalid_input", "stored member is no longer valid", err, err)
	}
	return nutrition.MealTargets(profile, mealType)
}

// ToProfileInput converts a member into engine input with the age on the given day.
func ToProfileInput(m Member, on time.Time) nutrition.ProfileInput {
	return nutrition.ProfileInput{
		ID:                m.ID,
		Name:              m.Name,
		Gender:            m.Gender,
		Age:               util.AgeOn(m.BirthDate, on),
		AgeGroup:          m.AgeGroup,
		HeightCM:          m.HeightCM,
		WeightKG:          m.WeightKG,
		Intake:            m.DefaultIntake,
		ExerciseFrequency: m.ExerciseFrequency,
		ExerciseDuration:  m.ExerciseDuration,
		ExerciseIntensity: m.ExerciseIntensity,
	}
}

func (s *service) buildMember(in MemberInput) (Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Member{}, apperrors.Wrap("invalid_input", "name cannot be empty", nil)
	}
	birth, err := time.Parse(birthDateLayout, strings.TrimSpace(in.BirthDate))
	if err != nil {
		return Member{}, apperrors.Wrap("invalid_input", "birthDate must be formatted as YYYY-MM-DD", err)
	}
	if birth.After(s.now()) {
		return Member{}, apperrors.Wrap("invalid_input", "birthDate cannot be in the future", nil)
	}

	member := Member{
		Name:              name,
		BirthDate:         birth,
		HeightCM:          in.HeightCM,
		WeightKG:          in.WeightKG,
		AgeGroup:          strings.TrimSpace(in.AgeGroup),
		Gender:            in.Gender,
		ExerciseFrequency: in.ExerciseFrequency,
		ExerciseDuration:  in.ExerciseDuration,
		ExerciseIntensity: in.ExerciseIntensity,
		DefaultIntake:     in.DefaultIntake,
	}
	profile, err := nutrition.ParseProfile(ToProfileInput(member, s.now()), false)
	if err != nil {
		return Member{}, apperrors.WrapDetails("invalid_input", "invalid member", err, err)
	}
	member.Gender = string(profile.Gender)
	member.ExerciseFrequency = string(profile.Exercise.Frequency)
	member.ExerciseDuration = string(profile.Exercise.Duration)
	member.ExerciseIntensity = string(profile.Exercise.Intensity)
	if member.AgeGroup != "" {
		member.AgeGroup = string(profile.AgeGroup)
	}
	return member, nil
}

func wrapRepoErr(err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap("not_found", "member not found", err)
	}
	return apperrors.Wrap("family_error", message, err)
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
