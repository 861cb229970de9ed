package family

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
)

func TestService_CreateAndMealTargets(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	member, err := svc.Create(ctx, 7, MemberInput{
		Name:              " Dad ",
		Gender:            "Male",
		BirthDate:         "1990-01-01",
		HeightCM:          175,
		WeightKG:          70,
		AgeGroup:          "middle",
		ExerciseFrequency: "MODERATE",
		ExerciseDuration:  "medium",
		ExerciseIntensity: "medium",
	})
	require.NoError(t, err)
	require.NotEmpty(t, member.ID)
	require.Equal(t, "Dad", member.Name)
	require.Equal(t, "male", member.Gender)
	require.Equal(t, "moderate", member.ExerciseFrequency)

	lunch, err := svc.MealTargets(ctx, 7, member.ID, "lunch")
	require.NoError(t, err)
	require.Equal(t, 682.0, lunch.Calories)
	require.Equal(t, 33.6, lunch.ProteinG)

	all, err := svc.MealTargets(ctx, 7, member.ID, "")
	require.NoError(t, err)
	require.Equal(t, nutrition.MealAll, all.MealType)
	require.Equal(t, 1705.0, all.Calories)

	_, err = svc.MealTargets(ctx, 7, member.ID, "brunch")
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.MealTargets(ctx, 8, member.ID, "lunch")
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_RejectsInvalidMember(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, MemberInput{Name: "Kid", BirthDate: "2030-01-01"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Create(ctx, 1, MemberInput{Name: "Kid", BirthDate: "01/02/2015"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Create(ctx, 1, MemberInput{
		Name:              "Kid",
		Gender:            "robot",
		BirthDate:         "2015-03-01",
		HeightCM:          300,
		WeightKG:          30,
		ExerciseFrequency: "light",
		ExerciseDuration:  "short",
		ExerciseIntensity: "low",
	})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
	details, ok := apperrors.DetailsOf(err).(nutrition.ValidationErrors)
	require.True(t, ok)
	require.Len(t, details, 2)
	require.Equal(t, "gender", details[0].Field)
	require.Equal(t, "heightCm", details[1].Field)
}

func TestService_UpdateDeleteAndProfiles(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	input := MemberInput{
		Name:              "Grandma",
		Gender:            "female",
		BirthDate:         "1950-09-15",
		HeightCM:          155,
		WeightKG:          55,
		ExerciseFrequency: "light",
		ExerciseDuration:  "short",
		ExerciseIntensity: "low",
	}
	member, err := svc.Create(ctx, 3, input)
	require.NoError(t, err)

	input.WeightKG = 53
	updated, err := svc.Update(ctx, 3, member.ID, input)
	require.NoError(t, err)
	require.Equal(t, 53.0, updated.WeightKG)
	require.Equal(t, member.CreatedAt, updated.CreatedAt)

	profiles, err := svc.Profiles(ctx, 3, []string{member.ID})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Equal(t, 74, profiles[0].Age)
	require.Equal(t, member.ID, profiles[0].ID)

	members, err := svc.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, svc.Delete(ctx, 3, member.ID))
	_, err = svc.Get(ctx, 3, member.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))
	require.True(t, apperrors.IsCode(svc.Delete(ctx, 3, member.ID), "not_found"))
}

func newTestService() *service {
	svc := NewService(newMemoryRepo(), slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

type memoryRepo struct {
	members map[string]Member
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{members: make(map[string]Member)}
}

func (m *memoryRepo) Create(_ context.Context, member Member) (Member, error) {
	m.members[member.ID] = member
	return member, nil
}

func (m *memoryRepo) List(_ context.Context, accountID int64) ([]Member, error) {
	var out []Member
	for _, member := range m.members {
		if member.AccountID == accountID {
			out = append(out, member)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, accountID int64, id string) (Member, error) {
	member, ok := m.members[id]
	if !ok || member.AccountID != accountID {
		return Member{}, ErrNotFound
	}
	return member, nil
}

func (m *memoryRepo) Update(_ context.Context, member Member) (Member, error) {
	if _, ok := m.members[member.ID]; !ok {
		return Member{}, ErrNotFound
	}
	m.members[member.ID] = member
	return member, nil
}

func (m *memoryRepo) Delete(_ context.Context, accountID int64, id string) error {
	member, ok := m.members[id]
	if !ok || member.AccountID != accountID {
		return ErrNotFound
	}
	delete(m.members, id)
	return nil
}
