package combo_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	"github.com/yanqian/nutriforecast/internal/infra/comborepo"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
)

func TestService_CreateScalesPortions(t *testing.T) {
	svc := newTestService()

	c, err := svc.Create(context.Background(), 1, combo.CreateRequest{
		Name:      "Rice bowl",
		MealType:  "Lunch",
		NeedCodes: []string{"high_protein", " HIGH_PROTEIN ", ""},
		Dishes: []combo.Dish{
			{Name: "Rice", PortionSize: "l", CookMinutes: 20, Nutrients: nutrition.Intake{Calories: 200, ProteinG: 4, FatG: 0.5, CarbsG: 45}},
			{Name: "Chicken", CookMinutes: 15, Nutrients: nutrition.Intake{Calories: 300, ProteinG: 40, FatG: 12, CarbsG: 0}},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Equal(t, nutrition.MealLunch, c.MealType)
	require.Equal(t, []string{"HIGH_PROTEIN"}, c.NeedCodes)
	require.Equal(t, "M", c.Dishes[1].PortionSize)
	require.Equal(t, 35, c.TotalCookMinutes)
	require.Equal(t, nutrition.Intake{Calories: 600, ProteinG: 46, FatG: 12.8, CarbsG: 67.5}, c.Total)
	require.InDelta(t, 46*4/600.0, c.Ratios.Protein, 1e-9)
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []combo.CreateRequest{
		{Name: "", MealType: "lunch", Dishes: []combo.Dish{{Name: "x"}}},
		{Name: "No dishes", MealType: "lunch"},
		{Name: "Bad meal", MealType: "brunch", Dishes: []combo.Dish{{Name: "x"}}},
		{Name: "Bad portion", MealType: "dinner", Dishes: []combo.Dish{{Name: "x", PortionSize: "XL"}}},
		{Name: "Negative", MealType: "dinner", Dishes: []combo.Dish{{Name: "x", Nutrients: nutrition.Intake{FatG: -1}}}},
	}
	for _, req := range cases {
		_, err := svc.Create(ctx, 1, req)
		require.True(t, apperrors.IsCode(err, "invalid_input"), req.Name)
	}
}

func TestService_AggregateAndRecommend(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	balanced, err := svc.Create(ctx, 1, combo.CreateRequest{
		Name:     "Balanced",
		MealType: "dinner",
		Dishes:   []combo.Dish{{Name: "Plate", Nutrients: nutrition.Intake{Calories: 800, ProteinG: 50, FatG: 22.2, CarbsG: 100}}},
	})
	require.NoError(t, err)
	fatty, err := svc.Create(ctx, 1, combo.CreateRequest{
		Name:     "Fry-up",
		MealType: "breakfast",
		Dishes:   []combo.Dish{{Name: "Fry", Nutrients: nutrition.Intake{Calories: 900, ProteinG: 20, FatG: 70, CarbsG: 45}}},
	})
	require.NoError(t, err)

	total, err := svc.Aggregate(ctx, []string{balanced.ID, fatty.ID})
	require.NoError(t, err)
	require.Equal(t, nutrition.Intake{Calories: 1700, ProteinG: 70, FatG: 92.2, CarbsG: 145}, total)

	_, err = svc.Aggregate(ctx, []string{balanced.ID, "missing"})
	require.True(t, apperrors.IsCode(err, "not_found"))

	_, err = svc.Aggregate(ctx, nil)
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	recs, err := svc.Recommend(ctx, "young", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, balanced.ID, recs[0].Combo.ID)

	recs, err = svc.Recommend(ctx, "senior", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.LessOrEqual(t, recs[0].Distance, recs[1].Distance)

	_, err = svc.Recommend(ctx, "toddler", 3)
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	dinners, err := svc.List(ctx, "dinner", 0)
	require.NoError(t, err)
	require.Len(t, dinners, 1)
}

func newTestService() combo.Service {
	return combo.NewService(comborepo.NewMemoryRepository(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}
