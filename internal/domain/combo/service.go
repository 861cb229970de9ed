package combo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
	"github.com/yanqian/nutriforecast/pkg/util"
)

const (
	maxNameLen        = 80
	maxDishes         = 12
	defaultListLimit  = 50
	defaultRecommend  = 3
	maxRecommendLimit = 20
)

// Service manages meal combos and turns them into shared intakes.
type Service interface {
	Create(ctx context.Context, accountID int64, req CreateRequest) (Combo, error)
	Get(ctx context.Context, id string) (Combo, error)
	List(ctx context.Context, mealType string, limit int) ([]Combo, error)
	// Aggregate sums the portioned nutrients of every listed combo.
	Aggregate(ctx context.Context, ids []string) (nutrition.Intake, error)
	Recommend(ctx context.Context, ageGroup string, limit int) ([]Recommendation, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the combo service.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "combo.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Create(ctx context.Context, accountID int64, req CreateRequest) (Combo, error) {
	c, err := buildCombo(req)
	if err != nil {
		return Combo{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	c.ID = uuid.NewString()
	c.AccountID = accountID
	c.CreatedAt = s.now()
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return Combo{}, apperrors.Wrap("combo_error", "failed to save combo", err)
	}
	s.logger.Info("combo created", "combo_id", created.ID, "dishes", len(created.Dishes))
	return created, nil
}

func (s *service) Get(ctx context.Context, id string) (Combo, error) {
	c, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Combo{}, apperrors.Wrap("not_found", fmt.Sprintf("combo %q not found", id), err)
		}
		return Combo{}, apperrors.Wrap("combo_error", "failed to load combo", err)
	}
	return c, nil
}

func (s *service) List(ctx context.Context, mealType string, limit int) ([]Combo, error) {
	filter := ListFilter{Limit: limit}
	if strings.TrimSpace(mealType) != "" {
		meal, err := nutrition.ParseMealType(mealType)
		if err != nil {
			return nil, apperrors.Wrap("invalid_input", err.Error(), err)
		}
		filter.MealType = meal
	}
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	combos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap("combo_error", "failed to list combos", err)
	}
	return combos, nil
}

func (s *service) Aggregate(ctx context.Context, ids []string) (nutrition.Intake, error) {
	if len(ids) == 0 {
		return nutrition.Intake{}, apperrors.Wrap("invalid_input", "at least one combo id is required", nil)
	}
	var total nutrition.Intake
	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nutrition.Intake{}, err
		}
		total = total.Add(c.Total)
	}
	return roundIntake(total), nil
}

func (s *service) Recommend(ctx context.Context, ageGroup string, limit int) ([]Recommendation, error) {
	group, err := nutrition.ParseAgeGroup(ageGroup)
	if err != nil {
		return nil, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	target, _ := nutrition.IdealMacroRatios(group)
	if limit <= 0 {
		limit = defaultRecommend
	}
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}
	recs, err := s.repo.Nearest(ctx, target, limit)
	if err != nil {
		return nil, apperrors.Wrap("combo_error", "failed to rank combos", err)
	}
	return recs, nil
}

func buildCombo(req CreateRequest) (Combo, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Combo{}, errors.New("name cannot be empty")
	}
	if len([]rune(name)) > maxNameLen {
		return Combo{}, fmt.Errorf("name cannot exceed %d characters", maxNameLen)
	}
	meal, err := nutrition.ParseMealType(req.MealType)
	if err != nil {
		return Combo{}, err
	}
	if len(req.Dishes) == 0 {
		return Combo{}, errors.New("a combo needs at least one dish")
	}
	if len(req.Dishes) > maxDishes {
		return Combo{}, fmt.Errorf("a combo holds at most %d dishes", maxDishes)
	}

	c := Combo{
		Name:      name,
		MealType:  meal,
		NeedCodes: normalizeCodes(req.NeedCodes),
		Dishes:    make([]Dish, 0, len(req.Dishes)),
	}
	var total nutrition.Intake
	for i, dish := range req.Dishes {
		dish.Name = strings.TrimSpace(dish.Name)
		if dish.Name == "" {
			return Combo{}, fmt.Errorf("dishes[%d].name cannot be empty", i)
		}
		dish.PortionSize = strings.ToUpper(strings.TrimSpace(dish.PortionSize))
		if dish.PortionSize == "" {
			dish.PortionSize = PortionMedium
		}
		if _, ok := portionRatios[dish.PortionSize]; !ok {
			return Combo{}, fmt.Errorf("dishes[%d].portionSize must be one of S, M, L", i)
		}
		if dish.CookMinutes < 0 {
			return Combo{}, fmt.Errorf("dishes[%d].cookMinutes cannot be negative", i)
		}
		if !validNutrients(dish.Nutrients) {
			return Combo{}, fmt.Errorf("dishes[%d].nutrients must be finite and non-negative", i)
		}
		c.Dishes = append(c.Dishes, dish)
		c.TotalCookMinutes += dish.CookMinutes
		total = total.Add(dish.Intake())
	}
	c.Total = roundIntake(total)
	c.Ratios = nutrition.EnergyRatios(c.Total.Calories, c.Total.ProteinG, c.Total.FatG, c.Total.CarbsG)
	return c, nil
}

func validNutrients(in nutrition.Intake) bool {
	for _, v := range []float64{in.Calories, in.ProteinG, in.FatG, in.CarbsG} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func roundIntake(in nutrition.Intake) nutrition.Intake {
	r := func(x float64) float64 { return math.Floor(x*10+0.5) / 10 }
	return nutrition.Intake{
		Calories: r(in.Calories),
		ProteinG: r(in.ProteinG),
		FatG:     r(in.FatG),
		CarbsG:   r(in.CarbsG),
	}
}
