package nutrition

// MealTarget is the share of the daily baseline planned for one meal.
type MealTarget struct {
	MealType MealType `json:"mealType"`
	Share    float64  `json:"share"`
	Calories float64  `json:"calories"`
	ProteinG float64  `json:"proteinG"`
	FatG     float64  `json:"fatG"`
	CarbsG   float64  `json:"carbsG"`
}

// MealTargets scales the baseline by the meal share.
func MealTargets(p Profile, meal MealType) (MealTarget, error) {
	share, ok := mealShare[meal]
	if !ok {
		return MealTarget{}, ValidationError{Field: "mealType", Value: string(meal), Reason: "must be one of breakfast, lunch, dinner, all"}
	}
	b := CalculateBaseline(p)
	return MealTarget{
		MealType: meal,
		Share:    share,
		Calories: round0(b.Calories * share),
		ProteinG: round1(b.ProteinG * share),
		FatG:     round1(b.FatG * share),
		CarbsG:   round1(b.CarbsG * share),
	}, nil
}
