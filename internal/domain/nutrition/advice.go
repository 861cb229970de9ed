package nutrition

import "math"

// Tip is a single advice line with a stable code for clients.
type Tip struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Advice groups the tips shown next to a forecast.
type Advice struct {
	Nutrition []Tip  `json:"nutrition"`
	Exercise  []Tip  `json:"exercise"`
	Goal      []Tip  `json:"goal"`
	PlanPhase string `json:"planPhase"`
	Plan      []Tip  `json:"plan"`
}

const (
	levelWarn = "warn"
	levelOK   = "ok"
	levelInfo = "info"
)

// BuildAdvice derives rule-based advice from a computed result.
func BuildAdvice(p Profile, diff Differences, pred Prediction) Advice {
	return Advice{
		Nutrition: nutritionTips(diff, pred),
		Exercise:  exerciseTips(p.Exercise),
		Goal:      goalTips(pred),
		PlanPhase: planPhase(pred),
		Plan:      planTips(p, pred),
	}
}

func nutritionTips(diff Differences, pred Prediction) []Tip {
	var tips []Tip
	if pred.SynergyScore < 60 {
		tips = append(tips, Tip{"macro_balance", levelWarn, "Macronutrient ratios need work, rebalance protein, fat and carbs"})
	}
	switch {
	case diff.Absolute.ProteinG < -10:
		tips = append(tips, Tip{"protein_low", levelWarn, "Protein intake is low, add quality protein sources"})
	case diff.Absolute.ProteinG > 20:
		tips = append(tips, Tip{"protein_sufficient", levelOK, "Protein intake is sufficient to maintain muscle"})
	}
	if diff.Absolute.FatG > 15 {
		tips = append(tips, Tip{"fat_high", levelWarn, "Fat intake is high, cut down on fried and fatty foods"})
	}
	if diff.Absolute.CarbsG < -50 {
		tips = append(tips, Tip{"carbs_low", levelWarn, "Carbohydrate intake is low and may limit exercise performance"})
	}
	if len(tips) == 0 {
		tips = append(tips, Tip{"nutrition_balanced", levelOK, "Current intake is reasonably balanced"})
	}
	return tips
}

func exerciseTips(ex Exercise) []Tip {
	var tips []Tip
	switch ex.Frequency {
	case FrequencySedentary:
		tips = append(tips, Tip{"move_more", levelWarn, "Activity is low, aim for at least three sessions a week"})
	case FrequencyAthlete:
		tips = append(tips, Tip{"recovery", levelOK, "Training volume is high, prioritise recovery and refuelling"})
	}
	switch ex.Intensity {
	case IntensityLow:
		tips = append(tips, Tip{"raise_intensity", levelWarn, "Intensity is low, consider harder sessions"})
	case IntensityVeryHigh:
		tips = append(tips, Tip{"protein_for_training", levelOK, "High intensity training, make sure protein intake keeps up"})
	}
	if len(tips) == 0 {
		tips = append(tips, Tip{"exercise_ok", levelOK, "Current exercise plan is reasonable"})
	}
	return tips
}

func goalTips(pred Prediction) []Tip {
	var tips []Tip
	switch {
	case pred.WeightShiftKG > 1.5:
		tips = append(tips, Tip{"gaining_fast", levelWarn, "Weight is rising quickly, keep the surplus to 300-500 kcal"})
	case pred.WeightShiftKG < -1.5:
		tips = append(tips, Tip{"losing_fast", levelWarn, "Weight is falling quickly, raise protein to protect muscle"})
	case math.Abs(pred.WeightShiftKG) < 0.5:
		tips = append(tips, Tip{"weight_stable", levelOK, "Weight is stable"})
	}
	switch {
	case pred.MuscleRatio > 0.6:
		tips = append(tips, Tip{"muscle_gain_good", levelOK, "Muscle share of the change is excellent"})
	case pred.MuscleRatio < 0.3:
		tips = append(tips, Tip{"muscle_loss", levelWarn, "Large share of muscle in the change, add strength training"})
	}
	if len(tips) == 0 {
		tips = append(tips, Tip{"goal_on_track", levelOK, "Current plan fits a healthy goal"})
	}
	return tips
}

func planPhase(pred Prediction) string {
	switch {
	case pred.WeightShiftKG > 0:
		return "gain"
	case pred.WeightShiftKG < 0:
		return "loss"
	default:
		return "maintain"
	}
}

func planTips(p Profile, pred Prediction) []Tip {
	var tips []Tip
	switch planPhase(pred) {
	case "gain":
		tips = append(tips,
			Tip{"surplus", levelInfo, "Daily surplus of 300-500 kcal"},
			Tip{"protein_target", levelInfo, "Protein 1.6-2.2 g per kg body weight"},
			Tip{"strength", levelInfo, "Combine with strength training to build muscle"},
		)
	case "loss":
		tips = append(tips,
			Tip{"deficit", levelInfo, "Daily deficit of 300-500 kcal"},
			Tip{"protein_target", levelInfo, "Protein 1.8-2.4 g per kg body weight"},
			Tip{"strength", levelInfo, "Keep strength training to limit muscle loss"},
		)
	default:
		tips = append(tips,
			Tip{"hold_calories", levelInfo, "Keep current calorie intake"},
			Tip{"protein_target", levelInfo, "Protein 1.2-1.6 g per kg body weight"},
			Tip{"review", levelInfo, "Review and adjust regularly"},
		)
	}
	switch p.AgeGroup {
	case AgeGroupSenior:
		tips = append(tips, Tip{"senior_focus", levelInfo, "Focus on protein, vitamin D and calcium"})
	case AgeGroupChild, AgeGroupTeen:
		tips = append(tips, Tip{"growth_focus", levelInfo, "Growing years: balanced nutrition with regular activity"})
	}
	return tips
}
