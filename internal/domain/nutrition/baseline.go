package nutrition

// AdvancedBMR applies the age group and gender corrections to Mifflin-St Jeor.
func AdvancedBMR(heightCM, weightKG float64, age int, gender Gender, group AgeGroup) float64 {
	base := 10*weightKG + 6.25*heightCM - 5*float64(age) + bmrGenderOffset[gender]
	return base * ageGroupBMRFactor[group] * genderBMRFactor[gender]
}

func profileBMR(p Profile) float64 {
	return AdvancedBMR(p.HeightCM, p.WeightKG, p.Age, p.Gender, p.AgeGroup)
}

// CalculateBaseline derives the daily targets from BMR alone.
func CalculateBaseline(p Profile) Baseline {
	bmr := profileBMR(p)
	return Baseline{
		Calories: round0(bmr),
		ProteinG: round1(p.WeightKG * baselineProteinPerKg),
		FatG:     round1(bmr * baselineFatShare / kcalPerGramFat),
		CarbsG:   round1(bmr * baselineCarbsShare / kcalPerGramCarbs),
		BMR:      round0(bmr),
		TDEE:     round0(bmr),
	}
}

// EnergyRatios converts grams into energy fractions of calories.
// Zero or negative calories yield zero ratios.
func EnergyRatios(calories, proteinG, fatG, carbsG float64) MacroRatios {
	if calories <= 0 {
		return MacroRatios{}
	}
	return MacroRatios{
		Protein: proteinG * kcalPerGramProtein / calories,
		Fat:     fatG * kcalPerGramFat / calories,
		Carbs:   carbsG * kcalPerGramCarbs / calories,
	}
}

// CalculateDifferences compares the intake with the baseline.
func CalculateDifferences(intake Intake, baseline Baseline) Differences {
	actual := EnergyRatios(intake.Calories, intake.ProteinG, intake.FatG, intake.CarbsG)
	target := EnergyRatios(baseline.Calories, baseline.ProteinG, baseline.FatG, baseline.CarbsG)
	return Differences{
		Absolute: Intake{
			Calories: round1(intake.Calories - baseline.Calories),
			ProteinG: round1(intake.ProteinG - baseline.ProteinG),
			FatG:     round1(intake.FatG - baseline.FatG),
			CarbsG:   round1(intake.CarbsG - baseline.CarbsG),
		},
		Ratios: MacroRatios{
			Protein: actual.Protein - target.Protein,
			Fat:     actual.Fat - target.Fat,
			Carbs:   actual.Carbs - target.Carbs,
		},
		ActualRatios:   actual,
		BaselineRatios: target,
	}
}
