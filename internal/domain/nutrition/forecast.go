package nutrition

import "math"

// ExerciseEnergy is the daily exercise expenditure on top of BMR.
func ExerciseEnergy(bmr float64, ex Exercise) float64 {
	return bmr * frequencyFactor[ex.Frequency] * durationFactor[ex.Duration] *
		intensityFactor[ex.Intensity] * exerciseEfficiencyIndex
}

// NutrientSynergy scores actual ratios against the age group ideal, in [0.1, 1].
func NutrientSynergy(actual MacroRatios, group AgeGroup) float64 {
	ideal := idealMacroRatios[group]
	deviation := math.Abs(actual.Protein-ideal.Protein) +
		math.Abs(actual.Fat-ideal.Fat) +
		math.Abs(actual.Carbs-ideal.Carbs)
	return clamp(1-2*deviation, minSynergyScore, maxSynergyScore)
}

// Composition is the unrounded fat and muscle split of a weight shift.
type Composition struct {
	FatShift          float64
	MuscleShift       float64
	MuscleRatio       float64
	OptimizationScore float64
}

// PredictBodyComposition splits totalShift into fat and muscle.
func PredictBodyComposition(ratioDiffs MacroRatios, totalShift float64, gender Gender, group AgeGroup, intensity Intensity) Composition {
	base := baseMuscleRatio[gender][group]
	var ratio float64
	if totalShift > 0 {
		ratio = base
		switch {
		case ratioDiffs.Protein > proteinRatioThreshold:
			ratio += 0.20
		case ratioDiffs.Protein < -proteinRatioThreshold:
			ratio -= 0.15
		}
		ratio += gainIntensityBonus[intensity]
	} else {
		ratio = base * 0.7
		switch {
		case ratioDiffs.Protein > proteinRatioThreshold:
			ratio += 0.15
		case ratioDiffs.Protein < -proteinRatioThreshold:
			ratio -= 0.10
		}
		if intensity == IntensityHigh || intensity == IntensityVeryHigh {
			ratio += 0.10
		}
	}
	ratio = clamp(ratio*bodyCompositionOptimizer, minMuscleRatio, maxMuscleRatio)

	return Composition{
		FatShift:          totalShift * (1 - ratio),
		MuscleShift:       totalShift * ratio,
		MuscleRatio:       ratio,
		OptimizationScore: OptimizationScore(ratio, gender, group),
	}
}

// OptimizationScore measures closeness of the muscle ratio to the ideal, in [0, 1].
func OptimizationScore(muscleRatio float64, gender Gender, group AgeGroup) float64 {
	ideal := idealMuscleRatio[gender][group]
	if ideal <= 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(muscleRatio-ideal)/ideal)
}

// MetabolicAdaptation estimates the fraction of a shift absorbed by adaptation,
// capped at the whole shift so it never reverses direction.
func MetabolicAdaptation(weightKG, shift float64, days int, group AgeGroup) float64 {
	if weightKG <= 0 || days <= 0 {
		return 0
	}
	timeFactor := math.Sqrt(float64(days) / 30)
	changeFactor := math.Min(1, math.Abs(shift)/weightKG*10)
	return math.Min(maxMetabolicAdaptation, metabolicAdaptationFactor*ageAdaptationFactor[group]*timeFactor*changeFactor)
}

// PredictWeightShift runs the forecast pipeline for one member over days.
func PredictWeightShift(p Profile, diff Differences, days int) Prediction {
	bmr := profileBMR(p)
	exercise := ExerciseEnergy(bmr, p.Exercise)
	tdee := bmr + exercise

	dailyDiff := p.Intake.Calories - tdee
	baseShift := dailyDiff * float64(days) / kcalPerKgFat

	synergy := NutrientSynergy(diff.ActualRatios, p.AgeGroup)
	adaptation := MetabolicAdaptation(p.WeightKG, baseShift, days, p.AgeGroup)
	adjusted := baseShift * synergy * nutrientSynergyMultiplier * (1 - adaptation)
	if floor := math.Min(minForecastWeightKG, p.WeightKG); p.WeightKG+adjusted < floor {
		adjusted = floor - p.WeightKG
	}

	comp := PredictBodyComposition(diff.Ratios, adjusted, p.Gender, p.AgeGroup, p.Exercise.Intensity)

	return Prediction{
		WeightShiftKG:       round2(adjusted),
		NewWeightKG:         round1(p.WeightKG + adjusted),
		FatShiftKG:          round2(comp.FatShift),
		MuscleShiftKG:       round2(comp.MuscleShift),
		MuscleRatio:         round3(comp.MuscleRatio),
		OptimizationScore:   round0(comp.OptimizationScore * 100),
		SynergyScore:        round0(synergy * 100),
		MetabolicAdaptation: round0(adaptation * 100),
		AdvancedBMR:         round0(bmr),
		ExerciseEnergy:      round0(exercise),
		TotalTDEE:           round0(tdee),
		TimeframeDays:       days,
	}
}
