package nutrition

// BMI is weight over height in metres squared.
func BMI(heightCM, weightKG float64) float64 {
	if heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	return weightKG / (m * m)
}

// ClassifyBodyImage returns the first tier whose [min, max) range holds the BMI.
// A BMI below the first tier belongs to it; any other BMI outside every tier
// yields the standard tier with Fallback set.
func ClassifyBodyImage(heightCM, weightKG float64, gender Gender) BodyImage {
	bmi := BMI(heightCM, weightKG)
	tiers := bodyImageTiers[gender]
	if len(tiers) > 0 && bmi < tiers[0].min {
		return tiers[0].image(bmi, false)
	}
	for _, tier := range tiers {
		if bmi >= tier.min && bmi < tier.max {
			return tier.image(bmi, false)
		}
	}
	for _, tier := range tiers {
		if tier.typeCode == standardTier {
			return tier.image(bmi, true)
		}
	}
	return BodyImage{BMI: round1(bmi), Fallback: true}
}

// PredictBodyImage classifies the current and the shifted weight.
func PredictBodyImage(p Profile, weightShiftKG float64) BodyImageTransition {
	return BodyImageTransition{
		Current:      ClassifyBodyImage(p.HeightCM, p.WeightKG, p.Gender),
		Future:       ClassifyBodyImage(p.HeightCM, p.WeightKG+weightShiftKG, p.Gender),
		WeightChange: weightShiftKG,
	}
}

func (t bodyImageTier) image(bmi float64, fallback bool) BodyImage {
	return BodyImage{
		TypeCode:    t.typeCode,
		Name:        t.name,
		BMI:         round1(bmi),
		BMIRange:    [2]float64{t.min, t.max},
		Description: t.description,
		ImagePath:   t.imagePath,
		Fallback:    fallback,
	}
}
