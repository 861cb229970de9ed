package nutrition

// AlgorithmVersion tags every AnalysisResult.
const AlgorithmVersion = "1.0"

// DefaultHorizonDays applies when neither the caller nor configuration sets a horizon.
const DefaultHorizonDays = 90

const (
	kcalPerKgFat              = 7700.0
	exerciseEfficiencyIndex   = 0.85
	nutrientSynergyMultiplier = 1.25
	bodyCompositionOptimizer  = 0.72
	metabolicAdaptationFactor = 0.15

	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0

	baselineProteinPerKg = 1.2
	baselineFatShare     = 0.25
	baselineCarbsShare   = 0.55

	proteinRatioThreshold = 0.03
	minSynergyScore       = 0.1
	maxSynergyScore       = 1.0
	minMuscleRatio        = 0.10
	maxMuscleRatio        = 0.80

	maxMetabolicAdaptation = 1.0

	// Forecast weight never drops below this.
	minForecastWeightKG = 10.0
)

// Numeric input bounds, inclusive.
const (
	MinHeightCM    = 50.0
	MaxHeightCM    = 250.0
	MinWeightKG    = 20.0
	MaxWeightKG    = 200.0
	MinCalories    = 500.0
	MaxCalories    = 10000.0
	MinAge         = 1
	MaxAge         = 130
	MinHorizonDays = 1
)

var (
	genders     = []Gender{GenderMale, GenderFemale}
	ageGroups   = []AgeGroup{AgeGroupChild, AgeGroupTeen, AgeGroupYoung, AgeGroupMiddle, AgeGroupSenior}
	frequencies = []Frequency{FrequencySedentary, FrequencyLight, FrequencyModerate, FrequencyActive, FrequencyAthlete}
	durations   = []Duration{DurationShort, DurationMedium, DurationLong, DurationExtended}
	intensities = []Intensity{IntensityLow, IntensityMedium, IntensityHigh, IntensityVeryHigh}
)

var bmrGenderOffset = map[Gender]float64{
	GenderMale:   5,
	GenderFemale: -161,
}

var ageGroupBMRFactor = map[AgeGroup]float64{
	AgeGroupChild:  1.15,
	AgeGroupTeen:   1.25,
	AgeGroupYoung:  1.10,
	AgeGroupMiddle: 1.00,
	AgeGroupSenior: 0.85,
}

var genderBMRFactor = map[Gender]float64{
	GenderMale:   1.05,
	GenderFemale: 0.95,
}

var frequencyFactor = map[Frequency]float64{
	FrequencySedentary: 1.0,
	FrequencyLight:     1.1,
	FrequencyModerate:  1.25,
	FrequencyActive:    1.45,
	FrequencyAthlete:   1.7,
}

var durationFactor = map[Duration]float64{
	DurationShort:    0.8,
	DurationMedium:   1.0,
	DurationLong:     1.25,
	DurationExtended: 1.5,
}

var intensityFactor = map[Intensity]float64{
	IntensityLow:      1.2,
	IntensityMedium:   1.5,
	IntensityHigh:     2.0,
	IntensityVeryHigh: 2.8,
}

// idealMacroRatios feeds the synergy score and combo recommendations.
var idealMacroRatios = map[AgeGroup]MacroRatios{
	AgeGroupChild:  {Protein: 0.15, Fat: 0.30, Carbs: 0.55},
	AgeGroupTeen:   {Protein: 0.20, Fat: 0.25, Carbs: 0.55},
	AgeGroupYoung:  {Protein: 0.25, Fat: 0.25, Carbs: 0.50},
	AgeGroupMiddle: {Protein: 0.25, Fat: 0.25, Carbs: 0.50},
	AgeGroupSenior: {Protein: 0.30, Fat: 0.25, Carbs: 0.45},
}

// baseMuscleRatio is the starting point of the composition split.
var baseMuscleRatio = map[Gender]map[AgeGroup]float64{
	GenderMale: {
		AgeGroupChild: 0.25, AgeGroupTeen: 0.35, AgeGroupYoung: 0.40, AgeGroupMiddle: 0.35, AgeGroupSenior: 0.25,
	},
	GenderFemale: {
		AgeGroupChild: 0.20, AgeGroupTeen: 0.25, AgeGroupYoung: 0.30, AgeGroupMiddle: 0.25, AgeGroupSenior: 0.20,
	},
}

// idealMuscleRatio scores the split. Independent of baseMuscleRatio.
var idealMuscleRatio = map[Gender]map[AgeGroup]float64{
	GenderMale: {
		AgeGroupChild: 0.3, AgeGroupTeen: 0.4, AgeGroupYoung: 0.45, AgeGroupMiddle: 0.4, AgeGroupSenior: 0.35,
	},
	GenderFemale: {
		AgeGroupChild: 0.25, AgeGroupTeen: 0.3, AgeGroupYoung: 0.35, AgeGroupMiddle: 0.3, AgeGroupSenior: 0.25,
	},
}

var gainIntensityBonus = map[Intensity]float64{
	IntensityLow:      0.05,
	IntensityMedium:   0.10,
	IntensityHigh:     0.15,
	IntensityVeryHigh: 0.20,
}

var ageAdaptationFactor = map[AgeGroup]float64{
	AgeGroupChild:  0.6,
	AgeGroupTeen:   0.7,
	AgeGroupYoung:  0.8,
	AgeGroupMiddle: 0.9,
	AgeGroupSenior: 1.0,
}

// physicalActivityLevel, sessionMinutes and intensityMETs drive the TDEE allocation policy.
var physicalActivityLevel = map[Frequency]float64{
	FrequencySedentary: 1.2,
	FrequencyLight:     1.375,
	FrequencyModerate:  1.55,
	FrequencyActive:    1.725,
	FrequencyAthlete:   1.9,
}

var sessionMinutes = map[Duration]float64{
	DurationShort:    15,
	DurationMedium:   30,
	DurationLong:     45,
	DurationExtended: 60,
}

var intensityMETs = map[Intensity]float64{
	IntensityLow:      3,
	IntensityMedium:   5,
	IntensityHigh:     7,
	IntensityVeryHigh: 9,
}

type bodyImageTier struct {
	typeCode    int
	name        string
	min, max    float64
	description string
	imagePath   string
}

const standardTier = 3

// bodyImageTiers partition [0, 100) per gender into half-open ranges.
var bodyImageTiers = map[Gender][]bodyImageTier{
	GenderMale: {
		{1, "very thin", 0, 18.5, "Underweight, increase nutrition", "images/mbody/very_thin.png"},
		{2, "slim", 18.5, 20.0, "Slightly light, consider gaining some weight", "images/mbody/thin.png"},
		{3, "standard", 20.0, 24.0, "Healthy weight, keep it up", "images/mbody/normal.png"},
		{4, "slightly overweight", 24.0, 28.0, "Slightly heavy, consider losing some weight", "images/mbody/overweight.png"},
		{5, "overweight", 28.0, 100.0, "Overweight, weight loss recommended", "images/mbody/very_overweight.png"},
	},
	GenderFemale: {
		{1, "very thin", 0, 17.5, "Underweight, increase nutrition", "images/fbody/very_thin.png"},
		{2, "slim", 17.5, 19.0, "Slightly light, consider gaining some weight", "images/fbody/thin.png"},
		{3, "standard", 19.0, 24.0, "Healthy weight, keep it up", "images/fbody/normal.png"},
		{4, "slightly overweight", 24.0, 28.0, "Slightly heavy, consider losing some weight", "images/fbody/overweight.png"},
		{5, "overweight", 28.0, 100.0, "Overweight, weight loss recommended", "images/fbody/very_overweight.png"},
	},
}

// MealType selects a share of the daily baseline.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealAll       MealType = "all"
)

var mealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealAll}

var mealShare = map[MealType]float64{
	MealBreakfast: 0.30,
	MealLunch:     0.40,
	MealDinner:    0.30,
	MealAll:       1.0,
}

// IdealMacroRatios returns the synergy target ratios for an age group.
func IdealMacroRatios(group AgeGroup) (MacroRatios, bool) {
	r, ok := idealMacroRatios[group]
	return r, ok
}

// DeriveAgeGroup maps an age in years to its age group.
func DeriveAgeGroup(age int) AgeGroup {
	switch {
	case age <= 12:
		return AgeGroupChild
	case age <= 17:
		return AgeGroupTeen
	case age <= 35:
		return AgeGroupYoung
	case age <= 59:
		return AgeGroupMiddle
	default:
		return AgeGroupSenior
	}
}
