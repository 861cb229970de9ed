package nutrition

// Gender selects the gender-specific formulas and tables.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// AgeGroup buckets members for the age-specific factor tables.
type AgeGroup string

const (
	AgeGroupChild  AgeGroup = "child"
	AgeGroupTeen   AgeGroup = "teen"
	AgeGroupYoung  AgeGroup = "young"
	AgeGroupMiddle AgeGroup = "middle"
	AgeGroupSenior AgeGroup = "senior"
)

// Frequency describes how often a member exercises.
type Frequency string

const (
	FrequencySedentary Frequency = "sedentary"
	FrequencyLight     Frequency = "light"
	FrequencyModerate  Frequency = "moderate"
	FrequencyActive    Frequency = "active"
	FrequencyAthlete   Frequency = "athlete"
)

// Duration describes the length of a typical exercise session.
type Duration string

const (
	DurationShort    Duration = "short"
	DurationMedium   Duration = "medium"
	DurationLong     Duration = "long"
	DurationExtended Duration = "extended"
)

// Intensity describes how hard a member exercises.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityMedium   Intensity = "medium"
	IntensityHigh     Intensity = "high"
	IntensityVeryHigh Intensity = "veryHigh"
)

// Intake is a daily energy and macronutrient record.
type Intake struct {
	Calories float64 `json:"calories" yaml:"calories"`
	ProteinG float64 `json:"proteinG" yaml:"proteinG"`
	FatG     float64 `json:"fatG" yaml:"fatG"`
	CarbsG   float64 `json:"carbsG" yaml:"carbsG"`
}

// Add returns the element-wise sum of two intakes.
func (i Intake) Add(other Intake) Intake {
	return Intake{
		Calories: i.Calories + other.Calories,
		ProteinG: i.ProteinG + other.ProteinG,
		FatG:     i.FatG + other.FatG,
		CarbsG:   i.CarbsG + other.CarbsG,
	}
}

// Scale multiplies every field by factor.
func (i Intake) Scale(factor float64) Intake {
	return Intake{
		Calories: i.Calories * factor,
		ProteinG: i.ProteinG * factor,
		FatG:     i.FatG * factor,
		CarbsG:   i.CarbsG * factor,
	}
}

// Exercise groups the three categorical activity descriptors.
type Exercise struct {
	Frequency Frequency `json:"frequency"`
	Duration  Duration  `json:"duration"`
	Intensity Intensity `json:"intensity"`
}

// ProfileInput is the unvalidated shape received from callers.
type ProfileInput struct {
	ID                string  `json:"id" yaml:"id"`
	Name              string  `json:"name" yaml:"name"`
	Gender            string  `json:"gender" yaml:"gender"`
	Age               int     `json:"age" yaml:"age"`
	AgeGroup          string  `json:"ageGroup,omitempty" yaml:"ageGroup"`
	HeightCM          float64 `json:"heightCm" yaml:"heightCm"`
	WeightKG          float64 `json:"weightKg" yaml:"weightKg"`
	Intake            *Intake `json:"intake,omitempty" yaml:"intake"`
	ExerciseFrequency string  `json:"exerciseFrequency" yaml:"exerciseFrequency"`
	ExerciseDuration  string  `json:"exerciseDuration" yaml:"exerciseDuration"`
	ExerciseIntensity string  `json:"exerciseIntensity" yaml:"exerciseIntensity"`
}

// Profile is a validated member profile. Build one with ParseProfile.
type Profile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Gender   Gender   `json:"gender"`
	Age      int      `json:"age"`
	AgeGroup AgeGroup `json:"ageGroup"`
	HeightCM float64  `json:"heightCm"`
	WeightKG float64  `json:"weightKg"`
	Intake   Intake   `json:"intake"`
	Exercise Exercise `json:"exercise"`
}

// Baseline holds the BMR derived daily targets. Exercise is not included.
type Baseline struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"proteinG"`
	FatG     float64 `json:"fatG"`
	CarbsG   float64 `json:"carbsG"`
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
}

// MacroRatios are energy fractions per macronutrient.
type MacroRatios struct {
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
}

// Differences compares intake against the baseline.
type Differences struct {
	Absolute       Intake      `json:"absolute"`
	Ratios         MacroRatios `json:"ratios"`
	ActualRatios   MacroRatios `json:"actualRatios"`
	BaselineRatios MacroRatios `json:"baselineRatios"`
}

// Prediction is the rounded forecast over the horizon.
type Prediction struct {
	WeightShiftKG       float64 `json:"weightShiftKg"`
	NewWeightKG         float64 `json:"newWeightKg"`
	FatShiftKG          float64 `json:"fatShiftKg"`
	MuscleShiftKG       float64 `json:"muscleShiftKg"`
	MuscleRatio         float64 `json:"muscleRatio"`
	OptimizationScore   float64 `json:"optimizationScore"`
	SynergyScore        float64 `json:"synergyScore"`
	MetabolicAdaptation float64 `json:"metabolicAdaptation"`
	AdvancedBMR         float64 `json:"advancedBmr"`
	ExerciseEnergy      float64 `json:"exerciseEnergy"`
	TotalTDEE           float64 `json:"totalTdee"`
	TimeframeDays       int     `json:"timeframeDays"`
}

// BodyImage is one BMI tier for a given weight.
type BodyImage struct {
	TypeCode    int        `json:"typeCode"`
	Name        string     `json:"name"`
	BMI         float64    `json:"bmi"`
	BMIRange    [2]float64 `json:"bmiRange"`
	Description string     `json:"description"`
	ImagePath   string     `json:"imagePath"`
	Fallback    bool       `json:"fallback,omitempty"`
}

// BodyImageTransition reports current versus forecast body image.
type BodyImageTransition struct {
	Current      BodyImage `json:"current"`
	Future       BodyImage `json:"future"`
	WeightChange float64   `json:"weightChange"`
}

// AnalysisResult is the full per-member output.
type AnalysisResult struct {
	Profile          Profile             `json:"profile"`
	Baseline         Baseline            `json:"baseline"`
	Differences      Differences         `json:"differences"`
	Prediction       Prediction          `json:"prediction"`
	BodyImage        BodyImageTransition `json:"bodyImage"`
	Advice           Advice              `json:"advice"`
	AlgorithmVersion string              `json:"algorithmVersion"`
}
