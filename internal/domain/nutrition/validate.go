package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError names one rejected input field.
type ValidationError struct {
	Field  string `json:"field"`
	Value  any    `json:"value"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
}

// ValidationErrors collects every problem found in one profile.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

func (errs ValidationErrors) orNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func parseEnum[T ~string](field, raw string, allowed []T) (T, *ValidationError) {
	trimmed := strings.TrimSpace(raw)
	for _, candidate := range allowed {
		if strings.EqualFold(trimmed, string(candidate)) {
			return candidate, nil
		}
	}
	names := make([]string, len(allowed))
	for i, candidate := range allowed {
		names[i] = string(candidate)
	}
	var zero T
	return zero, &ValidationError{
		Field:  field,
		Value:  raw,
		Reason: "must be one of " + strings.Join(names, ", "),
	}
}

// ParseGender accepts male or female.
func ParseGender(raw string) (Gender, error) {
	g, verr := parseEnum("gender", raw, genders)
	if verr != nil {
		return "", *verr
	}
	return g, nil
}

// ParseAgeGroup accepts one of the five age groups.
func ParseAgeGroup(raw string) (AgeGroup, error) {
	g, verr := parseEnum("ageGroup", raw, ageGroups)
	if verr != nil {
		return "", *verr
	}
	return g, nil
}

// ParseMealType accepts breakfast, lunch, dinner or all.
func ParseMealType(raw string) (MealType, error) {
	m, verr := parseEnum("mealType", raw, mealTypes)
	if verr != nil {
		return "", *verr
	}
	return m, nil
}

// ParseProfile validates raw input. Intake is only required when requireIntake is set;
// shared-intake batches attach the allocated intake afterwards via WithIntake.
func ParseProfile(in ProfileInput, requireIntake bool) (Profile, error) {
	var errs ValidationErrors
	add := func(verr *ValidationError) {
		if verr != nil {
			errs = append(errs, *verr)
		}
	}

	p := Profile{
		ID:       strings.TrimSpace(in.ID),
		Name:     strings.TrimSpace(in.Name),
		Age:      in.Age,
		HeightCM: in.HeightCM,
		WeightKG: in.WeightKG,
	}

	var verr *ValidationError
	p.Gender, verr = parseEnum("gender", in.Gender, genders)
	add(verr)
	p.Exercise.Frequency, verr = parseEnum("exerciseFrequency", in.ExerciseFrequency, frequencies)
	add(verr)
	p.Exercise.Duration, verr = parseEnum("exerciseDuration", in.ExerciseDuration, durations)
	add(verr)
	p.Exercise.Intensity, verr = parseEnum("exerciseIntensity", in.ExerciseIntensity, intensities)
	add(verr)

	if in.Age < MinAge || in.Age > MaxAge {
		add(&ValidationError{Field: "age", Value: in.Age, Reason: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge)})
	}
	add(checkRange("heightCm", in.HeightCM, MinHeightCM, MaxHeightCM))
	add(checkRange("weightKg", in.WeightKG, MinWeightKG, MaxWeightKG))

	if strings.TrimSpace(in.AgeGroup) == "" {
		p.AgeGroup = DeriveAgeGroup(in.Age)
	} else {
		p.AgeGroup, verr = parseEnum("ageGroup", in.AgeGroup, ageGroups)
		add(verr)
	}

	switch {
	case in.Intake != nil:
		p.Intake = *in.Intake
		errs = append(errs, validateIntake(p.Intake)...)
	case requireIntake:
		add(&ValidationError{Field: "intake", Value: nil, Reason: "is required"})
	}

	if err := errs.orNil(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// WithIntake returns a copy of the profile carrying a validated intake.
func (p Profile) WithIntake(intake Intake) (Profile, error) {
	if errs := validateIntake(intake); len(errs) > 0 {
		return Profile{}, errs
	}
	p.Intake = intake
	return p, nil
}

// ValidateSharedIntake checks a group intake before it is split.
func ValidateSharedIntake(intake Intake) error {
	var errs ValidationErrors
	for _, f := range []struct {
		field string
		value float64
	}{
		{"sharedIntake.calories", intake.Calories},
		{"sharedIntake.proteinG", intake.ProteinG},
		{"sharedIntake.fatG", intake.FatG},
		{"sharedIntake.carbsG", intake.CarbsG},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			errs = append(errs, ValidationError{Field: f.field, Value: numericValue(f.value), Reason: "must be a non-negative number"})
		}
	}
	return errs.orNil()
}

func validateIntake(intake Intake) ValidationErrors {
	var errs ValidationErrors
	if verr := checkRange("intake.calories", intake.Calories, MinCalories, MaxCalories); verr != nil {
		errs = append(errs, *verr)
	}
	for _, f := range []struct {
		field string
		value float64
	}{
		{"intake.proteinG", intake.ProteinG},
		{"intake.fatG", intake.FatG},
		{"intake.carbsG", intake.CarbsG},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			errs = append(errs, ValidationError{Field: f.field, Value: numericValue(f.value), Reason: "must be a non-negative number"})
		}
	}
	return errs
}

func checkRange(field string, value, lo, hi float64) *ValidationError {
	if math.IsNaN(value) || value < lo || value > hi {
		return &ValidationError{Field: field, Value: numericValue(value), Reason: fmt.Sprintf("must be between %g and %g", lo, hi)}
	}
	return nil
}

// numericValue keeps NaN and infinities JSON encodable.
func numericValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return v
}

// ParseMeasurements validates the inputs of a standalone body image lookup.
func ParseMeasurements(heightCM, weightKG float64, gender string) (Gender, error) {
	var errs ValidationErrors
	g, verr := parseEnum("gender", gender, genders)
	if verr != nil {
		errs = append(errs, *verr)
	}
	if verr := checkRange("heightCm", heightCM, MinHeightCM, MaxHeightCM); verr != nil {
		errs = append(errs, *verr)
	}
	if verr := checkRange("weightKg", weightKG, MinWeightKG, MaxWeightKG); verr != nil {
		errs = append(errs, *verr)
	}
	if err := errs.orNil(); err != nil {
		return "", err
	}
	return g, nil
}
