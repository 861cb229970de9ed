package family

import (
	"time"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

const birthDateLayout = "2006-01-02"

// Member is a persisted family member owned by one account.
type Member struct {
	ID                string            `json:"id"`
	AccountID         int64             `json:"-"`
	Name              string            `json:"name"`
	Gender            string            `json:"gender"`
	BirthDate         time.Time         `json:"birthDate"`
	HeightCM          float64           `json:"heightCm"`
	WeightKG          float64           `json:"weightKg"`
	AgeGroup          string            `json:"ageGroup,omitempty"`
	ExerciseFrequency string            `json:"exerciseFrequency"`
	ExerciseDuration  string            `json:"exerciseDuration"`
	ExerciseIntensity string            `json:"exerciseIntensity"`
	DefaultIntake     *nutrition.Intake `json:"defaultIntake,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// MemberInput is the create and update payload.
type MemberInput struct {
	Name              string            `json:"name"`
	Gender            string            `json:"gender"`
	BirthDate         string            `json:"birthDate"`
	HeightCM          float64           `json:"heightCm"`
	WeightKG          float64           `json:"weightKg"`
	AgeGroup          string            `json:"ageGroup"`
	ExerciseFrequency string            `json:"exerciseFrequency"`
	ExerciseDuration  string            `json:"exerciseDuration"`
	ExerciseIntensity string            `json:"exerciseIntensity"`
	DefaultIntake     *nutrition.Intake `json:"defaultIntake"`
}
