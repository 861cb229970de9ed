package healthlog

import (
	"strings"
	"time"
)

// MetricCode identifies a kind of logged measurement.
type MetricCode string

const (
	MetricWeight  MetricCode = "weight"
	MetricHeight  MetricCode = "height"
	MetricBMI     MetricCode = "bmi"
	MetricEnergy  MetricCode = "energy"
	MetricProtein MetricCode = "protein"
	MetricFat     MetricCode = "fat"
	MetricCarbs   MetricCode = "carbs"
	MetricCalcium MetricCode = "calcium"
	MetricIron    MetricCode = "iron"
	MetricZinc    MetricCode = "zinc"
	MetricSodium  MetricCode = "sodium"
)

// Status grades a value against its reference.
type Status string

const (
	StatusLow    Status = "low"
	StatusNormal Status = "normal"
	StatusHigh   Status = "high"
)

// Source records how a measurement was captured.
type Source string

const (
	SourceManual Source = "manual"
	SourceDevice Source = "device"
	SourceImport Source = "import"
)

var sources = []Source{SourceManual, SourceDevice, SourceImport}

// MetricType describes a metric and its reference values. Intake metrics are
// logged as daily totals and graded against Target; body metrics use the
// normal band.
type MetricType struct {
	Code       MetricCode `json:"code"`
	Name       string     `json:"name"`
	Unit       string     `json:"unit"`
	Min        float64    `json:"min"`
	Max        float64    `json:"max"`
	Target     float64    `json:"target,omitempty"`
	UpperLimit bool       `json:"upperLimit,omitempty"`
	NormalLow  float64    `json:"normalLow,omitempty"`
	NormalHigh float64    `json:"normalHigh,omitempty"`
	Intake     bool       `json:"intake"`
}

var metricTypes = []MetricType{
	{Code: MetricWeight, Name: "Weight", Unit: "kg", Min: 2, Max: 300},
	{Code: MetricHeight, Name: "Height", Unit: "cm", Min: 40, Max: 250},
	{Code: MetricBMI, Name: "BMI", Unit: "kg/m2", Min: 5, Max: 80, NormalLow: 18.5, NormalHigh: 24},
	{Code: MetricEnergy, Name: "Energy", Unit: "kcal", Min: 0, Max: 10000, Target: 1800, Intake: true},
	{Code: MetricProtein, Name: "Protein", Unit: "g", Min: 0, Max: 1000, Target: 60, Intake: true},
	{Code: MetricFat, Name: "Fat", Unit: "g", Min: 0, Max: 1000, Intake: true},
	{Code: MetricCarbs, Name: "Carbohydrate", Unit: "g", Min: 0, Max: 2000, Intake: true},
	{Code: MetricCalcium, Name: "Calcium", Unit: "mg", Min: 0, Max: 10000, Target: 800, Intake: true},
	{Code: MetricIron, Name: "Iron", Unit: "mg", Min: 0, Max: 1000, Target: 10, Intake: true},
	{Code: MetricZinc, Name: "Zinc", Unit: "mg", Min: 0, Max: 1000, Target: 8, Intake: true},
	{Code: MetricSodium, Name: "Sodium", Unit: "mg", Min: 0, Max: 20000, Target: 1500, UpperLimit: true, Intake: true},
}

// Types lists the supported metrics.
func Types() []MetricType {
	out := make([]MetricType, len(metricTypes))
	copy(out, metricTypes)
	return out
}

// LookupType resolves a metric code case-insensitively.
func LookupType(code string) (MetricType, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, mt := range metricTypes {
		if string(mt.Code) == code {
			return mt, true
		}
	}
	return MetricType{}, false
}

// Grade returns the status of value, or "" when the metric has no reference.
func (t MetricType) Grade(value float64) Status {
	switch {
	case t.Target > 0 && t.UpperLimit:
		if value > t.Target {
			return StatusHigh
		}
		return StatusNormal
	case t.Target > 0:
		ratio := value / t.Target
		if ratio < 0.8 {
			return StatusLow
		}
		if ratio > 1.2 {
			return StatusHigh
		}
		return StatusNormal
	case t.NormalHigh > 0:
		if value < t.NormalLow {
			return StatusLow
		}
		if value >= t.NormalHigh {
			return StatusHigh
		}
		return StatusNormal
	}
	return ""
}

// Entry is one logged measurement of a family member.
type Entry struct {
	ID         string     `json:"id"`
	AccountID  int64      `json:"-"`
	MemberID   string     `json:"memberId"`
	Code       MetricCode `json:"code"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Status     Status     `json:"status,omitempty"`
	Source     Source     `json:"source"`
	MeasuredAt time.Time  `json:"measuredAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// RecordInput is the payload for logging a measurement. MeasuredAt defaults to now.
type RecordInput struct {
	Code       string     `json:"code"`
	Value      float64    `json:"value"`
	MeasuredAt *time.Time `json:"measuredAt"`
	Source     string     `json:"source"`
}

// NutrientAverage is a metric's mean daily value over a window.
type NutrientAverage struct {
	Code    MetricCode `json:"code"`
	Name    string     `json:"name"`
	Unit    string     `json:"unit"`
	Average float64    `json:"average"`
	Samples int        `json:"samples"`
	Target  float64    `json:"target,omitempty"`
	Percent float64    `json:"percent,omitempty"`
	Status  Status     `json:"status,omitempty"`
}

// HealthStatus is the headline view of a member's latest measurements. Weight
// and height fall back to the member record; BMI is derived when not logged.
// Calcium and sodium are nil until logged.
type HealthStatus struct {
	MemberID     string   `json:"memberId"`
	WeightKG     *float64 `json:"weightKg"`
	HeightCM     *float64 `json:"heightCm"`
	BMI          *float64 `json:"bmi"`
	BMIStatus    Status   `json:"bmiStatus,omitempty"`
	Calcium      *float64 `json:"calcium"`
	Sodium       *float64 `json:"sodium"`
	SodiumStatus Status   `json:"sodiumStatus,omitempty"`
}
