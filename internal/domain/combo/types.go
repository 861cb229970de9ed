package combo

import (
	"time"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// Portion sizes scale a dish's listed nutrients.
const (
	PortionSmall  = "S"
	PortionMedium = "M"
	PortionLarge  = "L"
)

var portionRatios = map[string]float64{
	PortionSmall:  0.5,
	PortionMedium: 1.0,
	PortionLarge:  1.5,
}

// Dish is one item of a combo. Nutrients are given for a medium portion.
type Dish struct {
	Name        string           `json:"name"`
	PortionSize string           `json:"portionSize"`
	CookMinutes int              `json:"cookMinutes"`
	Nutrients   nutrition.Intake `json:"nutrients"`
	Allergens   []string         `json:"allergens,omitempty"`
}

// Intake returns the dish nutrients scaled to its portion.
func (d Dish) Intake() nutrition.Intake {
	ratio, ok := portionRatios[d.PortionSize]
	if !ok {
		ratio = 1
	}
	return d.Nutrients.Scale(ratio)
}

// Combo is a named set of dishes served together at one meal.
type Combo struct {
	ID               string                `json:"id"`
	AccountID        int64                 `json:"-"`
	Name             string                `json:"name"`
	MealType         nutrition.MealType    `json:"mealType"`
	NeedCodes        []string              `json:"needCodes"`
	Dishes           []Dish                `json:"dishes"`
	Total            nutrition.Intake      `json:"total"`
	Ratios           nutrition.MacroRatios `json:"ratios"`
	TotalCookMinutes int                   `json:"totalCookMinutes"`
	CreatedAt        time.Time             `json:"createdAt"`
}

// CreateRequest is the payload for a new combo.
type CreateRequest struct {
	Name      string   `json:"name"`
	MealType  string   `json:"mealType"`
	NeedCodes []string `json:"needCodes"`
	Dishes    []Dish   `json:"dishes"`
}

// ListFilter narrows List results.
type ListFilter struct {
	MealType nutrition.MealType
	Limit    int
}

// Recommendation pairs a combo with its distance from the ideal macro ratios.
type Recommendation struct {
	Combo    Combo   `json:"combo"`
	Distance float64 `json:"distance"`
}
