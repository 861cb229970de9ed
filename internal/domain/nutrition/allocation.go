package nutrition

import (
	"math"
	"strings"
)

// AllocationPolicy decides how a shared intake is split between members.
type AllocationPolicy string

const (
	// AllocateByWeight splits in proportion to body weight.
	AllocateByWeight AllocationPolicy = "weight"
	// AllocateByTDEE splits in proportion to estimated daily expenditure.
	AllocateByTDEE AllocationPolicy = "tdee"
)

// ParseAllocationPolicy accepts weight or tdee. Empty input returns "".
func ParseAllocationPolicy(raw string) (AllocationPolicy, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	p, verr := parseEnum("allocation", raw, []AllocationPolicy{AllocateByWeight, AllocateByTDEE})
	if verr != nil {
		return "", *verr
	}
	return p, nil
}

// EstimateTDEE is the activity-level estimate used by the tdee policy.
func EstimateTDEE(p Profile) float64 {
	bmr := profileBMR(p)
	exercise := intensityMETs[p.Exercise.Intensity] * p.WeightKG * sessionMinutes[p.Exercise.Duration] / 60
	tdee := bmr*physicalActivityLevel[p.Exercise.Frequency] + exercise
	switch {
	case p.Age < 6:
		tdee *= 1.2
	case p.Age >= 65:
		tdee *= 0.9
	}
	return tdee
}

// Shares returns each member's fraction of a shared intake. The fractions sum to 1;
// when the policy weights sum to zero every member gets 1/N.
func Shares(members []Profile, policy AllocationPolicy) []float64 {
	n := len(members)
	shares := make([]float64, n)
	if n == 0 {
		return shares
	}
	weights := make([]float64, n)
	var total float64
	for i, m := range members {
		var w float64
		if policy == AllocateByTDEE {
			w = EstimateTDEE(m)
		} else {
			w = m.WeightKG
		}
		if math.IsNaN(w) || w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		for i := range shares {
			shares[i] = 1 / float64(n)
		}
		return shares
	}
	for i, w := range weights {
		shares[i] = w / total
	}
	return shares
}

// Allocate splits total across members. The last member absorbs the floating
// point remainder so the parts add back to total exactly.
func Allocate(total Intake, members []Profile, policy AllocationPolicy) []Intake {
	shares := Shares(members, policy)
	parts := make([]Intake, len(shares))
	var assigned Intake
	for i, share := range shares {
		if i == len(shares)-1 {
			parts[i] = Intake{
				Calories: total.Calories - assigned.Calories,
				ProteinG: total.ProteinG - assigned.ProteinG,
				FatG:     total.FatG - assigned.FatG,
				CarbsG:   total.CarbsG - assigned.CarbsG,
			}
			break
		}
		parts[i] = total.Scale(share)
		assigned = assigned.Add(parts[i])
	}
	return parts
}
