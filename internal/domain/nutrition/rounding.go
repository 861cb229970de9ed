package nutrition

import "math"

// roundTo rounds half up toward positive infinity, matching the presentation rules
// used by the meal-planning front end.
func roundTo(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Floor(x*p+0.5) / p
}

func round0(x float64) float64 { return roundTo(x, 0) }
func round1(x float64) float64 { return roundTo(x, 1) }
func round2(x float64) float64 { return roundTo(x, 2) }
func round3(x float64) float64 { return roundTo(x, 3) }

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
