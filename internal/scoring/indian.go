package scoring

import (
	"math"

	"github.com/ironsheep/labelscan/internal/nutrition"
)

// IndianPolicy is the continuous policy tuned for Indian packaging
// guidelines. Each nutrient contributes proportionally up to a cap:
//
//	negative = min(10, energy/200) + min(10, saturated_fat/2)
//	         + min(10, sugars/5) + min(10, salt/0.05)
//	positive = min(7, fiber/1.5) + min(8, protein/2)
//
// The difference is truncated toward zero and banded: up to -5 is A, -4 to
// 3 is B, 4 to 10 is C, 11 to 18 is D, otherwise E.
type IndianPolicy struct{}

// Name implements Policy.
func (IndianPolicy) Name() string { return IndianPolicyName }

// Score implements Policy.
func (IndianPolicy) Score(r nutrition.Record) (Grade, Breakdown) {
	negative := math.Min(10, r.Value(nutrition.EnergyKcal)/200) +
		math.Min(10, r.Value(nutrition.SaturatedFat)/2) +
		math.Min(10, r.Value(nutrition.Sugars)/5) +
		math.Min(10, r.Value(nutrition.Salt)/0.05)

	positive := math.Min(7, r.Value(nutrition.Fiber)/1.5) +
		math.Min(8, r.Value(nutrition.Protein)/2)

	score := int(negative - positive)

	var g Grade
	switch {
	case score <= -5:
		g = GradeA
	case score <= 3:
		g = GradeB
	case score <= 10:
		g = GradeC
	case score <= 18:
		g = GradeD
	default:
		g = GradeE
	}

	return g, Breakdown{
		Unfavourable: negative,
		Favourable:   positive,
		Final:        float64(score),
	}
}
