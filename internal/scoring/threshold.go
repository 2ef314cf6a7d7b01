package scoring

import "github.com/ironsheep/labelscan/internal/nutrition"

// tier awards points when a value is strictly above limit. Tiers are
// checked from the highest limit down and only the first match counts.
type tier struct {
	limit  float64
	points int
}

var (
	energyTiers       = []tier{{400, 2}, {200, 1}}
	sugarsTiers       = []tier{{15, 3}, {9, 2}, {4.5, 1}}
	fatTiers          = []tier{{18, 3}, {10, 2}, {3, 1}}
	saturatedFatTiers = []tier{{6, 3}, {3, 2}, {1, 1}}
	saltTiers         = []tier{{1.5, 3}, {0.8, 2}, {0.3, 1}}

	proteinTiers = []tier{{4.8, 3}, {3.2, 2}, {1.6, 1}}
	fiberTiers   = []tier{{2.8, 3}, {1.9, 2}, {0.9, 1}}
)

func points(v float64, tiers []tier) int {
	for _, t := range tiers {
		if v > t.limit {
			return t.points
		}
	}
	return 0
}

// ThresholdPolicy is the bucketed policy. Energy, sugars, fat, saturated fat
// and salt earn unfavourable points by tier; protein and fibre earn
// favourable points. The difference maps to a grade: at most -2 is A, at
// most 0 is B, at most 3 is C, at most 6 is D, otherwise E.
type ThresholdPolicy struct{}

// Name implements Policy.
func (ThresholdPolicy) Name() string { return ThresholdPolicyName }

// Score implements Policy.
func (ThresholdPolicy) Score(r nutrition.Record) (Grade, Breakdown) {
	unfavourable := points(r.Value(nutrition.EnergyKcal), energyTiers) +
		points(r.Value(nutrition.Sugars), sugarsTiers) +
		points(r.Value(nutrition.Fat), fatTiers) +
		points(r.Value(nutrition.SaturatedFat), saturatedFatTiers) +
		points(r.Value(nutrition.Salt), saltTiers)

	favourable := points(r.Value(nutrition.Protein), proteinTiers) +
		points(r.Value(nutrition.Fiber), fiberTiers)

	final := unfavourable - favourable

	var g Grade
	switch {
	case final <= -2:
		g = GradeA
	case final <= 0:
		g = GradeB
	case final <= 3:
		g = GradeC
	case final <= 6:
		g = GradeD
	default:
		g = GradeE
	}

	return g, Breakdown{
		Unfavourable: float64(unfavourable),
		Favourable:   float64(favourable),
		Final:        float64(final),
	}
}
