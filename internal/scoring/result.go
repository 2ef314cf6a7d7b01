package scoring

import "github.com/ironsheep/labelscan/internal/nutrition"

// Result is the graded outcome for one record. It is derived on demand and
// never cached.
type Result struct {
	Grade           Grade     `json:"grade"`
	Policy          string    `json:"policy"`
	Breakdown       Breakdown `json:"breakdown"`
	NovaGroup       int       `json:"nova_group"`
	NovaDescription string    `json:"nova_description"`
	MarkersCount    int       `json:"markers_count"`
	MatchPercentage int       `json:"match_percentage"`
}

// Evaluate grades r with policy and classifies its processing level from
// meta.
func Evaluate(policy Policy, r nutrition.Record, meta nutrition.Metadata) Result {
	grade, breakdown := policy.Score(r)
	nova := ClassifyNova(NovaInputFromMetadata(meta))

	return Result{
		Grade:           grade,
		Policy:          policy.Name(),
		Breakdown:       breakdown,
		NovaGroup:       nova.Group,
		NovaDescription: nova.Description,
		MarkersCount:    nova.MarkersCount,
		MatchPercentage: MatchPercentage(grade, nova.Group),
	}
}

// MatchPercentage rates how well a product suits a health-minded shopper,
// 0 to 100. It starts at 12, adds 45 for grade A or B (25 for C) and adds
// 43 for NOVA groups 1-2 (20 for group 3).
func MatchPercentage(grade Grade, nova int) int {
	pct := 12

	switch grade {
	case GradeA, GradeB:
		pct += 45
	case GradeC:
		pct += 25
	}

	switch {
	case nova < NovaProcessed:
		pct += 43
	case nova == NovaProcessed:
		pct += 20
	}

	if pct > 100 {
		pct = 100
	}
	return pct
}
