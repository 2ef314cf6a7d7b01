package scoring

import (
	"errors"
	"testing"

	"github.com/ironsheep/labelscan/internal/nutrition"
)

func referenceLabel() nutrition.Record {
	return nutrition.Record{
		EnergyKcal:    nutrition.Float(250),
		Sugars:        nutrition.Float(12),
		Salt:          nutrition.Float(1.2),
		Fat:           nutrition.Float(9),
		SaturatedFat:  nutrition.Float(3),
		Carbohydrates: nutrition.Float(30),
		Fiber:         nutrition.Float(2),
		Protein:       nutrition.Float(5),
	}
}

func TestThresholdPolicy_ReferenceLabel(t *testing.T) {
	g, b := ThresholdPolicy{}.Score(referenceLabel())

	if g != GradeC {
		t.Errorf("grade = %s, want C", g)
	}
	if b.Unfavourable != 7 || b.Favourable != 5 || b.Final != 2 {
		t.Errorf("breakdown = %+v, want 7 - 5 = 2", b)
	}
}

func TestThresholdPolicy_Bands(t *testing.T) {
	tests := []struct {
		name string
		r    nutrition.Record
		want Grade
	}{
		{"empty record", nutrition.Record{}, GradeB},
		{"protein and fibre only", nutrition.Record{Protein: nutrition.Float(10), Fiber: nutrition.Float(5)}, GradeA},
		{"sugary", nutrition.Record{Sugars: nutrition.Float(20)}, GradeC},
		{"sugary and fatty", nutrition.Record{Sugars: nutrition.Float(20), Fat: nutrition.Float(20)}, GradeD},
		{"everything high", nutrition.Record{
			EnergyKcal: nutrition.Float(500), Sugars: nutrition.Float(20), Fat: nutrition.Float(20),
			SaturatedFat: nutrition.Float(10), Salt: nutrition.Float(2),
		}, GradeE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if g, _ := (ThresholdPolicy{}).Score(tt.r); g != tt.want {
				t.Errorf("grade = %s, want %s", g, tt.want)
			}
		})
	}
}

func TestThresholdPolicy_SugarMonotonic(t *testing.T) {
	p := ThresholdPolicy{}
	prevGrade, prev := p.Score(nutrition.Record{Sugars: nutrition.Float(4)})

	for s := 4.0; s <= 10; s += 0.5 {
		g, b := p.Score(nutrition.Record{Sugars: nutrition.Float(s)})
		if b.Unfavourable < prev.Unfavourable {
			t.Fatalf("sugars %.1f lowered unfavourable points to %v", s, b.Unfavourable)
		}
		if g.Rank() < prevGrade.Rank() {
			t.Fatalf("sugars %.1f improved the grade to %s", s, g)
		}
		prev, prevGrade = b, g
	}
}

func TestThresholdPolicy_TierBoundariesAreStrict(t *testing.T) {
	_, at := ThresholdPolicy{}.Score(nutrition.Record{Sugars: nutrition.Float(4.5)})
	_, above := ThresholdPolicy{}.Score(nutrition.Record{Sugars: nutrition.Float(4.6)})

	if at.Unfavourable != 0 || above.Unfavourable != 1 {
		t.Errorf("sugars 4.5 -> %v, 4.6 -> %v; want 0 and 1", at.Unfavourable, above.Unfavourable)
	}
}

func TestIndianPolicy(t *testing.T) {
	tests := []struct {
		name      string
		r         nutrition.Record
		want      Grade
		wantFinal float64
	}{
		{"empty record", nutrition.Record{}, GradeB, 0},
		{"high protein and fibre", nutrition.Record{Protein: nutrition.Float(20), Fiber: nutrition.Float(12)}, GradeA, -15},
		{"reference label", referenceLabel(), GradeD, 11},
		{"salty", nutrition.Record{Salt: nutrition.Float(5), Sugars: nutrition.Float(60), EnergyKcal: nutrition.Float(2000)}, GradeE, 30},
		{"truncates toward zero", nutrition.Record{EnergyKcal: nutrition.Float(990)}, GradeC, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, b := IndianPolicy{}.Score(tt.r)
			if g != tt.want || b.Final != tt.wantFinal {
				t.Errorf("got %s (final %v), want %s (final %v)", g, b.Final, tt.want, tt.wantFinal)
			}
		})
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	if err != nil || p.Name() != ThresholdPolicyName {
		t.Errorf("default policy = %v, %v", p, err)
	}

	p, err = PolicyByName(" Indian ")
	if err != nil || p.Name() != IndianPolicyName {
		t.Errorf("PolicyByName(indian) = %v, %v", p, err)
	}

	if _, err := PolicyByName("who"); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("expected ErrUnknownPolicy, got %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestClassifyNova(t *testing.T) {
	tests := []struct {
		name        string
		in          NovaInput
		wantGroup   int
		wantMarkers int
	}{
		{"no evidence", NovaInput{}, 1, 0},
		{"declared only", NovaInput{Declared: intPtr(2)}, 2, 0},
		{"three additives", NovaInput{AdditiveTags: []string{"en:e322", "en:e330", "en:e471"}}, 4, 3},
		{"three markers override declared", NovaInput{Declared: intPtr(1), AdditiveTags: []string{"en:e322", "en:e330", "en:e471"}}, 4, 3},
		{"one marker raises to three", NovaInput{Declared: intPtr(1), AdditiveTags: []string{"en:e330"}}, 3, 1},
		{"one marker keeps declared four", NovaInput{Declared: intPtr(4), AdditiveTags: []string{"en:e330"}}, 4, 1},
		{"analysis vocabulary", NovaInput{AnalysisTags: []string{"en:artificial-flavour", "EN:Hydrogenated-Oil", "en:vegan"}}, 3, 2},
		{"zero declared is absent", NovaInput{Declared: intPtr(0)}, 1, 0},
		{"declared clamped", NovaInput{Declared: intPtr(9)}, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNova(tt.in)
			if got.Group != tt.wantGroup || got.MarkersCount != tt.wantMarkers {
				t.Errorf("got group %d markers %d, want group %d markers %d",
					got.Group, got.MarkersCount, tt.wantGroup, tt.wantMarkers)
			}
			if got.Description != NovaDescription(got.Group) {
				t.Errorf("description %q does not match group %d", got.Description, got.Group)
			}
		})
	}
}

func TestNovaDescription(t *testing.T) {
	if NovaDescription(4) != "Ultra-processed foods" || NovaDescription(1) != "Unprocessed or minimally processed foods" {
		t.Error("unexpected NOVA descriptions")
	}
	if NovaDescription(0) != NovaDescription(1) {
		t.Error("groups below 1 should clamp to 1")
	}
}

func TestMatchPercentage(t *testing.T) {
	tests := []struct {
		grade Grade
		nova  int
		want  int
	}{
		{GradeA, 1, 100},
		{GradeB, 3, 77},
		{GradeC, 2, 80},
		{GradeC, 4, 37},
		{GradeE, 4, 12},
		{GradeD, 3, 32},
	}
	for _, tt := range tests {
		if got := MatchPercentage(tt.grade, tt.nova); got != tt.want {
			t.Errorf("MatchPercentage(%s, %d) = %d, want %d", tt.grade, tt.nova, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	meta := nutrition.Metadata{AdditiveTags: []string{"en:e330"}}

	res := Evaluate(ThresholdPolicy{}, referenceLabel(), meta)

	if res.Grade != GradeC || res.Policy != "threshold" {
		t.Errorf("grade/policy = %s/%s", res.Grade, res.Policy)
	}
	if res.NovaGroup != 3 || res.MarkersCount != 1 || res.NovaDescription != "Processed foods" {
		t.Errorf("nova = %d/%d/%q", res.NovaGroup, res.MarkersCount, res.NovaDescription)
	}
	if res.MatchPercentage != 57 {
		t.Errorf("match = %d, want 57", res.MatchPercentage)
	}
}
