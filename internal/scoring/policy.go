package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ironsheep/labelscan/internal/nutrition"
)

// ErrUnknownPolicy is returned by PolicyByName for an unregistered name.
var ErrUnknownPolicy = errors.New("unknown scoring policy")

// Grade is a Nutri-Score letter, A (best) through E (worst).
type Grade string

// Grades in order from best to worst.
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// Rank orders grades from 0 (A) to 4 (E). Unknown grades rank 5.
func (g Grade) Rank() int {
	switch g {
	case GradeA:
		return 0
	case GradeB:
		return 1
	case GradeC:
		return 2
	case GradeD:
		return 3
	case GradeE:
		return 4
	}
	return 5
}

// Breakdown explains how a policy reached its grade.
type Breakdown struct {
	Unfavourable float64 `json:"unfavourable"`
	Favourable   float64 `json:"favourable"`
	Final        float64 `json:"final"`
}

// Policy turns a nutrition record into a grade. Missing values count as
// zero. Implementations are pure and safe for concurrent use.
type Policy interface {
	Name() string
	Score(r nutrition.Record) (Grade, Breakdown)
}

// Policy names.
const (
	ThresholdPolicyName = "threshold"
	IndianPolicyName    = "indian"
)

// DefaultPolicyName is used when configuration does not choose one.
const DefaultPolicyName = ThresholdPolicyName

var policies = map[string]Policy{
	ThresholdPolicyName: ThresholdPolicy{},
	IndianPolicyName:    IndianPolicy{},
}

// PolicyByName returns the registered policy with the given name. The empty
// name selects the default.
func PolicyByName(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultPolicyName
	}
	p, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPolicy, name, strings.Join(PolicyNames(), ", "))
	}
	return p, nil
}

// PolicyNames lists registered policy names in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for n := range policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
