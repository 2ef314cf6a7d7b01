package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Nutrient names one field of a Record. The string form is the JSON key.
type Nutrient string

// Recognized nutrients. Quantities are grams per 100 g except EnergyKcal,
// which is kilocalories per 100 g.
const (
	EnergyKcal    Nutrient = "energy_kcal"
	Fat           Nutrient = "fat"
	SaturatedFat  Nutrient = "saturated_fat"
	Carbohydrates Nutrient = "carbohydrates"
	Sugars        Nutrient = "sugars"
	Fiber         Nutrient = "fiber"
	Protein       Nutrient = "protein"
	Salt          Nutrient = "salt"
)

var allNutrients = []Nutrient{EnergyKcal, Fat, SaturatedFat, Carbohydrates, Sugars, Fiber, Protein, Salt}

// Nutrients returns every recognized nutrient in display order.
func Nutrients() []Nutrient {
	out := make([]Nutrient, len(allNutrients))
	copy(out, allNutrients)
	return out
}

// ParseNutrient converts a JSON key to a Nutrient.
func ParseNutrient(key string) (Nutrient, error) {
	n := Nutrient(strings.ToLower(strings.TrimSpace(key)))
	for _, known := range allNutrients {
		if n == known {
			return n, nil
		}
	}
	return "", &FieldError{Field: Nutrient(key), Err: ErrUnknownNutrient}
}

// Record is a flat snapshot of nutrition facts. A nil field means the value
// was not found; zero is a real reading.
type Record struct {
	EnergyKcal    *float64 `json:"energy_kcal"`
	Fat           *float64 `json:"fat"`
	SaturatedFat  *float64 `json:"saturated_fat"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Sugars        *float64 `json:"sugars"`
	Fiber         *float64 `json:"fiber"`
	Protein       *float64 `json:"protein"`
	Salt          *float64 `json:"salt"`
}

// Float returns a pointer to v, for building records in literals.
func Float(v float64) *float64 {
	return &v
}

func (r *Record) field(n Nutrient) **float64 {
	switch n {
	case EnergyKcal:
		return &r.EnergyKcal
	case Fat:
		return &r.Fat
	case SaturatedFat:
		return &r.SaturatedFat
	case Carbohydrates:
		return &r.Carbohydrates
	case Sugars:
		return &r.Sugars
	case Fiber:
		return &r.Fiber
	case Protein:
		return &r.Protein
	case Salt:
		return &r.Salt
	}
	return nil
}

// Get returns the value of n and whether it is present.
func (r Record) Get(n Nutrient) (float64, bool) {
	p := r.field(n)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Value returns the value of n, treating a missing field as zero.
func (r Record) Value(n Nutrient) float64 {
	v, _ := r.Get(n)
	return v
}

// Set validates v and stores it in n. Negative and non-finite values are
// rejected with a *FieldError and leave the record unchanged.
func (r *Record) Set(n Nutrient, v float64) error {
	p := r.field(n)
	if p == nil {
		return &FieldError{Field: n, Err: ErrUnknownNutrient}
	}
	if err := checkValue(v); err != nil {
		return &FieldError{Field: n, Value: strconv.FormatFloat(v, 'f', -1, 64), Err: err}
	}
	*p = Float(v)
	return nil
}

// Clear marks n as not found.
func (r *Record) Clear(n Nutrient) {
	if p := r.field(n); p != nil {
		*p = nil
	}
}

// Clone returns a deep copy whose fields do not alias r.
func (r Record) Clone() Record {
	var out Record
	for _, n := range allNutrients {
		if v, ok := r.Get(n); ok {
			*out.field(n) = Float(v)
		}
	}
	return out
}

// Equal reports whether both records hold the same values.
func (r Record) Equal(o Record) bool {
	for _, n := range allNutrients {
		a, aok := r.Get(n)
		b, bok := o.Get(n)
		if aok != bok || a != b {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no field is present.
func (r Record) IsEmpty() bool {
	return r.Count() == 0
}

// Count returns the number of present fields.
func (r Record) Count() int {
	n := 0
	for _, k := range allNutrients {
		if _, ok := r.Get(k); ok {
			n++
		}
	}
	return n
}

// Validate checks every present field, returning the first violation.
func (r Record) Validate() error {
	for _, n := range allNutrients {
		if v, ok := r.Get(n); ok {
			if err := checkValue(v); err != nil {
				return &FieldError{Field: n, Value: strconv.FormatFloat(v, 'f', -1, 64), Err: err}
			}
		}
	}
	return nil
}

// Map returns the present fields keyed by nutrient name.
func (r Record) Map() map[string]float64 {
	out := make(map[string]float64, len(allNutrients))
	for _, n := range allNutrients {
		if v, ok := r.Get(n); ok {
			out[string(n)] = v
		}
	}
	return out
}

func checkValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidValue
	}
	if v < 0 {
		return ErrNegativeValue
	}
	return nil
}

// ParseManualValue parses an operator-typed quantity for n. A decimal comma
// is accepted ("1,5" is 1.5). Empty, negative and non-numeric input is
// rejected with a *FieldError naming the field.
func ParseManualValue(n Nutrient, s string) (float64, error) {
	raw := s
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, &FieldError{Field: n, Value: raw, Err: ErrInvalidValue}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FieldError{Field: n, Value: raw, Err: ErrInvalidValue}
	}
	if err := checkValue(v); err != nil {
		return 0, &FieldError{Field: n, Value: raw, Err: err}
	}
	return v, nil
}

// String renders the record for logs.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range allNutrients {
		if i > 0 {
			b.WriteString(", ")
		}
		if v, ok := r.Get(n); ok {
			fmt.Fprintf(&b, "%s:%g", n, v)
		} else {
			fmt.Fprintf(&b, "%s:null", n)
		}
	}
	b.WriteByte('}')
	return b.String()
}
