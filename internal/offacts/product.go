package offacts

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ironsheep/labelscan/internal/nutrition"
)

// Product is a barcode lookup converted to the label schema.
type Product struct {
	Barcode   string             `json:"barcode"`
	Nutrients nutrition.Record   `json:"nutrients"`
	Metadata  nutrition.Metadata `json:"metadata"`

	// Additives holds display strings for Metadata.AdditiveTags.
	Additives []string `json:"additives,omitempty"`

	// Dropped lists nutrient keys whose payload value was rejected, such as
	// negative or non-numeric quantities.
	Dropped []string `json:"dropped,omitempty"`
}

// nutrimentKeys maps payload keys under product.nutriments to the schema.
var nutrimentKeys = []struct {
	key string
	n   nutrition.Nutrient
}{
	{"energy-kcal_100g", nutrition.EnergyKcal},
	{"fat_100g", nutrition.Fat},
	{"saturated-fat_100g", nutrition.SaturatedFat},
	{"carbohydrates_100g", nutrition.Carbohydrates},
	{"sugars_100g", nutrition.Sugars},
	{"fiber_100g", nutrition.Fiber},
	{"proteins_100g", nutrition.Protein},
	{"salt_100g", nutrition.Salt},
}

const kjPerKcal = 4.184

// ParseProduct converts a product API payload into a Product. A malformed
// body, a status other than 1 or a missing product object yields a
// *NotFoundError.
func ParseProduct(code string, body []byte) (*Product, error) {
	if !gjson.ValidBytes(body) {
		return nil, &NotFoundError{Barcode: code, Reason: "malformed payload"}
	}

	root := gjson.ParseBytes(body)
	if status := root.Get("status"); status.Int() != 1 {
		reason := root.Get("status_verbose").String()
		if reason == "" && status.Exists() {
			reason = "status " + status.Raw
		} else if reason == "" {
			reason = "payload has no status"
		}
		return nil, &NotFoundError{Barcode: code, Reason: reason}
	}

	product := root.Get("product")
	if !product.IsObject() {
		return nil, &NotFoundError{Barcode: code, Reason: "payload has no product"}
	}

	p := &Product{Barcode: code}
	nutriments := product.Get("nutriments")

	for _, k := range nutrimentKeys {
		res := nutriments.Get(gjson.Escape(k.key))
		if !res.Exists() {
			continue
		}
		v, ok := number(res)
		if !ok {
			p.Dropped = append(p.Dropped, string(k.n))
			continue
		}
		if err := p.Nutrients.Set(k.n, v); err != nil {
			p.Dropped = append(p.Dropped, string(k.n))
		}
	}

	// Older entries only carry energy in kJ and sodium instead of salt.
	if p.Nutrients.EnergyKcal == nil {
		if kj, ok := number(nutriments.Get("energy_100g")); ok && kj >= 0 {
			p.Nutrients.EnergyKcal = nutrition.Float(kj / kjPerKcal)
		}
	}
	if p.Nutrients.Salt == nil {
		if sodium, ok := number(nutriments.Get("sodium_100g")); ok && sodium >= 0 {
			p.Nutrients.Salt = nutrition.Float(sodium * 2.5)
		}
	}

	p.Metadata = nutrition.Metadata{
		ProductName:     product.Get("product_name").String(),
		Brand:           product.Get("brands").String(),
		Categories:      product.Get("categories").String(),
		ImageURL:        product.Get("image_url").String(),
		ServingSize:     product.Get("serving_size").String(),
		IngredientsText: product.Get("ingredients_text").String(),
		AdditiveTags:    stringList(product.Get("additives_tags"), identity),
		AnalysisTags:    stringList(product.Get("ingredients_analysis_tags"), strings.ToLower),
		Allergens:       stringList(product.Get("allergens_tags"), stripPrefix),
		Traces:          stringList(product.Get("traces_tags"), stripPrefix),
		NutriscoreGrade: grade(product),
	}
	if g, ok := number(product.Get("nova_group")); ok && g == math.Trunc(g) {
		n := int(g)
		p.Metadata.NovaGroup = &n
	}
	p.Additives = FormatAdditives(p.Metadata.AdditiveTags)

	return p, nil
}

// number reads a numeric field that the API may encode either as a JSON
// number or as a string.
func number(res gjson.Result) (float64, bool) {
	var v float64
	switch res.Type {
	case gjson.Number:
		v = res.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(res.Str), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func stringList(res gjson.Result, fn func(string) string) []string {
	if !res.IsArray() {
		return nil
	}
	var out []string
	for _, item := range res.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, fn(s))
		}
	}
	return out
}

func identity(s string) string { return s }

// stripPrefix removes the language prefix of a taxonomy tag ("en:milk").
func stripPrefix(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

func grade(product gjson.Result) string {
	for _, key := range []string{"nutriscore_grade", "nutrition_grades"} {
		g := strings.ToLower(strings.TrimSpace(product.Get(key).String()))
		if len(g) == 1 && g[0] >= 'a' && g[0] <= 'e' {
			return g
		}
	}
	return ""
}
