package nutrition

// Reconcile merges a record read from the label with one fetched for the
// same barcode.
//
// The label reading describes the physical package in hand, so it wins
// whenever it has a non-zero value. External data only fills gaps: a field
// the label lacks takes the external value, and a label zero is replaced by
// an external value greater than zero. Neither input is modified.
func Reconcile(label, external Record) Record {
	out := label.Clone()
	for _, n := range allNutrients {
		ext, extOK := external.Get(n)
		if !extOK {
			continue
		}
		cur, ok := out.Get(n)
		if !ok || (cur == 0 && ext > 0) {
			*out.field(n) = Float(ext)
		}
	}
	return out
}

// Metadata is the non-numeric product information that accompanies a
// record. Only an external product database supplies most of it.
type Metadata struct {
	ProductName     string   `json:"product_name,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	Categories      string   `json:"categories,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	ServingSize     string   `json:"serving_size,omitempty"`
	IngredientsText string   `json:"ingredients_text,omitempty"`
	AdditiveTags    []string `json:"additives_tags,omitempty"`
	AnalysisTags    []string `json:"ingredients_analysis_tags,omitempty"`
	Allergens       []string `json:"allergens,omitempty"`
	Traces          []string `json:"traces,omitempty"`

	// NovaGroup is the declared processing group, nil when not declared.
	NovaGroup *int `json:"nova_group,omitempty"`

	// NutriscoreGrade is the grade declared by the source, lower-case a-e.
	NutriscoreGrade string `json:"nutriscore_grade,omitempty"`
}

// ReconcileMetadata merges product metadata. Unlike nutrient values,
// external metadata always wins when present; the label side only keeps
// fields the external source left empty.
func ReconcileMetadata(label, external Metadata) Metadata {
	out := label
	out.ProductName = preferString(external.ProductName, label.ProductName)
	out.Brand = preferString(external.Brand, label.Brand)
	out.Categories = preferString(external.Categories, label.Categories)
	out.ImageURL = preferString(external.ImageURL, label.ImageURL)
	out.ServingSize = preferString(external.ServingSize, label.ServingSize)
	out.IngredientsText = preferString(external.IngredientsText, label.IngredientsText)
	out.NutriscoreGrade = preferString(external.NutriscoreGrade, label.NutriscoreGrade)

	out.AdditiveTags = preferSlice(external.AdditiveTags, label.AdditiveTags)
	out.AnalysisTags = preferSlice(external.AnalysisTags, label.AnalysisTags)
	out.Allergens = preferSlice(external.Allergens, label.Allergens)
	out.Traces = preferSlice(external.Traces, label.Traces)

	if external.NovaGroup != nil {
		g := *external.NovaGroup
		out.NovaGroup = &g
	} else if label.NovaGroup != nil {
		g := *label.NovaGroup
		out.NovaGroup = &g
	}
	return out
}

func preferString(first, second string) string {
	if first != "" {
		return first
	}
	return second
}

func preferSlice(first, second []string) []string {
	src := second
	if len(first) > 0 {
		src = first
	}
	if len(src) == 0 {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
