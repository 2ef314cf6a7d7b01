package scoring

import (
	"strings"

	"github.com/ironsheep/labelscan/internal/nutrition"
)

// NOVA processing groups.
const (
	NovaUnprocessed = 1
	NovaCulinary    = 2
	NovaProcessed   = 3
	NovaUltra       = 4
)

var novaDescriptions = map[int]string{
	NovaUnprocessed: "Unprocessed or minimally processed foods",
	NovaCulinary:    "Processed culinary ingredients",
	NovaProcessed:   "Processed foods",
	NovaUltra:       "Ultra-processed foods",
}

// NovaDescription returns the fixed label for a group, clamping it to 1-4.
func NovaDescription(group int) string {
	return novaDescriptions[clampNova(group)]
}

// ultraVocabulary holds fragments of ingredient-analysis tags that signal
// industrial processing.
var ultraVocabulary = []string{
	"flavour", "flavor",
	"hydrogenat",
	"hydrolys",
	"emulsifier",
	"colour", "color",
	"preservative",
}

// NovaInput is the evidence available to the classifier.
type NovaInput struct {
	// Declared is the group reported by the product source. Nil or a value
	// below 1 means not declared.
	Declared *int

	AdditiveTags []string
	AnalysisTags []string
}

// NovaInputFromMetadata collects classifier evidence from product metadata.
func NovaInputFromMetadata(m nutrition.Metadata) NovaInput {
	return NovaInput{
		Declared:     m.NovaGroup,
		AdditiveTags: m.AdditiveTags,
		AnalysisTags: m.AnalysisTags,
	}
}

// NovaResult is the classifier output.
type NovaResult struct {
	Group        int    `json:"nova_group"`
	Description  string `json:"nova_description"`
	MarkersCount int    `json:"markers_count"`
}

// CountMarkers returns the number of ultra-processing signals: every
// declared additive plus every analysis tag containing a vocabulary
// fragment.
func CountMarkers(in NovaInput) int {
	n := len(in.AdditiveTags)
	for _, tag := range in.AnalysisTags {
		tag = strings.ToLower(tag)
		for _, frag := range ultraVocabulary {
			if strings.Contains(tag, frag) {
				n++
				break
			}
		}
	}
	return n
}

// ClassifyNova estimates the processing group.
//
// Three or more markers force group 4 whatever was declared. One or two
// markers raise the group to at least 3. Without markers the declared group
// stands, and only when nothing is declared does the result fall back to
// group 1. The output is always within 1-4.
func ClassifyNova(in NovaInput) NovaResult {
	markers := CountMarkers(in)

	declared := 0
	if in.Declared != nil && *in.Declared > 0 {
		declared = *in.Declared
	}

	var group int
	switch {
	case markers >= 3:
		group = NovaUltra
	case markers > 0:
		group = declared
		if group < NovaProcessed {
			group = NovaProcessed
		}
	case declared > 0:
		group = declared
	default:
		group = NovaUnprocessed
	}
	group = clampNova(group)

	return NovaResult{
		Group:        group,
		Description:  novaDescriptions[group],
		MarkersCount: markers,
	}
}

func clampNova(g int) int {
	if g < NovaUnprocessed {
		return NovaUnprocessed
	}
	if g > NovaUltra {
		return NovaUltra
	}
	return g
}
