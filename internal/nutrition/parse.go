package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

// number matches the first quantity after a label. Labels print the decimal
// separator as '.' or ','.
const number = `(\d+(?:[.,]\d+)?)`

var (
	// "energy (kcal) ... 250" or a bare "250 kcal". Either alternative may
	// appear first; the leftmost wins.
	energyRe = regexp.MustCompile(`(?i)energy\s*\(?kcal\)?.*?` + number + `|` + number + `\s*\(?kcal\b\)?`)

	sugarsRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)of\s*which\s*sugars.*?` + number + `\s*g`),
		regexp.MustCompile(`(?i)\bsugars?\b.*?` + number + `\s*g`),
	}

	saltRe   = regexp.MustCompile(`(?i)salt.*?` + number + `\s*g`)
	sodiumRe = regexp.MustCompile(`(?i)sodium.*?` + number + `\s*mg`)

	fatRe           = regexp.MustCompile(`(?i)(?:total\s*fat|fat)[^\d]*` + number)
	saturatedFatRe  = regexp.MustCompile(`(?i)(?:saturated\s*fat|saturates)[^\d]*` + number)
	carbohydratesRe = regexp.MustCompile(`(?i)(?:carbohydrates?|carbs)[^\d]*` + number)
	fiberRe         = regexp.MustCompile(`(?i)(?:fibre|fiber)[^\d]*` + number)
	proteinRe       = regexp.MustCompile(`(?i)proteins?[^\d]*` + number)

	// A "fat" label directly preceded by one of these belongs to another
	// nutrient.
	fatQualifiers = []string{"saturated", "trans", "mono-unsaturated", "monounsaturated", "polyunsaturated", "unsaturated"}
)

// SodiumToSalt converts milligrams of sodium to grams of salt.
func SodiumToSalt(sodiumMg float64) float64 {
	return sodiumMg / 400
}

// Parse extracts nutrient quantities from sanitized label text. Fields whose
// pattern is absent stay nil; Parse never fails.
//
// Salt comes from an explicit salt phrase when one parses, otherwise from a
// sodium quantity in milligrams.
func Parse(text string) Record {
	var r Record

	r.EnergyKcal = firstNumber(energyRe, text)

	for _, re := range sugarsRes {
		if v := firstNumber(re, text); v != nil {
			r.Sugars = v
			break
		}
	}

	r.Salt = firstNumber(saltRe, text)
	if r.Salt == nil {
		if mg := firstNumber(sodiumRe, text); mg != nil {
			r.Salt = Float(SodiumToSalt(*mg))
		}
	}

	r.Fat = parseFat(text)
	r.SaturatedFat = firstNumber(saturatedFatRe, text)
	r.Carbohydrates = firstNumber(carbohydratesRe, text)
	r.Fiber = firstNumber(fiberRe, text)
	r.Protein = firstNumber(proteinRe, text)

	return r
}

// firstNumber returns the first non-empty capture group of the leftmost
// match, or nil when there is no match or the capture is not a number.
func firstNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return captured(m[1:])
}

func captured(groups []string) *float64 {
	for _, g := range groups {
		if g == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.Replace(g, ",", ".", 1), 64)
		if err != nil {
			return nil
		}
		return Float(v)
	}
	return nil
}

// parseFat takes the first fat quantity whose label is not qualified as
// saturated, trans or unsaturated fat.
func parseFat(text string) *float64 {
	for _, loc := range fatRe.FindAllStringSubmatchIndex(text, -1) {
		if qualifiedFat(text[:loc[0]]) {
			continue
		}
		return captured([]string{text[loc[2]:loc[3]]})
	}
	return nil
}

func qualifiedFat(before string) bool {
	before = strings.ToLower(strings.TrimRight(before, " \t\r\n"))
	for _, q := range fatQualifiers {
		if strings.HasSuffix(before, q) {
			return true
		}
	}
	return false
}
