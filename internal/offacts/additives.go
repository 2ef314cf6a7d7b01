package offacts

import "strings"

// additiveInfo maps an E-number to "name - function".
var additiveInfo = map[string]string{
	"E100":  "Curcumin - Yellow-orange coloring from turmeric",
	"E101":  "Riboflavin - Yellow coloring (Vitamin B2)",
	"E102":  "Tartrazine - Yellow synthetic dye",
	"E104":  "Quinoline Yellow - Yellow synthetic dye",
	"E120":  "Cochineal - Red coloring from insects",
	"E122":  "Azorubine - Red synthetic coloring",
	"E129":  "Allura Red AC - Red synthetic coloring",
	"E131":  "Patent Blue V - Blue synthetic coloring",
	"E140":  "Chlorophylls - Green pigment from plants",
	"E141":  "Copper complexes of chlorophylls - Green coloring",
	"E150a": "Plain caramel - Brown coloring",
	"E160a": "Alpha-carotene - Orange coloring",
	"E160c": "Paprika extract - Red coloring from peppers",
	"E162":  "Beetroot Red - Natural red coloring",
	"E170":  "Calcium carbonate - White mineral",
	"E200":  "Sorbic acid - Preservative",
	"E202":  "Potassium sorbate - Preservative",
	"E210":  "Benzoic acid - Preservative",
	"E211":  "Sodium benzoate - Preservative",
	"E212":  "Potassium benzoate - Preservative",
	"E220":  "Sulphur dioxide - Preservative/antioxidant",
	"E221":  "Sodium sulphite - Preservative",
	"E223":  "Sodium metabisulphite - Preservative/antioxidant",
	"E224":  "Potassium metabisulphite - Preservative/antioxidant",
	"E250":  "Sodium nitrite - Preservative (cured meats)",
	"E251":  "Sodium nitrate - Preservative (cured meats)",
	"E260":  "Acetic acid - Preservative (vinegar)",
	"E270":  "Lactic acid - Acidity regulator",
	"E280":  "Propionic acid - Preservative (bread)",
	"E290":  "Carbon dioxide - Packaging gas",
	"E296":  "Malic acid - Acidity regulator/flavor enhancer",
	"E297":  "Fumaric acid - Acidity regulator",
	"E300":  "Ascorbic acid - Antioxidant (Vitamin C)",
	"E301":  "Sodium ascorbate - Antioxidant",
	"E306":  "Tocopherol-rich extract - Antioxidant (Vitamin E)",
	"E307":  "Alpha-tocopherol - Antioxidant (Vitamin E)",
	"E322":  "Lecithins - Emulsifier (from soy or eggs)",
	"E325":  "Sodium lactate - Antioxidant/humectant",
	"E330":  "Citric acid - Acidity regulator/antioxidant",
	"E331":  "Sodium citrates - Acidity regulator/emulsifier",
	"E332":  "Potassium citrates - Acidity regulator",
	"E333":  "Calcium citrates - Acidity regulator/firming agent",
	"E334":  "Tartaric acid - Acidity regulator",
	"E335":  "Sodium tartrates - Acidity regulator/stabilizer",
	"E336":  "Potassium tartrates - Stabilizer/sequestrant",
	"E340":  "Potassium phosphates - Acidity regulator/stabilizer",
	"E350":  "Sodium malates - Acidity regulator",
	"E375":  "Niacin - Vitamin B3",
	"E392":  "Rosemary extracts - Antioxidant",
	"E400":  "Alginic acid - Thickener/stabilizer",
	"E401":  "Sodium alginate - Thickener/stabilizer",
	"E406":  "Agar - Thickener/gelling agent",
	"E407":  "Carrageenan - Thickener/stabilizer",
	"E407a": "Processed eucheuma seaweed - Thickener",
	"E410":  "Locust bean gum - Thickener/stabilizer",
	"E412":  "Guar gum - Thickener/stabilizer",
	"E413":  "Tragacanth - Thickener/stabilizer",
	"E414":  "Acacia gum - Thickener/stabilizer",
	"E415":  "Xanthan gum - Thickener/stabilizer",
	"E422":  "Glycerol - Humectant/sweetener",
	"E440":  "Pectins - Gelling agent/thickener",
	"E441":  "Gelatine - Gelling agent",
	"E450":  "Diphosphates - Emulsifier/stabilizer",
	"E460":  "Cellulose - Anti-caking agent/emulsifier",
	"E461":  "Methyl cellulose - Thickener/emulsifier",
	"E464":  "Hydroxypropyl methyl cellulose - Thickener/emulsifier",
	"E471":  "Mono- and diglycerides of fatty acids - Emulsifier",
	"E472e": "Mono- and diacetyl tartaric acid esters - Emulsifier",
	"E476":  "Polyglycerol polyricinoleate - Emulsifier (chocolate)",
	"E481":  "Sodium stearoyl-2-lactylate - Emulsifier",
	"E500":  "Sodium carbonates - Acidity regulator/raising agent",
	"E501":  "Potassium carbonates - Acidity regulator/stabilizer",
	"E503":  "Ammonium carbonates - Raising agent",
	"E504":  "Magnesium carbonates - Anti-caking agent",
	"E570":  "Fatty acids - Anti-caking agent/foam stabilizer",
	"E621":  "Monosodium glutamate - Flavor enhancer (MSG)",
	"E631":  "Sodium inosinate - Flavor enhancer",
	"E901":  "Beeswax - Glazing agent",
	"E903":  "Carnauba wax - Glazing agent",
	"E950":  "Acesulfame K - Artificial sweetener",
	"E951":  "Aspartame - Artificial sweetener",
	"E953":  "Isomalt - Sugar substitute/sweetener",
	"E954":  "Saccharin - Artificial sweetener",
	"E955":  "Sucralose - Artificial sweetener",
	"E960":  "Steviol glycosides - Natural sweetener (stevia)",
	"E965":  "Maltitol - Sweetener/stabilizer",
	"E1442": "Hydroxy propyl distarch phosphate - Modified starch",
}

// AdditiveCode normalizes a taxonomy tag such as "en:e330" to "E330".
func AdditiveCode(tag string) string {
	code := strings.TrimSpace(tag)
	if i := strings.LastIndexByte(code, ':'); i >= 0 {
		code = code[i+1:]
	}
	switch {
	case strings.HasPrefix(code, "e"):
		return "E" + code[1:]
	case strings.HasPrefix(code, "E"):
		return code
	default:
		return "E" + code
	}
}

// FormatAdditive renders an additive tag for display, for example
// "E330 - Citric acid - Acidity regulator/antioxidant". Codes missing from
// the table render as "E123 - E123".
func FormatAdditive(tag string) string {
	code := AdditiveCode(tag)
	if info, ok := additiveInfo[code]; ok {
		return code + " - " + info
	}
	return code + " - " + code
}

// FormatAdditives formats every tag, keeping order.
func FormatAdditives(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = FormatAdditive(t)
	}
	return out
}
