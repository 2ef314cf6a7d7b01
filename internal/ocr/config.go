package ocr

import "fmt"

// EngineMode selects the Tesseract recognizer (tessedit_ocr_engine_mode).
type EngineMode int

// Engine modes understood by Tesseract 4 and later.
const (
	EngineLegacy       EngineMode = 0
	EngineLSTM         EngineMode = 1
	EngineLegacyLSTM   EngineMode = 2
	EngineDefault      EngineMode = 3
	engineModeSentinel EngineMode = 4
)

func (m EngineMode) String() string {
	switch m {
	case EngineLegacy:
		return "legacy"
	case EngineLSTM:
		return "lstm"
	case EngineLegacyLSTM:
		return "legacy+lstm"
	case EngineDefault:
		return "default"
	default:
		return fmt.Sprintf("oem(%d)", int(m))
	}
}

// Valid reports whether m is a mode Tesseract accepts.
func (m EngineMode) Valid() bool {
	return m >= EngineLegacy && m < engineModeSentinel
}

// SegMode is a Tesseract page segmentation mode. Values match
// tesseract::PageSegMode so they convert directly to the engine's type.
type SegMode int

// Segmentation modes used by the label configurations.
const (
	SegAuto         SegMode = 3
	SegSingleColumn SegMode = 4
	SegSingleBlock  SegMode = 6
	SegSingleLine   SegMode = 7
	SegSparseText   SegMode = 11
)

func (s SegMode) String() string {
	switch s {
	case SegAuto:
		return "auto"
	case SegSingleColumn:
		return "single-column"
	case SegSingleBlock:
		return "single-block"
	case SegSingleLine:
		return "single-line"
	case SegSparseText:
		return "sparse-text"
	default:
		return fmt.Sprintf("psm(%d)", int(s))
	}
}

// Config is one way of running OCR over a preprocessed label.
type Config struct {
	// Index is the position in the cycle, 0 through len(Configs())-1.
	Index int `json:"index"`

	// Name identifies the configuration in logs and operator reports.
	Name string `json:"name"`

	Engine  EngineMode `json:"oem"`
	Segment SegMode    `json:"psm"`

	// Description says which label layout the configuration targets.
	Description string `json:"description"`
}

func (c Config) String() string {
	return fmt.Sprintf("%s (oem %d, psm %d)", c.Name, int(c.Engine), int(c.Segment))
}

// configs is the fixed retry cycle. Order matters: the verification loop
// advances through it with wrap-around.
var configs = [...]Config{
	{0, "column", EngineLSTM, SegSingleColumn, "single column of variable-sized text, typical nutrition table"},
	{1, "paragraph", EngineDefault, SegSingleBlock, "uniform block of text"},
	{2, "single-line", EngineDefault, SegSingleLine, "one line of text, for tightly cropped rows"},
	{3, "sparse", EngineDefault, SegSparseText, "scattered text in no particular order"},
	{4, "multi-column", EngineLSTM, SegAuto, "automatic segmentation fallback for multi-column panels"},
}

// Configs returns a copy of the configuration cycle.
func Configs() []Config {
	out := make([]Config, len(configs))
	copy(out, configs[:])
	return out
}

// NumConfigs is the length of the configuration cycle.
func NumConfigs() int {
	return len(configs)
}

// ConfigAt returns the configuration at index i, wrapping in both
// directions.
func ConfigAt(i int) Config {
	n := len(configs)
	return configs[((i%n)+n)%n]
}

// NextIndex returns the index that follows i in the cycle.
func NextIndex(i int) int {
	return ConfigAt(i + 1).Index
}
