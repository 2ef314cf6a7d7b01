//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/labelscan/internal/imaging"
)

// LabelWhitelist restricts recognition to characters a nutrition panel
// needs. Everything else is noise as far as the parser is concerned.
const LabelWhitelist = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,%"

// Tesseract is an Engine backed by the native Tesseract library.
type Tesseract struct {
	// Language is the traineddata name, "eng" when empty.
	Language string

	// TessdataPrefix overrides TESSDATA_PREFIX when set.
	TessdataPrefix string

	// Whitelist overrides LabelWhitelist. Set to "-" to disable it.
	Whitelist string
}

// NewTesseract returns a Tesseract engine for the given language.
func NewTesseract(language, tessdataPrefix string) *Tesseract {
	return &Tesseract{Language: language, TessdataPrefix: tessdataPrefix}
}

var (
	modeConfigDir  string
	modeConfigOnce sync.Once
	modeConfigErr  error
)

// ensureModeConfigs writes one Tesseract config file per engine mode.
// The engine mode is an init-only parameter, so it has to reach Tesseract
// through a config file rather than SetVariable.
func ensureModeConfigs() (string, error) {
	modeConfigOnce.Do(func() {
		modeConfigDir, modeConfigErr = writeModeConfigs()
	})
	return modeConfigDir, modeConfigErr
}

func writeModeConfigs() (string, error) {
	dir := filepath.Join(os.TempDir(), "labelscan-ocr")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create ocr config directory: %w", err)
	}

	for m := EngineLegacy; m < engineModeSentinel; m++ {
		path := modeConfigPath(dir, m)
		content := fmt.Sprintf("tessedit_ocr_engine_mode %d\n", int(m))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return dir, nil
}

func modeConfigPath(dir string, m EngineMode) string {
	return filepath.Join(dir, fmt.Sprintf("oem%d.config", int(m)))
}

// Recognize runs Tesseract once with cfg. Each call uses its own client so
// concurrent sessions never share engine state.
func (t *Tesseract) Recognize(ctx context.Context, img *image.Gray, cfg Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !cfg.Engine.Valid() {
		return "", fmt.Errorf("invalid engine mode %d", int(cfg.Engine))
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", err
	}

	dir, err := ensureModeConfigs()
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetConfigFile(modeConfigPath(dir, cfg.Engine)); err != nil {
		return "", fmt.Errorf("failed to set engine mode: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.Segment)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetVariable(gosseract.SettableVariable("preserve_interword_spaces"), "1"); err != nil {
		return "", fmt.Errorf("failed to preserve spacing: %w", err)
	}

	whitelist := t.Whitelist
	if whitelist == "" {
		whitelist = LabelWhitelist
	}
	if whitelist != "-" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return "", fmt.Errorf("failed to set whitelist: %w", err)
		}
	}

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}
