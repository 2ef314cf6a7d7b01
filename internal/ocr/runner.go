package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sort"
	"strings"
	"time"
)

// ErrEngineUnavailable is returned by engines that cannot run in the
// current build or environment.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes text in a binarized label image using one configuration.
// Implementations must be safe for concurrent use by independent sessions.
type Engine interface {
	Recognize(ctx context.Context, img *image.Gray, cfg Config) (string, error)
}

// Attempt records the outcome of a single configuration.
type Attempt struct {
	Config   Config        `json:"config"`
	Text     string        `json:"text,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Failed reports whether the engine returned an error for this attempt.
func (a Attempt) Failed() bool {
	return a.Err != ""
}

// Aggregate is the combined output of every configuration.
type Aggregate struct {
	// Text holds the distinct non-empty outputs, longest first, joined by
	// newlines.
	Text string `json:"text"`

	// Attempts lists every configuration in cycle order, including failures.
	Attempts []Attempt `json:"attempts"`
}

// Succeeded counts attempts that produced text without error.
func (a Aggregate) Succeeded() int {
	n := 0
	for _, at := range a.Attempts {
		if !at.Failed() && at.Text != "" {
			n++
		}
	}
	return n
}

// Runner drives an Engine over the configuration cycle.
type Runner struct {
	Engine Engine
	Logger *log.Logger
}

// NewRunner creates a Runner. A nil logger logs through log.Default().
func NewRunner(engine Engine, logger *log.Logger) *Runner {
	return &Runner{Engine: engine, Logger: logger}
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// RunAll tries every configuration in order. A failing configuration is
// logged and skipped; it never prevents the others from running. Only
// cancellation of ctx stops the sequence early.
func (r *Runner) RunAll(ctx context.Context, img *image.Gray) Aggregate {
	agg := Aggregate{Attempts: make([]Attempt, 0, NumConfigs())}

	for _, cfg := range Configs() {
		if err := ctx.Err(); err != nil {
			agg.Attempts = append(agg.Attempts, Attempt{Config: cfg, Err: err.Error()})
			continue
		}
		agg.Attempts = append(agg.Attempts, r.attempt(ctx, img, cfg))
	}

	agg.Text = combine(agg.Attempts)
	return agg
}

// RunOne runs the configuration at index idx (wrapping) and returns its
// trimmed text.
func (r *Runner) RunOne(ctx context.Context, img *image.Gray, idx int) (string, error) {
	cfg := ConfigAt(idx)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	at := r.attempt(ctx, img, cfg)
	if at.Failed() {
		return "", fmt.Errorf("ocr %s: %s", cfg.Name, at.Err)
	}
	return at.Text, nil
}

func (r *Runner) attempt(ctx context.Context, img *image.Gray, cfg Config) (at Attempt) {
	at.Config = cfg
	start := time.Now()
	defer func() {
		at.Duration = time.Since(start)
		// A panicking engine counts as a failed attempt.
		if p := recover(); p != nil {
			at.Text = ""
			at.Err = fmt.Sprintf("panic: %v", p)
			r.logf("ocr: %s failed: %s", cfg, at.Err)
		}
	}()

	text, err := r.Engine.Recognize(ctx, img, cfg)
	if err != nil {
		at.Err = err.Error()
		r.logf("ocr: %s failed: %v", cfg, err)
		return at
	}
	at.Text = strings.TrimSpace(text)
	return at
}

// combine drops empty and duplicate outputs and joins the rest longest
// first. Equal lengths keep cycle order.
func combine(attempts []Attempt) string {
	seen := make(map[string]bool, len(attempts))
	texts := make([]string, 0, len(attempts))
	for _, at := range attempts {
		if at.Failed() || at.Text == "" || seen[at.Text] {
			continue
		}
		seen[at.Text] = true
		texts = append(texts, at.Text)
	}

	sort.SliceStable(texts, func(i, j int) bool {
		return len(texts[i]) > len(texts[j])
	})
	return strings.Join(texts, "\n")
}
