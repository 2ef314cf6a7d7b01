package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log"
	"strings"
	"sync"
	"testing"
)

// fakeEngine returns canned output per configuration index.
type fakeEngine struct {
	mu     sync.Mutex
	texts  map[int]string
	errs   map[int]error
	panics map[int]bool
	calls  []int
}

func (f *fakeEngine) Recognize(ctx context.Context, img *image.Gray, cfg Config) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cfg.Index)
	f.mu.Unlock()

	if f.panics[cfg.Index] {
		panic("engine crashed")
	}
	if err := f.errs[cfg.Index]; err != nil {
		return "", err
	}
	return f.texts[cfg.Index], nil
}

func blank() *image.Gray {
	return image.NewGray(image.Rect(0, 0, 10, 10))
}

func quietLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func TestRunAll_DedupesAndOrdersByLength(t *testing.T) {
	engine := &fakeEngine{texts: map[int]string{
		0: "  sugars 12g  ",
		1: "energy 250kcal sugars 12g",
		2: "sugars 12g",
		3: "",
		4: "fat 9g",
	}}
	logger, _ := quietLogger()

	agg := NewRunner(engine, logger).RunAll(context.Background(), blank())

	want := "energy 250kcal sugars 12g\nsugars 12g\nfat 9g"
	if agg.Text != want {
		t.Errorf("Text = %q, want %q", agg.Text, want)
	}
	if len(agg.Attempts) != 5 {
		t.Errorf("expected 5 attempts, got %d", len(agg.Attempts))
	}
	if agg.Succeeded() != 4 {
		t.Errorf("Succeeded() = %d, want 4", agg.Succeeded())
	}
}

func TestRunAll_FailuresAreIsolated(t *testing.T) {
	engine := &fakeEngine{
		texts:  map[int]string{1: "protein 5g", 4: "fiber 2g"},
		errs:   map[int]error{0: errors.New("init failed"), 2: errors.New("timeout")},
		panics: map[int]bool{3: true},
	}
	logger, logs := quietLogger()

	agg := NewRunner(engine, logger).RunAll(context.Background(), blank())

	if len(engine.calls) != 5 {
		t.Errorf("engine called %d times, want 5", len(engine.calls))
	}
	if agg.Text != "protein 5g\nfiber 2g" {
		t.Errorf("Text = %q", agg.Text)
	}
	for _, i := range []int{0, 2, 3} {
		if !agg.Attempts[i].Failed() {
			t.Errorf("attempt %d should be marked failed", i)
		}
	}
	if !strings.Contains(logs.String(), "init failed") || !strings.Contains(logs.String(), "panic") {
		t.Errorf("failures not logged: %q", logs.String())
	}
}

func TestRunAll_AllFail(t *testing.T) {
	engine := &fakeEngine{errs: map[int]error{
		0: ErrEngineUnavailable, 1: ErrEngineUnavailable, 2: ErrEngineUnavailable,
		3: ErrEngineUnavailable, 4: ErrEngineUnavailable,
	}}
	logger, _ := quietLogger()

	agg := NewRunner(engine, logger).RunAll(context.Background(), blank())

	if agg.Text != "" {
		t.Errorf("Text = %q, want empty", agg.Text)
	}
	if agg.Succeeded() != 0 {
		t.Errorf("Succeeded() = %d, want 0", agg.Succeeded())
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	engine := &fakeEngine{texts: map[int]string{0: "salt 1g"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewRunner(engine, nil).RunAll(ctx, blank())

	if len(engine.calls) != 0 {
		t.Errorf("engine should not run after cancellation, ran %v", engine.calls)
	}
	if len(agg.Attempts) != 5 || !agg.Attempts[0].Failed() {
		t.Error("cancelled attempts should still be recorded as failures")
	}
}

func TestRunOne(t *testing.T) {
	engine := &fakeEngine{texts: map[int]string{2: "\n salt 1.2g \n"}}

	text, err := NewRunner(engine, nil).RunOne(context.Background(), blank(), 7)
	if err != nil {
		t.Fatalf("RunOne failed: %v", err)
	}
	if text != "salt 1.2g" {
		t.Errorf("text = %q, want %q", text, "salt 1.2g")
	}
	if len(engine.calls) != 1 || engine.calls[0] != 2 {
		t.Errorf("expected a single call with config 2, got %v", engine.calls)
	}
}

func TestRunOne_Error(t *testing.T) {
	engine := &fakeEngine{errs: map[int]error{0: errors.New("boom")}}
	logger, _ := quietLogger()

	_, err := NewRunner(engine, logger).RunOne(context.Background(), blank(), 0)
	if err == nil || !strings.Contains(err.Error(), "column") {
		t.Errorf("expected error naming the configuration, got %v", err)
	}
}

func TestCombine_EqualLengthKeepsCycleOrder(t *testing.T) {
	got := combine([]Attempt{
		{Text: "bbb"},
		{Text: "aaa"},
		{Text: "cccc"},
	})
	if got != "cccc\nbbb\naaa" {
		t.Errorf("combine = %q", got)
	}
}
