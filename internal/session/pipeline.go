package session

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/labelscan/internal/detection"
	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/offacts"
)

// ProductSource looks products up by barcode. *offacts.Client satisfies it.
type ProductSource interface {
	Lookup(ctx context.Context, code string) (*offacts.Product, error)
}

// Upload is the operator input that starts a session.
type Upload struct {
	Image  image.Image
	Format string

	// Barcode is optional. When present it must be 8-13 digits.
	Barcode string

	// Region restricts OCR to part of the photograph.
	Region *imaging.Region

	// Locate asks for the panel to be found automatically when Region is
	// nil. When nothing text-like is found the whole photograph is used.
	Locate bool
}

// Pipeline runs extraction: preprocessing, OCR, parsing, the optional
// product lookup and reconciliation.
type Pipeline struct {
	Runner   *ocr.Runner
	Products ProductSource
	DebugDir string
	Logger   *log.Logger
}

// NewPipeline creates a Pipeline. products may be nil to disable lookups.
func NewPipeline(runner *ocr.Runner, products ProductSource, debugDir string, logger *log.Logger) *Pipeline {
	return &Pipeline{
		Runner:   runner,
		Products: products,
		DebugDir: debugDir,
		Logger:   logger,
	}
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// validate rejects bad input before any session state exists.
func (p *Pipeline) validate(up *Upload) error {
	if up.Image == nil {
		return fmt.Errorf("%w: no image", imaging.ErrUndecodable)
	}
	if up.Barcode != "" {
		code, err := offacts.ValidateBarcode(up.Barcode)
		if err != nil {
			return err
		}
		up.Barcode = code
	}
	if up.Region == nil && up.Locate {
		r, err := detection.LocatePanel(up.Image)
		if err != nil {
			p.logf("panel detection: %v, using the whole photograph", err)
		} else {
			p.logf("panel detection: using (%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
			up.Region = &r
		}
	}
	if up.Region != nil {
		cropped, err := imaging.CropPanel(up.Image, *up.Region)
		if err != nil {
			return err
		}
		up.Image = cropped
	}
	return nil
}

// extract moves a session from AwaitingUpload to Extracted. OCR failures
// and lookup failures degrade to missing values; the session always ends in
// Extracted. Must be called with s.mu held.
func (p *Pipeline) extract(ctx context.Context, s *Session, up Upload) error {
	if s.state != StateAwaitingUpload {
		return invalidTransition("upload to", s.state)
	}

	s.info = imaging.Describe(up.Image, up.Format)
	s.binary = imaging.Preprocess(up.Image, imaging.PreprocessOptions{
		DebugDir: p.DebugDir,
		Logger:   p.Logger,
	})

	agg := p.Runner.RunAll(ctx, s.binary)
	s.attempts = agg.Attempts
	s.text = nutrition.Sanitize(agg.Text)
	s.label = nutrition.Parse(s.text)
	p.logf("session %s: %d/%d OCR configurations produced text, %d fields parsed",
		s.id, agg.Succeeded(), len(agg.Attempts), s.label.Count())

	s.barcode = up.Barcode
	s.product = p.lookup(ctx, s.id, up.Barcode)

	s.record = nutrition.Reconcile(s.label, s.external())
	s.configIndex = 0
	s.state = StateExtracted

	if s.record.IsEmpty() {
		p.logf("session %s: nothing extracted, manual entry required", s.id)
	}
	return nil
}

// lookup fetches product data, degrading every failure to nil.
func (p *Pipeline) lookup(ctx context.Context, id, code string) *offacts.Product {
	if code == "" || p.Products == nil {
		return nil
	}
	product, err := p.Products.Lookup(ctx, code)
	if err != nil {
		p.logf("session %s: continuing with label data only: %v", id, err)
		return nil
	}
	return product
}

// retry advances to the next OCR configuration and re-reads the label with
// it alone. Must be called with s.mu held.
func (p *Pipeline) retry(ctx context.Context, s *Session) error {
	if s.state != StateExtracted {
		return invalidTransition("retry", s.state)
	}
	s.state = StateRetrying

	next := ocr.NextIndex(s.configIndex)
	text, err := p.Runner.RunOne(ctx, s.binary, next)
	if err != nil {
		p.logf("session %s: retry produced no text: %v", s.id, err)
		text = ""
	}

	s.configIndex = next
	s.attempts = nil
	s.text = nutrition.Sanitize(text)
	s.label = nutrition.Parse(s.text)
	s.record = nutrition.Reconcile(s.label, s.external())
	s.state = StateExtracted
	return nil
}

// Product looks a barcode up without a session. Unlike extraction, a
// failure is returned to the caller.
func (p *Pipeline) Product(ctx context.Context, code string) (*offacts.Product, error) {
	code, err := offacts.ValidateBarcode(code)
	if err != nil {
		return nil, err
	}
	if p.Products == nil {
		return nil, &offacts.NotFoundError{Barcode: code, Reason: "product lookup disabled"}
	}
	return p.Products.Lookup(ctx, code)
}
