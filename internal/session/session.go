package session

import (
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/offacts"
	"github.com/ironsheep/labelscan/internal/scoring"
)

// State is a position in the verification loop.
type State string

// Verification loop states. Accepted is terminal.
const (
	StateAwaitingUpload State = "awaiting_upload"
	StateExtracted      State = "extracted"
	StateRetrying       State = "retrying"
	StateAccepted       State = "accepted"
)

// Session holds one label being verified. All fields are guarded by mu;
// callers outside the package only ever see a Snapshot.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	state     State

	configIndex int
	info        imaging.ImageInfo
	binary      *image.Gray
	text        string
	attempts    []ocr.Attempt

	barcode string
	// label is the reading from OCR alone; record is label reconciled with
	// product data.
	label   nutrition.Record
	record  nutrition.Record
	product *offacts.Product

	result     *scoring.Result
	acceptedAt time.Time

	// lastUsed (unix nanoseconds) and accepted are read under the manager lock
	// without taking mu.
	lastUsed atomic.Int64
	accepted atomic.Bool
}

func newSession(id string, now time.Time) *Session {
	s := &Session{
		id:        id,
		createdAt: now,
		state:     StateAwaitingUpload,
	}
	s.touch(now)
	return s
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Snapshot is a copy of session state safe to hand to callers.
type Snapshot struct {
	ID          string             `json:"session_id"`
	State       State              `json:"state"`
	ConfigIndex int                `json:"config_index"`
	Config      ocr.Config         `json:"config"`
	Image       imaging.ImageInfo  `json:"image"`
	Text        string             `json:"ocr_text"`
	Attempts    []ocr.Attempt      `json:"attempts,omitempty"`
	Barcode     string             `json:"barcode,omitempty"`
	Record      nutrition.Record   `json:"record"`
	Label       nutrition.Record   `json:"label_record"`
	Metadata    nutrition.Metadata `json:"metadata"`
	Additives   []string           `json:"additives,omitempty"`
	External    bool               `json:"external_data"`
	Result      *scoring.Result    `json:"result,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	AcceptedAt  *time.Time         `json:"accepted_at,omitempty"`
}

// snapshot must be called with s.mu held.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:          s.id,
		State:       s.state,
		ConfigIndex: s.configIndex,
		Config:      ocr.ConfigAt(s.configIndex),
		Image:       s.info,
		Text:        s.text,
		Attempts:    append([]ocr.Attempt(nil), s.attempts...),
		Barcode:     s.barcode,
		Record:      s.record.Clone(),
		Label:       s.label.Clone(),
		CreatedAt:   s.createdAt,
	}
	if s.product != nil {
		snap.External = true
		snap.Metadata = nutrition.ReconcileMetadata(nutrition.Metadata{}, s.product.Metadata)
		snap.Additives = append([]string(nil), s.product.Additives...)
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
		at := s.acceptedAt
		snap.AcceptedAt = &at
	}
	return snap
}

// metadata returns product metadata or the zero value when no product data
// was found. Must be called with s.mu held.
func (s *Session) metadata() nutrition.Metadata {
	if s.product == nil {
		return nutrition.Metadata{}
	}
	return s.product.Metadata
}

// external returns the product nutrients or an all-nil record. Must be
// called with s.mu held.
func (s *Session) external() nutrition.Record {
	if s.product == nil {
		return nutrition.Record{}
	}
	return s.product.Nutrients
}

// Overrides maps nutrient keys to operator-entered values, e.g.
// {"sugars": "12,5"}.
type Overrides map[string]string

// UnmarshalJSON accepts both strings and numbers as values, so JSON clients
// may send {"sugars": 12.5} or {"sugars": "12,5"}. Null values are
// skipped. Validation happens on accept, not here.
func (o *Overrides) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Overrides, len(raw))
	for key, v := range raw {
		if string(v) == "null" {
			continue
		}
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			out[key] = str
			continue
		}
		var num json.Number
		if err := json.Unmarshal(v, &num); err != nil {
			return fmt.Errorf("override %q must be a string or a number", key)
		}
		out[key] = num.String()
	}
	*o = out
	return nil
}

// parse validates every override before any is applied, so a bad entry
// leaves the session untouched.
func (o Overrides) parse() (map[nutrition.Nutrient]float64, error) {
	out := make(map[nutrition.Nutrient]float64, len(o))
	for key, raw := range o {
		n, err := nutrition.ParseNutrient(key)
		if err != nil {
			return nil, err
		}
		v, err := nutrition.ParseManualValue(n, raw)
		if err != nil {
			return nil, err
		}
		out[n] = v
	}
	return out, nil
}

// Record builds a record holding only the override values.
func (o Overrides) Record() (nutrition.Record, error) {
	values, err := o.parse()
	if err != nil {
		return nutrition.Record{}, err
	}
	var r nutrition.Record
	for n, v := range values {
		if err := r.Set(n, v); err != nil {
			return nutrition.Record{}, err
		}
	}
	return r, nil
}

// accept freezes the record with overrides applied and scores it. It does
// not change state; the caller commits once persistence has succeeded.
// Must be called with s.mu held.
func (s *Session) accept(overrides Overrides, policy scoring.Policy) (nutrition.Record, scoring.Result, error) {
	if s.state != StateExtracted {
		return nutrition.Record{}, scoring.Result{}, invalidTransition("accept", s.state)
	}

	values, err := overrides.parse()
	if err != nil {
		return nutrition.Record{}, scoring.Result{}, err
	}

	final := s.record.Clone()
	for n, v := range values {
		if err := final.Set(n, v); err != nil {
			return nutrition.Record{}, scoring.Result{}, err
		}
	}

	return final, scoring.Evaluate(policy, final, s.metadata()), nil
}

// commitAccept must be called with s.mu held.
func (s *Session) commitAccept(final nutrition.Record, res scoring.Result, at time.Time) {
	s.record = final
	s.result = &res
	s.acceptedAt = at
	s.state = StateAccepted
	s.accepted.Store(true)
	// The binary image is only needed for retries.
	s.binary = nil
}
