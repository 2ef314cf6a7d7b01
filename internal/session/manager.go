package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/scoring"
	"github.com/ironsheep/labelscan/internal/storage"
)

// ResultStore persists accepted sessions. *storage.SQLiteStore satisfies it.
type ResultStore interface {
	SaveResult(ctx context.Context, r *storage.AcceptedResult) error
}

// Default session limits.
const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxLive = 100
)

// Limits bound the sessions a Manager keeps in memory. A session idle for
// longer than TTL is dropped; when MaxLive sessions are live, starting one
// more evicts accepted sessions first, then the least recently used. Zero
// disables either bound.
type Limits struct {
	TTL     time.Duration
	MaxLive int
}

// Manager tracks live sessions by ID. Each session is serialized by its own
// lock, so a slow OCR run on one session never blocks another.
type Manager struct {
	pipeline *Pipeline
	store    ResultStore
	policy   scoring.Policy
	logger   *log.Logger

	// now and newID are replaceable in tests.
	now   func() time.Time
	newID func() string

	limits Limits

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. store may be nil to disable persistence;
// policy nil selects the default scoring policy.
func NewManager(pipeline *Pipeline, store ResultStore, policy scoring.Policy, logger *log.Logger) *Manager {
	if policy == nil {
		policy, _ = scoring.PolicyByName(scoring.DefaultPolicyName)
	}
	return &Manager{
		pipeline: pipeline,
		store:    store,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		limits:   Limits{TTL: DefaultTTL, MaxLive: DefaultMaxLive},
		sessions: make(map[string]*Session),
	}
}

// SetLimits replaces the session limits for subsequent calls.
func (m *Manager) SetLimits(l Limits) {
	m.mu.Lock()
	m.limits = l
	m.mu.Unlock()
}

func (m *Manager) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Policy returns the default scoring policy.
func (m *Manager) Policy() scoring.Policy {
	return m.policy
}

// Pipeline returns the extraction pipeline.
func (m *Manager) Pipeline() *Pipeline {
	return m.pipeline
}

// Start validates the upload, creates a session and runs extraction. Invalid
// input is rejected before a session exists.
func (m *Manager) Start(ctx context.Context, up Upload) (Snapshot, error) {
	if err := m.pipeline.validate(&up); err != nil {
		return Snapshot{}, err
	}

	s := newSession(m.newID(), m.now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.pipeline.extract(ctx, s, up); err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	m.expireLocked(m.now())
	m.evictLocked()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logf("session %s: extracted with %s", s.id, ocr.ConfigAt(s.configIndex))
	return s.snapshot(), nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())
	return s.snapshot(), nil
}

// Retry re-reads the label with the next OCR configuration. The cycle wraps
// around after the last configuration and never ends on its own.
func (m *Manager) Retry(ctx context.Context, id string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())

	if err := m.pipeline.retry(ctx, s); err != nil {
		return Snapshot{}, err
	}
	m.logf("session %s: retried with %s", s.id, ocr.ConfigAt(s.configIndex))
	return s.snapshot(), nil
}

// Accept applies operator overrides, freezes the record and scores it with
// policy (nil selects the manager default). The result is persisted before
// the session changes state, so a storage failure leaves it in Extracted.
func (m *Manager) Accept(ctx context.Context, id string, overrides Overrides, policy scoring.Policy) (Snapshot, error) {
	if policy == nil {
		policy = m.policy
	}

	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())

	final, res, err := s.accept(overrides, policy)
	if err != nil {
		return Snapshot{}, err
	}

	at := m.now()
	if m.store != nil {
		rec := &storage.AcceptedResult{
			ID:          s.id,
			Barcode:     s.barcode,
			ConfigIndex: s.configIndex,
			ConfigName:  ocr.ConfigAt(s.configIndex).Name,
			Record:      final,
			Metadata:    s.metadata(),
			Score:       res,
			AcceptedAt:  at,
		}
		if err := m.store.SaveResult(ctx, rec); err != nil {
			return Snapshot{}, fmt.Errorf("failed to save accepted result: %w", err)
		}
	}

	s.commitAccept(final, res, at)
	m.logf("session %s: accepted with grade %s (%s), NOVA %d", s.id, res.Grade, res.Policy, res.NovaGroup)
	return s.snapshot(), nil
}

// Abandon discards a session. Nothing is written; an already accepted
// session keeps its stored result.
func (m *Manager) Abandon(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.logf("session %s: abandoned", id)
	return nil
}

// List returns snapshots of all live sessions, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	m.expireLocked(m.now())
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	out := make([]Snapshot, 0, len(live))
	for _, s := range live {
		s.mu.Lock()
		out = append(out, s.snapshot())
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Preview renders the binarized image OCR saw, for operator verification.
// It is unavailable once a session has been accepted.
func (m *Manager) Preview(id string, maxSide int) (*imaging.Preview, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())

	if s.binary == nil {
		return nil, invalidTransition("preview", s.state)
	}
	return imaging.NewPreview(s.binary, maxSide)
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.expired(s, m.now()) {
		delete(m.sessions, id)
		m.logf("session %s: expired after %v idle", id, m.limits.TTL)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.limits.TTL > 0 && now.Sub(s.idleSince()) > m.limits.TTL
}

// expireLocked drops sessions idle past the TTL. Must be called with m.mu
// held; it never takes a session lock.
func (m *Manager) expireLocked(now time.Time) {
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			m.logf("session %s: expired after %v idle", id, m.limits.TTL)
		}
	}
}

// evictLocked makes room for one more session under MaxLive. Must be
// called with m.mu held.
func (m *Manager) evictLocked() {
	if m.limits.MaxLive <= 0 || len(m.sessions) < m.limits.MaxLive {
		return
	}

	victims := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		victims = append(victims, s)
	}
	sort.Slice(victims, func(i, j int) bool {
		if a, b := victims[i].accepted.Load(), victims[j].accepted.Load(); a != b {
			return a
		}
		ti, tj := victims[i].lastUsed.Load(), victims[j].lastUsed.Load()
		if ti != tj {
			return ti < tj
		}
		return victims[i].id < victims[j].id
	})
	for _, s := range victims[:len(m.sessions)-m.limits.MaxLive+1] {
		delete(m.sessions, s.id)
		m.logf("session %s: evicted, live limit %d reached", s.id, m.limits.MaxLive)
	}
}
