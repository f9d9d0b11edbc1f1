package scope

import (
	"math/rand"
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/identity"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// Session expiry defaults.
const (
	defaultInactivityTimeout = 15 * time.Minute
	defaultMaxDuration       = 4 * time.Hour
)

// SessionConfig tunes session expiry and sampling.
type SessionConfig struct {
	// InactivityTimeout rotates the session after this much idle time
	// between interactive events.
	InactivityTimeout time.Duration

	// MaxDuration rotates the session once it has been alive this long,
	// active or not.
	MaxDuration time.Duration

	// SampleRate is the percentage (0-100) of sessions whose records are
	// kept. Unsampled sessions still run the full state machine so counters
	// stay conserved; their records resolve as drops.
	SampleRate float64
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.InactivityTimeout == 0 {
		c.InactivityTimeout = defaultInactivityTimeout
	}
	if c.MaxDuration == 0 {
		c.MaxDuration = defaultMaxDuration
	}
	if c.SampleRate == 0 {
		c.SampleRate = 100
	}
	return c
}

// SessionScope owns the sequence of view scopes over time and decides when
// the session identifier expires. Rotation is lazy: descendants discover
// the new id through context-snapshot comparison instead of being walked.
type SessionScope struct {
	parent  ContextProvider
	ambient *Ambient
	cfg     SessionConfig

	sessionID    string
	startTicks   time.Duration
	lastActivity time.Duration
	stopped      bool
	sampled      bool

	views []Scope

	// random is the sampling source, injectable for tests.
	random func() float64
}

// NewSessionScope creates a session starting at t.
func NewSessionScope(parent ContextProvider, ambient *Ambient, cfg SessionConfig, t event.Time) *SessionScope {
	s := &SessionScope{
		parent:       parent,
		ambient:      ambient,
		cfg:          cfg.withDefaults(),
		sessionID:    identity.NewSessionID(),
		startTicks:   t.Ticks,
		lastActivity: t.Ticks,
		random:       rand.Float64,
	}
	s.sampled = s.sample()
	return s
}

func (s *SessionScope) sample() bool {
	return s.random()*100 < s.cfg.SampleRate
}

// ID returns the current session identifier.
func (s *SessionScope) ID() string {
	return s.sessionID
}

func (s *SessionScope) Handle(ev event.Event, w Writer) Scope {
	if interactive(ev) {
		s.refresh(ev.Occurred())
	}
	cw := s.childWriter(w)

	switch e := ev.(type) {
	case event.StartView:
		// Forward first: the current view stops itself on StartView, and its
		// descendants close out, before the replacement exists.
		s.forward(ev, cw)
		if !s.stopped {
			s.views = append(s.views, NewViewScope(s, s.ambient, e))
		}
	case event.StopSession:
		s.stopped = true
		s.forward(ev, cw)
	default:
		s.forward(ev, cw)
	}

	if s.stopped && len(s.views) == 0 {
		return nil
	}
	return s
}

// Context stamps the parent snapshot with the current session id.
func (s *SessionScope) Context() model.Context {
	ctx := s.parent.Context()
	ctx.SessionID = s.sessionID
	return ctx
}

// refresh applies the expiry rules before the event is delegated, so an
// event arriving after an idle gap already runs under the new session id.
func (s *SessionScope) refresh(t event.Time) {
	if s.stopped {
		return
	}
	idle := t.Ticks - s.lastActivity
	age := t.Ticks - s.startTicks
	if idle >= s.cfg.InactivityTimeout || age >= s.cfg.MaxDuration {
		s.rotate(t)
	}
	s.lastActivity = t.Ticks
}

// rotate replaces the session identifier in place. Child views pick the
// new id up lazily on their next context computation and re-key their view
// ids accordingly.
func (s *SessionScope) rotate(t event.Time) {
	s.sessionID = identity.NewSessionID()
	s.startTicks = t.Ticks
	s.sampled = s.sample()
}

// childWriter routes child emissions: sampled sessions write through,
// unsampled ones resolve every record as a purposeful discard so pending
// acknowledgments still round-trip.
func (s *SessionScope) childWriter(w Writer) Writer {
	if s.sampled {
		return w
	}
	return discardWriter{inner: w}
}

func (s *SessionScope) forward(ev event.Event, w Writer) {
	kept := s.views[:0]
	for _, v := range s.views {
		if next := v.Handle(ev, w); next != nil {
			kept = append(kept, next)
		}
	}
	s.views = kept
}

type discardWriter struct {
	inner Writer
}

func (d discardWriter) Write(rec model.Record) {
	if disc, ok := d.inner.(Discarder); ok {
		disc.Discard(rec)
	}
}
