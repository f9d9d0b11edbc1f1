package scope

import (
	"testing"
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
)

func newTestSession(t *testing.T, cfg SessionConfig) *SessionScope {
	t.Helper()
	amb, _ := silentAmbient()
	parent := &testParent{ctx: model.Context{ApplicationID: "app"}}
	return NewSessionScope(parent, amb, cfg, at(0))
}

func TestSessionDefaults(t *testing.T) {
	cfg := SessionConfig{}.withDefaults()
	if cfg.InactivityTimeout != 15*time.Minute {
		t.Errorf("expected 15m inactivity timeout, got %v", cfg.InactivityTimeout)
	}
	if cfg.MaxDuration != 4*time.Hour {
		t.Errorf("expected 4h max duration, got %v", cfg.MaxDuration)
	}
	if cfg.SampleRate != 100 {
		t.Errorf("expected sample rate 100, got %v", cfg.SampleRate)
	}
}

func TestSessionRotatesAfterInactivity(t *testing.T) {
	s := newTestSession(t, SessionConfig{InactivityTimeout: time.Minute})
	w := &captureWriter{}

	s.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	before := s.ID()

	// Within the timeout: same session.
	s.Handle(event.AddCustomTiming{Time: at(30_000), Name: "t"}, w)
	if s.ID() != before {
		t.Fatal("session rotated before the inactivity timeout")
	}

	// Idle gap past the timeout: the event runs under a fresh session id.
	s.Handle(event.AddCustomTiming{Time: at(100_000), Name: "t2"}, w)
	if s.ID() == before {
		t.Fatal("session must rotate after the inactivity timeout")
	}
	if got := w.last().Session.ID; got != s.ID() {
		t.Errorf("record carries stale session id %q, want %q", got, s.ID())
	}
}

func TestSessionRotatesAtMaxDuration(t *testing.T) {
	s := newTestSession(t, SessionConfig{InactivityTimeout: time.Hour, MaxDuration: time.Minute})
	w := &captureWriter{}

	s.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	before := s.ID()

	s.Handle(event.AddCustomTiming{Time: at(30_000), Name: "t"}, w)
	s.Handle(event.AddCustomTiming{Time: at(61_000), Name: "t2"}, w)
	if s.ID() == before {
		t.Fatal("session must rotate once max duration is reached")
	}
}

func TestSessionAcksDoNotRefreshActivity(t *testing.T) {
	s := newTestSession(t, SessionConfig{InactivityTimeout: time.Minute})
	w := &captureWriter{}

	s.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	before := s.ID()

	// Acknowledgments and keep-alives are not caller activity.
	s.Handle(event.KeepAlive{Time: at(59_000)}, w)
	s.Handle(event.ResourceSent{Time: at(59_500), ViewID: "v"}, w)
	s.Handle(event.AddCustomTiming{Time: at(61_000), Name: "t"}, w)
	if s.ID() == before {
		t.Fatal("non-interactive events must not defer rotation")
	}
}

func TestSessionStopDrainsThenFinishes(t *testing.T) {
	s := newTestSession(t, SessionConfig{})
	w := &captureWriter{}

	s.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	if next := s.Handle(event.StopSession{Time: at(10)}, w); next != nil {
		t.Fatal("session with no pending work should finish on StopSession")
	}
}

func TestSessionStopWaitsForPendingViews(t *testing.T) {
	s := newTestSession(t, SessionConfig{})
	w := &captureWriter{}

	s.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	s.Handle(event.StartResource{Time: at(10), Key: "req-1"}, w)
	s.Handle(event.StopResource{Time: at(20), Key: "req-1"}, w)
	viewID := w.last().View.ID

	if next := s.Handle(event.StopSession{Time: at(30)}, w); next == nil {
		t.Fatal("session must stay alive while a view has pending records")
	}
	if next := s.Handle(event.ResourceSent{Time: at(40), ViewID: viewID}, w); next != nil {
		return
	}
	t.Fatal("session should finish once the last view drains")
}

func TestUnsampledSessionDiscardsButStillResolves(t *testing.T) {
	amb, _ := silentAmbient()
	parent := &testParent{ctx: model.Context{ApplicationID: "app"}}
	s := NewSessionScope(parent, amb, SessionConfig{SampleRate: 50}, at(0))
	s.random = func() float64 { return 0.9 } // above the rate: unsampled
	s.sampled = s.sample()

	w := &captureWriter{}
	s.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	s.Handle(event.StartResource{Time: at(10), Key: "req-1"}, w)
	s.Handle(event.StopResource{Time: at(20), Key: "req-1"}, w)

	if len(w.records) != 0 {
		t.Fatalf("unsampled session must not write records, got %d", len(w.records))
	}
	if len(w.discarded) == 0 {
		t.Fatal("discarded records must still reach the Discarder for ack round-trips")
	}
	viewID := w.discarded[len(w.discarded)-1].View.ID

	s.Handle(event.StopView{Time: at(30)}, w)
	if next := s.Handle(event.ResourceDropped{Time: at(40), ViewID: viewID}, w); next == nil {
		t.Fatal("session without explicit stop must stay alive")
	}
	if len(w.records) != 0 {
		t.Error("unsampled session leaked records through Write")
	}
}

func TestSampledSessionWritesThrough(t *testing.T) {
	amb, _ := silentAmbient()
	parent := &testParent{ctx: model.Context{ApplicationID: "app"}}
	s := NewSessionScope(parent, amb, SessionConfig{SampleRate: 50}, at(0))
	s.random = func() float64 { return 0.1 } // below the rate: sampled
	s.sampled = s.sample()

	w := &captureWriter{}
	s.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	s.Handle(event.AddCustomTiming{Time: at(10), Name: "t"}, w)
	if len(w.records) == 0 {
		t.Fatal("sampled session must write records")
	}
	if len(w.discarded) != 0 {
		t.Error("sampled session must not discard")
	}
}

func TestSessionContextStampsID(t *testing.T) {
	s := newTestSession(t, SessionConfig{})
	ctx := s.Context()
	if ctx.ApplicationID != "app" {
		t.Errorf("expected parent application id, got %q", ctx.ApplicationID)
	}
	if ctx.SessionID != s.ID() {
		t.Errorf("expected session id %q, got %q", s.ID(), ctx.SessionID)
	}
}
