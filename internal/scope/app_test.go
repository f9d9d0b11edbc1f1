package scope

import (
	"testing"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
)

func TestApplicationCreatesSessionOnInteractiveEvent(t *testing.T) {
	amb, _ := silentAmbient()
	app := NewApplicationScope("app-1", amb, SessionConfig{})
	w := &captureWriter{}

	// Non-interactive events must not start a session.
	app.Handle(event.KeepAlive{Time: at(0)}, w)
	app.Handle(event.ResourceSent{Time: at(1), ViewID: "v"}, w)
	if app.Session() != nil {
		t.Fatal("non-interactive events must not create a session")
	}

	app.Handle(event.StartView{Time: at(10), Key: event.ViewKey{ID: "k1"}}, w)
	if app.Session() == nil {
		t.Fatal("interactive event must create a session")
	}
}

func TestApplicationReplacesDrainedSession(t *testing.T) {
	amb, _ := silentAmbient()
	app := NewApplicationScope("app-1", amb, SessionConfig{})
	w := &captureWriter{}

	app.Handle(event.StartView{Time: at(0), Key: event.ViewKey{ID: "k1"}}, w)
	first := app.Session().ID()

	app.Handle(event.StopSession{Time: at(10)}, w)
	if app.Session() != nil {
		t.Fatal("drained session must detach")
	}

	app.Handle(event.StartView{Time: at(20), Key: event.ViewKey{ID: "k2"}}, w)
	if app.Session() == nil {
		t.Fatal("next interactive event must start a fresh session")
	}
	if app.Session().ID() == first {
		t.Error("replacement session must carry a new id")
	}
}

func TestApplicationNeverFinishes(t *testing.T) {
	amb, _ := silentAmbient()
	app := NewApplicationScope("app-1", amb, SessionConfig{})
	w := &captureWriter{}
	if next := app.Handle(event.StopSession{Time: at(0)}, w); next == nil {
		t.Fatal("application scope must never finish")
	}
}

func TestApplicationContext(t *testing.T) {
	app := NewApplicationScope("app-1", nil, SessionConfig{})
	ctx := app.Context()
	if ctx != (model.Context{ApplicationID: "app-1"}) {
		t.Errorf("unexpected root context %+v", ctx)
	}
}
