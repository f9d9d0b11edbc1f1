package scope

import (
	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// ApplicationScope is the root of the tree. It owns the current session
// scope, creating one on the first interactive event and replacing it when
// a stopped session finishes draining. The application scope itself never
// finishes.
type ApplicationScope struct {
	applicationID string
	ambient       *Ambient
	cfg           SessionConfig

	session *SessionScope
}

// NewApplicationScope creates the root scope for an application.
func NewApplicationScope(applicationID string, ambient *Ambient, cfg SessionConfig) *ApplicationScope {
	if ambient == nil {
		ambient = &Ambient{}
	}
	return &ApplicationScope{
		applicationID: applicationID,
		ambient:       ambient,
		cfg:           cfg,
	}
}

func (a *ApplicationScope) Handle(ev event.Event, w Writer) Scope {
	if a.session == nil && interactive(ev) {
		a.session = NewSessionScope(a, a.ambient, a.cfg, ev.Occurred())
	}
	if a.session != nil {
		if a.session.Handle(ev, w) == nil {
			a.session = nil
		}
	}
	return a
}

// Context is the root snapshot: application identity only. Descendants
// stamp in the rest on the way down.
func (a *ApplicationScope) Context() model.Context {
	return model.Context{ApplicationID: a.applicationID}
}

// Session exposes the active session scope, or nil. Used by tests and the
// monitor's health reporting; never for mutation.
func (a *ApplicationScope) Session() *SessionScope {
	return a.session
}
