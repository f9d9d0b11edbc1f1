package sessionwatch

import (
	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/identity"
)

// View identifies a started view for later StopView and
// UpdateViewLoadingTime calls.
type View struct {
	id   string
	name string
	url  string
}

// Name returns the view name.
func (v View) Name() string { return v.name }

// URL returns the view URL.
func (v View) URL() string { return v.url }

func (v View) key() event.ViewKey {
	return event.ViewKey{ID: v.id, Name: v.name, URL: v.url}
}

func newView(name, url string) View {
	return View{id: identity.NewViewID(), name: name, url: url}
}

// Error describes an error to record against the current view.
type Error struct {
	Message    string
	Source     string
	Kind       string
	Stack      string
	Fatal      bool
	Attributes map[string]any
}
