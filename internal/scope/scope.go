// Package scope implements the event-aggregation tree: a hierarchy of
// application, session, view, action, and resource scopes that turns a
// serialized stream of raw events into versioned aggregate records.
//
// All Handle calls for one tree run on a single logical lane; scopes hold
// no locks. Parents own children outright; children reach the parent only
// through a one-way reference used for context lookup, never for mutation.
package scope

import (
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// Scope is a node in the aggregation tree. Handle processes one raw event
// and returns the scope that should replace this one in the parent's child
// set: itself while alive, nil once finished. Context derives the immutable
// identifier snapshot top-down.
type Scope interface {
	Handle(ev event.Event, w Writer) Scope
	Context() model.Context
}

// Writer is the downstream sink for aggregate records. Write is
// fire-and-forget: it must not block the processing lane and must not
// propagate failures back into the tree.
type Writer interface {
	Write(rec model.Record)
}

// Discarder is implemented by writers that want to see records thrown away
// on purpose (unsampled sessions) so pending-counter acknowledgments still
// round-trip as drops.
type Discarder interface {
	Discard(rec model.Record)
}

// DropListener receives best-effort notifications when a record is
// rejected before emission. Delivery failures are not fatal.
type DropListener interface {
	NotifyDropped(viewID string, category model.RecordType)
}

// ContextProvider is the one-way upward reference a child holds on its
// parent, used solely for context lookup.
type ContextProvider interface {
	Context() model.Context
}

// Ambient bundles the read-only collaborators scopes consult at emission
// time: user identity, network state, process-wide global attributes, the
// drop-notification collaborator, and the developer warning channel. All
// fields are optional; scopes tolerate the values changing between any two
// emissions.
type Ambient struct {
	User             func() model.UserInfo
	Network          func() model.NetworkInfo
	GlobalAttributes func() map[string]any
	Drops            DropListener
	Warnf            func(format string, args ...any)
}

func (a *Ambient) warnf(format string, args ...any) {
	if a != nil && a.Warnf != nil {
		a.Warnf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func (a *Ambient) notifyDropped(viewID string, category model.RecordType) {
	if a != nil && a.Drops != nil {
		a.Drops.NotifyDropped(viewID, category)
	}
}

func (a *Ambient) globals() map[string]any {
	if a != nil && a.GlobalAttributes != nil {
		return a.GlobalAttributes()
	}
	return nil
}

// newRecord builds the common record envelope for the given scope context.
// Global attributes are overlaid fresh on every call so attributes added
// after scope creation appear in every subsequent record.
func (a *Ambient) newRecord(typ model.RecordType, date time.Time, ctx model.Context, attrs map[string]any) model.Record {
	rec := model.Record{
		Type:        typ,
		Date:        date,
		Application: model.ApplicationInfo{ID: ctx.ApplicationID},
		Session:     model.SessionInfo{ID: ctx.SessionID},
		View:        model.ViewInfo{ID: ctx.ViewID, Name: ctx.ViewName, URL: ctx.ViewURL},
		Attributes:  mergeAttrs(mergeAttrs(nil, attrs), a.globals()),
	}
	if a != nil && a.User != nil {
		u := a.User()
		rec.User = &u
	}
	if a != nil && a.Network != nil {
		n := a.Network()
		rec.Network = &n
	}
	return rec
}

// mergeAttrs overlays src onto a copy-on-write dst. dst may be nil; src
// keys win on conflict. The returned map is never one of the inputs unless
// src is empty.
func mergeAttrs(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

// interactive reports whether an event represents caller activity, as
// opposed to internal acknowledgments and liveness refreshes. Only
// interactive events keep a session alive or start a new one.
func interactive(ev event.Event) bool {
	switch ev.(type) {
	case event.StartView, event.StopView,
		event.StartAction, event.StopAction,
		event.StartResource, event.StopResource, event.StopResourceWithError,
		event.AddError, event.AddLongTask,
		event.AddCustomTiming, event.UpdateViewLoadingTime,
		event.ApplicationStarted:
		return true
	default:
		return false
	}
}

// clampDur enforces the 1-unit minimum on computed durations so clock
// anomalies never produce zero or negative spans.
func clampDur(d time.Duration) time.Duration {
	if d < time.Nanosecond {
		return time.Nanosecond
	}
	return d
}
