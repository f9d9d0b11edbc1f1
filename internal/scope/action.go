package scope

import (
	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/identity"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// ActionScope tracks the view's single in-flight user action. It counts
// the units of work that happen while it is active and terminates by
// emitting exactly one action record: on its explicit stop, or when the
// view changes underneath it.
type ActionScope struct {
	parent  ContextProvider
	ambient *Ambient

	actionID   string
	actionType string
	name       string
	startTime  event.Time
	lastEvent  event.Time
	attributes map[string]any

	resourceCount int64
	errorCount    int64
	longTaskCount int64
}

func newActionScope(parent ContextProvider, ambient *Ambient, e event.StartAction) *ActionScope {
	return &ActionScope{
		parent:     parent,
		ambient:    ambient,
		actionID:   identity.NewActionID(),
		actionType: e.ActionType,
		name:       e.Name,
		startTime:  e.Time,
		lastEvent:  e.Time,
		attributes: mergeAttrs(nil, e.Attributes),
	}
}

// ID returns the action identifier exposed through context snapshots while
// the action is active.
func (a *ActionScope) ID() string {
	return a.actionID
}

func (a *ActionScope) Handle(ev event.Event, w Writer) Scope {
	switch e := ev.(type) {
	case event.StopAction:
		if e.ActionType != "" {
			a.actionType = e.ActionType
		}
		if e.Name != "" {
			a.name = e.Name
		}
		a.attributes = mergeAttrs(a.attributes, e.Attributes)
		a.send(e.Time, w)
		return nil
	case event.StartView, event.StopView, event.StopSession:
		// The view is going away; close out with what we have.
		a.send(ev.Occurred(), w)
		return nil
	case event.StartResource:
		a.resourceCount++
		a.lastEvent = e.Time
	case event.AddError:
		a.errorCount++
		a.lastEvent = e.Time
	case event.AddLongTask:
		a.longTaskCount++
		a.lastEvent = e.Time
	}
	return a
}

// Context returns the enclosing view's context.
func (a *ActionScope) Context() model.Context {
	return a.parent.Context()
}

func (a *ActionScope) send(t event.Time, w Writer) {
	if t.Ticks > a.lastEvent.Ticks {
		a.lastEvent = t
	}
	rec := a.ambient.newRecord(model.RecordAction, a.startTime.Timestamp, a.Context(), a.attributes)
	rec.ActionDetail = &model.ActionDetail{
		ID:            a.actionID,
		ActionType:    a.actionType,
		Name:          a.name,
		Duration:      clampDur(a.lastEvent.Ticks - a.startTime.Ticks),
		ResourceCount: a.resourceCount,
		ErrorCount:    a.errorCount,
		LongTaskCount: a.longTaskCount,
	}
	w.Write(rec)
}
