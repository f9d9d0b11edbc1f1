package scope

import (
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/identity"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// ViewScope is the central unit of aggregation. It owns zero-or-one active
// action scope and a set of concurrently active resource scopes, tracks
// completed and pending counts per category, and emits versioned view
// records. It is finished once it has been stopped, has no active
// resources, and every pending unit has resolved to Sent or Dropped.
//
// Events fan out to children unconditionally: completion and drop signals
// are only meaningful to the descendant owning the matching key, and a
// descendant must be able to close out even for events this level already
// acted on.
type ViewScope struct {
	parent  ContextProvider
	ambient *Ambient

	keyRef event.KeyRef
	name   string
	url    string

	viewID    string
	sessionID string // last observed parent session id, for rotation detection

	startTime  event.Time
	stopped    bool
	docVersion int64

	activeAction *ActionScope
	resources    map[string]*ResourceScope

	attributes    map[string]any
	customTimings map[string]time.Duration
	loadingTime   *time.Duration
	loadingType   string

	actionCount   int64
	resourceCount int64
	errorCount    int64
	crashCount    int64
	longTaskCount int64

	pendingAction   int64
	pendingResource int64
	pendingError    int64
	pendingLongTask int64
}

// NewViewScope creates a view scope for a StartView event. The attribute
// bag is seeded from the caller's attributes and the current global
// attributes; globals are overlaid fresh again on every emission.
func NewViewScope(parent ContextProvider, ambient *Ambient, e event.StartView) *ViewScope {
	ref := e.Ref
	if ref == nil {
		ref = event.StaticKey(e.Key)
	}
	return &ViewScope{
		parent:        parent,
		ambient:       ambient,
		keyRef:        ref,
		name:          e.Key.Name,
		url:           e.Key.URL,
		viewID:        identity.NewViewID(),
		sessionID:     parent.Context().SessionID,
		startTime:     e.Time,
		resources:     make(map[string]*ResourceScope),
		attributes:    mergeAttrs(ambient.globals(), e.Attributes),
		customTimings: make(map[string]time.Duration),
	}
}

func (v *ViewScope) Handle(ev event.Event, w Writer) Scope {
	switch e := ev.(type) {
	case event.StartView:
		v.onStartView(e, w)
	case event.StopView:
		v.onStopView(e, w)
	case event.StopSession:
		v.onStopSession(e, w)
	case event.StartAction:
		v.onStartAction(e, w)
	case event.StartResource:
		v.onStartResource(e, w)
	case event.AddError:
		v.onAddError(e, w)
	case event.AddLongTask:
		v.onAddLongTask(e, w)
	case event.ApplicationStarted:
		v.onApplicationStarted(e, w)
	case event.UpdateViewLoadingTime:
		v.onUpdateViewLoadingTime(e, w)
	case event.AddCustomTiming:
		v.onAddCustomTiming(e, w)
	case event.KeepAlive:
		v.forward(ev, w)
		if !v.stopped {
			v.send(e.Time, w)
		}
	case event.ResourceSent:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingResource--
			v.resourceCount++
			v.send(e.Time, w)
		}
	case event.ResourceDropped:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingResource--
		}
	case event.ActionSent:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingAction--
			v.actionCount++
			v.send(e.Time, w)
		}
	case event.ActionDropped:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingAction--
		}
	case event.ErrorSent:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingError--
			v.errorCount++
			v.send(e.Time, w)
		}
	case event.ErrorDropped:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingError--
		}
	case event.LongTaskSent:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingLongTask--
			v.longTaskCount++
			v.send(e.Time, w)
		}
	case event.LongTaskDropped:
		v.forward(ev, w)
		if e.ViewID == v.viewID {
			v.pendingLongTask--
		}
	default:
		v.forward(ev, w)
	}

	if v.isComplete() {
		return nil
	}
	return v
}

// Context computes the view's snapshot. If the parent's session id changed
// since the last computation the session rotated underneath us, which
// invalidates identifiers issued under the old session: the view re-keys
// itself with a fresh view id before answering.
func (v *ViewScope) Context() model.Context {
	ctx := v.parent.Context()
	if ctx.SessionID != v.sessionID {
		v.sessionID = ctx.SessionID
		v.viewID = identity.NewViewID()
	}
	ctx.ViewID = v.viewID
	ctx.ViewName = v.name
	ctx.ViewURL = v.url
	if v.activeAction != nil {
		ctx.ActionID = v.activeAction.ID()
	}
	return ctx
}

// onStartView stops this scope first: a view is current only until the
// next StartView arrives. The event is then forwarded so descendants get a
// chance to close out.
func (v *ViewScope) onStartView(e event.StartView, w Writer) {
	if !v.stopped {
		v.stopped = true
		v.send(e.Time, w)
	}
	v.forward(e, w)
}

func (v *ViewScope) onStopView(e event.StopView, w Writer) {
	v.forward(e, w)
	if v.stopped || !v.stopKeyMatches(e.Key) {
		return
	}
	v.attributes = mergeAttrs(v.attributes, e.Attributes)
	v.stopped = true
	v.send(e.Time, w)
}

// onStopSession closes the view unconditionally: the session is ending,
// so no key matching applies. Children close out first.
func (v *ViewScope) onStopSession(e event.StopSession, w Writer) {
	v.forward(e, w)
	if v.stopped {
		return
	}
	v.stopped = true
	v.send(e.Time, w)
}

// stopKeyMatches implements StopView's match rule: a zero key stops
// whichever view is current, and a reclaimed key counts as a match (the
// caller released the key, so the view it named can only be this one).
func (v *ViewScope) stopKeyMatches(key event.ViewKey) bool {
	if key.IsZero() {
		return true
	}
	k, ok := v.keyRef.Resolve()
	if !ok {
		return true
	}
	return k.ID == key.ID
}

func (v *ViewScope) onStartAction(e event.StartAction, w Writer) {
	v.forward(e, w)
	if v.stopped {
		return
	}
	if v.activeAction != nil {
		v.ambient.warnf("sessionwatch: dropping action %q on view %q: another action is still active", e.Name, v.name)
		v.ambient.notifyDropped(v.viewID, model.RecordAction)
		return
	}
	v.activeAction = newActionScope(v, v.ambient, e)
	v.pendingAction++
}

// onStartResource rejects before fanning out: a resource that never
// started must not reach the active action's counters. The new scope is
// registered after the fan-out so it does not see its own start event.
func (v *ViewScope) onStartResource(e event.StartResource, w Writer) {
	if v.stopped {
		v.forward(e, w)
		return
	}
	if _, active := v.resources[e.Key]; active {
		v.ambient.warnf("sessionwatch: dropping resource %q on view %q: key already in flight", e.Key, v.name)
		v.ambient.notifyDropped(v.viewID, model.RecordResource)
		return
	}
	v.forward(e, w)
	v.resources[e.Key] = newResourceScope(v, v.ambient, e)
	v.pendingResource++
}

func (v *ViewScope) onAddError(e event.AddError, w Writer) {
	v.forward(e, w)
	if v.stopped {
		return
	}
	msg := e.Message
	if msg == "" {
		// No throwable and no explicit message from the capture layer.
		if e.Fatal {
			msg = "application crash detected"
		} else {
			msg = "error detected"
		}
	}
	rec := v.ambient.newRecord(model.RecordError, e.Time.Timestamp, v.Context(), e.Attributes)
	rec.ErrorDetail = &model.ErrorDetail{
		ID:      identity.NewRecordID(),
		Message: msg,
		Source:  e.Source,
		Kind:    e.Kind,
		Stack:   e.Stack,
		IsCrash: e.Fatal,
	}
	w.Write(rec)
	v.pendingError++
	if e.Fatal {
		v.crashCount++
	}
}

func (v *ViewScope) onAddLongTask(e event.AddLongTask, w Writer) {
	v.forward(e, w)
	if v.stopped {
		return
	}
	rec := v.ambient.newRecord(model.RecordLongTask, e.Time.Timestamp, v.Context(), nil)
	rec.LongTaskDetail = &model.LongTaskDetail{
		ID:       identity.NewRecordID(),
		Duration: e.Duration,
		Target:   e.Target,
	}
	w.Write(rec)
	v.pendingLongTask++
}

// onApplicationStarted emits the distinguished application-start action,
// independent of the normal action lifecycle: no action scope is created,
// the single-action limit does not apply, and even a stopped view still
// reports it. The pending count always increments.
func (v *ViewScope) onApplicationStarted(e event.ApplicationStarted, w Writer) {
	v.forward(e, w)
	dur := clampDur(e.Time.Ticks - e.AppStartTicks)
	rec := v.ambient.newRecord(model.RecordAction, e.Time.Timestamp.Add(-dur), v.Context(), nil)
	rec.ActionDetail = &model.ActionDetail{
		ID:         identity.NewActionID(),
		ActionType: model.ActionApplicationStart,
		Duration:   dur,
	}
	w.Write(rec)
	v.pendingAction++
}

// onUpdateViewLoadingTime requires an exact, live key match: unlike
// StopView, a reclaimed key does not count.
func (v *ViewScope) onUpdateViewLoadingTime(e event.UpdateViewLoadingTime, w Writer) {
	v.forward(e, w)
	k, ok := v.keyRef.Resolve()
	if !ok || k.ID != e.Key.ID {
		return
	}
	lt := e.LoadingTime
	v.loadingTime = &lt
	v.loadingType = e.LoadingType
	v.send(e.Time, w)
}

func (v *ViewScope) onAddCustomTiming(e event.AddCustomTiming, w Writer) {
	v.forward(e, w)
	if v.stopped {
		return
	}
	v.customTimings[e.Name] = clampDur(e.Time.Ticks - v.startTime.Ticks)
	v.send(e.Time, w)
}

// forward fans the event out to every child and prunes the finished ones.
// Each child sees the event exactly once per dispatch.
func (v *ViewScope) forward(ev event.Event, w Writer) {
	if v.activeAction != nil {
		if v.activeAction.Handle(ev, w) == nil {
			v.activeAction = nil
		}
	}
	for key, r := range v.resources {
		if r.Handle(ev, w) == nil {
			delete(v.resources, key)
		}
	}
}

// isComplete is the closure predicate, evaluated after every event. The
// <= 0 comparison doubles as the defensive clamp: a pending counter that
// transiently dipped below zero never keeps the view alive.
func (v *ViewScope) isComplete() bool {
	if !v.stopped || len(v.resources) > 0 {
		return false
	}
	return v.pendingAction+v.pendingResource+v.pendingError+v.pendingLongTask <= 0
}

// send emits one versioned view record. The document version increments on
// every emission; time spent is measured in monotonic ticks from view
// start with a 1ns floor.
func (v *ViewScope) send(t event.Time, w Writer) {
	v.docVersion++
	ctx := v.Context()
	rec := v.ambient.newRecord(model.RecordView, v.startTime.Timestamp, ctx, v.attributes)
	rec.ViewDetail = &model.ViewDetail{
		DocVersion:    v.docVersion,
		TimeSpent:     clampDur(t.Ticks - v.startTime.Ticks),
		IsActive:      !v.stopped,
		ActionCount:   v.actionCount,
		ResourceCount: v.resourceCount,
		ErrorCount:    v.errorCount,
		CrashCount:    v.crashCount,
		LongTaskCount: v.longTaskCount,
		LoadingTime:   v.loadingTime,
		LoadingType:   v.loadingType,
		CustomTimings: copyTimings(v.customTimings),
	}
	w.Write(rec)
}

func copyTimings(src map[string]time.Duration) map[string]int64 {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]int64, len(src))
	for name, d := range src {
		out[name] = int64(d)
	}
	return out
}
