// Package event defines the closed set of raw telemetry events consumed by
// the scope hierarchy, the logical timestamps they carry, and the JSON
// envelope used to record and replay event streams.
package event

import "time"

// Event is the closed tagged union of raw telemetry events. Every variant
// carries a logical time; the sealed marker keeps the set closed so scope
// dispatch can exhaustively switch on variants.
type Event interface {
	Occurred() Time
	sealed()
}

// StartView opens a new view scope. The current view, if any, stops itself
// when it sees this event. Ref may be nil, in which case the key is treated
// as never reclaimed.
type StartView struct {
	Time       Time
	Key        ViewKey
	Ref        KeyRef
	Attributes map[string]any
}

// StopView stops the view whose key matches. A zero key stops whichever
// view is current. A reclaimed key counts as a match.
type StopView struct {
	Time       Time
	Key        ViewKey
	Attributes map[string]any
}

// StartAction opens the view's single action slot. Rejected (dropped, not
// queued) while another action is active.
type StartAction struct {
	Time       Time
	ActionType string
	Name       string
	Attributes map[string]any
}

// StopAction terminates the active action. Name and type, when non-empty,
// replace the values recorded at start.
type StopAction struct {
	Time       Time
	ActionType string
	Name       string
	Attributes map[string]any
}

// StartResource opens a resource scope keyed by the caller's per-request
// correlation key.
type StartResource struct {
	Time       Time
	Key        string
	Method     string
	URL        string
	Attributes map[string]any
}

// StopResource terminates the resource scope with the matching key.
type StopResource struct {
	Time       Time
	Key        string
	StatusCode int64
	Size       int64
	Kind       string
	Attributes map[string]any
}

// StopResourceWithError terminates the matching resource scope by emitting
// an error record in place of a resource record.
type StopResourceWithError struct {
	Time       Time
	Key        string
	Message    string
	Source     string
	StatusCode int64
	Attributes map[string]any
}

// AddError records an error against the current view. Errors complete
// synchronously: the record is emitted immediately and confirmed later by
// an ErrorSent acknowledgment.
type AddError struct {
	Time       Time
	Message    string
	Source     string
	Kind       string
	Stack      string
	Fatal      bool
	Attributes map[string]any
}

// AddLongTask records a long-running task observed on the instrumented
// thread, with the same synchronous-emit pattern as AddError.
type AddLongTask struct {
	Time     Time
	Duration time.Duration
	Target   string
}

// UpdateViewLoadingTime sets the loading time of the view whose key matches
// exactly. Unlike StopView, a reclaimed key does not match.
type UpdateViewLoadingTime struct {
	Time        Time
	Key         ViewKey
	LoadingTime time.Duration
	LoadingType string
}

// AddCustomTiming records a named duration relative to view start.
type AddCustomTiming struct {
	Time Time
	Name string
}

// KeepAlive refreshes the current view's observed liveness without any
// state change.
type KeepAlive struct {
	Time Time
}

// StopSession explicitly ends the current session. The next interactive
// event starts a fresh one.
type StopSession struct {
	Time Time
}

// ApplicationStarted reports process start. The view emits a distinguished
// application-start action record with the elapsed time since AppStart.
type ApplicationStarted struct {
	Time          Time
	AppStartTicks time.Duration
}

// ResourceSent acknowledges that a resource record for the given view made
// it through the sink pipeline.
type ResourceSent struct {
	Time   Time
	ViewID string
}

// ResourceDropped reports that a resource record was rejected before
// emission. Adjusts bookkeeping only.
type ResourceDropped struct {
	Time   Time
	ViewID string
}

// ActionSent acknowledges an action record for the given view.
type ActionSent struct {
	Time   Time
	ViewID string
}

// ActionDropped reports a rejected action record.
type ActionDropped struct {
	Time   Time
	ViewID string
}

// ErrorSent acknowledges an error record for the given view.
type ErrorSent struct {
	Time   Time
	ViewID string
}

// ErrorDropped reports a rejected error record.
type ErrorDropped struct {
	Time   Time
	ViewID string
}

// LongTaskSent acknowledges a long-task record for the given view.
type LongTaskSent struct {
	Time   Time
	ViewID string
}

// LongTaskDropped reports a rejected long-task record.
type LongTaskDropped struct {
	Time   Time
	ViewID string
}

func (e StartView) Occurred() Time             { return e.Time }
func (e StopView) Occurred() Time              { return e.Time }
func (e StartAction) Occurred() Time           { return e.Time }
func (e StopAction) Occurred() Time            { return e.Time }
func (e StartResource) Occurred() Time         { return e.Time }
func (e StopResource) Occurred() Time          { return e.Time }
func (e StopResourceWithError) Occurred() Time { return e.Time }
func (e AddError) Occurred() Time              { return e.Time }
func (e AddLongTask) Occurred() Time           { return e.Time }
func (e UpdateViewLoadingTime) Occurred() Time { return e.Time }
func (e AddCustomTiming) Occurred() Time       { return e.Time }
func (e KeepAlive) Occurred() Time             { return e.Time }
func (e StopSession) Occurred() Time           { return e.Time }
func (e ApplicationStarted) Occurred() Time    { return e.Time }
func (e ResourceSent) Occurred() Time          { return e.Time }
func (e ResourceDropped) Occurred() Time       { return e.Time }
func (e ActionSent) Occurred() Time            { return e.Time }
func (e ActionDropped) Occurred() Time         { return e.Time }
func (e ErrorSent) Occurred() Time             { return e.Time }
func (e ErrorDropped) Occurred() Time          { return e.Time }
func (e LongTaskSent) Occurred() Time          { return e.Time }
func (e LongTaskDropped) Occurred() Time       { return e.Time }

func (StartView) sealed()             {}
func (StopView) sealed()              {}
func (StartAction) sealed()           {}
func (StopAction) sealed()            {}
func (StartResource) sealed()         {}
func (StopResource) sealed()          {}
func (StopResourceWithError) sealed() {}
func (AddError) sealed()              {}
func (AddLongTask) sealed()           {}
func (UpdateViewLoadingTime) sealed() {}
func (AddCustomTiming) sealed()       {}
func (KeepAlive) sealed()             {}
func (StopSession) sealed()           {}
func (ApplicationStarted) sealed()    {}
func (ResourceSent) sealed()          {}
func (ResourceDropped) sealed()       {}
func (ActionSent) sealed()            {}
func (ActionDropped) sealed()         {}
func (ErrorSent) sealed()             {}
func (ErrorDropped) sealed()          {}
func (LongTaskSent) sealed()          {}
func (LongTaskDropped) sealed()       {}
