package scope

import (
	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/identity"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// ResourceScope tracks one in-flight network resource call, keyed by the
// caller's per-request correlation key. It terminates by emitting exactly
// one record: a resource record on StopResource, or an error record on
// StopResourceWithError (which still acknowledges as a resource so the
// parent's pending counter drains).
type ResourceScope struct {
	parent  ContextProvider
	ambient *Ambient

	key        string
	resourceID string
	method     string
	url        string
	startTime  event.Time
	attributes map[string]any
}

func newResourceScope(parent ContextProvider, ambient *Ambient, e event.StartResource) *ResourceScope {
	return &ResourceScope{
		parent:     parent,
		ambient:    ambient,
		key:        e.Key,
		resourceID: identity.NewResourceID(),
		method:     e.Method,
		url:        e.URL,
		startTime:  e.Time,
		attributes: mergeAttrs(ambient.globals(), e.Attributes),
	}
}

// Handle reacts only to the terminal event carrying this scope's key.
// Everything else passes through untouched.
func (r *ResourceScope) Handle(ev event.Event, w Writer) Scope {
	switch e := ev.(type) {
	case event.StopResource:
		if e.Key == r.key {
			r.stop(e, w)
			return nil
		}
	case event.StopResourceWithError:
		if e.Key == r.key {
			r.stopWithError(e, w)
			return nil
		}
	}
	return r
}

// Context returns the enclosing view's context.
func (r *ResourceScope) Context() model.Context {
	return r.parent.Context()
}

func (r *ResourceScope) stop(e event.StopResource, w Writer) {
	r.attributes = mergeAttrs(r.attributes, e.Attributes)
	rec := r.ambient.newRecord(model.RecordResource, r.startTime.Timestamp, r.Context(), r.attributes)
	rec.ResourceDetail = &model.ResourceDetail{
		ID:         r.resourceID,
		Key:        r.key,
		Method:     r.method,
		URL:        r.url,
		Duration:   clampDur(e.Time.Ticks - r.startTime.Ticks),
		StatusCode: e.StatusCode,
		Size:       e.Size,
		Kind:       e.Kind,
	}
	w.Write(rec)
}

func (r *ResourceScope) stopWithError(e event.StopResourceWithError, w Writer) {
	r.attributes = mergeAttrs(r.attributes, e.Attributes)
	msg := e.Message
	if msg == "" {
		msg = "resource error detected"
	}
	source := e.Source
	if source == "" {
		source = "network"
	}
	rec := r.ambient.newRecord(model.RecordError, e.Time.Timestamp, r.Context(), r.attributes)
	rec.AckCategory = model.RecordResource
	rec.ErrorDetail = &model.ErrorDetail{
		ID:       identity.NewRecordID(),
		Message:  msg,
		Source:   source,
		Resource: r.url,
	}
	w.Write(rec)
}
