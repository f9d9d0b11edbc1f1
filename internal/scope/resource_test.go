package scope

import (
	"testing"
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
)

func newTestResource(t *testing.T) *ResourceScope {
	t.Helper()
	amb, _ := silentAmbient()
	parent := &testParent{ctx: model.Context{ApplicationID: "app", SessionID: "sess-1", ViewID: "view-1"}}
	return newResourceScope(parent, amb, event.StartResource{Time: at(0), Key: "req-1", Method: "GET", URL: "https://api.example.com/cart"})
}

func TestResourceStopEmitsResourceRecord(t *testing.T) {
	r := newTestResource(t)
	w := &captureWriter{}

	// Other keys pass through untouched.
	if next := r.Handle(event.StopResource{Time: at(10), Key: "other"}, w); next == nil {
		t.Fatal("resource must ignore terminal events for other keys")
	}
	if len(w.records) != 0 {
		t.Fatal("mismatched key must not emit")
	}

	if next := r.Handle(event.StopResource{Time: at(40), Key: "req-1", StatusCode: 200, Size: 2048, Kind: "fetch"}, w); next != nil {
		t.Fatal("resource must finish on its own stop")
	}
	rec := w.records[0]
	if rec.Type != model.RecordResource {
		t.Fatalf("expected resource record, got %s", rec.Type)
	}
	if rec.Ack() != model.RecordResource {
		t.Errorf("resource record must ack as resource, got %s", rec.Ack())
	}
	d := rec.ResourceDetail
	if d.Key != "req-1" || d.Method != "GET" || d.StatusCode != 200 || d.Size != 2048 {
		t.Errorf("unexpected detail %+v", d)
	}
	if d.Duration != 40*time.Millisecond {
		t.Errorf("expected 40ms duration, got %v", d.Duration)
	}
}

func TestResourceStopWithErrorAcksAsResource(t *testing.T) {
	r := newTestResource(t)
	w := &captureWriter{}

	if next := r.Handle(event.StopResourceWithError{Time: at(30), Key: "req-1", StatusCode: 503}, w); next != nil {
		t.Fatal("resource must finish on its error stop")
	}
	rec := w.records[0]
	if rec.Type != model.RecordError {
		t.Fatalf("expected error record, got %s", rec.Type)
	}
	if rec.Ack() != model.RecordResource {
		t.Errorf("error record from a resource must ack as resource, got %s", rec.Ack())
	}
	d := rec.ErrorDetail
	if d.Message != "resource error detected" {
		t.Errorf("expected default message, got %q", d.Message)
	}
	if d.Source != "network" {
		t.Errorf("expected default source, got %q", d.Source)
	}
	if d.Resource != "https://api.example.com/cart" {
		t.Errorf("expected resource url, got %q", d.Resource)
	}
}
