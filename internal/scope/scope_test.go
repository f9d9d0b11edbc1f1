package scope

import (
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// captureWriter collects everything the tree emits.
type captureWriter struct {
	records   []model.Record
	discarded []model.Record
}

func (w *captureWriter) Write(rec model.Record)   { w.records = append(w.records, rec) }
func (w *captureWriter) Discard(rec model.Record) { w.discarded = append(w.discarded, rec) }

func (w *captureWriter) byType(typ model.RecordType) []model.Record {
	var out []model.Record
	for _, r := range w.records {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func (w *captureWriter) last() model.Record {
	return w.records[len(w.records)-1]
}

// testParent is a mutable context provider standing in for the scope above
// the one under test.
type testParent struct {
	ctx model.Context
}

func (p *testParent) Context() model.Context { return p.ctx }

// dropRecorder captures drop notifications.
type dropRecorder struct {
	dropped []model.RecordType
}

func (d *dropRecorder) NotifyDropped(viewID string, category model.RecordType) {
	d.dropped = append(d.dropped, category)
}

// at builds a logical time n milliseconds into the test timeline.
func at(ms int64) event.Time {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return event.At(base.Add(time.Duration(ms)*time.Millisecond), time.Duration(ms)*time.Millisecond)
}

// silentAmbient suppresses stderr warnings and counts them.
func silentAmbient() (*Ambient, *int) {
	n := new(int)
	return &Ambient{Warnf: func(string, ...any) { *n++ }}, n
}
