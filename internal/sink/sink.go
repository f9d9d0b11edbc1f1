// Package sink provides Writer implementations for emitted aggregate
// records: fan-out, non-blocking async decoupling, and durable JSONL batch
// files with zstd compression on rotation.
package sink

import (
	"github.com/ppiankov/sessionwatch/internal/model"
	"github.com/ppiankov/sessionwatch/internal/scope"
)

// Func adapts a function to the Writer interface.
type Func func(rec model.Record)

// Write calls f.
func (f Func) Write(rec model.Record) { f(rec) }

// Multi fans every record out to all writers in order.
func Multi(writers ...scope.Writer) scope.Writer {
	return multiWriter{writers: writers}
}

type multiWriter struct {
	writers []scope.Writer
}

func (m multiWriter) Write(rec model.Record) {
	for _, w := range m.writers {
		w.Write(rec)
	}
}

// Discard drops every record. Useful in tests and dry runs.
type Discard struct{}

// Write does nothing.
func (Discard) Write(model.Record) {}
