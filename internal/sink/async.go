package sink

import (
	"fmt"
	"os"

	"github.com/ppiankov/sessionwatch/internal/model"
	"github.com/ppiankov/sessionwatch/internal/scope"
)

// defaultAsyncBuffer bounds the async hand-off queue.
const defaultAsyncBuffer = 512

// AsyncWriter decouples the processing lane from a potentially slow inner
// writer. Write never blocks: records beyond the buffer are dropped with a
// warning. Durability is the inner writer's concern; latency isolation is
// ours.
type AsyncWriter struct {
	inner scope.Writer
	ch    chan model.Record
	done  chan struct{}
}

// NewAsync wraps inner with a buffered hand-off goroutine.
func NewAsync(inner scope.Writer, buffer int) *AsyncWriter {
	if buffer <= 0 {
		buffer = defaultAsyncBuffer
	}
	a := &AsyncWriter{
		inner: inner,
		ch:    make(chan model.Record, buffer),
		done:  make(chan struct{}),
	}
	go a.drain()
	return a
}

// Write enqueues the record without blocking.
func (a *AsyncWriter) Write(rec model.Record) {
	select {
	case a.ch <- rec:
	default:
		fmt.Fprintf(os.Stderr, "sessionwatch: sink buffer full, dropping %s record\n", rec.Type)
	}
}

// Close flushes buffered records into the inner writer and stops the
// drain goroutine.
func (a *AsyncWriter) Close() {
	close(a.ch)
	<-a.done
}

func (a *AsyncWriter) drain() {
	defer close(a.done)
	for rec := range a.ch {
		a.inner.Write(rec)
	}
}
