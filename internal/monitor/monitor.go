// Package monitor runs the single-lane event processor: producers on
// arbitrary goroutines enqueue raw events, one goroutine feeds them to the
// scope tree in arrival order, and sink acknowledgments re-enter the lane
// as Sent/Dropped events.
package monitor

import (
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
	"github.com/ppiankov/sessionwatch/internal/scope"
)

// DefaultKeepAliveInterval is how often an idle view's liveness is
// refreshed with a KeepAlive event.
const DefaultKeepAliveInterval = 5 * time.Minute

// defaultQueueSize bounds the producer-facing event queue. Producers never
// block: events beyond the bound are dropped with a warning.
const defaultQueueSize = 256

// Mapper optionally rewrites a record before it reaches the sink.
// Returning nil rejects the record: its acknowledgment resolves as a drop
// and the drop collaborator is notified.
type Mapper func(rec model.Record) *model.Record

// Config holds monitor configuration. ApplicationID and Sink are required.
type Config struct {
	ApplicationID     string
	Session           scope.SessionConfig
	KeepAliveInterval time.Duration // 0 → default, negative → disabled
	QueueSize         int
	Mapper            Mapper
	Sink              scope.Writer

	User    func() model.UserInfo
	Network func() model.NetworkInfo
	Drops   scope.DropListener
	Warnf   func(format string, args ...any)
}

// Monitor owns the scope tree and its processing lane.
type Monitor struct {
	cfg     Config
	globals *Attributes
	root    *scope.ApplicationScope
	writer  *recordWriter

	events chan event.Event
	stop   chan struct{}
	done   chan struct{}

	// lane-goroutine state, never touched from outside the loop
	acks       []event.Event
	appStarted bool
}

// New creates a monitor. Call Start to begin processing.
func New(cfg Config) (*Monitor, error) {
	if cfg.ApplicationID == "" {
		return nil, fmt.Errorf("monitor: application id is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("monitor: sink is required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.KeepAliveInterval == 0 {
		cfg.KeepAliveInterval = DefaultKeepAliveInterval
	}

	m := &Monitor{
		cfg:     cfg,
		globals: NewAttributes(),
		events:  make(chan event.Event, cfg.QueueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	m.writer = &recordWriter{m: m}

	ambient := &scope.Ambient{
		User:             cfg.User,
		Network:          cfg.Network,
		GlobalAttributes: m.globals.Snapshot,
		Drops:            cfg.Drops,
		Warnf:            cfg.Warnf,
	}
	m.root = scope.NewApplicationScope(cfg.ApplicationID, ambient, cfg.Session)
	return m, nil
}

// Start launches the processing lane.
func (m *Monitor) Start() {
	go m.loop()
}

// Close stops the lane after draining queued events. Safe to call once.
func (m *Monitor) Close() {
	close(m.stop)
	<-m.done
}

// Send enqueues a raw event from any goroutine. Never blocks: if the queue
// is full the event is dropped with a warning.
func (m *Monitor) Send(ev event.Event) {
	select {
	case m.events <- ev:
	default:
		m.warnf("sessionwatch: event queue full, dropping %T", ev)
	}
}

// SendBlocking enqueues a raw event, waiting for queue space. Used by
// offline replay, where a dropped event would skew the output.
func (m *Monitor) SendBlocking(ev event.Event) {
	select {
	case m.events <- ev:
	case <-m.stop:
	}
}

// SetGlobalAttribute sets a process-wide attribute that appears in every
// record emitted from now on.
func (m *Monitor) SetGlobalAttribute(key string, value any) {
	m.globals.Set(key, value)
}

// RemoveGlobalAttribute removes a process-wide attribute.
func (m *Monitor) RemoveGlobalAttribute(key string) {
	m.globals.Remove(key)
}

// Context returns the current identifier snapshot of the tree. Must only
// be used for diagnostics; it races with the lane by design and is cheap
// and side-effect-free for stopped monitors.
func (m *Monitor) Context() model.Context {
	return m.root.Context()
}

func (m *Monitor) loop() {
	defer close(m.done)

	var keepAlive <-chan time.Time
	if m.cfg.KeepAliveInterval > 0 {
		t := time.NewTicker(m.cfg.KeepAliveInterval)
		defer t.Stop()
		keepAlive = t.C
	}

	for {
		select {
		case ev := <-m.events:
			m.process(ev)
		case <-keepAlive:
			m.process(event.KeepAlive{Time: event.Now()})
		case <-m.stop:
			for {
				select {
				case ev := <-m.events:
					m.process(ev)
				default:
					return
				}
			}
		}
	}
}

// process feeds one event through the tree, then drains the
// acknowledgments the write path produced. Acks generated while handling
// acks queue up behind them, preserving arrival order.
func (m *Monitor) process(ev event.Event) {
	if _, ok := ev.(event.StartView); ok && !m.appStarted {
		// First view of the process: report application start through the
		// freshly created view, outside the normal action lifecycle.
		m.appStarted = true
		m.dispatch(ev)
		m.dispatch(event.ApplicationStarted{Time: event.Now()})
		return
	}
	m.dispatch(ev)
}

func (m *Monitor) dispatch(ev event.Event) {
	m.root.Handle(ev, m.writer)
	for len(m.acks) > 0 {
		next := m.acks[0]
		m.acks = m.acks[1:]
		m.root.Handle(next, m.writer)
	}
}

func (m *Monitor) warnf(format string, args ...any) {
	if m.cfg.Warnf != nil {
		m.cfg.Warnf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// recordWriter is the writer handed to the tree. It applies the optional
// mapper, forwards accepted records to the terminal sink, and queues the
// matching Sent/Dropped acknowledgment for the lane to process next.
type recordWriter struct {
	m *Monitor
}

func (w *recordWriter) Write(rec model.Record) {
	out := rec
	if w.m.cfg.Mapper != nil {
		mapped := w.m.cfg.Mapper(rec)
		if mapped == nil {
			w.m.queueAck(rec, false)
			if w.m.cfg.Drops != nil {
				w.m.cfg.Drops.NotifyDropped(rec.View.ID, rec.Ack())
			}
			return
		}
		out = *mapped
	}
	w.m.cfg.Sink.Write(out)
	w.m.queueAck(rec, true)
}

// Discard resolves a record thrown away on purpose (unsampled session):
// the pending counter drains as a drop, with no drop notification.
func (w *recordWriter) Discard(rec model.Record) {
	w.m.queueAck(rec, false)
}

func (m *Monitor) queueAck(rec model.Record, sent bool) {
	t := event.Now()
	viewID := rec.View.ID
	var ack event.Event
	switch rec.Ack() {
	case model.RecordAction:
		if sent {
			ack = event.ActionSent{Time: t, ViewID: viewID}
		} else {
			ack = event.ActionDropped{Time: t, ViewID: viewID}
		}
	case model.RecordResource:
		if sent {
			ack = event.ResourceSent{Time: t, ViewID: viewID}
		} else {
			ack = event.ResourceDropped{Time: t, ViewID: viewID}
		}
	case model.RecordError:
		if sent {
			ack = event.ErrorSent{Time: t, ViewID: viewID}
		} else {
			ack = event.ErrorDropped{Time: t, ViewID: viewID}
		}
	case model.RecordLongTask:
		if sent {
			ack = event.LongTaskSent{Time: t, ViewID: viewID}
		} else {
			ack = event.LongTaskDropped{Time: t, ViewID: viewID}
		}
	default:
		// View records have no pending counter to resolve.
		return
	}
	m.acks = append(m.acks, ack)
}
