package sessionwatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
	"github.com/ppiankov/sessionwatch/internal/monitor"
	"github.com/ppiankov/sessionwatch/internal/scope"
	"github.com/ppiankov/sessionwatch/internal/sink"
	"github.com/ppiankov/sessionwatch/internal/store"
)

// Client feeds raw events into an in-process aggregation tree.
// Thread-safe for concurrent instrumentation calls.
type Client struct {
	m     *monitor.Monitor
	batch *sink.BatchWriter
	st    *store.Store
}

// New creates a Client for the given application id. At least one output
// option (WithBatchDir, WithStorePath, or WithRecordHandler) is required.
func New(applicationID string, opts ...Option) (*Client, error) {
	cfg := clientConfig{sampleRate: 100}
	for _, o := range opts {
		o(&cfg)
	}

	c := &Client{}
	var writers []scope.Writer

	if cfg.batchDir != "" {
		batch, err := sink.NewBatch(cfg.batchDir, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("sessionwatch: %w", err)
		}
		c.batch = batch
		writers = append(writers, batch)
	}
	if cfg.storePath != "" {
		st, err := store.Open(cfg.storePath)
		if err != nil {
			return nil, fmt.Errorf("sessionwatch: %w", err)
		}
		c.st = st
		writers = append(writers, st)
	}
	if cfg.recordHandler != nil {
		handler := cfg.recordHandler
		writers = append(writers, sink.Func(func(rec model.Record) {
			if data, err := json.Marshal(rec); err == nil {
				handler(data)
			}
		}))
	}
	if len(writers) == 0 {
		return nil, fmt.Errorf("sessionwatch: at least one output is required")
	}

	m, err := monitor.New(monitor.Config{
		ApplicationID: applicationID,
		Session: scope.SessionConfig{
			InactivityTimeout: cfg.inactivityTimeout,
			MaxDuration:       cfg.maxDuration,
			SampleRate:        cfg.sampleRate,
		},
		KeepAliveInterval: cfg.keepAliveInterval,
		QueueSize:         cfg.queueSize,
		Sink:              sink.Multi(writers...),
	})
	if err != nil {
		return nil, fmt.Errorf("sessionwatch: %w", err)
	}
	c.m = m
	m.Start()
	return c, nil
}

// Close drains queued events and releases the outputs.
func (c *Client) Close() error {
	c.m.Close()
	if c.batch != nil {
		if err := c.batch.Close(); err != nil {
			return err
		}
	}
	if c.st != nil {
		return c.st.Close()
	}
	return nil
}

// StartView opens a new view. The previous view, if any, closes out.
func (c *Client) StartView(name, url string, attrs map[string]any) View {
	v := newView(name, url)
	c.m.Send(event.StartView{Time: event.Now(), Key: v.key(), Attributes: attrs})
	return v
}

// StopView stops the given view. A zero View stops whichever view is
// current.
func (c *Client) StopView(v View) {
	c.m.Send(event.StopView{Time: event.Now(), Key: v.key()})
}

// StartAction opens the current view's action slot. Ignored while
// another action is active.
func (c *Client) StartAction(actionType, name string, attrs map[string]any) {
	c.m.Send(event.StartAction{Time: event.Now(), ActionType: actionType, Name: name, Attributes: attrs})
}

// StopAction terminates the active action. Non-empty actionType and name
// replace the values recorded at start.
func (c *Client) StopAction(actionType, name string, attrs map[string]any) {
	c.m.Send(event.StopAction{Time: event.Now(), ActionType: actionType, Name: name, Attributes: attrs})
}

// StartResource opens a resource keyed by the caller's correlation key.
func (c *Client) StartResource(key, method, url string, attrs map[string]any) {
	c.m.Send(event.StartResource{Time: event.Now(), Key: key, Method: method, URL: url, Attributes: attrs})
}

// StopResource completes the resource with the matching key.
func (c *Client) StopResource(key string, statusCode, size int64, kind string) {
	c.m.Send(event.StopResource{Time: event.Now(), Key: key, StatusCode: statusCode, Size: size, Kind: kind})
}

// StopResourceWithError completes the matching resource by recording an
// error in its place.
func (c *Client) StopResourceWithError(key, message, source string, statusCode int64) {
	c.m.Send(event.StopResourceWithError{Time: event.Now(), Key: key, Message: message, Source: source, StatusCode: statusCode})
}

// AddError records an error against the current view.
func (c *Client) AddError(e Error) {
	c.m.Send(event.AddError{
		Time:       event.Now(),
		Message:    e.Message,
		Source:     e.Source,
		Kind:       e.Kind,
		Stack:      e.Stack,
		Fatal:      e.Fatal,
		Attributes: e.Attributes,
	})
}

// AddLongTask records a long-running task observed on the instrumented
// thread.
func (c *Client) AddLongTask(d time.Duration, target string) {
	c.m.Send(event.AddLongTask{Time: event.Now(), Duration: d, Target: target})
}

// AddTiming records a named duration relative to the current view's start.
func (c *Client) AddTiming(name string) {
	c.m.Send(event.AddCustomTiming{Time: event.Now(), Name: name})
}

// UpdateViewLoadingTime sets the loading time of the given view. Only a
// live, exact key match applies.
func (c *Client) UpdateViewLoadingTime(v View, d time.Duration, loadingType string) {
	c.m.Send(event.UpdateViewLoadingTime{Time: event.Now(), Key: v.key(), LoadingTime: d, LoadingType: loadingType})
}

// StopSession explicitly ends the current session. The next event starts
// a fresh one.
func (c *Client) StopSession() {
	c.m.Send(event.StopSession{Time: event.Now()})
}

// SetGlobalAttribute sets a process-wide attribute carried by every
// record emitted from now on.
func (c *Client) SetGlobalAttribute(key string, value any) {
	c.m.SetGlobalAttribute(key, value)
}

// RemoveGlobalAttribute removes a process-wide attribute.
func (c *Client) RemoveGlobalAttribute(key string) {
	c.m.RemoveGlobalAttribute(key)
}
