package monitor

import "sync"

// Attributes is the process-wide global attribute registry. Producers set
// values from any goroutine; the scope tree reads an immutable snapshot at
// each emission.
type Attributes struct {
	mu    sync.RWMutex
	attrs map[string]any
}

// NewAttributes creates an empty registry.
func NewAttributes() *Attributes {
	return &Attributes{attrs: make(map[string]any)}
}

// Set stores one attribute.
func (a *Attributes) Set(key string, value any) {
	a.mu.Lock()
	a.attrs[key] = value
	a.mu.Unlock()
}

// Remove deletes one attribute.
func (a *Attributes) Remove(key string) {
	a.mu.Lock()
	delete(a.attrs, key)
	a.mu.Unlock()
}

// Snapshot returns a copy of the current attribute set. Nil when empty so
// record envelopes stay compact.
func (a *Attributes) Snapshot() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(a.attrs))
	for k, v := range a.attrs {
		out[k] = v
	}
	return out
}
