package sessionwatch

import "time"

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	batchDir          string
	storePath         string
	sampleRate        float64
	inactivityTimeout time.Duration
	maxDuration       time.Duration
	keepAliveInterval time.Duration
	queueSize         int
	recordHandler     func(recordJSON []byte)
}

// WithBatchDir writes emitted records to compressed JSONL batches under dir.
func WithBatchDir(dir string) Option {
	return func(c *clientConfig) { c.batchDir = dir }
}

// WithStorePath persists emitted records to a SQLite store at path.
func WithStorePath(path string) Option {
	return func(c *clientConfig) { c.storePath = path }
}

// WithSampleRate keeps records for the given percentage (0-100) of
// sessions. Unsampled sessions still run the full state machine.
func WithSampleRate(pct float64) Option {
	return func(c *clientConfig) { c.sampleRate = pct }
}

// WithInactivityTimeout rotates the session after this much idle time.
func WithInactivityTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.inactivityTimeout = d }
}

// WithMaxDuration rotates the session once it has been alive this long.
func WithMaxDuration(d time.Duration) Option {
	return func(c *clientConfig) { c.maxDuration = d }
}

// WithKeepAliveInterval sets how often an idle view is refreshed.
// Negative disables keep-alive.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(c *clientConfig) { c.keepAliveInterval = d }
}

// WithQueueSize bounds the producer-facing event queue.
func WithQueueSize(n int) Option {
	return func(c *clientConfig) { c.queueSize = n }
}

// WithRecordHandler invokes fn with every emitted record, marshaled as
// JSON. fn runs on the processing lane; keep it fast.
func WithRecordHandler(fn func(recordJSON []byte)) Option {
	return func(c *clientConfig) { c.recordHandler = fn }
}
