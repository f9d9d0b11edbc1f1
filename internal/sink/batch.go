package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/ppiankov/sessionwatch/internal/identity"
	"github.com/ppiankov/sessionwatch/internal/model"
)

// Batch rotation defaults.
const (
	defaultBatchMaxRecords = 500
	defaultBatchMaxAge     = 30 * time.Second
)

// filePerm is the permission for batch files.
const filePerm = 0600

// BatchWriter appends records as JSON lines to an open batch file and, on
// rotation (record count or age), seals the batch by compressing it to a
// .jsonl.zst file ready for pickup by an uploader. Write failures are
// logged, never propagated: the sink contract forbids throwing back into
// the processing lane.
type BatchWriter struct {
	dir        string
	maxRecords int
	maxAge     time.Duration

	mu      sync.Mutex
	file    *os.File
	path    string
	count   int
	started time.Time
}

// NewBatch creates a batch writer rooted at dir. Zero limits take the
// defaults.
func NewBatch(dir string, maxRecords int, maxAge time.Duration) (*BatchWriter, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("sink: create batch directory: %w", err)
	}
	if maxRecords <= 0 {
		maxRecords = defaultBatchMaxRecords
	}
	if maxAge <= 0 {
		maxAge = defaultBatchMaxAge
	}
	return &BatchWriter{
		dir:        dir,
		maxRecords: maxRecords,
		maxAge:     maxAge,
	}, nil
}

// Write appends one record to the current batch.
func (b *BatchWriter) Write(rec model.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.append(rec); err != nil {
		fmt.Fprintf(os.Stderr, "sessionwatch: batch write: %v\n", err)
	}
}

// Close seals the current batch, if any.
func (b *BatchWriter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seal()
}

func (b *BatchWriter) append(rec model.Record) error {
	if b.file != nil && (b.count >= b.maxRecords || time.Since(b.started) >= b.maxAge) {
		if err := b.seal(); err != nil {
			return err
		}
	}
	if b.file == nil {
		path := filepath.Join(b.dir, identity.NewBatchID()+".jsonl")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
		if err != nil {
			return fmt.Errorf("open batch: %w", err)
		}
		b.file = f
		b.path = path
		b.count = 0
		b.started = time.Now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := b.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	b.count++
	return nil
}

// seal closes the open batch and compresses it in place, removing the
// uncompressed original on success.
func (b *BatchWriter) seal() error {
	if b.file == nil {
		return nil
	}
	if err := b.file.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	path := b.path
	b.file = nil
	b.path = ""

	if err := compressFile(path); err != nil {
		return err
	}
	return os.Remove(path)
}

func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sealed batch: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(path+".zst", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("create compressed batch: %w", err)
	}

	enc, err := zstd.NewWriter(out)
	if err != nil {
		out.Close()
		return fmt.Errorf("init zstd: %w", err)
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return fmt.Errorf("compress batch: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finish zstd: %w", err)
	}
	return out.Close()
}
