package daemon

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/sessionwatch/internal/event"
)

// EventSink is where decoded events go: in production, the monitor's
// processing lane.
type EventSink interface {
	Send(ev event.Event)
}

// Processor ingests one inbox file at a time: validate, decode line by
// line, hand events to the lane, archive the file.
type Processor struct {
	dirs DirConfig
	sink EventSink
}

// NewProcessor creates a processor feeding the given sink.
func NewProcessor(dirs DirConfig, sink EventSink) *Processor {
	return &Processor{dirs: dirs, sink: sink}
}

// Process handles a single inbox file through its full lifecycle:
// validate → decode → feed lane → move to archive. Files that fail to
// parse move to the failed directory instead; events decoded before the
// failure have already been delivered.
func (p *Processor) Process(path string) error {
	// Structural symlink defense: reject symlinks before reading so an
	// attacker cannot point inbox entries at arbitrary files.
	fi, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("stat inbox file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("rejected symlink: %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open inbox file: %w", err)
	}

	var decodeErr error
	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := event.Decode(line)
		if err != nil {
			decodeErr = fmt.Errorf("line %d: %w", lineNo, err)
			break
		}
		p.sink.Send(ev)
	}
	if decodeErr == nil {
		decodeErr = scanner.Err()
	}
	_ = f.Close()

	if decodeErr != nil {
		dst := filepath.Join(p.dirs.Failed, filepath.Base(path))
		if mvErr := moveFile(path, dst); mvErr != nil {
			return fmt.Errorf("move to failed: %w (after: %v)", mvErr, decodeErr)
		}
		return fmt.Errorf("ingest %s: %w", filepath.Base(path), decodeErr)
	}

	dst := filepath.Join(p.dirs.Archive, filepath.Base(path))
	if err := moveFile(path, dst); err != nil {
		return fmt.Errorf("move to archive: %w", err)
	}
	return nil
}
