package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sessionwatch/internal/config"
	"github.com/ppiankov/sessionwatch/internal/event"
	"github.com/ppiankov/sessionwatch/internal/model"
	"github.com/ppiankov/sessionwatch/internal/monitor"
	"github.com/ppiankov/sessionwatch/internal/scope"
	"github.com/ppiankov/sessionwatch/internal/sink"
)

var replayOutput string

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", "", "Write records to file instead of stdout")
}

var replayCmd = &cobra.Command{
	Use:   "replay <event-log>",
	Short: "Replay a recorded event stream through a fresh tree",
	Long:  "Reads a JSONL event-stream file, feeds every event through a new\naggregation tree in order, and prints the emitted records as JSON lines.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	out := os.Stdout
	if replayOutput != "" {
		f, err := os.Create(replayOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	var emitted int
	m, err := monitor.New(monitor.Config{
		ApplicationID: cfg.ApplicationID,
		Session: scope.SessionConfig{
			InactivityTimeout: cfg.Session.InactivityTimeout,
			MaxDuration:       cfg.Session.MaxDuration,
			SampleRate:        100, // replay always keeps every record
		},
		KeepAliveInterval: -1, // replay is driven by recorded events only
		Sink: sink.Func(func(rec model.Record) {
			emitted++
			if err := enc.Encode(rec); err != nil {
				fmt.Fprintf(os.Stderr, "write record: %v\n", err)
			}
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	m.Start()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lineNo, parsed int
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := event.Decode(line)
		if err != nil {
			m.Close()
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		parsed++
		m.SendBlocking(ev)
	}
	if err := scanner.Err(); err != nil {
		m.Close()
		return fmt.Errorf("read event log: %w", err)
	}

	m.Close()
	fmt.Fprintf(os.Stderr, "replayed %d events, emitted %d records\n", parsed, emitted)
	return nil
}
