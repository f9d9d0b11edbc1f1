package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sessionwatch/internal/config"
	"github.com/ppiankov/sessionwatch/internal/daemon"
	"github.com/ppiankov/sessionwatch/internal/live"
	"github.com/ppiankov/sessionwatch/internal/monitor"
	"github.com/ppiankov/sessionwatch/internal/scope"
	"github.com/ppiankov/sessionwatch/internal/sink"
	"github.com/ppiankov/sessionwatch/internal/store"
)

var servePoll bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&servePoll, "poll", false, "Use polling instead of fsnotify for inbox watching")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingest daemon",
	Long:  "Watches the inbox directory for recorded event-stream files, feeds\nevents through the aggregation tree, and writes the resulting records to\nthe batch directory, the SQLite store, and connected live subscribers.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	batch, err := sink.NewBatch(cfg.Batch.Dir, cfg.Batch.MaxRecords, cfg.Batch.MaxAge)
	if err != nil {
		return err
	}
	defer batch.Close()

	writers := []scope.Writer{st, batch}

	var httpSrv *http.Server
	if cfg.Live.Enabled {
		bc := live.NewBroadcaster()
		defer bc.Close()
		writers = append(writers, bc)

		mux := http.NewServeMux()
		mux.Handle("/live", bc.Handler())
		httpSrv = &http.Server{Addr: cfg.Live.Addr, Handler: mux}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "live listener: %v\n", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "live stream on ws://%s/live\n", cfg.Live.Addr)
	}

	// Keep the processing lane off the sqlite/batch write path.
	async := sink.NewAsync(sink.Multi(writers...), cfg.QueueSize)
	defer async.Close()

	m, err := monitor.New(monitor.Config{
		ApplicationID: cfg.ApplicationID,
		Session: scope.SessionConfig{
			InactivityTimeout: cfg.Session.InactivityTimeout,
			MaxDuration:       cfg.Session.MaxDuration,
			SampleRate:        cfg.Session.SampleRate,
		},
		KeepAliveInterval: cfg.KeepAliveInterval,
		QueueSize:         cfg.QueueSize,
		Sink:              async,
	})
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	m.Start()
	defer m.Close()

	d, err := daemon.New(daemon.Config{
		Dirs: daemon.DirConfig{
			Inbox:   cfg.Daemon.Inbox,
			Archive: cfg.Daemon.Archive,
			Failed:  cfg.Daemon.Failed,
		},
		PollMode:     servePoll || cfg.Daemon.PollMode,
		PollInterval: cfg.Daemon.PollInterval,
	}, m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down ingest daemon...")
		cancel()
		if httpSrv != nil {
			_ = httpSrv.Close()
		}
	}()

	fmt.Fprintf(os.Stderr, "sessionwatch watching %s\n", cfg.Daemon.Inbox)
	return d.Run(ctx)
}
