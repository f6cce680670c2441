// Package runtime wires configuration, telemetry, the optional event bus and
// the practice session together.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/parlalabs/parla-core/internal/bus"
	"github.com/parlalabs/parla-core/internal/config"
	"github.com/parlalabs/parla-core/internal/dialogue"
	"github.com/parlalabs/parla-core/internal/journal"
	"github.com/parlalabs/parla-core/internal/natsserver"
	"github.com/parlalabs/parla-core/internal/record"
	"github.com/parlalabs/parla-core/internal/segment"
	"github.com/parlalabs/parla-core/internal/session"
	"github.com/parlalabs/parla-core/internal/stt"
)

type Runtime struct {
	cfg    config.Config
	logger *slog.Logger

	metricsServer *http.Server
	wg            sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Start runs one practice session to completion. Startup failures abort;
// anything after startup is absorbed by the session's fail-soft policy.
func (r *Runtime) Start(ctx context.Context) error {
	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer r.closeTelemetry(shutdownTelemetry)

	if bind := r.cfg.Telemetry.PrometheusBind; bind != "" && metricHandler != nil {
		r.serveMetrics(bind, metricHandler)
		defer r.stopMetrics()
	}

	embedded, busClient, err := r.startBus()
	if err != nil {
		return err
	}
	defer embedded.Shutdown()
	defer busClient.Close()

	store, err := journal.Open(ctx, r.cfg.Journal, r.logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	journalSvc := journal.NewService(ctx, store, busClient, r.logger)
	if err := journalSvc.Start(); err != nil {
		return fmt.Errorf("start journal: %w", err)
	}
	defer journalSvc.Close()

	source, err := r.buildDialogueSource()
	if err != nil {
		return err
	}
	recorder, err := r.buildRecorder()
	if err != nil {
		return err
	}
	transcriber, err := r.buildTranscriber()
	if err != nil {
		return err
	}
	segmenter := segment.New(segment.Options{
		ClearExisting: r.cfg.Segmenter.ClearExisting,
	}, r.logger)

	runner := session.NewRunner(r.cfg, source, recorder, transcriber, segmenter,
		busClient, os.Stdin, os.Stdout, r.logger)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	r.summarize(ctx, store, runner.SessionID())
	return nil
}

// startBus starts the embedded server and connects the client when the bus
// is enabled. Both results may be nil; all callers tolerate that.
func (r *Runtime) startBus() (*natsserver.EmbeddedServer, *bus.Client, error) {
	if !r.cfg.Bus.Enabled {
		return nil, nil, nil
	}
	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start embedded bus: %w", err)
	}
	busCfg := r.cfg.Bus
	if embedded != nil {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}
	client, err := bus.Connect(busCfg, r.logger)
	if err != nil {
		embedded.Shutdown()
		return nil, nil, fmt.Errorf("connect bus: %w", err)
	}
	return embedded, client, nil
}

func (r *Runtime) buildDialogueSource() (dialogue.Source, error) {
	switch r.cfg.Dialogue.Mode {
	case "gemini":
		return dialogue.NewGeminiSource(r.cfg.Dialogue, r.cfg.Session.UserName), nil
	case "exec":
		return dialogue.NewExecSource(r.cfg.Dialogue.Command)
	default:
		return dialogue.NewMockSource(dialogue.FallbackTurns(r.cfg.Session.UserName)), nil
	}
}

func (r *Runtime) buildRecorder() (record.Recorder, error) {
	switch r.cfg.Recorder.Mode {
	case "exec":
		return record.NewExecRecorder(r.cfg.Recorder)
	default:
		return record.NewMockRecorder(r.cfg.Recorder.SampleRate), nil
	}
}

func (r *Runtime) buildTranscriber() (stt.Transcriber, error) {
	switch r.cfg.STT.Mode {
	case "exec":
		return stt.NewExecTranscriber(r.cfg.STT)
	default:
		return stt.NewMockTranscriber(""), nil
	}
}

func (r *Runtime) serveMetrics(bind string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.metricsServer = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	r.logger.Info("metrics server started", slog.String("addr", bind))
}

func (r *Runtime) stopMetrics() {
	if r.metricsServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.metricsServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("metrics shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()
}

func (r *Runtime) closeTelemetry(shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
	}
}

// summarize logs what the journal recorded for this session, when retention
// is on.
func (r *Runtime) summarize(ctx context.Context, store *journal.Store, sessionID string) {
	reports, err := store.ListSessionReports(ctx, sessionID, 0)
	if err != nil {
		r.logger.Warn("failed to read session summary", slog.String("error", err.Error()))
		return
	}
	if len(reports) == 0 {
		return
	}
	perfect := 0
	for _, report := range reports {
		if report.Perfect {
			perfect++
		}
	}
	r.logger.Info("session summary",
		slog.String("session_id", sessionID),
		slog.Int("turns", len(reports)),
		slog.Int("perfect_turns", perfect))
}
