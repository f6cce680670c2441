package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/parlalabs/parla-core/internal/audio"
	"github.com/parlalabs/parla-core/internal/config"
	"github.com/parlalabs/parla-core/internal/dialogue"
	"github.com/parlalabs/parla-core/internal/record"
	"github.com/parlalabs/parla-core/internal/segment"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type scriptedTranscriber struct {
	text    string
	timings []segment.WordTiming
	err     error
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, _ audio.Buffer) (string, error) {
	return s.text, s.err
}

func (s *scriptedTranscriber) TranscribeWords(_ context.Context, _ audio.Buffer) ([]segment.WordTiming, error) {
	return s.timings, s.err
}

type failingSource struct{}

func (failingSource) Turns(_ context.Context) ([]dialogue.Turn, error) {
	return nil, errors.New("network down")
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Segmenter.OutputDir = filepath.Join(t.TempDir(), "words")
	return cfg
}

func newTestRunner(t *testing.T, cfg config.Config, source dialogue.Source, transcriber *scriptedTranscriber, out io.Writer) *Runner {
	t.Helper()
	color.NoColor = true
	segmenter := segment.New(segment.Options{ClearExisting: cfg.Segmenter.ClearExisting}, newLogger())
	recorder := record.NewMockRecorder(cfg.Recorder.SampleRate)
	return NewRunner(cfg, source, recorder, transcriber, segmenter,
		nil, strings.NewReader("\n\n\n"), out, newLogger())
}

func TestRunScoresAndSegmentsTurn(t *testing.T) {
	cfg := testConfig(t)
	source := dialogue.NewMockSource([]dialogue.Turn{
		{Prompt: "Morning! How is the team?", ExpectedResponse: "good morning team"},
	})
	transcriber := &scriptedTranscriber{
		text: "good evening team",
		timings: []segment.WordTiming{
			{Word: "good", Start: 0.0, End: 1.0},
			{Word: "evening", Start: 1.0, End: 2.0},
			{Word: "team", Start: 2.0, End: 3.0},
		},
	}

	var out bytes.Buffer
	runner := newTestRunner(t, cfg, source, transcriber, &out)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, `said "evening" instead of "morning"`) {
		t.Fatalf("report missing mismatch, got:\n%s", text)
	}
	if !strings.Contains(text, "good evening team") {
		t.Fatalf("report missing annotated transcript, got:\n%s", text)
	}

	wantFiles := []string{"word_1_good.wav", "word_2_evening.wav", "word_3_team.wav"}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(cfg.Segmenter.OutputDir, name)); err != nil {
			t.Fatalf("missing word clip %s: %v", name, err)
		}
	}
}

func TestRunPerfectTurn(t *testing.T) {
	cfg := testConfig(t)
	source := dialogue.NewMockSource([]dialogue.Turn{
		{Prompt: "Say hi.", ExpectedResponse: "hi there"},
	})
	transcriber := &scriptedTranscriber{
		text: "hi there",
		timings: []segment.WordTiming{
			{Word: "hi", Start: 0.0, End: 0.5},
			{Word: "there", Start: 0.5, End: 1.0},
		},
	}

	var out bytes.Buffer
	runner := newTestRunner(t, cfg, source, transcriber, &out)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "No mistakes!") {
		t.Fatalf("expected perfect verdict, got:\n%s", out.String())
	}
}

func TestRunFallsBackWhenSourceFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.UserName = "Dana"
	transcriber := &scriptedTranscriber{err: errors.New("recognizer crashed")}

	var out bytes.Buffer
	runner := newTestRunner(t, cfg, failingSource{}, transcriber, &out)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Hello! How are you today?") {
		t.Fatalf("expected fallback conversation, got:\n%s", text)
	}
	// Transcription failed, so the turn reports no detected words but still
	// completes.
	if !strings.Contains(text, "No words detected.") {
		t.Fatalf("expected empty-result report, got:\n%s", text)
	}
	if strings.Count(text, "=== PRONUNCIATION RESULTS") != len(dialogue.FallbackTurns("Dana")) {
		t.Fatalf("expected a report per fallback turn, got:\n%s", text)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	runner := newTestRunner(t, cfg, dialogue.NewMockSource(dialogue.FallbackTurns("x")), &scriptedTranscriber{}, &out)
	if err := runner.Run(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
