// Package session drives one practice session: prompt, record, transcribe,
// score, segment, report, one turn at a time.
package session

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parlalabs/parla-core/internal/audio"
	"github.com/parlalabs/parla-core/internal/bus"
	"github.com/parlalabs/parla-core/internal/config"
	"github.com/parlalabs/parla-core/internal/dialogue"
	"github.com/parlalabs/parla-core/internal/protocol"
	"github.com/parlalabs/parla-core/internal/record"
	"github.com/parlalabs/parla-core/internal/score"
	"github.com/parlalabs/parla-core/internal/segment"
	"github.com/parlalabs/parla-core/internal/stt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// State names one stage of a turn's lifecycle.
type State string

const (
	StatePromptShown  State = "PROMPT_SHOWN"
	StateRecording    State = "RECORDING"
	StateTranscribing State = "TRANSCRIBING"
	StateScoring      State = "SCORING"
	StateSegmenting   State = "SEGMENTING"
	StateReported     State = "REPORTED"
)

// TurnOutcome collects everything a finished turn produced.
type TurnOutcome struct {
	Index       int // 1-based
	Turn        dialogue.Turn
	Duration    float64
	Transcribed string
	Score       score.Result
	WordFiles   []segment.WordFile
	Skipped     int
}

// Runner sequences the practice pipeline. Turns run strictly one after
// another; every collaborator failure below startup is logged and absorbed
// as an empty result so each turn still reaches its report.
type Runner struct {
	cfg        config.Config
	source     dialogue.Source
	recorder   record.Recorder
	transcribe stt.Transcriber
	segmenter  *segment.Segmenter
	bus        *bus.Client
	log        *slog.Logger

	in  *bufio.Scanner
	out io.Writer

	sessionID string
	scoreMode score.Mode
	tracer    trace.Tracer

	turnsTotal      metric.Int64Counter
	mismatchesTotal metric.Int64Counter
	wordsExported   metric.Int64Counter
}

func NewRunner(
	cfg config.Config,
	source dialogue.Source,
	recorder record.Recorder,
	transcriber stt.Transcriber,
	segmenter *segment.Segmenter,
	busClient *bus.Client,
	in io.Reader,
	out io.Writer,
	log *slog.Logger,
) *Runner {
	meter := otel.Meter("parla/session")
	turns, _ := meter.Int64Counter("parla.turns.total")
	mismatches, _ := meter.Int64Counter("parla.mismatches.total")
	words, _ := meter.Int64Counter("parla.words.exported")

	return &Runner{
		cfg:             cfg,
		source:          source,
		recorder:        recorder,
		transcribe:      transcriber,
		segmenter:       segmenter,
		bus:             busClient,
		log:             log.With(slog.String("component", "session")),
		in:              bufio.NewScanner(in),
		out:             out,
		sessionID:       uuid.NewString(),
		scoreMode:       score.Mode(cfg.Score.Mode),
		tracer:          otel.Tracer("parla/session"),
		turnsTotal:      turns,
		mismatchesTotal: mismatches,
		wordsExported:   words,
	}
}

// SessionID identifies this run in bus events and the journal.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// Run executes the whole session. It returns early only when ctx is
// cancelled; collaborator failures never abort the session.
func (r *Runner) Run(ctx context.Context) error {
	turns := r.fetchTurns(ctx)
	r.log.Info("session starting",
		slog.String("session_id", r.sessionID),
		slog.Int("turns", len(turns)))

	for i, turn := range turns {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome := r.runTurn(ctx, i+1, turn)
		r.renderReport(outcome)
	}

	r.log.Info("session complete", slog.String("session_id", r.sessionID))
	return nil
}

// fetchTurns asks the dialogue source for the conversation, substituting the
// built-in fallback when the source fails or comes back empty.
func (r *Runner) fetchTurns(ctx context.Context) []dialogue.Turn {
	turns, err := r.source.Turns(ctx)
	if err != nil {
		r.log.Warn("dialogue source failed, using fallback conversation", slogError(err))
		return dialogue.FallbackTurns(r.cfg.Session.UserName)
	}
	if len(turns) == 0 {
		r.log.Warn("dialogue source returned no turns, using fallback conversation")
		return dialogue.FallbackTurns(r.cfg.Session.UserName)
	}
	return turns
}

func (r *Runner) runTurn(ctx context.Context, index int, turn dialogue.Turn) TurnOutcome {
	ctx, span := r.tracer.Start(ctx, "session.turn",
		trace.WithAttributes(attribute.Int("turn", index)))
	defer span.End()

	started := time.Now()
	outcome := TurnOutcome{Index: index, Turn: turn}
	r.publish(protocol.SubjectTurnStarted, protocol.TurnStarted{
		SessionID: r.sessionID, Turn: index, Timestamp: time.Now().UTC(),
	})

	r.transition(index, StatePromptShown)
	r.showPrompt(turn)

	r.transition(index, StateRecording)
	duration, err := score.EstimateDuration(turn.ExpectedResponse,
		r.cfg.Recorder.WordsPerSecond, r.cfg.Recorder.MinRecordDuration)
	if err != nil {
		r.log.Warn("duration estimate failed, using minimum", slogError(err))
		duration = r.cfg.Recorder.MinRecordDuration
	}
	outcome.Duration = duration
	buf := r.recordStage(ctx, duration)

	r.transition(index, StateTranscribing)
	outcome.Transcribed = r.transcribeStage(ctx, buf, index)
	timings := r.timingsStage(ctx, buf)

	r.transition(index, StateScoring)
	outcome.Score = score.Score(outcome.Transcribed, turn.ExpectedResponse, r.scoreMode)
	r.publish(protocol.SubjectTurnScore, protocol.TurnScore{
		SessionID:  r.sessionID,
		Turn:       index,
		Mode:       string(r.scoreMode),
		Compared:   len(outcome.Score.Tokens),
		Mismatches: len(outcome.Score.Mismatches),
		Perfect:    outcome.Score.Perfect(),
		Timestamp:  time.Now().UTC(),
	})

	r.transition(index, StateSegmenting)
	outcome.WordFiles, outcome.Skipped = r.segmentStage(buf, timings, index)

	r.transition(index, StateReported)
	r.turnsTotal.Add(ctx, 1)
	r.mismatchesTotal.Add(ctx, int64(len(outcome.Score.Mismatches)))
	r.wordsExported.Add(ctx, int64(len(outcome.WordFiles)))
	r.publish(protocol.SubjectTurnReport, protocol.TurnReport{
		SessionID:     r.sessionID,
		Turn:          index,
		State:         string(StateReported),
		ScoreMode:     string(r.scoreMode),
		Mismatches:    len(outcome.Score.Mismatches),
		Perfect:       outcome.Score.Perfect(),
		WordsExported: len(outcome.WordFiles),
		WordsSkipped:  outcome.Skipped,
		DurationSec:   time.Since(started).Seconds(),
		Timestamp:     time.Now().UTC(),
	})
	return outcome
}

func (r *Runner) recordStage(ctx context.Context, duration float64) audio.Buffer {
	buf, err := r.recorder.Record(ctx, duration)
	if err != nil {
		r.log.Warn("recording failed, continuing with empty audio", slogError(err))
		return audio.Buffer{SampleRate: r.cfg.Recorder.SampleRate, Channels: r.cfg.Recorder.Channels}
	}
	return buf
}

func (r *Runner) transcribeStage(ctx context.Context, buf audio.Buffer, index int) string {
	text, err := r.transcribe.Transcribe(ctx, buf)
	if err != nil {
		r.log.Warn("transcription failed, continuing with empty text", slogError(err))
		text = ""
	}
	r.publish(protocol.SubjectTurnTranscript, protocol.TurnTranscript{
		SessionID: r.sessionID,
		Turn:      index,
		Text:      text,
		Words:     len(strings.Fields(text)),
		Timestamp: time.Now().UTC(),
	})
	return text
}

func (r *Runner) timingsStage(ctx context.Context, buf audio.Buffer) []segment.WordTiming {
	timings, err := r.transcribe.TranscribeWords(ctx, buf)
	if err != nil {
		r.log.Warn("timed transcription failed, skipping word export", slogError(err))
		return nil
	}
	return timings
}

func (r *Runner) segmentStage(buf audio.Buffer, timings []segment.WordTiming, index int) ([]segment.WordFile, int) {
	files, skipped, err := r.segmenter.SegmentByWord(buf, timings, r.cfg.Segmenter.OutputDir)
	if err != nil {
		r.log.Warn("segmentation failed for turn", slogError(err))
		return nil, len(timings)
	}
	r.publish(protocol.SubjectTurnSegmented, protocol.TurnSegmented{
		SessionID: r.sessionID,
		Turn:      index,
		Exported:  len(files),
		Skipped:   skipped,
		OutputDir: r.cfg.Segmenter.OutputDir,
		Timestamp: time.Now().UTC(),
	})
	return files, skipped
}

func (r *Runner) transition(index int, s State) {
	r.log.Debug("turn state",
		slog.Int("turn", index), slog.String("state", string(s)))
}

// publish sends a bus event best effort. The pipeline never fails on it.
func (r *Runner) publish(subject string, msg any) {
	if r.bus == nil {
		return
	}
	if err := r.bus.PublishJSON(subject, msg); err != nil {
		r.log.Warn("failed to publish event",
			slog.String("subject", subject), slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
