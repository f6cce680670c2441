// Package segment slices a recording into one WAV clip per transcribed word.
package segment

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parlalabs/parla-core/internal/audio"
)

// WordTiming is a transcribed word with its offsets in seconds within the
// recording. The sequence reflects utterance order, not expected text.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// WordFile is one exported per-word clip.
type WordFile struct {
	Index int // 1-based position in the timing sequence
	Word  string
	Path  string
}

// Options control segmentation side effects.
type Options struct {
	// ClearExisting recursively deletes the output directory before export.
	// Callers relying on prior contents must disable it explicitly.
	ClearExisting bool
}

// DefaultOptions matches the historical destructive-reset behavior.
func DefaultOptions() Options {
	return Options{ClearExisting: true}
}

type Segmenter struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Segmenter {
	return &Segmenter{
		opts: opts,
		log:  log.With(slog.String("component", "segmenter")),
	}
}

// SegmentByWord resets outDir, then exports one clip per timing entry, named
// word_<1-based-index>_<word>.wav. Out-of-range boundaries are clamped to the
// recording; a word with inverted timings or a failed export is skipped and
// counted, never aborting the batch. The directory reset happens even when
// words is empty.
func (s *Segmenter) SegmentByWord(buf audio.Buffer, words []WordTiming, outDir string) ([]WordFile, int, error) {
	if err := s.resetDir(outDir); err != nil {
		return nil, 0, err
	}

	files := make([]WordFile, 0, len(words))
	skipped := 0
	for i, word := range words {
		index := i + 1
		clip, err := buf.Slice(word.Start, word.End)
		if err != nil {
			s.log.Warn("skipping word with invalid timing",
				slog.Int("index", index),
				slog.String("word", word.Word),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		path := filepath.Join(outDir, fmt.Sprintf("word_%d_%s.wav", index, word.Word))
		if err := clip.WriteFile(path); err != nil {
			s.log.Warn("skipping word after failed export",
				slog.Int("index", index),
				slog.String("word", word.Word),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		files = append(files, WordFile{Index: index, Word: word.Word, Path: path})
	}
	return files, skipped, nil
}

func (s *Segmenter) resetDir(outDir string) error {
	if outDir == "" {
		return fmt.Errorf("output directory not configured")
	}
	if s.opts.ClearExisting {
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("clear output dir: %w", err)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
