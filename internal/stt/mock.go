package stt

import (
	"context"
	"strings"

	"github.com/parlalabs/parla-core/internal/audio"
	"github.com/parlalabs/parla-core/internal/segment"
)

// mockTranscriber returns a fixed phrase spread evenly across the recording,
// for development without a speech model.
type mockTranscriber struct {
	phrase string
}

func NewMockTranscriber(phrase string) Transcriber {
	if phrase == "" {
		phrase = "hello there"
	}
	return &mockTranscriber{phrase: phrase}
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ audio.Buffer) (string, error) {
	return m.phrase, nil
}

func (m *mockTranscriber) TranscribeWords(_ context.Context, buf audio.Buffer) ([]segment.WordTiming, error) {
	words := strings.Fields(m.phrase)
	if len(words) == 0 {
		return nil, nil
	}
	dur := buf.Duration()
	step := dur / float64(len(words))
	timings := make([]segment.WordTiming, len(words))
	for i, w := range words {
		timings[i] = segment.WordTiming{
			Word:  w,
			Start: float64(i) * step,
			End:   float64(i+1) * step,
		}
	}
	return timings, nil
}
