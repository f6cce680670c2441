package stt

import (
	"context"
	"testing"

	"github.com/parlalabs/parla-core/internal/audio"
)

func TestMockTranscriberTimingsCoverRecording(t *testing.T) {
	m := NewMockTranscriber("hi there")
	buf := audio.Buffer{PCM: make([]byte, 32000), SampleRate: 16000, Channels: 1} // 1 second

	text, err := m.Transcribe(context.Background(), buf)
	if err != nil {
		t.Fatal(err)
	}
	if text != "hi there" {
		t.Fatalf("text = %q", text)
	}

	timings, err := m.TranscribeWords(context.Background(), buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(timings) != 2 {
		t.Fatalf("expected 2 timings, got %d", len(timings))
	}
	if timings[0].Start != 0 || timings[0].End != 0.5 {
		t.Fatalf("first timing = %+v", timings[0])
	}
	if timings[1].Start != 0.5 || timings[1].End != 1.0 {
		t.Fatalf("second timing = %+v", timings[1])
	}
	for i := 1; i < len(timings); i++ {
		if timings[i].Start < timings[i-1].Start {
			t.Fatal("timings out of order")
		}
	}
}
