package stt

import (
	"context"

	"github.com/parlalabs/parla-core/internal/audio"
	"github.com/parlalabs/parla-core/internal/segment"
)

// Transcriber abstracts STT backends. Both calls operate on a complete
// recording; streaming recognition is out of scope.
type Transcriber interface {
	// Transcribe returns the plain text heard in the recording.
	Transcribe(ctx context.Context, buf audio.Buffer) (string, error)
	// TranscribeWords returns word-level timings in utterance order. The
	// sequence may contain recognition errors and extra or missing words.
	TranscribeWords(ctx context.Context, buf audio.Buffer) ([]segment.WordTiming, error)
}
