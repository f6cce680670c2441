package record

import (
	"context"

	"github.com/parlalabs/parla-core/internal/audio"
)

// Recorder captures a fixed-duration mono recording from the microphone.
// The call blocks until the requested duration has elapsed.
type Recorder interface {
	Record(ctx context.Context, seconds float64) (audio.Buffer, error)
}
