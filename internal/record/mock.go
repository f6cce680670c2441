package record

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/parlalabs/parla-core/internal/audio"
)

// mockRecorder produces a low sine tone of the requested duration without
// touching any capture device.
type mockRecorder struct {
	sampleRate int
}

func NewMockRecorder(sampleRate int) Recorder {
	return &mockRecorder{sampleRate: sampleRate}
}

func (m *mockRecorder) Record(ctx context.Context, seconds float64) (audio.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return audio.Buffer{}, err
	}
	samples := int(float64(m.sampleRate) * seconds)
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(3000 * math.Sin(2*math.Pi*220*float64(i)/float64(m.sampleRate)))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return audio.Buffer{PCM: pcm, SampleRate: m.sampleRate, Channels: 1}, nil
}
