package audio

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"
)

func toneBuffer(sampleRate int, seconds float64) Buffer {
	samples := int(float64(sampleRate) * seconds)
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return Buffer{PCM: pcm, SampleRate: sampleRate, Channels: 1}
}

func TestDuration(t *testing.T) {
	buf := toneBuffer(16000, 1.0)
	if got := buf.Duration(); got != 1.0 {
		t.Fatalf("duration = %v, want 1.0", got)
	}
	if got := (Buffer{}).Duration(); got != 0 {
		t.Fatalf("empty buffer duration = %v", got)
	}
}

func TestSlice(t *testing.T) {
	buf := toneBuffer(16000, 1.0)

	clip, err := buf.Slice(0.25, 0.75)
	if err != nil {
		t.Fatal(err)
	}
	if got := clip.Duration(); math.Abs(got-0.5) > 0.002 {
		t.Fatalf("slice duration = %v, want ~0.5", got)
	}

	// Out-of-range boundaries clamp to the recording.
	clip, err = buf.Slice(0.5, 9.0)
	if err != nil {
		t.Fatal(err)
	}
	if got := clip.Duration(); math.Abs(got-0.5) > 0.002 {
		t.Fatalf("clamped slice duration = %v, want ~0.5", got)
	}

	if _, err := buf.Slice(0.8, 0.2); err == nil {
		t.Fatal("expected error for inverted boundaries")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	buf := toneBuffer(16000, 0.5)
	path := filepath.Join(t.TempDir(), "tone.wav")

	if err := buf.WriteFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	decoded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if decoded.SampleRate != buf.SampleRate {
		t.Fatalf("sample rate = %d, want %d", decoded.SampleRate, buf.SampleRate)
	}
	if decoded.Channels != 1 {
		t.Fatalf("channels = %d, want 1", decoded.Channels)
	}
	if len(decoded.PCM) != len(buf.PCM) {
		t.Fatalf("pcm length = %d, want %d", len(decoded.PCM), len(buf.PCM))
	}
	for i := range buf.PCM {
		if decoded.PCM[i] != buf.PCM[i] {
			t.Fatalf("pcm differs at byte %d", i)
		}
	}
}
