package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bytesPerSample = 2 // 16-bit signed PCM

// Buffer holds a mono 16-bit little-endian PCM recording.
type Buffer struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	samples := len(b.PCM) / bytesPerSample / b.Channels
	return float64(samples) / float64(b.SampleRate)
}

// Slice returns the audio between start and end seconds. Boundaries are
// resolved at millisecond resolution and clamped to the buffer; start > end
// is an error.
func (b Buffer) Slice(start, end float64) (Buffer, error) {
	if start > end {
		return Buffer{}, fmt.Errorf("slice start %.3fs after end %.3fs", start, end)
	}
	dur := b.Duration()
	start = clamp(start, 0, dur)
	end = clamp(end, 0, dur)

	startMS := int(start * 1000)
	endMS := int(end * 1000)
	frame := b.Channels * bytesPerSample
	lo := b.SampleRate * startMS / 1000 * frame
	hi := b.SampleRate * endMS / 1000 * frame
	if hi > len(b.PCM) {
		hi = len(b.PCM)
	}
	if lo > hi {
		lo = hi
	}
	return Buffer{
		PCM:        append([]byte(nil), b.PCM[lo:hi]...),
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// EncodeWAV writes the buffer as a 16-bit PCM WAV stream.
func (b Buffer) EncodeWAV(w io.WriteSeeker) error {
	if len(b.PCM)%bytesPerSample != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	buffer := &gaudio.IntBuffer{Format: &gaudio.Format{NumChannels: b.Channels, SampleRate: b.SampleRate}}
	samples := make([]int, len(b.PCM)/bytesPerSample)
	for i := 0; i < len(samples); i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(b.PCM[i*bytesPerSample:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(w, b.SampleRate, 16, b.Channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// DecodeWAV reads a 16-bit PCM WAV stream into a Buffer.
func DecodeWAV(r io.ReadSeeker) (Buffer, error) {
	dec := wav.NewDecoder(r)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("decode wav: %w", err)
	}
	if pcm == nil || pcm.Format == nil {
		return Buffer{}, fmt.Errorf("decode wav: empty stream")
	}
	raw := make([]byte, len(pcm.Data)*bytesPerSample)
	for i, sample := range pcm.Data {
		binary.LittleEndian.PutUint16(raw[i*bytesPerSample:], uint16(int16(sample)))
	}
	return Buffer{
		PCM:        raw,
		SampleRate: pcm.Format.SampleRate,
		Channels:   pcm.Format.NumChannels,
	}, nil
}

// WriteFile exports the buffer as a WAV file.
func (b Buffer) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()
	if err := b.EncodeWAV(file); err != nil {
		return err
	}
	return file.Close()
}

// ReadFile loads a WAV file into a Buffer.
func ReadFile(path string) (Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return DecodeWAV(file)
}
