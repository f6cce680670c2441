package record

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/parlalabs/parla-core/internal/audio"
	"github.com/parlalabs/parla-core/internal/config"
)

// execRecorder shells out to a capture command (arecord, sox, ffmpeg) that
// records for --duration seconds at --rate into the WAV file named by its
// final argument.
type execRecorder struct {
	cmd []string
	cfg config.RecorderConfig
	mu  sync.Mutex
}

func NewExecRecorder(cfg config.RecorderConfig) (Recorder, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse recorder command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("recorder command is empty")
	}
	return &execRecorder{cmd: args, cfg: cfg}, nil
}

func (r *execRecorder) Record(ctx context.Context, seconds float64) (audio.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.CreateTemp(os.TempDir(), "parla_rec_*.wav")
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	file.Close()

	args := append([]string{}, r.cmd...)
	base := args[0]
	cmdArgs := args[1:]
	cmdArgs = append(cmdArgs,
		"--duration", strconv.FormatFloat(seconds, 'f', 2, 64),
		"--rate", strconv.Itoa(r.cfg.SampleRate),
		file.Name(),
	)

	command := exec.CommandContext(ctx, base, cmdArgs...)
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return audio.Buffer{}, fmt.Errorf("recorder command failed: %w: %s", err, stderr.String())
	}

	buf, err := audio.ReadFile(file.Name())
	if err != nil {
		return audio.Buffer{}, err
	}
	if buf.SampleRate != r.cfg.SampleRate {
		return audio.Buffer{}, fmt.Errorf("recorder produced sample rate %d, want %d", buf.SampleRate, r.cfg.SampleRate)
	}
	return buf, nil
}
