package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/parlalabs/parla-core/internal/audio"
	"github.com/parlalabs/parla-core/internal/config"
	"github.com/parlalabs/parla-core/internal/segment"
)

// execTranscriber shells out to a recognizer command (a Vosk or whisper
// wrapper) that reads a WAV file and prints a JSON result on stdout:
//
//	{"text": "..."}                                      plain mode
//	{"result": [{"word": "...", "start": s, "end": s}]}  --words mode
type execTranscriber struct {
	cmd []string
	cfg config.STTConfig
	mu  sync.Mutex
}

type execResult struct {
	Text   string               `json:"text"`
	Result []segment.WordTiming `json:"result"`
}

func NewExecTranscriber(cfg config.STTConfig) (Transcriber, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	return &execTranscriber{cmd: args, cfg: cfg}, nil
}

func (t *execTranscriber) Transcribe(ctx context.Context, buf audio.Buffer) (string, error) {
	res, err := t.run(ctx, buf, false)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (t *execTranscriber) TranscribeWords(ctx context.Context, buf audio.Buffer) ([]segment.WordTiming, error) {
	res, err := t.run(ctx, buf, true)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (t *execTranscriber) run(ctx context.Context, buf audio.Buffer, words bool) (execResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.CreateTemp(os.TempDir(), "parla_stt_*.wav")
	if err != nil {
		return execResult{}, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	file.Close()

	if err := buf.WriteFile(file.Name()); err != nil {
		return execResult{}, err
	}

	args := append([]string{}, t.cmd...)
	base := args[0]
	cmdArgs := args[1:]
	cmdArgs = append(cmdArgs, "--audio", file.Name())
	if t.cfg.ModelPath != "" {
		cmdArgs = append(cmdArgs, "--model", t.cfg.ModelPath)
	}
	if t.cfg.Language != "" {
		cmdArgs = append(cmdArgs, "--language", t.cfg.Language)
	}
	if words {
		cmdArgs = append(cmdArgs, "--words")
	}

	command := exec.CommandContext(ctx, base, cmdArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return execResult{}, fmt.Errorf("stt command failed: %w: %s", err, stderr.String())
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return execResult{}, fmt.Errorf("decode stt response: %w", err)
	}
	return resp, nil
}
