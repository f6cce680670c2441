package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

// execSource runs a command that prints the conversation as a JSON array of
// {"AI": ..., "User": ...} objects on stdout.
type execSource struct {
	cmd []string
	mu  sync.Mutex
}

func NewExecSource(command string) (Source, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse dialogue command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("dialogue command empty")
	}
	return &execSource{cmd: args}, nil
}

func (s *execSource) Turns(ctx context.Context) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.cmd[0]
	args := append([]string{}, s.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("dialogue exec command failed: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(output, &turns); err != nil {
		return nil, fmt.Errorf("decode dialogue exec response: %w", err)
	}
	return turns, nil
}
