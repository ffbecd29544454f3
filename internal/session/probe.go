package session

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Probe measures source durations with ffprobe. The mixer uses them to end
// fade-outs at the end of each track.
type Probe struct {
	Binary  string // default "ffprobe"
	Timeout time.Duration
	Command CommandFunc
}

// NewProbe returns a Probe for the given binary with a 10 second timeout
func NewProbe(binary string) *Probe {
	return &Probe{
		Binary:  binary,
		Timeout: 10 * time.Second,
		Command: exec.CommandContext,
	}
}

// Duration returns the container duration of source
func (p *Probe) Duration(ctx context.Context, source string) (time.Duration, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	command := p.Command
	if command == nil {
		command = exec.CommandContext
	}
	cmd := command(ctx, p.Binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		source,
	)
	stderr := newStderrTail(stderrTailSize)
	cmd.Stderr = stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		code := -1
		kind := ErrEngineNotFound
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
			kind = ErrEngineFailed
		}
		return 0, &EngineError{
			Role:     RoleProbe,
			Binary:   cmd.Path,
			ExitCode: code,
			Stderr:   stderr.String(),
			Err:      fmt.Errorf("%w: %w", kind, err),
		}
	}

	// Streams without a container duration report "N/A"
	value := strings.TrimSpace(string(out))
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("probe %s: no duration reported (%q)", source, value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
