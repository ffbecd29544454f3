package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/armon/circbuf"
)

// stderrTailSize is how much of each engine's stderr is kept for error reports
const (
	stderrTailSize  = 4096
	stderrWaitDelay = 500 * time.Millisecond
)

// CommandFunc builds the command for an engine binary. Tests replace it to
// run fake engines; production code uses exec.CommandContext.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// process is a started engine whose exit is awaited in the background
// from the moment it starts
type process struct {
	role   string
	cmd    *exec.Cmd
	stderr *stderrTail
	done   chan struct{}
	err    error // result of cmd.Wait, valid once done is closed
}

// startProcess starts cmd and begins awaiting its exit. Any failure to launch
// is reported as ErrEngineNotFound: the binary could not be run.
func startProcess(role string, cmd *exec.Cmd) (*process, error) {
	p := &process{
		role:   role,
		cmd:    cmd,
		stderr: newStderrTail(stderrTailSize),
		done:   make(chan struct{}),
	}
	cmd.Stderr = p.stderr
	// Bound how long Wait blocks on stderr if a grandchild keeps it open
	cmd.WaitDelay = stderrWaitDelay
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &EngineError{
			Role:     role,
			Binary:   cmd.Path,
			ExitCode: -1,
			Err:      fmt.Errorf("%w: %w", ErrEngineNotFound, err),
		}
	}

	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// exited reports whether the process has been reaped
func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// exitCode returns the exit status, or -1 if the process is still running or
// was terminated by a signal
func (p *process) exitCode() int {
	if !p.exited() {
		return -1
	}
	if p.err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(p.err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// failure returns an EngineError wrapping ErrEngineFailed, or nil if the
// process exited cleanly
func (p *process) failure() *EngineError {
	if p.exitCode() == 0 {
		return nil
	}
	return &EngineError{
		Role:     p.role,
		Binary:   p.cmd.Path,
		ExitCode: p.exitCode(),
		Stderr:   p.stderr.String(),
		Err:      ErrEngineFailed,
	}
}

// terminate asks the process to stop. Platforms without SIGTERM get a kill.
func (p *process) terminate() {
	if p.exited() || p.cmd.Process == nil {
		return
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		_ = p.cmd.Process.Kill()
	}
}

// awaitUntil waits for the process to exit before deadline. An unresponsive
// process is killed and reported as ErrTeardownTimeout.
func (p *process) awaitUntil(deadline time.Time) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	_ = p.cmd.Process.Kill()
	<-p.done
	return &EngineError{
		Role:     p.role,
		Binary:   p.cmd.Path,
		ExitCode: -1,
		Stderr:   p.stderr.String(),
		Err:      ErrTeardownTimeout,
	}
}

// stderrTail keeps the last bytes an engine wrote to stderr. exec.Cmd copies
// stderr from its own goroutine while error reports read it, so access to the
// ring buffer is serialised.
type stderrTail struct {
	mu  sync.Mutex
	buf *circbuf.Buffer
}

func newStderrTail(size int64) *stderrTail {
	buf, err := circbuf.NewBuffer(size)
	if err != nil {
		// Only a non-positive size is rejected
		panic(err)
	}
	return &stderrTail{buf: buf}
}

func (t *stderrTail) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Write(b)
}

func (t *stderrTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
