package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/decred/slog"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a render session
type State int

const (
	StateCreated State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions can follow
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Result summarises a finished session
type Result struct {
	State        State
	RendererExit int           // -1 when unknown or signalled
	SinkExit     int           // -1 when unknown or signalled
	Warning      error         // set when Completed despite a renderer failure
	Elapsed      time.Duration // time spent Running
}

// Observer is notified of every state transition
type Observer func(State)

// Session owns both engine processes and the pipe joining them.
// It runs at most once.
type Session struct {
	renderer *Renderer
	sink     *Sink
	grace    time.Duration
	log      slog.Logger
	observe  Observer
	onStop   func(*process) // sees every stop request, in order

	mu    sync.Mutex
	state State

	pipeOnce sync.Once
	pr, pw   *os.File

	started time.Time
}

func newSession(r *Renderer, s *Sink, grace time.Duration, log slog.Logger, observe Observer) *Session {
	return &Session{
		renderer: r,
		sink:     s,
		grace:    grace,
		log:      log,
		observe:  observe,
		state:    StateCreated,
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	s.log.Debugf("session %s -> %s", from, to)
	if to == StateRunning {
		s.started = time.Now()
	}
	if s.observe != nil {
		s.observe(to)
	}
}

// closePipe closes the session's ends of the pipe. Safe to call repeatedly.
func (s *Session) closePipe() {
	s.pipeOnce.Do(func() {
		if s.pr != nil {
			_ = s.pr.Close()
		}
		if s.pw != nil {
			_ = s.pw.Close()
		}
	})
}

// run drives the session from Created to a terminal state.
// The renderer's stdout is the write end of one OS pipe and the sink's stdin
// is its read end; bytes never pass through this process.
func (s *Session) run(ctx context.Context, job Job) (Result, error) {
	defer s.closePipe()

	pr, pw, err := os.Pipe()
	if err != nil {
		return s.fail(nil, nil, fmt.Errorf("create pipe: %w", err))
	}
	s.pr, s.pw = pr, pw

	rend, err := s.renderer.start(job, pw)
	if err != nil {
		// The sink is never started against a stream that cannot deliver
		return s.fail(nil, nil, err)
	}
	s.log.Debugf("renderer started: pid %d", rend.cmd.Process.Pid)
	// The child holds its own copy; ours would keep the sink from seeing EOF
	_ = pw.Close()

	play, err := s.sink.start(pr)
	if err != nil {
		s.stop(rend)
		if terr := rend.awaitUntil(time.Now().Add(s.grace)); terr != nil {
			s.log.Warnf("%v", terr)
		}
		return s.fail(rend, nil, err)
	}
	s.log.Debugf("sink started: pid %d", play.cmd.Process.Pid)
	_ = pr.Close()

	s.transition(StateRunning)
	return s.supervise(ctx, rend, play)
}

// supervise awaits both processes concurrently. Awaiting them one after the
// other can deadlock once the pipe buffer is full.
func (s *Session) supervise(ctx context.Context, rend, play *process) (Result, error) {
	rendDone := rend.done

wait:
	for {
		select {
		case <-ctx.Done():
			return s.cancel(rend, play)

		case <-rendDone:
			rendDone = nil
			s.log.Debugf("renderer exited with code %d", rend.exitCode())

		case <-play.done:
			break wait
		}
	}
	s.log.Debugf("sink exited with code %d", play.exitCode())

	// Cancellation can land while the sink is exiting
	if ctx.Err() != nil {
		return s.cancel(rend, play)
	}

	if play.exitCode() == 0 {
		return s.complete(rend, play)
	}

	// Sink failed. Unless the renderer had already finished cleanly, it
	// either lost its reader mid-stream or failed first; both are reported.
	sinkErr := play.failure()
	if err := s.settle(rend); err != nil {
		return s.fail(rend, play, errors.Join(sinkErr, err))
	}

	rendErr := rend.failure()
	if rendErr == nil {
		return s.fail(rend, play, sinkErr)
	}
	return s.fail(rend, play, errors.Join(sinkErr, rendErr, ErrPipeBroken))
}

// complete handles a clean sink exit. A renderer failure at this point is
// only a warning: the sink already played every byte that was produced.
func (s *Session) complete(rend, play *process) (Result, error) {
	if err := s.settle(rend); err != nil {
		return s.fail(rend, play, err)
	}

	res := s.result(StateCompleted, rend, play)
	if rendErr := rend.failure(); rendErr != nil {
		res.Warning = rendErr
		s.log.Warnf("playback completed but %v", rendErr)
	}
	s.transition(StateCompleted)
	return res, nil
}

// settle gives the renderer one grace window to notice the closed pipe,
// then asks it to stop
func (s *Session) settle(rend *process) error {
	timer := time.NewTimer(s.grace)
	defer timer.Stop()

	select {
	case <-rend.done:
		return nil
	case <-timer.C:
	}
	s.log.Debugf("renderer still running after sink exit, terminating")
	s.stop(rend)
	return rend.awaitUntil(time.Now().Add(s.grace))
}

// cancel stops the sink first, since the renderer's writes block until the
// sink drains, then the renderer. Both are awaited within one grace window.
func (s *Session) cancel(rend, play *process) (Result, error) {
	s.log.Infof("interrupt received, stopping playback")

	s.stop(play)
	s.stop(rend)

	deadline := time.Now().Add(s.grace)
	var g errgroup.Group
	g.Go(func() error { return play.awaitUntil(deadline) })
	g.Go(func() error { return rend.awaitUntil(deadline) })
	if err := g.Wait(); err != nil {
		return s.fail(rend, play, err)
	}

	res := s.result(StateCancelled, rend, play)
	s.transition(StateCancelled)
	return res, nil
}

// stop asks p to exit without waiting for it
func (s *Session) stop(p *process) {
	if s.onStop != nil {
		s.onStop(p)
	}
	p.terminate()
}

func (s *Session) fail(rend, play *process, err error) (Result, error) {
	s.closePipe()
	res := s.result(StateFailed, rend, play)
	s.log.Errorf("session failed: %v", err)
	s.transition(StateFailed)
	return res, err
}

func (s *Session) result(state State, rend, play *process) Result {
	res := Result{State: state, RendererExit: -1, SinkExit: -1}
	if rend != nil {
		res.RendererExit = rend.exitCode()
	}
	if play != nil {
		res.SinkExit = play.exitCode()
	}
	if !s.started.IsZero() {
		res.Elapsed = time.Since(s.started)
	}
	return res
}
