package session

import (
	"context"
	"sync"
	"time"

	"github.com/decred/slog"
)

// DefaultGrace is how long engines get to exit after being asked to stop
const DefaultGrace = 2 * time.Second

// Options configures an Orchestrator
type Options struct {
	Grace    time.Duration // teardown window, DefaultGrace when zero
	Log      slog.Logger   // slog.Disabled when nil
	Observer Observer      // optional state transition callback
}

// Orchestrator wires a Renderer to a Sink and supervises one render session
type Orchestrator struct {
	renderer *Renderer
	sink     *Sink
	opts     Options
	onStop   func(*process)

	mu      sync.Mutex
	session *Session
}

// NewOrchestrator creates an orchestrator for the given engines
func NewOrchestrator(r *Renderer, s *Sink, opts Options) *Orchestrator {
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.Log == nil {
		opts.Log = slog.Disabled
	}
	return &Orchestrator{renderer: r, sink: s, opts: opts}
}

// Run plays job until the sink finishes, ctx is cancelled, or an engine fails.
// Cancellation is a normal outcome: it returns StateCancelled with a nil error.
// An orchestrator runs a single session; further calls return ErrSessionActive.
func (o *Orchestrator) Run(ctx context.Context, job Job) (Result, error) {
	o.mu.Lock()
	if o.session != nil {
		o.mu.Unlock()
		return Result{State: StateFailed, RendererExit: -1, SinkExit: -1}, ErrSessionActive
	}
	sess := newSession(o.renderer, o.sink, o.opts.Grace, o.opts.Log, o.opts.Observer)
	sess.onStop = o.onStop
	o.session = sess
	o.mu.Unlock()

	o.opts.Log.Infof("rendering %s + %s", job.Primary, job.Secondary)
	o.opts.Log.Debugf("filter graph: %s", job.Graph.Filter)
	return sess.run(ctx, job)
}

// State returns the state of the session, StateCreated before Run
func (o *Orchestrator) State() State {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess == nil {
		return StateCreated
	}
	return sess.State()
}
