package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/mixplay/internal/cli"
	"github.com/linuxmatters/mixplay/internal/logging"
	"github.com/linuxmatters/mixplay/internal/session"
	"github.com/linuxmatters/mixplay/internal/ui"
)

// player runs one preview session in either output mode
type player struct {
	renderer *session.Renderer
	sink     *session.Sink
	grace    time.Duration
	logs     *logging.Loggers
	job      session.Job
	stages   string
	total    time.Duration
}

type outcome struct {
	result session.Result
	err    error
}

func (p player) orchestrator(observe session.Observer) *session.Orchestrator {
	return session.NewOrchestrator(p.renderer, p.sink, session.Options{
		Grace:    p.grace,
		Log:      p.logs.Session,
		Observer: observe,
	})
}

// playPlain prints the stage table, plays, and reports the outcome on the
// terminal. A terminal interrupt cancels the session through ctx.
func (p player) playPlain(ctx context.Context) int {
	fmt.Print(p.stages)
	fmt.Println()

	orch := p.orchestrator(func(s session.State) {
		p.logs.Main.Infof("session %s", s)
	})
	res, err := orch.Run(ctx, p.job)
	return report(res, err)
}

// playInteractive runs the session behind the live view. Quitting the view
// cancels the session, and the view stays up until the session has ended.
func (p player) playInteractive(ctx context.Context) int {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(p.job.Primary, p.job.Secondary, p.stages, p.total, cancel, p.logs.Main)
	prog := tea.NewProgram(model, tea.WithContext(ctx))

	orch := p.orchestrator(func(s session.State) {
		prog.Send(ui.StateMsg{State: s})
	})

	done := make(chan outcome, 1)
	go func() {
		res, err := orch.Run(runCtx, p.job)
		done <- outcome{result: res, err: err}
		prog.Send(ui.SessionDoneMsg{Result: res, Err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		p.logs.Main.Debugf("ui stopped: %v", err)
	}

	// The view can end before the session does, on a signal for example
	cancel()
	out := <-done

	if m, ok := final.(ui.Model); !ok || !m.Done {
		return report(out.result, out.err)
	}
	return exitCode(out.result, out.err)
}

// report prints the outcome in plain mode and returns the exit code
func report(res session.Result, err error) int {
	switch res.State {
	case session.StateCompleted:
		if res.Warning != nil {
			cli.PrintWarning(fmt.Sprintf("playback completed but the renderer failed: %v", res.Warning))
		}
		cli.PrintKeyValue("Played", res.Elapsed.Round(time.Millisecond).String())
	case session.StateCancelled:
		cli.PrintKeyValue("Stopped", res.Elapsed.Round(time.Millisecond).String())
	default:
		if err != nil {
			cli.PrintError(err.Error())
		}
	}
	return exitCode(res, err)
}

func exitCode(res session.Result, err error) int {
	switch {
	case err != nil:
		return exitFailed
	case res.State == session.StateCompleted:
		return exitOK
	case res.State == session.StateCancelled:
		return exitCancelled
	}
	return exitFailed
}
