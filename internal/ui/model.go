// Package ui provides the Bubbletea terminal user interface for mixplay
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/decred/slog"

	"github.com/linuxmatters/mixplay/internal/session"
)

// tickInterval is the refresh rate of the spinner and clock
const tickInterval = 100 * time.Millisecond

// Model is the Bubbletea model for a preview session
type Model struct {
	Primary   string
	Secondary string
	Stages    string        // pre-rendered stage table
	Total     time.Duration // expected session length, 0 when unknown

	State     session.State
	StartTime time.Time // when the session reached Running
	Elapsed   time.Duration
	Stopping  bool
	Done      bool
	Result    session.Result
	Err       error

	frame  int
	cancel func()
	log    slog.Logger

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates the model for one session. cancel is called once when the
// user asks to stop; the model then waits for SessionDoneMsg before quitting.
func NewModel(primary, secondary, stages string, total time.Duration, cancel func(), log slog.Logger) Model {
	if log == nil {
		log = slog.Disabled
	}
	return Model{
		Primary:   primary,
		Secondary: secondary,
		Stages:    stages,
		Total:     total,
		State:     session.StateCreated,
		cancel:    cancel,
		log:       log,
	}
}

// Init starts the clock
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.Done {
				return m, tea.Quit
			}
			if !m.Stopping {
				m.log.Debugf("stop requested from keyboard")
				m.Stopping = true
				if m.cancel != nil {
					m.cancel()
				}
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StateMsg:
		m.log.Debugf("ui: state %s", msg.State)
		m.State = msg.State
		if msg.State == session.StateRunning && m.StartTime.IsZero() {
			m.StartTime = time.Now()
		}

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.frame++
		if !m.StartTime.IsZero() {
			m.Elapsed = time.Time(msg).Sub(m.StartTime)
		}
		return m, tick()

	case SessionDoneMsg:
		m.Done = true
		m.Result = msg.Result
		m.Err = msg.Err
		m.State = msg.Result.State
		if msg.Result.Elapsed > 0 {
			m.Elapsed = msg.Result.Elapsed
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderSummary(m)
	}
	return renderSessionView(m)
}

// Progress returns the played fraction of Total, or -1 when the length is unknown
func (m Model) Progress() float64 {
	if m.Total <= 0 {
		return -1
	}
	return min(float64(m.Elapsed)/float64(m.Total), 1)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
