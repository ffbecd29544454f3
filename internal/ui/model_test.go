package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/mixplay/internal/session"
)

func newTestModel(total time.Duration) (Model, *int) {
	calls := 0
	m := NewModel("/music/voice.wav", "/music/bed.mp3", "        Track 1  Track 2\nGain   x1   x0.5\n", total, func() { calls++ }, nil)
	return m, &calls
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func TestModelStopCancelsOnce(t *testing.T) {
	m, calls := newTestModel(0)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Error("stop should wait for the session instead of quitting")
	}
	if !m.Stopping || *calls != 1 {
		t.Fatalf("Stopping = %v, cancel calls = %d", m.Stopping, *calls)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if *calls != 1 {
		t.Errorf("cancel called %d times, want once", *calls)
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Errorf("view should show the stop in progress:\n%s", m.View())
	}
}

func TestModelRunningStartsClock(t *testing.T) {
	m, _ := newTestModel(0)

	m, _ = update(t, m, StateMsg{State: session.StateRunning})
	if m.StartTime.IsZero() {
		t.Fatal("StartTime should be set once running")
	}

	m, cmd := update(t, m, tickMsg(m.StartTime.Add(1500*time.Millisecond)))
	if m.Elapsed != 1500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 1.5s", m.Elapsed)
	}
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if !strings.Contains(m.View(), "Playing") {
		t.Errorf("view should show playback:\n%s", m.View())
	}
}

func TestModelSessionDoneQuits(t *testing.T) {
	tests := []struct {
		name string
		msg  SessionDoneMsg
		want string
	}{
		{"completed", SessionDoneMsg{Result: session.Result{State: session.StateCompleted}}, "Playback complete"},
		{"completed with warning", SessionDoneMsg{Result: session.Result{State: session.StateCompleted, Warning: session.ErrEngineFailed}}, "renderer: engine failed"},
		{"cancelled", SessionDoneMsg{Result: session.Result{State: session.StateCancelled}}, "Stopped"},
		{"failed", SessionDoneMsg{Result: session.Result{State: session.StateFailed}, Err: errors.Join(session.ErrEngineNotFound)}, "engine not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(0)
			m, cmd := update(t, m, tt.msg)

			if !m.Done {
				t.Error("model should be done")
			}
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
			if got := m.View(); !strings.Contains(got, tt.want) {
				t.Errorf("View() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestModelProgress(t *testing.T) {
	m, _ := newTestModel(0)
	if got := m.Progress(); got != -1 {
		t.Errorf("unknown length Progress() = %v, want -1", got)
	}

	m, _ = newTestModel(10 * time.Second)
	m.Elapsed = 2500 * time.Millisecond
	if got := m.Progress(); got != 0.25 {
		t.Errorf("Progress() = %v, want 0.25", got)
	}

	m.Elapsed = 30 * time.Second
	if got := m.Progress(); got != 1 {
		t.Errorf("Progress() past the end = %v, want 1", got)
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "░░░░░░░░░░ 0%"},
		{0.5, "█████░░░░░ 50%"},
		{1, "██████████ 100%"},
		{1.7, "██████████ 100%"},
		{-0.2, "░░░░░░░░░░ 0%"},
	}

	for _, tt := range tests {
		if got := renderProgressBar(tt.progress, 10); got != tt.want {
			t.Errorf("renderProgressBar(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{1400 * time.Millisecond, "0:01"},
		{75 * time.Second, "1:15"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{-time.Second, "0:00"},
	}

	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
