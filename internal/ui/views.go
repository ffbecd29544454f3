package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/mixplay/internal/session"
)

var (
	accentColor = lipgloss.Color("#2E86AB")
	okColor     = lipgloss.Color("#00AA00")
	warnColor   = lipgloss.Color("#FFA500")
	failColor   = lipgloss.Color("#D7263D")
	mutedColor  = lipgloss.Color("#888888")
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const boxWidth = 64

// renderSessionView renders the live view
func renderSessionView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	if m.Stages != "" {
		b.WriteString(renderStages(m.Stages))
		b.WriteString("\n")
	}

	b.WriteString(renderStatus(m))
	b.WriteString("\n")

	hint := "q to stop"
	if m.Stopping {
		hint = "stopping…"
	}
	b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render(hint))
	b.WriteString("\n")

	return b.String()
}

// renderHeader renders the title and both sources
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("Mixplay 🎚 - Mix Preview")

	label := lipgloss.NewStyle().Foreground(mutedColor)
	sources := fmt.Sprintf("%s %s\n%s %s",
		label.Render("Track 1:"), filepath.Base(m.Primary),
		label.Render("Track 2:"), filepath.Base(m.Secondary))

	return title + "\n" + sources
}

// renderStages boxes the stage table
func renderStages(table string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Render(strings.TrimRight(table, "\n"))
}

// renderStatus renders the state line, clock and progress bar
func renderStatus(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(boxWidth)

	var content strings.Builder

	state := "Starting engines"
	switch {
	case m.Stopping:
		state = "Stopping"
	case m.State == session.StateRunning:
		state = "Playing"
	}
	spinner := lipgloss.NewStyle().Foreground(warnColor).Render(spinnerFrames[m.frame%len(spinnerFrames)])
	fmt.Fprintf(&content, "%s %s\n", spinner, state)

	if p := m.Progress(); p >= 0 {
		content.WriteString(renderProgressBar(p, 40))
		fmt.Fprintf(&content, "\n⏱  %s / %s", formatElapsed(m.Elapsed), formatElapsed(m.Total))
	} else {
		fmt.Fprintf(&content, "⏱  %s", formatElapsed(m.Elapsed))
	}

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar for a fraction in [0, 1]
func renderProgressBar(progress float64, width int) string {
	progress = max(0, min(progress, 1))
	filled := int(progress * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

// renderSummary renders the final line after the session ends
func renderSummary(m Model) string {
	var icon, text string
	var color lipgloss.Color

	switch m.Result.State {
	case session.StateCompleted:
		icon, color, text = "✓", okColor, "Playback complete"
		if m.Result.Warning != nil {
			icon, color = "!", warnColor
			text += fmt.Sprintf(" (renderer: %v)", m.Result.Warning)
		}
	case session.StateCancelled:
		icon, color, text = "■", mutedColor, "Stopped"
	default:
		icon, color, text = "✗", failColor, "Playback failed"
		if m.Err != nil {
			text += ": " + describeFailure(m.Err)
		}
	}

	styled := lipgloss.NewStyle().Bold(true).Foreground(color)
	return fmt.Sprintf("%s %s after %s\n", styled.Render(icon), text, formatElapsed(m.Elapsed))
}

// describeFailure puts the error class in front of the engine detail
func describeFailure(err error) string {
	switch {
	case errors.Is(err, session.ErrEngineNotFound):
		return "engine not found: " + err.Error()
	case errors.Is(err, session.ErrTeardownTimeout):
		return "engine would not stop: " + err.Error()
	}
	return err.Error()
}

// formatElapsed renders a duration as m:ss, or h:mm:ss past the hour
func formatElapsed(d time.Duration) string {
	d = max(d, 0).Round(time.Second)
	h := int(d / time.Hour)
	mins := int(d/time.Minute) % 60
	secs := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}
