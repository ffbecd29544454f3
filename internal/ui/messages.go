package ui

import (
	"time"

	"github.com/linuxmatters/mixplay/internal/session"
)

// StateMsg reports a session state transition
type StateMsg struct {
	State session.State
}

// SessionDoneMsg carries the outcome of the session once Run returns
type SessionDoneMsg struct {
	Result session.Result
	Err    error
}

// tickMsg drives the spinner and the elapsed clock
type tickMsg time.Time
