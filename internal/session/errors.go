package session

import (
	"errors"
	"fmt"
	"strings"
)

// Runtime errors. Use errors.Is against these; the concrete error is usually
// an *EngineError naming the collaborator.
var (
	ErrEngineNotFound  = errors.New("engine not found")
	ErrEngineFailed    = errors.New("engine failed")
	ErrPipeBroken      = errors.New("pipe broken")
	ErrTeardownTimeout = errors.New("engine did not exit within the grace window")
	ErrSessionActive   = errors.New("orchestrator already ran a session")
)

// Engine roles
const (
	RoleRenderer = "renderer"
	RoleSink     = "sink"
	RoleProbe    = "probe"
)

// EngineError reports a failure of one external engine process
type EngineError struct {
	Role     string // RoleRenderer, RoleSink or RoleProbe
	Binary   string
	ExitCode int    // -1 when the process never ran or was killed by a signal
	Stderr   string // tail of the engine's stderr
	Err      error
}

func (e *EngineError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s): %v", e.Role, e.Binary, e.Err)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&sb, " (exit code %d)", e.ExitCode)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&sb, ": %s", lastLine(msg))
	}
	return sb.String()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// lastLine returns the final line of engine output, which is where ffmpeg
// puts the fatal message
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
