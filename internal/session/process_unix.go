//go:build unix

package session

import (
	"os/exec"
	"syscall"
)

// detach moves an engine into its own process group, so a terminal interrupt
// reaches mixplay alone and teardown order is decided by the session. If
// mixplay itself is killed outright the engines are not signalled; the sink
// then sees EOF once the renderer is gone, or the renderer sees EPIPE.
func detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}
