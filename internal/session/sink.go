package session

import (
	"context"
	"os"
	"os/exec"
)

// Sink runs the playback engine (ffplay) reading the stream from stdin.
// Its only output is sound and an exit code.
type Sink struct {
	Binary   string // default "ffplay"
	LogLevel string
	Command  CommandFunc
}

// NewSink returns a Sink for the given binary with default settings
func NewSink(binary string) *Sink {
	return &Sink{
		Binary:   binary,
		LogLevel: "error",
		Command:  exec.CommandContext,
	}
}

// Args builds the playback argument list:
// - no display window (-nodisp)
// - exit at end of stream instead of waiting for a keypress (-autoexit)
// - read stdin, probing the container format from the stream itself
func (s *Sink) Args() []string {
	level := s.LogLevel
	if level == "" {
		level = "error"
	}
	return []string{"-hide_banner", "-loglevel", level, "-nodisp", "-autoexit", "-i", "-"}
}

func (s *Sink) start(stdin *os.File) (*process, error) {
	command := s.Command
	if command == nil {
		command = exec.CommandContext
	}
	cmd := command(context.Background(), s.Binary, s.Args()...)
	cmd.Stdin = stdin
	return startProcess(RoleSink, cmd)
}
