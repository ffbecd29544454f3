// Package session runs a mix preview: the media engine renders the compiled
// graph into a pipe and the playback engine plays whatever arrives.
package session

import (
	"context"
	"os"
	"os/exec"

	"github.com/linuxmatters/mixplay/internal/mixer"
)

// Job is one render request
type Job struct {
	Primary   string // source for input 0
	Secondary string // source for input 1
	Graph     mixer.CompiledGraph
}

// sources returns the job's sources indexed by input
func (j Job) sources() [2]string {
	return [2]string{j.Primary, j.Secondary}
}

// Renderer runs the media engine (ffmpeg) and streams the mix as PCM on its stdout
type Renderer struct {
	Binary   string // default "ffmpeg"
	LogLevel string // engine log level, default "error"
	Format   string // output container, default "wav"
	Command  CommandFunc
}

// NewRenderer returns a Renderer for the given binary with default settings
func NewRenderer(binary string) *Renderer {
	return &Renderer{
		Binary:   binary,
		LogLevel: "error",
		Format:   "wav",
		Command:  exec.CommandContext,
	}
}

// Args builds the engine argument list for a job.
// -nostdin keeps ffmpeg from reading the terminal, which belongs to the UI.
// The loop directive is placed immediately before the input it applies to.
func (r *Renderer) Args(job Job) []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", r.logLevel()}

	sources := job.sources()
	for _, in := range job.Graph.Inputs {
		if in.Loop {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", sources[in.Index])
	}

	return append(args,
		"-filter_complex", job.Graph.Filter,
		"-f", r.format(),
		"-",
	)
}

// start launches the engine writing into stdout. The stream is unbounded and
// live: the engine writes as it renders and blocks when the reader stalls.
func (r *Renderer) start(job Job, stdout *os.File) (*process, error) {
	// Lifetime is managed by the session, not by a context
	cmd := r.command()(context.Background(), r.Binary, r.Args(job)...)
	cmd.Stdout = stdout
	return startProcess(RoleRenderer, cmd)
}

func (r *Renderer) command() CommandFunc {
	if r.Command == nil {
		return exec.CommandContext
	}
	return r.Command
}

func (r *Renderer) logLevel() string {
	if r.LogLevel == "" {
		return "error"
	}
	return r.LogLevel
}

func (r *Renderer) format() string {
	if r.Format == "" {
		return "wav"
	}
	return r.Format
}
