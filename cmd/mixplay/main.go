package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/linuxmatters/mixplay/internal/cli"
	"github.com/linuxmatters/mixplay/internal/config"
	"github.com/linuxmatters/mixplay/internal/logging"
	"github.com/linuxmatters/mixplay/internal/mixer"
	"github.com/linuxmatters/mixplay/internal/session"
)

var (
	version = "0.0.1"
)

// Exit codes
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitCancelled = 130
)

// CLI defines the command-line interface
type CLI struct {
	Audio1 string `arg:"" name:"audio1" help:"Primary track, it ends the preview when track 2 loops" type:"existingfile" optional:""`
	Audio2 string `arg:"" name:"audio2" help:"Secondary track" type:"existingfile" optional:""`

	Vol1   string  `name:"vol1" help:"Track 1 gain, linear (0.8) or decibels (-3dB)" default:"1.0" placeholder:"gain" group:"tracks"`
	Vol2   string  `name:"vol2" help:"Track 2 gain, linear (0.8) or decibels (-3dB)" default:"1.0" placeholder:"gain" group:"tracks"`
	Delay2 float64 `name:"delay2" help:"Delay track 2 by this many seconds" placeholder:"seconds" group:"tracks"`
	Loop2  bool    `name:"loop2" negatable:"" help:"Loop track 2 until track 1 ends" group:"tracks"`
	Eq1    string  `name:"eq1" help:"Raw FFmpeg filter appended to track 1" placeholder:"filter" group:"tracks"`
	Eq2    string  `name:"eq2" help:"Raw FFmpeg filter appended to track 2" placeholder:"filter" group:"tracks"`

	FadeIn   float64 `name:"fadein" help:"Fade both tracks in over this many seconds" placeholder:"seconds" group:"mix"`
	FadeOut  float64 `name:"fadeout" help:"Fade both tracks out over their last seconds" placeholder:"seconds" group:"mix"`
	Compress bool    `name:"compress" negatable:"" help:"Compress the mixed signal" group:"mix"`
	Limit    bool    `name:"limit" negatable:"" help:"Limit the mixed signal, after compression" group:"mix"`

	Config  string `short:"c" type:"path" help:"YAML preset with engine settings and a mix"`
	Plain   bool   `help:"Log to the terminal instead of showing the live view"`
	Debug   bool   `help:"Verbose logging"`
	DryRun  bool   `name:"dry-run" help:"Print the filter graph and engine commands without playing"`
	Version bool   `short:"v" help:"Show version information"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cliArgs := &CLI{}
	parser, err := newParser(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		return exitFailed
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		cli.PrintError(err.Error())
		return exitUsage
	}

	if cliArgs.Version {
		cli.PrintVersion(version)
		return exitOK
	}

	if cliArgs.Audio1 == "" || cliArgs.Audio2 == "" {
		cli.PrintError("two audio files are required")
		_ = kctx.PrintUsage(false)
		return exitUsage
	}

	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		return exitUsage
	}

	logs, err := openLoggers(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		return exitFailed
	}
	defer logs.Close()

	opts := cfg.MixOptions()
	applyFlags(&opts, cliArgs, explicitFlags(kctx))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A bad mix is rejected before any engine starts, the length lookup included
	spec, err := mixer.NewMixSpec(opts)
	if err != nil {
		cli.PrintError(err.Error())
		return exitUsage
	}

	var lengths trackLengths
	if !cliArgs.DryRun && (opts.FadeOut > 0 || !cliArgs.Plain) {
		lengths = probeLengths(ctx, session.NewProbe(cfg.Engine.Probe), cliArgs, opts.FadeOut > 0, logs)
		opts.Primary.End = lengths.primary.Seconds()
		opts.Secondary.End = lengths.secondary.Seconds()
		if spec, err = mixer.NewMixSpec(opts); err != nil {
			cli.PrintError(err.Error())
			return exitUsage
		}
	}

	job := session.Job{
		Primary:   cliArgs.Audio1,
		Secondary: cliArgs.Audio2,
		Graph:     mixer.Compile(spec),
	}
	logs.Mixer.Debugf("filter graph: %s", job.Graph.Filter)

	renderer := session.NewRenderer(cfg.Engine.Renderer)
	renderer.LogLevel = cfg.Engine.LogLevel
	renderer.Format = cfg.Engine.Format
	sink := session.NewSink(cfg.Engine.Sink)
	sink.LogLevel = cfg.Engine.LogLevel

	stages := logging.StageTable(spec).String()

	if cliArgs.DryRun {
		printDryRun(stages, job, renderer, sink)
		return exitOK
	}

	p := player{
		renderer: renderer,
		sink:     sink,
		grace:    cfg.Grace.Duration(),
		logs:     logs,
		job:      job,
		stages:   stages,
		total:    lengths.session(opts.Secondary.Delay, opts.LoopSecondary),
	}
	if cliArgs.Plain {
		return p.playPlain(ctx)
	}
	return p.playInteractive(ctx)
}

func newParser(cliArgs *CLI) (*kong.Kong, error) {
	return kong.New(cliArgs,
		kong.Name("mixplay"),
		kong.Description("Preview a two-track mix through FFmpeg"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.ExplicitGroups([]kong.Group{
			{Key: "tracks", Title: "Tracks"},
			{Key: "mix", Title: "Mix"},
		}),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
}

// openLoggers writes to stderr in plain and dry-run mode, to the debug log
// file otherwise so engine and log output never land on the live view
func openLoggers(c *CLI) (*logging.Loggers, error) {
	level := logging.DefaultLevel
	if c.Debug {
		level = "debug"
	}
	if c.Plain || c.DryRun {
		return logging.New(os.Stderr, level)
	}
	return logging.NewFile(logging.DebugLogFile, level)
}

// explicitFlags returns the names of flags given on the command line
func explicitFlags(kctx *kong.Context) map[string]bool {
	set := map[string]bool{}
	for _, el := range kctx.Path {
		if el.Flag != nil {
			set[el.Flag.Name] = true
		}
	}
	return set
}

// applyFlags overrides the preset with flags given on the command line.
// Flags left at their defaults keep the preset's value; switches given as
// --no-<name> turn a preset stage off.
func applyFlags(opts *mixer.MixOptions, c *CLI, set map[string]bool) {
	if set["vol1"] {
		opts.Primary.Gain = c.Vol1
	}
	if set["vol2"] {
		opts.Secondary.Gain = c.Vol2
	}
	if set["delay2"] {
		opts.Secondary.Delay = c.Delay2
	}
	if set["eq1"] {
		opts.Primary.Filter = c.Eq1
	}
	if set["eq2"] {
		opts.Secondary.Filter = c.Eq2
	}
	if set["fadein"] {
		opts.FadeIn = c.FadeIn
	}
	if set["fadeout"] {
		opts.FadeOut = c.FadeOut
	}
	if set["loop2"] {
		opts.LoopSecondary = c.Loop2
	}
	if set["compress"] {
		opts.Compress = c.Compress
	}
	if set["limit"] {
		opts.Limit = c.Limit
	}
}

// trackLengths holds probed media lengths, zero when unknown
type trackLengths struct {
	primary   time.Duration
	secondary time.Duration
}

// session returns the expected preview length, or zero when it is unknown
func (l trackLengths) session(delay float64, loop bool) time.Duration {
	if l.primary <= 0 {
		return 0
	}
	if loop {
		return l.primary
	}
	if l.secondary <= 0 {
		return 0
	}
	return max(l.primary, l.secondary+time.Duration(delay*float64(time.Second)))
}

// probeLengths measures both sources. A failed probe only matters when a
// fade-out needs anchoring, so it is a warning then and a debug line otherwise.
func probeLengths(ctx context.Context, probe *session.Probe, c *CLI, needed bool, logs *logging.Loggers) trackLengths {
	var l trackLengths
	for _, t := range []struct {
		path string
		into *time.Duration
	}{
		{c.Audio1, &l.primary},
		{c.Audio2, &l.secondary},
	} {
		d, err := probe.Duration(ctx, t.path)
		switch {
		case err == nil:
			*t.into = d
			logs.Main.Debugf("%s: %v", t.path, d)
		case needed:
			logs.Main.Warnf("fade-out will not be anchored to the end of %s: %v", t.path, err)
			if errors.Is(err, session.ErrEngineNotFound) {
				return l
			}
		default:
			logs.Main.Debugf("no length for %s: %v", t.path, err)
		}
	}
	return l
}

func printDryRun(stages string, job session.Job, r *session.Renderer, s *session.Sink) {
	fmt.Print(stages)
	fmt.Println()
	cli.PrintKeyValue("Graph", job.Graph.Filter)
	fmt.Println()
	fmt.Printf("%s \\\n  | %s\n",
		cli.FormatCommand(r.Binary, r.Args(job)),
		cli.FormatCommand(s.Binary, s.Args()))
}
