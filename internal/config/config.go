// Package config loads mixplay settings: built-in defaults, an optional YAML
// preset, then environment overrides. Command-line flags are applied last by
// the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/mixplay/internal/mixer"
)

// Environment variables that override the preset
const (
	EnvRenderer = "MIXPLAY_FFMPEG"
	EnvSink     = "MIXPLAY_FFPLAY"
	EnvProbe    = "MIXPLAY_FFPROBE"
	EnvGrace    = "MIXPLAY_GRACE"
)

// Config holds all runtime configuration
type Config struct {
	Engine Engine   `yaml:"engine"`
	Grace  Duration `yaml:"grace"` // teardown window for both engines
	Mix    Mix      `yaml:"mix"`
}

// MinGrace is the shortest teardown window the engines are given
const MinGrace = 100 * time.Millisecond

// Duration is a time.Duration written in a preset as plain seconds (2, 0.5)
// or as a Go duration (1500ms)
type Duration time.Duration

// Duration returns d as a time.Duration
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	v, err := parseSeconds(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// parseSeconds accepts a Go duration ("1500ms") or plain seconds ("3", "0.5")
func parseSeconds(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("invalid duration %q", v)
}

// Engine names the external binaries and how they are driven
type Engine struct {
	Renderer string `yaml:"renderer"`  // media engine, renders the graph
	Sink     string `yaml:"sink"`      // playback engine
	Probe    string `yaml:"probe"`     // duration probe, used for fade-out anchoring
	LogLevel string `yaml:"log_level"` // passed to every engine as -loglevel
	Format   string `yaml:"format"`    // container streamed through the pipe
}

// Track is the preset for one input track
type Track struct {
	Volume string  `yaml:"volume"`
	Delay  float64 `yaml:"delay"`
	Filter string  `yaml:"filter"`
}

// Mix is a saved mix preset
type Mix struct {
	Track1   Track   `yaml:"track1"`
	Track2   Track   `yaml:"track2"`
	Loop2    bool    `yaml:"loop2"`
	FadeIn   float64 `yaml:"fade_in"`
	FadeOut  float64 `yaml:"fade_out"`
	Compress bool    `yaml:"compress"`
	Limit    bool    `yaml:"limit"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Engine: Engine{
			Renderer: "ffmpeg",
			Sink:     "ffplay",
			Probe:    "ffprobe",
			LogLevel: "error",
			Format:   "wav",
		},
		Grace: Duration(2 * time.Second),
		Mix: Mix{
			Track1: Track{Volume: "1.0"},
			Track2: Track{Volume: "1.0"},
		},
	}
}

// Load returns the defaults overlaid with the preset at path (skipped when
// path is empty) and then the environment
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readPreset(path); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) readPreset(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open preset: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse preset %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Engine.Renderer = envStr(EnvRenderer, c.Engine.Renderer)
	c.Engine.Sink = envStr(EnvSink, c.Engine.Sink)
	c.Engine.Probe = envStr(EnvProbe, c.Engine.Probe)
	c.Grace = envDuration(EnvGrace, c.Grace)
}

// Validate reports settings the engines cannot run with
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Engine.Renderer) == "" {
		errs = append(errs, errors.New("engine.renderer is empty"))
	}
	if strings.TrimSpace(c.Engine.Sink) == "" {
		errs = append(errs, errors.New("engine.sink is empty"))
	}
	if c.Grace.Duration() < MinGrace {
		errs = append(errs, fmt.Errorf("grace must be at least %v, got %v", MinGrace, c.Grace))
	}
	return errors.Join(errs...)
}

// MixOptions converts the preset into mixer options
func (c Config) MixOptions() mixer.MixOptions {
	opts := mixer.DefaultMixOptions()
	if c.Mix.Track1.Volume != "" {
		opts.Primary.Gain = c.Mix.Track1.Volume
	}
	if c.Mix.Track2.Volume != "" {
		opts.Secondary.Gain = c.Mix.Track2.Volume
	}
	opts.Primary.Delay = c.Mix.Track1.Delay
	opts.Primary.Filter = c.Mix.Track1.Filter
	opts.Secondary.Delay = c.Mix.Track2.Delay
	opts.Secondary.Filter = c.Mix.Track2.Filter
	opts.LoopSecondary = c.Mix.Loop2
	opts.FadeIn = c.Mix.FadeIn
	opts.FadeOut = c.Mix.FadeOut
	opts.Compress = c.Mix.Compress
	opts.Limit = c.Mix.Limit
	return opts
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration reads key like a preset duration, keeping fallback when the
// value is unset or unparseable
func envDuration(key string, fallback Duration) Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := parseSeconds(v)
	if err != nil {
		return fallback
	}
	return Duration(d)
}
