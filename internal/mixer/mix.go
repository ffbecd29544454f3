package mixer

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// MasterStage identifies a processing stage on the master bus
type MasterStage string

const (
	Compressor MasterStage = "acompressor"
	Limiter    MasterStage = "alimiter"
)

// MasterOrder defines the master bus order. The limiter is the final safety
// net, so it always follows the compressor.
var MasterOrder = []MasterStage{
	Compressor,
	Limiter,
}

// MixSpec describes a complete two-track mix
type MixSpec struct {
	TrackA     TrackChain
	TrackB     TrackChain
	TrackBLoop bool
	Master     []MasterStage
}

// MasterStages returns the requested master stages in MasterOrder
func MasterStages(compress, limit bool) []MasterStage {
	var stages []MasterStage
	if compress {
		stages = append(stages, Compressor)
	}
	if limit {
		stages = append(stages, Limiter)
	}
	return stages
}

// OrderedMaster returns the spec's master stages in MasterOrder with duplicates
// and unknown stages dropped
func (s MixSpec) OrderedMaster() []MasterStage {
	var stages []MasterStage
	for _, m := range MasterOrder {
		if slices.Contains(s.Master, m) {
			stages = append(stages, m)
		}
	}
	return stages
}

// TrackOptions holds the user-facing parameters for one track
type TrackOptions struct {
	Gain   string  // gain token, linear ("0.5") or decibel ("-6dB")
	Delay  float64 // seconds; only the secondary track may be delayed
	Filter string  // raw engine expression appended after the built-in stages
	End    float64 // probed media length in seconds, 0 when unknown
}

// MixOptions holds the user-facing parameters for a mix
type MixOptions struct {
	Primary       TrackOptions
	Secondary     TrackOptions
	LoopSecondary bool
	FadeIn        float64 // seconds, applied to both tracks
	FadeOut       float64 // seconds, applied to both tracks
	Compress      bool
	Limit         bool
}

// DefaultMixOptions returns unity gain on both tracks with every optional stage off
func DefaultMixOptions() MixOptions {
	return MixOptions{
		Primary:   TrackOptions{Gain: "1.0"},
		Secondary: TrackOptions{Gain: "1.0"},
	}
}

// NewMixSpec validates the options and builds both track chains.
// Errors wrap ErrInvalidGain or ErrInvalidSpec.
func NewMixSpec(opts MixOptions) (MixSpec, error) {
	gainA, err := ParseGain(opts.Primary.Gain)
	if err != nil {
		return MixSpec{}, fmt.Errorf("track 1: %w", err)
	}
	gainB, err := ParseGain(opts.Secondary.Gain)
	if err != nil {
		return MixSpec{}, fmt.Errorf("track 2: %w", err)
	}

	if opts.Primary.Delay != 0 {
		return MixSpec{}, fmt.Errorf("%w: delay is only supported on track 2", ErrInvalidSpec)
	}

	checks := []struct {
		name  string
		value float64
	}{
		{"track 2 delay", opts.Secondary.Delay},
		{"fade-in", opts.FadeIn},
		{"fade-out", opts.FadeOut},
		{"track 1 length", opts.Primary.End},
		{"track 2 length", opts.Secondary.End},
	}
	for _, c := range checks {
		if c.value < 0 || math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return MixSpec{}, fmt.Errorf("%w: %s must be a non-negative number of seconds, got %v",
				ErrInvalidSpec, c.name, c.value)
		}
	}

	fadeIn := seconds(opts.FadeIn)
	fadeOut := seconds(opts.FadeOut)
	delayB := seconds(opts.Secondary.Delay)

	// A looped secondary track has no end of its own: the primary ends the mix
	endA := seconds(opts.Primary.End)
	endB := time.Duration(0)
	switch {
	case opts.LoopSecondary:
		endB = endA
	case opts.Secondary.End > 0:
		endB = seconds(opts.Secondary.End) + delayB
	}

	spec := MixSpec{
		TrackA: BuildChain(ChainConfig{
			Gain:         gainA,
			FadeIn:       fadeIn,
			FadeOut:      fadeOut,
			FadeOutStart: fadeOutStart(endA, fadeOut),
			Custom:       opts.Primary.Filter,
		}),
		TrackB: BuildChain(ChainConfig{
			Gain:         gainB,
			Delay:        delayB,
			FadeIn:       fadeIn,
			FadeOut:      fadeOut,
			FadeOutStart: fadeOutStart(endB, fadeOut),
			Custom:       opts.Secondary.Filter,
		}),
		TrackBLoop: opts.LoopSecondary,
		Master:     MasterStages(opts.Compress, opts.Limit),
	}
	return spec, nil
}

// fadeOutStart returns where a fade of length d must begin to finish at end.
// Tracks shorter than the fade are faded from the start, which is also what
// a zero start means to the engine.
func fadeOutStart(end, d time.Duration) time.Duration {
	if end <= 0 || d <= 0 || end <= d {
		return 0
	}
	return end - d
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
