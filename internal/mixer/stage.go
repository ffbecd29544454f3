package mixer

import (
	"fmt"
	"strconv"
	"time"
)

// StageKind identifies one operation in a track chain
type StageKind string

// Stage kinds. The set is closed: the chain builder and the compiler only
// know how to place these.
const (
	StageGain    StageKind = "gain"
	StageDelay   StageKind = "delay"
	StageFadeIn  StageKind = "fade_in"
	StageFadeOut StageKind = "fade_out"
	StageCustom  StageKind = "custom" // raw engine expression, never parsed here
)

// Stage describes a single processing step applied to one track
type Stage struct {
	Kind StageKind

	// Gain is used by StageGain
	Gain GainValue

	// Duration is the delay length (StageDelay) or the fade length (StageFadeIn, StageFadeOut)
	Duration time.Duration

	// Start anchors a fade-out to the end of the track. Zero means the track
	// length was unknown and only the fade length is sent.
	Start time.Duration

	// Expr is the opaque engine expression for StageCustom
	Expr string
}

// GainStage returns a gain stage
func GainStage(g GainValue) Stage {
	return Stage{Kind: StageGain, Gain: g}
}

// DelayStage returns a delay stage
func DelayStage(d time.Duration) Stage {
	return Stage{Kind: StageDelay, Duration: d}
}

// FadeInStage returns a fade from silence at the start of the track
func FadeInStage(d time.Duration) Stage {
	return Stage{Kind: StageFadeIn, Duration: d}
}

// FadeOutStage returns a fade to silence. start is where the fade begins,
// zero when unknown.
func FadeOutStage(d, start time.Duration) Stage {
	return Stage{Kind: StageFadeOut, Duration: d, Start: start}
}

// CustomStage wraps a raw engine expression. It is passed through untouched;
// a malformed expression only fails when the engine parses the graph.
func CustomStage(expr string) Stage {
	return Stage{Kind: StageCustom, Expr: expr}
}

// stageBuilderFunc renders a stage as an FFmpeg filter specification
type stageBuilderFunc func(Stage) string

var stageBuilders = map[StageKind]stageBuilderFunc{
	StageGain:    buildGainFilter,
	StageDelay:   buildDelayFilter,
	StageFadeIn:  buildFadeInFilter,
	StageFadeOut: buildFadeOutFilter,
	StageCustom:  buildCustomFilter,
}

// Filter renders the stage as an FFmpeg filter specification.
// Unknown kinds render as an empty string.
func (s Stage) Filter() string {
	if builder, ok := stageBuilders[s.Kind]; ok {
		return builder(s)
	}
	return ""
}

// Describe renders the stage parameters for display
func (s Stage) Describe() string {
	switch s.Kind {
	case StageGain:
		if s.Gain.Kind == GainDecibel {
			return fmt.Sprintf("%s (x%.3f)", s.Gain, s.Gain.Amplitude())
		}
		return fmt.Sprintf("x%s (%+.1f dB)", s.Gain, s.Gain.Decibels())
	case StageDelay:
		return fmt.Sprintf("%d ms", s.Duration.Milliseconds())
	case StageFadeIn:
		return formatSeconds(s.Duration) + "s"
	case StageFadeOut:
		if s.Start > 0 {
			return fmt.Sprintf("%ss from %ss", formatSeconds(s.Duration), formatSeconds(s.Start))
		}
		return formatSeconds(s.Duration) + "s"
	case StageCustom:
		return s.Expr
	}
	return ""
}

func buildGainFilter(s Stage) string {
	return s.Gain.Filter()
}

// buildDelayFilter delays both channels of a stereo track by the same amount.
// adelay takes one value per channel, separated by '|'.
func buildDelayFilter(s Stage) string {
	ms := s.Duration.Milliseconds()
	return fmt.Sprintf("adelay=%d|%d", ms, ms)
}

func buildFadeInFilter(s Stage) string {
	return fmt.Sprintf("afade=t=in:st=0:d=%s", formatSeconds(s.Duration))
}

// buildFadeOutFilter omits st when the track length is unknown
func buildFadeOutFilter(s Stage) string {
	if s.Start > 0 {
		return fmt.Sprintf("afade=t=out:st=%s:d=%s", formatSeconds(s.Start), formatSeconds(s.Duration))
	}
	return fmt.Sprintf("afade=t=out:d=%s", formatSeconds(s.Duration))
}

func buildCustomFilter(s Stage) string {
	return s.Expr
}

// formatSeconds renders a duration as the shortest exact decimal seconds value
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
