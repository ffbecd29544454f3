// Package mixer builds the FFmpeg filter graph that mixes two tracks into one stream
package mixer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse-time errors. Both are raised before any engine process is started.
var (
	ErrInvalidGain = errors.New("invalid gain")
	ErrInvalidSpec = errors.New("invalid mix spec")
)

// GainKind identifies the notation a gain was written in
type GainKind int

const (
	GainLinear GainKind = iota
	GainDecibel
)

// GainValue is a track gain in either linear or decibel notation.
// The notation is preserved so the engine receives what the user typed.
type GainValue struct {
	Kind  GainKind
	Value float64
}

// Linear returns a linear amplitude gain. Zero and negative values are legal
// (silence and phase inversion).
func Linear(x float64) GainValue {
	return GainValue{Kind: GainLinear, Value: x}
}

// Decibel returns a gain expressed in dB
func Decibel(x float64) GainValue {
	return GainValue{Kind: GainDecibel, Value: x}
}

// ParseGain converts a gain token such as "0.3" or "-6dB" into a GainValue.
// A token ending in "db" (any case) is decibels, anything else is linear.
// No clamping is applied.
func ParseGain(token string) (GainValue, error) {
	t := strings.TrimSpace(token)

	kind := GainLinear
	if len(t) >= 2 && strings.EqualFold(t[len(t)-2:], "db") {
		kind = GainDecibel
		t = strings.TrimSpace(t[:len(t)-2])
	}

	x, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return GainValue{}, fmt.Errorf("%w: %q", ErrInvalidGain, token)
	}

	return GainValue{Kind: kind, Value: x}, nil
}

// Filter renders the gain as an FFmpeg volume filter
func (g GainValue) Filter() string {
	return "volume=" + g.String()
}

// String renders the gain in its original notation
func (g GainValue) String() string {
	v := strconv.FormatFloat(g.Value, 'f', -1, 64)
	if g.Kind == GainDecibel {
		return v + "dB"
	}
	return v
}

// Amplitude returns the gain as a linear amplitude factor
func (g GainValue) Amplitude() float64 {
	if g.Kind == GainDecibel {
		return DbToLinear(g.Value)
	}
	return g.Value
}

// Decibels returns the gain in dB. Negative linear gains report the level of
// their magnitude (the phase flip is inaudible on its own).
func (g GainValue) Decibels() float64 {
	if g.Kind == GainDecibel {
		return g.Value
	}
	return LinearToDb(math.Abs(g.Value))
}

// DbToLinear converts decibel value to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// LinearToDb converts linear amplitude to decibel value.
// Inverse of DbToLinear.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return -120.0 // Practical floor for audio
	}
	return 20.0 * math.Log10(linear)
}
