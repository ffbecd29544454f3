package mixer

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

// newTestOptions returns options with every optional stage disabled.
// Enable only what each test needs.
func newTestOptions() MixOptions {
	return DefaultMixOptions()
}

func TestCompile(t *testing.T) {
	t.Run("minimal mix", func(t *testing.T) {
		spec, err := NewMixSpec(newTestOptions())
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}

		want := "[0:a]volume=1[a1];[1:a]volume=1[a2];[a1][a2]amix=inputs=2:dropout_transition=0"
		if got := Compile(spec).Filter; got != want {
			t.Errorf("Filter = %q, want %q", got, want)
		}
	})

	t.Run("end to end preview mix", func(t *testing.T) {
		opts := newTestOptions()
		opts.Primary.Gain = "1.0"
		opts.Secondary.Gain = "-6dB"
		opts.Secondary.Delay = 0.5
		opts.FadeIn = 2
		opts.FadeOut = 3

		spec, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}
		graph := Compile(spec)

		want := "[0:a]volume=1,afade=t=in:st=0:d=2,afade=t=out:d=3[a1];" +
			"[1:a]volume=-6dB,adelay=500|500,afade=t=in:st=0:d=2,afade=t=out:d=3[a2];" +
			"[a1][a2]amix=inputs=2:dropout_transition=0"
		if graph.Filter != want {
			t.Errorf("Filter = %q\nwant     %q", graph.Filter, want)
		}

		// Track B is delayed, track A is not
		if _, ok := spec.TrackA.Stage(StageDelay); ok {
			t.Error("track A must not carry a delay stage")
		}
		delay, ok := spec.TrackB.Stage(StageDelay)
		if !ok || delay.Duration != 500*time.Millisecond {
			t.Errorf("track B delay = %+v, want 500ms", delay)
		}

		// Both chains carry matching fades
		for _, kind := range []StageKind{StageFadeIn, StageFadeOut} {
			a, okA := spec.TrackA.Stage(kind)
			b, okB := spec.TrackB.Stage(kind)
			if !okA || !okB {
				t.Fatalf("%s missing: track A %v, track B %v", kind, okA, okB)
			}
			if a.Duration != b.Duration {
				t.Errorf("%s durations differ: %v vs %v", kind, a.Duration, b.Duration)
			}
		}

		if graph.Inputs[0].Loop || graph.Inputs[1].Loop {
			t.Error("no input should loop")
		}
	})

	t.Run("compilation is deterministic", func(t *testing.T) {
		opts := newTestOptions()
		opts.Secondary.Gain = "0.3"
		opts.Secondary.Delay = 1.25
		opts.Secondary.Filter = "highpass=100"
		opts.LoopSecondary = true
		opts.FadeIn = 1
		opts.Compress = true
		opts.Limit = true

		first, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}
		second, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}

		a, b := Compile(first), Compile(second)
		if a.Filter != b.Filter {
			t.Errorf("compiled filters differ:\n%s\n%s", a.Filter, b.Filter)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("compiled graphs differ: %+v vs %+v", a, b)
		}
		if c := Compile(first); c != a {
			t.Errorf("recompiling the same spec changed the graph: %+v", c)
		}
	})

	t.Run("loop directive only on input 1", func(t *testing.T) {
		opts := newTestOptions()
		opts.LoopSecondary = true

		spec, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}
		graph := Compile(spec)

		if graph.Inputs[0].Loop {
			t.Error("input 0 must never loop")
		}
		if !graph.Inputs[1].Loop {
			t.Error("input 1 should loop")
		}
		if graph.Inputs[0].Index != 0 || graph.Inputs[1].Index != 1 {
			t.Errorf("input indexes = %d,%d, want 0,1", graph.Inputs[0].Index, graph.Inputs[1].Index)
		}
		if !strings.Contains(graph.Filter, "amix=inputs=2:duration=first:dropout_transition=0") {
			t.Errorf("looped mix should end with track A: %s", graph.Filter)
		}
	})

	t.Run("compressor precedes limiter", func(t *testing.T) {
		spec, err := NewMixSpec(newTestOptions())
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}

		orders := [][]MasterStage{
			{Compressor, Limiter},
			{Limiter, Compressor},
			{Limiter, Compressor, Limiter},
		}
		for _, order := range orders {
			spec.Master = order
			got := Compile(spec).Filter
			if !strings.HasSuffix(got, ",acompressor,alimiter") {
				t.Errorf("master %v compiled to %q, want compressor then limiter", order, got)
			}
		}
	})

	t.Run("single master stages", func(t *testing.T) {
		opts := newTestOptions()
		opts.Limit = true
		spec, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}
		got := Compile(spec).Filter
		if !strings.HasSuffix(got, "dropout_transition=0,alimiter") {
			t.Errorf("Filter = %q, want limiter only", got)
		}
		if strings.Contains(got, "acompressor") {
			t.Errorf("compressor should be absent: %q", got)
		}
	})

	t.Run("invalid custom expression still compiles", func(t *testing.T) {
		opts := newTestOptions()
		opts.Primary.Filter = "this is not ]a[ filter"
		spec, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}
		got := Compile(spec).Filter
		if !strings.HasPrefix(got, "[0:a]volume=1,this is not ]a[ filter[a1];") {
			t.Errorf("custom expression not passed verbatim: %q", got)
		}
	})
}

func TestNewMixSpec(t *testing.T) {
	t.Run("primary delay is rejected", func(t *testing.T) {
		opts := newTestOptions()
		opts.Primary.Delay = 0.5
		_, err := NewMixSpec(opts)
		if !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("error = %v, want ErrInvalidSpec", err)
		}
	})

	t.Run("invalid gain names the track", func(t *testing.T) {
		opts := newTestOptions()
		opts.Secondary.Gain = "quiet"
		_, err := NewMixSpec(opts)
		if !errors.Is(err, ErrInvalidGain) {
			t.Fatalf("error = %v, want ErrInvalidGain", err)
		}
		if !strings.Contains(err.Error(), "track 2") {
			t.Errorf("error %q should name track 2", err)
		}
	})

	t.Run("negative durations are rejected", func(t *testing.T) {
		mutations := map[string]func(*MixOptions){
			"delay":    func(o *MixOptions) { o.Secondary.Delay = -1 },
			"fade-in":  func(o *MixOptions) { o.FadeIn = -0.1 },
			"fade-out": func(o *MixOptions) { o.FadeOut = -2 },
		}
		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				opts := newTestOptions()
				mutate(&opts)
				if _, err := NewMixSpec(opts); !errors.Is(err, ErrInvalidSpec) {
					t.Errorf("error = %v, want ErrInvalidSpec", err)
				}
			})
		}
	})

	t.Run("fade-out anchored to track ends", func(t *testing.T) {
		opts := newTestOptions()
		opts.FadeOut = 3
		opts.Primary.End = 60
		opts.Secondary.End = 20
		opts.Secondary.Delay = 2

		spec, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}

		a, _ := spec.TrackA.Stage(StageFadeOut)
		if a.Start != 57*time.Second {
			t.Errorf("track A fade-out start = %v, want 57s", a.Start)
		}
		// Track B ends at its own length plus its delay
		b, _ := spec.TrackB.Stage(StageFadeOut)
		if b.Start != 19*time.Second {
			t.Errorf("track B fade-out start = %v, want 19s", b.Start)
		}
	})

	t.Run("looped track fades out with the primary", func(t *testing.T) {
		opts := newTestOptions()
		opts.FadeOut = 3
		opts.Primary.End = 60
		opts.Secondary.End = 8
		opts.LoopSecondary = true

		spec, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}
		b, _ := spec.TrackB.Stage(StageFadeOut)
		if b.Start != 57*time.Second {
			t.Errorf("track B fade-out start = %v, want 57s", b.Start)
		}
	})

	t.Run("unknown length leaves fade-out unanchored", func(t *testing.T) {
		opts := newTestOptions()
		opts.FadeOut = 3
		spec, err := NewMixSpec(opts)
		if err != nil {
			t.Fatalf("NewMixSpec failed: %v", err)
		}
		a, _ := spec.TrackA.Stage(StageFadeOut)
		if a.Start != 0 {
			t.Errorf("fade-out start = %v, want 0", a.Start)
		}
	})
}
