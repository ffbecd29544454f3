package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

// Fake engine behaviours, selected through MIXPLAY_HELPER_MODE
const (
	modeRenderForever = "render-forever" // stream until the reader goes away
	modeRenderShort   = "render-short"   // write a short stream and exit 0
	modeRenderFail    = "render-fail"    // write a short stream and exit 3
	modeSinkDrain     = "sink-drain"     // read stdin to EOF and exit 0
	modeSinkFail      = "sink-fail"      // exit 2 without reading
	modeSinkStubborn  = "sink-stubborn"  // ignore SIGTERM and never exit
	modeProbe         = "probe"          // print a duration
	modeProbeNA       = "probe-na"       // print N/A like ffprobe on raw streams
)

// fakeEngine returns a CommandFunc that re-executes the test binary as an
// engine with the given behaviour. launches, when non-nil, counts invocations.
func fakeEngine(mode string, launches *atomic.Int32) CommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if launches != nil {
			launches.Add(1)
		}
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(),
			"MIXPLAY_HELPER_PROCESS=1",
			"MIXPLAY_HELPER_MODE="+mode,
		)
		return cmd
	}
}

// TestHelperProcess is not a real test: it is the body of the fake engines
func TestHelperProcess(t *testing.T) {
	if os.Getenv("MIXPLAY_HELPER_PROCESS") != "1" {
		return
	}

	chunk := make([]byte, 4096)
	switch os.Getenv("MIXPLAY_HELPER_MODE") {
	case modeRenderForever:
		for {
			if _, err := os.Stdout.Write(chunk); err != nil {
				os.Exit(1)
			}
		}

	case modeRenderShort, modeRenderFail:
		for i := 0; i < 16; i++ {
			if _, err := os.Stdout.Write(chunk); err != nil {
				os.Exit(1)
			}
		}
		if os.Getenv("MIXPLAY_HELPER_MODE") == modeRenderFail {
			fmt.Fprintln(os.Stderr, "Error while filtering: Invalid argument")
			os.Exit(3)
		}
		os.Exit(0)

	case modeSinkDrain:
		if _, err := io.Copy(io.Discard, os.Stdin); err != nil {
			os.Exit(1)
		}
		os.Exit(0)

	case modeSinkFail:
		fmt.Fprintln(os.Stderr, "pipe:: Invalid data found when processing input")
		os.Exit(2)

	case modeSinkStubborn:
		signal.Ignore(syscall.SIGTERM)
		go func() { _, _ = io.Copy(io.Discard, os.Stdin) }()
		time.Sleep(time.Minute)
		os.Exit(0)

	case modeProbe:
		fmt.Println("12.500000")
		os.Exit(0)

	case modeProbeNA:
		fmt.Println("N/A")
		os.Exit(0)
	}

	os.Exit(0)
}
