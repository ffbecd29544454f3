package mixer

import (
	"fmt"
	"strings"
)

// Stream labels used in the compiled graph
const (
	labelTrackA = "a1"
	labelTrackB = "a2"
)

// mixInputs is the merge cardinality. The mixer is a two-track tool.
const mixInputs = 2

// InputDirective carries per-input engine options that live outside the
// filter graph itself
type InputDirective struct {
	Index int
	Loop  bool // loop this input indefinitely
}

// CompiledGraph is the engine-ready form of a MixSpec
type CompiledGraph struct {
	Inputs [mixInputs]InputDirective
	Filter string // -filter_complex description
}

// Compile turns a MixSpec into a CompiledGraph. It is a pure function: the
// same spec always produces the same graph. Custom expressions are copied in
// verbatim and only validated by the engine at render time.
//
// Graph shape:
//
//	[0:a]<track A chain>[a1];[1:a]<track B chain>[a2];[a1][a2]amix,<master stages>
func Compile(spec MixSpec) CompiledGraph {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[0:a]%s[%s];", spec.TrackA.Filter(), labelTrackA)
	fmt.Fprintf(&sb, "[1:a]%s[%s];", spec.TrackB.Filter(), labelTrackB)
	fmt.Fprintf(&sb, "[%s][%s]%s", labelTrackA, labelTrackB, spec.mergeFilter())

	for _, m := range spec.OrderedMaster() {
		sb.WriteString(",")
		sb.WriteString(string(m))
	}

	return CompiledGraph{
		Inputs: [mixInputs]InputDirective{
			{Index: 0},
			{Index: 1, Loop: spec.TrackBLoop},
		},
		Filter: sb.String(),
	}
}

// mergeFilter builds the two-input mix stage.
// dropout_transition=0 stops amix from ramping the remaining input's level
// when the other one goes silent or ends, so there is no audible jump.
// With a looped track B the mix must end with track A (duration=first),
// otherwise the endless input would keep the session running forever.
func (spec MixSpec) mergeFilter() string {
	if spec.TrackBLoop {
		return fmt.Sprintf("amix=inputs=%d:duration=first:dropout_transition=0", mixInputs)
	}
	return fmt.Sprintf("amix=inputs=%d:dropout_transition=0", mixInputs)
}
