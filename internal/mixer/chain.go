package mixer

import (
	"slices"
	"strings"
	"time"
)

// TrackChainOrder defines the stage order within one track chain.
// Order rationale:
// - Gain first: the level is set before delay padding is added, so padding never clips
// - Delay: shifts the secondary track against the primary
// - FadeIn/FadeOut: after delay, so both tracks fade on the same mix timeline
// - Custom: user expression sees the fully shaped track - MUST be last
var TrackChainOrder = []StageKind{
	StageGain,
	StageDelay,
	StageFadeIn,
	StageFadeOut,
	StageCustom,
}

// TrackChain is the ordered stage list for one input
type TrackChain []Stage

// ChainConfig holds the parameters for one track's chain.
// Zero values disable the optional stages.
type ChainConfig struct {
	Gain         GainValue
	Delay        time.Duration
	FadeIn       time.Duration
	FadeOut      time.Duration
	FadeOutStart time.Duration // zero when the track end is unknown
	Custom       string
}

// chainStageFunc returns the stage for a kind, or false when the stage is disabled
type chainStageFunc func(*ChainConfig) (Stage, bool)

var chainStages = map[StageKind]chainStageFunc{
	StageGain: func(cfg *ChainConfig) (Stage, bool) {
		return GainStage(cfg.Gain), true
	},
	StageDelay: func(cfg *ChainConfig) (Stage, bool) {
		return DelayStage(cfg.Delay), cfg.Delay > 0
	},
	StageFadeIn: func(cfg *ChainConfig) (Stage, bool) {
		return FadeInStage(cfg.FadeIn), cfg.FadeIn > 0
	},
	StageFadeOut: func(cfg *ChainConfig) (Stage, bool) {
		return FadeOutStage(cfg.FadeOut, cfg.FadeOutStart), cfg.FadeOut > 0
	},
	StageCustom: func(cfg *ChainConfig) (Stage, bool) {
		return CustomStage(cfg.Custom), strings.TrimSpace(cfg.Custom) != ""
	},
}

// BuildChain assembles a track chain in TrackChainOrder, skipping disabled stages.
// The gain stage is always present.
func BuildChain(cfg ChainConfig) TrackChain {
	var chain TrackChain
	for _, kind := range TrackChainOrder {
		if stage, ok := chainStages[kind](&cfg); ok {
			chain = append(chain, stage)
		}
	}
	return chain
}

// Stage returns the first stage of the given kind
func (c TrackChain) Stage(kind StageKind) (Stage, bool) {
	for _, s := range c {
		if s.Kind == kind {
			return s, true
		}
	}
	return Stage{}, false
}

// Ordered returns a copy of the chain sorted into TrackChainOrder.
// Stages of the same kind keep their relative order.
func (c TrackChain) Ordered() TrackChain {
	out := slices.Clone(c)
	slices.SortStableFunc(out, func(a, b Stage) int {
		return stageRank(a.Kind) - stageRank(b.Kind)
	})
	return out
}

func stageRank(kind StageKind) int {
	if i := slices.Index(TrackChainOrder, kind); i >= 0 {
		return i
	}
	return len(TrackChainOrder)
}

// Filter joins the chain into a comma-separated FFmpeg filter chain, always
// in TrackChainOrder. An empty chain passes audio through unchanged.
func (c TrackChain) Filter() string {
	var filters []string
	for _, s := range c.Ordered() {
		if spec := s.Filter(); spec != "" {
			filters = append(filters, spec)
		}
	}
	if len(filters) == 0 {
		return "anull"
	}
	return strings.Join(filters, ",")
}
