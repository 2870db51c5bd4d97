package log

import (
	"time"

	"github.com/rs/zerolog"
)

// event: improved
type SearchImproved struct {
	Round    int `json:"round"`
	Gain     int `json:"gain"`
	MaxDepth int `json:"max_depth"`
}

var _ MarshalableEvent = (*SearchImproved)(nil)

func (s *SearchImproved) MarshalEvent(ev *zerolog.Event) {
	ev.Int("round", s.Round)
	ev.Int("gain", s.Gain)
	ev.Int("max_depth", s.MaxDepth)
	ev.Msg("Search found a better state.")
}

// event: stalled
type SearchStalled struct {
	Round    int `json:"round"`
	MaxDepth int `json:"max_depth"`
}

var _ MarshalableEvent = (*SearchStalled)(nil)

func (s *SearchStalled) MarshalEvent(ev *zerolog.Event) {
	ev.Int("round", s.Round)
	ev.Int("max_depth", s.MaxDepth)
	ev.Msg("Search kept the current state.")
}

// event: step
type StepCompleted struct {
	Step    uint64        `json:"step"`
	Elapsed time.Duration `json:"elapsed"`
}

var _ MarshalableEvent = (*StepCompleted)(nil)

func (s *StepCompleted) MarshalEvent(ev *zerolog.Event) {
	ev.Uint64("step", s.Step)
	ev.Dur("elapsed", s.Elapsed)
	ev.Msg("Completed an iteration step.")
}
