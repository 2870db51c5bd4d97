package log

import (
	"github.com/rs/zerolog"
)

// event: dropped
type PreferenceDropped struct {
	Name   string `json:"name"`
	Entry  string `json:"entry"`
	Reason string `json:"reason"`
}

var _ MarshalableEvent = (*PreferenceDropped)(nil)

func (p *PreferenceDropped) MarshalEvent(ev *zerolog.Event) {
	ev.Str("name", p.Name)
	ev.Str("entry", p.Entry)
	ev.Str("reason", p.Reason)
	ev.Msg("Dropped a preference.")
}

// event: parsed
type RecordsParsed struct {
	Records int `json:"records"`
	Dropped int `json:"dropped"`
}

var _ MarshalableEvent = (*RecordsParsed)(nil)

func (r *RecordsParsed) MarshalEvent(ev *zerolog.Event) {
	ev.Int("records", r.Records)
	ev.Int("dropped", r.Dropped)
	ev.Msg("Parsed mentee records.")
}
