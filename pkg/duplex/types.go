package duplex

import (
	"time"

	"duplex-server/pkg/bargein"
)

// Stream names who currently holds the audio floor
type Stream string

const (
	StreamNone Stream = "none"
	StreamUser Stream = "user"
	StreamAi   Stream = "ai"
	StreamBoth Stream = "both"
)

// streamFor maps the speaking pair to the active stream
func streamFor(userSpeaking, aiSpeaking bool) Stream {
	switch {
	case userSpeaking && aiSpeaking:
		return StreamBoth
	case userSpeaking:
		return StreamUser
	case aiSpeaking:
		return StreamAi
	default:
		return StreamNone
	}
}

// State is the observable duplex state. Every field is comparable so two
// states can be compared with ==.
//
// OverlapDurationMs grows on every overlapping tick, so each tick of a
// running overlap with the clock advanced reports a state change.
type State struct {
	ActiveStream      Stream  `json:"active_stream"`
	UserSpeaking      bool    `json:"user_speaking"`
	AiSpeaking        bool    `json:"ai_speaking"`
	IsOverlap         bool    `json:"is_overlap"`
	OverlapDurationMs int64   `json:"overlap_duration_ms"`
	AiVolume          float64 `json:"ai_volume"`
	AiDucked          bool    `json:"ai_ducked"`
	AiInterrupted     bool    `json:"ai_interrupted"`
	AiMuted           bool    `json:"ai_muted"`
	SidetoneEnabled   bool    `json:"sidetone_enabled"`
	SidetoneVolume    float64 `json:"sidetone_volume"`
	ToolCallActive    bool    `json:"tool_call_active"`
}

// Action is what the overlap handler asks the mixer to do
type Action string

const (
	ActionInterruptAi Action = "interrupt_ai"
	ActionFadeAi      Action = "fade_ai"
	ActionContinueAi  Action = "continue_ai"
	ActionWait        Action = "wait"
)

// Resolution reasons
const (
	ReasonIdle             = "idle"
	ReasonUserTurn         = "user_turn"
	ReasonNoOverlap        = "no_overlap"
	ReasonOverlapEnded     = "overlap_ended"
	ReasonLowConfidence    = "low_vad_confidence"
	ReasonOverlapTooShort  = "overlap_too_short"
	ReasonSustainedOverlap = "sustained_overlap"
	ReasonOverlap          = "overlap"
	ReasonToolCall         = "tool_call_in_progress"
	ReasonBackchannel      = "backchannel"
)

// Resolution is the decision for one update tick
type Resolution struct {
	Action          Action          `json:"action"`
	Reason          string          `json:"reason"`
	TargetVolume    float64         `json:"target_volume,omitempty"`
	OverlapDuration time.Duration   `json:"overlap_duration"`
	Classification  *bargein.Result `json:"classification,omitempty"`
	// Cached is set when Classification was reused from an earlier tick of
	// the same overlap
	Cached bool `json:"cached,omitempty"`
}

// IsBackchannel reports whether the tick resolved to a backchannel
func (r Resolution) IsBackchannel() bool {
	return r.Reason == ReasonBackchannel
}
