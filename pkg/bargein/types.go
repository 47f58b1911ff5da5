package bargein

import (
	"time"

	"duplex-server/pkg/phrases"
)

// Classification is the kind of utterance detected
type Classification string

const (
	Backchannel   Classification = "backchannel"
	SoftBarge     Classification = "soft_barge"
	HardBarge     Classification = "hard_barge"
	Command       Classification = "command"
	Correction    Classification = "correction"
	Clarification Classification = "clarification"
	TopicChange   Classification = "topic_change"
	Agreement     Classification = "agreement"
	Disagreement  Classification = "disagreement"
	Unknown       Classification = "unknown"
)

// ActionType tells the dialogue layer what to do with the AI turn
type ActionType string

const (
	ActionContinue    ActionType = "continue"
	ActionPause       ActionType = "pause"
	ActionStop        ActionType = "stop"
	ActionAcknowledge ActionType = "acknowledge"
	ActionYield       ActionType = "yield"
	ActionRespond     ActionType = "respond"
	ActionWait        ActionType = "wait"
)

// AudioFeatures are optional prosodic measurements from the recognizer
type AudioFeatures struct {
	AvgPitch         float64 `json:"avg_pitch"`
	PitchVariance    float64 `json:"pitch_variance"`
	AvgVolume        float64 `json:"avg_volume"`
	SpeakingRate     float64 `json:"speaking_rate"`
	RisingIntonation bool    `json:"rising_intonation"`
}

// Utterance is one recognized user utterance
type Utterance struct {
	Transcript     string         `json:"transcript"`
	DurationMs     int            `json:"duration_ms"`
	VADProbability float64        `json:"vad_probability"`
	DuringAISpeech bool           `json:"during_ai_speech"`
	Features       *AudioFeatures `json:"audio_features,omitempty"`
}

func (u Utterance) duration() time.Duration {
	return time.Duration(u.DurationMs) * time.Millisecond
}

// Action is the recommended reaction to a classified utterance
type Action struct {
	Type                 ActionType `json:"type"`
	ShouldAcknowledge    bool       `json:"should_acknowledge"`
	AcknowledgmentPhrase string     `json:"acknowledgment_phrase,omitempty"`
	PauseDurationMs      int        `json:"pause_duration_ms,omitempty"`
	ShouldSaveContext    bool       `json:"should_save_context"`
}

// Metadata carries the detector context behind a result
type Metadata struct {
	MatchedPhrase        string  `json:"matched_phrase,omitempty"`
	CommandType          string  `json:"command_type,omitempty"`
	RecentBackchannels   int     `json:"recent_backchannels"`
	ProsodicUrgency      bool    `json:"prosodic_urgency"`
	FuzzySimilarity      float64 `json:"fuzzy_similarity,omitempty"`
	RequiresFollowUp     bool    `json:"requires_follow_up,omitempty"`
	EscalationTriggered  bool    `json:"escalation_triggered,omitempty"`
	ProcessingTimeMicros int64   `json:"processing_time_us"`
}

// Result is the outcome of classifying one utterance. Results are values and
// are never modified after they are returned.
type Result struct {
	Classification Classification   `json:"classification"`
	Intent         phrases.Intent   `json:"intent"`
	Priority       phrases.Priority `json:"priority"`
	Confidence     float64          `json:"confidence"`
	Language       phrases.Language `json:"language"`
	Transcript     string           `json:"transcript"`
	DurationMs     int              `json:"duration_ms"`
	Action         Action           `json:"action"`
	Metadata       Metadata         `json:"metadata"`
	Timestamp      time.Time        `json:"timestamp"`
}
