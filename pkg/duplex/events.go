package duplex

import (
	"time"

	"duplex-server/pkg/bargein"
)

// EventType names a duplex event
type EventType string

const (
	EventStateChange         EventType = "state_change"
	EventAiInterrupted       EventType = "ai_interrupted"
	EventAiDucked            EventType = "ai_ducked"
	EventAiRestored          EventType = "ai_restored"
	EventBackchannelDetected EventType = "backchannel_detected"
	EventToolCallStarted     EventType = "tool_call_started"
	EventToolCallEnded       EventType = "tool_call_ended"
)

// Event is any duplex event
type Event interface {
	EventType() EventType
}

// StateChangeEvent carries the state before and after a change
type StateChangeEvent struct {
	Previous  State     `json:"previous"`
	Current   State     `json:"current"`
	Timestamp time.Time `json:"timestamp"`
}

func (e StateChangeEvent) EventType() EventType {
	return EventStateChange
}

// AiInterruptedEvent is emitted when the AI channel is cut to silence
type AiInterruptedEvent struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func (e AiInterruptedEvent) EventType() EventType {
	return EventAiInterrupted
}

// AiDuckedEvent is emitted when a fade toward TargetVolume starts
type AiDuckedEvent struct {
	Reason       string    `json:"reason"`
	TargetVolume float64   `json:"target_volume"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e AiDuckedEvent) EventType() EventType {
	return EventAiDucked
}

// AiRestoredEvent is emitted when the AI channel ramps back to its volume
type AiRestoredEvent struct {
	Reason    string    `json:"reason"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

func (e AiRestoredEvent) EventType() EventType {
	return EventAiRestored
}

// BackchannelDetectedEvent is emitted once per backchannel transcript
type BackchannelDetectedEvent struct {
	Transcript string         `json:"transcript"`
	Result     bargein.Result `json:"result"`
	Timestamp  time.Time      `json:"timestamp"`
}

func (e BackchannelDetectedEvent) EventType() EventType {
	return EventBackchannelDetected
}

// ToolCallStartedEvent is emitted when interruption suppression begins
type ToolCallStartedEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e ToolCallStartedEvent) EventType() EventType {
	return EventToolCallStarted
}

// ToolCallEndedEvent is emitted when interruption suppression ends
type ToolCallEndedEvent struct {
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

func (e ToolCallEndedEvent) EventType() EventType {
	return EventToolCallEnded
}
