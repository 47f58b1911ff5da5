package bargein

import (
	"time"

	"duplex-server/pkg/phrases"
)

// EventType names a classifier event
type EventType string

const (
	EventClassification  EventType = "classification"
	EventEscalation      EventType = "escalation"
	EventLanguageChanged EventType = "language_changed"
)

// Event is emitted to classifier subscribers
type Event interface {
	EventType() EventType
}

// ClassificationEvent carries every classified utterance
type ClassificationEvent struct {
	Result Result `json:"result"`
}

func (e ClassificationEvent) EventType() EventType {
	return EventClassification
}

// EscalationEvent fires when recent backchannels reach the escalation threshold
type EscalationEvent struct {
	Transcript         string    `json:"transcript"`
	RecentBackchannels int       `json:"recent_backchannels"`
	Threshold          int       `json:"threshold"`
	Timestamp          time.Time `json:"timestamp"`
}

func (e EscalationEvent) EventType() EventType {
	return EventEscalation
}

// LanguageChangedEvent fires when SetLanguage switches the phrase tables
type LanguageChangedEvent struct {
	From      phrases.Language `json:"from"`
	To        phrases.Language `json:"to"`
	Timestamp time.Time        `json:"timestamp"`
}

func (e LanguageChangedEvent) EventType() EventType {
	return EventLanguageChanged
}
