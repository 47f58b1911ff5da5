package phrases

import "time"

// Intent is the communicative goal attributed to an utterance
type Intent string

const (
	IntentAcknowledge    Intent = "acknowledge"
	IntentContinue       Intent = "continue"
	IntentStop           Intent = "stop"
	IntentPause          Intent = "pause"
	IntentAskQuestion    Intent = "ask_question"
	IntentProvideInfo    Intent = "provide_info"
	IntentCorrect        Intent = "correct"
	IntentChangeTopic    Intent = "change_topic"
	IntentExpressEmotion Intent = "express_emotion"
	IntentClarify        Intent = "clarify"
	IntentCommand        Intent = "command"
	IntentUncertain      Intent = "uncertain"
)

// Priority ranks how urgently an utterance must be handled
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// String returns the lowercase priority name
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Rank maps the priority onto low=1 .. critical=4
func (p Priority) Rank() int {
	if p < PriorityLow || p > PriorityCritical {
		return 0
	}
	return int(p)
}

// MarshalText encodes the priority by name
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// CommandType names the voice command a command phrase maps to
type CommandType string

const (
	CommandStop       CommandType = "stop"
	CommandPause      CommandType = "pause"
	CommandResume     CommandType = "resume"
	CommandRepeat     CommandType = "repeat"
	CommandVolumeUp   CommandType = "volume_up"
	CommandVolumeDown CommandType = "volume_down"
	CommandSlower     CommandType = "slower"
	CommandFaster     CommandType = "faster"
	CommandSkip       CommandType = "skip"
	CommandBack       CommandType = "back"
)

// BackchannelPattern groups acknowledgment phrases sharing the same constraints
type BackchannelPattern struct {
	Phrases []string
	// MaxDuration rejects matches for utterances longer than this
	MaxDuration time.Duration
	// ConfidenceMultiplier scales the detector score; 0 means 1.0
	ConfidenceMultiplier float64
}

// SoftBargePattern groups polite interruption openers
type SoftBargePattern struct {
	Phrases          []string
	RequiresFollowUp bool
}

// HardBargePattern groups urgent floor-taking phrases
type HardBargePattern struct {
	Phrases  []string
	Intent   Intent
	Priority Priority
}

// CommandPattern groups phrases mapping to one voice command
type CommandPattern struct {
	Phrases     []string
	CommandType CommandType
	Intent      Intent
	Priority    Priority
}

// Table is the full phrase library for one language
type Table struct {
	Language        Language
	Backchannels    []BackchannelPattern
	SoftBarges      []SoftBargePattern
	HardBarges      []HardBargePattern
	Commands        []CommandPattern
	Corrections     []string
	Clarifications  []string
	Acknowledgments []string
}

// For returns the phrase table for lang, falling back to the default
// language when lang has no table. Matching phrases are returned already
// normalized with NormalizeText. The result is a deep copy: callers may keep
// or modify it without affecting the library.
func For(lang Language) Table {
	src, ok := tables[lang]
	if !ok {
		src = tables[DefaultLanguage]
	}
	return src.clone()
}

func (t Table) clone() Table {
	out := Table{
		Language:        t.Language,
		Backchannels:    make([]BackchannelPattern, len(t.Backchannels)),
		SoftBarges:      make([]SoftBargePattern, len(t.SoftBarges)),
		HardBarges:      make([]HardBargePattern, len(t.HardBarges)),
		Commands:        make([]CommandPattern, len(t.Commands)),
		Corrections:     normalizeAll(t.Corrections),
		Clarifications:  normalizeAll(t.Clarifications),
		Acknowledgments: append([]string(nil), t.Acknowledgments...),
	}
	for i, p := range t.Backchannels {
		p.Phrases = normalizeAll(p.Phrases)
		out.Backchannels[i] = p
	}
	for i, p := range t.SoftBarges {
		p.Phrases = normalizeAll(p.Phrases)
		out.SoftBarges[i] = p
	}
	for i, p := range t.HardBarges {
		p.Phrases = normalizeAll(p.Phrases)
		out.HardBarges[i] = p
	}
	for i, p := range t.Commands {
		p.Phrases = normalizeAll(p.Phrases)
		out.Commands[i] = p
	}
	return out
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := NormalizeText(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
