// Package discourse tracks the rolling structure of a conversation: its
// topic, its phase and how coherently each turn follows the previous ones.
package discourse

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"duplex-server/pkg/metrics"
	"duplex-server/pkg/phrases"
)

// Speaker identifies who produced a turn
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// ContentType is the coarse speech act of a unit
type ContentType string

const (
	ContentQuestion       ContentType = "question"
	ContentCommand        ContentType = "command"
	ContentAcknowledgment ContentType = "acknowledgment"
	ContentStatement      ContentType = "statement"
)

// Phase is a stage of the conversation
type Phase string

const (
	PhaseOpening              Phase = "opening"
	PhaseInformationGathering Phase = "information_gathering"
	PhaseClarification        Phase = "clarification"
	PhaseExplanation          Phase = "explanation"
	PhaseDiscussion           Phase = "discussion"
	PhaseSummary              Phase = "summary"
	PhaseClosing              Phase = "closing"
)

// Unit is one recorded turn
type Unit struct {
	ID            string      `json:"id"`
	TurnIndex     int         `json:"turn_index"`
	Speaker       Speaker     `json:"speaker"`
	Text          string      `json:"text"`
	ContentType   ContentType `json:"content_type"`
	TopicKeywords []string    `json:"topic_keywords"`
	Timestamp     time.Time   `json:"timestamp"`
}

// State is a snapshot of the tracker
type State struct {
	Topic           string   `json:"topic,omitempty"`
	Phase           Phase    `json:"phase"`
	Coherence       float64  `json:"coherence"`
	TopicShiftCount int      `json:"topic_shift_count"`
	TurnCount       int      `json:"turn_count"`
	RecentUnits     []Unit   `json:"recent_units"`
	IntentPatterns  []string `json:"intent_patterns"`
}

// Tracker maintains discourse state for one conversation. It is not safe for
// concurrent use.
type Tracker struct {
	logger *logrus.Entry
	config Config
	now    func() time.Time

	units           []Unit
	topic           string
	topicHistory    []string
	phase           Phase
	coherence       float64
	topicShifts     int
	turns           int
	lastTopicChange int
	intentPatterns  []string
}

// NewTracker creates a tracker with cfg merged over the defaults
func NewTracker(cfg Config, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	t := &Tracker{
		logger: logger.WithField("component", "discourse_tracker"),
		config: Merge(DefaultConfig(), cfg),
		now:    time.Now,
	}
	t.Reset()
	return t
}

// Update records one turn and returns the resulting state
func (t *Tracker) Update(text string, speaker Speaker) State {
	t.turns++
	normalized := phrases.NormalizeText(text)
	lowered := strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	keywords := t.extractKeywords(normalized)

	unit := Unit{
		ID:            uuid.NewString(),
		TurnIndex:     t.turns - 1,
		Speaker:       speaker,
		Text:          text,
		ContentType:   classifyContent(text, normalized),
		TopicKeywords: keywords,
		Timestamp:     t.now(),
	}

	previous := t.units
	if len(previous) > 3 {
		previous = previous[len(previous)-3:]
	}
	t.appendUnit(unit)

	if topic := t.detectTopic(normalized); topic != "" && topic != t.topic {
		t.changeTopic(topic)
	}
	t.updatePhase(lowered)
	t.updateCoherence(keywords, previous)
	if speaker == SpeakerUser {
		t.detectIntentPatterns(lowered)
	}

	t.logger.WithFields(logrus.Fields{
		"speaker":      speaker,
		"content_type": unit.ContentType,
		"topic":        t.topic,
		"phase":        t.phase,
		"coherence":    t.coherence,
	}).Debug("Discourse updated")

	return t.State()
}

func (t *Tracker) appendUnit(u Unit) {
	t.units = append(t.units, u)
	if over := len(t.units) - t.config.Capacity; over > 0 {
		t.units = append(t.units[:0:0], t.units[over:]...)
	}
}

func classifyContent(raw, normalized string) ContentType {
	if strings.HasSuffix(strings.TrimSpace(raw), "?") {
		return ContentQuestion
	}
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return ContentStatement
	}
	switch first := words[0]; {
	case interrogatives[first]:
		return ContentQuestion
	case imperatives[first]:
		return ContentCommand
	case acknowledgments[first]:
		return ContentAcknowledgment
	}
	return ContentStatement
}

// extractKeywords keeps distinct non-stopword tokens of the minimum length,
// in order of appearance.
func (t *Tracker) extractKeywords(normalized string) []string {
	seen := make(map[string]bool)
	keywords := make([]string, 0, t.config.MaxKeywords)
	for _, w := range strings.Fields(normalized) {
		if len(keywords) == t.config.MaxKeywords {
			break
		}
		if stopwords[w] || seen[w] || len([]rune(w)) < t.config.MinKeywordLength {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

func (t *Tracker) detectTopic(normalized string) string {
	padded := " " + normalized + " "
	for _, category := range topicCategories {
		for _, p := range category.phrases {
			if strings.Contains(padded, " "+p+" ") {
				return category.name
			}
		}
	}

	counts := make(map[string]int)
	var order []string
	for _, u := range t.units {
		for _, k := range u.TopicKeywords {
			if counts[k] == 0 {
				order = append(order, k)
			}
			counts[k]++
		}
	}
	best, bestCount := "", 1
	for _, k := range order {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func (t *Tracker) changeTopic(topic string) {
	from := t.topic
	t.topic = topic
	t.lastTopicChange = t.turns
	if from == "" {
		return
	}

	t.topicHistory = append(t.topicHistory, from)
	if over := len(t.topicHistory) - t.config.TopicHistorySize; over > 0 {
		t.topicHistory = append(t.topicHistory[:0:0], t.topicHistory[over:]...)
	}
	t.topicShifts++
	metrics.RecordTopicShift()
	t.logger.WithFields(logrus.Fields{"from": from, "to": topic}).Debug("Topic shift")
}

func (t *Tracker) updatePhase(lowered string) {
	for _, rule := range phaseRules {
		if rule.from != nil && !rule.from[t.phase] {
			continue
		}
		if !rule.pattern.MatchString(lowered) {
			continue
		}
		if rule.to != t.phase {
			metrics.RecordPhaseTransition(string(t.phase), string(rule.to))
			t.logger.WithFields(logrus.Fields{"from": t.phase, "to": rule.to}).Debug("Phase transition")
			t.phase = rule.to
		}
		return
	}
}

// updateCoherence smooths how many of the new keywords echo the last few units
func (t *Tracker) updateCoherence(keywords []string, previous []Unit) {
	if len(t.units) < 2 {
		t.coherence = 1.0
		return
	}

	score := 1.0
	if len(keywords) > 0 {
		overlap := 0
		for _, k := range keywords {
			if echoes(k, previous) {
				overlap++
			}
		}
		score = float64(overlap) / float64(len(keywords))
	}
	decay := t.config.CoherenceDecay
	t.coherence = decay*t.coherence + (1-decay)*score
}

func echoes(keyword string, units []Unit) bool {
	for _, u := range units {
		for _, k := range u.TopicKeywords {
			if strings.Contains(k, keyword) || strings.Contains(keyword, k) {
				return true
			}
		}
	}
	return false
}

func (t *Tracker) detectIntentPatterns(lowered string) {
	for _, rule := range intentPatternRules {
		if rule.pattern.MatchString(lowered) {
			t.intentPatterns = append(t.intentPatterns, rule.tag)
		}
	}
	if over := len(t.intentPatterns) - t.config.IntentPatterns; over > 0 {
		t.intentPatterns = append(t.intentPatterns[:0:0], t.intentPatterns[over:]...)
	}
}

// State returns a snapshot; slices are copies
func (t *Tracker) State() State {
	return State{
		Topic:           t.topic,
		Phase:           t.phase,
		Coherence:       t.coherence,
		TopicShiftCount: t.topicShifts,
		TurnCount:       t.turns,
		RecentUnits:     append([]Unit(nil), t.units...),
		IntentPatterns:  append([]string(nil), t.intentPatterns...),
	}
}

// Topic returns the current topic, empty when none was detected
func (t *Tracker) Topic() string {
	return t.topic
}

// Phase returns the current phase
func (t *Tracker) Phase() Phase {
	return t.phase
}

// TopicHistory returns previous topics, oldest first
func (t *Tracker) TopicHistory() []string {
	return append([]string(nil), t.topicHistory...)
}

// HasRecentTopicChange reports whether the topic changed within the last
// RecentTopicChangeTurns turns.
func (t *Tracker) HasRecentTopicChange() bool {
	return t.lastTopicChange > 0 && t.turns-t.lastTopicChange < t.config.RecentTopicChangeTurns
}

// UpdateConfig merges override into the live configuration
func (t *Tracker) UpdateConfig(override Config) {
	t.config = Merge(t.config, override)
	if over := len(t.units) - t.config.Capacity; over > 0 {
		t.units = append(t.units[:0:0], t.units[over:]...)
	}
}

// Reset returns the tracker to the start of a conversation
func (t *Tracker) Reset() {
	t.units = nil
	t.topic = ""
	t.topicHistory = nil
	t.phase = PhaseOpening
	t.coherence = 1.0
	t.topicShifts = 0
	t.turns = 0
	t.lastTopicChange = 0
	t.intentPatterns = nil
}
