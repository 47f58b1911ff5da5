package bargein

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/events"
	"duplex-server/pkg/metrics"
	"duplex-server/pkg/phrases"
)

// Urgency trends reported by AnalyzePatterns
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Statistics aggregates the classification history
type Statistics struct {
	Total              int                    `json:"total"`
	BackchannelRate    float64                `json:"backchannel_rate"`
	HardBargeRate      float64                `json:"hard_barge_rate"`
	AverageConfidence  float64                `json:"average_confidence"`
	MostCommonLanguage phrases.Language       `json:"most_common_language,omitempty"`
	Counts             map[Classification]int `json:"counts"`
}

// PatternAnalysis describes how the user's interruptions are trending
type PatternAnalysis struct {
	SampleSize       int      `json:"sample_size"`
	UrgencyTrend     string   `json:"urgency_trend"`
	FrustrationLevel float64  `json:"frustration_level"`
	Suggestions      []string `json:"suggestions"`
}

// Classifier is the barge-in entry point for one conversation. It keeps a
// bounded history of results, derives statistics from it and notifies
// subscribers of every classification.
type Classifier struct {
	logger   *logrus.Entry
	config   Config
	detector *BackchannelDetector
	intent   *IntentClassifier
	events   *events.Registry[Event]
	now      func() time.Time

	history []Result
}

// NewClassifier creates a classifier with cfg merged over the defaults
func NewClassifier(cfg Config, logger *logrus.Logger) *Classifier {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	merged := Merge(DefaultConfig(), cfg)
	detector := NewBackchannelDetector(merged, logger)

	return &Classifier{
		logger:   logger.WithField("component", "bargein_classifier"),
		config:   merged,
		detector: detector,
		intent:   NewIntentClassifier(merged, detector, logger),
		events:   events.NewRegistry[Event](logger, "bargein_events"),
		now:      time.Now,
		history:  make([]Result, 0, merged.HistorySize),
	}
}

// SetClock replaces the wall clock, for tests and replay
func (c *Classifier) SetClock(now func() time.Time) {
	c.now = now
	c.detector.now = now
	c.intent.now = now
}

// Classify classifies u, records the result and emits events
func (c *Classifier) Classify(u Utterance) Result {
	start := time.Now()
	result := c.intent.Classify(u)

	c.history = append(c.history, result)
	if over := len(c.history) - c.config.HistorySize; over > 0 {
		c.history = append(c.history[:0], c.history[over:]...)
	}

	metrics.RecordClassification(string(result.Classification), string(result.Intent), string(result.Language), time.Since(start))

	c.logger.WithFields(logrus.Fields{
		"classification": result.Classification,
		"intent":         result.Intent,
		"priority":       result.Priority.String(),
		"confidence":     result.Confidence,
		"action":         result.Action.Type,
	}).Debug("Utterance classified")

	c.events.Emit(ClassificationEvent{Result: result})

	if result.Metadata.RecentBackchannels >= c.config.EscalationThreshold {
		metrics.RecordEscalation(string(result.Language))
		c.logger.WithFields(logrus.Fields{
			"transcript": result.Transcript,
			"recent":     result.Metadata.RecentBackchannels,
		}).Info("Backchannel escalation")
		c.events.Emit(EscalationEvent{
			Transcript:         result.Transcript,
			RecentBackchannels: result.Metadata.RecentBackchannels,
			Threshold:          c.config.EscalationThreshold,
			Timestamp:          result.Timestamp,
		})
	}
	return result
}

// IsBackchannel runs only the backchannel detector. Matches count toward
// escalation like any other detection.
func (c *Classifier) IsBackchannel(transcript string, durationMs int, confidence float64) bool {
	return c.detector.Detect(transcript, durationMs, confidence).IsBackchannel
}

// RecommendedAction classifies u and returns only the recommended action
func (c *Classifier) RecommendedAction(u Utterance) Action {
	return c.Classify(u).Action
}

// OnEvent subscribes to classifier events and returns the unsubscribe func
func (c *Classifier) OnEvent(handler func(Event)) func() {
	return c.events.Subscribe(handler)
}

// Statistics summarizes the retained history
func (c *Classifier) Statistics() Statistics {
	stats := Statistics{Counts: make(map[Classification]int)}
	if len(c.history) == 0 {
		return stats
	}

	languages := make(map[phrases.Language]int)
	var confidence float64
	for _, r := range c.history {
		stats.Counts[r.Classification]++
		languages[r.Language]++
		confidence += r.Confidence
	}

	n := float64(len(c.history))
	stats.Total = len(c.history)
	stats.BackchannelRate = float64(stats.Counts[Backchannel]) / n
	stats.HardBargeRate = float64(stats.Counts[HardBarge]) / n
	stats.AverageConfidence = confidence / n

	best := 0
	for _, lang := range phrases.SupportedLanguages() {
		if languages[lang] > best {
			best, stats.MostCommonLanguage = languages[lang], lang
		}
	}
	return stats
}

// AnalyzePatterns inspects the most recent entries for rising urgency and
// signs of frustration.
func (c *Classifier) AnalyzePatterns() PatternAnalysis {
	recent := c.history
	if len(recent) > c.config.PatternWindow {
		recent = recent[len(recent)-c.config.PatternWindow:]
	}

	analysis := PatternAnalysis{
		SampleSize:   len(recent),
		UrgencyTrend: TrendStable,
		Suggestions:  []string{},
	}
	if len(recent) == 0 {
		return analysis
	}

	if len(recent) >= 2 {
		half := len(recent) / 2
		delta := meanRank(recent[half:]) - meanRank(recent[:half])
		switch {
		case delta > 0.5:
			analysis.UrgencyTrend = TrendIncreasing
		case delta < -0.5:
			analysis.UrgencyTrend = TrendDecreasing
		}
	}

	frustrated := 0
	for _, r := range recent {
		if r.Classification == Correction || r.Classification == HardBarge || r.Intent == phrases.IntentStop {
			frustrated++
		}
	}
	analysis.FrustrationLevel = float64(frustrated) / float64(len(recent))

	if analysis.FrustrationLevel > 0.3 {
		analysis.Suggestions = append(analysis.Suggestions,
			"Acknowledge the user's concern before continuing",
			"Clarify the previous response")
	}
	if analysis.FrustrationLevel > 0.5 {
		analysis.Suggestions = append(analysis.Suggestions,
			"Pause and offer help")
	}
	if analysis.UrgencyTrend == TrendIncreasing {
		analysis.Suggestions = append(analysis.Suggestions,
			"Use shorter responses",
			"Pause more frequently to let the user speak")
	}
	return analysis
}

func meanRank(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0
	for _, r := range results {
		total += r.Priority.Rank()
	}
	return float64(total) / float64(len(results))
}

// History returns a copy of the retained results, oldest first
func (c *Classifier) History() []Result {
	out := make([]Result, len(c.history))
	copy(out, c.history)
	return out
}

// SetLanguage switches phrase tables. Unsupported codes fall back to English.
func (c *Classifier) SetLanguage(lang phrases.Language) {
	from := c.config.Language
	to := phrases.ParseLanguage(string(lang))
	c.config.Language = to
	c.intent.SetLanguage(to)
	if from == to {
		return
	}

	c.logger.WithFields(logrus.Fields{"from": from, "to": to}).Info("Classifier language changed")
	c.events.Emit(LanguageChangedEvent{From: from, To: to, Timestamp: c.now()})
}

// Language returns the active language
func (c *Classifier) Language() phrases.Language {
	return c.config.Language
}

// UpdateConfig merges override into the live configuration of the
// classifier and its detector.
func (c *Classifier) UpdateConfig(override Config) {
	from := c.config.Language
	c.config = Merge(c.config, override)
	c.detector.UpdateConfig(override)
	c.intent.UpdateConfig(override)
	if over := len(c.history) - c.config.HistorySize; over > 0 {
		c.history = append(c.history[:0], c.history[over:]...)
	}
	if from != c.config.Language {
		c.events.Emit(LanguageChangedEvent{From: from, To: c.config.Language, Timestamp: c.now()})
	}
}

// Config returns the live configuration
func (c *Classifier) Config() Config {
	return c.config
}

// Reset clears history and escalation tracking. Subscribers and the active
// language are kept.
func (c *Classifier) Reset() {
	c.history = c.history[:0]
	c.detector.Reset()
	c.intent.Reset()
}
