package bargein

import (
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/phrases"
)

// IntentClassifier runs the classification cascade: commands, then
// backchannels and soft barges while the AI is speaking, then hard barges,
// corrections, clarifications, prosody and finally a duration default. The
// first stage that matches decides the result.
type IntentClassifier struct {
	logger   *logrus.Entry
	config   Config
	table    phrases.Table
	detector *BackchannelDetector
	seed     int64
	rng      *rand.Rand
	now      func() time.Time
}

// NewIntentClassifier creates a classifier sharing detector's escalation state
func NewIntentClassifier(cfg Config, detector *BackchannelDetector, logger *logrus.Logger) *IntentClassifier {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	merged := Merge(DefaultConfig(), cfg)
	if detector == nil {
		detector = NewBackchannelDetector(merged, logger)
	}
	seed := time.Now().UnixNano()
	return &IntentClassifier{
		logger:   logger.WithField("component", "intent_classifier"),
		config:   merged,
		table:    phrases.For(merged.Language),
		detector: detector,
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
	}
}

// Reset rewinds the acknowledgment phrase sequence so a replayed input
// sequence yields the same results.
func (c *IntentClassifier) Reset() {
	c.rng = rand.New(rand.NewSource(c.seed))
}

// Classify produces a result for u. It never fails: input that matches no
// rule is classified as unknown.
func (c *IntentClassifier) Classify(u Utterance) Result {
	start := time.Now()
	text := phrases.NormalizeText(u.Transcript)

	result := c.cascade(text, u)
	result.Language = c.config.Language
	result.Transcript = u.Transcript
	result.DurationMs = u.DurationMs
	result.Timestamp = c.now()
	result.Metadata.RecentBackchannels = c.detector.RecentCount()
	result.Metadata.ProsodicUrgency = c.prosodicUrgency(u.Features)
	result.Action = c.determineAction(result.Classification, result.Intent, result.Priority)
	result.Metadata.ProcessingTimeMicros = time.Since(start).Microseconds()
	return result
}

func (c *IntentClassifier) cascade(text string, u Utterance) Result {
	if r, ok := c.matchCommand(text); ok {
		return r
	}

	if u.DuringAISpeech {
		bc := c.detector.Detect(u.Transcript, u.DurationMs, u.VADProbability)
		switch {
		case bc.IsBackchannel:
			return Result{
				Classification: Backchannel,
				Intent:         phrases.IntentAcknowledge,
				Priority:       phrases.PriorityLow,
				Confidence:     bc.Confidence,
				Metadata:       Metadata{MatchedPhrase: bc.MatchedPhrase, FuzzySimilarity: bc.Similarity},
			}
		case bc.ShouldEscalate:
			return Result{
				Classification: HardBarge,
				Intent:         phrases.IntentStop,
				Priority:       phrases.PriorityHigh,
				Confidence:     0.9,
				Metadata:       Metadata{MatchedPhrase: bc.MatchedPhrase, EscalationTriggered: true},
			}
		}
		if sb := c.detector.DetectSoftBarge(u.Transcript); sb.IsSoftBarge {
			return Result{
				Classification: SoftBarge,
				Intent:         phrases.IntentPause,
				Priority:       phrases.PriorityMedium,
				Confidence:     0.8,
				Metadata:       Metadata{MatchedPhrase: sb.MatchedPhrase, RequiresFollowUp: sb.RequiresFollowUp},
			}
		}
	}

	if r, ok := c.matchHardBarge(text); ok {
		return r
	}

	if phrase, ok := containsAny(text, c.table.Corrections); ok {
		return Result{
			Classification: Correction,
			Intent:         phrases.IntentCorrect,
			Priority:       phrases.PriorityHigh,
			Confidence:     0.85,
			Metadata:       Metadata{MatchedPhrase: phrase},
		}
	}

	if phrase, ok := containsAny(text, c.table.Clarifications); ok {
		return Result{
			Classification: Clarification,
			Intent:         phrases.IntentClarify,
			Priority:       phrases.PriorityMedium,
			Confidence:     0.8,
			Metadata:       Metadata{MatchedPhrase: phrase},
		}
	}

	if c.config.prosodyEnabled() && u.Features != nil {
		if r, ok := c.classifyProsody(u); ok {
			return r
		}
	}

	if u.DuringAISpeech && u.duration() > c.config.MinHardBargeDuration {
		return Result{
			Classification: SoftBarge,
			Intent:         phrases.IntentPause,
			Priority:       phrases.PriorityMedium,
			Confidence:     0.6,
		}
	}
	return Result{
		Classification: Unknown,
		Intent:         phrases.IntentUncertain,
		Priority:       phrases.PriorityMedium,
		Confidence:     0.5,
	}
}

func (c *IntentClassifier) matchCommand(text string) (Result, bool) {
	var (
		best    phrases.CommandPattern
		matched string
	)
	for _, p := range c.table.Commands {
		for _, phrase := range p.Phrases {
			if len(phrase) > len(matched) && phrases.MatchesPhrase(text, phrase) {
				best, matched = p, phrase
			}
		}
	}
	if matched == "" {
		return Result{}, false
	}
	return Result{
		Classification: Command,
		Intent:         best.Intent,
		Priority:       best.Priority,
		Confidence:     1.0,
		Metadata:       Metadata{MatchedPhrase: matched, CommandType: string(best.CommandType)},
	}, true
}

func (c *IntentClassifier) matchHardBarge(text string) (Result, bool) {
	var (
		best    phrases.HardBargePattern
		matched string
	)
	for _, p := range c.table.HardBarges {
		for _, phrase := range p.Phrases {
			if len(phrase) > len(matched) && phrases.MatchesPhrase(text, phrase) {
				best, matched = p, phrase
			}
		}
	}
	if matched == "" {
		return Result{}, false
	}
	return Result{
		Classification: HardBarge,
		Intent:         best.Intent,
		Priority:       best.Priority,
		Confidence:     0.9,
		Metadata:       Metadata{MatchedPhrase: matched},
	}, true
}

func (c *IntentClassifier) classifyProsody(u Utterance) (Result, bool) {
	f := u.Features
	p := c.config.Prosody
	d := u.duration()

	switch {
	case f.RisingIntonation && d > p.RisingIntonationMinDuration:
		return Result{
			Classification: Clarification,
			Intent:         phrases.IntentAskQuestion,
			Priority:       phrases.PriorityMedium,
			Confidence:     0.7,
		}, true
	case c.prosodicUrgency(f):
		class := HardBarge
		if !u.DuringAISpeech {
			class = Command
		}
		return Result{
			Classification: class,
			Intent:         phrases.IntentStop,
			Priority:       phrases.PriorityHigh,
			Confidence:     0.75,
		}, true
	case u.DuringAISpeech && d < p.ShortUtterance && f.PitchVariance < p.LowPitchVariance:
		return Result{
			Classification: Backchannel,
			Intent:         phrases.IntentAcknowledge,
			Priority:       phrases.PriorityLow,
			Confidence:     0.65,
		}, true
	}
	return Result{}, false
}

// prosodicUrgency is true for loud, fast speech
func (c *IntentClassifier) prosodicUrgency(f *AudioFeatures) bool {
	if f == nil {
		return false
	}
	return f.AvgVolume > c.config.Prosody.HighVolume && f.SpeakingRate > c.config.Prosody.FastSpeakingRate
}

// determineAction maps a classification onto the reaction the dialogue layer
// should take. Unknown input lands in the priority-based default: medium
// priority waits, low continues and anything higher yields.
func (c *IntentClassifier) determineAction(class Classification, intent phrases.Intent, priority phrases.Priority) Action {
	switch class {
	case Backchannel:
		return Action{Type: ActionAcknowledge}
	case SoftBarge:
		return Action{
			Type:              ActionPause,
			PauseDurationMs:   int(c.config.SoftBargePause.Milliseconds()),
			ShouldSaveContext: true,
		}
	case HardBarge, Command:
		action := Action{
			Type:                 ActionYield,
			ShouldAcknowledge:    true,
			AcknowledgmentPhrase: c.acknowledgment(),
			ShouldSaveContext:    true,
		}
		if intent == phrases.IntentStop {
			action.Type = ActionStop
		}
		return action
	case Correction:
		return Action{
			Type:                 ActionStop,
			ShouldAcknowledge:    true,
			AcknowledgmentPhrase: c.acknowledgment(),
			ShouldSaveContext:    true,
		}
	case Clarification:
		return Action{
			Type:                 ActionRespond,
			ShouldAcknowledge:    true,
			AcknowledgmentPhrase: c.acknowledgment(),
			ShouldSaveContext:    true,
		}
	case TopicChange:
		return Action{Type: ActionYield, ShouldSaveContext: true}
	case Agreement:
		return Action{Type: ActionContinue}
	case Disagreement:
		return Action{Type: ActionPause, ShouldSaveContext: true}
	}

	switch priority {
	case phrases.PriorityLow:
		return Action{Type: ActionContinue}
	case phrases.PriorityMedium:
		return Action{Type: ActionWait}
	default:
		return Action{Type: ActionYield, ShouldSaveContext: true}
	}
}

func (c *IntentClassifier) acknowledgment() string {
	acks := c.table.Acknowledgments
	if len(acks) == 0 {
		return ""
	}
	return acks[c.rng.Intn(len(acks))]
}

// SetLanguage switches the phrase tables of the classifier and its detector
func (c *IntentClassifier) SetLanguage(lang phrases.Language) {
	c.config.Language = phrases.ParseLanguage(string(lang))
	c.table = phrases.For(c.config.Language)
	c.detector.SetLanguage(c.config.Language)
}

// UpdateConfig merges override into the live configuration
func (c *IntentClassifier) UpdateConfig(override Config) {
	c.config = Merge(c.config, override)
	c.table = phrases.For(c.config.Language)
}

// Language returns the active language
func (c *IntentClassifier) Language() phrases.Language {
	return c.config.Language
}

func containsAny(text string, list []string) (string, bool) {
	for _, phrase := range list {
		if phrases.ContainsPhrase(text, phrase) {
			return phrase, true
		}
	}
	return "", false
}
