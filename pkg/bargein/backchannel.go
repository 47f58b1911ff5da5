package bargein

import (
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/phrases"
)

// BackchannelResult is the outcome of a backchannel check
type BackchannelResult struct {
	IsBackchannel  bool    `json:"is_backchannel"`
	Confidence     float64 `json:"confidence"`
	MatchedPhrase  string  `json:"matched_phrase,omitempty"`
	Similarity     float64 `json:"similarity,omitempty"`
	ShouldEscalate bool    `json:"should_escalate"`
	RecentCount    int     `json:"recent_count"`
}

// SoftBargeResult is the outcome of a soft-barge prefix check
type SoftBargeResult struct {
	IsSoftBarge      bool   `json:"is_soft_barge"`
	MatchedPhrase    string `json:"matched_phrase,omitempty"`
	RequiresFollowUp bool   `json:"requires_follow_up"`
}

// BackchannelDetector tells acknowledgments ("uh huh", "right") apart from
// attempts to take the floor. It remembers when each phrase was last heard so
// that a burst of acknowledgments escalates into an interruption.
//
// A detector belongs to one conversation and is not safe for concurrent use.
type BackchannelDetector struct {
	logger *logrus.Entry
	config Config
	table  phrases.Table
	now    func() time.Time

	// matched phrase -> detection times, oldest first
	recent map[string][]time.Time
}

// NewBackchannelDetector creates a detector with cfg merged over the defaults
func NewBackchannelDetector(cfg Config, logger *logrus.Logger) *BackchannelDetector {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	merged := Merge(DefaultConfig(), cfg)
	return &BackchannelDetector{
		logger: logger.WithField("component", "backchannel_detector"),
		config: merged,
		table:  phrases.For(merged.Language),
		now:    time.Now,
		recent: make(map[string][]time.Time),
	}
}

// Detect checks whether transcript is a backchannel. Utterances longer than
// the configured maximum are rejected before any matching.
func (d *BackchannelDetector) Detect(transcript string, durationMs int, confidence float64) BackchannelResult {
	duration := time.Duration(durationMs) * time.Millisecond
	if duration > d.config.MaxBackchannelDuration {
		return BackchannelResult{RecentCount: d.RecentCount()}
	}

	text := phrases.NormalizeText(transcript)
	if text == "" {
		return BackchannelResult{RecentCount: d.RecentCount()}
	}

	pattern, phrase, sim := d.exactMatch(text, duration)
	if phrase == "" && d.config.fuzzyEnabled() {
		pattern, phrase, sim = d.fuzzyMatch(text, duration)
	}
	if phrase == "" {
		return BackchannelResult{RecentCount: d.RecentCount()}
	}

	multiplier := pattern.ConfidenceMultiplier
	if multiplier == 0 {
		multiplier = 1
	}
	durationFactor := clamp01(0.7 + 0.3*(1-float64(durationMs)/1000))
	score := clamp01(clamp01(confidence) * durationFactor * multiplier * sim)

	count := d.track(phrase)
	escalate := count >= d.config.EscalationThreshold

	result := BackchannelResult{
		IsBackchannel:  score >= d.config.MinConfidence && !escalate,
		Confidence:     score,
		MatchedPhrase:  phrase,
		Similarity:     sim,
		ShouldEscalate: escalate,
		RecentCount:    d.RecentCount(),
	}

	if escalate {
		d.logger.WithFields(logrus.Fields{
			"phrase":    phrase,
			"count":     count,
			"window_ms": d.config.EscalationWindow.Milliseconds(),
		}).Debug("Repeated backchannel escalated")
	}
	return result
}

// DetectSoftBarge matches the start of transcript against the soft-barge
// openers. Duration plays no part.
func (d *BackchannelDetector) DetectSoftBarge(transcript string) SoftBargeResult {
	text := phrases.NormalizeText(transcript)

	var best SoftBargeResult
	for _, p := range d.table.SoftBarges {
		for _, phrase := range p.Phrases {
			if len(phrase) <= len(best.MatchedPhrase) || !phrases.StartsWithPhrase(text, phrase) {
				continue
			}
			best = SoftBargeResult{
				IsSoftBarge:      true,
				MatchedPhrase:    phrase,
				RequiresFollowUp: p.RequiresFollowUp,
			}
		}
	}
	return best
}

// exactMatch returns the longest phrase the text equals or starts with
func (d *BackchannelDetector) exactMatch(text string, duration time.Duration) (phrases.BackchannelPattern, string, float64) {
	var (
		bestPattern phrases.BackchannelPattern
		best        string
	)
	for _, p := range d.table.Backchannels {
		if p.MaxDuration > 0 && duration > p.MaxDuration {
			continue
		}
		for _, phrase := range p.Phrases {
			if len(phrase) > len(best) && phrases.StartsWithPhrase(text, phrase) {
				bestPattern, best = p, phrase
			}
		}
	}
	if best == "" {
		return bestPattern, "", 0
	}
	return bestPattern, best, 1
}

func (d *BackchannelDetector) fuzzyMatch(text string, duration time.Duration) (phrases.BackchannelPattern, string, float64) {
	var (
		bestPattern phrases.BackchannelPattern
		best        string
		bestSim     float64
	)
	for _, p := range d.table.Backchannels {
		if p.MaxDuration > 0 && duration > p.MaxDuration {
			continue
		}
		for _, phrase := range p.Phrases {
			if sim := similarity(text, phrase); sim > bestSim {
				bestPattern, best, bestSim = p, phrase, sim
			}
		}
	}
	if bestSim < d.config.FuzzyThreshold {
		return bestPattern, "", 0
	}
	return bestPattern, best, bestSim
}

// track records a detection of phrase, prunes every phrase's history to the
// escalation window and returns how often phrase was seen inside it.
func (d *BackchannelDetector) track(phrase string) int {
	now := d.now()
	last := d.recent[phrase]
	// keep timestamps non-decreasing if the clock steps backwards
	if n := len(last); n > 0 && now.Before(last[n-1]) {
		now = last[n-1]
	}
	d.recent[phrase] = append(last, now)
	d.prune(now)
	return len(d.recent[phrase])
}

func (d *BackchannelDetector) prune(now time.Time) {
	cutoff := now.Add(-d.config.EscalationWindow)
	for phrase, times := range d.recent {
		i := sort.Search(len(times), func(i int) bool { return times[i].After(cutoff) })
		if i == len(times) {
			delete(d.recent, phrase)
			continue
		}
		if i > 0 {
			d.recent[phrase] = append(times[:0:0], times[i:]...)
		}
	}
}

// RecentCount returns the number of backchannel detections inside the
// escalation window, across all phrases.
func (d *BackchannelDetector) RecentCount() int {
	d.prune(d.now())
	total := 0
	for _, times := range d.recent {
		total += len(times)
	}
	return total
}

// SetLanguage switches the phrase table; unsupported languages use English
func (d *BackchannelDetector) SetLanguage(lang phrases.Language) {
	d.config.Language = phrases.ParseLanguage(string(lang))
	d.table = phrases.For(d.config.Language)
}

// UpdateConfig merges override into the live configuration
func (d *BackchannelDetector) UpdateConfig(override Config) {
	d.config = Merge(d.config, override)
	d.table = phrases.For(d.config.Language)
}

// Config returns the live configuration
func (d *BackchannelDetector) Config() Config {
	return d.config
}

// Reset forgets every recorded detection
func (d *BackchannelDetector) Reset() {
	d.recent = make(map[string][]time.Time)
}
