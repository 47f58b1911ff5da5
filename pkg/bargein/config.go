package bargein

import (
	"time"

	"duplex-server/pkg/phrases"
)

// ProsodyConfig holds the thresholds used when audio features are supplied
type ProsodyConfig struct {
	RisingIntonationMinDuration time.Duration `json:"rising_intonation_min_duration" yaml:"rising_intonation_min_duration"`
	HighVolume                  float64       `json:"high_volume" yaml:"high_volume"`
	FastSpeakingRate            float64       `json:"fast_speaking_rate" yaml:"fast_speaking_rate"`
	ShortUtterance              time.Duration `json:"short_utterance" yaml:"short_utterance"`
	LowPitchVariance            float64       `json:"low_pitch_variance" yaml:"low_pitch_variance"`
}

// Config tunes backchannel detection and intent classification
type Config struct {
	Language               phrases.Language `json:"language" yaml:"language"`
	MaxBackchannelDuration time.Duration    `json:"max_backchannel_duration" yaml:"max_backchannel_duration"`
	MinConfidence          float64          `json:"min_confidence" yaml:"min_confidence"`
	// FuzzyMatching is a pointer so an override can switch it off
	FuzzyMatching        *bool         `json:"fuzzy_matching,omitempty" yaml:"fuzzy_matching,omitempty"`
	FuzzyThreshold       float64       `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	EscalationWindow     time.Duration `json:"escalation_window" yaml:"escalation_window"`
	EscalationThreshold  int           `json:"escalation_threshold" yaml:"escalation_threshold"`
	MinHardBargeDuration time.Duration `json:"min_hard_barge_duration" yaml:"min_hard_barge_duration"`
	ProsodicAnalysis     *bool         `json:"prosodic_analysis,omitempty" yaml:"prosodic_analysis,omitempty"`
	SoftBargePause       time.Duration `json:"soft_barge_pause" yaml:"soft_barge_pause"`
	HistorySize          int           `json:"history_size" yaml:"history_size"`
	PatternWindow        int           `json:"pattern_window" yaml:"pattern_window"`
	Prosody              ProsodyConfig `json:"prosody" yaml:"prosody"`
}

// Bool returns a pointer to v, for optional config switches
func Bool(v bool) *bool {
	return &v
}

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		Language:               phrases.DefaultLanguage,
		MaxBackchannelDuration: 800 * time.Millisecond,
		MinConfidence:          0.6,
		FuzzyMatching:          Bool(true),
		FuzzyThreshold:         0.8,
		EscalationWindow:       5 * time.Second,
		EscalationThreshold:    3,
		MinHardBargeDuration:   300 * time.Millisecond,
		ProsodicAnalysis:       Bool(true),
		SoftBargePause:         1500 * time.Millisecond,
		HistorySize:            20,
		PatternWindow:          10,
		Prosody: ProsodyConfig{
			RisingIntonationMinDuration: 500 * time.Millisecond,
			HighVolume:                  0.7,
			FastSpeakingRate:            4.5,
			ShortUtterance:              400 * time.Millisecond,
			LowPitchVariance:            0.15,
		},
	}
}

// Merge overlays the non-zero fields of override onto base and clamps the
// result. Neither argument is modified.
func Merge(base, override Config) Config {
	out := base

	if override.Language != "" {
		out.Language = override.Language
	}
	out.Language = phrases.ParseLanguage(string(out.Language))

	out.MaxBackchannelDuration = pickDuration(out.MaxBackchannelDuration, override.MaxBackchannelDuration)
	out.MinConfidence = pickFloat(out.MinConfidence, override.MinConfidence)
	if override.FuzzyMatching != nil {
		out.FuzzyMatching = Bool(*override.FuzzyMatching)
	}
	out.FuzzyThreshold = pickFloat(out.FuzzyThreshold, override.FuzzyThreshold)
	out.EscalationWindow = pickDuration(out.EscalationWindow, override.EscalationWindow)
	out.EscalationThreshold = pickInt(out.EscalationThreshold, override.EscalationThreshold)
	out.MinHardBargeDuration = pickDuration(out.MinHardBargeDuration, override.MinHardBargeDuration)
	if override.ProsodicAnalysis != nil {
		out.ProsodicAnalysis = Bool(*override.ProsodicAnalysis)
	}
	out.SoftBargePause = pickDuration(out.SoftBargePause, override.SoftBargePause)
	out.HistorySize = pickInt(out.HistorySize, override.HistorySize)
	out.PatternWindow = pickInt(out.PatternWindow, override.PatternWindow)

	p := &out.Prosody
	p.RisingIntonationMinDuration = pickDuration(p.RisingIntonationMinDuration, override.Prosody.RisingIntonationMinDuration)
	p.HighVolume = pickFloat(p.HighVolume, override.Prosody.HighVolume)
	p.FastSpeakingRate = pickFloat(p.FastSpeakingRate, override.Prosody.FastSpeakingRate)
	p.ShortUtterance = pickDuration(p.ShortUtterance, override.Prosody.ShortUtterance)
	p.LowPitchVariance = pickFloat(p.LowPitchVariance, override.Prosody.LowPitchVariance)

	out.MinConfidence = clamp01(out.MinConfidence)
	out.FuzzyThreshold = clamp01(out.FuzzyThreshold)
	p.HighVolume = clamp01(p.HighVolume)
	p.LowPitchVariance = clamp01(p.LowPitchVariance)
	if p.FastSpeakingRate < 0 {
		p.FastSpeakingRate = 0
	}
	if out.FuzzyMatching == nil {
		out.FuzzyMatching = Bool(true)
	}
	if out.ProsodicAnalysis == nil {
		out.ProsodicAnalysis = Bool(true)
	}
	out.MaxBackchannelDuration = floorDuration(out.MaxBackchannelDuration)
	out.EscalationWindow = floorDuration(out.EscalationWindow)
	out.EscalationThreshold = floorInt(out.EscalationThreshold)
	out.HistorySize = floorInt(out.HistorySize)
	out.PatternWindow = floorInt(out.PatternWindow)
	return out
}

func (c Config) fuzzyEnabled() bool {
	return c.FuzzyMatching == nil || *c.FuzzyMatching
}

func (c Config) prosodyEnabled() bool {
	return c.ProsodicAnalysis == nil || *c.ProsodicAnalysis
}

func pickDuration(base, override time.Duration) time.Duration {
	if override != 0 {
		return override
	}
	return base
}

func pickFloat(base, override float64) float64 {
	if override != 0 {
		return override
	}
	return base
}

func pickInt(base, override int) int {
	if override != 0 {
		return override
	}
	return base
}

func floorDuration(d time.Duration) time.Duration {
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

func floorInt(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
