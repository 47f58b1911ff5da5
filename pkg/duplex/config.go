package duplex

import (
	"time"

	"duplex-server/pkg/mixer"
)

// Config tunes overlap resolution and the mixer it drives
type Config struct {
	// MinVADConfidence is the voice probability below which overlapping user
	// audio is treated as noise
	MinVADConfidence float64 `json:"min_vad_confidence" yaml:"min_vad_confidence"`
	// MinOverlap is how long both parties must talk before an unclassified
	// overlap ducks the AI
	MinOverlap time.Duration `json:"min_overlap" yaml:"min_overlap"`
	// InterruptAfter is how long an overlap may last before the AI is cut off
	InterruptAfter         time.Duration `json:"interrupt_after" yaml:"interrupt_after"`
	InterruptVADConfidence float64       `json:"interrupt_vad_confidence" yaml:"interrupt_vad_confidence"`
	// SoftBargeVolume is the AI gain while the user is politely cutting in
	SoftBargeVolume float64      `json:"soft_barge_volume" yaml:"soft_barge_volume"`
	Mixer           mixer.Config `json:"mixer" yaml:"mixer"`
}

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		MinVADConfidence:       0.5,
		MinOverlap:             200 * time.Millisecond,
		InterruptAfter:         800 * time.Millisecond,
		InterruptVADConfidence: 0.7,
		SoftBargeVolume:        0.3,
		Mixer:                  mixer.DefaultConfig(),
	}
}

// Merge overlays the non-zero fields of override onto base and clamps the
// result
func Merge(base, override Config) Config {
	out := base
	if override.MinVADConfidence != 0 {
		out.MinVADConfidence = override.MinVADConfidence
	}
	if override.MinOverlap != 0 {
		out.MinOverlap = override.MinOverlap
	}
	if override.InterruptAfter != 0 {
		out.InterruptAfter = override.InterruptAfter
	}
	if override.InterruptVADConfidence != 0 {
		out.InterruptVADConfidence = override.InterruptVADConfidence
	}
	if override.SoftBargeVolume != 0 {
		out.SoftBargeVolume = override.SoftBargeVolume
	}
	out.Mixer = mixer.Merge(out.Mixer, override.Mixer)

	out.MinVADConfidence = clamp01(out.MinVADConfidence)
	out.InterruptVADConfidence = clamp01(out.InterruptVADConfidence)
	out.SoftBargeVolume = clamp01(out.SoftBargeVolume)
	if out.MinOverlap < time.Millisecond {
		out.MinOverlap = time.Millisecond
	}
	if out.InterruptAfter < out.MinOverlap {
		out.InterruptAfter = out.MinOverlap
	}
	return out
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
