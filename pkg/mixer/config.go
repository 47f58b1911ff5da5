package mixer

import "time"

// Config tunes the mixer's gain automation
type Config struct {
	FadeDuration   time.Duration `json:"fade_duration" yaml:"fade_duration"`
	DuckedVolume   float64       `json:"ducked_volume" yaml:"ducked_volume"`
	SidetoneVolume float64       `json:"sidetone_volume" yaml:"sidetone_volume"`
	// SidetoneEnabled is a pointer so an override can switch it on or off
	SidetoneEnabled *bool   `json:"sidetone_enabled,omitempty" yaml:"sidetone_enabled,omitempty"`
	UserVolume      float64 `json:"user_volume" yaml:"user_volume"`
	AiVolume        float64 `json:"ai_volume" yaml:"ai_volume"`
	MasterVolume    float64 `json:"master_volume" yaml:"master_volume"`
}

// Bool returns a pointer to v
func Bool(v bool) *bool {
	return &v
}

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		FadeDuration:    150 * time.Millisecond,
		DuckedVolume:    0.2,
		SidetoneVolume:  0.1,
		SidetoneEnabled: Bool(false),
		UserVolume:      1.0,
		AiVolume:        1.0,
		MasterVolume:    1.0,
	}
}

// Merge overlays the non-zero fields of override onto base. Volumes clamp to
// [0,1] and the fade duration floors at 1ms.
func Merge(base, override Config) Config {
	out := base
	if override.FadeDuration != 0 {
		out.FadeDuration = override.FadeDuration
	}
	if override.DuckedVolume != 0 {
		out.DuckedVolume = override.DuckedVolume
	}
	if override.SidetoneVolume != 0 {
		out.SidetoneVolume = override.SidetoneVolume
	}
	if override.SidetoneEnabled != nil {
		out.SidetoneEnabled = Bool(*override.SidetoneEnabled)
	} else if out.SidetoneEnabled != nil {
		out.SidetoneEnabled = Bool(*out.SidetoneEnabled)
	} else {
		out.SidetoneEnabled = Bool(false)
	}
	if override.UserVolume != 0 {
		out.UserVolume = override.UserVolume
	}
	if override.AiVolume != 0 {
		out.AiVolume = override.AiVolume
	}
	if override.MasterVolume != 0 {
		out.MasterVolume = override.MasterVolume
	}

	if out.FadeDuration < time.Millisecond {
		out.FadeDuration = time.Millisecond
	}
	out.DuckedVolume = clamp01(out.DuckedVolume)
	out.SidetoneVolume = clamp01(out.SidetoneVolume)
	out.UserVolume = clamp01(out.UserVolume)
	out.AiVolume = clamp01(out.AiVolume)
	out.MasterVolume = clamp01(out.MasterVolume)
	return out
}

func (c Config) sidetoneOn() bool {
	return c.SidetoneEnabled != nil && *c.SidetoneEnabled
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
