package mixer

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/errors"
	"duplex-server/pkg/metrics"
)

// Mixer operations, as counted in Stats and in metrics
const (
	OpDuck      = "duck"
	OpRestore   = "restore"
	OpFade      = "fade"
	OpInterrupt = "interrupt"
)

// levelSmoothing is the weight of the previous level in the running average
const levelSmoothing = 0.95

// ChannelState is the nominal volume and mute flag of one channel
type ChannelState struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// Snapshot is the observable mixer state
type Snapshot struct {
	User            ChannelState `json:"user"`
	Ai              ChannelState `json:"ai"`
	MasterVolume    float64      `json:"master_volume"`
	SidetoneEnabled bool         `json:"sidetone_enabled"`
	SidetoneVolume  float64      `json:"sidetone_volume"`
	AiDucked        bool         `json:"ai_ducked"`
	Initialized     bool         `json:"initialized"`
}

// Stats counts mixer activity
type Stats struct {
	DuckCount      int     `json:"duck_count"`
	RestoreCount   int     `json:"restore_count"`
	FadeCount      int     `json:"fade_count"`
	InterruptCount int     `json:"interrupt_count"`
	SamplesMixed   int64   `json:"samples_mixed"`
	SoftClipped    int64   `json:"soft_clipped"`
	UserLevel      float64 `json:"user_level"`
	AiLevel        float64 `json:"ai_level"`
}

// Mixer controls the gain graph of one conversation:
//
//	user input -> user gain -> sidetone gain -> master gain -> destination
//	ai input   -> ai gain   ----------------->  master gain
//
// Every gain-changing call fails with ErrNotInitialized before Initialize and
// after Dispose.
type Mixer struct {
	logger *logrus.Entry
	config Config

	// Graph handles
	graph    Graph
	user     NodeID
	sidetone NodeID
	ai       NodeID
	master   NodeID
	inputs   []NodeID

	// State
	userState   ChannelState
	aiState     ChannelState
	masterVol   float64
	sidetoneOn  bool
	sidetoneVol float64
	ducked      bool
	duckedGain  float64 // AI gain scheduled by the last duck, fade or interrupt
	stats       Stats

	mu sync.Mutex
}

// NewMixer creates an uninitialized mixer with cfg merged over the defaults
func NewMixer(cfg Config, logger *logrus.Logger) *Mixer {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	merged := Merge(DefaultConfig(), cfg)
	m := &Mixer{
		logger: logger.WithField("component", "mixer"),
		config: merged,
	}
	m.resetState()
	return m
}

func (m *Mixer) resetState() {
	m.userState = ChannelState{Volume: m.config.UserVolume}
	m.aiState = ChannelState{Volume: m.config.AiVolume}
	m.masterVol = m.config.MasterVolume
	m.sidetoneOn = m.config.sidetoneOn()
	m.sidetoneVol = m.config.SidetoneVolume
	m.ducked = false
	m.duckedGain = 0
}

// Initialize builds the gain graph on g. Calling it again without an
// intervening Dispose fails with ErrAlreadyInitialized.
func (m *Mixer) Initialize(g Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.graph != nil {
		return errors.NewAlreadyInitialized("mixer")
	}
	if g == nil {
		return errors.NewInvalidInput("audio graph is required")
	}

	user, err := g.CreateGain(effective(m.userState))
	if err != nil {
		return errors.Wrap(err, "failed to create user gain")
	}
	sidetone, err := g.CreateGain(m.sidetoneGain())
	if err != nil {
		return errors.Wrap(err, "failed to create sidetone gain")
	}
	ai, err := g.CreateGain(effective(m.aiState))
	if err != nil {
		return errors.Wrap(err, "failed to create ai gain")
	}
	master, err := g.CreateGain(m.masterVol)
	if err != nil {
		return errors.Wrap(err, "failed to create master gain")
	}

	links := [][2]NodeID{
		{user, sidetone},
		{sidetone, master},
		{ai, master},
		{master, g.Destination()},
	}
	for _, l := range links {
		if err := g.Connect(l[0], l[1]); err != nil {
			return errors.Wrap(err, "failed to connect mixer graph").
				WithFields(map[string]interface{}{"from": l[0], "to": l[1]})
		}
	}

	m.graph = g
	m.user, m.sidetone, m.ai, m.master = user, sidetone, ai, master
	m.logger.Debug("Mixer graph initialized")
	return nil
}

// IsInitialized reports whether the graph is live
func (m *Mixer) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph != nil
}

func (m *Mixer) ready() error {
	if m.graph == nil {
		return errors.NewNotInitialized("mixer")
	}
	return nil
}

// ConnectUserStream routes a microphone source into the user channel
func (m *Mixer) ConnectUserStream(source NodeID) error {
	return m.connectInput(source, func() NodeID { return m.user })
}

// ConnectAiStream routes a synthesized speech source into the AI channel
func (m *Mixer) ConnectAiStream(source NodeID) error {
	return m.connectInput(source, func() NodeID { return m.ai })
}

func (m *Mixer) connectInput(source NodeID, target func() NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.graph.Connect(source, target()); err != nil {
		return errors.Wrap(err, "failed to connect input stream")
	}
	m.inputs = append(m.inputs, source)
	return nil
}

// SetUserVolume sets the user channel volume, clamped to [0,1]
func (m *Mixer) SetUserVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.userState.Volume = clamp01(v)
	return m.graph.SetGain(m.user, effective(m.userState))
}

// UserVolume returns the nominal user volume
func (m *Mixer) UserVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userState.Volume
}

// SetAiVolume sets the nominal AI volume, clamped to [0,1], and applies it
// immediately. A pending duck or fade is cancelled.
func (m *Mixer) SetAiVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.aiState.Volume = clamp01(v)
	m.ducked = false
	return m.graph.SetGain(m.ai, effective(m.aiState))
}

// AiVolume returns the nominal AI volume
func (m *Mixer) AiVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aiState.Volume
}

// AiGain returns the AI gain at this instant, including any ramp in flight
func (m *Mixer) AiGain() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return 0, err
	}
	return m.graph.Gain(m.ai)
}

// SetMasterVolume sets the output volume, clamped to [0,1]
func (m *Mixer) SetMasterVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.masterVol = clamp01(v)
	return m.graph.SetGain(m.master, m.masterVol)
}

// MuteUser silences the user channel without touching its volume
func (m *Mixer) MuteUser() error { return m.setUserMuted(true) }

// UnmuteUser restores the user channel to its volume
func (m *Mixer) UnmuteUser() error { return m.setUserMuted(false) }

// MuteAi silences the AI channel without touching its volume
func (m *Mixer) MuteAi() error { return m.setAiMuted(true) }

// UnmuteAi restores the AI channel to its volume
func (m *Mixer) UnmuteAi() error { return m.setAiMuted(false) }

func (m *Mixer) setUserMuted(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.userState.Muted = muted
	return m.graph.SetGain(m.user, effective(m.userState))
}

func (m *Mixer) setAiMuted(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.aiState.Muted = muted
	m.ducked = false
	return m.graph.SetGain(m.ai, effective(m.aiState))
}

// SetSidetoneEnabled switches the user's monitor feed on or off
func (m *Mixer) SetSidetoneEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.sidetoneOn = enabled
	return m.graph.SetGain(m.sidetone, m.sidetoneGain())
}

// SetSidetoneVolume scales the user's monitor feed, clamped to [0,1]
func (m *Mixer) SetSidetoneVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	m.sidetoneVol = clamp01(v)
	return m.graph.SetGain(m.sidetone, m.sidetoneGain())
}

// DuckAiAudio ramps the AI channel down to the ducked volume
func (m *Mixer) DuckAiAudio() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	target := m.config.DuckedVolume
	if m.aiState.Muted {
		target = 0
	}
	if err := m.ramp(target, m.config.FadeDuration, OpDuck); err != nil {
		return err
	}
	m.ducked = true
	m.duckedGain = target
	m.stats.DuckCount++
	return nil
}

// RestoreAiAudio ramps the AI channel back to its nominal volume
func (m *Mixer) RestoreAiAudio() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.ramp(effective(m.aiState), m.config.FadeDuration, OpRestore); err != nil {
		return err
	}
	m.ducked = false
	m.stats.RestoreCount++
	return nil
}

// FadeAiVolumeTo ramps the AI channel to target over duration. A
// non-positive duration uses the configured fade duration.
func (m *Mixer) FadeAiVolumeTo(target float64, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if duration <= 0 {
		duration = m.config.FadeDuration
	}
	target = clamp01(target)
	if m.aiState.Muted {
		target = 0
	}
	if err := m.ramp(target, duration, OpFade); err != nil {
		return err
	}
	m.ducked = target < effective(m.aiState)
	m.duckedGain = target
	m.stats.FadeCount++
	return nil
}

// InterruptAi cuts the AI channel to silence immediately
func (m *Mixer) InterruptAi() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.graph.SetGain(m.ai, 0); err != nil {
		return errors.Wrap(err, "failed to interrupt ai channel")
	}
	m.ducked = true
	m.duckedGain = 0
	m.stats.InterruptCount++
	metrics.RecordMixerOperation(OpInterrupt)
	m.logger.Debug("AI channel interrupted")
	return nil
}

// ramp schedules a linear ramp on the AI gain; the graph cancels any ramp
// already in flight
func (m *Mixer) ramp(target float64, duration time.Duration, op string) error {
	if err := m.graph.RampGain(m.ai, target, duration); err != nil {
		return errors.Wrap(err, "failed to schedule ai ramp").WithField("operation", op)
	}
	metrics.RecordMixerOperation(op)
	m.logger.WithFields(logrus.Fields{
		"operation":   op,
		"target":      target,
		"duration_ms": duration.Milliseconds(),
	}).Debug("AI gain ramp scheduled")
	return nil
}

// MixSamples adds the two blocks scaled by each channel's effective volume
// and the master volume, then soft-clips every sample with tanh. While the AI
// is ducked, faded down or interrupted its samples are scaled by that target
// gain instead. The shorter block is treated as zero-padded. It does not need
// an initialized graph.
func (m *Mixer) MixSamples(user, ai []float32) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ug := effective(m.userState)
	ag := effective(m.aiState)
	if m.ducked && !m.aiState.Muted {
		ag = m.duckedGain
	}

	n := max(len(user), len(ai))
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var s float64
		if i < len(user) {
			s += float64(user[i]) * ug
		}
		if i < len(ai) {
			s += float64(ai[i]) * ag
		}
		s *= m.masterVol
		if math.Abs(s) > 1 {
			m.stats.SoftClipped++
		}
		out[i] = float32(math.Tanh(s))
	}
	m.stats.SamplesMixed += int64(n)
	return out
}

// UserLevel returns the RMS of a user sample block and folds it into the
// smoothed user level
func (m *Mixer) UserLevel(samples []float32) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	level := rms(samples)
	m.stats.UserLevel = smooth(m.stats.UserLevel, level)
	return level
}

// AiLevel returns the RMS of an AI sample block and folds it into the
// smoothed AI level
func (m *Mixer) AiLevel(samples []float32) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	level := rms(samples)
	m.stats.AiLevel = smooth(m.stats.AiLevel, level)
	return level
}

// Stats returns a copy of the activity counters
func (m *Mixer) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Snapshot returns the observable mixer state
func (m *Mixer) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		User:            m.userState,
		Ai:              m.aiState,
		MasterVolume:    m.masterVol,
		SidetoneEnabled: m.sidetoneOn,
		SidetoneVolume:  m.sidetoneVol,
		AiDucked:        m.ducked,
		Initialized:     m.graph != nil,
	}
}

// Config returns the active configuration
func (m *Mixer) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// UpdateConfig merges cfg over the active configuration. Channel state is
// left alone; new fade and duck settings apply to the next ramp.
func (m *Mixer) UpdateConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = Merge(m.config, cfg)
}

// Reset returns every channel to its configured volume and clears the
// counters. The graph stays connected.
func (m *Mixer) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetState()
	m.stats = Stats{}
	if m.graph == nil {
		return nil
	}
	gains := []struct {
		node NodeID
		gain float64
	}{
		{m.user, effective(m.userState)},
		{m.sidetone, m.sidetoneGain()},
		{m.ai, effective(m.aiState)},
		{m.master, m.masterVol},
	}
	for _, g := range gains {
		if err := m.graph.SetGain(g.node, g.gain); err != nil {
			return errors.Wrap(err, "failed to reset mixer gain")
		}
	}
	return nil
}

// Dispose disconnects every node and releases the graph. It is safe to call
// more than once; later gain calls fail with ErrNotInitialized.
func (m *Mixer) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.graph == nil {
		return
	}
	nodes := append([]NodeID{m.user, m.sidetone, m.ai, m.master}, m.inputs...)
	for _, n := range nodes {
		if err := m.graph.Disconnect(n); err != nil {
			m.logger.WithError(err).WithField("node", n).Warn("Failed to disconnect mixer node")
		}
	}
	if err := m.graph.Close(); err != nil {
		m.logger.WithError(err).Warn("Failed to close audio graph")
	}
	m.graph = nil
	m.inputs = nil
	m.logger.Debug("Mixer disposed")
}

func (m *Mixer) sidetoneGain() float64 {
	if !m.sidetoneOn {
		return 0
	}
	return m.sidetoneVol
}

// effective is the gain a channel contributes after muting
func effective(c ChannelState) float64 {
	if c.Muted {
		return 0
	}
	return c.Volume
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func smooth(prev, level float64) float64 {
	return levelSmoothing*prev + (1-levelSmoothing)*level
}
