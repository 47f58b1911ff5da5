package mixer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duplex-server/pkg/errors"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1700000000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMixer(t *testing.T, cfg Config) (*Mixer, *MemoryGraph, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	g := NewMemoryGraph(clock.Now)
	m := NewMixer(cfg, nil)
	require.NoError(t, m.Initialize(g))
	return m, g, clock
}

func TestMixerGraphTopology(t *testing.T) {
	m, g, _ := newTestMixer(t, Config{})

	assert.Equal(t, []NodeID{m.sidetone}, g.Outputs(m.user))
	assert.Equal(t, []NodeID{m.master}, g.Outputs(m.sidetone))
	assert.Equal(t, []NodeID{m.master}, g.Outputs(m.ai))
	assert.Equal(t, []NodeID{g.Destination()}, g.Outputs(m.master))

	mic := g.AddSource()
	require.NoError(t, m.ConnectUserStream(mic))
	assert.Equal(t, []NodeID{m.user}, g.Outputs(mic))

	sidetone, err := g.Gain(m.sidetone)
	require.NoError(t, err)
	assert.Zero(t, sidetone, "sidetone is off by default")
}

func TestMixerInitializeTwice(t *testing.T) {
	m, _, _ := newTestMixer(t, Config{})
	err := m.Initialize(NewMemoryGraph(nil))
	assert.True(t, errors.IsErrorType(err, errors.ErrAlreadyInitialized))
}

func TestMixerNotInitialized(t *testing.T) {
	m := NewMixer(Config{}, nil)

	calls := map[string]func() error{
		"SetUserVolume":    func() error { return m.SetUserVolume(0.5) },
		"SetAiVolume":      func() error { return m.SetAiVolume(0.5) },
		"SetMasterVolume":  func() error { return m.SetMasterVolume(0.5) },
		"MuteAi":           func() error { return m.MuteAi() },
		"SetSidetoneOn":    func() error { return m.SetSidetoneEnabled(true) },
		"DuckAiAudio":      func() error { return m.DuckAiAudio() },
		"RestoreAiAudio":   func() error { return m.RestoreAiAudio() },
		"FadeAiVolumeTo":   func() error { return m.FadeAiVolumeTo(0.3, 0) },
		"InterruptAi":      func() error { return m.InterruptAi() },
		"ConnectUserInput": func() error { return m.ConnectUserStream(1) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrNotInitialized))
			assert.Equal(t, errors.CodeNotInitialized, errors.GetErrorCode(err))
		})
	}
}

func TestMixerVolumeClamping(t *testing.T) {
	m, g, _ := newTestMixer(t, Config{})

	require.NoError(t, m.SetUserVolume(1.5))
	assert.Equal(t, 1.0, m.UserVolume())

	require.NoError(t, m.SetUserVolume(-0.2))
	assert.Equal(t, 0.0, m.UserVolume())
	gain, err := g.Gain(m.user)
	require.NoError(t, err)
	assert.Equal(t, 0.0, gain)

	require.NoError(t, m.SetAiVolume(3))
	assert.Equal(t, 1.0, m.AiVolume())

	require.NoError(t, m.SetMasterVolume(-1))
	assert.Equal(t, 0.0, m.Snapshot().MasterVolume)

	require.NoError(t, m.SetSidetoneVolume(7))
	assert.Equal(t, 1.0, m.Snapshot().SidetoneVolume)
}

func TestMixerMute(t *testing.T) {
	m, g, _ := newTestMixer(t, Config{})
	require.NoError(t, m.SetAiVolume(0.8))

	require.NoError(t, m.MuteAi())
	gain, err := g.Gain(m.ai)
	require.NoError(t, err)
	assert.Zero(t, gain)
	assert.Equal(t, 0.8, m.AiVolume(), "mute keeps the nominal volume")

	require.NoError(t, m.UnmuteAi())
	gain, err = g.Gain(m.ai)
	require.NoError(t, err)
	assert.Equal(t, 0.8, gain)
}

func TestMixerSidetone(t *testing.T) {
	m, g, _ := newTestMixer(t, Config{})

	require.NoError(t, m.SetSidetoneEnabled(true))
	gain, err := g.Gain(m.sidetone)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, gain, 1e-9)

	require.NoError(t, m.SetSidetoneVolume(0.3))
	gain, err = g.Gain(m.sidetone)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, gain, 1e-9)

	require.NoError(t, m.SetSidetoneEnabled(false))
	gain, err = g.Gain(m.sidetone)
	require.NoError(t, err)
	assert.Zero(t, gain)
}

func TestMixerDuckAndRestoreRamps(t *testing.T) {
	m, g, clock := newTestMixer(t, Config{})

	require.NoError(t, m.DuckAiAudio())
	ramps := g.Ramps()
	require.Len(t, ramps, 1)
	assert.Equal(t, m.ai, ramps[0].Node)
	assert.Equal(t, 1.0, ramps[0].From)
	assert.Equal(t, 0.2, ramps[0].To)
	assert.Equal(t, 150*time.Millisecond, ramps[0].Duration)

	clock.Advance(75 * time.Millisecond)
	gain, err := m.AiGain()
	require.NoError(t, err)
	assert.InDelta(t, 0.6, gain, 1e-9, "linear midpoint")
	assert.True(t, m.Snapshot().AiDucked)

	// Restoring mid-ramp starts from the current gain
	require.NoError(t, m.RestoreAiAudio())
	ramps = g.Ramps()
	require.Len(t, ramps, 2)
	assert.InDelta(t, 0.6, ramps[1].From, 1e-9)
	assert.Equal(t, 1.0, ramps[1].To)

	clock.Advance(time.Second)
	gain, err = m.AiGain()
	require.NoError(t, err)
	assert.Equal(t, 1.0, gain)
	assert.False(t, g.Ramping(m.ai))
	assert.False(t, m.Snapshot().AiDucked)

	stats := m.Stats()
	assert.Equal(t, 1, stats.DuckCount)
	assert.Equal(t, 1, stats.RestoreCount)
}

func TestMixerFadeAndInterrupt(t *testing.T) {
	m, g, clock := newTestMixer(t, Config{FadeDuration: 200 * time.Millisecond})

	require.NoError(t, m.FadeAiVolumeTo(0.3, 400*time.Millisecond))
	ramps := g.Ramps()
	require.Len(t, ramps, 1)
	assert.Equal(t, 0.3, ramps[0].To)
	assert.Equal(t, 400*time.Millisecond, ramps[0].Duration)

	require.NoError(t, m.FadeAiVolumeTo(2, 0))
	ramps = g.Ramps()
	assert.Equal(t, 1.0, ramps[1].To, "target is clamped")
	assert.Equal(t, 200*time.Millisecond, ramps[1].Duration, "zero duration uses the configured fade")

	clock.Advance(50 * time.Millisecond)
	require.NoError(t, m.InterruptAi())
	gain, err := m.AiGain()
	require.NoError(t, err)
	assert.Zero(t, gain)
	assert.False(t, g.Ramping(m.ai), "interrupt cancels the ramp")

	stats := m.Stats()
	assert.Equal(t, 2, stats.FadeCount)
	assert.Equal(t, 1, stats.InterruptCount)
}

func TestMixSamples(t *testing.T) {
	m := NewMixer(Config{}, nil)

	out := m.MixSamples([]float32{0.5, 0.9, 0.1}, []float32{0.5, 0.9})
	require.Len(t, out, 3)
	assert.InDelta(t, math.Tanh(1.0), out[0], 1e-6)
	assert.InDelta(t, math.Tanh(1.8), out[1], 1e-6)
	assert.InDelta(t, math.Tanh(0.1), out[2], 1e-6)
	for _, s := range out {
		assert.LessOrEqual(t, math.Abs(float64(s)), 1.0)
	}

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.SamplesMixed)
	assert.Equal(t, int64(1), stats.SoftClipped)
}

func TestMixSamplesRespectsMute(t *testing.T) {
	m, _, _ := newTestMixer(t, Config{})
	require.NoError(t, m.MuteAi())
	require.NoError(t, m.SetUserVolume(0.5))

	out := m.MixSamples([]float32{0.4}, []float32{0.9})
	assert.InDelta(t, math.Tanh(0.2), out[0], 1e-6)
}

func TestMixerLevels(t *testing.T) {
	m := NewMixer(Config{}, nil)

	level := m.UserLevel([]float32{0.5, -0.5, 0.5, -0.5})
	assert.InDelta(t, 0.5, level, 1e-9)
	assert.InDelta(t, 0.025, m.Stats().UserLevel, 1e-9)

	m.UserLevel([]float32{0.5, -0.5})
	assert.InDelta(t, 0.95*0.025+0.05*0.5, m.Stats().UserLevel, 1e-9)

	assert.Zero(t, m.AiLevel(nil))
	assert.Zero(t, m.Stats().AiLevel)
}

func TestMixerReset(t *testing.T) {
	m, g, _ := newTestMixer(t, Config{})
	require.NoError(t, m.SetAiVolume(0.4))
	require.NoError(t, m.DuckAiAudio())
	require.NoError(t, m.MuteUser())

	require.NoError(t, m.Reset())
	snap := m.Snapshot()
	assert.Equal(t, 1.0, snap.Ai.Volume)
	assert.False(t, snap.User.Muted)
	assert.False(t, snap.AiDucked)
	assert.True(t, snap.Initialized)
	assert.Equal(t, Stats{}, m.Stats())

	gain, err := g.Gain(m.ai)
	require.NoError(t, err)
	assert.Equal(t, 1.0, gain)
}

func TestMixerDispose(t *testing.T) {
	m, g, _ := newTestMixer(t, Config{})
	mic := g.AddSource()
	require.NoError(t, m.ConnectUserStream(mic))

	m.Dispose()
	m.Dispose()

	assert.False(t, m.IsInitialized())
	assert.Empty(t, g.Outputs(mic))
	assert.Empty(t, g.Outputs(m.master))

	err := m.DuckAiAudio()
	assert.True(t, errors.IsErrorType(err, errors.ErrNotInitialized))

	// A disposed mixer can be rebuilt on a fresh graph
	require.NoError(t, m.Initialize(NewMemoryGraph(nil)))
	assert.NoError(t, m.DuckAiAudio())
}

func TestMemoryGraphUnknownNode(t *testing.T) {
	g := NewMemoryGraph(nil)
	err := g.SetGain(99, 1)
	assert.True(t, errors.IsErrorType(err, errors.ErrUnknownNode))
	assert.Equal(t, errors.CodeUnknownNode, errors.GetErrorCode(err))

	require.NoError(t, g.Close())
	_, err = g.CreateGain(1)
	assert.True(t, errors.IsErrorType(err, errors.ErrNotInitialized))
}

func TestMergeConfig(t *testing.T) {
	cfg := Merge(DefaultConfig(), Config{DuckedVolume: 1.7, FadeDuration: -5, SidetoneEnabled: Bool(true)})
	assert.Equal(t, 1.0, cfg.DuckedVolume)
	assert.Equal(t, time.Millisecond, cfg.FadeDuration)
	assert.True(t, cfg.sidetoneOn())
	assert.Equal(t, 0.1, cfg.SidetoneVolume)

	base := DefaultConfig()
	_ = Merge(base, Config{SidetoneEnabled: Bool(true)})
	assert.False(t, *base.SidetoneEnabled, "merge does not alias the base")
}

func TestMixSamplesFollowsAiTargetGain(t *testing.T) {
	m, _, _ := newTestMixer(t, Config{})

	require.NoError(t, m.DuckAiAudio())
	out := m.MixSamples(nil, []float32{0.5})
	assert.InDelta(t, math.Tanh(0.1), out[0], 1e-6, "ducked volume")

	require.NoError(t, m.FadeAiVolumeTo(0.3, 0))
	out = m.MixSamples(nil, []float32{0.5})
	assert.InDelta(t, math.Tanh(0.15), out[0], 1e-6, "fade target")

	require.NoError(t, m.InterruptAi())
	out = m.MixSamples([]float32{0.2}, []float32{0.5})
	assert.InDelta(t, math.Tanh(0.2), out[0], 1e-6, "interrupted ai is silent")

	require.NoError(t, m.RestoreAiAudio())
	out = m.MixSamples(nil, []float32{0.5})
	assert.InDelta(t, math.Tanh(0.5), out[0], 1e-6, "restored to nominal")
}
