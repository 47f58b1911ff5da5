package duplex

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/errors"
	"duplex-server/pkg/events"
	"duplex-server/pkg/metrics"
	"duplex-server/pkg/mixer"
)

// Manager coordinates the user and AI audio channels of one conversation.
// Each Update recomputes the duplex state, asks the overlap handler for a
// resolution and applies it to the mixer.
//
// A Manager is not safe for concurrent use; callers serialize access per
// conversation.
type Manager struct {
	logger  *logrus.Entry
	config  Config
	mixer   *mixer.Mixer
	overlap *OverlapHandler
	events  *events.Registry[Event]
	now     func() time.Time

	state         State
	toolCallStart time.Time
}

// NewManager creates a manager and its mixer. The mixer graph is built by
// Initialize.
func NewManager(cfg Config, classifier Classifier, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	merged := Merge(DefaultConfig(), cfg)
	m := &Manager{
		logger:  logger.WithField("component", "duplex_manager"),
		config:  merged,
		mixer:   mixer.NewMixer(merged.Mixer, logger),
		overlap: NewOverlapHandler(merged, classifier, logger),
		events:  events.NewRegistry[Event](logger, "duplex_manager"),
		now:     time.Now,
	}
	m.state = m.initialState()
	return m
}

func (m *Manager) initialState() State {
	snap := m.mixer.Snapshot()
	return State{
		ActiveStream:    StreamNone,
		AiVolume:        snap.Ai.Volume,
		AiMuted:         snap.Ai.Muted,
		SidetoneEnabled: snap.SidetoneEnabled,
		SidetoneVolume:  snap.SidetoneVolume,
	}
}

// SetClock replaces the time source of the manager and its overlap handler
func (m *Manager) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	m.now = now
	m.overlap.SetClock(now)
}

// Initialize builds the mixer graph on g
func (m *Manager) Initialize(g mixer.Graph) error {
	return m.mixer.Initialize(g)
}

// ConnectUserStream routes the microphone source into the user channel
func (m *Manager) ConnectUserStream(source mixer.NodeID) error {
	return m.mixer.ConnectUserStream(source)
}

// Mixer exposes the underlying mixer for level monitoring and sample mixing
func (m *Manager) Mixer() *mixer.Mixer {
	return m.mixer
}

// State returns the current duplex state
func (m *Manager) State() State {
	return m.state
}

// OnEvent subscribes to duplex events and returns the unsubscribe function
func (m *Manager) OnEvent(handler func(Event)) func() {
	return m.events.Subscribe(handler)
}

// Update processes one tick of the speaking-state feed. The transcript may be
// empty. Initialize must have been called first: on a manager without a
// mixer graph Update fails with ErrNotInitialized and records no speaking
// state.
func (m *Manager) Update(userSpeaking, aiSpeaking bool, vadConfidence float64, transcript string) (Resolution, error) {
	if !m.mixer.IsInitialized() {
		return Resolution{}, errors.NewNotInitialized("duplex manager")
	}

	next := m.state
	next.UserSpeaking = userSpeaking
	next.AiSpeaking = aiSpeaking
	next.ActiveStream = streamFor(userSpeaking, aiSpeaking)
	next.IsOverlap = next.ActiveStream == StreamBoth

	res := m.overlap.Resolve(Input{
		UserSpeaking:  userSpeaking,
		AiSpeaking:    aiSpeaking,
		VADConfidence: vadConfidence,
		Transcript:    transcript,
	})
	metrics.RecordOverlapResolution(string(res.Action), res.Reason)
	next.OverlapDurationMs = res.OverlapDuration.Milliseconds()

	var pending []Event
	if err := m.apply(res, &next, &pending); err != nil {
		return res, err
	}

	if res.IsBackchannel() && !res.Cached && res.Classification != nil {
		pending = append(pending, BackchannelDetectedEvent{
			Transcript: transcript,
			Result:     *res.Classification,
			Timestamp:  m.now(),
		})
	}

	m.logger.WithFields(logrus.Fields{
		"active_stream": next.ActiveStream,
		"action":        res.Action,
		"reason":        res.Reason,
		"overlap_ms":    res.OverlapDuration.Milliseconds(),
	}).Debug("Duplex tick resolved")

	m.commit(next)
	for _, e := range pending {
		m.events.Emit(e)
	}
	return res, nil
}

// apply turns a resolution into mixer calls and records the effect on next
func (m *Manager) apply(res Resolution, next *State, pending *[]Event) error {
	now := m.now()
	switch res.Action {
	case ActionInterruptAi:
		if next.AiInterrupted {
			return nil
		}
		if err := m.mixer.InterruptAi(); err != nil {
			return err
		}
		next.AiInterrupted = true
		next.AiDucked = false
		*pending = append(*pending, AiInterruptedEvent{Reason: res.Reason, Timestamp: now})
		m.logger.WithField("reason", res.Reason).Info("AI speech interrupted")

	case ActionFadeAi:
		if next.AiDucked || next.AiInterrupted {
			return nil
		}
		if err := m.mixer.FadeAiVolumeTo(res.TargetVolume, m.config.Mixer.FadeDuration); err != nil {
			return err
		}
		next.AiDucked = true
		*pending = append(*pending, AiDuckedEvent{Reason: res.Reason, TargetVolume: res.TargetVolume, Timestamp: now})

	case ActionContinueAi:
		// Already at nominal gain, nothing to restore or announce
		if !next.AiDucked && !next.AiInterrupted {
			return nil
		}
		if err := m.mixer.RestoreAiAudio(); err != nil {
			return err
		}
		next.AiDucked = false
		next.AiInterrupted = false
		*pending = append(*pending, AiRestoredEvent{Reason: res.Reason, Volume: next.AiVolume, Timestamp: now})

	case ActionWait:
	}
	return nil
}

// commit stores next and emits state_change when any field differs
func (m *Manager) commit(next State) {
	prev := m.state
	if prev == next {
		return
	}
	m.state = next
	metrics.RecordDuplexStateChange()
	m.events.Emit(StateChangeEvent{Previous: prev, Current: next, Timestamp: m.now()})
}

// StartToolCall suppresses interruptions while a tool runs
func (m *Manager) StartToolCall() {
	if m.state.ToolCallActive {
		return
	}
	m.overlap.SetToolCallActive(true)
	m.toolCallStart = m.now()
	next := m.state
	next.ToolCallActive = true
	m.commit(next)
	m.events.Emit(ToolCallStartedEvent{Timestamp: m.toolCallStart})
}

// EndToolCall lifts the interruption suppression
func (m *Manager) EndToolCall() {
	if !m.state.ToolCallActive {
		return
	}
	m.overlap.SetToolCallActive(false)
	now := m.now()
	next := m.state
	next.ToolCallActive = false
	m.commit(next)
	m.events.Emit(ToolCallEndedEvent{Duration: now.Sub(m.toolCallStart), Timestamp: now})
}

// SetAiVolume sets the nominal AI volume, clamped to [0,1]
func (m *Manager) SetAiVolume(v float64) error {
	if err := m.mixer.SetAiVolume(v); err != nil {
		return err
	}
	next := m.state
	next.AiVolume = m.mixer.AiVolume()
	next.AiDucked = false
	next.AiInterrupted = false
	m.commit(next)
	return nil
}

// SetSidetoneEnabled switches the user's monitor feed
func (m *Manager) SetSidetoneEnabled(enabled bool) error {
	if err := m.mixer.SetSidetoneEnabled(enabled); err != nil {
		return err
	}
	next := m.state
	next.SidetoneEnabled = enabled
	m.commit(next)
	return nil
}

// SetSidetoneVolume scales the user's monitor feed, clamped to [0,1]
func (m *Manager) SetSidetoneVolume(v float64) error {
	if err := m.mixer.SetSidetoneVolume(v); err != nil {
		return err
	}
	next := m.state
	next.SidetoneVolume = m.mixer.Snapshot().SidetoneVolume
	m.commit(next)
	return nil
}

// MuteAi silences the AI channel
func (m *Manager) MuteAi() error {
	return m.setAiMuted(true)
}

// UnmuteAi restores the AI channel
func (m *Manager) UnmuteAi() error {
	return m.setAiMuted(false)
}

func (m *Manager) setAiMuted(muted bool) error {
	var err error
	if muted {
		err = m.mixer.MuteAi()
	} else {
		err = m.mixer.UnmuteAi()
	}
	if err != nil {
		return err
	}
	next := m.state
	next.AiMuted = muted
	next.AiDucked = false
	next.AiInterrupted = false
	m.commit(next)
	return nil
}

// Config returns the active configuration
func (m *Manager) Config() Config {
	return m.config
}

// UpdateConfig merges cfg over the active configuration of the manager, its
// overlap handler and its mixer
func (m *Manager) UpdateConfig(cfg Config) {
	m.config = Merge(m.config, cfg)
	m.overlap.UpdateConfig(cfg)
	m.mixer.UpdateConfig(cfg.Mixer)
}

// Reset returns the manager, its overlap handler and its mixer to their
// initial state without emitting events. Subscribers are kept.
func (m *Manager) Reset() error {
	m.overlap.Reset()
	m.toolCallStart = time.Time{}
	err := m.mixer.Reset()
	m.state = m.initialState()
	return err
}

// Dispose resets the manager, releases the audio graph and drops every
// subscriber. It is safe to call more than once.
func (m *Manager) Dispose() {
	m.overlap.Reset()
	m.mixer.Dispose()
	m.state = m.initialState()
	m.events.Clear()
}
