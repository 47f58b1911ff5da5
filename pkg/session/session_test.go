package session

import (
	"sync"
	"testing"
	"time"

	"duplex-server/pkg/bargein"
	"duplex-server/pkg/discourse"
	"duplex-server/pkg/duplex"
	"duplex-server/pkg/errors"
	"duplex-server/pkg/messaging"
	"duplex-server/pkg/phrases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []messaging.Message
}

func (p *fakePublisher) Enqueue(msg messaging.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return true
}

func (p *fakePublisher) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Source+"/"+m.Event)
	}
	return out
}

func newTestManager(t *testing.T, cfg ManagerConfig) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	m := NewManager(cfg, nil)
	m.SetClock(clock.Now)
	t.Cleanup(m.Shutdown)
	return m, clock
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})

	s, err := m.Create(Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, phrases.English, snap.Language)
	assert.Equal(t, duplex.StreamNone, snap.Duplex.ActiveStream)
	assert.Equal(t, 1.0, snap.Duplex.AiVolume)
	assert.True(t, snap.Mixer.Initialized)
	assert.Equal(t, discourse.PhaseOpening, snap.Discourse.Phase)
}

func TestGetUnknownSession(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})

	_, err := m.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrSessionNotFound))

	err = m.Close("missing", ReasonClosed)
	assert.True(t, errors.IsErrorType(err, errors.ErrSessionNotFound))
}

func TestCreateRespectsMaxSessions(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{MaxSessions: 1})

	_, err := m.Create(Config{})
	require.NoError(t, err)

	_, err = m.Create(Config{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeLimitExceeded, errors.GetErrorCode(err))
}

func TestCreateMergesDefaults(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{
		Defaults: Config{BargeIn: bargein.Config{Language: phrases.Spanish}},
	})

	s, err := m.Create(Config{})
	require.NoError(t, err)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, phrases.Spanish, snap.Language)

	s, err = m.Create(Config{BargeIn: bargein.Config{Language: phrases.French}})
	require.NoError(t, err)
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, phrases.French, snap.Language)
}

func TestEventsFanOutToPublisher(t *testing.T) {
	m, clock := newTestManager(t, ManagerConfig{})
	pub := &fakePublisher{}
	m.SetPublisher(pub)

	s, err := m.Create(Config{})
	require.NoError(t, err)

	_, err = s.Speaking(false, true, 0, "")
	require.NoError(t, err)
	_, err = s.Speaking(true, true, 0.9, "")
	require.NoError(t, err)
	clock.Advance(300 * time.Millisecond)
	res, err := s.Speaking(true, true, 0.9, "")
	require.NoError(t, err)
	assert.Equal(t, duplex.ActionFadeAi, res.Action)

	result, err := s.Classify(bargein.Utterance{Transcript: "stop talking", DurationMs: 600, VADProbability: 0.9, DuringAISpeech: true})
	require.NoError(t, err)
	assert.Equal(t, bargein.Command, result.Classification)

	assert.Equal(t, []string{
		"duplex/state_change",
		"duplex/state_change",
		"duplex/state_change",
		"duplex/ai_ducked",
		"bargein/classification",
	}, pub.events())

	pub.mu.Lock()
	first := pub.messages[0]
	pub.mu.Unlock()
	assert.Equal(t, s.ID, first.SessionID)
	assert.Equal(t, clock.Now().Add(-300*time.Millisecond), first.Timestamp)
	_, ok := first.Payload.(duplex.StateChangeEvent)
	assert.True(t, ok)
}

func TestDiscourseEvents(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	var got []Event
	s.Subscribe(func(e Event) { got = append(got, e) })

	state, err := s.UpdateDiscourse("hello there", discourse.SpeakerUser)
	require.NoError(t, err)
	assert.Equal(t, "greeting", state.Topic)

	state, err = s.UpdateDiscourse("I need help with my bill", discourse.SpeakerUser)
	require.NoError(t, err)
	assert.Equal(t, "help", state.Topic)
	assert.Equal(t, discourse.PhaseInformationGathering, state.Phase)

	require.Len(t, got, 3)
	assert.Equal(t, EventTopicChange, got[0].Type)
	assert.Equal(t, TopicChange{To: "greeting"}, got[0].Payload)
	assert.Equal(t, EventPhaseChange, got[1].Type)
	assert.Equal(t, PhaseChange{From: discourse.PhaseOpening, To: discourse.PhaseInformationGathering}, got[1].Payload)
	assert.Equal(t, EventTopicChange, got[2].Type)
	assert.Equal(t, TopicChange{From: "greeting", To: "help", ShiftCount: 1}, got[2].Payload)
	for _, e := range got {
		assert.Equal(t, SourceDiscourse, e.Source)
	}
}

func TestUnknownSpeakerIsRejected(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	_, err = s.UpdateDiscourse("hello", discourse.Speaker("narrator"))
	assert.True(t, errors.IsErrorType(err, errors.ErrInvalidInput))
}

func TestLanguageSwitchEmitsEvent(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	var got []Event
	s.Subscribe(func(e Event) { got = append(got, e) })

	require.NoError(t, s.SetLanguage("es-MX"))
	require.Len(t, got, 1)
	assert.Equal(t, string(bargein.EventLanguageChanged), got[0].Type)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, phrases.Spanish, snap.Language)
}

func TestAudioControls(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	require.NoError(t, s.SetAiVolume(0.5))
	require.NoError(t, s.SetAiMuted(true))
	vol := 0.3
	require.NoError(t, s.SetSidetone(true, &vol))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0.5, snap.Mixer.Ai.Volume)
	assert.True(t, snap.Mixer.Ai.Muted)
	assert.True(t, snap.Mixer.SidetoneEnabled)
	assert.Equal(t, 0.3, snap.Mixer.SidetoneVolume)
	assert.True(t, snap.Duplex.AiMuted)
	assert.True(t, snap.Duplex.SidetoneEnabled)

	out, err := s.MixSamples([]float32{0.5, 0.5}, []float32{0.5, 0.5})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.MixerStats.SamplesMixed)
}

func TestApplyConfig(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	require.NoError(t, s.ApplyConfig(Config{Duplex: duplex.Config{SoftBargeVolume: 0.5}}))
	s.mu.Lock()
	assert.Equal(t, 0.5, s.duplex.Config().SoftBargeVolume)
	s.mu.Unlock()
}

func TestToolCallEvents(t *testing.T) {
	m, clock := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	var got []string
	s.Subscribe(func(e Event) { got = append(got, e.Type) })

	require.NoError(t, s.StartToolCall())
	clock.Advance(2 * time.Second)
	require.NoError(t, s.EndToolCall())

	assert.Contains(t, got, string(duplex.EventToolCallStarted))
	assert.Contains(t, got, string(duplex.EventToolCallEnded))
}

func TestClosedSessionRejectsCalls(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	pub := &fakePublisher{}
	m.SetPublisher(pub)
	s, err := m.Create(Config{})
	require.NoError(t, err)

	require.NoError(t, m.Close(s.ID, ReasonClosed))
	assert.True(t, s.IsClosed())
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, []string{"session/session_closed"}, pub.events())

	_, err = s.Speaking(true, false, 0.9, "")
	assert.True(t, errors.IsErrorType(err, errors.ErrSessionNotFound))
	_, err = s.Classify(bargein.Utterance{Transcript: "hello"})
	assert.True(t, errors.IsErrorType(err, errors.ErrSessionNotFound))
	_, err = s.Snapshot()
	assert.True(t, errors.IsErrorType(err, errors.ErrSessionNotFound))

	// Closing again is a no-op
	s.Close(ReasonClosed)
	assert.Len(t, pub.events(), 1)
}

func TestReapIdle(t *testing.T) {
	m, clock := newTestManager(t, ManagerConfig{IdleTimeout: 5 * time.Minute})

	stale, err := m.Create(Config{})
	require.NoError(t, err)
	active, err := m.Create(Config{})
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	_, err = active.Speaking(false, true, 0, "")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, m.ReapIdle())
	assert.True(t, stale.IsClosed())
	assert.False(t, active.IsClosed())

	_, err = m.Get(stale.ID)
	assert.Error(t, err)
	assert.Equal(t, 0, m.ReapIdle())
}

func TestListIsOrderedByCreation(t *testing.T) {
	m, clock := newTestManager(t, ManagerConfig{})

	first, err := m.Create(Config{})
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := m.Create(Config{})
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestShutdownClosesEverySession(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{CleanupInterval: time.Hour})
	m.Start()

	a, err := m.Create(Config{})
	require.NoError(t, err)
	b, err := m.Create(Config{})
	require.NoError(t, err)

	m.Shutdown()
	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Equal(t, 0, m.Count())

	// Safe to call twice
	m.Shutdown()
}

func TestResetKeepsSubscribers(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	var got int
	s.Subscribe(func(Event) { got++ })

	_, err = s.Speaking(false, true, 0, "")
	require.NoError(t, err)
	require.NoError(t, s.Reset())

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, duplex.StreamNone, snap.Duplex.ActiveStream)
	assert.Equal(t, 0, snap.Statistics.Total)

	_, err = s.Speaking(false, true, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func uhHuh() bargein.Utterance {
	return bargein.Utterance{Transcript: "uh huh", DurationMs: 300, VADProbability: 0.9, DuringAISpeech: true}
}

func TestZeroDefaultsUsePackageDefaults(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})

	assert.Equal(t, bargein.DefaultConfig(), m.config.Defaults.BargeIn)
	assert.Equal(t, discourse.DefaultConfig(), m.config.Defaults.Discourse)
	assert.Equal(t, duplex.DefaultConfig(), m.config.Defaults.Duplex)
	assert.Equal(t, 150*time.Millisecond, m.config.Defaults.Duplex.Mixer.FadeDuration)
}

func TestSessionBackchannelWithDefaults(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	r, err := s.Classify(uhHuh())
	require.NoError(t, err)
	assert.Equal(t, bargein.Backchannel, r.Classification)
	assert.Equal(t, phrases.IntentAcknowledge, r.Intent)
	assert.Equal(t, phrases.PriorityLow, r.Priority)
	assert.False(t, r.Action.ShouldAcknowledge)
}

func TestSessionEscalationWithDefaults(t *testing.T) {
	m, clock := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	var results []bargein.Result
	for i := 0; i < 3; i++ {
		r, err := s.Classify(uhHuh())
		require.NoError(t, err)
		results = append(results, r)
		clock.Advance(time.Second)
	}

	assert.Equal(t, bargein.Backchannel, results[0].Classification)
	assert.Equal(t, bargein.Backchannel, results[1].Classification)
	assert.Equal(t, bargein.HardBarge, results[2].Classification)
	assert.Equal(t, phrases.IntentStop, results[2].Intent)
	assert.Equal(t, phrases.PriorityHigh, results[2].Priority)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Statistics.Total, "history keeps every result")
}

func TestSessionDiscourseCapacityWithDefaults(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(Config{})
	require.NoError(t, err)

	var state discourse.State
	for i := 0; i < 12; i++ {
		state, err = s.UpdateDiscourse("tell me about the order status", discourse.SpeakerUser)
		require.NoError(t, err)
	}
	assert.Len(t, state.RecentUnits, 10)
	assert.Equal(t, 12, state.TurnCount)
}
