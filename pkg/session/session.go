// Package session bundles the per-conversation components behind a single
// lock and manages their lifecycle.
package session

import (
	"io"
	"sync"
	"time"

	"duplex-server/pkg/bargein"
	"duplex-server/pkg/discourse"
	"duplex-server/pkg/duplex"
	"duplex-server/pkg/errors"
	"duplex-server/pkg/events"
	"duplex-server/pkg/metrics"
	"duplex-server/pkg/mixer"
	"duplex-server/pkg/phrases"

	"github.com/sirupsen/logrus"
)

// Event sources
const (
	SourceBargeIn   = "bargein"
	SourceDuplex    = "duplex"
	SourceDiscourse = "discourse"
	SourceSession   = "session"
)

// Discourse and lifecycle event types raised by the session itself
const (
	EventPhaseChange   = "phase_change"
	EventTopicChange   = "topic_change"
	EventSessionClosed = "session_closed"
)

// Event wraps a component event with the session it came from
type Event struct {
	SessionID string      `json:"session_id"`
	Source    string      `json:"source"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// PhaseChange is the payload of a phase_change event
type PhaseChange struct {
	From discourse.Phase `json:"from"`
	To   discourse.Phase `json:"to"`
}

// TopicChange is the payload of a topic_change event
type TopicChange struct {
	From       string `json:"from,omitempty"`
	To         string `json:"to"`
	ShiftCount int    `json:"shift_count"`
}

// Config is the per-session component configuration
type Config struct {
	BargeIn   bargein.Config   `json:"bargein" yaml:"bargein"`
	Discourse discourse.Config `json:"discourse" yaml:"discourse"`
	Duplex    duplex.Config    `json:"duplex" yaml:"duplex"`
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID           string                  `json:"id"`
	CreatedAt    time.Time               `json:"created_at"`
	LastActivity time.Time               `json:"last_activity"`
	Language     phrases.Language        `json:"language"`
	Duplex       duplex.State            `json:"duplex"`
	Mixer        mixer.Snapshot          `json:"mixer"`
	MixerStats   mixer.Stats             `json:"mixer_stats"`
	Discourse    discourse.State         `json:"discourse"`
	Statistics   bargein.Statistics      `json:"statistics"`
	Patterns     bargein.PatternAnalysis `json:"patterns"`
}

// Session owns one conversation. The components it bundles are not safe for
// concurrent use, so every call goes through mu.
type Session struct {
	ID        string
	CreatedAt time.Time

	logger *logrus.Entry
	now    func() time.Time

	mu           sync.Mutex
	classifier   *bargein.Classifier
	tracker      *discourse.Tracker
	duplex       *duplex.Manager
	graph        *mixer.MemoryGraph
	events       *events.Registry[Event]
	unsubscribe  []func()
	lastActivity time.Time
	closed       bool
	stopTimer    func(reason string)
}

func newSession(id string, cfg Config, logger *logrus.Logger, now func() time.Time) (*Session, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if now == nil {
		now = time.Now
	}

	classifier := bargein.NewClassifier(cfg.BargeIn, logger)
	classifier.SetClock(now)
	manager := duplex.NewManager(cfg.Duplex, classifier, logger)
	manager.SetClock(now)
	graph := mixer.NewMemoryGraph(now)

	if err := manager.Initialize(graph); err != nil {
		return nil, errors.Wrap(err, "failed to initialize session audio", map[string]interface{}{"session_id": id})
	}
	if err := manager.ConnectUserStream(graph.AddSource()); err != nil {
		manager.Dispose()
		return nil, errors.Wrap(err, "failed to connect user stream")
	}
	if err := manager.Mixer().ConnectAiStream(graph.AddSource()); err != nil {
		manager.Dispose()
		return nil, errors.Wrap(err, "failed to connect AI stream")
	}

	created := now()
	s := &Session{
		ID:           id,
		CreatedAt:    created,
		logger:       logger.WithField("session_id", id),
		now:          now,
		classifier:   classifier,
		tracker:      discourse.NewTracker(cfg.Discourse, logger),
		duplex:       manager,
		graph:        graph,
		events:       events.NewRegistry[Event](logger, "session"),
		lastActivity: created,
		stopTimer:    metrics.StartSessionTimer(),
	}

	s.unsubscribe = append(s.unsubscribe,
		classifier.OnEvent(func(e bargein.Event) {
			s.emit(SourceBargeIn, string(e.EventType()), e)
		}),
		manager.OnEvent(func(e duplex.Event) {
			s.emit(SourceDuplex, string(e.EventType()), e)
		}),
	)
	return s, nil
}

func (s *Session) emit(source, eventType string, payload interface{}) {
	s.events.Emit(Event{
		SessionID: s.ID,
		Source:    source,
		Type:      eventType,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

// lock acquires mu and fails when the session has been closed
func (s *Session) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.NewSessionNotFound(s.ID)
	}
	s.lastActivity = s.now()
	return nil
}

// Subscribe registers handler for every event of the session. Handlers run
// while the session lock is held and must not call back into the session.
func (s *Session) Subscribe(handler events.Handler[Event]) func() {
	return s.events.Subscribe(handler)
}

// Classify classifies one user utterance
func (s *Session) Classify(u bargein.Utterance) (bargein.Result, error) {
	if err := s.lock(); err != nil {
		return bargein.Result{}, err
	}
	defer s.mu.Unlock()
	return s.classifier.Classify(u), nil
}

// Speaking feeds one voice-activity tick to the full-duplex manager
func (s *Session) Speaking(userSpeaking, aiSpeaking bool, vadConfidence float64, transcript string) (duplex.Resolution, error) {
	if err := s.lock(); err != nil {
		return duplex.Resolution{}, err
	}
	defer s.mu.Unlock()
	return s.duplex.Update(userSpeaking, aiSpeaking, vadConfidence, transcript)
}

// UpdateDiscourse records one turn and raises phase and topic change events
func (s *Session) UpdateDiscourse(text string, speaker discourse.Speaker) (discourse.State, error) {
	if err := s.lock(); err != nil {
		return discourse.State{}, err
	}
	defer s.mu.Unlock()

	switch speaker {
	case discourse.SpeakerUser, discourse.SpeakerAI:
	default:
		return discourse.State{}, errors.NewInvalidInput("unknown speaker", map[string]interface{}{"speaker": speaker})
	}

	prevPhase, prevTopic := s.tracker.Phase(), s.tracker.Topic()
	state := s.tracker.Update(text, speaker)

	if state.Phase != prevPhase {
		s.emit(SourceDiscourse, EventPhaseChange, PhaseChange{From: prevPhase, To: state.Phase})
	}
	if state.Topic != prevTopic {
		s.emit(SourceDiscourse, EventTopicChange, TopicChange{From: prevTopic, To: state.Topic, ShiftCount: state.TopicShiftCount})
	}
	return state, nil
}

// StartToolCall marks the AI as busy with a tool call
func (s *Session) StartToolCall() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.duplex.StartToolCall()
	return nil
}

// EndToolCall clears the tool call flag
func (s *Session) EndToolCall() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.duplex.EndToolCall()
	return nil
}

// SetLanguage switches the phrase tables used by the classifier
func (s *Session) SetLanguage(code string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.classifier.SetLanguage(phrases.ParseLanguage(code))
	return nil
}

// ApplyConfig merges cfg over the live configuration of every component
func (s *Session) ApplyConfig(cfg Config) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.classifier.UpdateConfig(cfg.BargeIn)
	s.tracker.UpdateConfig(cfg.Discourse)
	s.duplex.UpdateConfig(cfg.Duplex)
	return nil
}

// SetAiVolume sets the nominal AI volume
func (s *Session) SetAiVolume(v float64) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return s.duplex.SetAiVolume(v)
}

// SetAiMuted mutes or unmutes the AI channel
func (s *Session) SetAiMuted(muted bool) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if muted {
		return s.duplex.MuteAi()
	}
	return s.duplex.UnmuteAi()
}

// SetSidetone switches sidetone on or off and, when volume is non-nil, sets
// its level.
func (s *Session) SetSidetone(enabled bool, volume *float64) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if volume != nil {
		if err := s.duplex.SetSidetoneVolume(*volume); err != nil {
			return err
		}
	}
	return s.duplex.SetSidetoneEnabled(enabled)
}

// MixSamples mixes one block of user and AI samples with the current gains
func (s *Session) MixSamples(user, ai []float32) ([]float32, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	m := s.duplex.Mixer()
	m.UserLevel(user)
	m.AiLevel(ai)
	return m.MixSamples(user, ai), nil
}

// Snapshot returns the combined state of every component
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, errors.NewSessionNotFound(s.ID)
	}

	m := s.duplex.Mixer()
	return Snapshot{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.lastActivity,
		Language:     s.classifier.Language(),
		Duplex:       s.duplex.State(),
		Mixer:        m.Snapshot(),
		MixerStats:   m.Stats(),
		Discourse:    s.tracker.State(),
		Statistics:   s.classifier.Statistics(),
		Patterns:     s.classifier.AnalyzePatterns(),
	}, nil
}

// Reset returns every component to its initial state. Subscribers are kept.
func (s *Session) Reset() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.classifier.Reset()
	s.tracker.Reset()
	return s.duplex.Reset()
}

// LastActivity returns the time of the last call into the session
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// IsClosed reports whether Close has been called
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close disposes the audio graph, emits session_closed and drops every
// subscriber. Calls after the first are no-ops.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	s.duplex.Dispose()

	s.emit(SourceSession, EventSessionClosed, map[string]interface{}{"reason": reason})
	s.events.Clear()
	s.stopTimer(reason)

	s.logger.WithFields(logrus.Fields{
		"reason":   reason,
		"lifetime": s.now().Sub(s.CreatedAt).String(),
	}).Info("Session closed")
}
