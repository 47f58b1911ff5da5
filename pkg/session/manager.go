package session

import (
	"io"
	"sort"
	"sync"
	"time"

	"duplex-server/pkg/bargein"
	"duplex-server/pkg/discourse"
	"duplex-server/pkg/duplex"
	"duplex-server/pkg/errors"
	"duplex-server/pkg/messaging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Close reasons
const (
	ReasonClosed   = "closed"
	ReasonIdle     = "idle"
	ReasonShutdown = "shutdown"
)

// Publisher receives every session event for fan-out
type Publisher interface {
	Enqueue(msg messaging.Message) bool
}

// ManagerConfig holds session manager configuration
type ManagerConfig struct {
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	MaxSessions     int
	// Defaults is merged under the per-session override passed to Create.
	// Zero fields take the package defaults.
	Defaults Config
}

// Manager owns every open session and reaps the idle ones
type Manager struct {
	logger    *logrus.Logger
	entry     *logrus.Entry
	config    ManagerConfig
	publisher Publisher
	now       func() time.Time

	sessions      map[string]*Session
	mutex         sync.RWMutex
	cleanupTicker *time.Ticker
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewManager creates a session manager. Start launches the idle reaper.
func NewManager(config ManagerConfig, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 5 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 30 * time.Second
	}

	// Unset default fields fall back to the package defaults so Merge never
	// clamps a zero value up to its minimum
	config.Defaults = Config{
		BargeIn:   bargein.Merge(bargein.DefaultConfig(), config.Defaults.BargeIn),
		Discourse: discourse.Merge(discourse.DefaultConfig(), config.Defaults.Discourse),
		Duplex:    duplex.Merge(duplex.DefaultConfig(), config.Defaults.Duplex),
	}

	return &Manager{
		logger:   logger,
		entry:    logger.WithField("component", "session_manager"),
		config:   config,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stopChan: make(chan struct{}),
	}
}

// SetClock replaces the time source used for new sessions and idle checks
func (m *Manager) SetClock(now func() time.Time) {
	m.mutex.Lock()
	m.now = now
	m.mutex.Unlock()
}

// SetPublisher forwards the events of sessions created afterwards to p
func (m *Manager) SetPublisher(p Publisher) {
	m.mutex.Lock()
	m.publisher = p
	m.mutex.Unlock()
}

// Create opens a session with override merged over the manager defaults
func (m *Manager) Create(override Config) (*Session, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.config.MaxSessions > 0 && len(m.sessions) >= m.config.MaxSessions {
		return nil, errors.NewLimitExceeded("maximum number of sessions reached", map[string]interface{}{
			"max_sessions": m.config.MaxSessions,
		})
	}

	cfg := Config{
		BargeIn:   bargein.Merge(m.config.Defaults.BargeIn, override.BargeIn),
		Discourse: discourse.Merge(m.config.Defaults.Discourse, override.Discourse),
		Duplex:    duplex.Merge(m.config.Defaults.Duplex, override.Duplex),
	}

	id := uuid.NewString()
	s, err := newSession(id, cfg, m.logger, m.now)
	if err != nil {
		return nil, err
	}

	if p := m.publisher; p != nil {
		s.Subscribe(func(e Event) {
			p.Enqueue(messaging.Message{
				SessionID: e.SessionID,
				Event:     e.Type,
				Source:    e.Source,
				Timestamp: e.Timestamp,
				Payload:   e.Payload,
			})
		})
	}

	m.sessions[id] = s
	m.entry.WithFields(logrus.Fields{
		"session_id":      id,
		"language":        cfg.BargeIn.Language,
		"active_sessions": len(m.sessions),
	}).Info("Session created")
	return s, nil
}

// Get returns the open session with id
func (m *Manager) Get(id string) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.NewSessionNotFound(id)
	}
	return s, nil
}

// Close removes and closes the session with id
func (m *Manager) Close(id, reason string) error {
	m.mutex.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mutex.Unlock()

	if !ok {
		return errors.NewSessionNotFound(id)
	}
	s.Close(reason)
	return nil
}

// List returns the open sessions ordered by creation time
func (m *Manager) List() []*Session {
	m.mutex.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of open sessions
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// ReapIdle closes every session without activity for longer than the idle
// timeout and returns how many were closed.
func (m *Manager) ReapIdle() int {
	m.mutex.Lock()
	now := m.now()
	var idle []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > m.config.IdleTimeout {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mutex.Unlock()

	for _, s := range idle {
		s.Close(ReasonIdle)
	}
	if len(idle) > 0 {
		m.entry.WithField("count", len(idle)).Info("Reaped idle sessions")
	}
	return len(idle)
}

// Start launches the background idle reaper
func (m *Manager) Start() {
	m.cleanupTicker = time.NewTicker(m.config.CleanupInterval)
	m.wg.Add(1)
	go m.cleanupLoop()

	m.entry.WithFields(logrus.Fields{
		"idle_timeout":     m.config.IdleTimeout,
		"cleanup_interval": m.config.CleanupInterval,
		"max_sessions":     m.config.MaxSessions,
	}).Info("Session manager started")
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.cleanupTicker.C:
			m.ReapIdle()
		case <-m.stopChan:
			return
		}
	}
}

// Shutdown stops the reaper and closes every open session
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		if m.cleanupTicker != nil {
			m.cleanupTicker.Stop()
		}
		m.wg.Wait()

		m.mutex.Lock()
		sessions := m.sessions
		m.sessions = make(map[string]*Session)
		m.mutex.Unlock()

		for _, s := range sessions {
			s.Close(ReasonShutdown)
		}
		m.entry.WithField("closed_sessions", len(sessions)).Info("Session manager shut down")
	})
}
