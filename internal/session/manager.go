package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iagro/supervisory/internal/catalog"
	"github.com/iagro/supervisory/internal/models"
)

// DefaultMaxSessions limits concurrent canvases to bound memory.
const DefaultMaxSessions = 100

// SessionKeepAliveWindow protects recently used canvases from age cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

// Observer is told the live session count after every change.
type Observer func(count int)

// Manager holds the canvases of all connected operators.
type Manager struct {
	sessions    map[string]*Canvas
	mu          sync.RWMutex
	maxSessions int
	newID       func() string
	logger      zerolog.Logger
	observer    Observer
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxSessions overrides DefaultMaxSessions. Values below 1 are ignored.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessions = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithObserver registers a session count observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithIDs replaces uuid generation, used by tests for stable ids.
func WithIDs(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Canvas),
		maxSessions: DefaultMaxSessions,
		newID:       func() string { return uuid.New().String() },
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a new empty canvas, evicting the least recently used one when
// the manager is full.
func (m *Manager) Create() *Canvas {
	m.mu.Lock()
	if len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}
	c := newCanvas(m.newID(), catalog.NewWithIDs(m.newID))
	m.sessions[c.id] = c
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info().Str("session_id", c.id).Int("sessions", count).Msg("canvas session created")
	m.notify(count)
	return c
}

// Get returns a canvas and marks it as accessed.
func (m *Manager) Get(id string) (*Canvas, error) {
	m.mu.RLock()
	c, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	c.Touch()
	return c, nil
}

// Delete closes a canvas.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info().Str("session_id", id).Msg("canvas session deleted")
	m.notify(count)
	return nil
}

// List returns summaries of all canvases.
func (m *Manager) List() []models.CanvasSession {
	m.mu.RLock()
	canvases := make([]*Canvas, 0, len(m.sessions))
	for _, c := range m.sessions {
		canvases = append(canvases, c)
	}
	m.mu.RUnlock()

	out := make([]models.CanvasSession, 0, len(canvases))
	for _, c := range canvases {
		out = append(out, c.Summary())
	}
	return out
}

// Count returns the number of live canvases.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes canvases idle for longer than maxAge, keeping
// any used within SessionKeepAliveWindow. It returns the number removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	m.mu.Lock()
	removed := 0
	for id, c := range m.sessions {
		last := c.LastAccessed()
		if last.After(keepAliveCutoff) || !last.Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
		m.logger.Info().
			Str("session_id", id).
			Dur("idle", now.Sub(last).Round(time.Second)).
			Msg("cleaned up idle canvas session")
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.notify(count)
	}
	return removed
}

func (m *Manager) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, c := range m.sessions {
		last := c.LastAccessed()
		if oldestID == "" || last.Before(oldest) {
			oldestID, oldest = id, last
		}
	}
	if oldestID == "" {
		return
	}
	delete(m.sessions, oldestID)
	m.logger.Warn().Str("session_id", oldestID).Msg("evicted least recently used canvas session")
}

func (m *Manager) notify(count int) {
	if m.observer != nil {
		m.observer(count)
	}
}
