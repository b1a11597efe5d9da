package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WriteFunc delivers one encoded response to the client.
type WriteFunc func(data []byte) error

// Session represents one client connection. Requests carry no state between
// each other; the session only tracks identity, capabilities and the write
// side of the transport.
type Session struct {
	ID             string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Initialized    bool
	Capabilities   map[string]interface{}

	write   WriteFunc
	mu      sync.Mutex
	writeMu sync.Mutex
}

// Manager manages client sessions
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// ErrSessionNotFound is returned when a session is not found
var ErrSessionNotFound = errors.New("session not found")

// ErrNotConnected is returned when a session has no writer attached.
var ErrNotConnected = errors.New("session not connected")

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// CreateSession creates a new session
func (m *Manager) CreateSession() *Session {
	session := &Session{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
		Capabilities:   make(map[string]interface{}),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session
}

// GetSession gets a session by ID
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	session.mu.Lock()
	session.LastAccessedAt = time.Now()
	session.mu.Unlock()

	return session, nil
}

// RemoveSession removes a session by ID
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// CleanupSessions removes sessions idle for longer than maxAge.
func (m *Manager) CleanupSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, session := range m.sessions {
		session.mu.Lock()
		lastAccess := session.LastAccessedAt
		session.mu.Unlock()

		if now.Sub(lastAccess) > maxAge {
			delete(m.sessions, id)
		}
	}
}

// SetWriter attaches the transport's write side to the session.
func (s *Session) SetWriter(write WriteFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write = write
}

// Send writes one response to the client. Writes are serialized so
// concurrently completing requests cannot interleave on the wire.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	write := s.write
	s.mu.Unlock()

	if write == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return write(data)
}

// SetCapabilities sets the session capabilities
func (s *Session) SetCapabilities(capabilities map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range capabilities {
		s.Capabilities[k] = v
	}
}

// GetCapability gets a session capability
func (s *Session) GetCapability(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.Capabilities[key]
	return val, ok
}

// SetInitialized marks the session as initialized
func (s *Session) SetInitialized(initialized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Initialized = initialized
}

// IsInitialized returns whether the session has been initialized
func (s *Session) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Initialized
}
