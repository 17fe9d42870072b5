package gateway

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is a connected control-plane client.
type Session struct {
	ID        string
	Conn      *websocket.Conn
	CreatedAt time.Time
	LastPing  time.Time
	mu        sync.Mutex
}

// SessionManager tracks active sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionManager returns an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create registers a new session for conn.
func (m *SessionManager) Create(conn *websocket.Conn) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := &Session{
		ID:        uuid.NewString(),
		Conn:      conn,
		CreatedAt: time.Now(),
		LastPing:  time.Now(),
	}
	m.sessions[session.ID] = session
	return session
}

// Remove closes and forgets a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[id]; ok {
		_ = session.Conn.Close()
		delete(m.sessions, id)
	}
}

// Count returns the number of active sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Send writes message to this session's connection.
func (s *Session) Send(message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteMessage(websocket.TextMessage, message)
}

// UpdatePing records a liveness ping from the client.
func (s *Session) UpdatePing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastPing = time.Now()
}
