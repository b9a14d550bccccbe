// session/session.go
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/dicetown/network"
)

var ErrNotBound = errors.New("session: not bound to a room seat")

// Session 一条客户端连接。绑定后代表某个房间里的某个玩家。
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	roomID     string
	playerID   string
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

// Bind 绑定房间与玩家，重复绑定会覆盖之前的绑定
func (s *Session) Bind(roomID, playerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.roomID = roomID
	s.playerID = playerID
}

// Binding returns the bound room and player, or ErrNotBound.
func (s *Session) Binding() (roomID, playerID string, err error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.roomID == "" || s.playerID == "" {
		return "", "", ErrNotBound
	}
	return s.roomID, s.playerID, nil
}

func (s *Session) RoomID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.roomID
}

func (s *Session) PlayerID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.playerID
}

func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Send(msgID uint16, seq uint32, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, seq, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// GetByPlayerID 查找绑定到某房间某玩家的所有连接
func (m *Manager) GetByPlayerID(roomID, playerID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		r, p, err := session.Binding()
		if err == nil && r == roomID && p == playerID {
			result = append(result, session)
		}
	}
	return result
}

// Idle returns sessions that have not been active since before cutoff.
func (m *Manager) Idle(cutoff time.Time) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.LastActive().Before(cutoff) {
			result = append(result, session)
		}
	}
	return result
}
