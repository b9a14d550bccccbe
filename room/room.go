// room/room.go
package room

import (
	"sync"
	"time"
)

// Room 单个房间的串行化点。
// 同一房间的所有动作都在 Room 锁内执行，resolver 本身保持无副作用。
type Room struct {
	ID        string
	CreatedAt time.Time

	actionMutex sync.Mutex
	refs        int // 持有或等待锁的调用数，受 Manager.mutex 保护
	sessions    map[string]struct{}
	lastActive  time.Time
}

func newRoom(id string) *Room {
	now := time.Now()
	return &Room{
		ID:         id,
		CreatedAt:  now,
		sessions:   make(map[string]struct{}),
		lastActive: now,
	}
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.Mutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// getOrCreate 调用方需持有 m.mutex
func (m *Manager) getOrCreate(id string) *Room {
	r, exists := m.rooms[id]
	if !exists {
		r = newRoom(id)
		m.rooms[id] = r
	}
	return r
}

// Lock 获取房间的动作锁，返回解锁函数
func (m *Manager) Lock(roomID string) (unlock func()) {
	m.mutex.Lock()
	r := m.getOrCreate(roomID)
	r.refs++
	m.mutex.Unlock()

	r.actionMutex.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mutex.Lock()
			r.refs--
			r.lastActive = time.Now()
			m.mutex.Unlock()
			r.actionMutex.Unlock()
		})
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	r, exists := m.rooms[id]
	return r, exists
}

// Join 记录会话绑定到房间
func (m *Manager) Join(roomID, sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	r := m.getOrCreate(roomID)
	r.sessions[sessionID] = struct{}{}
	r.lastActive = time.Now()
}

// Leave 解除会话绑定，房间空闲时移除
func (m *Manager) Leave(roomID, sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	r, exists := m.rooms[roomID]
	if !exists {
		return
	}
	delete(r.sessions, sessionID)
	if r.refs == 0 && len(r.sessions) == 0 {
		delete(m.rooms, roomID)
	}
}

// SessionCount 房间当前绑定的会话数
func (m *Manager) SessionCount(roomID string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r, exists := m.rooms[roomID]; exists {
		return len(r.sessions)
	}
	return 0
}

// Count 当前登记的房间数
func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.rooms)
}

// Prune 移除空闲超过 idle 且无人持锁、无会话绑定的房间，返回移除数量
func (m *Manager) Prune(idle time.Duration) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for id, r := range m.rooms {
		if r.refs == 0 && len(r.sessions) == 0 && r.lastActive.Before(cutoff) {
			delete(m.rooms, id)
			removed++
		}
	}
	return removed
}
