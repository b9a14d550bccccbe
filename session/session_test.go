package session

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/wfunc/dicetown/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent   []uint16
	closed bool
}

func (m *MockConnection) Send(msgID uint16, seq uint32, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { m.closed = true; return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByPlayerID(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.Bind("room-a", "p1")

	sess2 := NewSession("session2", &MockConnection{})
	sess2.Bind("room-a", "p2")

	sess3 := NewSession("session3", &MockConnection{})
	sess3.Bind("room-a", "p1")

	sess4 := NewSession("session4", &MockConnection{})
	sess4.Bind("room-b", "p1")

	unbound := NewSession("session5", &MockConnection{})

	for _, s := range []*Session{sess1, sess2, sess3, sess4, unbound} {
		manager.Add(s)
	}

	if got := manager.GetByPlayerID("room-a", "p1"); len(got) != 2 {
		t.Errorf("Expected 2 sessions for p1 in room-a, got %d", len(got))
	}
	if got := manager.GetByPlayerID("room-b", "p1"); len(got) != 1 {
		t.Errorf("Expected 1 session for p1 in room-b, got %d", len(got))
	}
	if got := manager.GetByPlayerID("room-a", "p3"); len(got) != 0 {
		t.Errorf("Expected 0 sessions for p3, got %d", len(got))
	}
}

func TestSession_Binding(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})

	if _, _, err := sess.Binding(); !errors.Is(err, ErrNotBound) {
		t.Errorf("Expected ErrNotBound, got %v", err)
	}

	sess.Bind("room-a", "p1")
	roomID, playerID, err := sess.Binding()
	if err != nil {
		t.Fatalf("Binding failed: %v", err)
	}
	if roomID != "room-a" || playerID != "p1" {
		t.Errorf("Unexpected binding %s/%s", roomID, playerID)
	}

	sess.Bind("room-b", "p2")
	if sess.RoomID() != "room-b" || sess.PlayerID() != "p2" {
		t.Errorf("Rebinding should replace the previous binding")
	}
}

func TestSession_SendTouches(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	before := sess.LastActive()

	time.Sleep(time.Millisecond)
	if err := sess.Send(network.MsgTypeRoomState, 7, []byte("{}")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !sess.LastActive().After(before) {
		t.Error("Send should refresh LastActive")
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeRoomState {
		t.Errorf("Unexpected sent messages %v", conn.sent)
	}
}

func TestManager_Idle(t *testing.T) {
	manager := NewManager()
	stale := NewSession("stale", &MockConnection{})
	manager.Add(stale)

	time.Sleep(2 * time.Millisecond)
	cutoff := time.Now()
	fresh := NewSession("fresh", &MockConnection{})
	manager.Add(fresh)

	idle := manager.Idle(cutoff)
	if len(idle) != 1 || idle[0] != stale {
		t.Errorf("Expected only the stale session, got %d sessions", len(idle))
	}
}
