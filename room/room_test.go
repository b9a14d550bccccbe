package room

import (
	"sync"
	"testing"
	"time"
)

func TestRoomManager_LockCreatesRoom(t *testing.T) {
	manager := NewRoomManager()

	unlock := manager.Lock("test_room_1")
	room, exists := manager.GetRoom("test_room_1")
	if !exists {
		t.Fatal("Lock should register the room")
	}
	if room.ID != "test_room_1" {
		t.Errorf("Expected room ID test_room_1, got %s", room.ID)
	}
	unlock()
	unlock() // second call is a no-op
}

func TestRoomManager_LockSerializesRoom(t *testing.T) {
	manager := NewRoomManager()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := manager.Lock("busy")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("Expected at most one holder at a time, saw %d", maxSeen)
	}
}

func TestRoomManager_DifferentRoomsDoNotBlock(t *testing.T) {
	manager := NewRoomManager()
	unlockA := manager.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := manager.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Locking room b should not wait for room a")
	}
}

func TestRoomManager_JoinAndLeave(t *testing.T) {
	manager := NewRoomManager()

	manager.Join("r1", "s1")
	manager.Join("r1", "s2")
	if got := manager.SessionCount("r1"); got != 2 {
		t.Fatalf("Expected 2 sessions, got %d", got)
	}

	manager.Leave("r1", "s1")
	if _, exists := manager.GetRoom("r1"); !exists {
		t.Fatal("Room should stay while a session is bound")
	}

	manager.Leave("r1", "s2")
	if _, exists := manager.GetRoom("r1"); exists {
		t.Error("Room should be removed once the last session leaves")
	}
	manager.Leave("missing", "s1")
}

func TestRoomManager_LeaveKeepsLockedRoom(t *testing.T) {
	manager := NewRoomManager()
	manager.Join("r1", "s1")
	unlock := manager.Lock("r1")

	manager.Leave("r1", "s1")
	if _, exists := manager.GetRoom("r1"); !exists {
		t.Error("A room with a held lock must not be removed")
	}
	unlock()
}

func TestRoomManager_Prune(t *testing.T) {
	manager := NewRoomManager()
	manager.Lock("idle")()
	manager.Join("bound", "s1")

	if removed := manager.Prune(time.Hour); removed != 0 {
		t.Errorf("Nothing is idle for an hour yet, removed %d", removed)
	}
	if removed := manager.Prune(-time.Second); removed != 1 {
		t.Errorf("Expected the unbound room to be pruned, removed %d", removed)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 room left, got %d", manager.Count())
	}
}
