package persistence

import (
	"context"
	"sync"

	"github.com/wfunc/dicetown/models"
)

// MemoryStore 进程内存储，用于本地运行和测试。
// 所有读写都复制快照，调用方拿到的数据与存储互不影响。
type MemoryStore struct {
	rooms map[string]*models.Snapshot
	mutex sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*models.Snapshot)}
}

// CreateRoom 预先登记一个等待中的房间
func (m *MemoryStore) CreateRoom(roomID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.rooms[roomID]; !exists {
		m.rooms[roomID] = &models.Snapshot{Room: models.Room{ID: roomID, Status: models.RoomWaiting}}
	}
}

func (m *MemoryStore) LoadRoom(ctx context.Context, roomID string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap, exists := m.rooms[roomID]
	if !exists {
		return nil, ErrRecordNotFound
	}
	return snap.Clone(), nil
}

func (m *MemoryStore) StartGame(ctx context.Context, roomID string, seats []models.Seat, turn models.TurnState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := &models.Snapshot{
		Room: models.Room{ID: roomID, Status: models.RoomPlaying},
		Turn: &turn,
	}
	snap.Players = append(snap.Players, seats...)
	snap = snap.Clone()

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rooms[roomID] = snap
	return nil
}

func (m *MemoryStore) SaveTurn(ctx context.Context, roomID string, players []models.PlayerState, turn models.TurnState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	snap, exists := m.rooms[roomID]
	if !exists || snap.Turn == nil {
		return ErrRecordNotFound
	}
	for _, p := range players {
		if err := setPlayer(snap, p); err != nil {
			return err
		}
	}
	t := turn.Clone()
	snap.Turn = &t
	return nil
}

func (m *MemoryStore) CommitPurchase(ctx context.Context, roomID, actorID string, player models.PlayerState, market map[string]int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	snap, exists := m.rooms[roomID]
	if !exists || snap.Turn == nil {
		return ErrConditionFailed
	}
	turn := snap.Turn
	if turn.HasPurchased || turn.Phase != models.PhaseBuying || turn.CurrentTurnPlayerID != actorID {
		return ErrConditionFailed
	}
	if _, ok := snap.Player(player.ID); !ok {
		return ErrRecordNotFound
	}

	turn.HasPurchased = true
	if market != nil {
		turn.Market = make(map[string]int, len(market))
		for k, v := range market {
			turn.Market[k] = v
		}
	}
	return setPlayer(snap, player)
}

func (m *MemoryStore) FinishRoom(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	snap, exists := m.rooms[roomID]
	if !exists {
		return ErrRecordNotFound
	}
	snap.Room.Status = models.RoomFinished
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func setPlayer(snap *models.Snapshot, p models.PlayerState) error {
	seat, ok := snap.Player(p.ID)
	if !ok {
		return ErrRecordNotFound
	}
	seat.PlayerState = p.Clone()
	return nil
}
