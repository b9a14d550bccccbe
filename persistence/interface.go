// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/wfunc/dicetown/models"
)

// Store 房间、座位与回合状态的存储接口
type Store interface {
	// LoadRoom 读取房间快照，房间不存在时返回 ErrRecordNotFound
	LoadRoom(ctx context.Context, roomID string) (*models.Snapshot, error)
	// StartGame 在一个事务内重置房间、座位和回合状态，房间状态置为 playing
	StartGame(ctx context.Context, roomID string, seats []models.Seat, turn models.TurnState) error
	// SaveTurn 在一个事务内写入玩家行和回合状态
	SaveTurn(ctx context.Context, roomID string, players []models.PlayerState, turn models.TurnState) error
	// CommitPurchase 条件更新 has_purchased 并写入玩家行。
	// market 为 nil 表示购买地标，不改动市场。
	// 条件不满足时返回 ErrConditionFailed。
	CommitPurchase(ctx context.Context, roomID, actorID string, player models.PlayerState, market map[string]int) error
	// FinishRoom 将房间标记为已结束
	FinishRoom(ctx context.Context, roomID string) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound  = fmt.Errorf("record not found")
	ErrConditionFailed = fmt.Errorf("conditional update matched no rows")
)
