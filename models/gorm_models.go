// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// GormRoom 房间表
type GormRoom struct {
	ID        string `gorm:"primaryKey;size:64"`
	Status    string `gorm:"size:16;not null;default:waiting"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GormRoom) TableName() string { return "rooms" }

// GormPlayer 玩家表，每个座位一行
type GormPlayer struct {
	ID        string         `gorm:"primaryKey;size:64"`
	RoomID    string         `gorm:"index;size:64;not null"`
	OwnerRef  string         `gorm:"size:128"`
	IsAI      bool           `gorm:"not null;default:false"`
	TurnOrder int            `gorm:"not null"`
	Coins     int            `gorm:"not null;default:0"`
	Cards     datatypes.JSON `gorm:"not null"`
	Landmarks datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GormPlayer) TableName() string { return "players" }

// GormGameState 回合状态表，每个房间一行
type GormGameState struct {
	RoomID               string `gorm:"primaryKey;size:64"`
	CurrentTurnPlayerID  string `gorm:"size:64;not null"`
	Phase                string `gorm:"size:16;not null"`
	LastDiceRoll         datatypes.JSON
	Market               datatypes.JSON `gorm:"not null"`
	PendingDecisions     datatypes.JSON `gorm:"not null"`
	HasPurchased         bool           `gorm:"not null;default:false"`
	LastRollTransactions datatypes.JSON
	UpdatedAt            time.Time
}

func (GormGameState) TableName() string { return "game_state" }
