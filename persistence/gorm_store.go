// persistence/gorm_store.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/dicetown/models"
)

// GormStore 使用GORM的存储实现，支持 PostgreSQL 和 SQLite
type GormStore struct {
	db *gorm.DB
}

func gormConfig() *gorm.Config {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)
	return &gorm.Config{Logger: gormLogger}
}

// NewGormPostgres 创建GORM PostgreSQL数据库连接
func NewGormPostgres(host string, port int, user, password, dbname, sslmode string) (*GormStore, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewGormStore(db)
}

// NewGormSQLite 打开 SQLite 数据库，path 可为文件路径或 file::memory: 形式的DSN
func NewGormSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite 写入串行
	sqlDB.SetMaxOpenConns(1)

	return NewGormStore(db)
}

// NewGormStore 包装已有连接并自动迁移表结构
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormRoom{},
		&models.GormPlayer{},
		&models.GormGameState{},
	)
}

// LoadRoom 加载房间快照
func (s *GormStore) LoadRoom(ctx context.Context, roomID string) (*models.Snapshot, error) {
	db := s.db.WithContext(ctx)

	var room models.GormRoom
	if err := db.Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}

	var rows []models.GormPlayer
	if err := db.Where("room_id = ?", roomID).Order("turn_order").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load players for %s: %w", roomID, err)
	}

	snap := &models.Snapshot{
		Room:    models.Room{ID: room.ID, Status: models.RoomStatus(room.Status)},
		Players: make([]models.Seat, 0, len(rows)),
	}
	for _, row := range rows {
		seat, err := fromGormPlayer(row)
		if err != nil {
			return nil, err
		}
		snap.Players = append(snap.Players, seat)
	}

	var gs models.GormGameState
	err := db.Where("room_id = ?", roomID).First(&gs).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("load game state for %s: %w", roomID, err)
	default:
		if snap.Turn, err = fromGormGameState(gs); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// StartGame 重置房间
func (s *GormStore) StartGame(ctx context.Context, roomID string, seats []models.Seat, turn models.TurnState) error {
	gs, err := toGormGameState(roomID, turn)
	if err != nil {
		return err
	}
	rows := make([]models.GormPlayer, 0, len(seats))
	for _, seat := range seats {
		row, err := toGormPlayer(roomID, seat)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room := models.GormRoom{ID: roomID, Status: string(models.RoomPlaying)}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&room).Error; err != nil {
			return fmt.Errorf("upsert room %s: %w", roomID, err)
		}

		if err := tx.Where("room_id = ?", roomID).Delete(&models.GormPlayer{}).Error; err != nil {
			return fmt.Errorf("clear players for %s: %w", roomID, err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert players for %s: %w", roomID, err)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			UpdateAll: true,
		}).Create(&gs).Error; err != nil {
			return fmt.Errorf("upsert game state for %s: %w", roomID, err)
		}
		return nil
	})
}

// SaveTurn 保存玩家和回合状态
func (s *GormStore) SaveTurn(ctx context.Context, roomID string, players []models.PlayerState, turn models.TurnState) error {
	gs, err := toGormGameState(roomID, turn)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range players {
			if err := updatePlayer(tx, roomID, p); err != nil {
				return err
			}
		}
		res := tx.Model(&models.GormGameState{}).
			Where("room_id = ?", roomID).
			Updates(gameStateColumns(gs))
		if res.Error != nil {
			return fmt.Errorf("update game state for %s: %w", roomID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

// CommitPurchase 购买的条件更新：has_purchased 仅能由 false 变为 true 一次
func (s *GormStore) CommitPurchase(ctx context.Context, roomID, actorID string, player models.PlayerState, market map[string]int) error {
	updates := map[string]interface{}{"has_purchased": true}
	if market != nil {
		encoded, err := marshalJSON(market)
		if err != nil {
			return fmt.Errorf("encode market: %w", err)
		}
		updates["market"] = encoded
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GormGameState{}).
			Where("room_id = ? AND has_purchased = ? AND phase = ? AND current_turn_player_id = ?",
				roomID, false, string(models.PhaseBuying), actorID).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("conditional purchase update for %s: %w", roomID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConditionFailed
		}
		return updatePlayer(tx, roomID, player)
	})
}

// FinishRoom 标记房间结束
func (s *GormStore) FinishRoom(ctx context.Context, roomID string) error {
	res := s.db.WithContext(ctx).Model(&models.GormRoom{}).
		Where("id = ?", roomID).
		Update("status", string(models.RoomFinished))
	if res.Error != nil {
		return fmt.Errorf("finish room %s: %w", roomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Close 关闭数据库连接
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func updatePlayer(tx *gorm.DB, roomID string, p models.PlayerState) error {
	cols, err := playerColumns(p)
	if err != nil {
		return err
	}
	res := tx.Model(&models.GormPlayer{}).
		Where("id = ? AND room_id = ?", p.ID, roomID).
		Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update player %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
