// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/dicetown/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 基于 database/sql 与 lib/pq 的原生SQL实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname, sslmode string) (*PostgreSQL, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化表结构，与 GORM 模型的列保持一致
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS rooms (
            id VARCHAR(64) PRIMARY KEY,
            status VARCHAR(16) NOT NULL DEFAULT 'waiting',
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS players (
            id VARCHAR(64) PRIMARY KEY,
            room_id VARCHAR(64) NOT NULL,
            owner_ref VARCHAR(128),
            is_ai BOOLEAN NOT NULL DEFAULT FALSE,
            turn_order BIGINT NOT NULL,
            coins BIGINT NOT NULL DEFAULT 0,
            cards JSONB NOT NULL,
            landmarks JSONB NOT NULL,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_state (
            room_id VARCHAR(64) PRIMARY KEY,
            current_turn_player_id VARCHAR(64) NOT NULL,
            phase VARCHAR(16) NOT NULL,
            last_dice_roll JSONB,
            market JSONB NOT NULL,
            pending_decisions JSONB NOT NULL,
            has_purchased BOOLEAN NOT NULL DEFAULT FALSE,
            last_roll_transactions JSONB,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_players_room_id ON players(room_id)`)
	return err
}

// LoadRoom 加载房间快照
func (p *PostgreSQL) LoadRoom(ctx context.Context, roomID string) (*models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	snap := &models.Snapshot{Room: models.Room{ID: roomID}}
	var status string
	err := p.db.QueryRowContext(ctx, `SELECT status FROM rooms WHERE id = $1`, roomID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	snap.Room.Status = models.RoomStatus(status)

	rows, err := p.db.QueryContext(ctx, `
        SELECT id, COALESCE(owner_ref, ''), is_ai, turn_order, coins, cards, landmarks
        FROM players WHERE room_id = $1 ORDER BY turn_order`, roomID)
	if err != nil {
		return nil, fmt.Errorf("load players for %s: %w", roomID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.GormPlayer
		if err := rows.Scan(&row.ID, &row.OwnerRef, &row.IsAI, &row.TurnOrder, &row.Coins, &row.Cards, &row.Landmarks); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		seat, err := fromGormPlayer(row)
		if err != nil {
			return nil, err
		}
		snap.Players = append(snap.Players, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var gs models.GormGameState
	err = p.db.QueryRowContext(ctx, `
        SELECT current_turn_player_id, phase, COALESCE(last_dice_roll, 'null'::jsonb), market,
               pending_decisions, has_purchased, COALESCE(last_roll_transactions, 'null'::jsonb)
        FROM game_state WHERE room_id = $1`, roomID).
		Scan(&gs.CurrentTurnPlayerID, &gs.Phase, &gs.LastDiceRoll, &gs.Market, &gs.PendingDecisions,
			&gs.HasPurchased, &gs.LastRollTransactions)
	switch {
	case errors.Is(err, sql.ErrNoRows):
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
func (p *PostgreSQL) StartGame(ctx context.Context, roomID string, seats []models.Seat, turn models.TurnState) error {
	gs, err := toGormGameState(roomID, turn)
	if err != nil {
		return err
	}

	return p.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO rooms (id, status) VALUES ($1, $2)
            ON CONFLICT (id) DO UPDATE SET status = $2, updated_at = CURRENT_TIMESTAMP`,
			roomID, string(models.RoomPlaying))
		if err != nil {
			return fmt.Errorf("upsert room %s: %w", roomID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE room_id = $1`, roomID); err != nil {
			return fmt.Errorf("clear players for %s: %w", roomID, err)
		}
		for _, seat := range seats {
			row, err := toGormPlayer(roomID, seat)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
                INSERT INTO players (id, room_id, owner_ref, is_ai, turn_order, coins, cards, landmarks)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				row.ID, row.RoomID, row.OwnerRef, row.IsAI, row.TurnOrder, row.Coins, row.Cards, row.Landmarks)
			if err != nil {
				return fmt.Errorf("insert player %s: %w", seat.ID, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
            INSERT INTO game_state (room_id, current_turn_player_id, phase, last_dice_roll, market,
                                    pending_decisions, has_purchased, last_roll_transactions)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (room_id) DO UPDATE SET
                current_turn_player_id = EXCLUDED.current_turn_player_id,
                phase = EXCLUDED.phase,
                last_dice_roll = EXCLUDED.last_dice_roll,
                market = EXCLUDED.market,
                pending_decisions = EXCLUDED.pending_decisions,
                has_purchased = EXCLUDED.has_purchased,
                last_roll_transactions = EXCLUDED.last_roll_transactions,
                updated_at = CURRENT_TIMESTAMP`,
			gs.RoomID, gs.CurrentTurnPlayerID, gs.Phase, gs.LastDiceRoll, gs.Market,
			gs.PendingDecisions, gs.HasPurchased, gs.LastRollTransactions)
		if err != nil {
			return fmt.Errorf("upsert game state for %s: %w", roomID, err)
		}
		return nil
	})
}

// SaveTurn 保存玩家和回合状态
func (p *PostgreSQL) SaveTurn(ctx context.Context, roomID string, players []models.PlayerState, turn models.TurnState) error {
	gs, err := toGormGameState(roomID, turn)
	if err != nil {
		return err
	}

	return p.withTx(ctx, func(tx *sql.Tx) error {
		for _, player := range players {
			if err := p.updatePlayer(ctx, tx, roomID, player); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `
            UPDATE game_state SET
                current_turn_player_id = $2, phase = $3, last_dice_roll = $4, market = $5,
                pending_decisions = $6, has_purchased = $7, last_roll_transactions = $8,
                updated_at = CURRENT_TIMESTAMP
            WHERE room_id = $1`,
			roomID, gs.CurrentTurnPlayerID, gs.Phase, gs.LastDiceRoll, gs.Market,
			gs.PendingDecisions, gs.HasPurchased, gs.LastRollTransactions)
		if err != nil {
			return fmt.Errorf("update game state for %s: %w", roomID, err)
		}
		return requireRow(res)
	})
}

// CommitPurchase 购买的条件更新
func (p *PostgreSQL) CommitPurchase(ctx context.Context, roomID, actorID string, player models.PlayerState, market map[string]int) error {
	var marketJSON interface{}
	if market != nil {
		encoded, err := marshalJSON(market)
		if err != nil {
			return fmt.Errorf("encode market: %w", err)
		}
		marketJSON = []byte(encoded)
	}

	return p.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE game_state
            SET has_purchased = TRUE, market = COALESCE($4::jsonb, market), updated_at = CURRENT_TIMESTAMP
            WHERE room_id = $1 AND has_purchased = FALSE AND phase = $2 AND current_turn_player_id = $3`,
			roomID, string(models.PhaseBuying), actorID, marketJSON)
		if err != nil {
			return fmt.Errorf("conditional purchase update for %s: %w", roomID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConditionFailed
		}
		return p.updatePlayer(ctx, tx, roomID, player)
	})
}

// FinishRoom 标记房间结束
func (p *PostgreSQL) FinishRoom(ctx context.Context, roomID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := p.db.ExecContext(ctx,
		`UPDATE rooms SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		roomID, string(models.RoomFinished))
	if err != nil {
		return fmt.Errorf("finish room %s: %w", roomID, err)
	}
	return requireRow(res)
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

func (p *PostgreSQL) updatePlayer(ctx context.Context, tx *sql.Tx, roomID string, player models.PlayerState) error {
	row, err := toGormPlayer(roomID, models.Seat{PlayerState: player})
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
        UPDATE players SET coins = $3, cards = $4, landmarks = $5, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1 AND room_id = $2`,
		player.ID, roomID, row.Coins, row.Cards, row.Landmarks)
	if err != nil {
		return fmt.Errorf("update player %s: %w", player.ID, err)
	}
	return requireRow(res)
}

func (p *PostgreSQL) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
