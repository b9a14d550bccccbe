package persistence

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/wfunc/dicetown/models"
)

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func unmarshalJSON(raw datatypes.JSON, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func toGormPlayer(roomID string, seat models.Seat) (models.GormPlayer, error) {
	cards, err := marshalJSON(seat.Cards)
	if err != nil {
		return models.GormPlayer{}, fmt.Errorf("encode cards for %s: %w", seat.ID, err)
	}
	landmarks, err := marshalJSON(seat.Landmarks)
	if err != nil {
		return models.GormPlayer{}, fmt.Errorf("encode landmarks for %s: %w", seat.ID, err)
	}
	return models.GormPlayer{
		ID:        seat.ID,
		RoomID:    roomID,
		OwnerRef:  seat.OwnerRef,
		IsAI:      seat.IsAI,
		TurnOrder: seat.TurnOrder,
		Coins:     seat.Coins,
		Cards:     cards,
		Landmarks: landmarks,
	}, nil
}

func fromGormPlayer(row models.GormPlayer) (models.Seat, error) {
	seat := models.Seat{
		PlayerState: models.PlayerState{
			ID:        row.ID,
			OwnerRef:  row.OwnerRef,
			Coins:     row.Coins,
			Cards:     map[string]int{},
			Landmarks: map[string]bool{},
		},
		IsAI:      row.IsAI,
		TurnOrder: row.TurnOrder,
	}
	if err := unmarshalJSON(row.Cards, &seat.Cards); err != nil {
		return seat, fmt.Errorf("decode cards for %s: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Landmarks, &seat.Landmarks); err != nil {
		return seat, fmt.Errorf("decode landmarks for %s: %w", row.ID, err)
	}
	if seat.Cards == nil {
		seat.Cards = map[string]int{}
	}
	if seat.Landmarks == nil {
		seat.Landmarks = map[string]bool{}
	}
	return seat, nil
}

// playerColumns are the mutable columns of a player row.
func playerColumns(p models.PlayerState) (map[string]interface{}, error) {
	cards, err := marshalJSON(p.Cards)
	if err != nil {
		return nil, fmt.Errorf("encode cards for %s: %w", p.ID, err)
	}
	landmarks, err := marshalJSON(p.Landmarks)
	if err != nil {
		return nil, fmt.Errorf("encode landmarks for %s: %w", p.ID, err)
	}
	return map[string]interface{}{
		"coins":     p.Coins,
		"cards":     cards,
		"landmarks": landmarks,
	}, nil
}

func toGormGameState(roomID string, turn models.TurnState) (models.GormGameState, error) {
	row := models.GormGameState{
		RoomID:              roomID,
		CurrentTurnPlayerID: turn.CurrentTurnPlayerID,
		Phase:               string(turn.Phase),
		HasPurchased:        turn.HasPurchased,
	}
	var err error
	if row.LastDiceRoll, err = marshalJSON(turn.LastDiceRoll); err != nil {
		return row, fmt.Errorf("encode dice: %w", err)
	}
	if row.Market, err = marshalJSON(turn.Market); err != nil {
		return row, fmt.Errorf("encode market: %w", err)
	}
	pending := turn.PendingDecisions
	if pending == nil {
		pending = []models.PendingDecision{}
	}
	if row.PendingDecisions, err = marshalJSON(pending); err != nil {
		return row, fmt.Errorf("encode pending decisions: %w", err)
	}
	if row.LastRollTransactions, err = marshalJSON(turn.LastRollTransactions); err != nil {
		return row, fmt.Errorf("encode transactions: %w", err)
	}
	return row, nil
}

// gameStateColumns are the columns SaveTurn rewrites.
func gameStateColumns(row models.GormGameState) map[string]interface{} {
	return map[string]interface{}{
		"current_turn_player_id": row.CurrentTurnPlayerID,
		"phase":                  row.Phase,
		"last_dice_roll":         row.LastDiceRoll,
		"market":                 row.Market,
		"pending_decisions":      row.PendingDecisions,
		"has_purchased":          row.HasPurchased,
		"last_roll_transactions": row.LastRollTransactions,
	}
}

func fromGormGameState(row models.GormGameState) (*models.TurnState, error) {
	turn := &models.TurnState{
		CurrentTurnPlayerID: row.CurrentTurnPlayerID,
		Phase:               models.Phase(row.Phase),
		HasPurchased:        row.HasPurchased,
		Market:              map[string]int{},
	}
	if err := unmarshalJSON(row.LastDiceRoll, &turn.LastDiceRoll); err != nil {
		return nil, fmt.Errorf("decode dice: %w", err)
	}
	if err := unmarshalJSON(row.Market, &turn.Market); err != nil {
		return nil, fmt.Errorf("decode market: %w", err)
	}
	if err := unmarshalJSON(row.PendingDecisions, &turn.PendingDecisions); err != nil {
		return nil, fmt.Errorf("decode pending decisions: %w", err)
	}
	if err := unmarshalJSON(row.LastRollTransactions, &turn.LastRollTransactions); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return turn, nil
}
