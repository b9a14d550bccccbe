// models/models.go
package models

import (
	"github.com/wfunc/dicetown/catalog"
)

// Phase 回合阶段
type Phase string

const (
	PhaseRolling Phase = "rolling"
	PhaseIncome  Phase = "income"
	PhaseBuying  Phase = "buying"
	// PhaseCleanup is reserved. No transition produces it.
	PhaseCleanup Phase = "cleanup"
)

// RoomStatus 房间状态
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// Decision types owed by a player mid-turn.
const (
	DecisionTVStation      = catalog.TVStation
	DecisionBusinessCenter = catalog.BusinessCenter
	DecisionRadioTower     = catalog.RadioTower
)

// Radio tower choices.
const (
	ChoiceKeep   = "keep"
	ChoiceReroll = "reroll"
)

// PlayerState 玩家经济状态
type PlayerState struct {
	ID        string          `json:"id"`
	OwnerRef  string          `json:"owner_ref,omitempty"`
	Coins     int             `json:"coins"`
	Cards     map[string]int  `json:"cards"`
	Landmarks map[string]bool `json:"landmarks"`
}

// Clone returns a deep copy.
func (p PlayerState) Clone() PlayerState {
	out := p
	out.Cards = make(map[string]int, len(p.Cards))
	for k, v := range p.Cards {
		out.Cards[k] = v
	}
	out.Landmarks = make(map[string]bool, len(p.Landmarks))
	for k, v := range p.Landmarks {
		out.Landmarks[k] = v
	}
	return out
}

// HasLandmark reports whether the player has built the landmark.
func (p PlayerState) HasLandmark(id string) bool {
	return p.Landmarks[id]
}

// HasWon reports whether every landmark is built.
func (p PlayerState) HasWon() bool {
	for _, l := range catalog.Landmarks() {
		if !p.Landmarks[l.ID] {
			return false
		}
	}
	return true
}

// ClonePlayers deep-copies a player list.
func ClonePlayers(players []PlayerState) []PlayerState {
	out := make([]PlayerState, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}

// Seat 房间座位，包裹玩家状态
type Seat struct {
	PlayerState
	IsAI      bool `json:"is_ai"`
	TurnOrder int  `json:"turn_order"`
}

// PendingDecision is a choice still owed by OwnerID.
type PendingDecision struct {
	Type    string `json:"type"`
	OwnerID string `json:"owner_id"`
}

// Resolution answers one PendingDecision. Which fields are read depends on Type.
type Resolution struct {
	Type           string `json:"type"`
	OwnerID        string `json:"owner_id,omitempty"`
	Choice         string `json:"choice,omitempty"`
	TargetPlayerID string `json:"target_player_id,omitempty"`
	GiveCardID     string `json:"give_card_id,omitempty"`
	TakeCardID     string `json:"take_card_id,omitempty"`
}

// Transaction 资金流水
type Transaction struct {
	FromPlayerID string `json:"from_player_id,omitempty"`
	ToPlayerID   string `json:"to_player_id,omitempty"`
	Amount       int    `json:"amount"`
	Reason       string `json:"reason"`
	CardID       string `json:"card_id,omitempty"`
}

// TurnState 房间回合状态
type TurnState struct {
	CurrentTurnPlayerID  string            `json:"current_turn_player_id"`
	Phase                Phase             `json:"phase"`
	LastDiceRoll         []int             `json:"last_dice_roll,omitempty"`
	Market               map[string]int    `json:"market"`
	PendingDecisions     []PendingDecision `json:"pending_decisions"`
	HasPurchased         bool              `json:"has_purchased"`
	LastRollTransactions []Transaction     `json:"last_roll_transactions,omitempty"`
}

// Clone returns a deep copy.
func (t TurnState) Clone() TurnState {
	out := t
	if t.LastDiceRoll != nil {
		out.LastDiceRoll = append([]int(nil), t.LastDiceRoll...)
	}
	out.Market = make(map[string]int, len(t.Market))
	for k, v := range t.Market {
		out.Market[k] = v
	}
	out.PendingDecisions = append([]PendingDecision(nil), t.PendingDecisions...)
	out.LastRollTransactions = append([]Transaction(nil), t.LastRollTransactions...)
	return out
}

// HasPending reports whether a decision of the given type is owed by ownerID.
func (t TurnState) HasPending(decisionType, ownerID string) bool {
	return t.PendingIndex(decisionType, ownerID) >= 0
}

// PendingIndex returns the position of the matching pending decision, or -1.
func (t TurnState) PendingIndex(decisionType, ownerID string) int {
	for i, d := range t.PendingDecisions {
		if d.Type == decisionType && d.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

// Room 房间元数据
type Room struct {
	ID     string     `json:"id"`
	Status RoomStatus `json:"status"`
}

// Snapshot 房间权威快照
type Snapshot struct {
	Room    Room       `json:"room"`
	Players []Seat     `json:"players"`
	Turn    *TurnState `json:"turn,omitempty"`
}

// Player finds a seat by player id.
func (s *Snapshot) Player(id string) (*Seat, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// PlayerStates returns the economic state of every seat in turn order.
func (s *Snapshot) PlayerStates() []PlayerState {
	out := make([]PlayerState, len(s.Players))
	for i, seat := range s.Players {
		out[i] = seat.PlayerState.Clone()
	}
	return out
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Room: s.Room, Players: make([]Seat, len(s.Players))}
	for i, seat := range s.Players {
		out.Players[i] = seat
		out.Players[i].PlayerState = seat.PlayerState.Clone()
	}
	if s.Turn != nil {
		t := s.Turn.Clone()
		out.Turn = &t
	}
	return out
}
