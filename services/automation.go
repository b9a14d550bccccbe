package services

import (
	"context"

	"github.com/wfunc/dicetown/catalog"
	"github.com/wfunc/dicetown/engine"
	"github.com/wfunc/dicetown/logger"
	"github.com/wfunc/dicetown/models"
)

const (
	DefaultMaxAutomatedTurns     = 20
	DefaultMaxAutomatedDecisions = 10
)

// Automation plays AI seats through the public GameService operations.
// It never bypasses validation: whatever a human may not do, it may not do.
type Automation struct {
	service      *GameService
	maxTurns     int
	maxDecisions int
}

func newAutomation(s *GameService, maxTurns, maxDecisions int) *Automation {
	return &Automation{service: s, maxTurns: maxTurns, maxDecisions: maxDecisions}
}

// Run plays consecutive AI turns starting from snap and returns the last
// snapshot it saw. It stops at the first human seat, at the end of the game,
// at the turn cap, or at the first rejected action.
func (a *Automation) Run(ctx context.Context, snap *models.Snapshot) *models.Snapshot {
	for turns := 0; turns < a.maxTurns; turns++ {
		if snap == nil || snap.Room.Status != models.RoomPlaying || snap.Turn == nil {
			return snap
		}
		seat, ok := snap.Player(snap.Turn.CurrentTurnPlayerID)
		if !ok || !seat.IsAI {
			return snap
		}

		next, done := a.playTurn(ctx, snap, seat.PlayerState)
		snap = next
		if done {
			return snap
		}
	}

	if snap != nil && snap.Turn != nil && snap.Room.Status == models.RoomPlaying {
		if seat, ok := snap.Player(snap.Turn.CurrentTurnPlayerID); ok && seat.IsAI {
			logger.Log.Warnw("automation turn cap reached", "room_id", snap.Room.ID, "max_turns", a.maxTurns)
		}
	}
	return snap
}

// playTurn resumes the AI turn from whatever phase it is in. done reports
// that automation must stop.
func (a *Automation) playTurn(ctx context.Context, snap *models.Snapshot, player models.PlayerState) (*models.Snapshot, bool) {
	roomID := snap.Room.ID
	svc := a.service

	if snap.Turn.Phase == models.PhaseRolling && len(snap.Turn.LastDiceRoll) == 0 {
		diceCount := 1
		if engine.CanRollTwoDice(player) {
			diceCount = 2
		}
		next, err := svc.Roll(ctx, roomID, player.ID, diceCount)
		if err != nil {
			return a.stop(snap, player.ID, "roll", err)
		}
		snap = next
	}

	for decisions := 0; len(snap.Turn.PendingDecisions) > 0; decisions++ {
		if decisions >= a.maxDecisions {
			logger.Log.Warnw("automation decision cap reached", "room_id", roomID, "player_id", player.ID, "max_decisions", a.maxDecisions)
			return snap, true
		}
		pending := snap.Turn.PendingDecisions[0]
		r, ok := chooseDecision(snap, pending)
		if !ok {
			logger.Log.Warnw("automation cannot answer decision", "room_id", roomID, "player_id", player.ID, "type", pending.Type)
			return snap, true
		}
		next, err := svc.ResolveDecision(ctx, roomID, player.ID, r)
		if err != nil {
			return a.stop(snap, player.ID, "resolve_decision", err)
		}
		snap = next
	}

	if snap.Turn.Phase == models.PhaseBuying && !snap.Turn.HasPurchased {
		next, err := a.purchase(ctx, snap, player.ID)
		if err != nil {
			return a.stop(snap, player.ID, "purchase", err)
		}
		snap = next
	}

	next, err := svc.endTurnOnly(ctx, roomID, player.ID)
	if err != nil {
		return a.stop(snap, player.ID, "end_turn", err)
	}
	svc.recorder.AutomatedTurn()
	return next, next.Room.Status != models.RoomPlaying
}

func (a *Automation) stop(snap *models.Snapshot, playerID, step string, err error) (*models.Snapshot, bool) {
	logger.Log.Warnw("automation stopped", "room_id", snap.Room.ID, "player_id", playerID, "step", step, "error", err)
	return snap, true
}

// purchase buys the first affordable landmark, else the first affordable
// establishment, else nothing.
func (a *Automation) purchase(ctx context.Context, snap *models.Snapshot, playerID string) (*models.Snapshot, error) {
	seat, ok := snap.Player(playerID)
	if !ok {
		return snap, nil
	}
	for _, l := range catalog.Landmarks() {
		if _, err := engine.CheckLandmarkPurchase(seat.PlayerState, l.ID); err == nil {
			return a.service.BuyLandmark(ctx, snap.Room.ID, playerID, l.ID)
		}
	}
	for _, e := range catalog.Establishments() {
		if _, err := engine.CheckEstablishmentPurchase(seat.PlayerState, e.ID, snap.Turn.Market); err == nil {
			return a.service.BuyEstablishment(ctx, snap.Room.ID, playerID, e.ID)
		}
	}
	return snap, nil
}

// chooseDecision answers a pending decision the way an AI seat does.
// ok is false when no legal answer exists.
func chooseDecision(snap *models.Snapshot, pending models.PendingDecision) (models.Resolution, bool) {
	r := models.Resolution{Type: pending.Type, OwnerID: pending.OwnerID}
	if pending.Type == models.DecisionRadioTower {
		r.Choice = models.ChoiceKeep
		return r, true
	}

	owner, ok := snap.Player(pending.OwnerID)
	if !ok {
		return r, false
	}
	target, ok := richestOpponent(snap, pending.OwnerID)
	if !ok {
		return r, false
	}
	r.TargetPlayerID = target.ID

	switch pending.Type {
	case models.DecisionTVStation:
		return r, true
	case models.DecisionBusinessCenter:
		give, okGive := firstOwnedCard(owner.PlayerState)
		take, okTake := firstOwnedCard(target.PlayerState)
		if !okGive || !okTake {
			return r, false
		}
		r.GiveCardID = give
		r.TakeCardID = take
		return r, true
	}
	return r, false
}

// richestOpponent picks the opponent with the most coins; ties go to the
// earliest seat.
func richestOpponent(snap *models.Snapshot, ownerID string) (*models.Seat, bool) {
	var best *models.Seat
	for i := range snap.Players {
		seat := &snap.Players[i]
		if seat.ID == ownerID {
			continue
		}
		if best == nil || seat.Coins > best.Coins {
			best = seat
		}
	}
	return best, best != nil
}

func firstOwnedCard(p models.PlayerState) (string, bool) {
	for _, id := range catalog.SortedCardIDs(p.Cards) {
		if p.Cards[id] > 0 {
			return id, true
		}
	}
	return "", false
}
