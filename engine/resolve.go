// Package engine holds the pure rules of the game: roll resolution, decision
// application and purchase checks. Nothing here touches storage or mutates
// its inputs.
package engine

import (
	"fmt"

	"github.com/wfunc/dicetown/catalog"
	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/models"
)

// RollInput is everything the resolver needs for one dice total.
type RollInput struct {
	Roll           int
	ActivePlayerID string
	// Players in seat order. Seat order drives red and blue iteration.
	Players []models.PlayerState
	// Decisions already answered for this roll, if any.
	Decisions []models.Resolution
}

// Resolution is the outcome of a roll or a single decision.
type Resolution struct {
	Players          []models.PlayerState
	Transactions     []models.Transaction
	PendingDecisions []models.PendingDecision
}

// table is the working copy the resolver mutates.
type table struct {
	players []models.PlayerState
	index   map[string]int
	txs     []models.Transaction
}

func newTable(players []models.PlayerState) *table {
	t := &table{
		players: models.ClonePlayers(players),
		index:   make(map[string]int, len(players)),
	}
	for i, p := range t.players {
		t.index[p.ID] = i
	}
	return t
}

func (t *table) player(id string) (*models.PlayerState, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, gameerr.Newf(gameerr.KindPlayerNotInRoom, "player %s is not seated", id).With("player_id", id)
	}
	return &t.players[i], nil
}

// transfer moves up to amount coins and returns what was actually paid.
func (t *table) transfer(fromID, toID string, amount int) int {
	if fromID == toID || amount <= 0 {
		return 0
	}
	from, err := t.player(fromID)
	if err != nil {
		return 0
	}
	to, err := t.player(toID)
	if err != nil {
		return 0
	}
	paid := amount
	if from.Coins < paid {
		paid = from.Coins
	}
	if paid <= 0 {
		return 0
	}
	from.Coins -= paid
	to.Coins += paid
	return paid
}

func (t *table) log(tx models.Transaction) {
	t.txs = append(t.txs, tx)
}

func (t *table) result(pending []models.PendingDecision) Resolution {
	return Resolution{
		Players:          t.players,
		Transactions:     t.txs,
		PendingDecisions: pending,
	}
}

// ResolveRoll applies every card triggered by in.Roll, in the fixed order
// red, blue, green, purple.
func ResolveRoll(in RollInput) (Resolution, error) {
	t := newTable(in.Players)
	if _, err := t.player(in.ActivePlayerID); err != nil {
		return Resolution{}, err
	}

	t.applyRed(in.ActivePlayerID, in.Roll)
	t.applyBlue(in.Roll)
	if err := t.applyGreen(in.ActivePlayerID, in.Roll); err != nil {
		return Resolution{}, err
	}
	pending, err := t.applyPurple(in.ActivePlayerID, in.Roll, in.Decisions)
	if err != nil {
		return Resolution{}, err
	}
	return t.result(pending), nil
}

func (t *table) applyRed(activeID string, roll int) {
	for i := range t.players {
		owner := &t.players[i]
		if owner.ID == activeID {
			continue
		}
		for _, e := range catalog.EstablishmentsByColor(catalog.Red) {
			count := owner.Cards[e.ID]
			if count <= 0 || !e.Activates(roll) {
				continue
			}
			payout := effectPayout(e, *owner, count)
			paid := t.transfer(activeID, owner.ID, payout)
			if paid > 0 {
				t.log(models.Transaction{
					FromPlayerID: activeID,
					ToPlayerID:   owner.ID,
					Amount:       paid,
					Reason:       activationReason(e),
					CardID:       e.ID,
				})
			}
		}
	}
}

func (t *table) applyBlue(roll int) {
	for i := range t.players {
		t.bankPayouts(&t.players[i], catalog.Blue, roll)
	}
}

func (t *table) applyGreen(activeID string, roll int) error {
	active, err := t.player(activeID)
	if err != nil {
		return err
	}
	t.bankPayouts(active, catalog.Green, roll)
	return nil
}

func (t *table) bankPayouts(p *models.PlayerState, color catalog.Color, roll int) {
	for _, e := range catalog.EstablishmentsByColor(color) {
		count := p.Cards[e.ID]
		if count <= 0 || !e.Activates(roll) {
			continue
		}
		payout := effectPayout(e, *p, count)
		if payout <= 0 {
			continue
		}
		p.Coins += payout
		t.log(models.Transaction{
			ToPlayerID: p.ID,
			Amount:     payout,
			Reason:     activationReason(e),
			CardID:     e.ID,
		})
	}
}

func (t *table) applyPurple(activeID string, roll int, decisions []models.Resolution) ([]models.PendingDecision, error) {
	active, err := t.player(activeID)
	if err != nil {
		return nil, err
	}

	var pending []models.PendingDecision
	for _, e := range catalog.EstablishmentsByColor(catalog.Purple) {
		if active.Cards[e.ID] <= 0 || !e.Activates(roll) {
			continue
		}

		switch e.Effect.Kind {
		case catalog.EffectStealEach:
			t.applyStadium(activeID, e)

		case catalog.EffectStealChoice, catalog.EffectSwap:
			answer, ok := findResolution(decisions, e.ID, activeID)
			if !ok {
				pending = append(pending, models.PendingDecision{Type: e.ID, OwnerID: activeID})
				continue
			}
			if err := t.apply(answer); err != nil {
				return nil, err
			}
		}
	}
	return pending, nil
}

func (t *table) applyStadium(activeID string, e catalog.Establishment) {
	for i := range t.players {
		payer := t.players[i].ID
		if payer == activeID {
			continue
		}
		paid := t.transfer(payer, activeID, e.Effect.Amount)
		if paid > 0 {
			t.log(models.Transaction{
				FromPlayerID: payer,
				ToPlayerID:   activeID,
				Amount:       paid,
				Reason:       activationReason(e),
				CardID:       e.ID,
			})
		}
	}
}

func findResolution(decisions []models.Resolution, decisionType, ownerID string) (models.Resolution, bool) {
	for _, d := range decisions {
		if d.Type == decisionType && d.OwnerID == ownerID {
			return d, true
		}
	}
	return models.Resolution{}, false
}

// effectPayout is what one activation of e pays its owner, before clamping.
func effectPayout(e catalog.Establishment, owner models.PlayerState, count int) int {
	switch e.Effect.Kind {
	case catalog.EffectBank, catalog.EffectSteal:
		return count * (e.Effect.Amount + shoppingMallBonus(owner, e))
	case catalog.EffectBankPerIcon:
		return count * e.Effect.Amount * countIcons(owner, e.Effect.Icons)
	}
	return 0
}

func shoppingMallBonus(owner models.PlayerState, e catalog.Establishment) int {
	if !owner.HasLandmark(catalog.ShoppingMall) {
		return 0
	}
	if e.Icon == catalog.IconBread || e.Icon == catalog.IconCup {
		return 1
	}
	return 0
}

func countIcons(owner models.PlayerState, icons []catalog.Icon) int {
	total := 0
	for id, count := range owner.Cards {
		e, ok := catalog.LookupEstablishment(id)
		if !ok || count <= 0 {
			continue
		}
		for _, icon := range icons {
			if e.Icon == icon {
				total += count
				break
			}
		}
	}
	return total
}

func activationReason(e catalog.Establishment) string {
	return fmt.Sprintf("%s activation", e.Name)
}
