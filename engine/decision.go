package engine

import (
	"github.com/wfunc/dicetown/catalog"
	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/models"
)

// SwapReason is the transaction reason logged for a business center swap.
const SwapReason = "Business Center swap"

// ApplyDecision applies one answered decision to a copy of players.
// A radio tower answer has no economic effect and returns the players unchanged.
func ApplyDecision(players []models.PlayerState, r models.Resolution) (Resolution, error) {
	t := newTable(players)
	if err := t.apply(r); err != nil {
		return Resolution{}, err
	}
	return t.result(nil), nil
}

func (t *table) apply(r models.Resolution) error {
	switch r.Type {
	case models.DecisionRadioTower:
		return nil
	case models.DecisionTVStation:
		return t.applyTVStation(r)
	case models.DecisionBusinessCenter:
		return t.applyBusinessCenter(r)
	default:
		return gameerr.Newf(gameerr.KindInvalidRequest, "unknown decision type %q", r.Type).With("type", r.Type)
	}
}

func (t *table) applyTVStation(r models.Resolution) error {
	owner, err := t.player(r.OwnerID)
	if err != nil {
		return err
	}
	target, err := t.player(r.TargetPlayerID)
	if err != nil {
		return err
	}

	e, _ := catalog.LookupEstablishment(catalog.TVStation)
	paid := t.transfer(target.ID, owner.ID, e.Effect.Amount)
	if paid > 0 {
		t.log(models.Transaction{
			FromPlayerID: target.ID,
			ToPlayerID:   owner.ID,
			Amount:       paid,
			Reason:       activationReason(e),
			CardID:       e.ID,
		})
	}
	return nil
}

// applyBusinessCenter re-checks both hands at apply time since they may have
// changed since the decision was queued.
func (t *table) applyBusinessCenter(r models.Resolution) error {
	owner, err := t.player(r.OwnerID)
	if err != nil {
		return err
	}
	target, err := t.player(r.TargetPlayerID)
	if err != nil {
		return err
	}
	if owner.ID == target.ID {
		return gameerr.New(gameerr.KindInvalidSwap, "cannot swap with yourself")
	}
	for _, id := range []string{r.GiveCardID, r.TakeCardID} {
		if _, ok := catalog.LookupEstablishment(id); !ok {
			return gameerr.Newf(gameerr.KindUnknownCard, "unknown establishment %q", id).With("card_id", id)
		}
	}

	give := owner.Cards[r.GiveCardID]
	take := target.Cards[r.TakeCardID]
	if give <= 0 || take <= 0 {
		return gameerr.New(gameerr.KindInvalidSwap, "both players must own the swapped cards").
			With("give_card_id", r.GiveCardID).
			With("take_card_id", r.TakeCardID)
	}

	owner.Cards[r.GiveCardID] = give - 1
	owner.Cards[r.TakeCardID]++
	target.Cards[r.TakeCardID] = take - 1
	target.Cards[r.GiveCardID]++

	t.log(models.Transaction{
		FromPlayerID: owner.ID,
		ToPlayerID:   target.ID,
		Amount:       0,
		Reason:       SwapReason,
		CardID:       catalog.BusinessCenter,
	})
	return nil
}
