package engine

import (
	"github.com/wfunc/dicetown/catalog"
	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/models"
)

// NewPlayerState returns a player with the starting coins and hand.
func NewPlayerState(id, ownerRef string) models.PlayerState {
	return models.PlayerState{
		ID:        id,
		OwnerRef:  ownerRef,
		Coins:     catalog.StartingCoins,
		Cards:     catalog.StartingCards(),
		Landmarks: map[string]bool{},
	}
}

func CanRollTwoDice(p models.PlayerState) bool {
	return p.HasLandmark(catalog.TrainStation)
}

func CanReroll(p models.PlayerState) bool {
	return p.HasLandmark(catalog.RadioTower)
}

// ShouldTakeExtraTurn reports doubles on two dice with the amusement park built.
func ShouldTakeExtraTurn(p models.PlayerState, dice []int) bool {
	return p.HasLandmark(catalog.AmusementPark) && len(dice) == 2 && dice[0] == dice[1]
}

// CheckEstablishmentPurchase validates buying one copy of cardID.
// Checks run in order: known card, stock, ownership cap, coins.
func CheckEstablishmentPurchase(p models.PlayerState, cardID string, market map[string]int) (catalog.Establishment, error) {
	e, ok := catalog.LookupEstablishment(cardID)
	if !ok {
		return e, gameerr.Newf(gameerr.KindUnknownCard, "unknown establishment %q", cardID).With("card_id", cardID)
	}
	if market[cardID] <= 0 {
		return e, gameerr.Newf(gameerr.KindSoldOut, "%s is sold out", e.Name).With("card_id", cardID)
	}
	if e.MaxOwned > 0 && p.Cards[cardID] >= e.MaxOwned {
		return e, gameerr.Newf(gameerr.KindOwnershipCapReached, "you may own at most %d %s", e.MaxOwned, e.Name).
			With("card_id", cardID).
			With("max_owned", e.MaxOwned)
	}
	if p.Coins < e.Cost {
		return e, gameerr.InsufficientFunds(e.Cost, p.Coins).With("card_id", cardID)
	}
	return e, nil
}

// ApplyEstablishmentPurchase returns copies of the player and market after a
// validated purchase.
func ApplyEstablishmentPurchase(p models.PlayerState, e catalog.Establishment, market map[string]int) (models.PlayerState, map[string]int) {
	out := p.Clone()
	out.Coins -= e.Cost
	out.Cards[e.ID]++

	nextMarket := make(map[string]int, len(market))
	for k, v := range market {
		nextMarket[k] = v
	}
	nextMarket[e.ID]--
	return out, nextMarket
}

// CheckLandmarkPurchase validates building landmarkID.
func CheckLandmarkPurchase(p models.PlayerState, landmarkID string) (catalog.Landmark, error) {
	l, ok := catalog.LookupLandmark(landmarkID)
	if !ok {
		return l, gameerr.Newf(gameerr.KindUnknownCard, "unknown landmark %q", landmarkID).With("card_id", landmarkID)
	}
	if p.HasLandmark(landmarkID) {
		return l, gameerr.Newf(gameerr.KindLandmarkAlreadyOwned, "%s is already built", l.Name).With("card_id", landmarkID)
	}
	if p.Coins < l.Cost {
		return l, gameerr.InsufficientFunds(l.Cost, p.Coins).With("card_id", landmarkID)
	}
	return l, nil
}

func ApplyLandmarkPurchase(p models.PlayerState, l catalog.Landmark) models.PlayerState {
	out := p.Clone()
	out.Coins -= l.Cost
	out.Landmarks[l.ID] = true
	return out
}
