package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dicetown/catalog"
	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/models"
)

func player(id string, coins int, cards map[string]int, landmarks ...string) models.PlayerState {
	p := models.PlayerState{ID: id, Coins: coins, Cards: cards, Landmarks: map[string]bool{}}
	if p.Cards == nil {
		p.Cards = map[string]int{}
	}
	for _, l := range landmarks {
		p.Landmarks[l] = true
	}
	return p
}

func byID(t *testing.T, players []models.PlayerState, id string) models.PlayerState {
	t.Helper()
	for _, p := range players {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("player %s missing from result", id)
	return models.PlayerState{}
}

func TestResolveRoll_WheatFieldPaysFromBank(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           1,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 3, map[string]int{catalog.WheatField: 1}),
			player("p2", 3, nil),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, byID(t, res.Players, "p1").Coins)
	assert.Empty(t, res.PendingDecisions)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, models.Transaction{ToPlayerID: "p1", Amount: 1, Reason: "Wheat Field activation", CardID: catalog.WheatField}, res.Transactions[0])
}

func TestResolveRoll_CafeTakesFromRoller(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           3,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 5, nil),
			player("p2", 0, map[string]int{catalog.Cafe: 1}),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 1, byID(t, res.Players, "p2").Coins)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "p1", res.Transactions[0].FromPlayerID)
	assert.Equal(t, "p2", res.Transactions[0].ToPlayerID)
}

func TestResolveRoll_TVStationWithoutAnswerIsPending(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           6,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 2, map[string]int{catalog.TVStation: 1}),
			player("p2", 9, nil),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.PendingDecision{{Type: models.DecisionTVStation, OwnerID: "p1"}}, res.PendingDecisions)
	assert.Equal(t, 2, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 9, byID(t, res.Players, "p2").Coins)
	assert.Empty(t, res.Transactions)
}

func TestResolveRoll_StadiumSkipsBrokePlayers(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           6,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 0, map[string]int{catalog.Stadium: 1}),
			player("p2", 0, nil),
			player("p3", 5, nil),
			player("p4", 1, nil),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 0, byID(t, res.Players, "p2").Coins)
	assert.Equal(t, 3, byID(t, res.Players, "p3").Coins)
	assert.Equal(t, 0, byID(t, res.Players, "p4").Coins)

	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "p3", res.Transactions[0].FromPlayerID)
	assert.Equal(t, 2, res.Transactions[0].Amount)
	assert.Equal(t, "p4", res.Transactions[1].FromPlayerID)
	assert.Equal(t, 1, res.Transactions[1].Amount)
}

func TestResolveRoll_RedUsesBalanceBeforeIncome(t *testing.T) {
	// The bakery income must not fund the cafe payment on the same roll.
	res, err := ResolveRoll(RollInput{
		Roll:           3,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 0, map[string]int{catalog.Bakery: 1}),
			player("p2", 0, map[string]int{catalog.Cafe: 1}),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 0, byID(t, res.Players, "p2").Coins)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, catalog.Bakery, res.Transactions[0].CardID)
}

func TestResolveRoll_RedPaymentIsClamped(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           9,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 3, nil),
			player("p2", 0, map[string]int{catalog.FamilyRestaurant: 2}),
			player("p3", 0, map[string]int{catalog.FamilyRestaurant: 1}),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 3, byID(t, res.Players, "p2").Coins)
	assert.Equal(t, 0, byID(t, res.Players, "p3").Coins)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, 3, res.Transactions[0].Amount)
}

func TestResolveRoll_BlueFiresForEveryone(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           2,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 0, map[string]int{catalog.Ranch: 1}),
			player("p2", 0, map[string]int{catalog.Ranch: 2, catalog.Bakery: 1}),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, byID(t, res.Players, "p1").Coins)
	// Green only pays the roller.
	assert.Equal(t, 2, byID(t, res.Players, "p2").Coins)
}

func TestResolveRoll_ShoppingMallBonus(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           3,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 10, map[string]int{catalog.Bakery: 2}, catalog.ShoppingMall),
			player("p2", 0, map[string]int{catalog.Cafe: 1}, catalog.ShoppingMall),
		},
	})
	require.NoError(t, err)

	// Cafe pays 1+1, bakery pays 2*(1+1).
	assert.Equal(t, 10-2+4, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 2, byID(t, res.Players, "p2").Coins)
}

func TestResolveRoll_BankPerIcon(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           7,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 0, map[string]int{catalog.CheeseFactory: 1, catalog.Ranch: 2}, catalog.ShoppingMall),
			player("p2", 0, nil),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, byID(t, res.Players, "p1").Coins)

	res, err = ResolveRoll(RollInput{
		Roll:           11,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 0, map[string]int{catalog.FruitAndVegetableMarket: 2, catalog.WheatField: 1, catalog.AppleOrchard: 1}),
			player("p2", 0, nil),
		},
	})
	require.NoError(t, err)
	// the markets carry the fruit icon themselves: 1 wheat + 1 orchard + 2 markets
	assert.Equal(t, 2*2*4, byID(t, res.Players, "p1").Coins)
}

func TestResolveRoll_PurpleDecisionsQueueInCatalogOrder(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           6,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 0, map[string]int{catalog.BusinessCenter: 1, catalog.TVStation: 1}),
			player("p2", 4, nil),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.PendingDecision{
		{Type: models.DecisionTVStation, OwnerID: "p1"},
		{Type: models.DecisionBusinessCenter, OwnerID: "p1"},
	}, res.PendingDecisions)
}

func TestResolveRoll_SuppliedTVStationAnswerIsApplied(t *testing.T) {
	res, err := ResolveRoll(RollInput{
		Roll:           6,
		ActivePlayerID: "p1",
		Players: []models.PlayerState{
			player("p1", 0, map[string]int{catalog.TVStation: 1}),
			player("p2", 3, nil),
		},
		Decisions: []models.Resolution{{Type: models.DecisionTVStation, OwnerID: "p1", TargetPlayerID: "p2"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.PendingDecisions)
	assert.Equal(t, 3, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 0, byID(t, res.Players, "p2").Coins)
}

func TestResolveRoll_DoesNotMutateInput(t *testing.T) {
	players := []models.PlayerState{
		player("p1", 5, map[string]int{catalog.WheatField: 1}),
		player("p2", 5, map[string]int{catalog.WheatField: 1}),
	}
	_, err := ResolveRoll(RollInput{Roll: 1, ActivePlayerID: "p1", Players: players})
	require.NoError(t, err)

	assert.Equal(t, 5, players[0].Coins)
	assert.Equal(t, 5, players[1].Coins)
}

func TestResolveRoll_UnknownActivePlayer(t *testing.T) {
	_, err := ResolveRoll(RollInput{Roll: 1, ActivePlayerID: "ghost", Players: []models.PlayerState{player("p1", 0, nil)}})
	assert.True(t, gameerr.Is(err, gameerr.KindPlayerNotInRoom))
}

func TestApplyDecision_TVStationIsClamped(t *testing.T) {
	res, err := ApplyDecision([]models.PlayerState{
		player("p1", 1, nil),
		player("p2", 2, nil),
	}, models.Resolution{Type: models.DecisionTVStation, OwnerID: "p1", TargetPlayerID: "p2"})
	require.NoError(t, err)

	assert.Equal(t, 3, byID(t, res.Players, "p1").Coins)
	assert.Equal(t, 0, byID(t, res.Players, "p2").Coins)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, 2, res.Transactions[0].Amount)
}

func TestApplyDecision_TVStationAgainstBrokeTargetLogsNothing(t *testing.T) {
	res, err := ApplyDecision([]models.PlayerState{
		player("p1", 1, nil),
		player("p2", 0, nil),
	}, models.Resolution{Type: models.DecisionTVStation, OwnerID: "p1", TargetPlayerID: "p2"})
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
}

func TestApplyDecision_BusinessCenterSwap(t *testing.T) {
	res, err := ApplyDecision([]models.PlayerState{
		player("p1", 0, map[string]int{catalog.WheatField: 1, catalog.BusinessCenter: 1}),
		player("p2", 0, map[string]int{catalog.Mine: 2}),
	}, models.Resolution{
		Type:           models.DecisionBusinessCenter,
		OwnerID:        "p1",
		TargetPlayerID: "p2",
		GiveCardID:     catalog.WheatField,
		TakeCardID:     catalog.Mine,
	})
	require.NoError(t, err)

	p1 := byID(t, res.Players, "p1")
	p2 := byID(t, res.Players, "p2")
	assert.Equal(t, 0, p1.Cards[catalog.WheatField])
	assert.Equal(t, 1, p1.Cards[catalog.Mine])
	assert.Equal(t, 1, p2.Cards[catalog.Mine])
	assert.Equal(t, 1, p2.Cards[catalog.WheatField])

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, SwapReason, res.Transactions[0].Reason)
	assert.Zero(t, res.Transactions[0].Amount)
}

func TestApplyDecision_BusinessCenterRejections(t *testing.T) {
	players := []models.PlayerState{
		player("p1", 0, map[string]int{catalog.WheatField: 1}),
		player("p2", 0, map[string]int{catalog.Mine: 1}),
	}
	cases := []struct {
		name string
		r    models.Resolution
		kind gameerr.Kind
	}{
		{"owner lacks card", models.Resolution{TargetPlayerID: "p2", GiveCardID: catalog.Ranch, TakeCardID: catalog.Mine}, gameerr.KindInvalidSwap},
		{"target lacks card", models.Resolution{TargetPlayerID: "p2", GiveCardID: catalog.WheatField, TakeCardID: catalog.Forest}, gameerr.KindInvalidSwap},
		{"self swap", models.Resolution{TargetPlayerID: "p1", GiveCardID: catalog.WheatField, TakeCardID: catalog.WheatField}, gameerr.KindInvalidSwap},
		{"unknown card", models.Resolution{TargetPlayerID: "p2", GiveCardID: "casino", TakeCardID: catalog.Mine}, gameerr.KindUnknownCard},
		{"unknown target", models.Resolution{TargetPlayerID: "p9", GiveCardID: catalog.WheatField, TakeCardID: catalog.Mine}, gameerr.KindPlayerNotInRoom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.r.Type = models.DecisionBusinessCenter
			tc.r.OwnerID = "p1"
			_, err := ApplyDecision(players, tc.r)
			assert.Equal(t, tc.kind, gameerr.KindOf(err))
		})
	}
}

func TestApplyDecision_RadioTowerIsNoop(t *testing.T) {
	players := []models.PlayerState{player("p1", 4, nil)}
	res, err := ApplyDecision(players, models.Resolution{Type: models.DecisionRadioTower, OwnerID: "p1", Choice: models.ChoiceKeep})
	require.NoError(t, err)
	assert.Equal(t, players, res.Players)
	assert.Empty(t, res.Transactions)
}
