package state

import (
	"github.com/wfunc/dicetown/models"
)

// NewTurnMachine 返回游戏使用的阶段转换表：
//
//	rolling -> rolling  掷骰被电台暂扣
//	rolling -> income   结算产生待决事项
//	rolling -> buying   无待决事项
//	income  -> income   仍有待决事项
//	income  -> buying   待决事项已清空
//	buying  -> rolling  回合结束
//
// cleanup 阶段保留，没有任何转换指向它。
func NewTurnMachine() *TurnMachine {
	m := NewBaseTurnMachine()

	m.AddTransition(models.PhaseRolling, models.PhaseRolling, holdingRoll)
	m.AddTransition(models.PhaseRolling, models.PhaseIncome, hasPending)
	m.AddTransition(models.PhaseRolling, models.PhaseBuying, noPending)
	m.AddTransition(models.PhaseIncome, models.PhaseIncome, hasPending)
	m.AddTransition(models.PhaseIncome, models.PhaseBuying, noPending)
	m.AddTransition(models.PhaseBuying, models.PhaseRolling, nil)

	m.OnEnter(models.PhaseRolling, resetTurn)
	return m
}

func holdingRoll(turn *models.TurnState) bool {
	if len(turn.LastDiceRoll) == 0 {
		return false
	}
	for _, d := range turn.PendingDecisions {
		if d.Type == models.DecisionRadioTower {
			return true
		}
	}
	return false
}

func hasPending(turn *models.TurnState) bool {
	return len(turn.PendingDecisions) > 0
}

func noPending(turn *models.TurnState) bool {
	return len(turn.PendingDecisions) == 0
}

// resetTurn 回合边界清理
func resetTurn(from models.Phase, turn *models.TurnState) {
	if from != models.PhaseBuying {
		return
	}
	turn.LastDiceRoll = nil
	turn.PendingDecisions = []models.PendingDecision{}
	turn.HasPurchased = false
	turn.LastRollTransactions = nil
}

// NextPhaseAfterResolution 结算后应进入的阶段
func NextPhaseAfterResolution(turn *models.TurnState) models.Phase {
	if hasPending(turn) {
		return models.PhaseIncome
	}
	return models.PhaseBuying
}
