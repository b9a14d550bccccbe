package services

import "time"

// Recorder receives action outcomes. monitor.Monitor implements it.
type Recorder interface {
	ObserveAction(action string, err error, duration time.Duration)
	PurchaseConflict()
	AutomatedTurn()
	GameFinished()
}

type nopRecorder struct{}

func (nopRecorder) ObserveAction(string, error, time.Duration) {}
func (nopRecorder) PurchaseConflict()                          {}
func (nopRecorder) AutomatedTurn()                             {}
func (nopRecorder) GameFinished()                              {}

// Action names used for metrics and logs.
const (
	ActionStartGame        = "start_game"
	ActionRoll             = "roll"
	ActionResolveDecision  = "resolve_decision"
	ActionBuyEstablishment = "buy_establishment"
	ActionBuyLandmark      = "buy_landmark"
	ActionEndTurn          = "end_turn"
)
