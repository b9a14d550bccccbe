package network

import (
	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/models"
)

// 请求消息体

type BindRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

type SeatRequest struct {
	PlayerID string `json:"player_id"`
	OwnerRef string `json:"owner_ref,omitempty"`
	IsAI     bool   `json:"is_ai,omitempty"`
}

type StartGameRequest struct {
	Seats []SeatRequest `json:"seats"`
}

// ToSeats converts the request into orchestrator seats, keeping order.
func (r StartGameRequest) ToSeats() []models.Seat {
	seats := make([]models.Seat, len(r.Seats))
	for i, s := range r.Seats {
		seats[i] = models.Seat{
			PlayerState: models.PlayerState{ID: s.PlayerID, OwnerRef: s.OwnerRef},
			IsAI:        s.IsAI,
		}
	}
	return seats
}

type RollRequest struct {
	DiceCount int `json:"dice_count"`
}

type ResolveDecisionRequest struct {
	Decision models.Resolution `json:"decision"`
}

type BuyRequest struct {
	CardID string `json:"card_id"`
}

// ErrorBody 错误回包
type ErrorBody struct {
	Kind     gameerr.Kind      `json:"kind"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewErrorBody renders err for the wire. Errors that are not game errors keep
// only the generic status message.
func NewErrorBody(err error) ErrorBody {
	st := gameerr.Status(err)
	body := ErrorBody{
		Kind:    gameerr.KindOf(err),
		Code:    st.Code().String(),
		Message: st.Message(),
	}
	if md := gameerr.MetadataOf(err); len(md) > 0 {
		body.Metadata = md
	}
	return body
}
