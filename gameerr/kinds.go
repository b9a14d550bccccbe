// Package gameerr defines the rejection kinds returned by the turn
// orchestrator, with structured metadata and gRPC status mapping.
package gameerr

import "google.golang.org/grpc/codes"

// Kind is a machine-readable rejection reason.
type Kind string

const (
	KindUnknown Kind = "UNKNOWN"

	// Room and seating
	KindRoomNotFound       Kind = "ROOM_NOT_FOUND"
	KindRoomNotStarted     Kind = "ROOM_NOT_STARTED"
	KindGameFinished       Kind = "GAME_FINISHED"
	KindGameAlreadyStarted Kind = "GAME_ALREADY_STARTED"
	KindPlayerNotInRoom    Kind = "PLAYER_NOT_IN_ROOM"
	KindNotEnoughPlayers   Kind = "NOT_ENOUGH_PLAYERS"
	KindTooManyPlayers     Kind = "TOO_MANY_PLAYERS"

	// Turn flow
	KindNotCurrentPlayer           Kind = "NOT_CURRENT_PLAYER"
	KindWrongPhase                 Kind = "WRONG_PHASE"
	KindPendingDecisionOutstanding Kind = "PENDING_DECISION_OUTSTANDING"
	KindNoMatchingPendingDecision  Kind = "NO_MATCHING_PENDING_DECISION"
	KindNoRollToResolve            Kind = "NO_ROLL_TO_RESOLVE"
	KindInvalidDiceCount           Kind = "INVALID_DICE_COUNT"
	KindLandmarkRequired           Kind = "LANDMARK_REQUIRED"

	// Purchases
	KindAlreadyPurchased     Kind = "ALREADY_PURCHASED"
	KindSoldOut              Kind = "SOLD_OUT"
	KindOwnershipCapReached  Kind = "OWNERSHIP_CAP_REACHED"
	KindInsufficientFunds    Kind = "INSUFFICIENT_FUNDS"
	KindLandmarkAlreadyOwned Kind = "LANDMARK_ALREADY_OWNED"
	KindUnknownCard          Kind = "UNKNOWN_CARD"

	// Decisions
	KindInvalidSwap Kind = "INVALID_SWAP"

	KindInvalidRequest Kind = "INVALID_REQUEST"
)

// GRPCCode maps a kind to the gRPC status code used on the wire.
func (k Kind) GRPCCode() codes.Code {
	switch k {
	case KindInvalidDiceCount,
		KindUnknownCard,
		KindInvalidRequest,
		KindNotEnoughPlayers,
		KindTooManyPlayers:
		return codes.InvalidArgument

	case KindRoomNotFound:
		return codes.NotFound

	case KindNotCurrentPlayer,
		KindPlayerNotInRoom:
		return codes.PermissionDenied

	// Lost the purchase race or bought twice.
	case KindAlreadyPurchased:
		return codes.Aborted

	case KindRoomNotStarted,
		KindGameFinished,
		KindGameAlreadyStarted,
		KindWrongPhase,
		KindPendingDecisionOutstanding,
		KindNoMatchingPendingDecision,
		KindNoRollToResolve,
		KindLandmarkRequired,
		KindSoldOut,
		KindOwnershipCapReached,
		KindInsufficientFunds,
		KindLandmarkAlreadyOwned,
		KindInvalidSwap:
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
