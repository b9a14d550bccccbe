package network

const (
	MsgTypeHeartbeat = 1
	MsgTypeBind      = 101

	MsgTypeStartGame        = 201
	MsgTypeRoll             = 202
	MsgTypeResolveDecision  = 203
	MsgTypeBuyEstablishment = 204
	MsgTypeBuyLandmark      = 205
	MsgTypeEndTurn          = 206
	MsgTypeSnapshot         = 207

	MsgTypeRoomState = 301
	MsgTypeError     = 500
)
