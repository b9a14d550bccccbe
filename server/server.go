package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/logger"
	"github.com/wfunc/dicetown/models"
	"github.com/wfunc/dicetown/network"
	"github.com/wfunc/dicetown/room"
	gamerpc "github.com/wfunc/dicetown/rpc"
	"github.com/wfunc/dicetown/services"
	"github.com/wfunc/dicetown/session"
	"github.com/wfunc/dicetown/timer"
)

const requestTimeout = 10 * time.Second

// Gauges receives connection-level metrics. monitor.Monitor implements it.
type Gauges interface {
	IncSessionsOnline()
	DecSessionsOnline()
	SetActiveRooms(count int)
}

type nopGauges struct{}

func (nopGauges) IncSessionsOnline() {}
func (nopGauges) DecSessionsOnline() {}
func (nopGauges) SetActiveRooms(int) {}

type Options struct {
	Addr      string
	RPCAddr   string
	Heartbeat time.Duration
	// IdleTimeout closes sessions and forgets rooms without traffic.
	IdleTimeout time.Duration
	Gauges      Gauges
}

// GameServer 网关：把 websocket 包转成编排器调用，结果只回给请求方
type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	game           *services.GameService
	gauges         Gauges
	rpcServer      *gamerpc.Server
	timers         *timer.TimerManager
	httpServer     *http.Server
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

// NewGameServer wires the gateway. rooms must be the same manager the game
// service locks with so that idle pruning sees held locks.
func NewGameServer(opts Options, game *services.GameService, rooms *room.Manager) *GameServer {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 30 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Minute
	}
	gauges := opts.Gauges
	if gauges == nil {
		gauges = nopGauges{}
	}
	return &GameServer{
		opts:           opts,
		roomManager:    rooms,
		sessionManager: session.NewManager(),
		game:           game,
		gauges:         gauges,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
}

func (s *GameServer) Start() error {
	if s.opts.RPCAddr != "" {
		rpcServer, err := gamerpc.NewServer(s.opts.RPCAddr, gamerpc.NewGameService(s.game))
		if err != nil {
			return err
		}
		s.rpcServer = rpcServer
		go s.rpcServer.Start()
	}

	s.timers = timer.NewTimerManager(time.Second)
	s.timers.AddTimer("sweep_idle", s.opts.IdleTimeout, s.opts.IdleTimeout/2, s.sweepIdle)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Addr: s.opts.Addr, Handler: mux}

	logger.Log.Infof("Game server listening on %s", s.opts.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		if s.timers != nil {
			s.timers.Stop()
		}
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	s.gauges.IncSessionsOnline()
	conn.SetHeartbeat(s.opts.Heartbeat)

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		if roomID := sess.RoomID(); roomID != "" {
			s.roomManager.Leave(roomID, sess.GetID())
		}
		s.gauges.DecSessionsOnline()
		s.gauges.SetActiveRooms(s.roomManager.Count())
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := conn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	sess.Touch()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		s.send(sess, network.MsgTypeHeartbeat, packet.Seq, struct{}{})
	case network.MsgTypeBind:
		s.handleBind(sess, packet)
	case network.MsgTypeStartGame,
		network.MsgTypeRoll,
		network.MsgTypeResolveDecision,
		network.MsgTypeBuyEstablishment,
		network.MsgTypeBuyLandmark,
		network.MsgTypeEndTurn,
		network.MsgTypeSnapshot:
		s.handleGameAction(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.sendError(sess, packet.Seq, gameerr.Newf(gameerr.KindInvalidRequest, "unknown message type %d", packet.MsgID))
	}
}

func (s *GameServer) handleBind(sess *session.Session, packet *network.Packet) {
	var req network.BindRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, packet.Seq, gameerr.New(gameerr.KindInvalidRequest, "malformed bind request"))
		return
	}
	if req.RoomID == "" || req.PlayerID == "" {
		s.sendError(sess, packet.Seq, gameerr.New(gameerr.KindInvalidRequest, "room_id and player_id are required"))
		return
	}

	if previous := sess.RoomID(); previous != "" && previous != req.RoomID {
		s.roomManager.Leave(previous, sess.GetID())
	}
	sess.Bind(req.RoomID, req.PlayerID)
	s.roomManager.Join(req.RoomID, sess.GetID())
	s.gauges.SetActiveRooms(s.roomManager.Count())

	logger.Log.Infof("Session %s bound to room %s as %s", sess.GetID(), req.RoomID, req.PlayerID)
	s.send(sess, network.MsgTypeBind, packet.Seq, req)
}

func (s *GameServer) handleGameAction(sess *session.Session, packet *network.Packet) {
	roomID, playerID, err := sess.Binding()
	if err != nil {
		logger.Log.Warnf("Session %s sent game action but is not bound", sess.GetID())
		s.sendError(sess, packet.Seq, gameerr.New(gameerr.KindInvalidRequest, "bind to a room first"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	snap, err := s.dispatch(ctx, roomID, playerID, packet)
	if err != nil {
		s.sendError(sess, packet.Seq, err)
		return
	}
	s.send(sess, network.MsgTypeRoomState, packet.Seq, snap)
}

func (s *GameServer) dispatch(ctx context.Context, roomID, playerID string, packet *network.Packet) (*models.Snapshot, error) {
	switch packet.MsgID {
	case network.MsgTypeStartGame:
		var req network.StartGameRequest
		if err := decode(packet, &req); err != nil {
			return nil, err
		}
		return s.game.StartGame(ctx, roomID, req.ToSeats())

	case network.MsgTypeRoll:
		var req network.RollRequest
		if err := decode(packet, &req); err != nil {
			return nil, err
		}
		return s.game.Roll(ctx, roomID, playerID, req.DiceCount)

	case network.MsgTypeResolveDecision:
		var req network.ResolveDecisionRequest
		if err := decode(packet, &req); err != nil {
			return nil, err
		}
		return s.game.ResolveDecision(ctx, roomID, playerID, req.Decision)

	case network.MsgTypeBuyEstablishment:
		var req network.BuyRequest
		if err := decode(packet, &req); err != nil {
			return nil, err
		}
		return s.game.BuyEstablishment(ctx, roomID, playerID, req.CardID)

	case network.MsgTypeBuyLandmark:
		var req network.BuyRequest
		if err := decode(packet, &req); err != nil {
			return nil, err
		}
		return s.game.BuyLandmark(ctx, roomID, playerID, req.CardID)

	case network.MsgTypeEndTurn:
		return s.game.EndTurn(ctx, roomID, playerID)

	case network.MsgTypeSnapshot:
		return s.game.Snapshot(ctx, roomID)
	}
	return nil, gameerr.Newf(gameerr.KindInvalidRequest, "unknown message type %d", packet.MsgID)
}

// decode 解析请求体，空包体视为空对象
func decode(packet *network.Packet, v interface{}) error {
	if len(packet.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(packet.Data, v); err != nil {
		return gameerr.New(gameerr.KindInvalidRequest, "malformed request body")
	}
	return nil
}

func (s *GameServer) send(sess *session.Session, msgID uint16, seq uint32, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.Log.Errorf("Failed to encode message %d for session %s: %v", msgID, sess.GetID(), err)
		return
	}
	if err := sess.Send(msgID, seq, data); err != nil {
		logger.Log.Warnf("Failed to send message %d to session %s: %v", msgID, sess.GetID(), err)
	}
}

func (s *GameServer) sendError(sess *session.Session, seq uint32, err error) {
	s.send(sess, network.MsgTypeError, seq, network.NewErrorBody(err))
}

// sweepIdle closes sessions that missed their heartbeats and drops room
// entries nobody has used for a while.
func (s *GameServer) sweepIdle() {
	cutoff := time.Now().Add(-s.opts.IdleTimeout)
	for _, sess := range s.sessionManager.Idle(cutoff) {
		logger.Log.Infof("Closing idle session %s", sess.GetID())
		_ = sess.Close()
	}
	if pruned := s.roomManager.Prune(s.opts.IdleTimeout); pruned > 0 {
		logger.Log.Infof("Pruned %d idle rooms", pruned)
	}
	s.gauges.SetActiveRooms(s.roomManager.Count())
}
