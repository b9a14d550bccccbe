package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/logger"
	"github.com/wfunc/dicetown/models"
	"github.com/wfunc/dicetown/services"
)

// ServiceName is the net/rpc receiver name, e.g. "Dicetown.Roll".
const ServiceName = "Dicetown"

const callTimeout = 10 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the game service. Each server has
// its own registry, so several servers may live in one process.
func NewServer(addr string, service *GameService) (*Server, error) {
	registry := rpc.NewServer()
	if err := registry.RegisterName(ServiceName, service); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      registry,
	}, nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService exposes the orchestrator over net/rpc.
// Rejections come back as the gRPC status text of the game error.
type GameService struct {
	game *services.GameService
}

func NewGameService(game *services.GameService) *GameService {
	return &GameService{game: game}
}

type StartGameArgs struct {
	RoomID string
	Seats  []models.Seat
}

// ActionArgs carries every per-player action; each method reads what it needs.
type ActionArgs struct {
	RoomID    string
	PlayerID  string
	DiceCount int
	CardID    string
	Decision  models.Resolution
}

type SnapshotArgs struct {
	RoomID string
}

type SnapshotReply struct {
	Snapshot *models.Snapshot
}

func (gs *GameService) StartGame(args *StartGameArgs, reply *SnapshotReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.Snapshot, error) {
		return gs.game.StartGame(ctx, args.RoomID, args.Seats)
	})
}

func (gs *GameService) Roll(args *ActionArgs, reply *SnapshotReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.Snapshot, error) {
		return gs.game.Roll(ctx, args.RoomID, args.PlayerID, args.DiceCount)
	})
}

func (gs *GameService) ResolveDecision(args *ActionArgs, reply *SnapshotReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.Snapshot, error) {
		return gs.game.ResolveDecision(ctx, args.RoomID, args.PlayerID, args.Decision)
	})
}

func (gs *GameService) BuyEstablishment(args *ActionArgs, reply *SnapshotReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.Snapshot, error) {
		return gs.game.BuyEstablishment(ctx, args.RoomID, args.PlayerID, args.CardID)
	})
}

func (gs *GameService) BuyLandmark(args *ActionArgs, reply *SnapshotReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.Snapshot, error) {
		return gs.game.BuyLandmark(ctx, args.RoomID, args.PlayerID, args.CardID)
	})
}

func (gs *GameService) EndTurn(args *ActionArgs, reply *SnapshotReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.Snapshot, error) {
		return gs.game.EndTurn(ctx, args.RoomID, args.PlayerID)
	})
}

func (gs *GameService) Snapshot(args *SnapshotArgs, reply *SnapshotReply) error {
	return gs.call(reply, func(ctx context.Context) (*models.Snapshot, error) {
		return gs.game.Snapshot(ctx, args.RoomID)
	})
}

func (gs *GameService) call(reply *SnapshotReply, fn func(ctx context.Context) (*models.Snapshot, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	snap, err := fn(ctx)
	if err != nil {
		return gameerr.Status(err).Err()
	}
	reply.Snapshot = snap
	return nil
}
