// services/game_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/dicetown/catalog"
	"github.com/wfunc/dicetown/dice"
	"github.com/wfunc/dicetown/engine"
	"github.com/wfunc/dicetown/gameerr"
	"github.com/wfunc/dicetown/logger"
	"github.com/wfunc/dicetown/models"
	"github.com/wfunc/dicetown/persistence"
	"github.com/wfunc/dicetown/room"
	"github.com/wfunc/dicetown/state"
)

// GameService 回合编排器，是外部调用规则引擎的唯一入口。
// 每个动作：读取 -> 校验 -> 计算 -> 持久化；同一房间的动作由 room.Locker 串行化，
// 购买的“每回合一次”由存储层的条件更新保证，跨进程同样成立。
type GameService struct {
	store      persistence.Store
	roller     dice.Roller
	locks      room.Locker
	machine    state.StateMachine
	recorder   Recorder
	automation *Automation
}

type Option func(*GameService)

func WithRoller(r dice.Roller) Option {
	return func(s *GameService) { s.roller = r }
}

func WithLocker(l room.Locker) Option {
	return func(s *GameService) { s.locks = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *GameService) { s.recorder = r }
}

// WithAutomationLimits sets the outer turn cap and inner decision cap of the AI driver.
func WithAutomationLimits(maxTurns, maxDecisions int) Option {
	return func(s *GameService) {
		s.automation.maxTurns = maxTurns
		s.automation.maxDecisions = maxDecisions
	}
}

func NewGameService(store persistence.Store, opts ...Option) *GameService {
	s := &GameService{
		store:    store,
		roller:   dice.NewCryptoRoller(),
		locks:    room.NewRoomManager(),
		machine:  state.NewTurnMachine(),
		recorder: nopRecorder{},
	}
	s.automation = newAutomation(s, DefaultMaxAutomatedTurns, DefaultMaxAutomatedDecisions)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// do 在房间锁内执行动作，并记录指标与日志
func (s *GameService) do(action, roomID, actorID string, fn func() (*models.Snapshot, error)) (*models.Snapshot, error) {
	start := time.Now()
	unlock := s.locks.Lock(roomID)
	snap, err := fn()
	unlock()
	s.recorder.ObserveAction(action, err, time.Since(start))

	if err != nil {
		if kind := gameerr.KindOf(err); kind != gameerr.KindUnknown {
			logger.Log.Infow("action rejected", "action", action, "room_id", roomID, "player_id", actorID, "kind", kind, "error", err)
		} else {
			logger.Log.Errorw("action failed", "action", action, "room_id", roomID, "player_id", actorID, "error", err)
		}
		return nil, err
	}
	logger.Log.Infow("action accepted", "action", action, "room_id", roomID, "player_id", actorID)
	return snap, nil
}

// Snapshot 读取房间快照
func (s *GameService) Snapshot(ctx context.Context, roomID string) (*models.Snapshot, error) {
	snap, err := s.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, storeError("load room", roomID, err)
	}
	return snap, nil
}

// StartGame 开始或重开一局。seats 只读取 ID、OwnerRef 和 IsAI，顺序即行动顺序。
func (s *GameService) StartGame(ctx context.Context, roomID string, seats []models.Seat) (*models.Snapshot, error) {
	snap, err := s.do(ActionStartGame, roomID, "", func() (*models.Snapshot, error) {
		return s.startGame(ctx, roomID, seats)
	})
	if err != nil {
		return nil, err
	}
	return s.automation.Run(ctx, snap), nil
}

// Roll 掷骰
func (s *GameService) Roll(ctx context.Context, roomID, actorID string, diceCount int) (*models.Snapshot, error) {
	return s.do(ActionRoll, roomID, actorID, func() (*models.Snapshot, error) {
		return s.roll(ctx, roomID, actorID, diceCount)
	})
}

// ResolveDecision 回答一个待决事项
func (s *GameService) ResolveDecision(ctx context.Context, roomID, actorID string, r models.Resolution) (*models.Snapshot, error) {
	return s.do(ActionResolveDecision, roomID, actorID, func() (*models.Snapshot, error) {
		return s.resolveDecision(ctx, roomID, actorID, r)
	})
}

// BuyEstablishment 购买建筑
func (s *GameService) BuyEstablishment(ctx context.Context, roomID, actorID, cardID string) (*models.Snapshot, error) {
	return s.do(ActionBuyEstablishment, roomID, actorID, func() (*models.Snapshot, error) {
		return s.buyEstablishment(ctx, roomID, actorID, cardID)
	})
}

// BuyLandmark 建造地标
func (s *GameService) BuyLandmark(ctx context.Context, roomID, actorID, landmarkID string) (*models.Snapshot, error) {
	return s.do(ActionBuyLandmark, roomID, actorID, func() (*models.Snapshot, error) {
		return s.buyLandmark(ctx, roomID, actorID, landmarkID)
	})
}

// EndTurn 结束回合，随后驱动 AI 座位
func (s *GameService) EndTurn(ctx context.Context, roomID, actorID string) (*models.Snapshot, error) {
	snap, err := s.endTurnOnly(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}
	return s.automation.Run(ctx, snap), nil
}

// endTurnOnly is EndTurn without the automation pass. The driver uses it for
// its own turns.
func (s *GameService) endTurnOnly(ctx context.Context, roomID, actorID string) (*models.Snapshot, error) {
	return s.do(ActionEndTurn, roomID, actorID, func() (*models.Snapshot, error) {
		return s.endTurn(ctx, roomID, actorID)
	})
}

// --- 动作实现，调用方持有房间锁 ---

func (s *GameService) startGame(ctx context.Context, roomID string, requested []models.Seat) (*models.Snapshot, error) {
	if roomID == "" {
		return nil, gameerr.New(gameerr.KindInvalidRequest, "room id is required")
	}
	if len(requested) < catalog.MinPlayers {
		return nil, gameerr.Newf(gameerr.KindNotEnoughPlayers, "need at least %d players", catalog.MinPlayers).
			With("players", len(requested))
	}
	if len(requested) > catalog.MaxPlayers {
		return nil, gameerr.Newf(gameerr.KindTooManyPlayers, "at most %d players", catalog.MaxPlayers).
			With("players", len(requested))
	}
	seen := make(map[string]bool, len(requested))
	for _, seat := range requested {
		if seat.ID == "" {
			return nil, gameerr.New(gameerr.KindInvalidRequest, "player id is required")
		}
		if seen[seat.ID] {
			return nil, gameerr.Newf(gameerr.KindInvalidRequest, "player %s is seated twice", seat.ID).With("player_id", seat.ID)
		}
		seen[seat.ID] = true
	}

	existing, err := s.store.LoadRoom(ctx, roomID)
	switch {
	case errors.Is(err, persistence.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	case existing.Room.Status == models.RoomPlaying:
		return nil, gameerr.New(gameerr.KindGameAlreadyStarted, "game already in progress")
	}

	seats := make([]models.Seat, len(requested))
	for i, req := range requested {
		seats[i] = models.Seat{
			PlayerState: engine.NewPlayerState(req.ID, req.OwnerRef),
			IsAI:        req.IsAI,
			TurnOrder:   i,
		}
	}
	turn := models.TurnState{
		CurrentTurnPlayerID: seats[0].ID,
		Phase:               models.PhaseRolling,
		Market:              catalog.StartingMarket(),
		PendingDecisions:    []models.PendingDecision{},
	}
	if err := s.store.StartGame(ctx, roomID, seats, turn); err != nil {
		return nil, fmt.Errorf("start game in %s: %w", roomID, err)
	}

	logger.Log.Infof("room %s started with %d players, %s goes first", roomID, len(seats), turn.CurrentTurnPlayerID)
	return &models.Snapshot{
		Room:    models.Room{ID: roomID, Status: models.RoomPlaying},
		Players: seats,
		Turn:    &turn,
	}, nil
}

func (s *GameService) roll(ctx context.Context, roomID, actorID string, diceCount int) (*models.Snapshot, error) {
	snap, seat, err := s.loadForActor(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}
	turn := snap.Turn

	if turn.Phase != models.PhaseRolling {
		return nil, wrongPhase(turn.Phase, models.PhaseRolling)
	}
	if turn.CurrentTurnPlayerID != actorID {
		return nil, notYourTurn(actorID)
	}
	if len(turn.LastDiceRoll) > 0 && turn.HasPending(models.DecisionRadioTower, actorID) {
		return nil, gameerr.New(gameerr.KindPendingDecisionOutstanding, "resolve the radio tower decision first")
	}
	if diceCount != 1 && diceCount != 2 {
		return nil, gameerr.Newf(gameerr.KindInvalidDiceCount, "cannot roll %d dice", diceCount).With("dice_count", diceCount)
	}
	if diceCount == 2 && !engine.CanRollTwoDice(seat.PlayerState) {
		return nil, gameerr.New(gameerr.KindLandmarkRequired, "rolling two dice requires the train station").
			With("landmark_id", catalog.TrainStation)
	}

	rolled, err := s.roller.Roll(diceCount)
	if err != nil {
		return nil, err
	}

	if engine.CanReroll(seat.PlayerState) {
		// 暂扣掷骰结果，等待电台决定
		turn.LastDiceRoll = rolled
		turn.PendingDecisions = []models.PendingDecision{{Type: models.DecisionRadioTower, OwnerID: actorID}}
		turn.LastRollTransactions = nil
		if err := s.changePhase(turn, models.PhaseRolling); err != nil {
			return nil, err
		}
		if err := s.store.SaveTurn(ctx, roomID, nil, *turn); err != nil {
			return nil, fmt.Errorf("hold roll in %s: %w", roomID, err)
		}
		logger.Log.Infof("room %s: %s rolled %v and may reroll", roomID, actorID, rolled)
		return snap, nil
	}

	return s.resolveAndSave(ctx, snap, actorID, rolled)
}

// resolveAndSave runs the roll resolver for rolled and persists the result.
func (s *GameService) resolveAndSave(ctx context.Context, snap *models.Snapshot, actorID string, rolled []int) (*models.Snapshot, error) {
	res, err := engine.ResolveRoll(engine.RollInput{
		Roll:           dice.Total(rolled),
		ActivePlayerID: actorID,
		Players:        snap.PlayerStates(),
	})
	if err != nil {
		return nil, err
	}

	turn := snap.Turn
	turn.LastDiceRoll = rolled
	turn.PendingDecisions = res.PendingDecisions
	if turn.PendingDecisions == nil {
		turn.PendingDecisions = []models.PendingDecision{}
	}
	turn.LastRollTransactions = res.Transactions
	if err := s.changePhase(turn, state.NextPhaseAfterResolution(turn)); err != nil {
		return nil, err
	}

	if err := s.store.SaveTurn(ctx, snap.Room.ID, res.Players, *turn); err != nil {
		return nil, fmt.Errorf("save roll in %s: %w", snap.Room.ID, err)
	}
	applyPlayers(snap, res.Players)

	logger.Log.Infof("room %s: %s rolled %v (total %d), %d transactions, phase %s",
		snap.Room.ID, actorID, rolled, dice.Total(rolled), len(res.Transactions), turn.Phase)
	return snap, nil
}

func (s *GameService) resolveDecision(ctx context.Context, roomID, actorID string, r models.Resolution) (*models.Snapshot, error) {
	snap, _, err := s.loadForActor(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}
	turn := snap.Turn

	if turn.CurrentTurnPlayerID != actorID {
		return nil, notYourTurn(actorID)
	}
	if r.OwnerID == "" {
		r.OwnerID = actorID
	}
	if r.OwnerID != actorID {
		return nil, gameerr.New(gameerr.KindNoMatchingPendingDecision, "decision belongs to another player")
	}

	switch r.Type {
	case models.DecisionRadioTower:
		if turn.Phase != models.PhaseRolling {
			return nil, wrongPhase(turn.Phase, models.PhaseRolling)
		}
		if !turn.HasPending(models.DecisionRadioTower, actorID) {
			return nil, noPending(r.Type)
		}
		if len(turn.LastDiceRoll) == 0 {
			return nil, gameerr.New(gameerr.KindNoRollToResolve, "no roll to resolve")
		}
		rolled := turn.LastDiceRoll
		switch r.Choice {
		case models.ChoiceKeep:
		case models.ChoiceReroll:
			if rolled, err = s.roller.Roll(len(turn.LastDiceRoll)); err != nil {
				return nil, err
			}
		default:
			return nil, gameerr.Newf(gameerr.KindInvalidRequest, "radio tower choice must be keep or reroll, got %q", r.Choice)
		}
		return s.resolveAndSave(ctx, snap, actorID, rolled)

	case models.DecisionTVStation, models.DecisionBusinessCenter:
		if turn.Phase != models.PhaseIncome {
			return nil, wrongPhase(turn.Phase, models.PhaseIncome)
		}
		idx := turn.PendingIndex(r.Type, actorID)
		if idx < 0 {
			return nil, noPending(r.Type)
		}
		if r.Type == models.DecisionTVStation && r.TargetPlayerID == actorID {
			return nil, gameerr.New(gameerr.KindInvalidRequest, "choose an opponent")
		}

		res, err := engine.ApplyDecision(snap.PlayerStates(), r)
		if err != nil {
			return nil, err
		}

		turn.PendingDecisions = append(turn.PendingDecisions[:idx:idx], turn.PendingDecisions[idx+1:]...)
		turn.LastRollTransactions = append(turn.LastRollTransactions, res.Transactions...)
		if err := s.changePhase(turn, state.NextPhaseAfterResolution(turn)); err != nil {
			return nil, err
		}
		if err := s.store.SaveTurn(ctx, roomID, res.Players, *turn); err != nil {
			return nil, fmt.Errorf("save decision in %s: %w", roomID, err)
		}
		applyPlayers(snap, res.Players)
		logger.Log.Infof("room %s: %s resolved %s, phase %s", roomID, actorID, r.Type, turn.Phase)
		return snap, nil

	default:
		return nil, gameerr.Newf(gameerr.KindInvalidRequest, "unknown decision type %q", r.Type)
	}
}

func (s *GameService) buyEstablishment(ctx context.Context, roomID, actorID, cardID string) (*models.Snapshot, error) {
	snap, seat, err := s.loadForPurchase(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}

	e, err := engine.CheckEstablishmentPurchase(seat.PlayerState, cardID, snap.Turn.Market)
	if err != nil {
		return nil, err
	}
	player, market := engine.ApplyEstablishmentPurchase(seat.PlayerState, e, snap.Turn.Market)
	if err := s.commitPurchase(ctx, roomID, actorID, player, market); err != nil {
		return nil, err
	}

	seat.PlayerState = player
	snap.Turn.Market = market
	snap.Turn.HasPurchased = true
	logger.Log.Infof("room %s: %s bought %s for %d", roomID, actorID, e.ID, e.Cost)
	return snap, nil
}

func (s *GameService) buyLandmark(ctx context.Context, roomID, actorID, landmarkID string) (*models.Snapshot, error) {
	snap, seat, err := s.loadForPurchase(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}

	l, err := engine.CheckLandmarkPurchase(seat.PlayerState, landmarkID)
	if err != nil {
		return nil, err
	}
	player := engine.ApplyLandmarkPurchase(seat.PlayerState, l)
	if err := s.commitPurchase(ctx, roomID, actorID, player, nil); err != nil {
		return nil, err
	}

	seat.PlayerState = player
	snap.Turn.HasPurchased = true
	logger.Log.Infof("room %s: %s built %s for %d", roomID, actorID, l.ID, l.Cost)
	return snap, nil
}

func (s *GameService) commitPurchase(ctx context.Context, roomID, actorID string, player models.PlayerState, market map[string]int) error {
	err := s.store.CommitPurchase(ctx, roomID, actorID, player, market)
	if errors.Is(err, persistence.ErrConditionFailed) {
		s.recorder.PurchaseConflict()
		logger.Log.Warnf("room %s: purchase by %s lost the conditional update", roomID, actorID)
		return alreadyPurchased()
	}
	if err != nil {
		return fmt.Errorf("commit purchase in %s: %w", roomID, err)
	}
	return nil
}

func (s *GameService) endTurn(ctx context.Context, roomID, actorID string) (*models.Snapshot, error) {
	snap, seat, err := s.loadForActor(ctx, roomID, actorID)
	if err != nil {
		return nil, err
	}
	turn := snap.Turn

	if turn.Phase != models.PhaseBuying {
		return nil, wrongPhase(turn.Phase, models.PhaseBuying)
	}
	if turn.CurrentTurnPlayerID != actorID {
		return nil, notYourTurn(actorID)
	}

	if seat.HasWon() {
		if err := s.store.FinishRoom(ctx, roomID); err != nil {
			return nil, fmt.Errorf("finish room %s: %w", roomID, err)
		}
		s.recorder.GameFinished()
		snap.Room.Status = models.RoomFinished
		logger.Log.Infof("room %s: %s built every landmark and wins", roomID, actorID)
		return snap, nil
	}

	next := nextPlayerID(snap.Players, actorID)
	if engine.ShouldTakeExtraTurn(seat.PlayerState, turn.LastDiceRoll) {
		next = actorID
	}
	turn.CurrentTurnPlayerID = next
	if err := s.changePhase(turn, models.PhaseRolling); err != nil {
		return nil, err
	}
	if err := s.store.SaveTurn(ctx, roomID, nil, *turn); err != nil {
		return nil, fmt.Errorf("end turn in %s: %w", roomID, err)
	}
	logger.Log.Infof("room %s: %s ended the turn, %s is up", roomID, actorID, next)
	return snap, nil
}

// --- 校验与辅助 ---

// loadForActor loads a playing room and the actor's seat.
func (s *GameService) loadForActor(ctx context.Context, roomID, actorID string) (*models.Snapshot, *models.Seat, error) {
	snap, err := s.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, nil, storeError("load room", roomID, err)
	}
	switch {
	case snap.Room.Status == models.RoomFinished:
		return nil, nil, gameerr.New(gameerr.KindGameFinished, "the game is over")
	case snap.Room.Status != models.RoomPlaying || snap.Turn == nil:
		return nil, nil, gameerr.New(gameerr.KindRoomNotStarted, "game has not started")
	}
	seat, ok := snap.Player(actorID)
	if !ok {
		return nil, nil, gameerr.Newf(gameerr.KindPlayerNotInRoom, "player %s is not in this room", actorID).With("player_id", actorID)
	}
	return snap, seat, nil
}

func (s *GameService) loadForPurchase(ctx context.Context, roomID, actorID string) (*models.Snapshot, *models.Seat, error) {
	snap, seat, err := s.loadForActor(ctx, roomID, actorID)
	if err != nil {
		return nil, nil, err
	}
	turn := snap.Turn
	if turn.Phase != models.PhaseBuying {
		return nil, nil, wrongPhase(turn.Phase, models.PhaseBuying)
	}
	if turn.CurrentTurnPlayerID != actorID {
		return nil, nil, notYourTurn(actorID)
	}
	if turn.HasPurchased {
		return nil, nil, alreadyPurchased()
	}
	return snap, seat, nil
}

func (s *GameService) changePhase(turn *models.TurnState, to models.Phase) error {
	from := turn.Phase
	if err := s.machine.ChangePhase(turn, to); err != nil {
		return gameerr.Newf(gameerr.KindWrongPhase, "cannot move from %s to %s", from, to).
			With("phase", from).
			With("target", to)
	}
	return nil
}

func applyPlayers(snap *models.Snapshot, players []models.PlayerState) {
	for _, p := range players {
		if seat, ok := snap.Player(p.ID); ok {
			seat.PlayerState = p
		}
	}
}

// nextPlayerID returns the seat after current in turn order, wrapping.
func nextPlayerID(seats []models.Seat, current string) string {
	for i, seat := range seats {
		if seat.ID == current {
			return seats[(i+1)%len(seats)].ID
		}
	}
	return current
}

func storeError(op, roomID string, err error) error {
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return gameerr.Newf(gameerr.KindRoomNotFound, "room %s not found", roomID).With("room_id", roomID)
	}
	return fmt.Errorf("%s %s: %w", op, roomID, err)
}

func wrongPhase(current, want models.Phase) error {
	return gameerr.Newf(gameerr.KindWrongPhase, "cannot do that during %s", current).
		With("phase", current).
		With("required", want)
}

func notYourTurn(actorID string) error {
	return gameerr.New(gameerr.KindNotCurrentPlayer, "not your turn").With("player_id", actorID)
}

func noPending(decisionType string) error {
	return gameerr.Newf(gameerr.KindNoMatchingPendingDecision, "no pending %s decision", decisionType).With("type", decisionType)
}

func alreadyPurchased() error {
	return gameerr.New(gameerr.KindAlreadyPurchased, "you can only buy one item per turn")
}
