package state

import (
	"errors"
	"sync"

	"github.com/wfunc/dicetown/models"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Guard 转换条件，基于当前回合状态判断
type Guard func(turn *models.TurnState) bool

// EnterHook 进入某阶段时调用，from 为来源阶段
type EnterHook func(from models.Phase, turn *models.TurnState)

// StateMachine 回合阶段状态机接口
type StateMachine interface {
	ChangePhase(turn *models.TurnState, to models.Phase) error
	CanTransition(turn *models.TurnState, to models.Phase) bool
	AddTransition(from, to models.Phase, guard Guard)
	OnEnter(phase models.Phase, hook EnterHook)
}

// TurnMachine 基础状态机实现。
// 只允许登记过的转换；状态本身保存在 TurnState 中，机器无状态，可在多个房间间共享。
type TurnMachine struct {
	transitions map[models.Phase]map[models.Phase]Guard // fromPhase -> toPhase -> guard
	hooks       map[models.Phase][]EnterHook
	mutex       sync.RWMutex
}

func NewBaseTurnMachine() *TurnMachine {
	return &TurnMachine{
		transitions: make(map[models.Phase]map[models.Phase]Guard),
		hooks:       make(map[models.Phase][]EnterHook),
	}
}

func (m *TurnMachine) AddTransition(from, to models.Phase, guard Guard) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.transitions[from]; !exists {
		m.transitions[from] = make(map[models.Phase]Guard)
	}
	m.transitions[from][to] = guard
}

func (m *TurnMachine) OnEnter(phase models.Phase, hook EnterHook) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.hooks[phase] = append(m.hooks[phase], hook)
}

func (m *TurnMachine) CanTransition(turn *models.TurnState, to models.Phase) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.allowed(turn, to)
}

func (m *TurnMachine) allowed(turn *models.TurnState, to models.Phase) bool {
	conditions, exists := m.transitions[turn.Phase]
	if !exists {
		return false
	}
	guard, exists := conditions[to]
	if !exists {
		return false
	}
	return guard == nil || guard(turn)
}

// ChangePhase 检查转换条件后切换阶段并执行进入钩子
func (m *TurnMachine) ChangePhase(turn *models.TurnState, to models.Phase) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if !m.allowed(turn, to) {
		return ErrTransitionNotAllowed
	}

	from := turn.Phase
	turn.Phase = to
	for _, hook := range m.hooks[to] {
		hook(from, turn)
	}
	return nil
}
