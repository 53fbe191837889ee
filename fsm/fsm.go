// Package fsm provides a generic hierarchical finite-state machine with
// guarded transitions, substates and transition callbacks.
package fsm

import (
	"fmt"
	"github.com/lefinal/masc-match/errors"
	"go.uber.org/zap"
	"sync"
)

// Transition describes a transition from Source to Destination that was caused
// by Trigger.
type Transition[S, T comparable] struct {
	Trigger     T
	Source      S
	Destination S
}

// IsReentry checks whether the transition re-enters its source state.
func (t Transition[S, T]) IsReentry() bool {
	return t.Source == t.Destination
}

// Guard is a predicate that must be satisfied for a transition to be
// permitted. Guards must not have side effects.
type Guard func() bool

// Action is called with the transition it is part of.
type Action[S, T comparable] func(t Transition[S, T])

type permit[S comparable] struct {
	destination S
	guard       Guard
}

// stateConfig holds the configuration of one state.
type stateConfig[S, T comparable] struct {
	state     S
	parent    S
	hasParent bool
	permits   map[T][]permit[S]
	onEntry   []Action[S, T]
	onExit    []Action[S, T]
}

// Machine is a hierarchical state machine with states of type S and triggers
// of type T. Create one with New and configure states with Configure.
//
// Transitions are serialized. A trigger that is fired while another transition
// is in flight, for example from an entry action, is queued and processed
// before the outermost Fire returns.
type Machine[S, T comparable] struct {
	logger *zap.Logger
	// m locks all following fields.
	m     sync.Mutex
	state S
	// states holds the configuration for each configured state.
	states map[S]*stateConfig[S, T]
	// onTransitioned is called after each completed transition.
	onTransitioned []Action[S, T]
	// firing is set while a transition is processed.
	firing bool
	// queue holds triggers that were fired while firing is set.
	queue []T
}

// New creates a new Machine in the given initial state.
func New[S, T comparable](logger *zap.Logger, initial S) *Machine[S, T] {
	return &Machine[S, T]{
		logger: logger,
		state:  initial,
		states: make(map[S]*stateConfig[S, T]),
	}
}

// StateConfigurer is used for configuring a state. Get one via
// Machine.Configure.
type StateConfigurer[S, T comparable] struct {
	machine *Machine[S, T]
	config  *stateConfig[S, T]
}

// Configure returns the StateConfigurer for the given state.
func (m *Machine[S, T]) Configure(state S) *StateConfigurer[S, T] {
	m.m.Lock()
	defer m.m.Unlock()
	return &StateConfigurer[S, T]{
		machine: m,
		config:  m.configFor(state),
	}
}

// configFor returns the config for the given state and creates it if not
// existing. m must be locked.
func (m *Machine[S, T]) configFor(state S) *stateConfig[S, T] {
	config, ok := m.states[state]
	if !ok {
		config = &stateConfig[S, T]{
			state:   state,
			permits: make(map[T][]permit[S]),
		}
		m.states[state] = config
	}
	return config
}

// Permit a transition to the given destination when the trigger is fired.
func (c *StateConfigurer[S, T]) Permit(trigger T, destination S) *StateConfigurer[S, T] {
	return c.PermitIf(trigger, destination, nil)
}

// PermitIf permits a transition to the given destination if the guard is
// satisfied. Multiple guarded permits for the same trigger are evaluated in
// the order of configuration.
func (c *StateConfigurer[S, T]) PermitIf(trigger T, destination S, guard Guard) *StateConfigurer[S, T] {
	c.machine.m.Lock()
	defer c.machine.m.Unlock()
	c.config.permits[trigger] = append(c.config.permits[trigger], permit[S]{
		destination: destination,
		guard:       guard,
	})
	return c
}

// SubstateOf sets the parent of the state. Permits of the parent apply to the
// substate as well.
func (c *StateConfigurer[S, T]) SubstateOf(parent S) *StateConfigurer[S, T] {
	c.machine.m.Lock()
	defer c.machine.m.Unlock()
	c.machine.configFor(parent)
	c.config.parent = parent
	c.config.hasParent = true
	return c
}

// OnEntry adds an action that is called when the state is entered.
func (c *StateConfigurer[S, T]) OnEntry(action Action[S, T]) *StateConfigurer[S, T] {
	c.machine.m.Lock()
	defer c.machine.m.Unlock()
	c.config.onEntry = append(c.config.onEntry, action)
	return c
}

// OnEntryFrom adds an action that is called when the state is entered because
// of the given trigger.
func (c *StateConfigurer[S, T]) OnEntryFrom(trigger T, action Action[S, T]) *StateConfigurer[S, T] {
	return c.OnEntry(func(t Transition[S, T]) {
		if t.Trigger == trigger {
			action(t)
		}
	})
}

// OnExit adds an action that is called when the state is left.
func (c *StateConfigurer[S, T]) OnExit(action Action[S, T]) *StateConfigurer[S, T] {
	c.machine.m.Lock()
	defer c.machine.m.Unlock()
	c.config.onExit = append(c.config.onExit, action)
	return c
}

// OnTransitioned adds an action that is called after each completed
// transition, including entry and exit actions.
func (m *Machine[S, T]) OnTransitioned(action Action[S, T]) {
	m.m.Lock()
	defer m.m.Unlock()
	m.onTransitioned = append(m.onTransitioned, action)
}

// State returns the current state.
func (m *Machine[S, T]) State() S {
	m.m.Lock()
	defer m.m.Unlock()
	return m.state
}

// IsInState checks whether the current state equals the given one or is a
// substate of it.
func (m *Machine[S, T]) IsInState(state S) bool {
	m.m.Lock()
	defer m.m.Unlock()
	for _, s := range m.ancestry(m.state) {
		if s == state {
			return true
		}
	}
	return false
}

// ancestry returns the given state followed by all its ancestors. m must be
// locked.
func (m *Machine[S, T]) ancestry(state S) []S {
	chain := []S{state}
	current := state
	for {
		config, ok := m.states[current]
		if !ok || !config.hasParent {
			return chain
		}
		current = config.parent
		chain = append(chain, current)
	}
}

// candidates returns all permits for the trigger from the given state and its
// ancestors, innermost first.
func (m *Machine[S, T]) candidates(state S, trigger T) []permit[S] {
	m.m.Lock()
	defer m.m.Unlock()
	permits := make([]permit[S], 0)
	for _, s := range m.ancestry(state) {
		config, ok := m.states[s]
		if !ok {
			continue
		}
		permits = append(permits, config.permits[trigger]...)
	}
	return permits
}

// resolve the destination for the trigger in the given state. Guards are
// evaluated without holding the lock, so they may query the Machine.
func (m *Machine[S, T]) resolve(state S, trigger T) (S, error) {
	var destination S
	permits := m.candidates(state, trigger)
	if len(permits) == 0 {
		return destination, errors.NewInvalidStateError(errors.KindTriggerNotPermitted,
			fmt.Sprintf("trigger %v not permitted in state %v", trigger, state),
			errors.Details{"trigger": fmt.Sprint(trigger), "state": fmt.Sprint(state)})
	}
	for _, p := range permits {
		if p.guard == nil || p.guard() {
			return p.destination, nil
		}
	}
	return destination, errors.NewInvalidStateError(errors.KindGuardNotSatisfied,
		fmt.Sprintf("guard for trigger %v in state %v not satisfied", trigger, state),
		errors.Details{"trigger": fmt.Sprint(trigger), "state": fmt.Sprint(state)})
}

// CanFire checks whether the trigger would cause a transition in the current
// state.
func (m *Machine[S, T]) CanFire(trigger T) bool {
	_, err := m.resolve(m.State(), trigger)
	return err == nil
}

// PermittedTriggers returns all triggers that would currently cause a
// transition.
func (m *Machine[S, T]) PermittedTriggers() []T {
	state := m.State()
	m.m.Lock()
	seen := make(map[T]struct{})
	triggers := make([]T, 0)
	for _, s := range m.ancestry(state) {
		config, ok := m.states[s]
		if !ok {
			continue
		}
		for trigger := range config.permits {
			if _, ok := seen[trigger]; ok {
				continue
			}
			seen[trigger] = struct{}{}
			triggers = append(triggers, trigger)
		}
	}
	m.m.Unlock()
	permitted := make([]T, 0, len(triggers))
	for _, trigger := range triggers {
		if _, err := m.resolve(state, trigger); err == nil {
			permitted = append(permitted, trigger)
		}
	}
	return permitted
}

// Fire the given trigger. If no transition is permitted, an
// errors.ErrInvalidState error is returned and the state stays unchanged.
// Triggers fired while a transition is in flight are queued and nil is
// returned. Errors for queued triggers are only logged.
func (m *Machine[S, T]) Fire(trigger T) error {
	m.m.Lock()
	if m.firing {
		m.queue = append(m.queue, trigger)
		m.m.Unlock()
		return nil
	}
	m.firing = true
	m.m.Unlock()
	// Reset firing state if an action panics so that the machine stays usable.
	defer func() {
		if r := recover(); r != nil {
			m.m.Lock()
			m.firing = false
			m.queue = nil
			m.m.Unlock()
			panic(r)
		}
	}()
	err := m.fire(trigger)
	for {
		m.m.Lock()
		if len(m.queue) == 0 {
			m.firing = false
			m.m.Unlock()
			break
		}
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.m.Unlock()
		_ = m.fire(next)
	}
	return err
}

// fire performs the transition for the given trigger.
func (m *Machine[S, T]) fire(trigger T) error {
	source := m.State()
	destination, err := m.resolve(source, trigger)
	if err != nil {
		m.logger.Debug("fire failed", zap.Any("trigger", trigger), zap.Any("state", source), zap.Error(err))
		return err
	}
	t := Transition[S, T]{
		Trigger:     trigger,
		Source:      source,
		Destination: destination,
	}
	exits, entries := m.path(source, destination)
	for _, s := range exits {
		for _, action := range m.exitActions(s) {
			action(t)
		}
	}
	m.m.Lock()
	m.state = destination
	m.m.Unlock()
	for _, s := range entries {
		for _, action := range m.entryActions(s) {
			action(t)
		}
	}
	m.m.Lock()
	onTransitioned := append([]Action[S, T](nil), m.onTransitioned...)
	m.m.Unlock()
	for _, action := range onTransitioned {
		action(t)
	}
	return nil
}

// path returns the states to exit (innermost first) and the states to enter
// (outermost first) for a transition from source to destination.
func (m *Machine[S, T]) path(source S, destination S) ([]S, []S) {
	if source == destination {
		return []S{source}, []S{destination}
	}
	m.m.Lock()
	sourceChain := m.ancestry(source)
	destinationChain := m.ancestry(destination)
	m.m.Unlock()
	inDestination := make(map[S]int, len(destinationChain))
	for i, s := range destinationChain {
		inDestination[s] = i
	}
	exits := make([]S, 0)
	commonIndex := len(destinationChain)
	for _, s := range sourceChain {
		if i, ok := inDestination[s]; ok {
			commonIndex = i
			break
		}
		exits = append(exits, s)
	}
	entries := make([]S, 0, commonIndex)
	for i := commonIndex - 1; i >= 0; i-- {
		entries = append(entries, destinationChain[i])
	}
	return exits, entries
}

func (m *Machine[S, T]) entryActions(state S) []Action[S, T] {
	m.m.Lock()
	defer m.m.Unlock()
	config, ok := m.states[state]
	if !ok {
		return nil
	}
	return append([]Action[S, T](nil), config.onEntry...)
}

func (m *Machine[S, T]) exitActions(state S) []Action[S, T] {
	m.m.Lock()
	defer m.m.Unlock()
	config, ok := m.states[state]
	if !ok {
		return nil
	}
	return append([]Action[S, T](nil), config.onExit...)
}
