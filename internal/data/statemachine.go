package data

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

var ErrInvalidStateTransition = errors.New("invalid state transition")

type StateTransition[S ~string] struct {
	From S
	To   S
}

// StateMachine holds the current state of a record and only moves it along the registered transitions.
type StateMachine[S ~string] struct {
	CurrentState S
	transitions  map[S][]S
}

func NewStateMachine[S ~string](initialState S, transitions []StateTransition[S]) *StateMachine[S] {
	sm := &StateMachine[S]{
		CurrentState: initialState,
		transitions:  make(map[S][]S, len(transitions)),
	}
	for _, t := range transitions {
		if !slices.Contains(sm.transitions[t.From], t.To) {
			sm.transitions[t.From] = append(sm.transitions[t.From], t.To)
		}
	}
	return sm
}

func (sm *StateMachine[S]) CanTransitionTo(targetState S) bool {
	return slices.Contains(sm.transitions[sm.CurrentState], targetState)
}

func (sm *StateMachine[S]) TransitionTo(targetState S) error {
	if !sm.CanTransitionTo(targetState) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStateTransition, sm.CurrentState, targetState)
	}
	sm.CurrentState = targetState
	return nil
}
