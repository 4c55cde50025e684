package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doorState string

func Test_StateMachine(t *testing.T) {
	sm := NewStateMachine[doorState]("closed", []StateTransition[doorState]{
		{From: "closed", To: "open"},
		{From: "open", To: "closed"},
		{From: "closed", To: "locked"},
		{From: "closed", To: "locked"},
	})

	assert.True(t, sm.CanTransitionTo("open"))
	assert.True(t, sm.CanTransitionTo("locked"))
	assert.Len(t, sm.transitions["closed"], 2)

	require.NoError(t, sm.TransitionTo("open"))
	err := sm.TransitionTo("locked")
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.EqualError(t, err, "invalid state transition: cannot transition from open to locked")
	assert.Equal(t, doorState("open"), sm.CurrentState)

	require.NoError(t, sm.TransitionTo("closed"))
	require.NoError(t, sm.TransitionTo("locked"))
	assert.False(t, sm.CanTransitionTo("open"))
}
