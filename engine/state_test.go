package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineHappyPath(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateAnalyzing, m.State())

	path := []State{
		StateRound1Pending,
		StateRound1Ready,
		StateRound2Pending,
		StateRound2Ready,
		StateJudgmentPending,
		StateComplete,
	}
	for _, next := range path {
		require.NoError(t, m.Advance(next))
		assert.Equal(t, next, m.State())
	}
	assert.True(t, m.State().Terminal())
	assert.Error(t, m.Advance(StateRound1Pending))
}

func TestMachineRejectsSkips(t *testing.T) {
	m := NewMachine()
	assert.Error(t, m.Advance(StateRound2Pending))
	assert.Error(t, m.Advance(StateComplete))
	assert.Equal(t, StateAnalyzing, m.State())
}

func TestMachineFailFromAnyState(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Advance(StateRound1Pending))
	assert.True(t, m.Fail())
	assert.Equal(t, StateError, m.State())

	// terminal states refuse a second failure
	assert.False(t, m.Fail())
	assert.Error(t, m.Advance(StateRound1Ready))
}

func TestMachineFailAfterComplete(t *testing.T) {
	m := NewMachine()
	for _, next := range []State{
		StateRound1Pending, StateRound1Ready, StateRound2Pending,
		StateRound2Ready, StateJudgmentPending, StateComplete,
	} {
		require.NoError(t, m.Advance(next))
	}
	assert.False(t, m.Fail())
	assert.Equal(t, StateComplete, m.State())
}

func TestValidationErrors(t *testing.T) {
	err := NewNotApplicableError("一人称の悩み相談です")
	assert.True(t, IsValidation(err))
	assert.True(t, IsNotApplicable(err))
	assert.Equal(t, "NOT_APPLICABLE: 一人称の悩み相談です", err.Error())

	plain := NewValidationError("topic too short")
	assert.True(t, IsValidation(plain))
	assert.False(t, IsNotApplicable(plain))

	assert.False(t, IsValidation(assert.AnError))
	assert.False(t, IsNotApplicable(assert.AnError))
}
