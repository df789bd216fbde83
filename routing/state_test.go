package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Bootstrap(t *testing.T) {
	assert.True(t, canTransition(Disconnected, Bootstrapping))
	assert.True(t, canTransition(Bootstrapping, Client))
	assert.True(t, canTransition(Client, Node))
	assert.False(t, canTransition(Disconnected, Client))
}

func TestEngine_TransitionTo_RejectsIllegalMove(t *testing.T) {
	e, _ := newTestEngine(t)
	e.state = Disconnected

	ok := e.transitionTo(Client)

	assert.False(t, ok)
	assert.Equal(t, Disconnected, e.state)
}

func TestEngine_TransitionTo_AppliesLegalMove(t *testing.T) {
	e, _ := newTestEngine(t)
	e.state = Disconnected

	ok := e.transitionTo(Bootstrapping)

	assert.True(t, ok)
	assert.Equal(t, Bootstrapping, e.state)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "node", Node.String())
	assert.Equal(t, "unknown", State(99).String())
}
