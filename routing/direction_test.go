package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/xorname"
)

func TestCheckDirection_LogPolicyNeverBlocks(t *testing.T) {
	e, _ := newTestEngine(t)
	e.directionPolicy = DirectionLog

	target := xorname.Hash([]byte("target"))
	farHop := xorname.Hash([]byte("very-far-away-hop"))
	dst := identity.NewManagedNodeAuthority(target)

	assert.True(t, e.checkDirection(dst, farHop))
}

func TestCheckDirection_EnforcePolicyBlocksOnFailure(t *testing.T) {
	e, _ := newTestEngine(t)
	e.directionPolicy = DirectionEnforce

	target := e.self // we are already the target; no hop can be "closer" than us
	dst := identity.NewManagedNodeAuthority(target)

	closerHop := target // a hop reporting the same name as us is not strictly closer
	assert.False(t, e.checkDirection(dst, closerHop))
}

func TestDirectionPolicy_String(t *testing.T) {
	assert.Equal(t, "log", DirectionLog.String())
	assert.Equal(t, "enforce", DirectionEnforce.String())
}
