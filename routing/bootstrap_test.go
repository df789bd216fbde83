package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/codec"
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

// relocatedPublicId builds a PublicId whose Name differs from
// H(signing pub), as required of anything PublicId.IsRelocated() must
// report true for (the proxy/NodeIdentify handshake's precondition).
func relocatedPublicId(t *testing.T) identity.PublicId {
	t.Helper()
	full := newTestFullId(t)
	require.NoError(t, full.Relocate(xorname.Hash([]byte("relocated-"+full.Name().String()))))
	return full.PublicId()
}

func fixturePublicId(t *testing.T) identity.PublicId {
	t.Helper()
	return newTestFullId(t).PublicId()
}

func TestHandleClientIdentify_DeniesClientRestrictedBelowGroupSize(t *testing.T) {
	e, trans := newTestEngine(t)
	pub := fixturePublicId(t)

	e.handleClientIdentify(transport.ConnID(1), &message.DirectMessage{
		Kind:              message.DirectClientIdentify,
		PublicId:          pub,
		ClientRestriction: true,
	})

	// Our table is empty (below GroupSize), so a client-restricted
	// candidate is denied per the admission rule.
	require.Equal(t, 1, trans.SentCount())
	decoded, err := codec.DecodeMessage(trans.SentMessages[0].Data)
	require.NoError(t, err)
	dm := decoded.(*message.DirectMessage)
	assert.Equal(t, message.DirectBootstrapDeny, dm.Kind)
}

func TestHandleClientIdentify_AcceptsJoiningNodeUnderCap(t *testing.T) {
	e, trans := newTestEngine(t)
	pub := fixturePublicId(t)

	e.handleClientIdentify(transport.ConnID(1), &message.DirectMessage{
		Kind:              message.DirectClientIdentify,
		PublicId:          pub,
		ClientRestriction: false,
	})

	require.Equal(t, 1, trans.SentCount())
	decoded, err := codec.DecodeMessage(trans.SentMessages[0].Data)
	require.NoError(t, err)
	dm := decoded.(*message.DirectMessage)
	assert.Equal(t, message.DirectBootstrapIdentify, dm.Kind)
	assert.Equal(t, 1, e.joiningNodesNum)
}

func TestHandleBootstrapIdentify_TransitionsToClientAndBeginsRelocation(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Bootstrapping
	conn := transport.ConnID(5)
	e.proxies[conn] = proxyEntry{conn: conn}
	proxyPub := relocatedPublicId(t)

	e.handleBootstrapIdentify(conn, &message.DirectMessage{
		Kind:       message.DirectBootstrapIdentify,
		PublicId:   proxyPub,
		QuorumSize: 3,
	})

	assert.Equal(t, Client, e.state)
	assert.Equal(t, 3, e.quorumSize)
	assert.False(t, e.relocationStart.IsZero())
	assert.Equal(t, 1, trans.SentCount()) // beginRelocation's GetNetworkName
}

func TestHandleBootstrapDeny_ReturnsToDisconnected(t *testing.T) {
	e, _ := newTestEngine(t)
	e.state = Bootstrapping
	e.lastBootstrapToken = "tok"

	e.handleBootstrapDeny(&message.DirectMessage{Reason: "table full"})

	assert.Equal(t, Disconnected, e.state)
	assert.True(t, e.IsBlacklisted("tok"))
}

func TestHandleNodeIdentify_AddsToTableAndRepliesInKind(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Client
	pub := fixturePublicId(t)

	e.handleNodeIdentify(transport.ConnID(9), &message.DirectMessage{
		Kind:     message.DirectNodeIdentify,
		PublicId: pub,
	})

	assert.Equal(t, Node, e.state)
	got, _, ok := e.table.Get(pub.Name)
	require.True(t, ok)
	assert.True(t, got.Equal(pub))
	require.Equal(t, 1, trans.SentCount())
}

func TestHandleNodeIdentify_DropsProxiesOnceGroupSizeReached(t *testing.T) {
	e, _ := newTestEngine(t)
	e.cfg.GroupSize = 1
	e.state = Client
	e.proxies[transport.ConnID(1)] = proxyEntry{conn: transport.ConnID(1)}
	pub := fixturePublicId(t)

	e.handleNodeIdentify(transport.ConnID(2), &message.DirectMessage{
		Kind:     message.DirectNodeIdentify,
		PublicId: pub,
	})

	assert.Empty(t, e.proxies)
}
