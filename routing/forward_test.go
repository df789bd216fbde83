package routing

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/routingtable"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

func TestTargetsLocal_ManagedNodeMatchesSelf(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.True(t, e.targetsLocal(identity.NewManagedNodeAuthority(e.self)))
	assert.False(t, e.targetsLocal(identity.NewManagedNodeAuthority(xorname.Hash([]byte("someone-else")))))
}

func TestTargetsLocal_ClientMatchesProxyNode(t *testing.T) {
	e, _ := newTestEngine(t)
	dst := identity.NewClientAuthority(xorname.Hash([]byte("client")), e.self)
	assert.True(t, e.targetsLocal(dst))
}

func TestTargetsLocal_GroupMatchesWhenClose(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.True(t, e.targetsLocal(identity.NewNodeManagerAuthority(e.self)))
}

func TestHopSignerKey_ResolvesFromProxy(t *testing.T) {
	e, _ := newTestEngine(t)
	proxyPub := fixturePublicId(t)
	conn := transport.ConnID(1)
	e.proxies[conn] = proxyEntry{conn: conn, publicId: proxyPub}

	pub, ok := e.hopSignerKey(conn, proxyPub.Name)
	require.True(t, ok)
	assert.Equal(t, proxyPub.SigningKey, pub)
}

func TestHopSignerKey_ResolvesFromClient(t *testing.T) {
	e, _ := newTestEngine(t)
	clientPub := fixturePublicId(t)
	conn := transport.ConnID(2)
	e.clients["k"] = clientEntry{conn: conn, publicId: clientPub}

	pub, ok := e.hopSignerKey(conn, clientPub.Name)
	require.True(t, ok)
	assert.Equal(t, clientPub.SigningKey, pub)
}

func TestHopSignerKey_ResolvesFromTable(t *testing.T) {
	e, _ := newTestEngine(t)
	peerPub := fixturePublicId(t)
	e.table.AddNode(routingtable.NodeInfo{PublicId: peerPub, Conn: 9})

	pub, ok := e.hopSignerKey(transport.ConnID(99), peerPub.Name)
	require.True(t, ok)
	assert.Equal(t, peerPub.SigningKey, pub)
}

func TestHopSignerKey_UnknownReturnsFalse(t *testing.T) {
	e, _ := newTestEngine(t)
	_, ok := e.hopSignerKey(transport.ConnID(1), xorname.Hash([]byte("nobody")))
	assert.False(t, ok)
}

func TestForward_NoTargetsReturnsErrNoRoute(t *testing.T) {
	e, _ := newTestEngine(t)
	signed := message.SignedMessage{Content: message.RoutingMessage{
		Dst:     identity.NewManagedNodeAuthority(xorname.Hash([]byte("unreachable"))),
		Content: message.GetPublicId{},
	}}

	err := e.forward(signed)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestForward_SendsOverKnownTargetConnection(t *testing.T) {
	e, trans := newTestEngine(t)
	peerPub := fixturePublicId(t)
	e.table.AddNode(routingtable.NodeInfo{PublicId: peerPub, Conn: 11})

	signed := message.SignedMessage{Content: message.RoutingMessage{
		Dst:     identity.NewManagedNodeAuthority(peerPub.Name),
		Content: message.GetPublicId{},
	}}

	err := e.forward(signed)
	require.NoError(t, err)
	assert.Equal(t, 1, trans.SentCount())
}

func TestDispatchSigned_RoutesViaProxyWhileNotNode(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Client
	conn := transport.ConnID(4)
	e.proxies[conn] = proxyEntry{conn: conn}

	signed := message.SignedMessage{Content: message.RoutingMessage{
		Dst:     identity.NewManagedNodeAuthority(xorname.Hash([]byte("anywhere"))),
		Content: message.GetPublicId{},
	}}

	err := e.dispatchSigned(signed)
	require.NoError(t, err)
	assert.Equal(t, 1, trans.SentCount())
}

func TestDispatchSigned_ErrNotConnectedWithoutProxy(t *testing.T) {
	e, _ := newTestEngine(t)
	e.state = Client

	signed := message.SignedMessage{Content: message.RoutingMessage{
		Dst:     identity.NewManagedNodeAuthority(xorname.Hash([]byte("anywhere"))),
		Content: message.GetPublicId{},
	}}

	err := e.dispatchSigned(signed)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRoute_UnknownHopSignerRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	hop := message.HopMessage{Name: xorname.Hash([]byte("stranger"))}

	err := e.route(transport.ConnID(1), hop)
	assert.ErrorIs(t, err, ErrUnknownHopSigner)
}

func TestRoute_DispatchesLocallyAddressedContent(t *testing.T) {
	e, trans := newTestEngine(t)
	peer := newTestFullId(t)
	peerPub := peer.PublicId()
	e.table.AddNode(routingtable.NodeInfo{PublicId: peerPub, Conn: 42})
	e.proxies[transport.ConnID(1)] = proxyEntry{conn: transport.ConnID(1)}
	e.state = Client // the reply leaves via our proxy

	rm := message.RoutingMessage{
		Src:     identity.NewManagedNodeAuthority(peerPub.Name),
		Dst:     identity.NewManagedNodeAuthority(e.self),
		Content: message.GetPublicId{},
	}
	signed := message.SignedMessage{
		Content:   rm,
		PublicId:  peerPub,
		Signature: ed25519.Sign(peer.Signing, canonicalizeRoutingMessage(rm)),
	}
	hop := message.HopMessage{
		Content:   signed,
		Name:      peerPub.Name,
		Signature: ed25519.Sign(peer.Signing, canonicalizeSignedMessage(signed)),
	}

	err := e.route(transport.ConnID(42), hop)
	require.NoError(t, err)
	assert.Equal(t, 1, trans.SentCount()) // handleGetPublicId's reply
}

func TestRoute_HarvestsUnknownSenderWhenNode(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Node

	peer := newTestFullId(t)
	peerPub := peer.PublicId()
	// Added to the table so route() can resolve the hop signer's key;
	// harvesting still fires because connFilter has not seen this sender
	// yet and the table still wants it.
	conn := transport.ConnID(7)
	e.table.AddNode(routingtable.NodeInfo{PublicId: peerPub, Conn: routingtableConnID(conn)})

	rm := message.RoutingMessage{
		Src:     identity.NewManagedNodeAuthority(peerPub.Name),
		Dst:     identity.NewManagedNodeAuthority(e.self),
		Content: message.GetPublicId{},
	}
	signed := message.SignedMessage{
		Content:   rm,
		PublicId:  peerPub,
		Signature: ed25519.Sign(peer.Signing, canonicalizeRoutingMessage(rm)),
	}
	hop := message.HopMessage{
		Content:   signed,
		Name:      peerPub.Name,
		Signature: ed25519.Sign(peer.Signing, canonicalizeSignedMessage(signed)),
	}

	err := e.route(conn, hop)
	require.NoError(t, err)
	// One send for the harvest Connect request, one for handleGetPublicId's reply.
	assert.Equal(t, 2, trans.SentCount())
}

func TestRoute_DoesNotHarvestSameSenderTwice(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Node

	peer := newTestFullId(t)
	peerPub := peer.PublicId()
	conn := transport.ConnID(7)
	e.table.AddNode(routingtable.NodeInfo{PublicId: peerPub, Conn: routingtableConnID(conn)})

	contents := []message.Content{message.GetPublicId{}, message.GetCloseGroup{}}
	for _, content := range contents {
		rm := message.RoutingMessage{
			Src:     identity.NewManagedNodeAuthority(peerPub.Name),
			Dst:     identity.NewManagedNodeAuthority(e.self),
			Content: content,
		}
		signed := message.SignedMessage{
			Content:   rm,
			PublicId:  peerPub,
			Signature: ed25519.Sign(peer.Signing, canonicalizeRoutingMessage(rm)),
		}
		hop := message.HopMessage{
			Content:   signed,
			Name:      peerPub.Name,
			Signature: ed25519.Sign(peer.Signing, canonicalizeSignedMessage(signed)),
		}
		err := e.route(conn, hop)
		require.NoError(t, err)
	}

	// connFilter only lets the first hop from this sender trigger a
	// harvest Connect request; the second (distinct) message from the
	// same sender is routed normally but harvests nothing further.
	assert.Equal(t, 3, trans.SentCount())
}

func TestWirePublicIdentity_RoundTrips(t *testing.T) {
	pub := fixturePublicId(t)
	got := fromWirePublicIdentity(toWirePublicIdentity(pub))
	assert.True(t, got.Equal(pub))
}
