package routing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/codec"
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

func TestHandleGet_ServesFromCacheWhenPresent(t *testing.T) {
	e, trans := newTestEngine(t)
	name := xorname.Hash([]byte("data"))
	e.dataCache.Insert(name, []byte("payload"))
	peer := fixturePublicId(t)
	e.proxies[transport.ConnID(1)] = proxyEntry{conn: transport.ConnID(1), publicId: peer}
	e.state = Client // route the reply out via our proxy

	e.handleGet(identity.NewManagedNodeAuthority(peer.Name), identity.NewManagedNodeAuthority(e.self),
		message.Get{Name: name})

	require.Equal(t, 1, trans.SentCount())
	decoded, err := codec.DecodeMessage(trans.SentMessages[0].Data)
	require.NoError(t, err)
	hop := decoded.(*message.HopMessage)
	success, ok := hop.Content.Content.Content.(message.GetSuccess)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), success.Data)
}

func TestHandleGet_EmitsRequestEventWhenUncached(t *testing.T) {
	e, _ := newTestEngine(t)
	src := identity.NewManagedNodeAuthority(xorname.Hash([]byte("src")))
	dst := identity.NewManagedNodeAuthority(e.self)

	e.handleGet(src, dst, message.Get{Name: xorname.Hash([]byte("missing"))})

	select {
	case ev := <-e.eventC:
		assert.Equal(t, EventRequest, ev.Kind)
	default:
		t.Fatal("expected an EventRequest to be emitted")
	}
}

func TestHandlePut_CachesByContentHash(t *testing.T) {
	e, _ := newTestEngine(t)
	data := []byte("immutable-blob")
	src := identity.NewManagedNodeAuthority(xorname.Hash([]byte("src")))
	dst := identity.NewManagedNodeAuthority(e.self)

	e.handlePut(src, dst, message.Put{Data: data})

	got, ok := e.dataCache.Get(xorname.Hash(data))
	require.True(t, ok)
	assert.Equal(t, data, got)
}

func TestDispatchLocal_UnknownKindLogsWithoutPanicking(t *testing.T) {
	e, _ := newTestEngine(t)
	signed := message.SignedMessage{Content: message.RoutingMessage{
		Dst:     identity.NewManagedNodeAuthority(e.self),
		Content: unregisteredContent{},
	}}

	assert.NotPanics(t, func() { e.dispatchLocal(signed) })
}

type unregisteredContent struct{}

func (unregisteredContent) Kind() string { return "Unregistered" }

func TestHandleAction_Name(t *testing.T) {
	e, _ := newTestEngine(t)
	resultC := make(chan ActionResult, 1)

	e.handleAction(Name{ResultC: resultC})

	res := <-resultC
	assert.Equal(t, e.self, res.Name)
}

func TestHandleAction_CloseGroup(t *testing.T) {
	e, _ := newTestEngine(t)
	resultC := make(chan ActionResult, 1)

	e.handleAction(CloseGroup{ResultC: resultC})

	res := <-resultC
	assert.NotNil(t, res.Names)
}

func TestHandleAction_ClientSendRequest_ErrNotConnectedWithoutProxy(t *testing.T) {
	e, _ := newTestEngine(t)
	resultC := make(chan ActionResult, 1)

	e.handleAction(ClientSendRequest{
		Dst:     identity.NewManagedNodeAuthority(xorname.Hash([]byte("x"))),
		Content: message.GetPublicId{},
		ResultC: resultC,
	})

	res := <-resultC
	assert.ErrorIs(t, res.Err, ErrNotConnected)
}

func TestHandleConnect_ReportsSuccessViaActionChannel(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Client
	conn := transport.ConnID(1)
	e.proxies[conn] = proxyEntry{conn: conn}

	dialed := make(chan struct{}, 1)
	trans.ConnectFunc = func(ctx context.Context, token string, endpoints []transport.Endpoint) error {
		dialed <- struct{}{}
		return nil
	}

	peer := fixturePublicId(t)
	e.identityCache.Insert(peer.Name, peer)
	src := identity.NewManagedNodeAuthority(peer.Name)
	dst := identity.NewManagedNodeAuthority(e.self)
	token := uuid.New()

	e.handleConnect(src, dst, message.Connect{Endpoints: []string{"10.0.0.1:9000"}, Token: token})

	select {
	case <-dialed:
	case <-time.After(time.Second):
		t.Fatal("expected the mock transport to be dialed")
	}

	var act Action
	select {
	case act = <-e.actionC:
	case <-time.After(time.Second):
		t.Fatal("expected a connectDialResult action")
	}
	e.handleAction(act)

	require.Equal(t, 1, trans.SentCount())
	decoded, err := codec.DecodeMessage(trans.SentMessages[0].Data)
	require.NoError(t, err)
	hop := decoded.(*message.HopMessage)
	success, ok := hop.Content.Content.Content.(message.ConnectSuccess)
	require.True(t, ok)
	assert.Equal(t, token, success.Token)
}

func TestHandleConnect_UnknownSenderAsksNodeManagerForPublicId(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Client
	conn := transport.ConnID(1)
	e.proxies[conn] = proxyEntry{conn: conn}

	unknownName := xorname.Hash([]byte("stranger"))
	src := identity.NewManagedNodeAuthority(unknownName)
	dst := identity.NewManagedNodeAuthority(e.self)
	token := uuid.New()

	e.handleConnect(src, dst, message.Connect{Endpoints: []string{"10.0.0.1:9000"}, Token: token})

	require.Equal(t, 1, trans.SentCount())
	decoded, err := codec.DecodeMessage(trans.SentMessages[0].Data)
	require.NoError(t, err)
	hop := decoded.(*message.HopMessage)
	_, ok := hop.Content.Content.Content.(message.GetPublicId)
	require.True(t, ok)
	assert.Equal(t, identity.NewNodeManagerAuthority(unknownName), hop.Content.Content.Dst)

	select {
	case <-e.actionC:
		t.Fatal("must not have attempted a dial without a known identity")
	default:
	}
}

func TestHandleAction_NodeSendMessage_ForwardsViaTable(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Node
	resultC := make(chan ActionResult, 1)

	e.handleAction(NodeSendMessage{
		Dst:     identity.NewManagedNodeAuthority(xorname.Hash([]byte("nobody-known"))),
		Content: message.GetPublicId{},
		ResultC: resultC,
	})

	res := <-resultC
	assert.ErrorIs(t, res.Err, ErrNoRoute)
	assert.Equal(t, 0, trans.SentCount())
}
