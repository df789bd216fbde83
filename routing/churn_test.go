package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/codec"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

func TestOnConnect_Success_SendsClientIdentify(t *testing.T) {
	e, trans := newTestEngine(t)
	e.state = Disconnected

	e.onConnect(true, "token-1", transport.ConnID(1))

	assert.Equal(t, Bootstrapping, e.state)
	require.Equal(t, 1, trans.SentCount())

	decoded, err := codec.DecodeMessage(trans.SentMessages[0].Data)
	require.NoError(t, err)
	dm, ok := decoded.(*message.DirectMessage)
	require.True(t, ok)
	assert.Equal(t, message.DirectClientIdentify, dm.Kind)
}

func TestOnConnect_Failure_BlacklistsToken(t *testing.T) {
	e, _ := newTestEngine(t)
	e.state = Disconnected

	e.onConnect(false, "bad-token", transport.ConnID(1))

	assert.True(t, e.IsBlacklisted("bad-token"))
}

func TestOnAccept_FirstInNetwork_SelfRelocatesAndBecomesNode(t *testing.T) {
	e, _ := newTestEngine(t)
	e.state = Disconnected
	before := e.self

	e.onAccept(transport.Endpoint("127.0.0.1:9000"), transport.ConnID(7))

	assert.Equal(t, Node, e.state)
	assert.NotEqual(t, before, e.self)
	assert.True(t, e.id.IsRelocated())
	assert.Equal(t, xorname.Hash(before[:]), e.self, "E5 first-in-network self-relocation must be a single hash of the old name")
}

func TestOnLostConnection_DropsProxyAndTransitionsDisconnected(t *testing.T) {
	e, _ := newTestEngine(t)
	e.state = Client
	conn := transport.ConnID(3)
	e.proxies[conn] = proxyEntry{conn: conn}

	e.onLostConnection(conn)

	assert.Equal(t, Disconnected, e.state)
	assert.Empty(t, e.proxies)
}

func TestHandleTransportEvent_RecordsExternalEndpoints(t *testing.T) {
	e, _ := newTestEngine(t)

	e.handleTransportEvent(transport.Event{
		Kind:      transport.EventExternalEndpoints,
		Endpoints: []transport.Endpoint{"1.2.3.4:9000"},
	})

	assert.Equal(t, []transport.Endpoint{"1.2.3.4:9000"}, e.externalEndpoints)
}
