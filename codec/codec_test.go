package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/xorname"
)

func TestEncodeDecodePublicId_RoundTrips(t *testing.T) {
	name := xorname.Hash([]byte("peer"))
	p := identity.PublicId{Name: name, SigningKey: name[:32]}

	b, err := EncodePublicId(p)
	require.NoError(t, err)

	got, err := DecodePublicId(b)
	require.NoError(t, err)
	assert.True(t, p.Equal(got))
}

func TestEncodeDecodeMessage_HopMessage(t *testing.T) {
	src := identity.NewManagedNodeAuthority(xorname.Hash([]byte("src")))
	dst := identity.NewManagedNodeAuthority(xorname.Hash([]byte("dst")))

	hop := &message.HopMessage{
		Name:      xorname.Hash([]byte("hop")),
		Signature: []byte("sig"),
		Content: message.SignedMessage{
			PublicId:  identity.PublicId{Name: src.Name},
			Signature: []byte("inner-sig"),
			Content: message.RoutingMessage{
				Src:     src,
				Dst:     dst,
				Content: message.Get{Name: xorname.Hash([]byte("data"))},
			},
		},
	}

	b, err := EncodeMessage(hop)
	require.NoError(t, err)

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)

	got, ok := decoded.(*message.HopMessage)
	require.True(t, ok)
	assert.Equal(t, hop.Name, got.Name)
	assert.Equal(t, hop.Content.Content.Src.Name, got.Content.Content.Src.Name)

	getContent, ok := got.Content.Content.Content.(message.Get)
	require.True(t, ok)
	assert.Equal(t, hop.Content.Content.Content.(message.Get).Name, getContent.Name)
}

func TestEncodeDecodeMessage_DirectMessage(t *testing.T) {
	direct := &message.DirectMessage{
		Kind:     message.DirectBootstrapDeny,
		Reason:   "joining nodes limit reached",
	}

	b, err := EncodeMessage(direct)
	require.NoError(t, err)

	decoded, err := DecodeMessage(b)
	require.NoError(t, err)

	got, ok := decoded.(*message.DirectMessage)
	require.True(t, ok)
	assert.Equal(t, message.DirectBootstrapDeny, got.Kind)
	assert.Equal(t, "joining nodes limit reached", got.Reason)
}

func TestEncodeMessage_RejectsUnknownType(t *testing.T) {
	_, err := EncodeMessage("not a message")
	assert.ErrorIs(t, err, ErrSerialisation)
}
