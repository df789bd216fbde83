package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/xorname"
)

func newTestFullId(t *testing.T) *FullId {
	t.Helper()
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	enc, err := GenerateEncryptionKeyPair()
	require.NoError(t, err)

	ed := kp.(*ed25519KeyPair)
	x := enc.(*x25519KeyPair)
	return New(ed.priv, ed.pub, x.PublicKey(), x.PrivateKey())
}

func TestNew_NameIsHashOfSigningKey(t *testing.T) {
	f := newTestFullId(t)
	assert.Equal(t, xorname.Hash(f.SigningPub), f.Name())
	assert.False(t, f.PublicId().IsRelocated())
}

func TestRelocate_SucceedsOnce(t *testing.T) {
	f := newTestFullId(t)
	newName := xorname.Hash([]byte("relocated"))

	require.NoError(t, f.Relocate(newName))
	assert.Equal(t, newName, f.Name())
	assert.True(t, f.IsRelocated())
	assert.True(t, f.PublicId().IsRelocated())
}

func TestRelocate_SecondCallFails(t *testing.T) {
	f := newTestFullId(t)
	require.NoError(t, f.Relocate(xorname.Hash([]byte("first"))))

	err := f.Relocate(xorname.Hash([]byte("second")))
	assert.ErrorIs(t, err, ErrAlreadyRelocated)
}

func TestRelocate_ToSelfRejected(t *testing.T) {
	f := newTestFullId(t)
	err := f.Relocate(xorname.Hash(f.SigningPub))
	assert.ErrorIs(t, err, ErrRelocationToSelf)
}

func TestPublicId_Equal(t *testing.T) {
	f := newTestFullId(t)
	a := f.PublicId()
	b := f.PublicId()
	assert.True(t, a.Equal(b))

	b.Name = xorname.Hash([]byte("different"))
	assert.False(t, a.Equal(b))
}

func TestAuthority_IsGroup(t *testing.T) {
	name := xorname.Hash([]byte("n"))

	assert.True(t, NewNodeManagerAuthority(name).IsGroup())
	assert.True(t, NewNaeManagerAuthority(name).IsGroup())
	assert.False(t, NewManagedNodeAuthority(name).IsGroup())
	assert.False(t, NewClientAuthority(name, name).IsGroup())
}

func TestAuthority_TargetName(t *testing.T) {
	proxy := xorname.Hash([]byte("proxy"))
	clientKey := xorname.Hash([]byte("client"))

	client := NewClientAuthority(clientKey, proxy)
	assert.Equal(t, proxy, client.TargetName())

	node := NewManagedNodeAuthority(proxy)
	assert.Equal(t, proxy, node.TargetName())
}

func TestKeyPair_SignVerify(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("hello routing")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, kp.Verify(msg, sig))

	assert.ErrorIs(t, kp.Verify([]byte("tampered"), sig), ErrInvalidSignature)
}
