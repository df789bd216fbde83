package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairWithType_Secp256k1SignsAndVerifies(t *testing.T) {
	kp, err := GenerateKeyPairWithType(KeyTypeSecp256k1)
	require.NoError(t, err)

	msg := []byte("routing test message")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	assert.NoError(t, kp.Verify(msg, sig))
	assert.Error(t, kp.Verify([]byte("tampered"), sig))
}

func TestGenerateKeyPairWithType_DefaultsToEd25519(t *testing.T) {
	kp, err := GenerateKeyPairWithType("")
	require.NoError(t, err)
	_, ok := kp.(*ed25519KeyPair)
	assert.True(t, ok)
}

func TestGenerateKeyPairWithType_UnsupportedReturnsError(t *testing.T) {
	_, err := GenerateKeyPairWithType("rot13")
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
}
