package identity

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveEncryptionPublicKey_RejectsInvalidPoint(t *testing.T) {
	bad := make([]byte, ed25519.PublicKeySize)
	for i := range bad {
		bad[i] = 0xff
	}
	_, err := DeriveEncryptionPublicKey(bad)
	assert.ErrorIs(t, err, ErrNotOnCurve)
}

func TestDeriveEncryptionPublicKey_MatchesDerivedKeyPair(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	wantPub, err := DeriveEncryptionPublicKey(pub)
	require.NoError(t, err)

	kp, err := DeriveEncryptionKeyPair(priv)
	require.NoError(t, err)

	assert.Equal(t, wantPub, kp.PublicKey())
}
