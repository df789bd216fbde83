package routing

import (
	"crypto/ed25519"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/transport"
)

// newTestFullId builds a FullId through identity's exported API only,
// the way an application constructing the engine would.
func newTestFullId(t *testing.T) *identity.FullId {
	t.Helper()
	kp, err := identity.GenerateKeyPair()
	require.NoError(t, err)
	enc, err := identity.GenerateEncryptionKeyPair()
	require.NoError(t, err)

	return identity.New(
		kp.PrivateKey().(ed25519.PrivateKey),
		kp.PublicKey().(ed25519.PublicKey),
		enc.PublicKey(),
		enc.PrivateKey(),
	)
}

// newTestEngine builds an Engine wired to a MockTransport and a
// discard logger, ready for tests to drive directly (bypassing Run).
func newTestEngine(t *testing.T) (*Engine, *transport.MockTransport) {
	t.Helper()
	trans := transport.NewMockTransport()
	id := newTestFullId(t)
	log := logger.NewLogger(io.Discard, logger.InfoLevel)
	e := New(id, trans, DefaultConfig(), log)
	return e, trans
}
