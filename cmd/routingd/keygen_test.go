package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/identity"
)

func TestRunKeygen_WritesLoadableIdentity(t *testing.T) {
	keygenType = "ed25519"
	keygenOutput = filepath.Join(t.TempDir(), "identity.json")
	keygenForce = false

	require.NoError(t, runKeygen(nil, nil))

	full, err := identity.LoadFromFile(keygenOutput)
	require.NoError(t, err)
	assert.False(t, full.IsRelocated())
}

func TestRunKeygen_RefusesToOverwriteWithoutForce(t *testing.T) {
	keygenType = "ed25519"
	keygenOutput = filepath.Join(t.TempDir(), "identity.json")
	keygenForce = false

	require.NoError(t, runKeygen(nil, nil))
	assert.Error(t, runKeygen(nil, nil))

	keygenForce = true
	assert.NoError(t, runKeygen(nil, nil))
}

func TestRunKeygen_Secp256k1PrintsStandaloneKey(t *testing.T) {
	keygenType = "secp256k1"
	defer func() { keygenType = "ed25519" }()

	require.NoError(t, runKeygen(nil, nil))
}
