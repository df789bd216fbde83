// Copyright (C) 2025 adrianbrink
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package identity

import (
	stdcrypto "crypto"
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrUnsupportedKeyType is returned by GenerateKeyPairWithType for a
// KeyType this package doesn't implement.
var ErrUnsupportedKeyType = errors.New("identity: unsupported key type")

// KeyType selects the signing algorithm GenerateKeyPairWithType
// produces. Only Ed25519 key pairs can back a FullId; a secp256k1 key
// pair is standalone and cannot be used as a node identity.
type KeyType string

const (
	KeyTypeEd25519   KeyType = "ed25519"
	KeyTypeSecp256k1 KeyType = "secp256k1"
)

// secp256k1KeyPair is an alternate KeyPair implementation signing with
// ECDSA over secp256k1 instead of Ed25519.
type secp256k1KeyPair struct {
	priv *secp256k1.PrivateKey
	pub  *secp256k1.PublicKey
}

// GenerateKeyPairWithType generates a fresh signing key pair of the
// requested algorithm. KeyTypeEd25519 is equivalent to GenerateKeyPair.
func GenerateKeyPairWithType(kt KeyType) (KeyPair, error) {
	switch kt {
	case "", KeyTypeEd25519:
		return GenerateKeyPair()
	case KeyTypeSecp256k1:
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		return &secp256k1KeyPair{priv: priv, pub: priv.PubKey()}, nil
	default:
		return nil, ErrUnsupportedKeyType
	}
}

func (kp *secp256k1KeyPair) PublicKey() stdcrypto.PublicKey   { return kp.pub }
func (kp *secp256k1KeyPair) PrivateKey() stdcrypto.PrivateKey { return kp.priv }

// Sign produces a deterministic ECDSA signature (RFC 6979) over a
// SHA-256 digest of message, matching secp256k1's conventional usage.
func (kp *secp256k1KeyPair) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	sig := ecdsa.Sign(kp.priv, digest[:])
	return sig.Serialize(), nil
}

func (kp *secp256k1KeyPair) Verify(message, signature []byte) error {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	digest := sha256.Sum256(message)
	if !sig.Verify(digest[:], kp.pub) {
		return ErrInvalidSignature
	}
	return nil
}
