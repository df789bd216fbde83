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
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/sha512"
	"errors"

	"filippo.io/edwards25519"
)

// ErrNotOnCurve is returned when a supposed Ed25519 public key doesn't
// decode to a valid point on the twisted Edwards curve.
var ErrNotOnCurve = errors.New("identity: not a valid point on the Edwards curve")

// DeriveEncryptionPublicKey converts an Ed25519 public key to its
// birationally-equivalent Curve25519 (X25519) form, letting a node
// advertise a single signing key pair and derive its box key from it
// rather than generating and distributing a second key pair. Used by
// deployments that want one key to back both identities; FullIds built
// via GenerateEncryptionKeyPair keep the two independent as the spec
// primarily describes.
func DeriveEncryptionPublicKey(signingPub ed25519.PublicKey) ([32]byte, error) {
	var out [32]byte
	p, err := new(edwards25519.Point).SetBytes(signingPub)
	if err != nil {
		return out, ErrNotOnCurve
	}
	copy(out[:], p.BytesMontgomery())
	return out, nil
}

// DeriveEncryptionKeyPair derives an X25519 key pair from an Ed25519
// signing private key, following the standard Ed25519->X25519 seed
// conversion (SHA-512 the seed, clamp the low half, use it as the
// Curve25519 scalar).
func DeriveEncryptionKeyPair(signingPriv ed25519.PrivateKey) (EncryptionKeyPair, error) {
	seed := signingPriv.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	priv, err := ecdh.X25519().NewPrivateKey(h[:32])
	if err != nil {
		return nil, err
	}
	return &x25519KeyPair{priv: priv, pub: priv.PublicKey()}, nil
}
