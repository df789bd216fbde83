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
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

// ErrInvalidSignature is returned by ed25519KeyPair.Verify on mismatch.
var ErrInvalidSignature = errors.New("identity: invalid signature")

// ed25519KeyPair is the concrete KeyPair backing every node identity.
type ed25519KeyPair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// GenerateKeyPair generates a fresh Ed25519 signing key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &ed25519KeyPair{priv: priv, pub: pub}, nil
}

func (kp *ed25519KeyPair) PublicKey() stdcrypto.PublicKey  { return kp.pub }
func (kp *ed25519KeyPair) PrivateKey() stdcrypto.PrivateKey { return kp.priv }

func (kp *ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(kp.priv, message), nil
}

func (kp *ed25519KeyPair) Verify(message, signature []byte) error {
	if !ed25519.Verify(kp.pub, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}
