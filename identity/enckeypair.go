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
	"crypto/rand"
)

// x25519KeyPair is the concrete EncryptionKeyPair used for boxing
// messages to a specific peer (crypto.BoxSeal/BoxOpen).
type x25519KeyPair struct {
	priv *ecdh.PrivateKey
	pub  *ecdh.PublicKey
}

// GenerateEncryptionKeyPair generates a fresh X25519 key pair.
func GenerateEncryptionKeyPair() (EncryptionKeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &x25519KeyPair{priv: priv, pub: priv.PublicKey()}, nil
}

func (kp *x25519KeyPair) PublicKey() [32]byte {
	var out [32]byte
	copy(out[:], kp.pub.Bytes())
	return out
}

func (kp *x25519KeyPair) PrivateKey() [32]byte {
	var out [32]byte
	copy(out[:], kp.priv.Bytes())
	return out
}

// ECDH exposes the underlying *ecdh.PrivateKey/PublicKey for use by the
// crypto package's BoxSeal/BoxOpen wrappers.
func (kp *x25519KeyPair) ECDH() (*ecdh.PrivateKey, *ecdh.PublicKey) {
	return kp.priv, kp.pub
}
