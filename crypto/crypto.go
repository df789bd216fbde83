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

// Package crypto is a thin wrapper the routing engine calls through,
// isolating it from the concrete algorithm choices made in identity:
// detached Ed25519 signatures for message authentication, and CIRCL's
// HPKE base mode over X25519 for boxing payloads to a specific peer.
package crypto

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/hpke"

	"github.com/adrianbrink/routing/identity"
)

// ErrBoxOpenFailed is returned by BoxOpen on authentication failure.
var ErrBoxOpenFailed = errors.New("crypto: box open failed")

// suite pins the HPKE ciphersuite used throughout: X25519 KEM,
// HKDF-SHA256, ChaCha20-Poly1305 AEAD — the same combination the
// teacher's HPKE helpers use.
func suite() hpke.Suite {
	return hpke.NewSuite(hpke.KEM_X25519_HKDF_SHA256, hpke.KDF_HKDF_SHA256, hpke.AEAD_ChaCha20Poly1305)
}

// SignDetached signs msg with kp's signing key.
func SignDetached(kp identity.KeyPair, msg []byte) ([]byte, error) {
	return kp.Sign(msg)
}

// VerifyDetached verifies sig over msg against pub.
func VerifyDetached(pub ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pub, msg, sig)
}

// BoxSeal encrypts payload to theirPub using HPKE base-mode single-shot
// seal, authenticated with aad. The returned packet is enc‖ciphertext,
// where enc is the 32-byte X25519 ephemeral public key HPKE requires
// the receiver to complete the KEM.
func BoxSeal(payload, aad []byte, theirPub *ecdh.PublicKey) ([]byte, error) {
	s := suite()
	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()

	recipient, err := kem.UnmarshalBinaryPublicKey(theirPub.Bytes())
	if err != nil {
		return nil, fmt.Errorf("crypto: unmarshal recipient key: %w", err)
	}

	sender, err := s.NewSender(recipient, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: new hpke sender: %w", err)
	}

	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: hpke setup: %w", err)
	}

	ct, err := sealer.Seal(payload, aad)
	if err != nil {
		return nil, fmt.Errorf("crypto: hpke seal: %w", err)
	}

	return append(append([]byte{}, enc...), ct...), nil
}

// BoxOpen reverses BoxSeal using ourPriv, returning ErrBoxOpenFailed on
// authentication failure.
func BoxOpen(packet, aad []byte, ourPriv *ecdh.PrivateKey) ([]byte, error) {
	const encLen = 32 // X25519 KEM enc length
	if len(packet) < encLen {
		return nil, fmt.Errorf("crypto: packet too short (%d bytes)", len(packet))
	}
	enc, ct := packet[:encLen], packet[encLen:]

	s := suite()
	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()

	sk, err := kem.UnmarshalBinaryPrivateKey(ourPriv.Bytes())
	if err != nil {
		return nil, fmt.Errorf("crypto: unmarshal private key: %w", err)
	}

	receiver, err := s.NewReceiver(sk, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: new hpke receiver: %w", err)
	}

	opener, err := receiver.Setup(enc)
	if err != nil {
		return nil, fmt.Errorf("crypto: hpke receiver setup: %w", err)
	}

	pt, err := opener.Open(ct, aad)
	if err != nil {
		return nil, ErrBoxOpenFailed
	}
	return pt, nil
}
