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

// Package identity holds the cryptographic identities that participate
// in the routing overlay: signing/encryption key pairs, the public and
// full identity records derived from them, and the authority tags that
// address messages to a single node or a close group.
package identity

import (
	"crypto"
	"crypto/ed25519"
	"errors"

	"github.com/adrianbrink/routing/xorname"
)

// Errors returned by FullId.Relocate.
var (
	ErrAlreadyRelocated = errors.New("identity: full id has already been relocated")
	ErrRelocationToSelf = errors.New("identity: relocated name must differ from the pre-relocation name")
)

// KeyPair is a signing key pair. FullId is always backed by the Ed25519
// implementation; the secp256k1 implementation (GenerateKeyPairWithType)
// is a standalone KeyPair and is not used by FullId.
type KeyPair interface {
	PublicKey() crypto.PublicKey
	PrivateKey() crypto.PrivateKey
	Sign(message []byte) ([]byte, error)
	Verify(message, signature []byte) error
}

// EncryptionKeyPair is the X25519 key pair used to box messages to a
// specific peer.
type EncryptionKeyPair interface {
	PublicKey() [32]byte
	PrivateKey() [32]byte
}

// AuthorityKind discriminates the variants of Authority.
type AuthorityKind string

const (
	KindClient      AuthorityKind = "Client"
	KindManagedNode AuthorityKind = "ManagedNode"
	KindNodeManager AuthorityKind = "NodeManager"
	KindNaeManager  AuthorityKind = "NaeManager"
)

// Authority names the source or destination of a routing message. The
// group authorities (NodeManager, NaeManager) address a close group
// rather than a single connection.
type Authority struct {
	Kind       AuthorityKind
	Name       xorname.Name // ManagedNode, NodeManager, NaeManager
	ClientKey  xorname.Name // Client only: hash of the client's public key
	ProxyNode  xorname.Name // Client only: name of the proxy routing the client's traffic
}

// NewClientAuthority builds a Client authority.
func NewClientAuthority(clientKey, proxyNode xorname.Name) Authority {
	return Authority{Kind: KindClient, ClientKey: clientKey, ProxyNode: proxyNode}
}

// NewManagedNodeAuthority builds a ManagedNode authority.
func NewManagedNodeAuthority(name xorname.Name) Authority {
	return Authority{Kind: KindManagedNode, Name: name}
}

// NewNodeManagerAuthority builds a NodeManager (group) authority.
func NewNodeManagerAuthority(name xorname.Name) Authority {
	return Authority{Kind: KindNodeManager, Name: name}
}

// NewNaeManagerAuthority builds a NaeManager (group) authority.
func NewNaeManagerAuthority(name xorname.Name) Authority {
	return Authority{Kind: KindNaeManager, Name: name}
}

// IsGroup reports whether the authority addresses a close group rather
// than a single connection.
func (a Authority) IsGroup() bool {
	return a.Kind == KindNodeManager || a.Kind == KindNaeManager
}

// TargetName returns the xorname this authority routes towards. For
// Client it is the proxy's name, since messages to a client travel via
// its proxy.
func (a Authority) TargetName() xorname.Name {
	if a.Kind == KindClient {
		return a.ProxyNode
	}
	return a.Name
}

// PublicId is the network-visible identity of a participant: its
// routing name and the public halves of its two key pairs. Before
// relocation, Name equals H(signing public key); after relocation it
// is the network-chosen name from the join protocol (§4.11).
type PublicId struct {
	Name         xorname.Name
	SigningKey   ed25519.PublicKey
	EncryptKey   [32]byte
}

// Equal compares all fields of two PublicIds.
func (p PublicId) Equal(other PublicId) bool {
	return p.Name == other.Name &&
		bytesEqual(p.SigningKey, other.SigningKey) &&
		p.EncryptKey == other.EncryptKey
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsRelocated reports whether Name differs from H(signing public key),
// i.e. whether the join protocol has already assigned this identity a
// network-chosen name.
func (p PublicId) IsRelocated() bool {
	return p.Name != xorname.Hash(p.SigningKey)
}

// FullId is a participant's complete identity: its key material plus
// the PublicId derived from it. It is relocated exactly once, during
// the join protocol (I6).
type FullId struct {
	Signing    ed25519.PrivateKey
	SigningPub ed25519.PublicKey
	EncryptPub [32]byte
	EncryptPriv [32]byte

	name       xorname.Name
	relocated  bool
}

// New builds a FullId whose pre-relocation name is H(signing public key).
func New(signingPriv ed25519.PrivateKey, signingPub ed25519.PublicKey, encPub, encPriv [32]byte) *FullId {
	return &FullId{
		Signing:     signingPriv,
		SigningPub:  signingPub,
		EncryptPub:  encPub,
		EncryptPriv: encPriv,
		name:        xorname.Hash(signingPub),
	}
}

// PublicId returns the current public identity.
func (f *FullId) PublicId() PublicId {
	return PublicId{Name: f.name, SigningKey: f.SigningPub, EncryptKey: f.EncryptPub}
}

// Name returns the current routing name.
func (f *FullId) Name() xorname.Name {
	return f.name
}

// Relocate assigns the network-chosen name produced by the join
// protocol. It may only be called once per FullId (I6): a second call
// returns ErrAlreadyRelocated. Relocating to the pre-relocation name
// (H(signing pub)) is rejected as a no-op that would defeat the
// purpose of relocation.
func (f *FullId) Relocate(newName xorname.Name) error {
	if f.relocated {
		return ErrAlreadyRelocated
	}
	if newName == xorname.Hash(f.SigningPub) {
		return ErrRelocationToSelf
	}
	f.name = newName
	f.relocated = true
	return nil
}

// IsRelocated reports whether Relocate has already succeeded once.
func (f *FullId) IsRelocated() bool {
	return f.relocated
}
