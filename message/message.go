package message

import (
	"crypto/ed25519"
	"errors"

	"github.com/adrianbrink/routing/filter"
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/xorname"
)

// Errors returned by message integrity checks.
var (
	ErrFailedSignature  = errors.New("message: signature verification failed")
	ErrQuorumNotReached = errors.New("message: quorum not yet reached")
)

// Content is satisfied by any request or response content variant —
// RoutingMessage doesn't care which side of the exchange it carries,
// only that it can be discriminated by Kind().
type Content interface {
	Kind() string
}

// RoutingMessage is the application-level message exchanged between
// authorities: who sent it, who it is addressed to, and its content.
type RoutingMessage struct {
	Src     identity.Authority
	Dst     identity.Authority
	Content Content
}

// SignedMessage wraps a RoutingMessage with the sender's PublicId and a
// detached signature over the message, so any recipient can verify
// provenance without a prior handshake.
type SignedMessage struct {
	Content   RoutingMessage
	PublicId  identity.PublicId
	Signature []byte
}

// CheckIntegrity verifies Signature against PublicId.SigningKey over a
// canonical encoding of Content, returning ErrFailedSignature on
// mismatch.
func (s SignedMessage) CheckIntegrity(canonicalize func(RoutingMessage) []byte) error {
	if !ed25519.Verify(s.PublicId.SigningKey, canonicalize(s.Content), s.Signature) {
		return ErrFailedSignature
	}
	return nil
}

// HopMessage wraps a SignedMessage for one network hop: Name is the
// sending hop's own routing name (not the original sender's), and
// Signature is a per-hop signature proving the immediate neighbour
// relayed it, matching §4's nested-signing scheme.
type HopMessage struct {
	Content   SignedMessage
	Name      xorname.Name
	Signature []byte
}

// Verify checks the per-hop signature using pub, over a canonical
// encoding of Content supplied by canonicalize.
func (h HopMessage) Verify(pub ed25519.PublicKey, canonicalize func(SignedMessage) []byte) error {
	if !ed25519.Verify(pub, canonicalize(h.Content), h.Signature) {
		return ErrFailedSignature
	}
	return nil
}

// DirectMessageKind discriminates the handshake-only DirectMessage variants.
type DirectMessageKind string

const (
	DirectClientIdentify    DirectMessageKind = "ClientIdentify"
	DirectNodeIdentify      DirectMessageKind = "NodeIdentify"
	DirectBootstrapIdentify DirectMessageKind = "BootstrapIdentify"
	DirectBootstrapDeny     DirectMessageKind = "BootstrapDeny"
)

// DirectMessage is exchanged outside the signed-message protocol, during
// the bootstrap handshake before a connection's peer identity is known.
type DirectMessage struct {
	Kind              DirectMessageKind
	PublicId          identity.PublicId // ClientIdentify, NodeIdentify, BootstrapIdentify
	ClientRestriction bool              // ClientIdentify: false means the sender intends to become a node
	QuorumSize        int               // BootstrapIdentify: the proxy's dynamic quorum size
	Reason            string            // BootstrapDeny
	Attestation       string            // BootstrapIdentify: optional JWT quorum attestation (off by default)
}

// SecurityCheck implements §4.2's signed_msg_security_check: verifies
// the message's integrity, drops it if the signed-message filter has
// already seen an identical message within its TTL, and — for a message
// addressed to a group authority, unless it is a GetCloseGroup response
// (which bypasses quorum entirely, R3) — requires the accumulator to
// report quorum reached before the caller may act on it. Messages to a
// single-node destination skip the accumulator.
func SecurityCheck(
	signed SignedMessage,
	canonicalize func(RoutingMessage) []byte,
	seen *filter.SignedMessageFilter,
	accum *filter.Accumulator,
	quorum int,
) error {
	if err := signed.CheckIntegrity(canonicalize); err != nil {
		return err
	}

	if signed.Content.Src.Kind == identity.KindClient {
		if xorname.Hash(signed.PublicId.SigningKey) != signed.Content.Src.ClientKey {
			return ErrFailedSignature
		}
	}

	encoded := canonicalize(signed.Content)
	msgHash := xorname.Hash(encoded)

	if seen.Insert(msgHash) {
		return ErrQuorumNotReached
	}

	if signed.Content.Dst.IsGroup() && signed.Content.Content.Kind() != KindGetCloseGroupSuccess {
		if ready := accum.Add(msgHash, signed.PublicId.SigningKey, quorum); !ready {
			return ErrQuorumNotReached
		}
	}

	return nil
}
