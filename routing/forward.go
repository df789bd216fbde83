package routing

import (
	"crypto/ed25519"

	"github.com/google/uuid"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/internal/metrics"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

// route implements §4.7's forwarding pipeline for an inbound
// HopMessage: verify the per-hop signature, run the signed-message
// security check (integrity, dedup, quorum), then either dispatch the
// content locally (we are an addressee) or forward it onward.
func (e *Engine) route(conn transport.ConnID, hop message.HopMessage) error {
	pub, ok := e.hopSignerKey(conn, hop.Name)
	if !ok {
		return ErrUnknownHopSigner
	}
	if err := hop.Verify(pub, canonicalizeSignedMessage); err != nil {
		return err
	}

	if e.state == Node {
		e.harvestSender(hop.Name)
	}

	signed := hop.Content
	quorum := e.quorumSize
	if quorum == 0 {
		quorum = e.table.DynamicQuorumSize()
	}
	if err := message.SecurityCheck(signed, canonicalizeRoutingMessage, e.signedFilter, e.accumulator, quorum); err != nil {
		return err
	}

	dst := signed.Content.Dst
	if e.targetsLocal(dst) {
		if dst.IsGroup() {
			return e.swarm(dst, signed)
		}
		e.dispatchLocal(signed)
		return nil
	}

	if e.state == Node && !e.checkDirection(dst, hop.Name) {
		metrics.FilterDrops.WithLabelValues("direction").Inc()
		return ErrDirectionCheckFailed
	}

	return e.forward(signed)
}

// harvestSender implements §4.7 step 1 "Node harvesting" (core.rs:430-433):
// the first time connFilter sees a hop signed by sender, if our table
// still wants them we ask them to connect to us, opportunistically
// growing the table from traffic we merely forward rather than relying
// on GetCloseGroup alone.
func (e *Engine) harvestSender(sender xorname.Name) {
	if e.connFilter.Insert(sender) {
		return
	}
	if !e.table.WantToAdd(sender) {
		return
	}
	src := identity.NewManagedNodeAuthority(e.self)
	dst := identity.NewManagedNodeAuthority(sender)
	content := message.Connect{Endpoints: e.endpointStrings(), Token: uuid.New()}
	if err := e.sendRoutingMessage(src, dst, content); err != nil {
		e.log.Debug("harvest connect request failed", logger.String("sender", sender.String()), logger.Error(err))
	}
}

// hopSignerKey resolves the Ed25519 public key belonging to whichever
// peer is on the other end of conn, so the per-hop HopMessage signature
// can be verified. The sender may be our proxy, one of our clients, or
// a peer in our routing table, depending on our current state.
func (e *Engine) hopSignerKey(conn transport.ConnID, hopName xorname.Name) (ed25519.PublicKey, bool) {
	for c, p := range e.proxies {
		if c == conn {
			return p.publicId.SigningKey, true
		}
	}
	for _, c := range e.clients {
		if c.conn == conn {
			return c.publicId.SigningKey, true
		}
	}
	if pub, _, ok := e.table.Get(hopName); ok {
		return pub.SigningKey, true
	}
	return nil, false
}

// targetsLocal reports whether dst addresses this engine directly: a
// ManagedNode naming us, a Client we proxy, or a close group we are
// presently a member of.
func (e *Engine) targetsLocal(dst identity.Authority) bool {
	switch dst.Kind {
	case identity.KindManagedNode:
		return dst.Name == e.self
	case identity.KindClient:
		return dst.ProxyNode == e.self
	case identity.KindNodeManager, identity.KindNaeManager:
		return dst.Name == e.self || e.table.IsClose(dst.Name)
	default:
		return false
	}
}

// forward relays signed to the connections the routing table reports
// for its destination (§4.7 step "transit forward"), trying every
// target the table names and succeeding if at least one accepts it.
func (e *Engine) forward(signed message.SignedMessage) error {
	targets := e.table.TargetNodes(signed.Content.Dst)
	if len(targets) == 0 {
		return ErrNoRoute
	}

	sent := false
	for _, t := range targets {
		_, conns, ok := e.table.Get(t.Name)
		if !ok || len(conns) == 0 {
			continue
		}
		if err := e.sendHop(transportConnID(conns[0]), signed, canonicalizeSignedMessage); err != nil {
			e.log.Debug("forward to target failed", logger.String("target", t.Name.String()), logger.Error(err))
			continue
		}
		sent = true
	}
	if !sent {
		return ErrNoRoute
	}
	metrics.MessagesForwarded.WithLabelValues("transit").Inc()
	return nil
}

// swarm implements group delivery for NodeManager/NaeManager
// destinations: every other member of our close group is sent a copy,
// and — since we are by definition a member whenever swarm is called —
// the content is also dispatched locally exactly once. Inserting into
// our own signedFilter happened already in route's SecurityCheck call,
// so a copy that boomerangs back to us through a peer is dropped as a
// duplicate rather than processed twice (§9 "Swarm self-inclusion").
func (e *Engine) swarm(dst identity.Authority, signed message.SignedMessage) error {
	group := e.table.TargetNodes(dst)
	for _, peer := range group {
		if peer.Name == e.self {
			continue
		}
		_, conns, ok := e.table.Get(peer.Name)
		if !ok || len(conns) == 0 {
			continue
		}
		if err := e.sendHop(transportConnID(conns[0]), signed, canonicalizeSignedMessage); err != nil {
			e.log.Debug("swarm send failed", logger.String("peer", peer.Name.String()), logger.Error(err))
			continue
		}
		metrics.MessagesForwarded.WithLabelValues("swarm").Inc()
	}
	e.dispatchLocal(signed)
	return nil
}

// sendRoutingMessage signs content as src addressed to dst with our
// own identity and routes it, used by every handler that replies to or
// originates a signed message (relocate.go's R1-R6, handlers.go's
// Connect/GetPublicId replies, and user-facing Actions).
func (e *Engine) sendRoutingMessage(src, dst identity.Authority, content message.Content) error {
	signed, err := e.signAndWrap(src, dst, content, canonicalizeRoutingMessage)
	if err != nil {
		return err
	}
	return e.dispatchSigned(signed)
}

// dispatchSigned picks how to get signed moving: while not yet a full
// Node, everything goes via our proxy; once we are a Node, group
// destinations swarm, local destinations dispatch immediately, and
// everything else forwards through the table.
func (e *Engine) dispatchSigned(signed message.SignedMessage) error {
	if e.state != Node {
		for conn := range e.proxies {
			return e.sendHop(conn, signed, canonicalizeSignedMessage)
		}
		return ErrNotConnected
	}

	dst := signed.Content.Dst
	if e.targetsLocal(dst) {
		if dst.IsGroup() {
			return e.swarm(dst, signed)
		}
		e.dispatchLocal(signed)
		return nil
	}
	return e.forward(signed)
}

// toWirePublicIdentity/fromWirePublicIdentity convert between
// identity.PublicId and its over-the-wire representation, used
// wherever a PublicId must travel inside a signed message's content
// (relocate.go's R1-R5, handlers.go's GetPublicId replies).
func toWirePublicIdentity(p identity.PublicId) message.PublicIdentity {
	return message.PublicIdentity{Name: p.Name, SigningKey: p.SigningKey, EncryptKey: p.EncryptKey}
}

func fromWirePublicIdentity(w message.PublicIdentity) identity.PublicId {
	return identity.PublicId{Name: w.Name, SigningKey: ed25519.PublicKey(w.SigningKey), EncryptKey: w.EncryptKey}
}
