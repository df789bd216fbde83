package routing

import (
	"time"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/internal/metrics"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/routingtable"
	"github.com/adrianbrink/routing/transport"
)

// handleDirectMessage dispatches a DirectMessage by kind (§4.6, §4.10).
// DirectMessages are exchanged before either side's peer identity is
// known to the routing table, so none of I1/I2's key-lookup machinery
// applies here — each handler verifies what it needs inline.
func (e *Engine) handleDirectMessage(conn transport.ConnID, dm *message.DirectMessage) {
	switch dm.Kind {
	case message.DirectClientIdentify:
		e.handleClientIdentify(conn, dm)
	case message.DirectBootstrapIdentify:
		e.handleBootstrapIdentify(conn, dm)
	case message.DirectBootstrapDeny:
		e.handleBootstrapDeny(dm)
	case message.DirectNodeIdentify:
		e.handleNodeIdentify(conn, dm)
	}
}

// handleClientIdentify implements admission control (§4.10): verifies
// the candidate isn't already relocated, applies the admission cap
// (I5), and replies with BootstrapIdentify or BootstrapDeny.
func (e *Engine) handleClientIdentify(conn transport.ConnID, dm *message.DirectMessage) {
	if dm.PublicId.IsRelocated() {
		e.log.Warn("dropping ClientIdentify from already-relocated peer")
		_ = e.trans.DropNode(conn)
		return
	}

	var deny string
	switch {
	case dm.ClientRestriction:
		if e.table.Len() < e.cfg.GroupSize {
			deny = "routing table below group size"
		}
	default:
		rtHasRoom := e.table.Len() < e.cfg.GroupSize && e.joiningNodesNum < e.cfg.GroupSize
		underCap := e.joiningNodesNum < e.cfg.MaxJoiningNodes
		if !rtHasRoom && !underCap {
			deny = "joining nodes limit reached"
		}
	}

	if deny != "" {
		metrics.AdmissionDecisions.WithLabelValues("deny").Inc()
		_ = e.sendDirect(conn, &message.DirectMessage{Kind: message.DirectBootstrapDeny, Reason: deny})
		return
	}

	metrics.AdmissionDecisions.WithLabelValues("accept").Inc()

	key := hexKey(dm.PublicId.SigningKey)
	if prior, ok := e.clients[key]; ok {
		_ = e.trans.DropNode(prior.conn)
	}
	e.clients[key] = clientEntry{conn: conn, publicId: dm.PublicId, clientRestriction: dm.ClientRestriction}
	if !dm.ClientRestriction {
		e.joiningNodesNum++
	}

	quorum := e.table.DynamicQuorumSize()
	reply := &message.DirectMessage{
		Kind:       message.DirectBootstrapIdentify,
		PublicId:   e.id.PublicId(),
		QuorumSize: quorum,
	}
	if e.cfg.AttestationSecret != nil {
		token, err := signQuorumAttestation(e.cfg.AttestationSecret, e.self.String(), quorum)
		if err != nil {
			e.log.Warn("failed to sign quorum attestation", logger.Error(err))
		} else {
			reply.Attestation = token
		}
	}
	_ = e.sendDirect(conn, reply)
}

// handleBootstrapIdentify implements the Bootstrapping->Client
// transition of §4.6: adopt the proxy, record its quorum size, and
// either declare Connected (if our own identity is already relocated)
// or begin relocation. The engine keeps no client-restriction setting
// of its own, so this choice depends only on IsRelocated.
func (e *Engine) handleBootstrapIdentify(conn transport.ConnID, dm *message.DirectMessage) {
	if e.state != Bootstrapping {
		return
	}
	if !dm.PublicId.IsRelocated() {
		e.log.Warn("BootstrapIdentify from unrelocated proxy, dropping")
		_ = e.trans.DropNode(conn)
		return
	}

	if e.cfg.AttestationSecret != nil && dm.Attestation != "" {
		if attested, err := verifyQuorumAttestation(e.cfg.AttestationSecret, dm.Attestation); err != nil {
			e.log.Warn("proxy's quorum attestation failed verification", logger.Error(err))
		} else if attested != dm.QuorumSize {
			e.log.Warn("proxy's attested quorum size disagrees with its plaintext claim")
		}
	}

	e.proxies[conn] = proxyEntry{conn: conn, publicId: dm.PublicId}
	e.quorumSize = dm.QuorumSize
	e.transitionTo(Client)

	if e.id.IsRelocated() {
		e.emitEvent(Event{Kind: EventConnected})
		return
	}

	e.beginRelocation(conn)
}

// handleBootstrapDeny implements the any->Disconnected transition on
// denial (§4.6) and blacklists the last bootstrap token (§9 "Bootstrap
// blacklisting on deny"); it does not re-dial.
func (e *Engine) handleBootstrapDeny(dm *message.DirectMessage) {
	e.log.Info("bootstrap denied", logger.String("reason", dm.Reason))
	e.transitionTo(Disconnected)
	e.retryBootstrapWithBlacklist(e.lastBootstrapToken)
}

// retryBootstrapWithBlacklist implements the §9 supplement: rather
// than the original's unconditional 5-second sleep and re-bootstrap,
// the denying/failing token is blacklisted for one retry window so the
// next attempt prefers a different contact if the transport's
// bootstrap API exposes one.
func (e *Engine) retryBootstrapWithBlacklist(token string) {
	if token != "" {
		e.blacklist[token] = time.Now().Add(e.cfg.BootstrapRetryDelay)
	}
	e.log.Info("bootstrap token blacklisted", logger.Duration("delay", e.cfg.BootstrapRetryDelay))
	// No re-dial is scheduled here, and cmd/routingd calls Bootstrap only
	// once at startup: the engine stays Disconnected until a caller
	// invokes Engine.Bootstrap again, which skips this token while
	// IsBlacklisted reports it.
}

// IsBlacklisted reports whether token is still within its retry
// backoff window.
func (e *Engine) IsBlacklisted(token string) bool {
	until, ok := e.blacklist[token]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(e.blacklist, token)
		return false
	}
	return true
}

// handleNodeIdentify completes R7: a peer with a non-zero name (no
// other check is made here) is added to the routing table and answered
// with our own NodeIdentify; the first such peer moves us to Node if we
// are not already there, and once our table reaches GroupSize, proxy
// connections are dropped.
func (e *Engine) handleNodeIdentify(conn transport.ConnID, dm *message.DirectMessage) {
	if dm.PublicId.Name.IsZero() {
		return
	}

	inserted, evicted := e.table.AddNode(nodeInfoFrom(dm.PublicId, conn))
	if inserted {
		metrics.ChurnEvents.WithLabelValues("gained").Inc()
		e.emitEvent(Event{Kind: EventChurn, ChurnID: dm.PublicId.Name})
	}
	if evicted != nil {
		e.log.Debug("evicted replacement-cache entry", logger.String("name", evicted.Name.String()))
	}

	_ = e.sendDirect(conn, &message.DirectMessage{Kind: message.DirectNodeIdentify, PublicId: e.id.PublicId()})

	if e.state != Node {
		e.transitionTo(Node)
		e.observeRelocationDuration()
	}

	if e.table.Len() >= e.cfg.GroupSize && len(e.proxies) > 0 {
		for c := range e.proxies {
			_ = e.trans.DropNode(c)
		}
		e.proxies = make(map[transport.ConnID]proxyEntry)
	}
}

func nodeInfoFrom(pub identity.PublicId, conn transport.ConnID) routingtable.NodeInfo {
	return routingtable.NodeInfo{PublicId: pub, Conn: routingtableConnID(conn)}
}
