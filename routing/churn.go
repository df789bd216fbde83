package routing

import (
	"encoding/hex"

	"github.com/adrianbrink/routing/codec"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/internal/metrics"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

// handleTransportEvent is the single entry point for everything the
// transport collaborator reports (§6). It never blocks: every branch
// either mutates engine state directly or enqueues an outbound Send,
// which the transport itself treats as fire-and-forget (§5).
func (e *Engine) handleTransportEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventBootstrapFinished:
		e.log.Info("bootstrap finished")

	case transport.EventOnConnect:
		e.onConnect(ev.Result, ev.Token, ev.Conn)

	case transport.EventOnAccept:
		e.onAccept(ev.Endpoint, ev.Conn)

	case transport.EventNewMessage:
		e.onNewMessage(ev.Conn, ev.Payload)

	case transport.EventLostConnection:
		e.onLostConnection(ev.Conn)

	case transport.EventExternalEndpoints:
		// Supplemented feature (§9 "External endpoints"): record rather
		// than just log, so sendEndpoints (relocate.go) can include them.
		e.externalEndpoints = append(e.externalEndpoints, ev.Endpoints...)
		e.log.Debug("recorded external endpoints", logger.Int("count", len(ev.Endpoints)))
	}
}

// onConnect handles a completed outbound Connect (§4.6): on success
// from Disconnected, we move to Bootstrapping and announce ourselves
// to the new peer as a client.
func (e *Engine) onConnect(result bool, token string, conn transport.ConnID) {
	if !result {
		e.log.Warn("connect attempt failed", logger.String("token", token))
		if e.state == Disconnected || e.state == Bootstrapping {
			e.retryBootstrapWithBlacklist(token)
		}
		return
	}

	if e.state != Disconnected {
		// A connect completing outside of bootstrap (e.g. relocation's
		// R6/R7 peer dial) is handled by its own caller; nothing to do here.
		return
	}

	e.transitionTo(Bootstrapping)

	dm := &message.DirectMessage{Kind: message.DirectClientIdentify, PublicId: e.id.PublicId()}
	if err := e.sendDirect(conn, dm); err != nil {
		e.log.Error("failed to send ClientIdentify", logger.Error(err))
		return
	}
	e.proxies[conn] = proxyEntry{conn: conn}
}

// onAccept handles an inbound connection (§4.6 E5 "first in network"):
// if we are Disconnected with no prior outbound connect, we are the
// very first participant and self-relocate to H(old_name) per §4.11/E5.
func (e *Engine) onAccept(ep transport.Endpoint, conn transport.ConnID) {
	e.log.Debug("accepted connection", logger.String("endpoint", string(ep)))

	if e.state == Disconnected {
		old := e.id.Name()
		newName := xorname.Hash(old[:])
		if err := e.setSelfName(newName); err != nil {
			e.log.Error("first-in-network self-relocation failed", logger.Error(err))
			return
		}
		e.transitionTo(Node)
	}
}

// onLostConnection handles a dropped connection (§4.10, C10): proxy,
// client, and routing-table bookkeeping all key off the connection
// handle via the routing table's name<->conn side-map (Design Notes'
// "cyclic graph" resolution).
func (e *Engine) onLostConnection(conn transport.ConnID) {
	if p, ok := e.proxies[conn]; ok {
		delete(e.proxies, conn)
		e.log.Info("lost proxy connection", logger.String("proxy", p.publicId.Name.String()))
		if e.state == Client {
			e.transitionTo(Disconnected)
		}
	}

	for key, c := range e.clients {
		if c.conn == conn {
			delete(e.clients, key)
		}
	}

	name, had := e.table.DropConnection(routingtableConnID(conn))
	if had {
		lost := name
		metrics.ChurnEvents.WithLabelValues("lost").Inc()
		e.emitEvent(Event{Kind: EventChurn, ChurnID: name, LostCloseNode: &lost})
	}
}

// onNewMessage decodes an inbound wire payload and dispatches it by
// concrete type: DirectMessages drive the bootstrap handshake (not yet
// subject to I1/I2, since the peer's key may not be known yet);
// HopMessages flow through the full forwarding pipeline (forward.go).
func (e *Engine) onNewMessage(conn transport.ConnID, payload []byte) {
	decoded, err := codec.DecodeMessage(payload)
	if err != nil {
		e.log.Warn("failed to decode message", logger.Error(err))
		return
	}

	switch m := decoded.(type) {
	case *message.DirectMessage:
		e.handleDirectMessage(conn, m)
	case *message.HopMessage:
		if err := e.route(conn, *m); err != nil {
			e.log.Debug("message not actioned", logger.Error(err))
		}
	default:
		e.log.Warn("unknown decoded message type")
	}
}

func hexKey(pub []byte) string { return hex.EncodeToString(pub) }
