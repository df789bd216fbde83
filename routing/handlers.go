package routing

import (
	"context"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

// dispatchTable maps a content Kind() to the handler that acts on it,
// per §4.8: a lookup table keyed on the wire discriminator, never a
// reflection-based switch. The distinct handlers are listed in this
// package-level literal; init() adds the many identical Post/Delete/
// Refresh and response entries so they don't have to be repeated by hand.
var dispatchTable = map[string]func(*Engine, message.SignedMessage){
	message.KindGetNetworkName: func(e *Engine, s message.SignedMessage) {
		e.handleGetNetworkName(s.Content.Src, s.Content.Dst, s.Content.Content.(message.GetNetworkName))
	},
	message.KindExpectCloseNode: func(e *Engine, s message.SignedMessage) {
		e.handleExpectCloseNode(s.Content.Dst, s.Content.Content.(message.ExpectCloseNode))
	},
	message.KindGetCloseGroup: func(e *Engine, s message.SignedMessage) {
		e.handleGetCloseGroup(s.Content.Src, s.Content.Dst)
	},
	message.KindGetCloseGroupSuccess: func(e *Engine, s message.SignedMessage) {
		e.handleGetCloseGroupResponse(s.Content.Content.(message.GetCloseGroupSuccess))
	},
	message.KindGetNetworkNameSuccess: func(e *Engine, s message.SignedMessage) {
		e.handleGetNetworkNameResponse(s.Content.Content.(message.GetNetworkNameSuccess))
	},
	message.KindEndpoints: func(e *Engine, s message.SignedMessage) {
		e.handleEndpoints(s.Content.Src, s.Content.Content.(message.Endpoints))
	},
	message.KindConnect: func(e *Engine, s message.SignedMessage) {
		e.handleConnect(s.Content.Src, s.Content.Dst, s.Content.Content.(message.Connect))
	},
	message.KindGetPublicId: func(e *Engine, s message.SignedMessage) {
		e.handleGetPublicId(s.Content.Src, s.Content.Dst)
	},
	message.KindGetPublicIdWithEndpoints: func(e *Engine, s message.SignedMessage) {
		e.handleGetPublicIdWithEndpoints(s.Content.Src, s.Content.Dst)
	},
	message.KindGet: func(e *Engine, s message.SignedMessage) {
		e.handleGet(s.Content.Src, s.Content.Dst, s.Content.Content.(message.Get))
	},
	message.KindPut: func(e *Engine, s message.SignedMessage) {
		e.handlePut(s.Content.Src, s.Content.Dst, s.Content.Content.(message.Put))
	},
	message.KindGetSuccess: func(e *Engine, s message.SignedMessage) {
		e.handleGetSuccess(s.Content.Src, s.Content.Dst, s.Content.Content.(message.GetSuccess))
	},
}

func init() {
	// Post, Delete, and Refresh have no local-state meaning to the
	// routing layer itself (§4.9): they surface as EventRequest for the
	// application above to act on and reply to via NodeSendMessage.
	for _, kind := range []string{message.KindPost, message.KindDelete, message.KindRefresh} {
		dispatchTable[kind] = emitRequestEvent
	}

	// Every response kind not given a specific handler above simply
	// surfaces as EventResponse for the application to observe.
	for _, kind := range []string{
		message.KindGetNetworkNameFailure,
		message.KindExpectCloseNodeSuccess, message.KindExpectCloseNodeFailure,
		message.KindGetCloseGroupFailure,
		message.KindConnectSuccess, message.KindConnectFailure,
		message.KindGetPublicIdSuccess, message.KindGetPublicIdFailure,
		message.KindGetPublicIdWithEndpointsSuccess, message.KindGetPublicIdWithEndpointsFailure,
		message.KindGetFailure,
		message.KindPutSuccess, message.KindPutFailure,
		message.KindPostSuccess, message.KindPostFailure,
		message.KindDeleteSuccess, message.KindDeleteFailure,
	} {
		dispatchTable[kind] = emitResponseEvent
	}
}

// dispatchLocal looks up signed's content kind in dispatchTable and
// runs its handler, warning if no handler is registered — which would
// indicate a content variant added to message.Content without a
// matching dispatch entry.
func (e *Engine) dispatchLocal(signed message.SignedMessage) {
	fn, ok := dispatchTable[signed.Content.Content.Kind()]
	if !ok {
		e.log.Warn("no handler registered for content kind", logger.String("kind", signed.Content.Content.Kind()))
		return
	}
	fn(e, signed)
}

func emitRequestEvent(e *Engine, s message.SignedMessage) {
	req, ok := s.Content.Content.(message.RequestContent)
	if !ok {
		return
	}
	e.emitEvent(Event{Kind: EventRequest, Src: s.Content.Src, Dst: s.Content.Dst, Request: req})
}

func emitResponseEvent(e *Engine, s message.SignedMessage) {
	resp, ok := s.Content.Content.(message.ResponseContent)
	if !ok {
		return
	}
	e.emitEvent(Event{Kind: EventResponse, Src: s.Content.Src, Dst: s.Content.Dst, Response: resp})
}

// handleGet serves Get requests from the data cache when we already
// hold the content; otherwise it surfaces as an EventRequest for the
// application to fetch and reply to out-of-band.
func (e *Engine) handleGet(src, dst identity.Authority, req message.Get) {
	if data, ok := e.dataCache.Get(req.Name); ok {
		_ = e.sendRoutingMessage(dst, src, message.GetSuccess{Name: req.Name, Data: data})
		return
	}
	e.emitEvent(Event{Kind: EventRequest, Src: src, Dst: dst, Request: req})
}

// handlePut caches the immutable data at its content address and
// surfaces the request upward, mirroring the original's "cache then
// notify" handling of immutable data puts.
func (e *Engine) handlePut(src, dst identity.Authority, req message.Put) {
	name := xorname.Hash(req.Data)
	e.dataCache.Insert(name, req.Data)
	e.emitEvent(Event{Kind: EventRequest, Src: src, Dst: dst, Request: req})
}

// handleGetSuccess caches a data fetch's result at its content address as
// it transits back to the requester (§4.7 step 6 "cache on the way
// through"), in addition to surfacing it as an EventResponse, so a later
// Get for the same Name can be served locally without another round trip.
func (e *Engine) handleGetSuccess(src, dst identity.Authority, resp message.GetSuccess) {
	e.dataCache.Insert(resp.Name, resp.Data)
	e.emitEvent(Event{Kind: EventResponse, Src: src, Dst: dst, Response: resp})
}

// handleConnect answers a direct-connection request (§4.8
// Connect|ManagedNode|ManagedNode). If we already hold src's identity —
// in our routing table or identityCache — we dial its advertised
// endpoints in the background and report the outcome once it lands back
// on the engine's own goroutine via connectDialResult; dialing happens
// off the dispatch loop so a slow or hanging peer can't stall routing
// for everyone else, and connectGroup collapses a second handleConnect
// for the same target name arriving before the first dial finishes into
// the one in-flight attempt. Otherwise we don't yet trust who src is, so
// rather than dialing endpoints an unverified sender handed us, we ask
// its NodeManager group for its PublicId first (mirroring
// handle_connect_request's node_id_cache branch in core.rs:1425-1454).
func (e *Engine) handleConnect(src, dst identity.Authority, req message.Connect) {
	name := src.TargetName()
	if _, _, ok := e.table.Get(name); !ok {
		if _, ok := e.identityCache.Get(name); !ok {
			_ = e.sendRoutingMessage(identity.NewManagedNodeAuthority(e.self), identity.NewNodeManagerAuthority(name), message.GetPublicId{})
			return
		}
	}

	endpoints := make([]transport.Endpoint, len(req.Endpoints))
	for i, s := range req.Endpoints {
		endpoints[i] = transport.Endpoint(s)
	}
	target := name.String()

	go func() {
		_, err, _ := e.connectGroup.Do(target, func() (interface{}, error) {
			return nil, e.trans.Connect(context.Background(), target, endpoints)
		})
		e.actionC <- connectDialResult{src: src, dst: dst, token: req.Token, err: err}
	}()
}

// handleGetPublicId answers a bare identity lookup.
func (e *Engine) handleGetPublicId(src, dst identity.Authority) {
	_ = e.sendRoutingMessage(dst, src, message.GetPublicIdSuccess{Id: toWirePublicIdentity(e.id.PublicId())})
}

// handleGetPublicIdWithEndpoints answers an identity-plus-endpoints
// lookup, used by callers that want to connect directly afterwards.
func (e *Engine) handleGetPublicIdWithEndpoints(src, dst identity.Authority) {
	_ = e.sendRoutingMessage(dst, src, message.GetPublicIdWithEndpointsSuccess{
		Id:        toWirePublicIdentity(e.id.PublicId()),
		Endpoints: e.endpointStrings(),
	})
}

func (e *Engine) endpointStrings() []string {
	out := make([]string, len(e.externalEndpoints))
	for i, ep := range e.externalEndpoints {
		out[i] = string(ep)
	}
	return out
}

// handleAction implements the user-facing side of the engine (§6):
// every Action but Terminate (handled inline by Run) is processed here.
func (e *Engine) handleAction(act Action) {
	switch a := act.(type) {
	case NodeSendMessage:
		err := e.sendRoutingMessage(identity.NewManagedNodeAuthority(e.self), a.Dst, a.Content)
		a.ResultC <- ActionResult{Err: err}

	case ClientSendRequest:
		if len(e.proxies) == 0 {
			a.ResultC <- ActionResult{Err: ErrNotConnected}
			return
		}
		pub := e.id.PublicId()
		src := identity.NewClientAuthority(xorname.Hash(pub.SigningKey), e.proxyName())
		err := e.sendRoutingMessage(src, a.Dst, a.Content)
		a.ResultC <- ActionResult{Err: err}

	case CloseGroup:
		group := e.table.OurCloseGroup()
		names := make([]xorname.Name, len(group))
		for i, p := range group {
			names[i] = p.Name
		}
		a.ResultC <- ActionResult{Names: names}

	case Name:
		a.ResultC <- ActionResult{Name: e.self}

	case connectDialResult:
		if a.err != nil {
			_ = e.sendRoutingMessage(a.dst, a.src, message.ConnectFailure{Reason: a.err.Error(), Token: a.token})
			return
		}
		_ = e.sendRoutingMessage(a.dst, a.src, message.ConnectSuccess{Endpoints: e.endpointStrings(), Token: a.token})
	}
}
