package routing

import (
	"context"
	"crypto/ecdh"
	"strings"
	"time"

	routingcrypto "github.com/adrianbrink/routing/crypto"
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/internal/metrics"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/routingtable"
	"github.com/adrianbrink/routing/transport"
	"github.com/adrianbrink/routing/xorname"
)

// setSelfName implements the one-shot §4.11 self-rename: it asserts
// newName differs from H(signing pub) (via FullId.Relocate, I6),
// replaces the routing table with a fresh one anchored at newName, and
// mutates the public id's name.
func (e *Engine) setSelfName(newName xorname.Name) error {
	if err := e.id.Relocate(newName); err != nil {
		return err
	}
	e.self = newName
	e.table = routingtable.NewTable(newName, e.cfg.GroupSize)
	return nil
}

// calculateRelocatedName implements R1's relocated-name derivation:
// H(original ‖ k1 ‖ k2) where k1, k2 are the two closeNodes entries
// strictly closest to original (already expected sorted ascending by
// the caller); H(original ‖ k1) if only one is available. Returns
// ErrRoutingTableEmpty if closeNodes is empty (testable property 4).
func calculateRelocatedName(original xorname.Name, closeNodes []xorname.Name) (xorname.Name, error) {
	switch len(closeNodes) {
	case 0:
		return xorname.Zero, ErrRoutingTableEmpty
	case 1:
		return xorname.Hash(original[:], closeNodes[0][:]), nil
	default:
		return xorname.Hash(original[:], closeNodes[0][:], closeNodes[1][:]), nil
	}
}

// beginRelocation sends GetNetworkName to X = NaeManager(H(client_key))
// via our proxy, kicking off R1.
func (e *Engine) beginRelocation(conn transport.ConnID) {
	pub := e.id.PublicId()
	clientKey := xorname.Hash(pub.SigningKey)
	src := identity.NewClientAuthority(clientKey, e.proxies[conn].publicId.Name)
	dst := identity.NewNaeManagerAuthority(clientKey)

	e.relocationStart = time.Now()
	content := message.GetNetworkName{CandidateId: toWirePublicIdentity(pub)}
	if err := e.sendRoutingMessage(src, dst, content); err != nil {
		e.log.Error("failed to send GetNetworkName", logger.Error(err))
	}
}

// handleGetNetworkName implements R1 at a NaeManager member: compute
// the relocated name from our close group's distance ordering to the
// original name, reply to the client, and notify the new close group.
func (e *Engine) handleGetNetworkName(src, dst identity.Authority, req message.GetNetworkName) {
	if dst.Name != src.ClientKey {
		_ = e.sendRoutingMessage(identity.NewNaeManagerAuthority(dst.Name), src,
			message.GetNetworkNameFailure{Reason: "invalid destination"})
		return
	}

	original := req.CandidateId.Name
	closeGroup := e.table.OurCloseGroup()
	candidates := make([]xorname.Name, 0, len(closeGroup))
	for _, p := range closeGroup {
		if xorname.CloserTo(p.Name, original, original) {
			continue
		}
		candidates = append(candidates, p.Name)
	}
	candidates = xorname.ClosestN(original, candidates, 2)

	relocatedName, err := calculateRelocatedName(original, candidates)
	if err != nil {
		_ = e.sendRoutingMessage(identity.NewNaeManagerAuthority(dst.Name), src,
			message.GetNetworkNameFailure{Reason: err.Error()})
		return
	}

	relocated := req.CandidateId
	relocated.Name = relocatedName

	_ = e.sendRoutingMessage(identity.NewNaeManagerAuthority(dst.Name), src,
		message.GetNetworkNameSuccess{RelocatedId: relocated})

	_ = e.sendRoutingMessage(identity.NewNaeManagerAuthority(dst.Name), identity.NewNodeManagerAuthority(relocatedName),
		message.ExpectCloseNode{RelocatedId: relocated})
}

// handleExpectCloseNode implements R2: cache the expected relocated
// identity so the eventual NodeIdentify/connect handshake (R6/R7) can
// be validated against it. A duplicate insertion for the same name is
// refused (RejectedPublicId).
func (e *Engine) handleExpectCloseNode(dst identity.Authority, req message.ExpectCloseNode) {
	name := req.RelocatedId.Name
	if _, ok := e.identityCache.Get(name); ok {
		e.log.Warn("rejected duplicate ExpectCloseNode", logger.String("name", name.String()))
		return
	}
	e.identityCache.Insert(name, fromWirePublicIdentity(req.RelocatedId))
}

// handleGetNetworkNameResponse implements R3 at the joining node: adopt
// the network-chosen name and ask our new close group who they are.
func (e *Engine) handleGetNetworkNameResponse(resp message.GetNetworkNameSuccess) {
	if err := e.setSelfName(resp.RelocatedId.Name); err != nil {
		e.log.Error("relocation self-rename failed", logger.Error(err))
		return
	}

	pub := e.id.PublicId()
	src := identity.NewClientAuthority(xorname.Hash(pub.SigningKey), e.proxyName())
	dst := identity.NewNodeManagerAuthority(e.self)
	if err := e.sendRoutingMessage(src, dst, message.GetCloseGroup{}); err != nil {
		e.log.Error("failed to send GetCloseGroup", logger.Error(err))
	}
}

// handleGetCloseGroup implements R4: answer with our close group plus self.
func (e *Engine) handleGetCloseGroup(src, dst identity.Authority) {
	group := e.table.OurCloseGroup()
	ids := make([]message.PublicIdentity, 0, len(group)+1)
	for _, p := range group {
		ids = append(ids, toWirePublicIdentity(p))
	}
	ids = append(ids, toWirePublicIdentity(e.id.PublicId()))

	_ = e.sendRoutingMessage(identity.NewNodeManagerAuthority(dst.Name), src,
		message.GetCloseGroupSuccess{CloseGroup: ids})
}

// handleGetCloseGroupResponse implements R5 at the joining node: for
// each reported peer not yet cached, if we want to add them, send our
// encrypted endpoints.
func (e *Engine) handleGetCloseGroupResponse(resp message.GetCloseGroupSuccess) {
	for _, wireId := range resp.CloseGroup {
		pub := fromWirePublicIdentity(wireId)
		if pub.Name == e.self {
			continue
		}
		if _, cached := e.identityCache.Get(pub.Name); cached {
			continue
		}
		e.identityCache.Insert(pub.Name, pub)
		if !e.table.WantToAdd(pub.Name) {
			continue
		}
		e.sendEndpoints(pub)
	}
}

// sendEndpoints implements the encrypting half of R5/R6: seal our
// externally-reachable endpoints to peer's encryption key and send
// them as an Endpoints message addressed to peer by name.
func (e *Engine) sendEndpoints(peer identity.PublicId) {
	payload := encodeEndpoints(e.externalEndpoints)

	theirPub, err := ecdh.X25519().NewPublicKey(peer.EncryptKey[:])
	if err != nil {
		e.log.Error("invalid peer encryption key", logger.Error(err))
		return
	}
	sealed, err := routingcrypto.BoxSeal(payload, []byte("routing-endpoints-v1"), theirPub)
	if err != nil {
		e.log.Error("failed to seal endpoints", logger.Error(err))
		return
	}

	src := identity.NewManagedNodeAuthority(e.self)
	dst := identity.NewManagedNodeAuthority(peer.Name)
	_ = e.sendRoutingMessage(src, dst, message.Endpoints{Endpoints: []string{string(sealed)}})
}

// handleEndpoints implements R6 at a prospective peer: decrypt the
// sender's endpoints (validated against our own encryption key pair)
// and ask the transport to connect, replying with our own endpoints in
// turn (unless this is itself a reply, signalled by src already being
// in our routing table, or the table does not want to add src).
func (e *Engine) handleEndpoints(src identity.Authority, req message.Endpoints) {
	pub, ok := e.identityCache.Get(src.Name)
	if !ok {
		e.log.Warn("Endpoints from unknown sender, dropping", logger.String("name", src.Name.String()))
		return
	}

	ourPriv, err := ecdh.X25519().NewPrivateKey(e.id.EncryptPriv[:])
	if err != nil {
		e.log.Error("invalid local encryption key", logger.Error(err))
		return
	}

	if len(req.Endpoints) == 0 {
		return
	}
	plaintext, err := routingcrypto.BoxOpen([]byte(req.Endpoints[0]), []byte("routing-endpoints-v1"), ourPriv)
	if err != nil {
		e.log.Warn("endpoint decryption failed", logger.Error(err))
		return
	}

	endpoints := decodeEndpoints(plaintext)
	if len(endpoints) == 0 {
		return
	}

	if err := e.trans.Connect(context.Background(), pub.Name.String(), endpoints); err != nil {
		e.log.Error("connect to peer endpoints failed", logger.Error(err))
		return
	}

	if _, _, known := e.table.Get(pub.Name); known || !e.table.WantToAdd(pub.Name) {
		return
	}
	e.sendEndpoints(pub)
}

func (e *Engine) proxyName() xorname.Name {
	for _, p := range e.proxies {
		return p.publicId.Name
	}
	return xorname.Zero
}

// encodeEndpoints/decodeEndpoints serialize our externally-reachable
// endpoints for the HPKE box in sendEndpoints/handleEndpoints.
func encodeEndpoints(eps []transport.Endpoint) []byte {
	strs := make([]string, len(eps))
	for i, e := range eps {
		strs[i] = string(e)
	}
	return []byte(strings.Join(strs, ","))
}

func decodeEndpoints(b []byte) []transport.Endpoint {
	if len(b) == 0 {
		return nil
	}
	parts := strings.Split(string(b), ",")
	out := make([]transport.Endpoint, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, transport.Endpoint(p))
		}
	}
	return out
}

// observeRelocationDuration records how long the relocation handshake
// took, called once R7 completes (bootstrap.go's handleNodeIdentify).
func (e *Engine) observeRelocationDuration() {
	if e.relocationStart.IsZero() {
		return
	}
	metrics.RelocationDuration.Observe(time.Since(e.relocationStart).Seconds())
	e.relocationStart = time.Time{}
}
