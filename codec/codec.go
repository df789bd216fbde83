// Package codec serialises the two message types that cross the wire
// — HopMessage and DirectMessage — plus identity.PublicId on its own,
// for contexts (e.g. the ExpectCloseNode cache) that only need the
// identity payload.
//
// encoding/gob is the one deliberate standard-library dependency in
// this module: the corpus has no dedicated binary-codec library
// outside protobuf, and protobuf here is tied to the teacher's
// A2A/gRPC handshake surface, which this spec's transport explicitly
// treats as out of scope (see DESIGN.md).
package codec

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/message"
)

// ErrSerialisation wraps every encode/decode failure this package returns.
var ErrSerialisation = errors.New("codec: serialisation failed")

// messageKind tags which concrete type follows on the wire.
type messageKind byte

const (
	kindHop messageKind = iota + 1
	kindDirect
)

func init() {
	// Register every concrete Content variant so gob can encode the
	// RequestContent/ResponseContent interface fields inside RoutingMessage.
	gob.Register(message.GetNetworkName{})
	gob.Register(message.ExpectCloseNode{})
	gob.Register(message.GetCloseGroup{})
	gob.Register(message.Endpoints{})
	gob.Register(message.Connect{})
	gob.Register(message.GetPublicId{})
	gob.Register(message.GetPublicIdWithEndpoints{})
	gob.Register(message.Get{})
	gob.Register(message.Put{})
	gob.Register(message.Post{})
	gob.Register(message.Delete{})
	gob.Register(message.Refresh{})

	gob.Register(message.GetNetworkNameSuccess{})
	gob.Register(message.GetNetworkNameFailure{})
	gob.Register(message.ExpectCloseNodeSuccess{})
	gob.Register(message.ExpectCloseNodeFailure{})
	gob.Register(message.GetCloseGroupSuccess{})
	gob.Register(message.GetCloseGroupFailure{})
	gob.Register(message.ConnectSuccess{})
	gob.Register(message.ConnectFailure{})
	gob.Register(message.GetPublicIdSuccess{})
	gob.Register(message.GetPublicIdFailure{})
	gob.Register(message.GetPublicIdWithEndpointsSuccess{})
	gob.Register(message.GetPublicIdWithEndpointsFailure{})
	gob.Register(message.GetSuccess{})
	gob.Register(message.GetFailure{})
	gob.Register(message.PutSuccess{})
	gob.Register(message.PutFailure{})
	gob.Register(message.PostSuccess{})
	gob.Register(message.PostFailure{})
	gob.Register(message.DeleteSuccess{})
	gob.Register(message.DeleteFailure{})
}

// Message is the union of wire-level message types EncodeMessage/
// DecodeMessage accept: *message.HopMessage or *message.DirectMessage.
type Message = any

// wire is the envelope gob actually encodes: a kind tag plus the union
// of possible payloads (gob omits zero-valued fields, so only one of
// Hop/Direct is ever non-zero).
type wire struct {
	Kind   messageKind
	Hop    *message.HopMessage
	Direct *message.DirectMessage
}

// EncodeMessage serialises m, tagging it by concrete type so
// DecodeMessage can recover it without external type information.
func EncodeMessage(m Message) ([]byte, error) {
	w := wire{}
	switch v := m.(type) {
	case *message.HopMessage:
		w.Kind = kindHop
		w.Hop = v
	case *message.DirectMessage:
		w.Kind = kindDirect
		w.Direct = v
	default:
		return nil, fmt.Errorf("%w: unknown message type %T", ErrSerialisation, m)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialisation, err)
	}
	return buf.Bytes(), nil
}

// DecodeMessage deserialises b into the concrete Message it encodes.
func DecodeMessage(b []byte) (Message, error) {
	var w wire
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialisation, err)
	}
	switch w.Kind {
	case kindHop:
		if w.Hop == nil {
			return nil, fmt.Errorf("%w: missing hop payload", ErrSerialisation)
		}
		return w.Hop, nil
	case kindDirect:
		if w.Direct == nil {
			return nil, fmt.Errorf("%w: missing direct payload", ErrSerialisation)
		}
		return w.Direct, nil
	default:
		return nil, fmt.Errorf("%w: unknown wire kind %d", ErrSerialisation, w.Kind)
	}
}

// EncodePublicId serialises a PublicId on its own, e.g. for storage in
// the ExpectCloseNode cache.
func EncodePublicId(p identity.PublicId) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialisation, err)
	}
	return buf.Bytes(), nil
}

// DecodePublicId deserialises a PublicId encoded by EncodePublicId.
func DecodePublicId(b []byte) (identity.PublicId, error) {
	var p identity.PublicId
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&p); err != nil {
		return identity.PublicId{}, fmt.Errorf("%w: %v", ErrSerialisation, err)
	}
	return p, nil
}
