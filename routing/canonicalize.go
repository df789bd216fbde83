package routing

import (
	"encoding/json"

	"github.com/adrianbrink/routing/message"
)

// canonicalizeRoutingMessage produces the byte string a SignedMessage's
// signature is computed over. JSON is used rather than the wire codec
// (codec.EncodeMessage encodes HopMessage/DirectMessage, not a bare
// RoutingMessage) because signing only ever needs a deterministic
// one-way encoding, never a decode.
func canonicalizeRoutingMessage(rm message.RoutingMessage) []byte {
	b, err := json.Marshal(rm)
	if err != nil {
		// RoutingMessage's Content variants are all plain exported
		// structs; a marshal failure here means a variant was built
		// wrong, not a runtime condition callers can recover from.
		panic(err)
	}
	return b
}

// canonicalizeSignedMessage produces the byte string a HopMessage's
// per-hop signature is computed over.
func canonicalizeSignedMessage(sm message.SignedMessage) []byte {
	b, err := json.Marshal(sm)
	if err != nil {
		panic(err)
	}
	return b
}
