// Package transport abstracts the routing engine away from any
// specific network transport, the way the teacher's transport package
// keeps its security layer independent of gRPC/HTTP/WebSocket.
package transport

import "context"

// Endpoint is a dialable network address (host:port).
type Endpoint string

// ConnID identifies a live connection, shared with routingtable.ConnID
// by convention (both are opaque uint64s assigned by the transport).
type ConnID uint64

// Transport is the network abstraction the routing engine drives.
// Every method either returns promptly or is asynchronous via Events.
type Transport interface {
	// Bootstrap attempts to join the network through a known contact,
	// identified by token, optionally also searching the local subnet
	// via UDP beacon on beaconPort.
	Bootstrap(ctx context.Context, token string, beaconPort *int) error
	// StopBootstrap cancels an in-flight Bootstrap.
	StopBootstrap()
	// StartBeacon begins answering local-subnet discovery beacons on port.
	StartBeacon(port int) error
	// StartAccepting begins accepting inbound connections on port,
	// returning the endpoint other nodes should dial.
	StartAccepting(port int) (Endpoint, error)
	// Connect dials the given endpoints, associating the resulting
	// connection(s) with token once established.
	Connect(ctx context.Context, token string, endpoints []Endpoint) error
	// Send transmits b over an established connection.
	Send(conn ConnID, b []byte) error
	// DropNode closes conn.
	DropNode(conn ConnID) error
	// GetExternalEndpoints returns endpoints this node has been told it
	// is externally reachable on (§9 "External endpoints").
	GetExternalEndpoints() []Endpoint
	// Events delivers transport-level occurrences to the routing engine.
	Events() <-chan Event
}

// EventKind discriminates the Event sum type.
type EventKind string

const (
	EventBootstrapFinished  EventKind = "BootstrapFinished"
	EventOnConnect          EventKind = "OnConnect"
	EventOnAccept           EventKind = "OnAccept"
	EventNewMessage         EventKind = "NewMessage"
	EventLostConnection     EventKind = "LostConnection"
	EventExternalEndpoints  EventKind = "ExternalEndpoints"
)

// Event is a single transport occurrence delivered to the routing
// engine's dispatcher loop.
type Event struct {
	Kind EventKind

	// OnConnect
	Result bool
	Token  string

	// OnAccept
	Endpoint Endpoint

	// OnConnect, OnAccept, NewMessage, LostConnection
	Conn ConnID

	// NewMessage
	Payload []byte

	// ExternalEndpoints
	Endpoints []Endpoint
}
