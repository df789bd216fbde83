package routing

import (
	"github.com/google/uuid"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/message"
	"github.com/adrianbrink/routing/xorname"
)

// Action is a request enqueued by the user-facing layer onto the
// engine's action channel (§6 "user-facing interface"). Each Action
// carries its own completion channel so the caller can await a result
// without blocking the dispatcher loop.
type Action interface {
	isAction()
}

// ActionResult is returned on an Action's completion channel.
type ActionResult struct {
	Err        error
	Names      []xorname.Name // CloseGroup
	Name       xorname.Name   // Name
}

// NodeSendMessage asks the engine to sign Content with our identity
// and forward it as dst requires.
type NodeSendMessage struct {
	Dst     identity.Authority
	Content message.Content
	ResultC chan ActionResult
}

func (NodeSendMessage) isAction() {}

// ClientSendRequest asks the engine to wrap Content as a Client-sourced
// request and send it via our proxy. Fails with ErrNotConnected if we
// have no proxy.
type ClientSendRequest struct {
	Dst     identity.Authority
	Content message.RequestContent
	ResultC chan ActionResult
}

func (ClientSendRequest) isAction() {}

// CloseGroup asks for the current close-group member names.
type CloseGroup struct {
	ResultC chan ActionResult
}

func (CloseGroup) isAction() {}

// Name asks for our current routing name.
type Name struct {
	ResultC chan ActionResult
}

func (Name) isAction() {}

// Terminate stops the dispatcher loop.
type Terminate struct{}

func (Terminate) isAction() {}

// connectDialResult is posted back onto the engine's own action channel
// by the background dial goroutine handleConnect spawns, so the result
// of a Connect request is only ever applied on the single goroutine
// that owns engine state.
type connectDialResult struct {
	src, dst identity.Authority
	token    uuid.UUID
	err      error
}

func (connectDialResult) isAction() {}

// EventKind discriminates the Event sum type emitted upward to the user.
type EventKind string

const (
	EventConnected EventKind = "Connected"
	EventChurn     EventKind = "Churn"
	EventRequest   EventKind = "Request"
	EventResponse  EventKind = "Response"
)

// Event is delivered to the user-facing layer via the engine's event
// channel (§6 "Events emitted upward").
type Event struct {
	Kind EventKind

	// EventChurn
	ChurnID       xorname.Name
	LostCloseNode *xorname.Name

	// EventRequest / EventResponse
	Src     identity.Authority
	Dst     identity.Authority
	Request message.RequestContent
	Response message.ResponseContent
}
