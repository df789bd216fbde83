// Package message defines the routing engine's wire-level message
// types: the request/response content variants, the signed and
// hop-wrapped envelopes that carry them, and the direct (handshake)
// messages exchanged outside the signed-message protocol.
//
// The content variants form a closed set, modeled the way the teacher
// models its ControlHeader-over-struct message types: a small sealed
// interface with a Kind() discriminator, implemented by one struct per
// variant, rather than a giant tagged union struct with unused fields.
package message

import (
	"github.com/google/uuid"

	"github.com/adrianbrink/routing/xorname"
)

// RequestContent is implemented by every request-side content variant.
type RequestContent interface {
	Kind() string
	isRequest()
}

// ResponseContent is implemented by every response-side content variant.
type ResponseContent interface {
	Kind() string
	isResponse()
}

// Request content kinds.
const (
	KindGetNetworkName          = "GetNetworkName"
	KindExpectCloseNode         = "ExpectCloseNode"
	KindGetCloseGroup           = "GetCloseGroup"
	KindEndpoints               = "Endpoints"
	KindConnect                 = "Connect"
	KindGetPublicId             = "GetPublicId"
	KindGetPublicIdWithEndpoints = "GetPublicIdWithEndpoints"
	KindGet                     = "Get"
	KindPut                     = "Put"
	KindPost                    = "Post"
	KindDelete                  = "Delete"
	KindRefresh                 = "Refresh"
)

// GetNetworkName is sent by a client/joining node to its proxy asking
// to be relocated into the network (R1).
type GetNetworkName struct {
	CandidateId PublicIdentity
}

func (GetNetworkName) Kind() string { return KindGetNetworkName }
func (GetNetworkName) isRequest()    {}

// ExpectCloseNode notifies a member of the future close group that a
// relocated node is about to join (R2).
type ExpectCloseNode struct {
	RelocatedId PublicIdentity
}

func (ExpectCloseNode) Kind() string { return KindExpectCloseNode }
func (ExpectCloseNode) isRequest()    {}

// GetCloseGroup asks a node to report the PublicIds of its close group (R4).
type GetCloseGroup struct{}

func (GetCloseGroup) Kind() string { return KindGetCloseGroup }
func (GetCloseGroup) isRequest()    {}

// Endpoints exchanges externally-reachable endpoints between a
// relocated node and a member of its new close group (R5).
type Endpoints struct {
	Endpoints []string
}

func (Endpoints) Kind() string { return KindEndpoints }
func (Endpoints) isRequest()    {}

// Connect requests a direct connection to the sender's endpoints.
// Token correlates this request with its ConnectSuccess/ConnectFailure
// response across the asynchronous dial; callers that don't need
// correlation may leave it as the zero UUID.
type Connect struct {
	Endpoints []string
	Token     uuid.UUID
}

func (Connect) Kind() string { return KindConnect }
func (Connect) isRequest()    {}

// GetPublicId requests the PublicId of a named node.
type GetPublicId struct{}

func (GetPublicId) Kind() string { return KindGetPublicId }
func (GetPublicId) isRequest()    {}

// GetPublicIdWithEndpoints requests a PublicId plus connection endpoints.
type GetPublicIdWithEndpoints struct{}

func (GetPublicIdWithEndpoints) Kind() string { return KindGetPublicIdWithEndpoints }
func (GetPublicIdWithEndpoints) isRequest()    {}

// Get requests the immutable data stored at Name.
type Get struct {
	Name xorname.Name
}

func (Get) Kind() string { return KindGet }
func (Get) isRequest()    {}

// Put stores immutable Data at its content-addressed name.
type Put struct {
	Data []byte
}

func (Put) Kind() string { return KindPut }
func (Put) isRequest()    {}

// Post is an application-defined mutate-in-place request.
type Post struct {
	Name xorname.Name
	Data []byte
}

func (Post) Kind() string { return KindPost }
func (Post) isRequest()    {}

// Delete removes data stored at Name.
type Delete struct {
	Name xorname.Name
}

func (Delete) Kind() string { return KindDelete }
func (Delete) isRequest()    {}

// Refresh is a periodic group-state reconciliation message.
type Refresh struct {
	Data []byte
}

func (Refresh) Kind() string { return KindRefresh }
func (Refresh) isRequest()    {}

// PublicIdentity is the over-the-wire representation of identity.PublicId.
type PublicIdentity struct {
	Name       xorname.Name
	SigningKey []byte
	EncryptKey [32]byte
}

// Response content kinds mirror their request counterparts with a
// Success/Failure suffix.
const (
	KindGetNetworkNameSuccess          = "GetNetworkNameSuccess"
	KindGetNetworkNameFailure          = "GetNetworkNameFailure"
	KindExpectCloseNodeSuccess         = "ExpectCloseNodeSuccess"
	KindExpectCloseNodeFailure         = "ExpectCloseNodeFailure"
	KindGetCloseGroupSuccess           = "GetCloseGroupSuccess"
	KindGetCloseGroupFailure           = "GetCloseGroupFailure"
	KindConnectSuccess                 = "ConnectSuccess"
	KindConnectFailure                 = "ConnectFailure"
	KindGetPublicIdSuccess             = "GetPublicIdSuccess"
	KindGetPublicIdFailure             = "GetPublicIdFailure"
	KindGetPublicIdWithEndpointsSuccess = "GetPublicIdWithEndpointsSuccess"
	KindGetPublicIdWithEndpointsFailure = "GetPublicIdWithEndpointsFailure"
	KindGetSuccess                     = "GetSuccess"
	KindGetFailure                     = "GetFailure"
	KindPutSuccess                     = "PutSuccess"
	KindPutFailure                     = "PutFailure"
	KindPostSuccess                    = "PostSuccess"
	KindPostFailure                    = "PostFailure"
	KindDeleteSuccess                  = "DeleteSuccess"
	KindDeleteFailure                  = "DeleteFailure"
)

// GetNetworkNameSuccess carries the network-chosen relocated identity
// back to the requester (R3).
type GetNetworkNameSuccess struct {
	RelocatedId PublicIdentity
}

func (GetNetworkNameSuccess) Kind() string { return KindGetNetworkNameSuccess }
func (GetNetworkNameSuccess) isResponse()    {}

// GetNetworkNameFailure reports that relocation could not proceed
// (e.g. RoutingTableEmpty, per utils.calculate_relocated_name).
type GetNetworkNameFailure struct {
	Reason string
}

func (GetNetworkNameFailure) Kind() string { return KindGetNetworkNameFailure }
func (GetNetworkNameFailure) isResponse()    {}

// ExpectCloseNodeSuccess acknowledges that a node has cached the
// expected relocated identity.
type ExpectCloseNodeSuccess struct{}

func (ExpectCloseNodeSuccess) Kind() string { return KindExpectCloseNodeSuccess }
func (ExpectCloseNodeSuccess) isResponse()    {}

// ExpectCloseNodeFailure reports a duplicate-name rejection
// (RejectedPublicId in the original).
type ExpectCloseNodeFailure struct {
	Reason string
}

func (ExpectCloseNodeFailure) Kind() string { return KindExpectCloseNodeFailure }
func (ExpectCloseNodeFailure) isResponse()    {}

// GetCloseGroupSuccess reports the responder's close group.
type GetCloseGroupSuccess struct {
	CloseGroup []PublicIdentity
}

func (GetCloseGroupSuccess) Kind() string { return KindGetCloseGroupSuccess }
func (GetCloseGroupSuccess) isResponse()    {}

// GetCloseGroupFailure reports that the close group could not be read.
type GetCloseGroupFailure struct {
	Reason string
}

func (GetCloseGroupFailure) Kind() string { return KindGetCloseGroupFailure }
func (GetCloseGroupFailure) isResponse()    {}

// ConnectSuccess/ConnectFailure report the outcome of a Connect request,
// echoing the Token of the request they answer.
type ConnectSuccess struct {
	Endpoints []string
	Token     uuid.UUID
}

func (ConnectSuccess) Kind() string { return KindConnectSuccess }
func (ConnectSuccess) isResponse()    {}

type ConnectFailure struct {
	Reason string
	Token  uuid.UUID
}

func (ConnectFailure) Kind() string { return KindConnectFailure }
func (ConnectFailure) isResponse()    {}

// GetPublicIdSuccess/Failure report a PublicId lookup outcome.
type GetPublicIdSuccess struct{ Id PublicIdentity }

func (GetPublicIdSuccess) Kind() string { return KindGetPublicIdSuccess }
func (GetPublicIdSuccess) isResponse()    {}

type GetPublicIdFailure struct{ Reason string }

func (GetPublicIdFailure) Kind() string { return KindGetPublicIdFailure }
func (GetPublicIdFailure) isResponse()    {}

// GetPublicIdWithEndpointsSuccess/Failure report a combined lookup outcome.
type GetPublicIdWithEndpointsSuccess struct {
	Id        PublicIdentity
	Endpoints []string
}

func (GetPublicIdWithEndpointsSuccess) Kind() string {
	return KindGetPublicIdWithEndpointsSuccess
}
func (GetPublicIdWithEndpointsSuccess) isResponse() {}

type GetPublicIdWithEndpointsFailure struct{ Reason string }

func (GetPublicIdWithEndpointsFailure) Kind() string {
	return KindGetPublicIdWithEndpointsFailure
}
func (GetPublicIdWithEndpointsFailure) isResponse() {}

// GetSuccess/Failure report a data-fetch outcome.
type GetSuccess struct {
	Name xorname.Name
	Data []byte
}

func (GetSuccess) Kind() string { return KindGetSuccess }
func (GetSuccess) isResponse()    {}

type GetFailure struct {
	Name   xorname.Name
	Reason string
}

func (GetFailure) Kind() string { return KindGetFailure }
func (GetFailure) isResponse()    {}

// PutSuccess/Failure report a data-store outcome.
type PutSuccess struct{ Name xorname.Name }

func (PutSuccess) Kind() string { return KindPutSuccess }
func (PutSuccess) isResponse()    {}

type PutFailure struct{ Reason string }

func (PutFailure) Kind() string { return KindPutFailure }
func (PutFailure) isResponse()    {}

// PostSuccess/Failure report a mutate-in-place outcome.
type PostSuccess struct{ Name xorname.Name }

func (PostSuccess) Kind() string { return KindPostSuccess }
func (PostSuccess) isResponse()    {}

type PostFailure struct{ Reason string }

func (PostFailure) Kind() string { return KindPostFailure }
func (PostFailure) isResponse()    {}

// DeleteSuccess/Failure report a delete outcome.
type DeleteSuccess struct{ Name xorname.Name }

func (DeleteSuccess) Kind() string { return KindDeleteSuccess }
func (DeleteSuccess) isResponse()    {}

type DeleteFailure struct{ Reason string }

func (DeleteFailure) Kind() string { return KindDeleteFailure }
func (DeleteFailure) isResponse()    {}
