// Package routingtable holds the k-bucket routing table a Node
// consults to decide who is "close enough" to own a name, who its
// current close group is, and which connections carry traffic for a
// given destination authority.
package routingtable

import (
	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/xorname"
)

// ConnID identifies a transport-layer connection, opaque to this package.
type ConnID uint64

// NodeInfo is what the table stores per known peer.
type NodeInfo struct {
	PublicId identity.PublicId
	Conn     ConnID
}

// Table is the routing table contract the engine depends on. The
// concrete implementation is KBucketTable; tests may substitute a
// simpler fake.
type Table interface {
	// Get returns the PublicId and connections known for name.
	Get(name xorname.Name) (identity.PublicId, []ConnID, bool)
	// AddNode inserts or updates a peer. inserted reports whether a new
	// bucket slot was consumed; evicted is the PublicId bumped out to
	// make room, if any.
	AddNode(info NodeInfo) (inserted bool, evicted *identity.PublicId)
	// AddConnection records an additional connection for an existing name.
	AddConnection(name xorname.Name, conn ConnID) bool
	// DropConnection removes conn, reporting which name it belonged to
	// and whether conn was known at all. The name itself is removed from
	// the table only when its last connection goes.
	DropConnection(conn ConnID) (name xorname.Name, hadName bool)
	// IsClose reports whether name falls within this table's close group.
	IsClose(name xorname.Name) bool
	// WantToAdd reports whether name's bucket has room or name already
	// falls within our close group (IsClose) — the admission check
	// driving admission control. It never evicts a peer to make room.
	WantToAdd(name xorname.Name) bool
	// OurCloseGroup returns the GroupSize nodes closest to self.
	OurCloseGroup() []identity.PublicId
	// TargetNodes returns the connections a message to dst should be
	// forwarded across: a single node for ManagedNode/Client, the whole
	// close group for NodeManager/NaeManager.
	TargetNodes(dst identity.Authority) []identity.PublicId
	// DynamicQuorumSize returns n/2+1 in integer division, where n is
	// min(GroupSize, Len()), so it shrinks while the table holds fewer
	// than GroupSize peers.
	DynamicQuorumSize() int
	// Len returns the total number of known peers.
	Len() int
}
