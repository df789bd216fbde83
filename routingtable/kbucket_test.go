package routingtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/xorname"
)

func fixturePublicId(seed string) identity.PublicId {
	name := xorname.Hash([]byte(seed))
	return identity.PublicId{Name: name, SigningKey: name[:32]}
}

func TestKBucketTable_AddAndGet(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 8)

	p := fixturePublicId("peer-1")
	inserted, evicted := table.AddNode(NodeInfo{PublicId: p, Conn: 1})
	assert.True(t, inserted)
	assert.Nil(t, evicted)

	got, conns, ok := table.Get(p.Name)
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, []ConnID{1}, conns)
}

func TestKBucketTable_AddConnection_MultiplePaths(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 8)

	p := fixturePublicId("peer-2")
	table.AddNode(NodeInfo{PublicId: p, Conn: 1})
	ok := table.AddConnection(p.Name, 2)
	require.True(t, ok)

	_, conns, _ := table.Get(p.Name)
	assert.ElementsMatch(t, []ConnID{1, 2}, conns)
}

func TestKBucketTable_AddConnection_UnknownNameFails(t *testing.T) {
	table := NewTable(xorname.Hash([]byte("self")), 8)
	ok := table.AddConnection(xorname.Hash([]byte("ghost")), 99)
	assert.False(t, ok)
}

func TestKBucketTable_DropConnection_RemovesNodeWhenLastConn(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 8)

	p := fixturePublicId("peer-3")
	table.AddNode(NodeInfo{PublicId: p, Conn: 1})

	name, ok := table.DropConnection(1)
	require.True(t, ok)
	assert.Equal(t, p.Name, name)

	_, _, found := table.Get(p.Name)
	assert.False(t, found)
}

func TestKBucketTable_DropConnection_KeepsNodeWithOtherConns(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 8)

	p := fixturePublicId("peer-4")
	table.AddNode(NodeInfo{PublicId: p, Conn: 1})
	table.AddConnection(p.Name, 2)

	table.DropConnection(1)

	_, conns, found := table.Get(p.Name)
	require.True(t, found)
	assert.Equal(t, []ConnID{2}, conns)
}

func TestKBucketTable_OurCloseGroup_BoundedByGroupSize(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 3)

	for i := 0; i < 10; i++ {
		table.AddNode(NodeInfo{PublicId: fixturePublicId(string(rune('a' + i))), Conn: ConnID(i)})
	}

	group := table.OurCloseGroup()
	assert.LessOrEqual(t, len(group), 3)
}

func TestKBucketTable_WantToAdd_TrueWhenRoom(t *testing.T) {
	table := NewTable(xorname.Hash([]byte("self")), 8)
	assert.True(t, table.WantToAdd(xorname.Hash([]byte("newcomer"))))
}

func TestKBucketTable_DynamicQuorumSize_ShrinksWithFewPeers(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 8)

	table.AddNode(NodeInfo{PublicId: fixturePublicId("only-peer"), Conn: 1})
	assert.Equal(t, 1, table.DynamicQuorumSize())
}

func TestKBucketTable_TargetNodes_SingleForManagedNode(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 8)

	p := fixturePublicId("target")
	table.AddNode(NodeInfo{PublicId: p, Conn: 1})

	targets := table.TargetNodes(identity.NewManagedNodeAuthority(p.Name))
	require.Len(t, targets, 1)
	assert.Equal(t, p, targets[0])
}

func TestKBucketTable_TargetNodes_GroupForNaeManager(t *testing.T) {
	self := xorname.Hash([]byte("self"))
	table := NewTable(self, 4)

	for i := 0; i < 6; i++ {
		table.AddNode(NodeInfo{PublicId: fixturePublicId(string(rune('a' + i))), Conn: ConnID(i)})
	}

	targets := table.TargetNodes(identity.NewNaeManagerAuthority(xorname.Hash([]byte("data-name"))))
	assert.LessOrEqual(t, len(targets), 4)
}
