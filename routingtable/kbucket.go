package routingtable

import (
	"sync"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/xorname"
)

// bucket holds up to groupSize live entries plus a small replacement
// cache of runners-up, consulted when a live entry is dropped.
type bucket struct {
	live        []identity.PublicId
	replacement []identity.PublicId
}

const replacementCacheSize = 4

// KBucketTable is the concrete in-memory Table implementation: one
// bucket per shared-prefix length with self, each bounded to groupSize
// live entries, plus a per-name set of connections so the same peer
// name can be reachable over more than one connection (the Design
// Notes' "cyclic graph" case, where two nodes end up directly
// connected in addition to via a common neighbour).
type KBucketTable struct {
	mu        sync.RWMutex
	self      xorname.Name
	groupSize int
	buckets   []bucket // buckets[i] = peers whose shared-prefix length with self is i
	conns     map[xorname.Name]map[ConnID]struct{}
	byConn    map[ConnID]xorname.Name
}

// NewTable builds a fresh KBucketTable anchored at self. Used both at
// startup and by the §4.11 "full table replacement" requirement when a
// node's name changes via relocation.
func NewTable(self xorname.Name, groupSize int) Table {
	return &KBucketTable{
		self:      self,
		groupSize: groupSize,
		buckets:   make([]bucket, xorname.Size*8+1),
		conns:     make(map[xorname.Name]map[ConnID]struct{}),
		byConn:    make(map[ConnID]xorname.Name),
	}
}

func (t *KBucketTable) bucketIndex(name xorname.Name) int {
	return xorname.SharedPrefixLen(t.self, name)
}

func (t *KBucketTable) Get(name xorname.Name) (identity.PublicId, []ConnID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := t.bucketIndex(name)
	for _, p := range t.buckets[idx].live {
		if p.Name == name {
			return p, t.connsLocked(name), true
		}
	}
	return identity.PublicId{}, nil, false
}

func (t *KBucketTable) connsLocked(name xorname.Name) []ConnID {
	set, ok := t.conns[name]
	if !ok {
		return nil
	}
	out := make([]ConnID, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (t *KBucketTable) AddNode(info NodeInfo) (bool, *identity.PublicId) {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := info.PublicId.Name
	idx := t.bucketIndex(name)
	b := &t.buckets[idx]

	for i, p := range b.live {
		if p.Name == name {
			b.live[i] = info.PublicId
			t.addConnLocked(name, info.Conn)
			return false, nil
		}
	}

	t.addConnLocked(name, info.Conn)

	if len(b.live) < t.groupSize {
		b.live = append(b.live, info.PublicId)
		return true, nil
	}

	// Bucket full: farthest-bucket nodes (closer to us than this new
	// candidate's bucket index implies lower priority) are never
	// evicted in favour of candidates sharing a shorter prefix — only
	// a peer in the SAME bucket already at capacity falls back to the
	// replacement cache.
	if len(b.replacement) >= replacementCacheSize {
		b.replacement = b.replacement[1:]
	}
	b.replacement = append(b.replacement, info.PublicId)
	return false, nil
}

func (t *KBucketTable) addConnLocked(name xorname.Name, conn ConnID) {
	set, ok := t.conns[name]
	if !ok {
		set = make(map[ConnID]struct{})
		t.conns[name] = set
	}
	set[conn] = struct{}{}
	t.byConn[conn] = name
}

func (t *KBucketTable) AddConnection(name xorname.Name, conn ConnID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, _, ok := t.getLocked(name); !ok {
		return false
	}
	t.addConnLocked(name, conn)
	return true
}

func (t *KBucketTable) getLocked(name xorname.Name) (identity.PublicId, []ConnID, bool) {
	idx := t.bucketIndex(name)
	for _, p := range t.buckets[idx].live {
		if p.Name == name {
			return p, t.connsLocked(name), true
		}
	}
	return identity.PublicId{}, nil, false
}

func (t *KBucketTable) DropConnection(conn ConnID) (xorname.Name, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	name, ok := t.byConn[conn]
	if !ok {
		return xorname.Name{}, false
	}
	delete(t.byConn, conn)
	if set, ok := t.conns[name]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(t.conns, name)
			t.removeFromBucketLocked(name)
		}
	}
	return name, true
}

func (t *KBucketTable) removeFromBucketLocked(name xorname.Name) {
	idx := t.bucketIndex(name)
	b := &t.buckets[idx]
	for i, p := range b.live {
		if p.Name == name {
			b.live = append(b.live[:i], b.live[i+1:]...)
			if len(b.replacement) > 0 {
				promoted := b.replacement[len(b.replacement)-1]
				b.replacement = b.replacement[:len(b.replacement)-1]
				b.live = append(b.live, promoted)
			}
			return
		}
	}
}

func (t *KBucketTable) IsClose(name xorname.Name) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.ourCloseGroupLocked() {
		if p.Name == name {
			return true
		}
	}
	return name == t.self
}

func (t *KBucketTable) WantToAdd(name xorname.Name) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.bucketIndex(name)
	b := &t.buckets[idx]
	if len(b.live) < t.groupSize {
		return true
	}
	return t.IsClose(name)
}

func (t *KBucketTable) OurCloseGroup() []identity.PublicId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ourCloseGroupLocked()
}

func (t *KBucketTable) ourCloseGroupLocked() []identity.PublicId {
	all := make([]xorname.Name, 0, t.Len())
	byName := make(map[xorname.Name]identity.PublicId)
	for i := range t.buckets {
		for _, p := range t.buckets[i].live {
			all = append(all, p.Name)
			byName[p.Name] = p
		}
	}
	closest := xorname.ClosestN(t.self, all, t.groupSize)
	out := make([]identity.PublicId, len(closest))
	for i, n := range closest {
		out[i] = byName[n]
	}
	return out
}

func (t *KBucketTable) TargetNodes(dst identity.Authority) []identity.PublicId {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if dst.IsGroup() {
		all := make([]xorname.Name, 0, t.Len())
		byName := make(map[xorname.Name]identity.PublicId)
		for i := range t.buckets {
			for _, p := range t.buckets[i].live {
				all = append(all, p.Name)
				byName[p.Name] = p
			}
		}
		closest := xorname.ClosestN(dst.TargetName(), all, t.groupSize)
		out := make([]identity.PublicId, len(closest))
		for i, n := range closest {
			out[i] = byName[n]
		}
		return out
	}

	p, _, ok := t.getLocked(dst.TargetName())
	if !ok {
		return nil
	}
	return []identity.PublicId{p}
}

func (t *KBucketTable) DynamicQuorumSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.groupSize
	if t.Len() < n {
		n = t.Len()
	}
	return n/2 + 1
}

func (t *KBucketTable) Len() int {
	total := 0
	for i := range t.buckets {
		total += len(t.buckets[i].live)
	}
	return total
}
