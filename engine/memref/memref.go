package memref

import "github.com/nathoo/cheevocore/types"

// MemRef caches the value of one sized address.
type MemRef struct {
	Address  uint32
	Size     types.MemSize
	Value    uint32
	Prior    uint32 // value one refresh ago
	Changed  bool
	Indirect bool // read at Address plus a runtime AddAddress offset

	frame    uint64
	resolved uint32
}

func (m *MemRef) update(v uint32) {
	m.Prior = m.Value
	m.Value = v
	m.Changed = m.Value != m.Prior
}

// Refresh reads the reference from memory.
func (m *MemRef) Refresh(r MemoryReader) {
	m.update(Peek(r, m.Address, m.Size))
}

// Resolve refreshes an indirect reference at Address+offset. The read
// happens at most once per frame for a given resolved address, so several
// evaluations in one frame see the same value and prior.
func (m *MemRef) Resolve(r MemoryReader, offset uint32, frame uint64) {
	addr := m.Address + offset
	if m.frame == frame && m.resolved == addr && frame != 0 {
		return
	}
	m.frame = frame
	m.resolved = addr
	m.update(Peek(r, addr, m.Size))
}

type refKey struct {
	address uint32
	size    types.MemSize
}

// Registry owns the references of a rule set. Direct references are shared
// by every operand that names the same address and size.
type Registry struct {
	refs   []*MemRef
	direct map[refKey]*MemRef
	frame  uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{direct: map[refKey]*MemRef{}}
}

// Direct returns the shared reference for address and size.
func (g *Registry) Direct(address uint32, size types.MemSize) *MemRef {
	k := refKey{address, size}
	if ref, ok := g.direct[k]; ok {
		return ref
	}
	ref := &MemRef{Address: address, Size: size}
	g.direct[k] = ref
	g.refs = append(g.refs, ref)
	return ref
}

// Indirect returns a new reference resolved through an AddAddress chain.
// Indirect references are never shared.
func (g *Registry) Indirect(address uint32, size types.MemSize) *MemRef {
	ref := &MemRef{Address: address, Size: size, Indirect: true}
	g.refs = append(g.refs, ref)
	return ref
}

// Update advances the frame and refreshes every direct reference once.
// Indirect references refresh on demand during evaluation.
func (g *Registry) Update(r MemoryReader) {
	g.frame++
	for _, ref := range g.refs {
		if !ref.Indirect {
			ref.Refresh(r)
		}
	}
}

// Frame returns the number of Update calls so far.
func (g *Registry) Frame() uint64 {
	return g.frame
}

// SetFrame restores the frame counter from a snapshot.
func (g *Registry) SetFrame(frame uint64) {
	g.frame = frame
}

// Refs returns all references in creation order.
func (g *Registry) Refs() []*MemRef {
	return g.refs
}

// Lookup returns the direct reference for address and size, if any.
func (g *Registry) Lookup(address uint32, size types.MemSize) (*MemRef, bool) {
	ref, ok := g.direct[refKey{address, size}]
	return ref, ok
}
