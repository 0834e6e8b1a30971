// Package instrmap builds and queries the compiled program's
// instruction-address map (spec component C7): the sorted table
// pairing each translated bytecode address with the native address
// its translation starts at. Compile serializes the finished Map into
// the block, where exec and jump_helper binary-search that serialized
// copy to turn a bytecode-space target (a public's entry, or an
// indirect jump) into a native address — the same role the reference
// backend's InstrMapEntry table plays for get_instr_ptr. The Go-side
// Map also feeds Backend.Dump's labels.
package instrmap

import "sort"

// Entry pairs one bytecode address with the native address its
// translation begins at.
type Entry struct {
	BytecodeAddr int32
	NativeAddr   uint32
}

// Builder accumulates entries in emission order. Bytecode addresses
// strictly increase as the translator walks the code section, so
// entries arrive pre-sorted; Builder only has to refuse a regression,
// not sort after the fact.
type Builder struct {
	entries []Entry
}

// Put records that the instruction at bytecodeAddr translates to
// nativeAddr. It panics if bytecodeAddr does not strictly increase
// over the previous entry, since that would violate the invariant the
// binary search in Map.Lookup depends on.
func (b *Builder) Put(bytecodeAddr int32, nativeAddr uint32) {
	if n := len(b.entries); n > 0 && bytecodeAddr <= b.entries[n-1].BytecodeAddr {
		panic("instrmap: bytecode address out of order")
	}
	b.entries = append(b.entries, Entry{BytecodeAddr: bytecodeAddr, NativeAddr: nativeAddr})
}

// Len reports how many entries have been recorded so far; used to
// size the reserved instruction-map region before native addresses
// are known.
func (b *Builder) Len() int { return len(b.entries) }

// Relocate adds base to every recorded native address. Entries are
// collected against code-relative offsets during translation, since
// the final load address isn't known until the block is allocated;
// Relocate is the one pass that turns them absolute.
func (b *Builder) Relocate(base uint32) {
	for i := range b.entries {
		b.entries[i].NativeAddr += base
	}
}

// Map finalizes the builder into an immutable, binary-searchable Map.
func (b *Builder) Map() *Map {
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	return &Map{entries: entries}
}

// Map is the finished, immutable instruction-address map.
type Map struct {
	entries []Entry
}

// Len reports the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns the entries in ascending bytecode-address order.
// Callers must not mutate the returned slice.
func (m *Map) Entries() []Entry { return m.entries }

// Lookup returns the native address of the instruction at bytecodeAddr.
// It reports ok=false if bytecodeAddr does not name the start of a
// translated instruction, rather than guessing a nearby entry.
func (m *Map) Lookup(bytecodeAddr int32) (nativeAddr uint32, ok bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].BytecodeAddr >= bytecodeAddr
	})
	if i >= len(m.entries) || m.entries[i].BytecodeAddr != bytecodeAddr {
		return 0, false
	}
	return m.entries[i].NativeAddr, true
}

// FindCovering returns the entry whose bytecode address is the
// greatest one not exceeding addr, mapping an address that falls
// mid-instruction back to the instruction that contains it.
func (m *Map) FindCovering(addr int32) (Entry, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].BytecodeAddr > addr
	})
	if i == 0 {
		return Entry{}, false
	}
	return m.entries[i-1], true
}
