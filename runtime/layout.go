// Package runtime emits the backend's runtime trampolines (spec
// component C4): exec, exec_helper, halt_helper, jump_helper,
// sysreq_c_helper and sysreq_d_helper. Each is a hand-emitted machine
// code routine, not a Go function — they are the only code that ever
// switches between the host (Go) stack and the AMX virtual machine's
// stack, matching the reference emit_exec/emit_exec_helper/... family
// in backend-asmjit.cpp one for one.
//
// A block's absolute load address is known before any of this package
// runs: Compile allocates the executable block first, sized from a
// preliminary measuring pass, and only then emits final code that
// bakes every cross-reference (header slot addresses, the instruction
// map's base, Go bridge entry points) as a literal constant. This
// avoids the position-independent-addressing tricks a single-pass
// assembler would otherwise need to locate its own embedded header
// from 32-bit code that has no RIP-relative addressing mode; see
// DESIGN.md for the two-pass rationale.
package runtime

// Layout describes where every region of the final block lives, once
// its base load address is known. HeaderSize and InstrMapSize are
// fixed before either compilation pass begins: the header is a
// constant-size structure and the instruction map's entry count
// equals the already-decoded instruction count.
type Layout struct {
	Base         uint32
	HeaderSize   int32
	InstrMapSize int32 // entry count, not bytes
}

// InstrMapBase is the absolute address of the first instruction-map
// entry.
func (l Layout) InstrMapBase() uint32 { return l.Base + uint32(l.HeaderSize) }

// InstrMapBytes is the instruction map's total size in bytes (each
// entry is two 32-bit words).
func (l Layout) InstrMapBytes() int32 { return l.InstrMapSize * 8 }

// CodeBase is the absolute address of the first byte of emitted
// instructions (trampolines followed by translated opcodes).
func (l Layout) CodeBase() uint32 { return l.InstrMapBase() + uint32(l.InstrMapBytes()) }

// SlotAddr returns the absolute address of runtime-data header slot i.
func (l Layout) SlotAddr(slot int) uint32 { return l.Base + uint32(slot*4) }
