package amx

import "github.com/amxvm/amxjit/opcode"

// Registry resolves public/native function identities. It is the
// narrow contract the JIT depends on instead of owning the AMX
// program loader or a name table; a real host binds this to its own
// loaded-module bookkeeping.
type Registry interface {
	// PublicAddr returns the bytecode address of public function
	// index, or ok=false if index does not name a public function.
	PublicAddr(index int32) (addr uint32, ok bool)

	// NativeAddr returns the host address of native function index,
	// or ok=false if it is unresolved.
	NativeAddr(index int32) (addr uint32, ok bool)

	// NativeName returns the name registered for native function
	// index, used to match against the intrinsic table.
	NativeName(index int32) (name string, ok bool)

	// FindNative reverse-resolves a host address (as used by
	// SYSREQ_D) back to a native index, so its name can be looked up.
	FindNative(addr uint32) (index int32, ok bool)

	// CallNative invokes native function index on behalf of a running
	// instance. It is reached from JIT code through the runtime
	// package's Go bridge, never called directly by machine code, so
	// it runs with the host's ordinary calling convention and can use
	// arbitrary Go semantics (closures, reflection). The bridge does
	// not recover a panic raised here.
	CallNative(inst *Instance, index int32, params []int32) (int32, error)
}

// Decoder produces AMX bytecode instructions in ascending address
// order. A concrete implementation lives in package opcode. Compile
// takes no Decoder argument: it always decodes Program.Code with
// opcode.NewStreamDecoder.
type Decoder interface {
	// Decode returns the next instruction, or io.EOF at the end of
	// the stream. A malformed instruction is reported as a non-EOF,
	// non-nil error.
	Decode() (opcode.Instruction, error)
}

// ExecAllocator hands out and reclaims pages with execute permission
// for compiled code blocks. Package exemem provides the default
// implementation; tests may substitute an in-process fake.
type ExecAllocator interface {
	Allocate(size int) ([]byte, error)
	Free(block []byte) error
}

// ErrorHandler is invoked once with the offending instruction when
// opcode translation fails; Compile returns a nil backend afterward.
type ErrorHandler func(ip int32, op opcode.Op, err error)
