package compiler

import (
	"io"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/instrmap"
	"github.com/amxvm/amxjit/objdump"
	"github.com/amxvm/amxjit/runtime"
)

// Backend is one compiled program: an executable block of machine
// code, the Go-side state its trampolines call back into, and the
// collaborators needed to release it. One Backend belongs to exactly
// one amx.Instance — the data-base and amx-ptr header slots baked
// into the block during Compile are that instance's own, and Exec
// invoking a second instance's public would read and write the wrong
// memory entirely.
type Backend struct {
	mem      []byte
	alloc    amx.ExecAllocator
	instance *amx.Instance
	bridge   *runtime.BridgeContext
	instrMap *instrmap.Map
	execAddr uintptr

	closed bool
}

// Exec invokes the public function named by index, the same index the
// Registry that compiled this Backend resolves through PublicAddr,
// matching the reference AMX host's amx_Exec. *retval receives PRI as
// it stood when the public returned or halted, including a HALT with a
// nonzero code; it is set to 0 when exec rejects the call before the
// public runs. Instance.Error carries the same code this call returns, so a caller
// that discards the return value can still recover it from the
// instance afterward.
func (b *Backend) Exec(index int32, retval *int32) amx.Error {
	if b.closed {
		return amx.ErrInit
	}
	var rv int32
	code := runtime.RawCall(b.execAddr, uint32(index), uint32(uintptr(unsafe.Pointer(&rv))))
	if retval != nil {
		*retval = rv
	}
	return amx.Error(int32(code))
}

// Dump writes the compiled block's trampolines and translated opcodes
// to w as annotated x86 assembly, labeling the exec entry point and
// every instruction-map boundary (the other trampolines are not
// labeled) — the same diagnostic role
// the teacher's object/debug/dump package plays for a compiled wasm
// module's text segment.
func (b *Backend) Dump(w io.Writer) error {
	labels := []objdump.Label{
		{Addr: uint32(b.execAddr), Name: "exec"},
	}
	for _, e := range b.instrMap.Entries() {
		labels = append(labels, objdump.Label{Addr: e.NativeAddr, Name: "instr"})
	}
	return objdump.Dump(w, b.mem, b.baseAddr(), labels)
}

func (b *Backend) baseAddr() uint32 { return uint32(uintptr(unsafe.Pointer(&b.mem[0]))) }

// Close releases the executable block back to the allocator that
// produced it. Calling Exec after Close is a programmer error; Close
// itself is safe to call more than once.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.alloc.Free(b.mem); err != nil {
		return errors.Wrap(err, "amxjit: free executable memory")
	}
	return nil
}
