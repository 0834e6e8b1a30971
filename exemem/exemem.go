// Package exemem allocates the pages a compiled block's machine code
// is written into and executed from, the external collaborator named
// by amx.ExecAllocator (spec component C8's memory owner). It plays
// the same role the teacher's runner.makeMemory/makeMemoryCopy pair
// plays for a compiled wasm module's text segment, adapted to a
// single allocate/free call since the backend writes its own code
// directly into the returned block rather than copying a finished
// buffer into it afterward.
package exemem

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Allocator maps anonymous pages with read, write and execute
// permission combined, so the backend can emit machine code directly
// into the block Allocate returns without a separate commit step.
// This trades the teacher's stricter mmap-RW-then-mprotect-RX
// sequence (which needs a third call the amx.ExecAllocator contract
// doesn't expose) for a single-step allocation; see DESIGN.md.
type Allocator struct{}

// NewAllocator returns a default, OS-backed Allocator.
func NewAllocator() *Allocator { return &Allocator{} }

// Allocate implements amx.ExecAllocator. A zero-size request returns
// nil without mapping anything, matching the teacher's makeMemory
// short-circuit for an empty region.
func (a *Allocator) Allocate(size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrap(err, "exemem: mmap")
	}
	return mem, nil
}

// Free implements amx.ExecAllocator.
func (a *Allocator) Free(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return errors.Wrap(err, "exemem: munmap")
	}
	return nil
}
