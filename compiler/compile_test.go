package compiler

import (
	"encoding/binary"
	"testing"

	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/opcode"
)

// assembleCode packs a sequence of (opcode, operand...) cells into a
// flat AMX code section the way a real loader would, for hand-built
// test programs — the same role internal/test/library's hand-assembled
// wasm modules play for the teacher's compile tests.
func assembleCode(t *testing.T, ops ...[]int32) []byte {
	t.Helper()
	var buf []byte
	for _, cells := range ops {
		for _, c := range cells {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(c))
			buf = append(buf, b[:]...)
		}
	}
	return buf
}

func op(o opcode.Op, operands ...int32) []int32 {
	return append([]int32{int32(o)}, operands...)
}

func newTestInstance(code []byte, dataSize int) (*amx.Program, *amx.Instance) {
	prog := &amx.Program{
		Header: amx.Header{Cod: 0, Dat: int32(len(code))},
		Base:   code,
		Code:   code,
	}
	inst := &amx.Instance{
		Program: prog,
		Data:    make([]byte, dataSize),
		Stk:     int32(dataSize),
		Stp:     int32(dataSize),
		Flags:   amx.FlagNativeRegistered,
	}
	return prog, inst
}

func newTestRegistry(publics ...uint32) *amx.StaticRegistry {
	r := amx.NewStaticRegistry()
	r.Publics = publics
	r.Finalize()
	return r
}

type fakeAllocator struct {
	freed [][]byte
}

func (a *fakeAllocator) Allocate(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (a *fakeAllocator) Free(mem []byte) error {
	a.freed = append(a.freed, mem)
	return nil
}

func TestCompileConstHalt(t *testing.T) {
	code := assembleCode(t,
		op(opcode.ConstPri, 42),
		op(opcode.Halt, 0),
	)
	prog, inst := newTestInstance(code, 256)
	registry := newTestRegistry(0)
	alloc := &fakeAllocator{}

	backend, err := Compile(prog, inst, registry, alloc, Options{}, func(ip int32, o opcode.Op, ferr error) {
		t.Fatalf("unexpected translation error at %#x (%s): %v", ip, o, ferr)
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer backend.Close()

	var retval int32
	if code := backend.Exec(0, &retval); code != amx.ErrNone {
		t.Fatalf("Exec returned %s", code)
	}
	if retval != 42 {
		t.Fatalf("retval = %d, want 42", retval)
	}
}

func TestCompileHaltNonzeroExitCode(t *testing.T) {
	code := assembleCode(t,
		op(opcode.ConstPri, 7),
		op(opcode.Halt, int32(amx.ErrAssert)),
	)
	prog, inst := newTestInstance(code, 256)
	registry := newTestRegistry(0)

	backend, err := Compile(prog, inst, registry, nil, Options{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer backend.Close()

	var retval int32
	if code := backend.Exec(0, &retval); code != amx.ErrAssert {
		t.Fatalf("Exec returned %s, want %s", code, amx.ErrAssert)
	}
	if retval != 7 {
		t.Fatalf("retval = %d, want 7", retval)
	}
	if inst.Error != amx.ErrAssert {
		t.Fatalf("instance.Error = %s, want %s", inst.Error, amx.ErrAssert)
	}
}

func TestCompilePublicNotFound(t *testing.T) {
	code := assembleCode(t, op(opcode.Halt, 0))
	prog, inst := newTestInstance(code, 256)
	registry := newTestRegistry() // no publics registered

	backend, err := Compile(prog, inst, registry, nil, Options{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer backend.Close()

	var retval int32
	if code := backend.Exec(0, &retval); code != amx.ErrIndex {
		t.Fatalf("Exec returned %s, want %s", code, amx.ErrIndex)
	}
}

func TestCompileUnknownOpcodeReportsTranslateError(t *testing.T) {
	code := assembleCode(t, op(opcode.Op(-1)))
	prog, inst := newTestInstance(code, 256)
	registry := newTestRegistry(0)

	var reported bool
	backend, err := Compile(prog, inst, registry, nil, Options{}, func(ip int32, o opcode.Op, ferr error) {
		reported = true
	})
	if err != nil {
		t.Fatalf("Compile returned a Go error instead of reporting through onError: %v", err)
	}
	if backend != nil {
		t.Fatalf("expected a nil Backend after a translation failure")
	}
	if !reported {
		t.Fatal("onError was never called")
	}
}

func TestCompileFreesMemoryOnClose(t *testing.T) {
	code := assembleCode(t, op(opcode.Halt, 0))
	prog, inst := newTestInstance(code, 256)
	registry := newTestRegistry(0)
	alloc := &fakeAllocator{}

	backend, err := Compile(prog, inst, registry, alloc, Options{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(alloc.freed) != 1 {
		t.Fatalf("alloc.Free called %d times, want 1", len(alloc.freed))
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(alloc.freed) != 1 {
		t.Fatal("second Close should not call Free again")
	}
}
