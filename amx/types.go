// Package amx models the data the JIT backend reads and mutates: the
// loaded program image, the per-instance execution state, and the
// external collaborators (native/public registries, executable memory,
// bytecode decoding) the backend depends on without owning.
//
// All VM pointers in this package are byte offsets from the start of
// the data section, matching the AMX reference runtime.
package amx

const (
	// CellSize is the width of one AMX VM word in bytes.
	CellSize = 4

	// FlagNativeRegistered marks Instance.Flags when native functions
	// have been resolved and bound to the instance.
	FlagNativeRegistered = 0x0001
)

// Header describes the fixed-layout prologue of a loaded AMX program
// image: the offsets, within Program.Base, of the code and data
// sections.
type Header struct {
	Cod int32 // Offset of the code section within Base.
	Dat int32 // Offset of the data section within Base.
}

// Program is a parsed AMX program image: the loader's output and the
// JIT compiler's input. The loader itself is out of scope for this
// package; Program is the narrow shape the compiler consumes.
type Program struct {
	Header Header
	Base   []byte // Full program image, header + code + data.
	Code   []byte // Base[Header.Cod:Header.Dat], the bytecode to translate.
}

// CodeBase returns the absolute address (within Base) of the first
// code byte, used to convert absolute jump/call operands into
// bytecode addresses relative to the start of the code section.
func (p *Program) CodeBase() int32 { return p.Header.Cod }

// Instance holds the mutable execution state of one running AMX
// program: registers not kept in host registers across native calls,
// and bookkeeping the exec trampoline validates on entry.
//
// Frm, Stk, Hea, Hlw, Stp are byte offsets into Data (or Base, when
// Data is nil — the register contract in package compiler resolves
// this the same way the reference runtime does: prefer Data, fall
// back to Base+Header.Dat).
type Instance struct {
	Program *Program
	Data    []byte // Optional separate data segment; nil to use Base+Dat.

	Frm         int32
	Stk         int32
	Hea         int32
	Hlw         int32
	Stp         int32
	ParamCount  int32
	Error       Error
	Flags       uint32
}

// DataBase returns the absolute address the register contract's ebx
// maps to: Data's address if set, else Base's address plus the data
// section offset.
func (in *Instance) DataBase() []byte {
	if in.Data != nil {
		return in.Data
	}
	return in.Program.Base[in.Program.Header.Dat:]
}
