// Package objdump renders a compiled block's machine code as
// annotated 32-bit x86 assembly, for diagnosing what the translator
// actually emitted. It fills the same role as the teacher's
// object/debug/dump package, which disassembles through cgo
// gapstone bindings; this backend uses the pure-Go
// golang.org/x/arch/x86/x86asm decoder instead, so a diagnostic dump
// never needs a cgo-enabled build.
//
// Dump is static: it never touches a running amx.Instance and plays
// no role in VM single-step debugging, which spec.md's Non-goals
// explicitly exclude.
package objdump

import (
	"fmt"
	"io"

	"golang.org/x/arch/x86/x86asm"
)

// Label names one address Dump annotates inline with a comment line
// before the instruction at that address: a trampoline entry point,
// or a translated bytecode instruction's native start.
type Label struct {
	Addr uint32
	Name string
}

// Dump decodes code as a sequence of 32-bit x86 instructions starting
// at baseAddr and writes one annotated line per instruction to w.
// Labels whose address matches an instruction boundary are printed as
// a comment immediately above it; an address x86asm fails to decode
// is emitted as a single raw byte and the scan resumes at the next
// byte, so one bad decode never stops the rest of the dump.
func Dump(w io.Writer, code []byte, baseAddr uint32, labels []Label) error {
	byAddr := make(map[uint32]string, len(labels))
	for _, l := range labels {
		byAddr[l.Addr] = l.Name
	}

	for offset := 0; offset < len(code); {
		addr := baseAddr + uint32(offset)
		if name, ok := byAddr[addr]; ok {
			if _, err := fmt.Fprintf(w, "; %s:\n", name); err != nil {
				return err
			}
		}

		inst, err := x86asm.Decode(code[offset:], 32)
		if err != nil {
			if _, werr := fmt.Fprintf(w, "%8x:\t(bad) %02x\n", addr, code[offset]); werr != nil {
				return werr
			}
			offset++
			continue
		}

		line := x86asm.GNUSyntax(inst, uint64(addr), nil)
		if _, err := fmt.Fprintf(w, "%8x:\t%s\n", addr, line); err != nil {
			return err
		}
		offset += inst.Len
	}
	return nil
}
