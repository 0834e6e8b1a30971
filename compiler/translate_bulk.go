package compiler

import (
	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/opcode"
)

// translateBulk handles MOVS/CMPS/FILL, the three opcodes that act on
// a run of memory rather than a single cell. All three borrow the
// native string instructions (rep movs/cmps/stos), which mandate ecx
// as the count register — since ecx is the persistent ALT register,
// each saves and restores it around the rep sequence rather than
// leaving ALT clobbered, matching the reference interpreter leaving
// ALT unchanged by these opcodes (and PRI too, except for CMPS, which
// returns its result in PRI).
func (t *translator) translateBulk(in opcode.Instruction) error {
	as := t.as
	switch in.Op {
	case opcode.Movs:
		as.PushReg(asmx86.ECX)
		as.MovRegReg(asmx86.ESI, asmx86.EAX)
		t.nativeAddr(asmx86.ESI)
		as.MovRegReg(asmx86.EDI, asmx86.ECX)
		t.nativeAddr(asmx86.EDI)
		as.Cld()
		switch n := in.Operand(); {
		case n%4 == 0:
			as.MovRegImm(asmx86.ECX, n/4)
			as.RepMovsD()
		case n%2 == 0:
			as.MovRegImm(asmx86.ECX, n/2)
			as.RepMovsW()
		default:
			as.MovRegImm(asmx86.ECX, n)
			as.RepMovsB()
		}
		as.PopReg(asmx86.ECX)

	case opcode.Cmps:
		as.PushReg(asmx86.ECX)
		as.MovRegReg(asmx86.ESI, asmx86.EAX)
		t.nativeAddr(asmx86.ESI)
		as.MovRegReg(asmx86.EDI, asmx86.ECX)
		t.nativeAddr(asmx86.EDI)
		as.MovRegImm(asmx86.ECX, in.Operand())
		as.Cld()
		as.RepeCmpsB()
		// Flags reflect the last byte pair compared: the mismatch, or
		// (if the whole run matched) an equal final pair.
		as.XorRegReg(asmx86.EDX, asmx86.EDX)
		as.SetccReg(asmx86.CondA, asmx86.EDX)
		as.MovRegReg(asmx86.EAX, asmx86.EDX)
		as.XorRegReg(asmx86.EDX, asmx86.EDX)
		as.SetccReg(asmx86.CondB, asmx86.EDX)
		as.NegReg(asmx86.EDX)
		as.OrRegReg(asmx86.EAX, asmx86.EDX)
		as.PopReg(asmx86.ECX)

	case opcode.Fill:
		n := in.Operand()
		if n%amx.CellSize != 0 {
			return errBadFillSize
		}
		as.PushReg(asmx86.ECX)
		as.MovRegReg(asmx86.EDI, asmx86.ECX)
		t.nativeAddr(asmx86.EDI)
		as.MovRegImm(asmx86.ECX, n/amx.CellSize)
		as.Cld()
		as.RepStosD()
		as.PopReg(asmx86.ECX)

	default:
		return errUnknownOpcode
	}
	return nil
}
