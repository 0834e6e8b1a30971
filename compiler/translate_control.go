package compiler

import (
	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/opcode"
)

// translateHaltBounds handles HALT and BOUNDS, the two opcodes that
// can end execution outright.
func (t *translator) translateHaltBounds(in opcode.Instruction) error {
	as := t.as
	switch in.Op {
	case opcode.Halt:
		t.doHalt(in.Operand())

	case opcode.Bounds:
		ok := as.NewLabel()
		fail := as.NewLabel()
		as.CmpRegImm(asmx86.EAX, 0)
		as.Jcc(asmx86.CondL, fail)
		as.CmpRegImm(asmx86.EAX, in.Operand())
		as.Jcc(asmx86.CondLE, ok)
		as.Bind(fail)
		t.doHalt(int32(amx.ErrBounds))
		as.Bind(ok)

	default:
		return errUnknownOpcode
	}
	return nil
}

// lctrlCipAddr is the bytecode address LCTRL index 6 (CIP) reports:
// the address of the instruction immediately after this LCTRL, known
// at translation time since LCTRL/SCTRL carry no other side effect
// that could move CIP between reading the opcode and this query.
func lctrlCipAddr(in opcode.Instruction) int32 { return in.Addr + in.Size }

// translateCtrl handles LCTRL/SCTRL, the two opcodes that read or
// write the VM's "special" registers: the heap/stack limits and,
// through index 6, CIP itself (SCTRL 6 is a computed jump in
// disguise, so it shares JUMP_PRI's native-target lookup).
func (t *translator) translateCtrl(in opcode.Instruction) error {
	as := t.as
	switch in.Op {
	case opcode.Lctrl:
		switch idx := in.Operand(); idx {
		case 0: // COD: code section's native base address
			as.MovRegAbs(asmx86.EAX, int32(t.layout.SlotAddr(slotCodeBase)))
		case 1: // DAT: data section's native base address, already resident in ebx
			as.MovRegReg(asmx86.EAX, asmx86.EBX)
		case 2:
			as.MovRegAbs(asmx86.EDX, int32(t.layout.SlotAddr(slotAmxPtr)))
			as.MovRegMem(asmx86.EAX, asmx86.EDX, t.off.Hea)
		case 3:
			as.MovRegAbs(asmx86.EDX, int32(t.layout.SlotAddr(slotAmxPtr)))
			as.MovRegMem(asmx86.EAX, asmx86.EDX, t.off.Stp)
		case 4:
			as.MovRegReg(asmx86.EAX, asmx86.ESP)
			t.vmAddr(asmx86.EAX)
		case 5:
			as.MovRegReg(asmx86.EAX, asmx86.EBP)
			t.vmAddr(asmx86.EAX)
		case 6:
			as.MovRegImm(asmx86.EAX, lctrlCipAddr(in))
		case 7: // synthetic "running under the JIT" flag, always true
			as.MovRegImm(asmx86.EAX, 1)
		default:
			return errBadCtrlIndex
		}

	case opcode.Sctrl:
		switch idx := in.Operand(); idx {
		case 2:
			as.MovRegAbs(asmx86.EDX, int32(t.layout.SlotAddr(slotAmxPtr)))
			as.MovMemReg(asmx86.EDX, t.off.Hea, asmx86.EAX)
		case 4:
			as.MovRegReg(asmx86.ESP, asmx86.EAX)
			t.nativeAddr(asmx86.ESP)
		case 5:
			as.MovRegReg(asmx86.EBP, asmx86.EAX)
			t.nativeAddr(asmx86.EBP)
		case 6:
			t.emitComputedJump()
		default:
			return errBadCtrlIndex
		}

	default:
		return errUnknownOpcode
	}
	return nil
}
