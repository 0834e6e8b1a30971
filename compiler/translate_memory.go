package compiler

import (
	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/opcode"
)

// translateMemory handles the LOAD/STOR/LREF/SREF/LIDX/IDXADDR/ALIGN
// family: every opcode that only moves or addresses VM memory cells,
// never touches control flow, and never needs the Go bridge.
func (t *translator) translateMemory(in opcode.Instruction) error {
	as := t.as
	switch in.Op {
	case opcode.LoadPri:
		as.MovRegMem(asmx86.EAX, asmx86.EBX, in.Operand())
	case opcode.LoadAlt:
		as.MovRegMem(asmx86.ECX, asmx86.EBX, in.Operand())
	case opcode.LoadSPri:
		as.MovRegMem(asmx86.EAX, asmx86.EBP, in.Operand())
	case opcode.LoadSAlt:
		as.MovRegMem(asmx86.ECX, asmx86.EBP, in.Operand())

	case opcode.LRefPri:
		as.MovRegMem(asmx86.EDX, asmx86.EBX, in.Operand())
		t.derefVM(asmx86.EAX, asmx86.EDX)
	case opcode.LRefAlt:
		as.MovRegMem(asmx86.EDX, asmx86.EBX, in.Operand())
		t.derefVM(asmx86.ECX, asmx86.EDX)
	case opcode.LRefSPri:
		as.MovRegMem(asmx86.EDX, asmx86.EBP, in.Operand())
		t.derefVM(asmx86.EAX, asmx86.EDX)
	case opcode.LRefSAlt:
		as.MovRegMem(asmx86.EDX, asmx86.EBP, in.Operand())
		t.derefVM(asmx86.ECX, asmx86.EDX)

	case opcode.LoadI:
		t.derefVM(asmx86.EAX, asmx86.EAX)
	case opcode.LodbI:
		as.MovRegReg(asmx86.EDX, asmx86.EAX)
		t.nativeAddr(asmx86.EDX)
		switch w := in.Operand(); w {
		case 1:
			as.MovzxRegMem8(asmx86.EAX, asmx86.EDX, 0)
		case 2:
			as.MovzxRegMem16(asmx86.EAX, asmx86.EDX, 0)
		case 4:
			as.MovRegMem(asmx86.EAX, asmx86.EDX, 0)
		default:
			return errBadOperandSize
		}

	case opcode.ConstPri:
		if in.Operand() == 0 {
			as.XorRegReg(asmx86.EAX, asmx86.EAX)
		} else {
			as.MovRegImm(asmx86.EAX, in.Operand())
		}
	case opcode.ConstAlt:
		if in.Operand() == 0 {
			as.XorRegReg(asmx86.ECX, asmx86.ECX)
		} else {
			as.MovRegImm(asmx86.ECX, in.Operand())
		}

	case opcode.AddrPri:
		as.LeaRegMem(asmx86.EAX, asmx86.EBP, in.Operand())
		t.vmAddr(asmx86.EAX)
	case opcode.AddrAlt:
		as.LeaRegMem(asmx86.ECX, asmx86.EBP, in.Operand())
		t.vmAddr(asmx86.ECX)

	case opcode.StorPri:
		as.MovMemReg(asmx86.EBX, in.Operand(), asmx86.EAX)
	case opcode.StorAlt:
		as.MovMemReg(asmx86.EBX, in.Operand(), asmx86.ECX)
	case opcode.StorSPri:
		as.MovMemReg(asmx86.EBP, in.Operand(), asmx86.EAX)
	case opcode.StorSAlt:
		as.MovMemReg(asmx86.EBP, in.Operand(), asmx86.ECX)

	case opcode.SRefPri:
		as.MovRegMem(asmx86.EDX, asmx86.EBX, in.Operand())
		t.storeVM(asmx86.EDX, asmx86.EAX)
	case opcode.SRefAlt:
		as.MovRegMem(asmx86.EDX, asmx86.EBX, in.Operand())
		t.storeVM(asmx86.EDX, asmx86.ECX)
	case opcode.SRefSPri:
		as.MovRegMem(asmx86.EDX, asmx86.EBP, in.Operand())
		t.storeVM(asmx86.EDX, asmx86.EAX)
	case opcode.SRefSAlt:
		as.MovRegMem(asmx86.EDX, asmx86.EBP, in.Operand())
		t.storeVM(asmx86.EDX, asmx86.ECX)

	case opcode.StorI:
		t.storeVM(asmx86.EAX, asmx86.ECX)
	case opcode.StrbI:
		as.MovRegReg(asmx86.EDX, asmx86.EAX)
		t.nativeAddr(asmx86.EDX)
		switch w := in.Operand(); w {
		case 1:
			as.MovByteMem(asmx86.EDX, 0, asmx86.ECX)
		case 2:
			as.MovWordMem(asmx86.EDX, 0, asmx86.ECX)
		case 4:
			as.MovMemReg(asmx86.EDX, 0, asmx86.ECX)
		default:
			return errBadOperandSize
		}

	case opcode.Lidx:
		as.LeaRegIndex(asmx86.EAX, asmx86.ECX, asmx86.EAX, amx.CellSize, 0)
		t.derefVM(asmx86.EAX, asmx86.EAX)
	case opcode.LidxB:
		as.ShlRegImm(asmx86.EAX, uint8(in.Operand()))
		as.AddRegReg(asmx86.EAX, asmx86.ECX)
		t.derefVM(asmx86.EAX, asmx86.EAX)
	case opcode.IdxAddr:
		as.LeaRegIndex(asmx86.EAX, asmx86.ECX, asmx86.EAX, amx.CellSize, 0)
	case opcode.IdxAddrB:
		as.ShlRegImm(asmx86.EAX, uint8(in.Operand()))
		as.AddRegReg(asmx86.EAX, asmx86.ECX)

	case opcode.AlignPri:
		if n := in.Operand(); n < amx.CellSize {
			as.XorRegImm(asmx86.EAX, amx.CellSize-n)
		}
	case opcode.AlignAlt:
		if n := in.Operand(); n < amx.CellSize {
			as.XorRegImm(asmx86.ECX, amx.CellSize-n)
		}

	case opcode.MovePri:
		as.MovRegReg(asmx86.EAX, asmx86.ECX)
	case opcode.MoveAlt:
		as.MovRegReg(asmx86.ECX, asmx86.EAX)
	case opcode.Xchg:
		as.XchgRegReg(asmx86.EAX, asmx86.ECX)

	case opcode.ZeroPri:
		as.XorRegReg(asmx86.EAX, asmx86.EAX)
	case opcode.ZeroAlt:
		as.XorRegReg(asmx86.ECX, asmx86.ECX)
	case opcode.Zero:
		as.MovMemImm(asmx86.EBX, in.Operand(), 0)
	case opcode.ZeroS:
		as.MovMemImm(asmx86.EBP, in.Operand(), 0)

	case opcode.SignPri:
		as.MovsxRegReg8(asmx86.EAX, asmx86.EAX)
	case opcode.SignAlt:
		as.MovsxRegReg8(asmx86.ECX, asmx86.ECX)

	case opcode.SwapPri:
		as.MovRegMem(asmx86.EDX, asmx86.ESP, 0)
		as.MovMemReg(asmx86.ESP, 0, asmx86.EAX)
		as.MovRegReg(asmx86.EAX, asmx86.EDX)
	case opcode.SwapAlt:
		as.MovRegMem(asmx86.EDX, asmx86.ESP, 0)
		as.MovMemReg(asmx86.ESP, 0, asmx86.ECX)
		as.MovRegReg(asmx86.ECX, asmx86.EDX)

	case opcode.PushAdr:
		as.LeaRegMem(asmx86.EDX, asmx86.EBP, in.Operand())
		t.vmAddr(asmx86.EDX)
		as.PushReg(asmx86.EDX)

	default:
		return errUnknownOpcode
	}
	return nil
}
