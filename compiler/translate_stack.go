package compiler

import (
	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/opcode"
)

// translateStack handles the PUSH/POP/STACK/HEAP/PROC/RET/RETN/CALL
// family. The VM data stack and the host stack are the same memory
// (esp is STK's native address, see the register contract on the
// translator type in translator.go), so most of these compile to the matching native
// push/pop/call/ret instead of manual cell arithmetic.
func (t *translator) translateStack(in opcode.Instruction) error {
	as := t.as
	switch in.Op {
	case opcode.PushPri:
		as.PushReg(asmx86.EAX)
	case opcode.PushAlt:
		as.PushReg(asmx86.ECX)
	case opcode.PushC:
		as.PushImm(in.Operand())
	case opcode.Push:
		as.PushMem(asmx86.EBX, in.Operand())
	case opcode.PushS:
		as.PushMem(asmx86.EBP, in.Operand())

	case opcode.PopPri:
		as.PopReg(asmx86.EAX)
	case opcode.PopAlt:
		as.PopReg(asmx86.ECX)

	case opcode.Stack:
		as.MovRegReg(asmx86.ECX, asmx86.ESP)
		t.vmAddr(asmx86.ECX)
		as.AddRegImm(asmx86.ESP, in.Operand())

	case opcode.Heap:
		as.MovRegAbs(asmx86.ESI, int32(t.layout.SlotAddr(slotAmxPtr)))
		as.MovRegMem(asmx86.ECX, asmx86.ESI, t.off.Hea)
		as.MovRegReg(asmx86.EDX, asmx86.ECX)
		as.AddRegImm(asmx86.EDX, in.Operand())
		as.MovMemReg(asmx86.ESI, t.off.Hea, asmx86.EDX)

	case opcode.Proc:
		as.Align(16)
		as.MovRegReg(asmx86.EDX, asmx86.EBP)
		t.vmAddr(asmx86.EDX)
		as.PushReg(asmx86.EDX)
		as.MovRegReg(asmx86.EBP, asmx86.ESP)

	case opcode.Ret:
		as.PopReg(asmx86.EBP)
		t.nativeAddr(asmx86.EBP)
		as.Ret()

	case opcode.Retn:
		as.PopReg(asmx86.EBP)
		t.nativeAddr(asmx86.EBP)
		as.PopReg(asmx86.EDX)
		as.MovRegMem(asmx86.EDI, asmx86.ESP, 0)
		as.AddRegImm(asmx86.EDI, amx.CellSize)
		as.AddRegReg(asmx86.ESP, asmx86.EDI)
		as.JmpReg(asmx86.EDX)

	case opcode.Call:
		as.Call(t.targetLabel(in.Operand()))

	default:
		return errUnknownOpcode
	}
	return nil
}
