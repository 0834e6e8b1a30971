package compiler

import (
	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/intrinsics"
	"github.com/amxvm/amxjit/opcode"
)

// translateSysreq handles the three native-call forms. SYSREQ.C and
// SYSREQ.D carry the native's identity as a compile-time constant (an
// index and a host address respectively), which lets the translator
// check the intrinsic table (§C6) up front and skip the call entirely
// for a matched name; SYSREQ.PRI's identity is a runtime value in PRI,
// so it always takes the general dispatch path through
// sysreq_pri_helper.
//
// The general path pushes {paramsAddr, nativeIndex} and calls the
// matching helper, which crosses into the Go bridge; paramsAddr is
// simply the VM-relative address of the current top of stack, since
// AMX's calling convention already leaves the argument count cell
// there (pushed last, by the bytecode preceding this instruction).
// Calling a pre-emitted intrinsic body instead discards that argcount
// cell first, since intrinsics.Emit's bodies assume no such cell.
func (t *translator) translateSysreq(in opcode.Instruction) error {
	as := t.as
	switch in.Op {
	case opcode.SysreqC:
		if lbl, ok := t.intrinsicForIndex(in.Operand()); ok {
			as.AddRegImm(asmx86.ESP, amx.CellSize)
			as.Call(lbl)
			return nil
		}
		t.emitSysreqDispatch(in.Operand(), t.entries.SysreqCHelper)

	case opcode.SysreqD:
		index, ok := t.registry.FindNative(uint32(in.Operand()))
		if !ok {
			return errUnresolvedSysreqD
		}
		if lbl, ok := t.intrinsicForIndex(index); ok {
			as.AddRegImm(asmx86.ESP, amx.CellSize)
			as.Call(lbl)
			return nil
		}
		t.emitSysreqDispatch(index, t.entries.SysreqDHelper)

	case opcode.SysreqPri:
		as.MovRegReg(asmx86.EDX, asmx86.ESP)
		t.vmAddr(asmx86.EDX)
		as.PushReg(asmx86.EDX) // paramsAddr, pushed first so it lands deepest
		as.PushReg(asmx86.EAX) // native index, read from PRI at runtime
		as.Call(t.entries.SysreqPriHelper)

	default:
		return errUnknownOpcode
	}
	return nil
}

// intrinsicForIndex reports the pre-emitted intrinsic label for the
// native at index, if its name matches one of intrinsics.Lookup's
// names.
func (t *translator) intrinsicForIndex(index int32) (asmx86.Label, bool) {
	if t.registry == nil {
		return asmx86.Label{}, false
	}
	name, ok := t.registry.NativeName(index)
	if !ok {
		return asmx86.Label{}, false
	}
	iname, ok := intrinsics.Lookup(name)
	if !ok {
		return asmx86.Label{}, false
	}
	lbl, ok := t.intrinsicLabels[iname]
	return lbl, ok
}

// emitSysreqDispatch pushes the general dispatch path's two-word
// argument list and calls helper. index is a compile-time constant
// for both SYSREQ.C (already a native index) and SYSREQ.D (resolved
// from its address operand by the caller above).
func (t *translator) emitSysreqDispatch(index int32, helper asmx86.Label) {
	as := t.as
	as.MovRegReg(asmx86.EDX, asmx86.ESP)
	t.vmAddr(asmx86.EDX)
	as.PushReg(asmx86.EDX)
	as.PushImm(index)
	as.Call(helper)
}
