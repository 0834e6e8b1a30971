package compiler

import (
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/opcode"
)

// translateJumpPri handles JUMP.PRI, the unconditional form of the
// computed jump (SCTRL 6 is the other): emitComputedJump does all the
// work since both set CIP to a runtime value read from PRI.
func (t *translator) translateJumpPri(in opcode.Instruction) error {
	if in.Op != opcode.JumpPri {
		return errUnknownOpcode
	}
	t.emitComputedJump()
	return nil
}

// translateSwitch handles SWITCH and its companion CASETBL. CASETBL is
// data, not code — it is decoded as an instruction only because it is
// interleaved inline in the bytecode stream right after the SWITCH
// that references it, so translating it emits nothing. SWITCH does all
// the work: it looks up that CASETBL by the bytecode address in its
// own operand and compiles PRI's comparison against every case value
// directly into a chain of compile-time-resolved conditional jumps,
// since every case value and target in a case table is a compile-time
// constant, unlike JUMP_PRI/SCTRL 6's genuinely dynamic target.
func (t *translator) translateSwitch(in opcode.Instruction) error {
	switch in.Op {
	case opcode.Switch:
		tbl, ok := t.instrByAddr[in.Operand()-t.codeBase]
		if !ok || tbl.Op != opcode.Casetbl {
			return errBadCaseTable
		}
		as := t.as
		count := int(tbl.Operands[1])
		defLabel := t.targetLabel(tbl.Operands[0])

		if count > 0 {
			min, max := tbl.Operands[2], tbl.Operands[2]
			for i := 1; i < count; i++ {
				v := tbl.Operands[2+2*i]
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			as.CmpRegImm(asmx86.EAX, min)
			as.Jcc(asmx86.CondL, defLabel)
			as.CmpRegImm(asmx86.EAX, max)
			as.Jcc(asmx86.CondG, defLabel)
		}

		for i := 0; i < count; i++ {
			value := tbl.Operands[2+2*i]
			addr := tbl.Operands[3+2*i]
			as.CmpRegImm(asmx86.EAX, value)
			as.Jcc(asmx86.CondE, t.targetLabel(addr))
		}
		as.Jmp(defLabel)

	case opcode.Casetbl:
		// Nothing to emit; SWITCH above already consumed this table.

	default:
		return errUnknownOpcode
	}
	return nil
}
