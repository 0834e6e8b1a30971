package compiler

import (
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/opcode"
)

// translateCompare handles the PRI/ALT relational opcodes: each
// leaves a boolean (0 or 1) in PRI.
func (t *translator) translateCompare(in opcode.Instruction) error {
	as := t.as
	setBool := func(cond asmx86.Cond) {
		as.XorRegReg(asmx86.EDX, asmx86.EDX)
		as.SetccReg(cond, asmx86.EDX)
		as.MovRegReg(asmx86.EAX, asmx86.EDX)
	}

	switch in.Op {
	case opcode.Eq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondE)
	case opcode.Neq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondNE)
	case opcode.Less:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondB)
	case opcode.Leq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondBE)
	case opcode.Grtr:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondA)
	case opcode.Geq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondAE)
	case opcode.Sless:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondL)
	case opcode.Sleq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondLE)
	case opcode.Sgrtr:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondG)
	case opcode.Sgeq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		setBool(asmx86.CondGE)

	case opcode.EqCPri:
		as.CmpRegImm(asmx86.EAX, in.Operand())
		setBool(asmx86.CondE)
	case opcode.EqCAlt:
		as.CmpRegImm(asmx86.ECX, in.Operand())
		setBool(asmx86.CondE)

	default:
		return errUnknownOpcode
	}
	return nil
}

// translateCondJump handles JUMP and every PRI/ALT-vs-PRI/ALT
// conditional branch; JUMP itself carries no comparison.
func (t *translator) translateCondJump(in opcode.Instruction) error {
	as := t.as
	lbl := t.targetLabel(in.Operand())

	if in.Op == opcode.Jump {
		as.Jmp(lbl)
		return nil
	}

	switch in.Op {
	case opcode.Jzer:
		as.CmpRegImm(asmx86.EAX, 0)
		as.Jcc(asmx86.CondE, lbl)
	case opcode.Jnz:
		as.CmpRegImm(asmx86.EAX, 0)
		as.Jcc(asmx86.CondNE, lbl)
	case opcode.Jeq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondE, lbl)
	case opcode.Jneq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondNE, lbl)
	case opcode.Jless:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondB, lbl)
	case opcode.Jleq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondBE, lbl)
	case opcode.Jgrtr:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondA, lbl)
	case opcode.Jgeq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondAE, lbl)
	case opcode.Jsless:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondL, lbl)
	case opcode.Jsleq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondLE, lbl)
	case opcode.Jsgrtr:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondG, lbl)
	case opcode.Jsgeq:
		as.CmpRegReg(asmx86.EAX, asmx86.ECX)
		as.Jcc(asmx86.CondGE, lbl)
	default:
		return errUnknownOpcode
	}
	return nil
}
