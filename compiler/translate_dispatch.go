package compiler

import "github.com/amxvm/amxjit/opcode"

// translateOne emits the native sequence for a single decoded
// instruction, dispatching by opcode. Each group of related opcodes
// has its own translate_*.go file; this is just the switch that wires
// them together.
func (t *translator) translateOne(in opcode.Instruction) error {
	switch in.Op {
	case opcode.None:
		return nil

	case opcode.LoadPri, opcode.LoadAlt, opcode.LoadSPri, opcode.LoadSAlt,
		opcode.LRefPri, opcode.LRefAlt, opcode.LRefSPri, opcode.LRefSAlt,
		opcode.LoadI, opcode.LodbI,
		opcode.ConstPri, opcode.ConstAlt, opcode.AddrPri, opcode.AddrAlt,
		opcode.StorPri, opcode.StorAlt, opcode.StorSPri, opcode.StorSAlt,
		opcode.SRefPri, opcode.SRefAlt, opcode.SRefSPri, opcode.SRefSAlt,
		opcode.StorI, opcode.StrbI,
		opcode.Lidx, opcode.LidxB, opcode.IdxAddr, opcode.IdxAddrB,
		opcode.AlignPri, opcode.AlignAlt,
		opcode.MovePri, opcode.MoveAlt, opcode.Xchg,
		opcode.ZeroPri, opcode.ZeroAlt, opcode.Zero, opcode.ZeroS,
		opcode.SignPri, opcode.SignAlt,
		opcode.SwapPri, opcode.SwapAlt, opcode.PushAdr:
		return t.translateMemory(in)

	case opcode.PushPri, opcode.PushAlt, opcode.PushC, opcode.Push, opcode.PushS,
		opcode.PopPri, opcode.PopAlt,
		opcode.Stack, opcode.Heap, opcode.Proc, opcode.Ret, opcode.Retn, opcode.Call:
		return t.translateStack(in)

	case opcode.Jump, opcode.Jzer, opcode.Jnz,
		opcode.Jeq, opcode.Jneq, opcode.Jless, opcode.Jleq, opcode.Jgrtr, opcode.Jgeq,
		opcode.Jsless, opcode.Jsleq, opcode.Jsgrtr, opcode.Jsgeq:
		return t.translateCondJump(in)

	case opcode.Eq, opcode.Neq, opcode.Less, opcode.Leq, opcode.Grtr, opcode.Geq,
		opcode.Sless, opcode.Sleq, opcode.Sgrtr, opcode.Sgeq,
		opcode.EqCPri, opcode.EqCAlt:
		return t.translateCompare(in)

	case opcode.Shl, opcode.Shr, opcode.Sshr, opcode.ShlCPri, opcode.ShlCAlt,
		opcode.ShrCPri, opcode.ShrCAlt,
		opcode.Smul, opcode.Sdiv, opcode.SdivAlt, opcode.Umul, opcode.Udiv, opcode.UdivAlt,
		opcode.Add, opcode.Sub, opcode.SubAlt, opcode.And, opcode.Or, opcode.Xor,
		opcode.Not, opcode.Neg, opcode.Invert, opcode.AddC, opcode.SmulC,
		opcode.IncPri, opcode.IncAlt, opcode.Inc, opcode.IncS, opcode.IncI,
		opcode.DecPri, opcode.DecAlt, opcode.Dec, opcode.DecS, opcode.DecI:
		return t.translateArith(in)

	case opcode.Movs, opcode.Cmps, opcode.Fill:
		return t.translateBulk(in)

	case opcode.Halt, opcode.Bounds:
		return t.translateHaltBounds(in)

	case opcode.Lctrl, opcode.Sctrl:
		return t.translateCtrl(in)

	case opcode.SysreqPri, opcode.SysreqC, opcode.SysreqD:
		return t.translateSysreq(in)

	case opcode.JumpPri:
		return t.translateJumpPri(in)

	case opcode.Switch, opcode.Casetbl:
		return t.translateSwitch(in)

	case opcode.Nop:
		return nil

	case opcode.Break:
		return nil

	default:
		return errUnknownOpcode
	}
}
