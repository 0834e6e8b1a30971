package compiler

import "github.com/amxvm/amxjit/opcode"

// collectJumpTargets is the jump-target analyzer (spec component C2):
// a single pass over the already-decoded instruction stream that
// gathers every bytecode address later reachable by a direct jump,
// call, CASETBL branch, or PROC entry. The translator itself binds a
// label at every instruction's address before emitting it (see
// bindInstrStart), which covers every address in this set, so forward
// references resolve without a second code-generation pass.
//
// codeBase is the code section's offset within the full program
// image: jump/call operands are stored as absolute addresses within
// that image, and must be rebased to code-relative addresses (the
// same convention opcode.Instruction.Addr uses) before they can be
// compared against instruction addresses.
func collectJumpTargets(instrs []opcode.Instruction, codeBase int32) map[int32]bool {
	targets := make(map[int32]bool)
	for _, in := range instrs {
		switch {
		case in.Op.IsCall(), in.Op.IsJump():
			targets[in.Operand()-codeBase] = true

		case in.Op == opcode.Casetbl:
			// Operands: [default_addr, count, (value,address)...].
			targets[in.Operands[0]-codeBase] = true
			for i := 3; i < len(in.Operands); i += 2 {
				targets[in.Operands[i]-codeBase] = true
			}

		case in.Op == opcode.Proc:
			targets[in.Addr] = true
		}
	}
	return targets
}
