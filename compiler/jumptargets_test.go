package compiler

import (
	"testing"

	"github.com/amxvm/amxjit/opcode"
)

func TestCollectJumpTargetsCallAndJump(t *testing.T) {
	instrs := []opcode.Instruction{
		{Addr: 0, Op: opcode.Call, Operands: []int32{16}},
		{Addr: 8, Op: opcode.Jump, Operands: []int32{24}},
	}
	targets := collectJumpTargets(instrs, 0)

	for _, want := range []int32{16, 24} {
		if !targets[want] {
			t.Errorf("targets missing %d: %v", want, targets)
		}
	}
	if len(targets) != 2 {
		t.Errorf("targets = %v, want exactly 2 entries", targets)
	}
}

func TestCollectJumpTargetsRebaseByCodeBase(t *testing.T) {
	const codeBase = 100
	instrs := []opcode.Instruction{
		{Addr: 0, Op: opcode.Jump, Operands: []int32{codeBase + 40}},
	}
	targets := collectJumpTargets(instrs, codeBase)

	if !targets[40] {
		t.Errorf("expected target rebased to 40, got %v", targets)
	}
}

func TestCollectJumpTargetsCasetbl(t *testing.T) {
	instrs := []opcode.Instruction{
		{
			Addr: 0,
			Op:   opcode.Casetbl,
			// default_addr, count, then (value, address) pairs.
			Operands: []int32{8, 2, 1, 16, 2, 24},
		},
	}
	targets := collectJumpTargets(instrs, 0)

	for _, want := range []int32{8, 16, 24} {
		if !targets[want] {
			t.Errorf("targets missing %d: %v", want, targets)
		}
	}
	if len(targets) != 3 {
		t.Errorf("targets = %v, want exactly 3 entries", targets)
	}
}

func TestCollectJumpTargetsProc(t *testing.T) {
	instrs := []opcode.Instruction{
		{Addr: 12, Op: opcode.Proc},
	}
	targets := collectJumpTargets(instrs, 0)

	if !targets[12] {
		t.Errorf("expected PROC's own address 12 to be a target, got %v", targets)
	}
}

func TestCollectJumpTargetsIgnoresNonBranching(t *testing.T) {
	instrs := []opcode.Instruction{
		{Addr: 0, Op: opcode.ConstPri, Operands: []int32{42}},
		{Addr: 8, Op: opcode.Halt, Operands: []int32{0}},
	}
	targets := collectJumpTargets(instrs, 0)

	if len(targets) != 0 {
		t.Errorf("targets = %v, want empty", targets)
	}
}
