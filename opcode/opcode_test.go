package opcode

import "testing"

func TestOpString(t *testing.T) {
	cases := []struct {
		op   Op
		want string
	}{
		{ConstPri, "CONST.PRI"},
		{Halt, "HALT"},
		{SysreqD, "SYSREQ.D"},
		{Op(-1), "OP(-1)"},
		{numOps, "OP(130)"},
	}
	for _, c := range cases {
		if got := c.op.String(); got != c.want {
			t.Errorf("Op(%d).String() = %q, want %q", int32(c.op), got, c.want)
		}
	}
}

func TestOpIsJump(t *testing.T) {
	jumps := []Op{Jump, Jzer, Jnz, Jeq, Jneq, Jless, Jleq, Jgrtr, Jgeq, Jsless, Jsleq, Jsgrtr, Jsgeq}
	for _, op := range jumps {
		if !op.IsJump() {
			t.Errorf("%s.IsJump() = false, want true", op)
		}
	}

	notJumps := []Op{Call, JumpPri, Sctrl, ConstPri, Halt}
	for _, op := range notJumps {
		if op.IsJump() {
			t.Errorf("%s.IsJump() = true, want false", op)
		}
	}
}

func TestOpIsCall(t *testing.T) {
	if !Call.IsCall() {
		t.Error("Call.IsCall() = false, want true")
	}
	if Jump.IsCall() {
		t.Error("Jump.IsCall() = true, want false")
	}
}

func TestOpNumOperandCells(t *testing.T) {
	cases := []struct {
		op   Op
		want int
	}{
		{None, 0},
		{Nop, 0},
		{Break, 0},
		{MovePri, 0},
		{ConstPri, 1},
		{Halt, 1},
		{Jump, 1},
		{Casetbl, -1},
	}
	for _, c := range cases {
		if got := c.op.NumOperandCells(); got != c.want {
			t.Errorf("%s.NumOperandCells() = %d, want %d", c.op, got, c.want)
		}
	}
}
