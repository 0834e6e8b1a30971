// Package intrinsics provides the backend's named-native substitution
// table (spec component C6): a handful of well-known FPU-heavy
// natives that the compiler emits inline instead of routing through
// SYSREQ_D's ordinary call/dispatch path, the same shortcut the
// reference backend takes for its emit_float family. Any native
// resolved through amx.Registry whose name matches a Name below skips
// runtime.SysreqDHelper entirely.
//
// Every intrinsic follows the same calling convention as a compiled
// SYSREQ_C/SYSREQ_D call site: arguments are the raw 32-bit cells
// pushed onto the (shared native/VM) stack by preceding PUSH.C
// instructions, in left-to-right AMX push order, so the first pushed
// argument sits deepest and the last sits at [esp+4] across the
// return address left by the CALL that reaches the intrinsic body.
// Floats are AMX cells holding an IEEE-754 single-precision bit
// pattern, never a distinct VM type — Emit reads and writes that bit
// pattern through memory, the same trick the reference implementation
// uses to move values between the integer ALU and the x87 stack.
// Each body pops its own arguments with a "ret n" and leaves its
// single-cell result in PRI (EAX), matching the SYSREQ result
// contract every other native call site expects.
package intrinsics

import "github.com/amxvm/amxjit/asmx86"

// Name is the native-function name the compiler matches against
// amx.Registry.NativeName before treating a SYSREQ as an intrinsic
// call instead of an ordinary dispatch.
type Name string

const (
	Float       Name = "float"
	FloatAbs    Name = "floatabs"
	FloatAdd    Name = "floatadd"
	FloatSub    Name = "floatsub"
	FloatMul    Name = "floatmul"
	FloatDiv    Name = "floatdiv"
	FloatSqroot Name = "floatsqroot"
	FloatLog    Name = "floatlog"
)

// Argc reports how many cell arguments the intrinsic named n takes:
// the same count each body's RET imm16 releases, n*4 bytes.
func Argc(n Name) (int, bool) {
	switch n {
	case Float, FloatAbs, FloatSqroot:
		return 1, true
	case FloatAdd, FloatSub, FloatMul, FloatDiv, FloatLog:
		return 2, true
	default:
		return 0, false
	}
}

// Lookup reports whether name matches a known intrinsic, and if so,
// which.
func Lookup(name string) (Name, bool) {
	switch Name(name) {
	case Float, FloatAbs, FloatAdd, FloatSub, FloatMul, FloatDiv, FloatSqroot, FloatLog:
		return Name(name), true
	default:
		return "", false
	}
}

// Emit appends the machine code for intrinsic n directly at the
// assembler's current position and returns the label marking its
// entry, for the compiler to record as the SYSREQ's call target.
func Emit(as asmx86.Assembler, n Name) asmx86.Label {
	entry := as.Mark()
	switch n {
	case Float:
		// float(value): reinterpret an integer cell as an IEEE float
		// by round-tripping it through the FPU's integer load/store,
		// i.e. an int-to-float conversion, not a bit-pattern copy.
		as.Fild(asmx86.ESP, 4)
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(4)

	case FloatAbs:
		as.Fld(asmx86.ESP, 4)
		as.Fabs()
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(4)

	case FloatAdd:
		as.Fld(asmx86.ESP, 4)
		as.FaddMem(asmx86.ESP, 8)
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(8)

	case FloatSub:
		as.Fld(asmx86.ESP, 8)
		as.FsubMem(asmx86.ESP, 4)
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(8)

	case FloatMul:
		as.Fld(asmx86.ESP, 4)
		as.FmulMem(asmx86.ESP, 8)
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(8)

	case FloatDiv:
		// floatdiv(dividend, divisor): matches AMX push order, so
		// the divisor (pushed last) is the nearer operand.
		as.Fld(asmx86.ESP, 8)
		as.FdivMem(asmx86.ESP, 4)
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(8)

	case FloatSqroot:
		as.Fld(asmx86.ESP, 4)
		as.Fsqrt()
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(4)

	case FloatLog:
		// floatlog(value, base) = log2(value) / log2(base), via two
		// FYL2X reductions (each computes st(1)*log2(st(0)), popping
		// both and pushing one result) and a final divide.
		as.Fld1()
		as.Fld(asmx86.ESP, 4) // value
		as.Fyl2x()            // st0 = log2(value)
		as.Fld1()
		as.Fld(asmx86.ESP, 8) // base
		as.Fyl2x()            // st0 = log2(base), st1 = log2(value)
		as.Fdivrp()           // st0 = log2(value) / log2(base), popped into st1's slot
		as.Fstp(asmx86.ESP, 4)
		as.MovRegMem(asmx86.EAX, asmx86.ESP, 4)
		as.RetImm16(8)
	}
	return entry
}
