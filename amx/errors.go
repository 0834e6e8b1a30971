package amx

import "fmt"

// Error is an AMX runtime error code, propagated through Instance.Error
// and returned by the exec trampoline.
type Error int32

const (
	ErrNone Error = iota
	ErrExit
	ErrAssert
	ErrStackErr
	ErrBounds
	ErrMemAccess
	ErrInvInstr
	ErrStackLow
	ErrHeapLow
	ErrCallback
	ErrNative
	ErrDivide
	ErrSleep
	_
	ErrMemory
	ErrFormat
	ErrVersion
	ErrNotFound
	ErrIndex
	ErrDebug
	ErrInit
	ErrUserdata
	ErrInitJit
	ErrParams
	ErrDomain
	ErrGeneral
)

func (e Error) String() string {
	switch e {
	case ErrNone:
		return "no error"
	case ErrExit:
		return "forced exit"
	case ErrAssert:
		return "assertion failed"
	case ErrStackErr:
		return "stack/heap collision"
	case ErrBounds:
		return "index out of bounds"
	case ErrMemAccess:
		return "invalid memory access"
	case ErrInvInstr:
		return "invalid instruction"
	case ErrStackLow:
		return "stack underflow"
	case ErrHeapLow:
		return "heap underflow"
	case ErrCallback:
		return "no callback or invalid callback"
	case ErrNative:
		return "native function failed"
	case ErrDivide:
		return "divide by zero"
	case ErrMemory:
		return "out of memory"
	case ErrFormat:
		return "invalid file format"
	case ErrVersion:
		return "file is for a newer version of the AMX"
	case ErrNotFound:
		return "function not found"
	case ErrIndex:
		return "invalid index"
	case ErrDebug:
		return "debugger cannot run"
	case ErrInit:
		return "AMX not initialized"
	case ErrUserdata:
		return "unable to set user data field"
	case ErrInitJit:
		return "cannot initialize the JIT"
	case ErrParams:
		return "parameter error"
	case ErrDomain:
		return "domain error, expression result does not fit in range"
	case ErrGeneral:
		return "general error (unknown or unspecific error)"
	default:
		return fmt.Sprintf("unknown amx error %d", int32(e))
	}
}

func (e Error) Error() string { return e.String() }

func errUnresolvedNative(index int32) error {
	return fmt.Errorf("amx: native %d is not registered", index)
}
