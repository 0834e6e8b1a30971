package compiler

import (
	"fmt"

	"github.com/amxvm/amxjit/opcode"
)

// TranslateError reports why compilation of one instruction failed.
// Compile passes this to the caller's amx.ErrorHandler and returns a
// nil Backend; it never returns a partially built code block.
type TranslateError struct {
	IP  int32
	Op  opcode.Op
	Err error
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("amxjit: compile %s at %#x: %v", e.Op, e.IP, e.Err)
}

func (e *TranslateError) Unwrap() error { return e.Err }

// Sentinel translation errors. Wrapped into a TranslateError with the
// offending instruction before reaching the caller.
var (
	errUnknownOpcode     = fmt.Errorf("unknown opcode")
	errBadOperandSize    = fmt.Errorf("unsupported operand width")
	errBadCtrlIndex      = fmt.Errorf("unsupported LCTRL/SCTRL index")
	errBadFillSize       = fmt.Errorf("FILL size not a multiple of cell size")
	errUnresolvedSysreqD = fmt.Errorf("SYSREQ.D target address not in the native registry")
	errBadCaseTable      = fmt.Errorf("malformed CASETBL operand layout")
)
