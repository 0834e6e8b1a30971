package runtime

import (
	"unsafe"

	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
)

// Header slot indices, mirrored from package compiler (unexported
// there, so duplicated here rather than introducing an import cycle
// between compiler and runtime). Compile is responsible for keeping
// the two declarations in sync; see compiler/header.go.
const (
	slotExecPtr = iota
	slotAmxPtr
	slotEbpSave
	slotEspSave
	slotInstrMapSize
	slotInstrMapPtr
	slotDataBase
	slotCodeBase
	slotRetval
)

// InstanceOffsets is the compile-time byte layout of amx.Instance's
// fields, used to address them directly from emitted machine code.
// Computed once via unsafe.Offsetof; stable for the lifetime of a Go
// build, since the compiled code and the Instance type always come
// from the same binary.
type InstanceOffsets struct {
	Frm        int32
	Stk        int32
	Hea        int32
	Hlw        int32
	Stp        int32
	Error      int32
	Flags      int32
	ParamCount int32
}

// NewInstanceOffsets returns the current build's amx.Instance layout.
func NewInstanceOffsets() InstanceOffsets {
	var in amx.Instance
	return InstanceOffsets{
		Frm:        int32(unsafe.Offsetof(in.Frm)),
		Stk:        int32(unsafe.Offsetof(in.Stk)),
		Hea:        int32(unsafe.Offsetof(in.Hea)),
		Hlw:        int32(unsafe.Offsetof(in.Hlw)),
		Stp:        int32(unsafe.Offsetof(in.Stp)),
		Error:      int32(unsafe.Offsetof(in.Error)),
		Flags:      int32(unsafe.Offsetof(in.Flags)),
		ParamCount: int32(unsafe.Offsetof(in.ParamCount)),
	}
}

// Entries names the entry label of every trampoline Emit produces, so
// the compiler can patch header slot 0 (exec_ptr) and route
// SYSREQ/JUMP translations to the right helper.
type Entries struct {
	Exec            asmx86.Label
	ExecHelper      asmx86.Label
	HaltHelper      asmx86.Label
	JumpHelper      asmx86.Label
	SysreqCHelper   asmx86.Label
	SysreqDHelper   asmx86.Label
	SysreqPriHelper asmx86.Label
}

// Emit lays down all six trampolines (spec component C4), plus the
// sysreq_pri_helper alias, at the head of the code stream, in the
// order the reference backend emits them: exec first, since it is the
// block's sole external entry point, advertised through header slot 0.
//
// bridgeEntry is the Go bridge's entry PC (runtime.bridgeEntryAddr());
// bridgeCtx is the address of a BridgeContext this Backend keeps alive
// for its whole lifetime, baked in as a literal constant because one
// Backend owns exactly one BridgeContext.
func Emit(as asmx86.Assembler, layout Layout, off InstanceOffsets, bridgeEntry uintptr, bridgeCtx uint32) Entries {
	e := Entries{
		Exec:            as.NewLabel(),
		ExecHelper:      as.NewLabel(),
		HaltHelper:      as.NewLabel(),
		JumpHelper:      as.NewLabel(),
		SysreqCHelper:   as.NewLabel(),
		SysreqDHelper:   as.NewLabel(),
		SysreqPriHelper: as.NewLabel(),
	}
	emitExec(as, layout, off, e, bridgeEntry, bridgeCtx)
	emitExecHelper(as, layout, off, e)
	emitHaltHelper(as, layout, e)
	emitJumpHelper(as, layout, e)
	emitSysreqCHelper(as, e)
	emitSysreqPriHelper(as, e)
	emitSysreqDHelper(as, layout, e, bridgeEntry, bridgeCtx)
	return e
}

// emitExec builds the host-callable entry point: exec(index, retval)
// -> error code, cdecl. index names a public function. exec validates
// the instance's stack/heap invariants, clears the error field,
// resolves the public's bytecode address through the Go bridge (the
// registry is the only thing that knows how public indices map to
// addresses), locates its native entry through the instruction map,
// pushes the instance's pending argument byte count as the call's
// header cell, and hands off to exec_helper to actually run the VM.
// Validation failures and a missing index both skip exec_helper
// entirely, store their error code in the instance's error field, and
// leave *retval untouched, since no public ever ran.
func emitExec(as asmx86.Assembler, layout Layout, off InstanceOffsets, e Entries, bridgeEntry uintptr, bridgeCtx uint32) {
	as.Bind(e.Exec)
	as.PushReg(asmx86.EBP)
	as.MovRegReg(asmx86.EBP, asmx86.ESP)
	as.PushReg(asmx86.ESI)
	as.PushReg(asmx86.EDI)
	as.PushReg(asmx86.EBX)

	stackerr := as.NewLabel()
	heaplow := as.NewLabel()
	stacklow := as.NewLabel()
	notFound := as.NewLabel()
	instrMiss := as.NewLabel()
	hit := as.NewLabel()
	done := as.NewLabel()
	fail := as.NewLabel()
	exit := as.NewLabel()

	as.MovRegAbs(asmx86.ESI, int32(layout.SlotAddr(slotAmxPtr)))

	as.MovRegMem(asmx86.EDX, asmx86.ESI, off.Hea)
	as.MovRegMem(asmx86.EAX, asmx86.ESI, off.Stk)
	as.CmpRegReg(asmx86.EDX, asmx86.EAX)
	as.Jcc(asmx86.CondGE, stackerr)

	as.MovRegMem(asmx86.EDX, asmx86.ESI, off.Hea)
	as.MovRegMem(asmx86.EAX, asmx86.ESI, off.Hlw)
	as.CmpRegReg(asmx86.EDX, asmx86.EAX)
	as.Jcc(asmx86.CondL, heaplow)

	as.MovRegMem(asmx86.EDX, asmx86.ESI, off.Stk)
	as.MovRegMem(asmx86.EAX, asmx86.ESI, off.Stp)
	as.CmpRegReg(asmx86.EDX, asmx86.EAX)
	as.Jcc(asmx86.CondG, stacklow)

	as.MovRegMem(asmx86.EDX, asmx86.ESI, off.Flags)
	as.AndRegImm(asmx86.EDX, int32(amx.FlagNativeRegistered))
	as.CmpRegImm(asmx86.EDX, 0)
	as.Jcc(asmx86.CondE, notFound)

	as.MovMemImm(asmx86.ESI, off.Error, int32(amx.ErrNone))

	as.PushImm(0) // b, unused by opResolvePublic
	as.MovRegMem(asmx86.EDX, asmx86.EBP, 8)
	as.PushReg(asmx86.EDX) // a: the public index
	as.PushImm(int32(opResolvePublic))
	as.PushImm(int32(bridgeCtx))
	as.CallAddr(bridgeEntry)
	as.AddRegImm(asmx86.ESP, 16)

	as.CmpRegImm(asmx86.EAX, 0)
	as.Jcc(asmx86.CondE, notFound)

	// key=eax, scratch=ebx: neither is in the esi/edi/ecx/edx set the
	// search clobbers internally.
	emitInstrMapSearch(as, layout, asmx86.EAX, asmx86.EBX, instrMiss, hit)

	as.Bind(hit)
	as.MovRegMem(asmx86.EBX, asmx86.EBX, 4) // native entry address
	as.MovRegAbs(asmx86.ESI, int32(layout.SlotAddr(slotAmxPtr)))

	// Push paramcount*cellsize as the header cell every call expects
	// below its return address, then clear paramcount: its arguments
	// are now owned by this call.
	as.MovRegMem(asmx86.EDX, asmx86.ESI, off.ParamCount)
	as.ShlRegImm(asmx86.EDX, 2)
	as.MovRegMem(asmx86.EAX, asmx86.ESI, off.Stk)
	as.SubRegImm(asmx86.EAX, amx.CellSize)
	as.MovMemReg(asmx86.ESI, off.Stk, asmx86.EAX)
	as.MovRegAbs(asmx86.EDI, int32(layout.SlotAddr(slotDataBase)))
	as.AddRegReg(asmx86.EDI, asmx86.EAX)
	as.MovMemReg(asmx86.EDI, 0, asmx86.EDX)
	as.MovMemImm(asmx86.ESI, off.ParamCount, 0)

	// A native invoked from within this run may itself call exec() on
	// the same instance; save the outer ebp_save/esp_save locally so
	// exec_helper overwriting them for the nested call doesn't strand
	// this invocation's own unwind anchor.
	as.MovRegAbs(asmx86.EDX, int32(layout.SlotAddr(slotEbpSave)))
	as.PushReg(asmx86.EDX)
	as.MovRegAbs(asmx86.EDX, int32(layout.SlotAddr(slotEspSave)))
	as.PushReg(asmx86.EDX)

	as.PushReg(asmx86.EBX)
	as.Call(e.ExecHelper)
	as.AddRegImm(asmx86.ESP, 4)

	as.PopReg(asmx86.EDX)
	as.MovAbsReg(int32(layout.SlotAddr(slotEspSave)), asmx86.EDX)
	as.PopReg(asmx86.EDX)
	as.MovAbsReg(int32(layout.SlotAddr(slotEbpSave)), asmx86.EDX)
	as.Jmp(done)

	as.Bind(stackerr)
	as.MovRegImm(asmx86.EAX, int32(amx.ErrStackErr))
	as.Jmp(fail)
	as.Bind(heaplow)
	as.MovRegImm(asmx86.EAX, int32(amx.ErrHeapLow))
	as.Jmp(fail)
	as.Bind(stacklow)
	as.MovRegImm(asmx86.EAX, int32(amx.ErrStackLow))
	as.Jmp(fail)
	as.Bind(instrMiss)
	as.MovRegImm(asmx86.EAX, int32(amx.ErrIndex))
	as.Jmp(fail)
	as.Bind(notFound)
	as.MovRegImm(asmx86.EAX, int32(amx.ErrIndex))

	as.Bind(fail)
	// esi may not hold the amx pointer any more (the bridge call and the
	// instruction-map search both clobber it); reload it through edx.
	as.MovRegAbs(asmx86.EDX, int32(layout.SlotAddr(slotAmxPtr)))
	as.MovMemReg(asmx86.EDX, off.Error, asmx86.EAX)
	as.Jmp(exit)

	// Reached with eax already holding the error code: exec_helper's
	// own tail leaves it there on a normal return, and doHalt's jump
	// into halt_helper leaves it there on a HALT/BOUNDS exit.
	as.Bind(done)
	as.MovRegAbs(asmx86.EDX, int32(layout.SlotAddr(slotRetval)))
	as.MovRegMem(asmx86.ECX, asmx86.EBP, 12) // retval out-param pointer
	as.MovMemReg(asmx86.ECX, 0, asmx86.EDX)

	as.Bind(exit)
	as.PopReg(asmx86.EBX)
	as.PopReg(asmx86.EDI)
	as.PopReg(asmx86.ESI)
	as.MovRegReg(asmx86.ESP, asmx86.EBP)
	as.PopReg(asmx86.EBP)
	as.Ret()
}

// emitExecHelper performs the host-to-VM stack switch: it saves the
// host's ebp/esp, computes ebp<-FRM and esp<-STK from the instance's
// current Frm/Stk and the data-base pointer, zeroes PRI/ALT, and calls
// into the compiled entry point — a genuine call, not a jump, so that
// the entry's own RETN, once it unwinds every nested PROC/CALL frame
// back to this one, lands right back here through ordinary native ret
// machinery. A HALT/BOUNDS exit from any depth instead reaches
// halt_helper, which bypasses this unwind entirely and returns straight
// to exec; only a normal completion writes frm/stk back to the
// instance.
func emitExecHelper(as asmx86.Assembler, layout Layout, off InstanceOffsets, e Entries) {
	as.Bind(e.ExecHelper)
	as.MovRegMem(asmx86.EDI, asmx86.ESP, 4) // entryAddr argument

	as.MovAbsReg(int32(layout.SlotAddr(slotEbpSave)), asmx86.EBP)
	as.MovAbsReg(int32(layout.SlotAddr(slotEspSave)), asmx86.ESP)

	as.MovRegAbs(asmx86.ESI, int32(layout.SlotAddr(slotAmxPtr)))
	as.MovRegAbs(asmx86.EBX, int32(layout.SlotAddr(slotDataBase)))

	as.MovRegMem(asmx86.EDX, asmx86.ESI, off.Frm)
	as.AddRegReg(asmx86.EDX, asmx86.EBX)
	as.MovRegReg(asmx86.EBP, asmx86.EDX)

	as.MovRegMem(asmx86.EDX, asmx86.ESI, off.Stk)
	as.AddRegReg(asmx86.EDX, asmx86.EBX)
	as.MovRegReg(asmx86.ESP, asmx86.EDX)

	as.XorRegReg(asmx86.EAX, asmx86.EAX)
	as.XorRegReg(asmx86.ECX, asmx86.ECX)

	as.CallReg(asmx86.EDI)

	// Normal completion lands here with PRI holding the public's return
	// value. esi/edi/edx/ecx are scratch to the translated code and may
	// have been clobbered anywhere in the run; ebx (the data base) is
	// the one register every opcode promises to preserve.
	as.MovRegAbs(asmx86.ESI, int32(layout.SlotAddr(slotAmxPtr)))
	as.MovAbsReg(int32(layout.SlotAddr(slotRetval)), asmx86.EAX)

	as.MovRegReg(asmx86.EDX, asmx86.EBP)
	as.SubRegReg(asmx86.EDX, asmx86.EBX)
	as.MovMemReg(asmx86.ESI, off.Frm, asmx86.EDX)

	as.MovRegReg(asmx86.EDX, asmx86.ESP)
	as.SubRegReg(asmx86.EDX, asmx86.EBX)
	as.MovMemReg(asmx86.ESI, off.Stk, asmx86.EDX)

	as.MovRegMem(asmx86.EAX, asmx86.ESI, off.Error) // ErrNone unless something already changed it

	as.MovRegAbs(asmx86.EBP, int32(layout.SlotAddr(slotEbpSave)))
	as.MovRegAbs(asmx86.ESP, int32(layout.SlotAddr(slotEspSave)))
	as.Ret()
}

// emitHaltHelper restores the host's ebp/esp from the values
// exec_helper saved and returns control to exec, exactly as though
// `call execHelper` had returned normally, skipping exec_helper's own
// frm/stk writeback — a halted run's frame is being discarded, not
// preserved, so the instance's Frm/Stk are left as exec set them just
// before calling exec_helper (Stk already lowered by the one header
// cell exec pushed). Translated code reaches this through
// the shared do_halt tail (see compiler/translator.go): HALT and
// BOUNDS-failure paths stash the AMX return value in slotRetval, write
// the exit code to the instance's error field, and leave the same
// code in eax before jumping here.
func emitHaltHelper(as asmx86.Assembler, layout Layout, e Entries) {
	as.Bind(e.HaltHelper)
	as.MovRegAbs(asmx86.EBP, int32(layout.SlotAddr(slotEbpSave)))
	as.MovRegAbs(asmx86.ESP, int32(layout.SlotAddr(slotEspSave)))
	as.Ret()
}

// emitJumpHelper implements JUMP_PRI / SCTRL 6 (CIP write): given a
// bytecode address pushed by the caller, it looks the address up in
// the instruction map and either transfers control to the matching
// native address (restoring the requested frame/stack) or, on a miss,
// returns normally with PRI/ALT/ebx untouched, matching the reference
// VM's no-op behavior for an unresolvable computed jump.
//
// Callers push stack_ptr=esp, then stack_base=ebp, then pri last (so
// pri ends up nearest the return address) and call jumpHelper. On a
// hit control never returns to the call site.
func emitJumpHelper(as asmx86.Assembler, layout Layout, e Entries) {
	as.Bind(e.JumpHelper)

	as.PushReg(asmx86.EAX)
	as.PushReg(asmx86.ECX)
	as.PushReg(asmx86.EBX)

	miss := as.NewLabel()
	hit := as.NewLabel()

	// key=ebx, scratch=eax: both were saved above and neither is in the
	// esi/edi/ecx/edx set the search clobbers internally.
	as.MovRegMem(asmx86.EBX, asmx86.ESP, 16) // target bytecode address
	emitInstrMapSearch(as, layout, asmx86.EBX, asmx86.EAX, miss, hit)

	as.Bind(hit)
	as.MovRegMem(asmx86.EDI, asmx86.EAX, 4) // native address
	as.MovRegMem(asmx86.EBP, asmx86.ESP, 20) // stack_base arg
	as.MovRegMem(asmx86.ESI, asmx86.ESP, 24) // stack_ptr arg
	as.PopReg(asmx86.EBX)
	as.PopReg(asmx86.ECX)
	as.PopReg(asmx86.EAX)
	as.MovRegReg(asmx86.ESP, asmx86.ESI)
	as.JmpReg(asmx86.EDI)

	as.Bind(miss)
	as.PopReg(asmx86.EBX)
	as.PopReg(asmx86.ECX)
	as.PopReg(asmx86.EAX)
	as.RetImm16(12)
}

// emitInstrMapSearch emits a binary search of the instruction map for
// key, leaving &entries[mid] in scratch on a hit (bound at hit) and
// jumping to notFound on a miss. The search clobbers esi/edi/ecx/edx
// internally; key and scratch must not be chosen from that set unless
// the caller has already preserved them.
func emitInstrMapSearch(as asmx86.Assembler, layout Layout, key, scratch asmx86.Reg, notFound, hit asmx86.Label) {
	lo, hi, mid, tmp := asmx86.ESI, asmx86.EDI, asmx86.ECX, asmx86.EDX
	loop := as.NewLabel()
	right := as.NewLabel()

	as.XorRegReg(lo, lo)
	as.MovRegImm(hi, layout.InstrMapSize)

	as.Bind(loop)
	as.CmpRegReg(lo, hi)
	as.Jcc(asmx86.CondGE, notFound)

	as.MovRegReg(mid, lo)
	as.AddRegReg(mid, hi)
	as.SarRegImm(mid, 1)

	as.MovRegReg(scratch, mid)
	as.ShlRegImm(scratch, 3)
	as.AddRegImm(scratch, int32(layout.InstrMapBase()))

	as.MovRegMem(tmp, scratch, 0)
	as.CmpRegReg(tmp, key)
	as.Jcc(asmx86.CondE, hit)
	as.Jcc(asmx86.CondL, right)
	as.MovRegReg(hi, mid)
	as.Jmp(loop)
	as.Bind(right)
	as.LeaRegMem(lo, mid, 1)
	as.Jmp(loop)
}

// emitSysreqCHelper is SYSREQ.C's entry, an alias that jumps straight
// into sysreq_d_helper: the translator pushes the same {paramsAddr,
// nativeIndex} pair for SYSREQ.C and SYSREQ.D (SYSREQ.D's address
// operand is resolved to an index at compile time), so the invocation
// path is identical.
func emitSysreqCHelper(as asmx86.Assembler, e Entries) {
	as.Bind(e.SysreqCHelper)
	as.Jmp(e.SysreqDHelper)
}

// emitSysreqPriHelper is SYSREQ.PRI's entry: the PRI-indexed form of
// SYSREQ.C. The only difference from the constant-operand form is
// where the translator got the index from (PRI at runtime instead of
// the instruction's own operand) — by the time it's pushed on the
// stack it's the same native index, so this is the same alias
// sysreq_c_helper is.
func emitSysreqPriHelper(as asmx86.Assembler, e Entries) {
	as.Bind(e.SysreqPriHelper)
	as.Jmp(e.SysreqDHelper)
}

// emitSysreqDHelper switches back to the host stack (undoing
// exec_helper's swap for the duration of one native call), invokes the
// native through the Go bridge, then switches back to the VM stack
// before returning to the caller with the result in PRI. SYSREQ.C and
// SYSREQ.PRI both land here through their own entry aliases once their
// index is on the stack, so this is the one place that actually talks
// to bridgeEntry.
//
// Callers do: push(paramsAddr, nativeIndex); call sysreqDHelper — the
// first push ends up deepest, so it must be paramsAddr to land at
// esp+16 below. ALT and ebx survive the call untouched; PRI receives
// the native's result.
func emitSysreqDHelper(as asmx86.Assembler, layout Layout, e Entries, bridgeEntry uintptr, bridgeCtx uint32) {
	as.Bind(e.SysreqDHelper)

	as.PushReg(asmx86.ECX)
	as.PushReg(asmx86.EBX)

	as.MovRegMem(asmx86.ESI, asmx86.ESP, 12) // native index
	as.MovRegMem(asmx86.EDI, asmx86.ESP, 16) // params address (VM space)

	// Stash the VM's current ebp/esp in registers — ebx already holds
	// the data base at this point and was saved above, so it is free
	// to carry esp across the switch — since pushing them onto the VM
	// stack we are about to abandon would leave them unreachable once
	// esp no longer points there.
	as.MovRegReg(asmx86.EDX, asmx86.EBP)
	as.MovRegReg(asmx86.EBX, asmx86.ESP)
	as.MovRegAbs(asmx86.EBP, int32(layout.SlotAddr(slotEbpSave)))
	as.MovRegAbs(asmx86.ESP, int32(layout.SlotAddr(slotEspSave)))
	as.PushReg(asmx86.EDX) // vm ebp
	as.PushReg(asmx86.EBX) // vm esp

	as.PushReg(asmx86.EDI)
	as.PushReg(asmx86.ESI)
	as.PushImm(int32(opInvokeNative))
	as.PushImm(int32(bridgeCtx))
	as.CallAddr(bridgeEntry)
	as.AddRegImm(asmx86.ESP, 16)
	as.MovRegReg(asmx86.ESI, asmx86.EAX) // native result, survives the restore below

	as.PopReg(asmx86.EBX) // vm esp
	as.PopReg(asmx86.EDX) // vm ebp
	as.MovRegReg(asmx86.ESP, asmx86.EBX)
	as.MovRegReg(asmx86.EBP, asmx86.EDX)

	as.MovRegReg(asmx86.EAX, asmx86.ESI)
	as.PopReg(asmx86.EBX)
	as.PopReg(asmx86.ECX)
	as.RetImm16(8)
}
