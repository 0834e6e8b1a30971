package runtime

import (
	"encoding/binary"
	"unsafe"

	"github.com/amxvm/amxjit/amx"
)

// rawCall invokes a cdecl, 32-bit function at fn with two 32-bit
// arguments, returning its eax result. It is the sole Go-to-JIT
// transition point: Backend.Exec calls rawCall(execPtr, index,
// uintptr(retvalPtr)) to enter the compiled block the same way a C
// host would call a function pointer loaded from header slot 0.
//
// The assembly implementation (call_386.s) is deliberately the only
// place raw machine code is entered directly from Go: everything past
// that point runs on the real goroutine stack until exec_helper swaps
// it out, and is restored before any code this package emits calls
// back into Go (see bridgeEntry).
func rawCall(fn uintptr, a0, a1 uint32) uint32

// RawCall exposes rawCall to package compiler, whose Backend.Exec is
// the only caller outside this package.
func RawCall(fn uintptr, a0, a1 uint32) uint32 { return rawCall(fn, a0, a1) }

// bridgeEntry is the sole entry point JIT-emitted code calls into Go.
// It is implemented in call_386.s: a thin cdecl-to-Go adapter around
// bridgeCall, called by exec (to resolve a public) and by
// sysreq_d_helper (which sysreq_c_helper and sysreq_pri_helper jump
// to), each running on the host's real ebp/esp at that point (see
// runtime/trampolines.go). Its address, not this Go declaration, is
// what gets baked into emitted code — the declaration exists only so
// the assembler stub can name its target with `CALL ·bridgeCall(SB)`.
//
// Calling convention, matching the rest of this backend's cdecl
// habits: the caller pushes b, a, op, ctx in that order (so ctx ends
// up nearest the return address) and pops all 16 bytes itself after
// the call returns; the result comes back in eax.
func bridgeEntryAddr() uintptr

func bridgeEntry()

// bridgeOp selects the operation bridgeCall performs on behalf of
// JIT-emitted code. Consolidating every Go callback behind one
// function keeps the machine code that calls into Go to a single,
// auditable calling convention instead of one per native/public
// lookup.
type bridgeOp int32

const (
	opResolveNative bridgeOp = iota
	opResolvePublic
	opInvokeNative
)

// BridgeContext carries the Go-side state a compiled block's runtime
// calls need to reach: the native/public registry and the instance the
// block was compiled for. exec and sysreq_d_helper pass its
// address as bridgeCall's first argument, baked in as a compile-time
// constant because one Backend owns exactly one BridgeContext for its
// whole lifetime.
type BridgeContext struct {
	registry Registry
	instance *amx.Instance
}

// NewBridgeContext builds the bridge state for one Backend's whole
// lifetime. Callers keep the returned value alive (e.g. as a Backend
// field) for as long as any compiled block referencing its Addr may
// run, since that address is baked into the block as a literal
// constant rather than tracked by the Go garbage collector as a live
// pointer.
func NewBridgeContext(registry Registry, instance *amx.Instance) *BridgeContext {
	return &BridgeContext{registry: registry, instance: instance}
}

// Addr returns ctx's address as the uint32 constant emitted code
// passes back into BridgeEntryAddr's target on every call.
func (ctx *BridgeContext) Addr() uint32 { return uint32(uintptr(unsafe.Pointer(ctx))) }

// BridgeEntryAddr exposes bridgeEntryAddr to package compiler, which
// bakes it into emitted code as the call target every sysreq/exec
// trampoline uses to cross into Go.
func BridgeEntryAddr() uintptr { return bridgeEntryAddr() }

// Registry is the subset of amx.Registry the bridge needs; declared
// locally so this package does not otherwise depend on amx's exported
// surface beyond amx.Instance.
type Registry = amx.Registry

// bridgeCall is called (via bridgeEntry, from call_386.s) directly
// from JIT-emitted machine code, never from Go. It must only be
// entered with the host's real ebp/esp in place — sysreq_d_helper
// restores ebp_save/esp_save before the call — so this function's own
// prologue stack-growth check observes a legitimate goroutine stack.
//
// For opInvokeNative, a is the native's index — SYSREQ.C and SYSREQ.D
// carry it as a compile-time constant (SYSREQ.D's operand is a host
// address, resolved to an index by the translator before this point);
// SYSREQ.PRI is the same dispatch with the index read from PRI at
// runtime instead. b is the address (within the instance's data
// section) of the native's AMX-style params array, whose cell 0 holds
// the byte count of the arguments that follow.
//
//go:noinline
func bridgeCall(ctx *BridgeContext, op bridgeOp, a, b uint32) uint32 {
	switch op {
	case opResolveNative:
		addr, ok := ctx.registry.NativeAddr(int32(a))
		if !ok {
			return 0
		}
		return addr

	case opResolvePublic:
		addr, ok := ctx.registry.PublicAddr(int32(a))
		if !ok {
			return 0
		}
		return addr

	case opInvokeNative:
		// b is VM-relative, like every other address the translator
		// hands across this boundary — index through the instance's own
		// data section rather than trusting it as a host pointer.
		data := ctx.instance.DataBase()
		argBytes := int32(binary.LittleEndian.Uint32(data[b:]))
		count := int(argBytes)/amx.CellSize + 1
		params := unsafe.Slice((*int32)(unsafe.Pointer(&data[b])), count)
		ret, err := ctx.registry.CallNative(ctx.instance, int32(a), params)
		if err != nil {
			ctx.instance.Error = amx.ErrNative
		}
		return uint32(ret)

	default:
		return 0
	}
}
