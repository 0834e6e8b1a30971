package compiler

import (
	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/intrinsics"
	"github.com/amxvm/amxjit/opcode"
	"github.com/amxvm/amxjit/runtime"
)

// translator walks the decoded instruction stream once, emitting one
// native sequence per opcode (spec component C5). It holds everything
// a translate* method needs: the assembler, the label table shared
// with the jump-target analyzer's output, and the running instruction
// map under construction.
//
// Register contract, held for the whole run: eax=PRI, ecx=ALT,
// ebx=data-base (native address of cell 0), ebp=FRM's native address,
// esp=STK's native address. PRI and ALT always hold VM-relative
// addresses/values (byte offsets from the data base), never native
// pointers — vmAddr/nativeAddr below convert between the two whenever
// a value crosses that boundary.
type translator struct {
	as       asmx86.Assembler
	labels   *labelTable
	targets  map[int32]bool
	entries  runtime.Entries
	layout   runtime.Layout
	registry amx.Registry
	off      runtime.InstanceOffsets
	codeBase int32 // image-absolute offset of the code section; jump/call operands are image-absolute and need rebasing

	intrinsicLabels map[intrinsics.Name]asmx86.Label
	instrByAddr     map[int32]opcode.Instruction
	marks           []instrMark
	err             error
}

type instrMark struct {
	addr int32
	lbl  asmx86.Label
}

func newTranslator(as asmx86.Assembler, labels *labelTable, targets map[int32]bool, entries runtime.Entries, layout runtime.Layout, registry amx.Registry, off runtime.InstanceOffsets, codeBase int32) *translator {
	return &translator{as: as, labels: labels, targets: targets, entries: entries, layout: layout, registry: registry, off: off, codeBase: codeBase}
}

// targetLabel resolves an image-absolute jump/call operand to its
// code-relative label, the same rebasing collectJumpTargets applies.
func (t *translator) targetLabel(imageAddr int32) asmx86.Label {
	return t.labels.at(imageAddr - t.codeBase)
}

// translate emits every instruction in instrs, in order. Intrinsic
// bodies are emitted once upfront, in a block of their own ahead of
// the translated program, so that lookups from translate_sysreq.go's
// CALL sites never land in the middle of ordinary control flow.
func (t *translator) translate(instrs []opcode.Instruction) error {
	t.preEmitIntrinsics(instrs)
	t.instrByAddr = make(map[int32]opcode.Instruction, len(instrs))
	for _, in := range instrs {
		t.instrByAddr[in.Addr] = in
	}
	for _, in := range instrs {
		t.bindInstrStart(in.Addr)
		if err := t.translateOne(in); err != nil {
			return &TranslateError{IP: in.Addr, Op: in.Op, Err: err}
		}
	}
	return nil
}

// preEmitIntrinsics scans every SYSREQ.C (constant native index) and
// SYSREQ.D (host address, reverse-resolved to an index) site, resolves
// its native's name through the registry, and emits the matching
// intrinsic body once per distinct name, before any opcode translation
// begins.
func (t *translator) preEmitIntrinsics(instrs []opcode.Instruction) {
	t.intrinsicLabels = make(map[intrinsics.Name]asmx86.Label)
	if t.registry == nil {
		return
	}
	for _, in := range instrs {
		index := in.Operand()
		switch in.Op {
		case opcode.SysreqC:
		case opcode.SysreqD:
			var ok bool
			if index, ok = t.registry.FindNative(uint32(in.Operand())); !ok {
				continue
			}
		default:
			continue
		}
		name, ok := t.registry.NativeName(index)
		if !ok {
			continue
		}
		iname, ok := intrinsics.Lookup(name)
		if !ok {
			continue
		}
		if _, done := t.intrinsicLabels[iname]; done {
			continue
		}
		t.intrinsicLabels[iname] = intrinsics.Emit(t.as, iname)
	}
}

// bindInstrStart binds in.Addr's label (creating one if this address
// was never referenced by collectJumpTargets) and records it for the
// instruction map, which — unlike branch targets — covers every
// instruction, since JUMP_PRI can legally target any of them.
func (t *translator) bindInstrStart(addr int32) {
	lbl := t.labels.at(addr)
	t.as.Bind(lbl)
	t.marks = append(t.marks, instrMark{addr: addr, lbl: lbl})
}

// vmAddr converts a native pointer in reg to a VM-relative address in
// place: reg -= ebx.
func (t *translator) vmAddr(reg asmx86.Reg) {
	t.as.SubRegReg(reg, asmx86.EBX)
}

// nativeAddr converts a VM-relative address in reg to a native pointer
// in place: reg += ebx.
func (t *translator) nativeAddr(reg asmx86.Reg) {
	t.as.AddRegReg(reg, asmx86.EBX)
}

// derefVM loads dst from the VM memory cell whose VM-relative address
// is in addrReg (dst may equal addrReg): dst = [ebx+addrReg].
func (t *translator) derefVM(dst, addrReg asmx86.Reg) {
	t.as.MovRegIndex(dst, asmx86.EBX, addrReg, 1, 0)
}

// storeVM stores src into the VM memory cell whose VM-relative address
// is in addrReg: [ebx+addrReg] = src.
func (t *translator) storeVM(addrReg, src asmx86.Reg) {
	t.as.MovIndexReg(asmx86.EBX, addrReg, 1, 0, src)
}

// doHalt is the shared exit path every HALT/BOUNDS-failure opcode
// jumps to: stash PRI as the AMX return value, record the code in the
// instance's own error field (so a host inspecting the instance after
// exec returns sees the same value exec itself returned), then
// repurpose eax to carry the exit/error code back to exec through
// halt_helper's ret.
func (t *translator) doHalt(exitCode int32) {
	t.as.MovAbsReg(int32(t.layout.SlotAddr(slotRetval)), asmx86.EAX)
	t.as.MovRegAbs(asmx86.EDX, int32(t.layout.SlotAddr(slotAmxPtr)))
	t.as.MovMemImm(asmx86.EDX, t.off.Error, exitCode)
	t.as.MovRegImm(asmx86.EAX, exitCode)
	t.as.Jmp(t.haltLabel())
}

func (t *translator) haltLabel() asmx86.Label { return t.entries.HaltHelper }

// emitComputedJump is JUMP_PRI and SCTRL index 6's shared body: both
// set CIP to a runtime value (PRI) rather than a compile-time
// constant, so both resolve their native target through
// runtime.JumpHelper's instruction-map search instead of a label. A
// successful lookup tail-jumps away inside the helper and never
// returns here; when the target doesn't name a real instruction
// boundary the helper returns (popping its three arguments) and
// execution continues with the next instruction.
func (t *translator) emitComputedJump() {
	t.as.MovRegReg(asmx86.EDX, asmx86.ESP)
	t.as.PushReg(asmx86.EDX)
	t.as.PushReg(asmx86.EBP)
	t.as.PushReg(asmx86.EAX)
	t.as.Call(t.entries.JumpHelper)
}

// callIntrinsic emits a call to intrinsic n's body, lazily emitting
// the body itself (once per name, shared by every call site that
// names it) the first time it is needed. This is the peephole that
// lets a known math native skip sysreq_c_helper/the Go bridge
// entirely (spec component C6).
func (t *translator) callIntrinsic(n intrinsics.Name) {
	lbl, ok := t.intrinsicLabels[n]
	if !ok {
		if t.intrinsicLabels == nil {
			t.intrinsicLabels = make(map[intrinsics.Name]asmx86.Label)
		}
		lbl = intrinsics.Emit(t.as, n)
		t.intrinsicLabels[n] = lbl
	}
	t.as.Call(lbl)
}

// errUnknownOpcode etc. are declared in errors.go; the per-group
// translate* methods live in translate_*.go. amx import keeps this file honest about the register
// contract's data model even though only a couple of translate_*.go
// files reach for amx.Error constants directly.
var _ = amx.ErrBounds
