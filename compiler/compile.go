package compiler

import (
	"encoding/binary"
	"io"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/xerrors"

	"github.com/amxvm/amxjit/amx"
	"github.com/amxvm/amxjit/asmx86"
	"github.com/amxvm/amxjit/exemem"
	"github.com/amxvm/amxjit/internal/errorpanic"
	"github.com/amxvm/amxjit/instrmap"
	"github.com/amxvm/amxjit/opcode"
	"github.com/amxvm/amxjit/runtime"
)

// decodeAll drains d to its end, normalizing the io.EOF every
// amx.Decoder reports at the end of the stream into a clean return,
// the way the reference loader's own decode-to-end loop does.
func decodeAll(d amx.Decoder) ([]opcode.Instruction, error) {
	var instrs []opcode.Instruction
	for {
		in, err := d.Decode()
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				return instrs, nil
			}
			return nil, errors.Wrap(err, "amxjit: decode bytecode")
		}
		instrs = append(instrs, in)
	}
}

// pass is the product of one full emission run over the instruction
// stream: the assembled machine code plus everything needed to locate
// within it afterward. Compile runs assemblePass twice (see runtime's
// package doc) — once to measure, once at the real load address — so
// this type never outlives the Compile call that produced it.
type pass struct {
	as      asmx86.Assembler
	entries runtime.Entries
	code    []byte
	imap    *instrmap.Builder
}

// assemblePass translates instrs once against layout, producing a
// fresh assembler, label table and instruction map every call: labels
// bound during the measuring pass are meaningless once the real
// address is known, so nothing from one pass is reused by the next.
func assemblePass(instrs []opcode.Instruction, targets map[int32]bool, registry amx.Registry, off runtime.InstanceOffsets, codeBase int32, layout runtime.Layout, bridgeEntry uintptr, bridgeCtxAddr uint32) (*pass, error) {
	as, err := asmx86.New386Builder()
	if err != nil {
		return nil, errors.Wrap(err, "amxjit: create assembler")
	}

	entries := runtime.Emit(as, layout, off, bridgeEntry, bridgeCtxAddr)

	labels := newLabelTable(as)
	t := newTranslator(as, labels, targets, entries, layout, registry, off, codeBase)
	if err := t.translate(instrs); err != nil {
		return nil, err
	}

	code, err := as.Assemble()
	if err != nil {
		return nil, errors.Wrap(err, "amxjit: assemble")
	}

	imap := &instrmap.Builder{}
	for _, m := range t.marks {
		imap.Put(m.addr, uint32(as.Addr(m.lbl)))
	}

	return &pass{as: as, entries: entries, code: code, imap: imap}, nil
}

// reportTranslate hands a translation failure to onError, if set, and
// normalizes the return to Compile's (nil, nil) convention: the
// caller learns about the failure through onError, not through a
// non-nil error, matching the reference backend's behavior of
// recording the failure on the instance rather than aborting the host
// process.
func reportTranslate(err error, onError amx.ErrorHandler) (*Backend, error) {
	var terr *TranslateError
	if xerrors.As(err, &terr) && onError != nil {
		onError(terr.IP, terr.Op, terr.Err)
		return nil, nil
	}
	return nil, err
}

// Compile translates prog's code section into a Backend bound to
// instance, under registry's native/public identities. alloc supplies
// the executable memory the finished block lives in; a nil alloc
// defaults to exemem.NewAllocator().
//
// Compilation runs two full emission passes (spec component C8, see
// runtime's package doc for why): the first, against a placeholder
// base address, exists only to learn the block's final size; the second,
// run once that size has been used to allocate the real executable
// block, bakes every absolute reference — header slot addresses, the
// instruction map's base, Go bridge entry points — as a literal
// constant that only the real load address could produce.
//
// A translation failure is reported through onError, if non-nil, with
// the offending instruction; Compile then returns a nil Backend and a
// nil error, since the failure is the caller's to act on through
// onError rather than a Go error value.
func Compile(prog *amx.Program, instance *amx.Instance, registry amx.Registry, alloc amx.ExecAllocator, opts Options, onError amx.ErrorHandler) (backend *Backend, err error) {
	defer func() {
		if e := errorpanic.Handle(recover()); e != nil {
			err = errors.Wrap(e, "amxjit: compile")
		}
	}()

	if alloc == nil {
		alloc = exemem.NewAllocator()
	}

	instrs, err := decodeAll(opcode.NewStreamDecoder(prog.Code))
	if err != nil {
		return nil, err
	}

	codeBase := prog.CodeBase()
	targets := collectJumpTargets(instrs, codeBase)
	off := runtime.NewInstanceOffsets()
	bridgeCtx := runtime.NewBridgeContext(registry, instance)
	bridgeEntry := runtime.BridgeEntryAddr()

	// The placeholder base is far from zero so constants derived from it
	// (the instruction map's address in particular) get the same 32-bit
	// immediate encodings the real load address gets; a zero base would
	// let the assembler pick shorter imm8 forms and change the size.
	measureLayout := runtime.Layout{Base: 0x10000000, HeaderSize: HeaderSize, InstrMapSize: int32(len(instrs))}
	measured, terr := assemblePass(instrs, targets, registry, off, codeBase, measureLayout, bridgeEntry, bridgeCtx.Addr())
	if terr != nil {
		return reportTranslate(terr, onError)
	}

	totalSize := int(measureLayout.HeaderSize) + int(measureLayout.InstrMapBytes()) + len(measured.code)
	opts.debugf("amxjit: measuring pass produced %d bytes of code, %d total", len(measured.code), totalSize)

	mem, err := alloc.Allocate(totalSize)
	if err != nil {
		return nil, errors.Wrap(err, "amxjit: allocate executable memory")
	}

	baseAddr := uint32(uintptr(unsafe.Pointer(&mem[0])))
	finalLayout := runtime.Layout{Base: baseAddr, HeaderSize: HeaderSize, InstrMapSize: int32(len(instrs))}

	final, terr := assemblePass(instrs, targets, registry, off, codeBase, finalLayout, bridgeEntry, bridgeCtx.Addr())
	if terr != nil {
		_ = alloc.Free(mem)
		return reportTranslate(terr, onError)
	}

	if len(final.code) != len(measured.code) {
		_ = alloc.Free(mem)
		return nil, errors.New("amxjit: final pass produced a different code size than the measuring pass")
	}

	final.imap.Relocate(finalLayout.CodeBase())
	m := final.imap.Map()

	var h header
	h.set(slotInstrMapSize, uint32(len(instrs)))
	// exec_ptr and instr_map_ptr are written block-relative here and
	// fixed up to absolute addresses by relocate below; every other
	// slot is already an absolute address outside this block (the data
	// section, the code section, the Instance itself) and is set
	// directly.
	h.set(slotInstrMapPtr, uint32(HeaderSize))
	execOffset := uint32(HeaderSize) + uint32(finalLayout.InstrMapBytes()) + uint32(final.as.Addr(final.entries.Exec))
	h.set(slotExecPtr, execOffset)
	h.set(slotDataBase, uint32(uintptr(unsafe.Pointer(&instance.DataBase()[0]))))
	h.set(slotCodeBase, uint32(uintptr(unsafe.Pointer(&prog.Base[prog.Header.Cod]))))
	h.set(slotAmxPtr, uint32(uintptr(unsafe.Pointer(instance))))
	h.relocate(baseAddr)

	copy(mem, h.bytes())
	writeInstrMap(mem[HeaderSize:], m)
	copy(mem[int(HeaderSize)+int(finalLayout.InstrMapBytes()):], final.code)

	opts.debugf("amxjit: compiled %d instructions into %d bytes at %#x", len(instrs), totalSize, baseAddr)

	return &Backend{
		mem:      mem,
		alloc:    alloc,
		instance: instance,
		bridge:   bridgeCtx,
		instrMap: m,
		execAddr: uintptr(h[slotExecPtr]),
	}, nil
}

// writeInstrMap serializes m into buf, one 8-byte (bytecode address,
// native address) pair per entry, the exact layout
// runtime.emitInstrMapSearch walks with a raw binary search.
func writeInstrMap(buf []byte, m *instrmap.Map) {
	for i, e := range m.Entries() {
		binary.LittleEndian.PutUint32(buf[i*8:], uint32(e.BytecodeAddr))
		binary.LittleEndian.PutUint32(buf[i*8+4:], e.NativeAddr)
	}
}
