package compiler

import "encoding/binary"

// Runtime-data header slot indices (spec component C3). The header is
// the first HeaderSize bytes of every compiled block; slot values are
// native machine words, little-endian on x86.
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

	numHeaderSlots
)

// HeaderSize is the fixed byte size of the runtime-data header.
const HeaderSize = numHeaderSlots * 4

// header is a zero-initialized runtime-data header under construction.
// Slots 0 (exec_ptr) and 5 (instr_map_ptr) are written as offsets
// within the surrounding block during emission and relocated to
// absolute addresses once the block's final load address is known
// (see relocate). amx_ptr, instr_map_size, data_base and code_base are
// fixed by Compile; ebp_save, esp_save and retval are runtime-mutable
// scratch cells the trampolines read and write while a call is in
// flight.
type header [numHeaderSlots]uint32

func (h *header) set(slot int, v uint32) { h[slot] = v }

// bytes serializes the header into its on-buffer little-endian form.
func (h *header) bytes() []byte {
	buf := make([]byte, HeaderSize)
	for i, v := range h {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// relocate adds base to the slots that were written as buffer-relative
// offsets: exec_ptr and instr_map_ptr. instr_map_size is a count, not
// an address, and is left untouched.
func (h *header) relocate(base uint32) {
	h[slotExecPtr] += base
	h[slotInstrMapPtr] += base
}
