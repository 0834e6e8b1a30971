package compiler

import "testing"

func TestHeaderBytesRoundTrip(t *testing.T) {
	var h header
	h.set(slotExecPtr, 0x10)
	h.set(slotAmxPtr, 0xdeadbeef)
	h.set(slotInstrMapSize, 3)

	buf := h.bytes()
	if len(buf) != HeaderSize {
		t.Fatalf("bytes() length = %d, want %d", len(buf), HeaderSize)
	}

	// exec_ptr is the first little-endian word.
	if buf[0] != 0x10 || buf[1] != 0 || buf[2] != 0 || buf[3] != 0 {
		t.Fatalf("exec_ptr not encoded little-endian at offset 0: %v", buf[:4])
	}
}

func TestHeaderRelocate(t *testing.T) {
	var h header
	h.set(slotExecPtr, 0x40)
	h.set(slotInstrMapPtr, 0x10)
	h.set(slotDataBase, 0x9000)
	h.set(slotCodeBase, 0xa000)
	h.set(slotAmxPtr, 0xb000)

	h.relocate(0x1000)

	if h[slotExecPtr] != 0x1040 {
		t.Errorf("slotExecPtr = %#x, want %#x", h[slotExecPtr], 0x1040)
	}
	if h[slotInstrMapPtr] != 0x1010 {
		t.Errorf("slotInstrMapPtr = %#x, want %#x", h[slotInstrMapPtr], 0x1010)
	}
	// Absolute slots must be untouched by relocation.
	for slot, want := range map[int]uint32{slotDataBase: 0x9000, slotCodeBase: 0xa000, slotAmxPtr: 0xb000} {
		if h[slot] != want {
			t.Errorf("slot %d = %#x, want unchanged %#x", slot, h[slot], want)
		}
	}
}

func TestHeaderSizeMatchesSlotCount(t *testing.T) {
	if HeaderSize != numHeaderSlots*4 {
		t.Fatalf("HeaderSize = %d, want %d", HeaderSize, numHeaderSlots*4)
	}
}
