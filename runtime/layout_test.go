package runtime

import "testing"

func TestLayoutRegions(t *testing.T) {
	l := Layout{Base: 0x2000, HeaderSize: 36, InstrMapSize: 4}

	if got := l.InstrMapBase(); got != 0x2000+36 {
		t.Errorf("InstrMapBase() = %#x, want %#x", got, 0x2000+36)
	}
	if got := l.InstrMapBytes(); got != 32 {
		t.Errorf("InstrMapBytes() = %d, want 32", got)
	}
	if got := l.CodeBase(); got != 0x2000+36+32 {
		t.Errorf("CodeBase() = %#x, want %#x", got, 0x2000+36+32)
	}
}

func TestLayoutSlotAddr(t *testing.T) {
	l := Layout{Base: 0x4000}

	if got := l.SlotAddr(0); got != 0x4000 {
		t.Errorf("SlotAddr(0) = %#x, want %#x", got, 0x4000)
	}
	if got := l.SlotAddr(3); got != 0x400c {
		t.Errorf("SlotAddr(3) = %#x, want %#x", got, 0x400c)
	}
}

func TestLayoutZeroInstrMap(t *testing.T) {
	l := Layout{Base: 0x1000, HeaderSize: 20, InstrMapSize: 0}

	if got := l.InstrMapBytes(); got != 0 {
		t.Errorf("InstrMapBytes() = %d, want 0", got)
	}
	if got := l.CodeBase(); got != l.InstrMapBase() {
		t.Errorf("CodeBase() = %#x, want %#x (equal to InstrMapBase with no entries)", got, l.InstrMapBase())
	}
}
