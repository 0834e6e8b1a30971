package instrmap

import "testing"

func TestBuilderPutOrder(t *testing.T) {
	var b Builder
	b.Put(0, 100)
	b.Put(4, 108)
	b.Put(12, 120)

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
}

func TestBuilderPutOutOfOrderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-order Put")
		}
	}()
	var b Builder
	b.Put(4, 100)
	b.Put(4, 108)
}

func TestBuilderRelocate(t *testing.T) {
	var b Builder
	b.Put(0, 0)
	b.Put(4, 8)
	b.Relocate(0x1000)

	m := b.Map()
	for i, want := range []uint32{0x1000, 0x1008} {
		if got := m.Entries()[i].NativeAddr; got != want {
			t.Fatalf("entry %d NativeAddr = %#x, want %#x", i, got, want)
		}
	}
}

func TestMapLookup(t *testing.T) {
	var b Builder
	b.Put(0, 0x2000)
	b.Put(4, 0x2010)
	b.Put(16, 0x2030)
	m := b.Map()

	cases := []struct {
		addr    int32
		want    uint32
		wantOk  bool
	}{
		{0, 0x2000, true},
		{4, 0x2010, true},
		{16, 0x2030, true},
		{8, 0, false},  // mid-instruction, not a translated instruction start
		{20, 0, false}, // past the end
		{-4, 0, false}, // before the start
	}
	for _, c := range cases {
		got, ok := m.Lookup(c.addr)
		if ok != c.wantOk || (ok && got != c.want) {
			t.Errorf("Lookup(%d) = (%#x, %v), want (%#x, %v)", c.addr, got, ok, c.want, c.wantOk)
		}
	}
}

func TestMapFindCovering(t *testing.T) {
	var b Builder
	b.Put(0, 0x2000)
	b.Put(8, 0x2020)
	b.Put(16, 0x2050)
	m := b.Map()

	cases := []struct {
		addr   int32
		want   Entry
		wantOk bool
	}{
		{0, Entry{0, 0x2000}, true},
		{5, Entry{0, 0x2000}, true},
		{8, Entry{8, 0x2020}, true},
		{15, Entry{8, 0x2020}, true},
		{100, Entry{16, 0x2050}, true},
		{-1, Entry{}, false},
	}
	for _, c := range cases {
		got, ok := m.FindCovering(c.addr)
		if ok != c.wantOk || (ok && got != c.want) {
			t.Errorf("FindCovering(%d) = (%+v, %v), want (%+v, %v)", c.addr, got, ok, c.want, c.wantOk)
		}
	}
}

func TestMapEntriesOrder(t *testing.T) {
	var b Builder
	b.Put(0, 10)
	b.Put(4, 14)
	m := b.Map()

	entries := m.Entries()
	if len(entries) != 2 || entries[0].BytecodeAddr != 0 || entries[1].BytecodeAddr != 4 {
		t.Fatalf("Entries() = %+v, want ascending bytecode-address order", entries)
	}
}
