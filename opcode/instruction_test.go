package opcode

import (
	"encoding/binary"
	"io"
	"testing"
)

func cells(vs ...int32) []byte {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

func TestStreamDecoderZeroOperand(t *testing.T) {
	d := NewStreamDecoder(cells(int32(MovePri), int32(Nop)))

	in, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.Addr != 0 || in.Op != MovePri || len(in.Operands) != 0 || in.Size != 4 {
		t.Fatalf("Decode() = %+v", in)
	}

	in, err = d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.Addr != 4 || in.Op != Nop {
		t.Fatalf("Decode() = %+v", in)
	}

	if _, err := d.Decode(); err != io.EOF {
		t.Fatalf("Decode() at end = %v, want io.EOF", err)
	}
}

func TestStreamDecoderOneOperand(t *testing.T) {
	d := NewStreamDecoder(cells(int32(ConstPri), 42))

	in, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.Op != ConstPri || in.Operand() != 42 || in.Size != 8 {
		t.Fatalf("Decode() = %+v", in)
	}
}

func TestStreamDecoderCasetbl(t *testing.T) {
	// CASETBL: default address, count, then count (value, address) pairs.
	d := NewStreamDecoder(cells(int32(Casetbl), 100, 2, 1, 20, 2, 40))

	in, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.Op != Casetbl {
		t.Fatalf("Op = %s, want CASETBL", in.Op)
	}
	want := []int32{100, 2, 1, 20, 2, 40}
	if len(in.Operands) != len(want) {
		t.Fatalf("Operands = %v, want %v", in.Operands, want)
	}
	for i := range want {
		if in.Operands[i] != want[i] {
			t.Fatalf("Operands = %v, want %v", in.Operands, want)
		}
	}
}

func TestStreamDecoderTruncated(t *testing.T) {
	// ConstPri needs an operand cell that is never supplied.
	d := NewStreamDecoder(cells(int32(ConstPri))[:4])

	if _, err := d.Decode(); err == nil {
		t.Fatal("expected an error decoding a truncated instruction")
	}
}
