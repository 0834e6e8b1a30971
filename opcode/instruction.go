package opcode

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Instruction is one decoded bytecode instruction: its address (a
// byte offset from the start of the code section), its opcode, and
// its operand cells, taken verbatim from the image.
type Instruction struct {
	Addr     int32
	Op       Op
	Operands []int32
	Size     int32 // Total encoded size in bytes, opcode word included.
}

// Operand returns the instruction's sole operand. It panics if the
// instruction has no operands; callers only call this for opcodes
// whose NumOperandCells() is 1.
func (in Instruction) Operand() int32 { return in.Operands[0] }

// StreamDecoder decodes a flat AMX code section into an ordered
// sequence of Instructions. It is the concrete implementation of the
// amx.Decoder interface that Compile constructs over Program.Code.
type StreamDecoder struct {
	code []byte
	pos  int32
}

// NewStreamDecoder returns a decoder over code, whose first byte is
// bytecode address 0.
func NewStreamDecoder(code []byte) *StreamDecoder {
	return &StreamDecoder{code: code}
}

var errTruncated = errors.New("amx bytecode: truncated instruction")

// Decode implements amx.Decoder.
func (d *StreamDecoder) Decode() (Instruction, error) {
	if int(d.pos) >= len(d.code) {
		return Instruction{}, io.EOF
	}

	start := d.pos
	op, err := d.cell()
	if err != nil {
		return Instruction{}, err
	}

	in := Instruction{Addr: start, Op: Op(op)}

	n := in.Op.NumOperandCells()
	switch {
	case n > 0:
		in.Operands = make([]int32, n)
		for i := range in.Operands {
			v, err := d.cell()
			if err != nil {
				return Instruction{}, err
			}
			in.Operands[i] = v
		}

	case n < 0: // CASETBL: default address, count, then count (value, address) pairs.
		defAddr, err := d.cell()
		if err != nil {
			return Instruction{}, err
		}
		count, err := d.cell()
		if err != nil {
			return Instruction{}, err
		}
		in.Operands = make([]int32, 2+2*count)
		in.Operands[0] = defAddr
		in.Operands[1] = count
		for i := 0; i < int(count); i++ {
			value, err := d.cell()
			if err != nil {
				return Instruction{}, err
			}
			addr, err := d.cell()
			if err != nil {
				return Instruction{}, err
			}
			in.Operands[2+2*i] = value
			in.Operands[3+2*i] = addr
		}
	}

	in.Size = d.pos - start
	return in, nil
}

func (d *StreamDecoder) cell() (int32, error) {
	if int(d.pos)+4 > len(d.code) {
		return 0, errTruncated
	}
	v := int32(binary.LittleEndian.Uint32(d.code[d.pos:]))
	d.pos += 4
	return v, nil
}
