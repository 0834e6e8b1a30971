package compiler

import "github.com/amxvm/amxjit/asmx86"

// labelTable is the lazily-populated bytecode-address-to-label map
// (spec's "Label table"): every address the translator or the
// jump-target analyzer ever needs a branch target for gets exactly
// one label, created on first reference and bound exactly once when
// the translator reaches that address during emission.
type labelTable struct {
	as     asmx86.Assembler
	labels map[int32]asmx86.Label
}

func newLabelTable(as asmx86.Assembler) *labelTable {
	return &labelTable{as: as, labels: make(map[int32]asmx86.Label)}
}

// at returns the label for bytecodeAddr, creating it on first use.
func (t *labelTable) at(bytecodeAddr int32) asmx86.Label {
	if lbl, ok := t.labels[bytecodeAddr]; ok {
		return lbl
	}
	lbl := t.as.NewLabel()
	t.labels[bytecodeAddr] = lbl
	return lbl
}
