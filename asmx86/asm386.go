package asmx86

import (
	"github.com/pkg/errors"
	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"
)

// obj/x86 exposes one register file shared by every x86 width;
// REG_AX..REG_DI name the registers this backend uses, which is what
// a 386 GOARCH target wants. The AMX ABI is a flat 32-bit machine —
// every pointer and cell in the runtime contract is a 32-bit word —
// so every mnemonic below is the L-suffixed (32-bit) form, or the
// B- or W-suffixed form where an opcode works on bytes or 16-bit
// words; the wide encodings golang-asm otherwise offers for amd64
// never come up here.
var hwReg = [8]int16{
	EAX: x86.REG_AX, ECX: x86.REG_CX, EDX: x86.REG_DX, EBX: x86.REG_BX,
	ESP: x86.REG_SP, EBP: x86.REG_BP, ESI: x86.REG_SI, EDI: x86.REG_DI,
}

var hwJcc = [16]obj.As{
	CondO: x86.AJOS, CondNO: x86.AJOC, CondB: x86.AJCS, CondAE: x86.AJCC,
	CondE: x86.AJEQ, CondNE: x86.AJNE, CondBE: x86.AJLS, CondA: x86.AJHI,
	CondS: x86.AJMI, CondNS: x86.AJPL, CondP: x86.AJPS, CondNP: x86.AJPC,
	CondL: x86.AJLT, CondGE: x86.AJGE, CondLE: x86.AJLE, CondG: x86.AJGT,
}

var hwSetcc = [16]obj.As{
	CondO: x86.ASETOS, CondNO: x86.ASETOC, CondB: x86.ASETCS, CondAE: x86.ASETCC,
	CondE: x86.ASETEQ, CondNE: x86.ASETNE, CondBE: x86.ASETLS, CondA: x86.ASETHI,
	CondS: x86.ASETMI, CondNS: x86.ASETPL, CondP: x86.ASETPS, CondNP: x86.ASETPC,
	CondL: x86.ASETLT, CondGE: x86.ASETGE, CondLE: x86.ASETLE, CondG: x86.ASETGT,
}

var hwCmov = [16]obj.As{
	CondL: x86.ACMOVLLT, CondGE: x86.ACMOVLGE, CondLE: x86.ACMOVLLE, CondG: x86.ACMOVLGT,
	CondB: x86.ACMOVLCS, CondAE: x86.ACMOVLCC, CondBE: x86.ACMOVLLS, CondA: x86.ACMOVLHI,
	CondE: x86.ACMOVLEQ, CondNE: x86.ACMOVLNE, CondS: x86.ACMOVLMI, CondNS: x86.ACMOVLPL,
	CondO: x86.ACMOVLOS, CondNO: x86.ACMOVLOC, CondP: x86.ACMOVLPS, CondNP: x86.ACMOVLPC,
}

// builder386 is the golang-asm-backed Assembler.
type builder386 struct {
	b       *goasm.Builder
	labels  map[int]*obj.Prog   // bound labels -> their placeholder NOP
	pending map[int][]*obj.Prog // unbound label id -> branches awaiting a target
	nextID  int
}

// New386Builder returns an Assembler backed by golang-asm, targeting
// 32-bit x86 instruction encodings.
func New386Builder() (Assembler, error) {
	b, err := goasm.NewBuilder("386", 1024)
	if err != nil {
		return nil, errors.Wrap(err, "asmx86: new builder")
	}
	return &builder386{
		b:       b,
		labels:  make(map[int]*obj.Prog),
		pending: make(map[int][]*obj.Prog),
	}, nil
}

func (a *builder386) prog() *obj.Prog {
	p := a.b.NewProg()
	a.b.AddInstruction(p)
	return p
}

func reg(r Reg) int16 { return hwReg[r] }

func setReg(arg *obj.Addr, r Reg) {
	arg.Type = obj.TYPE_REG
	arg.Reg = reg(r)
}

func setMem(arg *obj.Addr, base Reg, disp int32) {
	arg.Type = obj.TYPE_MEM
	arg.Reg = reg(base)
	arg.Offset = int64(disp)
}

func setIndex(arg *obj.Addr, base, index Reg, scale uint8, disp int32) {
	arg.Type = obj.TYPE_MEM
	arg.Reg = reg(base)
	arg.Index = reg(index)
	arg.Scale = int16(scale)
	arg.Offset = int64(disp)
}

func setImm(arg *obj.Addr, imm int32) {
	arg.Type = obj.TYPE_CONST
	arg.Offset = int64(imm)
}

func (a *builder386) binRR(as obj.As, dst, src Reg) {
	p := a.prog()
	p.As = as
	setReg(&p.From, src)
	setReg(&p.To, dst)
}

func (a *builder386) binRI(as obj.As, dst Reg, imm int32) {
	p := a.prog()
	p.As = as
	setImm(&p.From, imm)
	setReg(&p.To, dst)
}

func (a *builder386) binMR(as obj.As, base Reg, disp int32, src Reg) {
	p := a.prog()
	p.As = as
	setReg(&p.From, src)
	setMem(&p.To, base, disp)
}

func (a *builder386) binRM(as obj.As, dst, base Reg, disp int32) {
	p := a.prog()
	p.As = as
	setMem(&p.From, base, disp)
	setReg(&p.To, dst)
}

func (a *builder386) binMI(as obj.As, base Reg, disp int32, imm int32) {
	p := a.prog()
	p.As = as
	setImm(&p.From, imm)
	setMem(&p.To, base, disp)
}

// cmpRI and cmpMI emit CMPL with the operand order CMPL expects in the
// Go assembler (reg/mem, then imm) — the reverse of binRI/binMI's
// imm-then-dst order used by the write-a-destination ops like ADD/MOV.
func (a *builder386) cmpRI(as obj.As, x Reg, imm int32) {
	p := a.prog()
	p.As = as
	setReg(&p.From, x)
	setImm(&p.To, imm)
}

func (a *builder386) cmpMI(as obj.As, base Reg, disp int32, imm int32) {
	p := a.prog()
	p.As = as
	setMem(&p.From, base, disp)
	setImm(&p.To, imm)
}

func (a *builder386) un(as obj.As, r Reg) {
	p := a.prog()
	p.As = as
	setReg(&p.To, r)
}

func (a *builder386) unMem(as obj.As, base Reg, disp int32) {
	p := a.prog()
	p.As = as
	setMem(&p.To, base, disp)
}

func (a *builder386) NewLabel() Label {
	a.nextID++
	return Label{id: a.nextID}
}

func (a *builder386) Bind(lbl Label) {
	p := a.prog()
	p.As = obj.ANOP
	a.labels[lbl.id] = p
	for _, br := range a.pending[lbl.id] {
		br.To.SetTarget(p)
	}
	delete(a.pending, lbl.id)
}

func (a *builder386) Mark() Label {
	lbl := a.NewLabel()
	a.Bind(lbl)
	return lbl
}

// Addr returns the resolved byte offset of lbl's placeholder NOP.
// Only meaningful after Assemble has run: Pc fields are filled in
// during golang-asm's layout pass, not as progs are appended.
func (a *builder386) Addr(lbl Label) int32 {
	p, ok := a.labels[lbl.id]
	if !ok {
		panic("asmx86: Addr of unbound label")
	}
	return int32(p.Pc)
}

func (a *builder386) Align(n int) {
	// golang-asm lays out the final encoding during Assemble, so exact
	// byte alignment of the in-progress stream can't be enforced
	// instruction-by-instruction. This emits a single NOP pseudo-op,
	// which encodes to zero bytes: no padding is inserted and n is not
	// used.
	p := a.prog()
	p.As = obj.ANOP
}

func (a *builder386) branch(lbl Label) *obj.Prog {
	p := a.prog()
	if target, ok := a.labels[lbl.id]; ok {
		p.To.Type = obj.TYPE_BRANCH
		p.To.SetTarget(target)
	} else {
		p.To.Type = obj.TYPE_BRANCH
		a.pending[lbl.id] = append(a.pending[lbl.id], p)
	}
	return p
}

func (a *builder386) Jmp(lbl Label) {
	p := a.branch(lbl)
	p.As = obj.AJMP
}

func (a *builder386) Jcc(cond Cond, lbl Label) {
	p := a.branch(lbl)
	p.As = hwJcc[cond]
}

func (a *builder386) Call(lbl Label) {
	p := a.branch(lbl)
	p.As = obj.ACALL
}

func (a *builder386) JmpReg(r Reg) {
	p := a.prog()
	p.As = obj.AJMP
	setReg(&p.To, r)
}

func (a *builder386) CallReg(r Reg) {
	p := a.prog()
	p.As = obj.ACALL
	setReg(&p.To, r)
}

func (a *builder386) CallAddr(addr uintptr) {
	p := a.prog()
	p.As = obj.ACALL
	p.To.Type = obj.TYPE_CONST
	p.To.Offset = int64(addr)
}

func (a *builder386) JmpAddr(addr uintptr) {
	p := a.prog()
	p.As = obj.AJMP
	p.To.Type = obj.TYPE_CONST
	p.To.Offset = int64(addr)
}

func (a *builder386) Ret() {
	p := a.prog()
	p.As = obj.ARET
}

func (a *builder386) RetImm16(n uint16) {
	p := a.prog()
	p.As = obj.ARET
	setImm(&p.To, int32(n))
}

func (a *builder386) MovRegReg(dst, src Reg)               { a.binRR(x86.AMOVL, dst, src) }
func (a *builder386) MovRegImm(dst Reg, imm int32)         { a.binRI(x86.AMOVL, dst, imm) }
func (a *builder386) MovRegMem(dst, base Reg, disp int32)  { a.binRM(x86.AMOVL, dst, base, disp) }
func (a *builder386) MovMemReg(base Reg, disp int32, src Reg) { a.binMR(x86.AMOVL, base, disp, src) }
func (a *builder386) MovMemImm(base Reg, disp int32, imm int32) { a.binMI(x86.AMOVL, base, disp, imm) }

func (a *builder386) MovRegIndex(dst, base, index Reg, scale uint8, disp int32) {
	p := a.prog()
	p.As = x86.AMOVL
	setIndex(&p.From, base, index, scale, disp)
	setReg(&p.To, dst)
}

func (a *builder386) MovIndexReg(base, index Reg, scale uint8, disp int32, src Reg) {
	p := a.prog()
	p.As = x86.AMOVL
	setReg(&p.From, src)
	setIndex(&p.To, base, index, scale, disp)
}

// setAbs configures arg as a base-less, disp32-only memory operand: an
// absolute address baked in as a literal, used only for header-slot
// accesses once a block's load address is a known constant.
func setAbs(arg *obj.Addr, addr int32) {
	arg.Type = obj.TYPE_MEM
	arg.Reg = obj.REG_NONE
	arg.Offset = int64(addr)
}

func (a *builder386) MovRegAbs(dst Reg, addr int32) {
	p := a.prog()
	p.As = x86.AMOVL
	setAbs(&p.From, addr)
	setReg(&p.To, dst)
}

func (a *builder386) MovAbsReg(addr int32, src Reg) {
	p := a.prog()
	p.As = x86.AMOVL
	setReg(&p.From, src)
	setAbs(&p.To, addr)
}

func (a *builder386) LeaRegMem(dst, base Reg, disp int32) { a.binRM(x86.ALEAL, dst, base, disp) }

func (a *builder386) LeaRegIndex(dst, base, index Reg, scale uint8, disp int32) {
	p := a.prog()
	p.As = x86.ALEAL
	setIndex(&p.From, base, index, scale, disp)
	setReg(&p.To, dst)
}

func (a *builder386) MovByteMem(base Reg, disp int32, src Reg) { a.binMR(x86.AMOVB, base, disp, src) }
func (a *builder386) MovWordMem(base Reg, disp int32, src Reg) { a.binMR(x86.AMOVW, base, disp, src) }
func (a *builder386) MovzxRegMem8(dst, base Reg, disp int32)  { a.binRM(x86.AMOVBLZX, dst, base, disp) }
func (a *builder386) MovzxRegMem16(dst, base Reg, disp int32) { a.binRM(x86.AMOVWLZX, dst, base, disp) }
func (a *builder386) MovsxRegMem8(dst, base Reg, disp int32)  { a.binRM(x86.AMOVBLSX, dst, base, disp) }
func (a *builder386) MovsxRegMem16(dst, base Reg, disp int32) { a.binRM(x86.AMOVWLSX, dst, base, disp) }
func (a *builder386) MovzxRegReg8(dst, src Reg)                { a.binRR(x86.AMOVBLZX, dst, src) }
func (a *builder386) MovsxRegReg8(dst, src Reg)                { a.binRR(x86.AMOVBLSX, dst, src) }

func (a *builder386) PushReg(r Reg)  { a.un(x86.APUSHL, r) }
func (a *builder386) PushImm(imm int32) {
	p := a.prog()
	p.As = x86.APUSHL
	setImm(&p.From, imm)
}
func (a *builder386) PushMem(base Reg, disp int32) {
	p := a.prog()
	p.As = x86.APUSHL
	setMem(&p.From, base, disp)
}
func (a *builder386) PopReg(r Reg) { a.un(x86.APOPL, r) }

func (a *builder386) AddRegReg(dst, src Reg)     { a.binRR(x86.AADDL, dst, src) }
func (a *builder386) AddRegImm(dst Reg, imm int32) { a.binRI(x86.AADDL, dst, imm) }
func (a *builder386) AddMemImm(base Reg, disp int32, imm int32) { a.binMI(x86.AADDL, base, disp, imm) }
func (a *builder386) SubRegReg(dst, src Reg)     { a.binRR(x86.ASUBL, dst, src) }
func (a *builder386) SubRegImm(dst Reg, imm int32) { a.binRI(x86.ASUBL, dst, imm) }
func (a *builder386) SubMemImm(base Reg, disp int32, imm int32) { a.binMI(x86.ASUBL, base, disp, imm) }
func (a *builder386) AndRegReg(dst, src Reg)     { a.binRR(x86.AANDL, dst, src) }
func (a *builder386) AndRegImm(dst Reg, imm int32) { a.binRI(x86.AANDL, dst, imm) }
func (a *builder386) OrRegReg(dst, src Reg)      { a.binRR(x86.AORL, dst, src) }
func (a *builder386) OrRegImm(dst Reg, imm int32)  { a.binRI(x86.AORL, dst, imm) }
func (a *builder386) XorRegReg(dst, src Reg)     { a.binRR(x86.AXORL, dst, src) }
func (a *builder386) XorRegImm(dst Reg, imm int32) { a.binRI(x86.AXORL, dst, imm) }
func (a *builder386) CmpRegReg(x, y Reg)         { a.binRR(x86.ACMPL, y, x) }
func (a *builder386) CmpRegImm(x Reg, imm int32)   { a.cmpRI(x86.ACMPL, x, imm) }
func (a *builder386) CmpMemImm(base Reg, disp int32, imm int32) { a.cmpMI(x86.ACMPL, base, disp, imm) }

func (a *builder386) IncReg(r Reg)                 { a.un(x86.AINCL, r) }
func (a *builder386) DecReg(r Reg)                 { a.un(x86.ADECL, r) }
func (a *builder386) IncMem(base Reg, disp int32)  { a.unMem(x86.AINCL, base, disp) }
func (a *builder386) DecMem(base Reg, disp int32)  { a.unMem(x86.ADECL, base, disp) }
func (a *builder386) NegReg(r Reg)                 { a.un(x86.ANEGL, r) }
func (a *builder386) NotReg(r Reg)                 { a.un(x86.ANOTL, r) }

func (a *builder386) ImulRegImm(dst Reg, imm int32) {
	p := a.prog()
	p.As = x86.AIMULL
	setImm(&p.From, imm)
	setReg(&p.To, dst)
}
func (a *builder386) ImulReg(src Reg) { a.un(x86.AIMULL, src) }
func (a *builder386) MulReg(src Reg)  { a.un(x86.AMULL, src) }
func (a *builder386) IdivReg(src Reg) { a.un(x86.AIDIVL, src) }
func (a *builder386) DivReg(src Reg)  { a.un(x86.ADIVL, src) }

func (a *builder386) ShlRegCL(dst Reg) { a.binRR(x86.ASHLL, dst, ECX) }
func (a *builder386) ShrRegCL(dst Reg) { a.binRR(x86.ASHRL, dst, ECX) }
func (a *builder386) SarRegCL(dst Reg) { a.binRR(x86.ASARL, dst, ECX) }
func (a *builder386) ShlRegImm(dst Reg, n uint8) { a.binRI(x86.ASHLL, dst, int32(n)) }
func (a *builder386) ShrRegImm(dst Reg, n uint8) { a.binRI(x86.ASHRL, dst, int32(n)) }
func (a *builder386) SarRegImm(dst Reg, n uint8) { a.binRI(x86.ASARL, dst, int32(n)) }

func (a *builder386) SetccReg(cond Cond, dst Reg) { a.un(hwSetcc[cond], dst) }
func (a *builder386) CmovReg(cond Cond, dst, src Reg) { a.binRR(hwCmov[cond], dst, src) }

func (a *builder386) XchgRegReg(x, y Reg) { a.binRR(x86.AXCHGL, x, y) }
func (a *builder386) XchgMemReg(base Reg, disp int32, r Reg) { a.binMR(x86.AXCHGL, base, disp, r) }

func (a *builder386) Cld()        { a.prog().As = x86.ACLD }
func (a *builder386) RepMovsD()   { a.prog().As = x86.AREP; a.prog().As = x86.AMOVSL }
func (a *builder386) RepMovsW()   { a.prog().As = x86.AREP; a.prog().As = x86.AMOVSW }
func (a *builder386) RepMovsB()   { a.prog().As = x86.AREP; a.prog().As = x86.AMOVSB }
func (a *builder386) RepeCmpsB()  { a.prog().As = x86.AREP; a.prog().As = x86.ACMPSB }
func (a *builder386) RepStosD()   { a.prog().As = x86.AREP; a.prog().As = x86.ASTOSL }

func (a *builder386) Fld(base Reg, disp int32)  { a.unMem(x86.AFMOVF, base, disp) }
func (a *builder386) Fild(base Reg, disp int32) { a.unMem(x86.AFMOVL, base, disp) }
func (a *builder386) Fstp(base Reg, disp int32) { a.unMem(x86.AFMOVFP, base, disp) }
func (a *builder386) FaddMem(base Reg, disp int32) { a.unMem(x86.AFADDF, base, disp) }
func (a *builder386) FsubMem(base Reg, disp int32) { a.unMem(x86.AFSUBF, base, disp) }
func (a *builder386) FmulMem(base Reg, disp int32) { a.unMem(x86.AFMULF, base, disp) }
func (a *builder386) FdivMem(base Reg, disp int32) { a.unMem(x86.AFDIVF, base, disp) }
func (a *builder386) Fabs()    { a.prog().As = x86.AFABS }
func (a *builder386) Fchs()    { a.prog().As = x86.AFCHS }
func (a *builder386) Fsqrt()   { a.prog().As = x86.AFSQRT }
func (a *builder386) Fyl2x()   { a.prog().As = x86.AFYL2X }
func (a *builder386) Fld1()    { a.prog().As = x86.AFLD1 }
func (a *builder386) Fldln2()  { a.prog().As = x86.AFLDLN2 }
func (a *builder386) Fdivrp() {
	p := a.prog()
	p.As = x86.AFDIVRDP
}

func (a *builder386) Assemble() ([]byte, error) {
	return a.b.Assemble(), nil
}
