package engine

import (
	"math"
	"testing"

	"github.com/vex-arch/vexvm/isa"
	"github.com/vex-arch/vexvm/storage"
)

func TestStepNopHaltCall(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)

	if o := Step(isa.MakeR(isa.OpNop, 0, 0, 0, 0), 0, &regs, mem); o.Kind != OutcomeNext {
		t.Errorf("NOP Kind = %v, want OutcomeNext", o.Kind)
	}
	if o := Step(isa.MakeR(isa.OpHalt, 0, 0, 0, 0), 0, &regs, mem); o.Kind != OutcomeStop || o.Code != Halted {
		t.Errorf("HALT = %+v, want Stop/Halted", o)
	}
	if o := Step(isa.MakeR(isa.OpCall, 0, 0, 0, 0), 0, &regs, mem); o.Kind != OutcomeNext {
		t.Errorf("CALL Kind = %v, want OutcomeNext (reserved no-op)", o.Kind)
	}
}

func TestStepLoadImmediateFamily(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)

	Step(isa.MakeI(isa.OpLI, isa.T0, 0, 0xFFFF), 0, &regs, mem)
	if got := regs.GetInt32(isa.T0); got != -1 {
		t.Errorf("LI: GetInt32(T0) = %d, want -1", got)
	}

	Step(isa.MakeI(isa.OpLHI, isa.T0, 0, 0x1234), 0, &regs, mem)
	if got := regs.GetUint32(isa.T0); got != 0x12340000 {
		t.Errorf("LHI: GetUint32(T0) = %#x, want 0x12340000", got)
	}

	regs.SetUint32(isa.T0, 0xABCD0000)
	Step(isa.MakeI(isa.OpSLO, isa.T0, 0, 0x1234), 0, &regs, mem)
	if got := regs.GetUint32(isa.T0); got != 0xABCD1234 {
		t.Errorf("SLO: GetUint32(T0) = %#x, want 0xABCD1234", got)
	}

	regs.SetUint32(isa.T0, 0x0000ABCD)
	Step(isa.MakeI(isa.OpSHI, isa.T0, 0, 0x1234), 0, &regs, mem)
	if got := regs.GetUint32(isa.T0); got != 0x1234ABCD {
		t.Errorf("SHI: GetUint32(T0) = %#x, want 0x1234ABCD", got)
	}
}

func TestStepCopy(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)

	regs.SetUint32(isa.T0, 0xCAFEBABE)
	Step(isa.MakeI(isa.OpCopy, isa.T1, isa.T0, 0), 0, &regs, mem)
	if got := regs.GetUint32(isa.T1); got != 0xCAFEBABE {
		t.Errorf("COPY: GetUint32(T1) = %#x, want 0xCAFEBABE", got)
	}
}

func TestStepLoadStore(t *testing.T) {
	cases := []struct {
		name     string
		storeOp  isa.Opcode
		loadOp   isa.Opcode
		stored   uint32
		wantLoad uint32
	}{
		{"byte", isa.OpSB, isa.OpLB, 0xFFFFFFAB, 0x000000AB},
		{"half", isa.OpSH, isa.OpLH, 0xFFFFBEEF, 0x0000BEEF},
		{"word", isa.OpSW, isa.OpLW, 0xDEADBEEF, 0xDEADBEEF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var regs isa.RegisterFile
			mem := storage.NewPlain(16)

			regs.SetUint32(isa.A0, 0) // base address
			regs.SetUint32(isa.T0, c.stored)
			if o := Step(isa.MakeI(c.storeOp, isa.T0, isa.A0, 0), 0, &regs, mem); o.Kind != OutcomeNext {
				t.Fatalf("store Kind = %v, want OutcomeNext", o.Kind)
			}

			if o := Step(isa.MakeI(c.loadOp, isa.T1, isa.A0, 0), 0, &regs, mem); o.Kind != OutcomeNext {
				t.Fatalf("load Kind = %v, want OutcomeNext", o.Kind)
			}
			if got := regs.GetUint32(isa.T1); got != c.wantLoad {
				t.Errorf("loaded = %#x, want %#x", got, c.wantLoad)
			}
		})
	}
}

func TestStepLoadStoreOutOfRangeStops(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetUint32(isa.A0, 100)

	o := Step(isa.MakeI(isa.OpLW, isa.T0, isa.A0, 0), 0, &regs, mem)
	if o.Kind != OutcomeStop || o.Code != BadMemoryAccess {
		t.Errorf("out-of-range load = %+v, want Stop/BadMemoryAccess", o)
	}
}

func TestStepALUFuncts(t *testing.T) {
	cases := []struct {
		funct isa.Funct
		rs1   int32
		rs2   int32
		want  int32
	}{
		{isa.FnADD, 2, 3, 5},
		{isa.FnSUB, 5, 3, 2},
		{isa.FnAND, 0x0F, 0x03, 0x03},
		{isa.FnOR, 0x0F, 0x30, 0x3F},
		{isa.FnXOR, 0xFF, 0x0F, 0xF0},
		{isa.FnSLL, 1, 4, 16},
		{isa.FnSRL, 16, 4, 1},
		{isa.FnSRA, -16, 2, -4},
		{isa.FnSEQ, 3, 3, 1},
		{isa.FnSNE, 3, 4, 1},
		{isa.FnSLT, 2, 3, 1},
		{isa.FnSGT, 3, 2, 1},
		{isa.FnSLE, 3, 3, 1},
		{isa.FnSGE, 3, 3, 1},
	}
	for _, c := range cases {
		var regs isa.RegisterFile
		mem := storage.NewPlain(4)
		regs.SetInt32(isa.T0, c.rs1)
		regs.SetInt32(isa.T1, c.rs2)
		Step(isa.MakeALU(c.funct, isa.T2, isa.T0, isa.T1), 0, &regs, mem)
		if got := regs.GetInt32(isa.T2); got != c.want {
			t.Errorf("funct %s: got %d, want %d", isa.ALUFunctName(c.funct), got, c.want)
		}
	}
}

func TestStepALUMulSplitsIntoRdAndRM(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetInt32(isa.T0, 0x12345678)
	regs.SetInt32(isa.T1, 0x12345678)

	Step(isa.MakeALU(isa.FnMUL, isa.T2, isa.T0, isa.T1), 0, &regs, mem)

	wantLo := int32(0x1DF4D840)
	wantHi := uint32(0x014B66DC)
	if got := regs.GetInt32(isa.T2); got != wantLo {
		t.Errorf("low (rd) = %#x, want %#x", uint32(got), uint32(wantLo))
	}
	if got := regs.GetUint32(isa.RM); got != wantHi {
		t.Errorf("high (RM) = %#x, want %#x", got, wantHi)
	}
}

func TestStepALUDivAndRemainder(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetInt32(isa.T0, 17)
	regs.SetInt32(isa.T1, 5)

	Step(isa.MakeALU(isa.FnDIV, isa.T2, isa.T0, isa.T1), 0, &regs, mem)
	if got := regs.GetInt32(isa.T2); got != 3 {
		t.Errorf("quotient = %d, want 3", got)
	}
	if got := regs.GetInt32(isa.RM); got != 2 {
		t.Errorf("remainder (RM) = %d, want 2", got)
	}
}

func TestStepALUDivisionByZero(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetInt32(isa.T0, 1)
	regs.SetInt32(isa.T1, 0)

	o := Step(isa.MakeALU(isa.FnDIV, isa.T2, isa.T0, isa.T1), 0, &regs, mem)
	if o.Kind != OutcomeStop || o.Code != DivisionByZero {
		t.Errorf("DIV by zero = %+v, want Stop/DivisionByZero", o)
	}
}

func TestStepALUUnsignedComparisons(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetInt32(isa.T0, -1) // 0xFFFFFFFF unsigned
	regs.SetInt32(isa.T1, 1)

	Step(isa.MakeALU(isa.FnSLTU, isa.T2, isa.T1, isa.T0), 0, &regs, mem)
	if got := regs.GetUint32(isa.T2); got != 1 {
		t.Errorf("SLTU(1, 0xFFFFFFFF) = %d, want 1", got)
	}
	Step(isa.MakeALU(isa.FnSGTU, isa.T2, isa.T0, isa.T1), 0, &regs, mem)
	if got := regs.GetUint32(isa.T2); got != 1 {
		t.Errorf("SGTU(0xFFFFFFFF, 1) = %d, want 1", got)
	}
}

func TestStepALUInvalidFunctStops(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	o := Step(isa.MakeALU(isa.Funct(63), isa.T0, isa.T1, isa.T2), 0, &regs, mem)
	if o.Kind != OutcomeStop || o.Code != InvalidOpcode {
		t.Errorf("invalid funct = %+v, want Stop/InvalidOpcode", o)
	}
}

func TestStepFLOPFuncts(t *testing.T) {
	cases := []struct {
		funct isa.Funct
		a, b  float32
		want  float32
	}{
		{isa.FnFADD, 1.5, 2.25, 3.75},
		{isa.FnFSUB, 5, 1.5, 3.5},
		{isa.FnFMUL, 2, 3.5, 7},
		{isa.FnFDIV, 7, 2, 3.5},
	}
	for _, c := range cases {
		var regs isa.RegisterFile
		mem := storage.NewPlain(4)
		regs.SetFloat32(isa.T0, c.a)
		regs.SetFloat32(isa.T1, c.b)
		Step(isa.MakeFLOP(c.funct, isa.T2, isa.T0, isa.T1), 0, &regs, mem)
		if got := regs.GetFloat32(isa.T2); got != c.want {
			t.Errorf("funct %s: got %v, want %v", isa.FLOPFunctName(c.funct), got, c.want)
		}
	}
}

func TestStepImmediateFamily(t *testing.T) {
	cases := []struct {
		op   isa.Opcode
		rs1  int32
		imm  uint16
		want int32
	}{
		{isa.OpADDI, 10, 5, 15},
		{isa.OpSUBI, 10, 5, 5},
		{isa.OpANDI, 0x0F, 0x03, 0x03},
		{isa.OpORI, 0x0F, 0x30, 0x3F},
		{isa.OpXORI, 0xFF, 0x0F, 0xF0},
		{isa.OpSLLI, 1, 4, 16},
		{isa.OpSRLI, 16, 4, 1},
		{isa.OpSEQI, 3, 3, 1},
		{isa.OpSNEI, 3, 4, 1},
		{isa.OpSLTI, 2, 3, 1},
		{isa.OpSGTI, 3, 2, 1},
		{isa.OpSLEI, 3, 3, 1},
		{isa.OpSGEI, 3, 3, 1},
		{isa.OpSLTUI, 1, 3, 1},
		{isa.OpSGTUI, 3, 1, 1},
		{isa.OpSLEUI, 3, 3, 1},
		{isa.OpSGEUI, 3, 3, 1},
	}
	for _, c := range cases {
		var regs isa.RegisterFile
		mem := storage.NewPlain(4)
		regs.SetInt32(isa.T0, c.rs1)
		Step(isa.MakeI(c.op, isa.T1, isa.T0, c.imm), 0, &regs, mem)
		if got := regs.GetInt32(isa.T1); got != c.want {
			t.Errorf("op %s: got %d, want %d", c.op, got, c.want)
		}
	}
}

func TestStepMULISplitsIntoRdAndRM(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetInt32(isa.T0, 100000)

	Step(isa.MakeI(isa.OpMULI, isa.T1, isa.T0, 3), 0, &regs, mem)
	if got := regs.GetInt32(isa.T1); got != 300000 {
		t.Errorf("low (rd) = %d, want 300000", got)
	}
	if got := regs.GetUint32(isa.RM); got != 0 {
		t.Errorf("high (RM) = %#x, want 0", got)
	}
}

func TestStepDIVIDivisionByZero(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetInt32(isa.T0, 1)

	o := Step(isa.MakeI(isa.OpDIVI, isa.T1, isa.T0, 0), 0, &regs, mem)
	if o.Kind != OutcomeStop || o.Code != DivisionByZero {
		t.Errorf("DIVI by zero = %+v, want Stop/DivisionByZero", o)
	}
}

func TestStepFlip(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	regs.SetUint32(isa.T0, 0x0000FFFF)

	Step(isa.MakeI(isa.OpFLIP, isa.T1, isa.T0, 0), 0, &regs, mem)
	if got := regs.GetUint32(isa.T1); got != 0xFFFF0000 {
		t.Errorf("FLIP = %#x, want 0xFFFF0000", got)
	}
}

func TestStepBranches(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)

	regs.SetInt32(isa.T0, 0)
	o := Step(isa.MakeI(isa.OpBEZ, 0, isa.T0, 8), 100, &regs, mem)
	if o.Kind != OutcomeJump || o.Target != 108 || o.Link {
		t.Errorf("BEZ taken = %+v, want Jump/108/false", o)
	}

	regs.SetInt32(isa.T0, 1)
	o = Step(isa.MakeI(isa.OpBEZ, 0, isa.T0, 8), 100, &regs, mem)
	if o.Kind != OutcomeNext {
		t.Errorf("BEZ not taken = %+v, want OutcomeNext", o)
	}

	regs.SetInt32(isa.T0, 1)
	o = Step(isa.MakeI(isa.OpBNZ, 0, isa.T0, 8), 100, &regs, mem)
	if o.Kind != OutcomeJump || o.Target != 108 {
		t.Errorf("BNZ taken = %+v, want Jump/108", o)
	}

	regs.SetInt32(isa.T0, 0)
	o = Step(isa.MakeI(isa.OpBNZ, 0, isa.T0, 8), 100, &regs, mem)
	if o.Kind != OutcomeNext {
		t.Errorf("BNZ not taken = %+v, want OutcomeNext", o)
	}
}

func TestStepJumps(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)

	o := Step(isa.MakeJ(isa.OpJMP, 16), 100, &regs, mem)
	if o.Kind != OutcomeJump || o.Target != 116 || o.Link {
		t.Errorf("JMP = %+v, want Jump/116/false", o)
	}

	o = Step(isa.MakeJ(isa.OpJL, 16), 100, &regs, mem)
	if o.Kind != OutcomeJump || o.Target != 116 || !o.Link {
		t.Errorf("JL = %+v, want Jump/116/true", o)
	}

	regs.SetUint32(isa.T0, 200)
	o = Step(isa.MakeI(isa.OpJR, 0, isa.T0, 0), 100, &regs, mem)
	if o.Kind != OutcomeJump || o.Target != 200 || o.Link {
		t.Errorf("JR = %+v, want Jump/200/false", o)
	}

	o = Step(isa.MakeI(isa.OpJLR, 0, isa.T0, 0), 100, &regs, mem)
	if o.Kind != OutcomeJump || o.Target != 200 || !o.Link {
		t.Errorf("JLR = %+v, want Jump/200/true", o)
	}
}

func TestStepITOFAndFTOI(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)

	regs.SetInt32(isa.T0, -7)
	Step(isa.MakeI(isa.OpITOF, isa.T1, isa.T0, 0), 0, &regs, mem)
	if got := regs.GetFloat32(isa.T1); got != -7.0 {
		t.Errorf("ITOF = %v, want -7.0", got)
	}

	regs.SetFloat32(isa.T0, 3.9)
	Step(isa.MakeI(isa.OpFTOI, isa.T1, isa.T0, 0), 0, &regs, mem)
	if got := regs.GetInt32(isa.T1); got != 3 {
		t.Errorf("FTOI(3.9) = %d, want 3", got)
	}
}

func TestStepFTOIOnNaNAndInf(t *testing.T) {
	cases := []float32{
		float32(math.NaN()),
		float32(math.Inf(1)),
		float32(math.Inf(-1)),
	}
	for _, v := range cases {
		var regs isa.RegisterFile
		mem := storage.NewPlain(4)
		regs.SetFloat32(isa.T0, v)
		Step(isa.MakeI(isa.OpFTOI, isa.T1, isa.T0, 0), 0, &regs, mem)
		if got := regs.GetInt32(isa.T1); got != math.MinInt32 {
			t.Errorf("FTOI(%v) = %d, want math.MinInt32", v, got)
		}
	}
}

func TestStepUnknownOpcodeStops(t *testing.T) {
	var regs isa.RegisterFile
	mem := storage.NewPlain(4)
	word := isa.MakeJ(isa.Opcode(63), 0)
	o := Step(word, 0, &regs, mem)
	if o.Kind != OutcomeStop || o.Code != InvalidOpcode {
		t.Errorf("unknown opcode = %+v, want Stop/InvalidOpcode", o)
	}
}
