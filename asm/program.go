package asm

import "github.com/vex-arch/vexvm/isa"

// mnemonic operand shapes.
type shape int

const (
	shapeALU       shape = iota // Rd, Rs1, Rs2
	shapeFLOP                   // Rd, Rs1, Rs2
	shapeISigned                // Rd, Rs1, imm
	shapeIUnsigned               // Rd, Rs1, uimm
	shapeLoadStore               // Rd, imm(Rs1)
	shapeDualReg                 // Rd, Rs1
	shapeLoadImm                 // Rd, imm
	shapeSetHalf                 // Rd, uimm
	shapeEmpty                   // (none)
	shapeBranch                  // Rs1, target
	shapeJumpReg                 // Rs1
	shapeJump                    // target
)

type mnemonicInfo struct {
	shape  shape
	opcode isa.Opcode
	funct  isa.Funct
	isFlop bool
}

var mnemonics = buildMnemonicTable()

func buildMnemonicTable() map[string]mnemonicInfo {
	m := map[string]mnemonicInfo{}

	alu := []struct {
		name string
		f    isa.Funct
	}{
		{"ADD", isa.FnADD}, {"SUB", isa.FnSUB}, {"MUL", isa.FnMUL}, {"DIV", isa.FnDIV},
		{"AND", isa.FnAND}, {"OR", isa.FnOR}, {"XOR", isa.FnXOR},
		{"SLL", isa.FnSLL}, {"SRL", isa.FnSRL}, {"SRA", isa.FnSRA},
		{"SEQ", isa.FnSEQ}, {"SNE", isa.FnSNE}, {"SLT", isa.FnSLT}, {"SGT", isa.FnSGT},
		{"SLE", isa.FnSLE}, {"SGE", isa.FnSGE},
		{"SLTU", isa.FnSLTU}, {"SGTU", isa.FnSGTU}, {"SLEU", isa.FnSLEU}, {"SGEU", isa.FnSGEU},
	}
	for _, a := range alu {
		m[a.name] = mnemonicInfo{shape: shapeALU, opcode: isa.OpALU, funct: a.f}
	}

	flop := []struct {
		name string
		f    isa.Funct
	}{
		{"FADD", isa.FnFADD}, {"FSUB", isa.FnFSUB}, {"FMUL", isa.FnFMUL}, {"FDIV", isa.FnFDIV},
	}
	for _, a := range flop {
		m[a.name] = mnemonicInfo{shape: shapeFLOP, opcode: isa.OpFLOP, funct: a.f, isFlop: true}
	}

	signedImm := []struct {
		name string
		op   isa.Opcode
	}{
		{"ADDI", isa.OpADDI}, {"SUBI", isa.OpSUBI}, {"MULI", isa.OpMULI}, {"DIVI", isa.OpDIVI},
		{"ANDI", isa.OpANDI}, {"ORI", isa.OpORI}, {"XORI", isa.OpXORI},
		{"SLLI", isa.OpSLLI}, {"SRLI", isa.OpSRLI}, {"SRAI", isa.OpSRAI},
		{"SEQI", isa.OpSEQI}, {"SNEI", isa.OpSNEI}, {"SLTI", isa.OpSLTI}, {"SGTI", isa.OpSGTI},
		{"SLEI", isa.OpSLEI}, {"SGEI", isa.OpSGEI},
	}
	for _, a := range signedImm {
		m[a.name] = mnemonicInfo{shape: shapeISigned, opcode: a.op}
	}

	unsignedImm := []struct {
		name string
		op   isa.Opcode
	}{
		{"SLTUI", isa.OpSLTUI}, {"SGTUI", isa.OpSGTUI}, {"SLEUI", isa.OpSLEUI}, {"SGEUI", isa.OpSGEUI},
	}
	for _, a := range unsignedImm {
		m[a.name] = mnemonicInfo{shape: shapeIUnsigned, opcode: a.op}
	}

	loadStore := []struct {
		name string
		op   isa.Opcode
	}{
		{"LB", isa.OpLB}, {"LH", isa.OpLH}, {"LW", isa.OpLW},
		{"SB", isa.OpSB}, {"SH", isa.OpSH}, {"SW", isa.OpSW},
	}
	for _, a := range loadStore {
		m[a.name] = mnemonicInfo{shape: shapeLoadStore, opcode: a.op}
	}

	dualReg := []struct {
		name string
		op   isa.Opcode
	}{
		{"COPY", isa.OpCopy}, {"FLIP", isa.OpFLIP}, {"ITOF", isa.OpITOF}, {"FTOI", isa.OpFTOI},
	}
	for _, a := range dualReg {
		m[a.name] = mnemonicInfo{shape: shapeDualReg, opcode: a.op}
	}

	m["LI"] = mnemonicInfo{shape: shapeLoadImm, opcode: isa.OpLI}
	m["LHI"] = mnemonicInfo{shape: shapeLoadImm, opcode: isa.OpLHI}
	m["SLO"] = mnemonicInfo{shape: shapeSetHalf, opcode: isa.OpSLO}
	m["SHI"] = mnemonicInfo{shape: shapeSetHalf, opcode: isa.OpSHI}

	m["NOP"] = mnemonicInfo{shape: shapeEmpty, opcode: isa.OpNop}
	m["HALT"] = mnemonicInfo{shape: shapeEmpty, opcode: isa.OpHalt}
	m["CALL"] = mnemonicInfo{shape: shapeEmpty, opcode: isa.OpCall}

	m["BEZ"] = mnemonicInfo{shape: shapeBranch, opcode: isa.OpBEZ}
	m["BNZ"] = mnemonicInfo{shape: shapeBranch, opcode: isa.OpBNZ}

	m["JR"] = mnemonicInfo{shape: shapeJumpReg, opcode: isa.OpJR}
	m["JLR"] = mnemonicInfo{shape: shapeJumpReg, opcode: isa.OpJLR}

	m["JMP"] = mnemonicInfo{shape: shapeJump, opcode: isa.OpJMP}
	m["JL"] = mnemonicInfo{shape: shapeJump, opcode: isa.OpJL}

	return m
}

// shorthandMnemonics is the set handled outside the shape table, since
// each expands into multiple emitted instructions.
var shorthandMnemonics = map[string]bool{
	"PUSH": true, "POP": true, "LWI": true, "LDA": true, "LIA": true,
}

// SourceSpan is the (start_line, line_count) pair recorded per emitted
// instruction.
type SourceSpan struct {
	StartLine uint32
	LineCount uint32
}

// Program is the result of a successful assembly: the raw instruction
// and data bytes plus the source map, ready to be wrapped into a
// container.Executable by the caller.
type Program struct {
	Instructions []byte
	Data         []byte
	DataOffset   uint32
	SourceMap    []SourceSpan
	DataLabels   map[string]uint32
	InstrLabels  map[string]uint32
}

// Symbols returns a single combined view of every label the program
// defines, with instruction labels reported as byte addresses (index
// * isa.WordBytes) so data and instruction symbols share one address
// space for dump/debug tooling.
func (p *Program) Symbols() map[string]uint32 {
	out := make(map[string]uint32, len(p.DataLabels)+len(p.InstrLabels))
	for name, off := range p.DataLabels {
		out[name] = off + p.DataOffset
	}
	for name, idx := range p.InstrLabels {
		out[name] = idx * isa.WordBytes
	}
	return out
}

// Assemble compiles VEX assembler source into a Program. dataOffset is
// the base address the assembler uses when lowering LDA-style
// data-label address loads.
func Assemble(source, filename string, dataOffset uint32) (*Program, []*Error) {
	return Parse(source, filename, dataOffset)
}
