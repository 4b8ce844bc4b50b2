package isa

// Opcode is the 6-bit primary dispatch key of an instruction word.
type Opcode uint32

// The opcode set. ALU and FLOP are R-format subdispatch keys: their
// Funct field selects the concrete operation (see Funct below).
const (
	OpNop Opcode = iota
	OpHalt
	OpCall

	OpLI
	OpLHI
	OpSLO
	OpSHI

	OpCopy

	OpLB
	OpLH
	OpLW
	OpSB
	OpSH
	OpSW

	OpALU

	OpADDI
	OpSUBI
	OpMULI
	OpDIVI
	OpANDI
	OpORI
	OpXORI
	OpSLLI
	OpSRLI
	OpSRAI
	OpSEQI
	OpSNEI
	OpSLTI
	OpSGTI
	OpSLEI
	OpSGEI
	OpSLTUI
	OpSGTUI
	OpSLEUI
	OpSGEUI

	OpFLIP

	OpFLOP

	OpBEZ
	OpBNZ

	OpJMP
	OpJL
	OpJR
	OpJLR

	OpITOF
	OpFTOI

	opcodeCount
)

// Names indexes opcodes to their assembler mnemonic.
var opcodeNames = map[Opcode]string{
	OpNop: "NOP", OpHalt: "HALT", OpCall: "CALL",
	OpLI: "LI", OpLHI: "LHI", OpSLO: "SLO", OpSHI: "SHI",
	OpCopy: "COPY",
	OpLB:   "LB", OpLH: "LH", OpLW: "LW", OpSB: "SB", OpSH: "SH", OpSW: "SW",
	OpALU:   "ALU",
	OpADDI:  "ADDI", OpSUBI: "SUBI", OpMULI: "MULI", OpDIVI: "DIVI",
	OpANDI:  "ANDI", OpORI: "ORI", OpXORI: "XORI",
	OpSLLI:  "SLLI", OpSRLI: "SRLI", OpSRAI: "SRAI",
	OpSEQI:  "SEQI", OpSNEI: "SNEI", OpSLTI: "SLTI", OpSGTI: "SGTI",
	OpSLEI:  "SLEI", OpSGEI: "SGEI",
	OpSLTUI: "SLTUI", OpSGTUI: "SGTUI", OpSLEUI: "SLEUI", OpSGEUI: "SGEUI",
	OpFLIP: "FLIP",
	OpFLOP: "FLOP",
	OpBEZ:  "BEZ", OpBNZ: "BNZ",
	OpJMP: "JMP", OpJL: "JL", OpJR: "JR", OpJLR: "JLR",
	OpITOF: "ITOF", OpFTOI: "FTOI",
}

// String returns the assembler mnemonic for the opcode, or "UNKNOWN".
func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "UNKNOWN"
}

// Valid reports whether o names a known opcode.
func (o Opcode) Valid() bool {
	_, ok := opcodeNames[o]
	return ok
}

// Funct selects the concrete ALU or FLOP operation within an R-format
// instruction whose Opcode is OpALU or OpFLOP.
type Funct uint32

const (
	FnADD Funct = iota
	FnSUB
	FnMUL
	FnDIV
	FnAND
	FnOR
	FnXOR
	FnSLL
	FnSRL
	FnSRA
	FnSEQ
	FnSNE
	FnSLT
	FnSGT
	FnSLE
	FnSGE
	FnSLTU
	FnSGTU
	FnSLEU
	FnSGEU
)

const (
	FnFADD Funct = iota
	FnFSUB
	FnFMUL
	FnFDIV
)

var aluFunctNames = map[Funct]string{
	FnADD: "ADD", FnSUB: "SUB", FnMUL: "MUL", FnDIV: "DIV",
	FnAND: "AND", FnOR: "OR", FnXOR: "XOR",
	FnSLL: "SLL", FnSRL: "SRL", FnSRA: "SRA",
	FnSEQ: "SEQ", FnSNE: "SNE", FnSLT: "SLT", FnSGT: "SGT",
	FnSLE: "SLE", FnSGE: "SGE",
	FnSLTU: "SLTU", FnSGTU: "SGTU", FnSLEU: "SLEU", FnSGEU: "SGEU",
}

var flopFunctNames = map[Funct]string{
	FnFADD: "FADD", FnFSUB: "FSUB", FnFMUL: "FMUL", FnFDIV: "FDIV",
}

// ALUFunctName returns the mnemonic for an ALU funct value.
func ALUFunctName(f Funct) string {
	if n, ok := aluFunctNames[f]; ok {
		return n
	}
	return "UNKNOWN"
}

// FLOPFunctName returns the mnemonic for a FLOP funct value.
func FLOPFunctName(f Funct) string {
	if n, ok := flopFunctNames[f]; ok {
		return n
	}
	return "UNKNOWN"
}
