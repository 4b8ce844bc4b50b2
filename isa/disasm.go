package isa

import "fmt"

// registerName formats register i as "$NAME", or "$?" if out of range.
func registerName(i int) string {
	if i < 0 || i >= RegisterCount {
		return "$?"
	}
	return "$" + RegisterNames[i]
}

// Disassemble renders a raw instruction word as assembler-like text,
// for diagnostics. It is best-effort:
// an unrecognized opcode or funct renders as "UNKNOWN" rather than
// erroring, since callers use this for human-facing output, not for
// round-tripping back through the assembler.
func Disassemble(word uint32) string {
	f := Decode(word)

	switch f.Opcode {
	case OpNop, OpHalt, OpCall:
		return f.Opcode.String()

	case OpLI, OpLHI, OpSLO, OpSHI:
		return fmt.Sprintf("%s %s, %d", f.Opcode, registerName(f.Rd), f.ImmU)

	case OpCopy, OpFLIP, OpITOF, OpFTOI:
		return fmt.Sprintf("%s %s, %s", f.Opcode, registerName(f.Rd), registerName(f.Rs1))

	case OpLB, OpLH, OpLW, OpSB, OpSH, OpSW:
		return fmt.Sprintf("%s %s, %d(%s)", f.Opcode, registerName(f.Rd), f.ImmI, registerName(f.Rs1))

	case OpALU:
		return fmt.Sprintf("%s %s, %s, %s", ALUFunctName(f.Funct), registerName(f.Rd), registerName(f.Rs1), registerName(f.Rs2))

	case OpFLOP:
		return fmt.Sprintf("%s %s, %s, %s", FLOPFunctName(f.Funct), registerName(f.Rd), registerName(f.Rs1), registerName(f.Rs2))

	case OpADDI, OpSUBI, OpMULI, OpDIVI, OpANDI, OpORI, OpXORI,
		OpSLLI, OpSRLI, OpSRAI, OpSEQI, OpSNEI, OpSLTI, OpSGTI, OpSLEI, OpSGEI:
		return fmt.Sprintf("%s %s, %s, %d", f.Opcode, registerName(f.Rd), registerName(f.Rs1), f.ImmI)

	case OpSLTUI, OpSGTUI, OpSLEUI, OpSGEUI:
		return fmt.Sprintf("%s %s, %s, %d", f.Opcode, registerName(f.Rd), registerName(f.Rs1), f.ImmU)

	case OpBEZ, OpBNZ:
		return fmt.Sprintf("%s %s, %d", f.Opcode, registerName(f.Rs1), int32(f.ImmI))

	case OpJR, OpJLR:
		return fmt.Sprintf("%s %s", f.Opcode, registerName(f.Rs1))

	case OpJMP, OpJL:
		return fmt.Sprintf("%s %d", f.Opcode, int32(f.Addr))

	default:
		return fmt.Sprintf("UNKNOWN(%#08x)", word)
	}
}
