package engine

import (
	"math"

	"github.com/vex-arch/vexvm/isa"
	"github.com/vex-arch/vexvm/storage"
)

// OutcomeKind tags which variant of Outcome a Step produced.
type OutcomeKind int

const (
	OutcomeNext OutcomeKind = iota
	OutcomeJump
	OutcomeStop
)

// Outcome is the single result of decoding and executing one
// instruction word: advance, branch, or terminate.
type Outcome struct {
	Kind   OutcomeKind
	Target uint32   // valid when Kind == OutcomeJump
	Link   bool     // valid when Kind == OutcomeJump
	Code   ExitCode // valid when Kind == OutcomeStop
}

func next() Outcome                         { return Outcome{Kind: OutcomeNext} }
func jump(target uint32, link bool) Outcome { return Outcome{Kind: OutcomeJump, Target: target, Link: link} }
func stop(code ExitCode) Outcome            { return Outcome{Kind: OutcomeStop, Code: code} }

// Step decodes the instruction word at the current pc, executes it
// against regs and mem, and returns the resulting Outcome. All integer
// arithmetic uses wrap-around two's complement semantics; nothing
// here traps on overflow.
func Step(word uint32, pc uint32, regs *isa.RegisterFile, mem storage.Storage) Outcome {
	f := isa.Decode(word)

	switch f.Opcode {
	case isa.OpNop:
		return next()
	case isa.OpHalt:
		return stop(Halted)
	case isa.OpCall:
		// Reserved; a no-op.
		return next()

	case isa.OpLI:
		regs.SetInt32(f.Rd, int32(f.ImmI))
		return next()
	case isa.OpLHI:
		regs.SetUint32(f.Rd, uint32(f.ImmU)<<16)
		return next()
	case isa.OpSLO:
		cur := regs.GetUint32(f.Rd)
		regs.SetUint32(f.Rd, (cur&isa.HighBitsMask)|uint32(f.ImmU))
		return next()
	case isa.OpSHI:
		cur := regs.GetUint32(f.Rd)
		regs.SetUint32(f.Rd, (cur&isa.LowBitsMask)|(uint32(f.ImmU)<<16))
		return next()

	case isa.OpCopy:
		regs.SetUint32(f.Rd, regs.GetUint32(f.Rs1))
		return next()

	case isa.OpLB, isa.OpLH, isa.OpLW:
		size := loadSize(f.Opcode)
		addr := regs.GetUint32(f.Rs1) + f.ImmUEx
		v, err := mem.Read(addr, size)
		if err != nil {
			return stop(BadMemoryAccess)
		}
		regs.SetUint32(f.Rd, v)
		return next()

	case isa.OpSB, isa.OpSH, isa.OpSW:
		size := storeSize(f.Opcode)
		addr := regs.GetUint32(f.Rs1) + f.ImmUEx
		v := truncate(regs.GetUint32(f.Rd), size)
		if err := mem.Write(addr, size, v); err != nil {
			return stop(BadMemoryAccess)
		}
		return next()

	case isa.OpALU:
		return execALU(f, regs)

	case isa.OpFLOP:
		return execFLOP(f, regs)

	case isa.OpADDI, isa.OpSUBI, isa.OpMULI, isa.OpDIVI,
		isa.OpANDI, isa.OpORI, isa.OpXORI,
		isa.OpSLLI, isa.OpSRLI, isa.OpSRAI,
		isa.OpSEQI, isa.OpSNEI, isa.OpSLTI, isa.OpSGTI, isa.OpSLEI, isa.OpSGEI,
		isa.OpSLTUI, isa.OpSGTUI, isa.OpSLEUI, isa.OpSGEUI:
		return execImmediate(f, regs)

	case isa.OpFLIP:
		regs.SetUint32(f.Rd, ^regs.GetUint32(f.Rs1))
		return next()

	case isa.OpBEZ:
		if regs.GetInt32(f.Rs1) == 0 {
			return jump(pc+f.ImmUEx, false)
		}
		return next()
	case isa.OpBNZ:
		if regs.GetInt32(f.Rs1) != 0 {
			return jump(pc+f.ImmUEx, false)
		}
		return next()

	case isa.OpJMP:
		return jump(pc+f.Addr, false)
	case isa.OpJL:
		return jump(pc+f.Addr, true)
	case isa.OpJR:
		return jump(regs.GetUint32(f.Rs1), false)
	case isa.OpJLR:
		return jump(regs.GetUint32(f.Rs1), true)

	case isa.OpITOF:
		regs.SetFloat32(f.Rd, float32(regs.GetInt32(f.Rs1)))
		return next()
	case isa.OpFTOI:
		v := regs.GetFloat32(f.Rs1)
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			regs.SetInt32(f.Rd, math.MinInt32)
		} else {
			regs.SetInt32(f.Rd, int32(v))
		}
		return next()

	default:
		return stop(InvalidOpcode)
	}
}

func loadSize(op isa.Opcode) uint32 {
	switch op {
	case isa.OpLB:
		return 1
	case isa.OpLH:
		return 2
	default:
		return 4
	}
}

func storeSize(op isa.Opcode) uint32 {
	switch op {
	case isa.OpSB:
		return 1
	case isa.OpSH:
		return 2
	default:
		return 4
	}
}

func truncate(v uint32, size uint32) uint32 {
	switch size {
	case 1:
		return v & 0xFF
	case 2:
		return v & 0xFFFF
	default:
		return v
	}
}

// execALU implements the R-format ALU funct dispatch.
func execALU(f isa.DecodedFields, regs *isa.RegisterFile) Outcome {
	rs1i, rs2i := regs.GetInt32(f.Rs1), regs.GetInt32(f.Rs2)
	rs1u, rs2u := regs.GetUint32(f.Rs1), regs.GetUint32(f.Rs2)

	switch f.Funct {
	case isa.FnADD:
		regs.SetInt32(f.Rd, rs1i+rs2i)
	case isa.FnSUB:
		regs.SetInt32(f.Rd, rs1i-rs2i)
	case isa.FnMUL:
		lo, hi := mul64(rs1i, rs2i)
		regs.SetInt32(f.Rd, lo)
		regs.SetUint32(isa.RM, hi)
	case isa.FnDIV:
		if rs2i == 0 {
			return stop(DivisionByZero)
		}
		regs.SetInt32(f.Rd, rs1i/rs2i)
		regs.SetInt32(isa.RM, rs1i%rs2i)
	case isa.FnAND:
		regs.SetUint32(f.Rd, rs1u&rs2u)
	case isa.FnOR:
		regs.SetUint32(f.Rd, rs1u|rs2u)
	case isa.FnXOR:
		regs.SetUint32(f.Rd, rs1u^rs2u)
	case isa.FnSLL:
		regs.SetUint32(f.Rd, rs1u<<(rs2u&0x1F))
	case isa.FnSRL:
		regs.SetUint32(f.Rd, rs1u>>(rs2u&0x1F))
	case isa.FnSRA:
		regs.SetInt32(f.Rd, rs1i>>(rs2u&0x1F))
	case isa.FnSEQ:
		regs.SetUint32(f.Rd, boolU32(rs1i == rs2i))
	case isa.FnSNE:
		regs.SetUint32(f.Rd, boolU32(rs1i != rs2i))
	case isa.FnSLT:
		regs.SetUint32(f.Rd, boolU32(rs1i < rs2i))
	case isa.FnSGT:
		regs.SetUint32(f.Rd, boolU32(rs1i > rs2i))
	case isa.FnSLE:
		regs.SetUint32(f.Rd, boolU32(rs1i <= rs2i))
	case isa.FnSGE:
		regs.SetUint32(f.Rd, boolU32(rs1i >= rs2i))
	case isa.FnSLTU:
		regs.SetUint32(f.Rd, boolU32(rs1u < rs2u))
	case isa.FnSGTU:
		regs.SetUint32(f.Rd, boolU32(rs1u > rs2u))
	case isa.FnSLEU:
		regs.SetUint32(f.Rd, boolU32(rs1u <= rs2u))
	case isa.FnSGEU:
		regs.SetUint32(f.Rd, boolU32(rs1u >= rs2u))
	default:
		return stop(InvalidOpcode)
	}
	return next()
}

// execFLOP implements the R-format FLOP funct dispatch.
func execFLOP(f isa.DecodedFields, regs *isa.RegisterFile) Outcome {
	rs1f, rs2f := regs.GetFloat32(f.Rs1), regs.GetFloat32(f.Rs2)

	switch f.Funct {
	case isa.FnFADD:
		regs.SetFloat32(f.Rd, rs1f+rs2f)
	case isa.FnFSUB:
		regs.SetFloat32(f.Rd, rs1f-rs2f)
	case isa.FnFMUL:
		regs.SetFloat32(f.Rd, rs1f*rs2f)
	case isa.FnFDIV:
		regs.SetFloat32(f.Rd, rs1f/rs2f)
	default:
		return stop(InvalidOpcode)
	}
	return next()
}

// execImmediate implements the *I opcode family, mirroring the ALU
// funct set one-to-one with the immediate replacing rs2. SLTUI..SGEUI
// use the unsigned 16-bit immediate without sign-extension; the other
// *I variants use the sign-extended form.
func execImmediate(f isa.DecodedFields, regs *isa.RegisterFile) Outcome {
	rs1i, rs1u := regs.GetInt32(f.Rs1), regs.GetUint32(f.Rs1)
	immI := int32(f.ImmI)
	immUEx := f.ImmUEx
	immU := uint32(f.ImmU)

	switch f.Opcode {
	case isa.OpADDI:
		regs.SetInt32(f.Rd, rs1i+immI)
	case isa.OpSUBI:
		regs.SetInt32(f.Rd, rs1i-immI)
	case isa.OpMULI:
		lo, hi := mul64(rs1i, immI)
		regs.SetInt32(f.Rd, lo)
		regs.SetUint32(isa.RM, hi)
	case isa.OpDIVI:
		if immI == 0 {
			return stop(DivisionByZero)
		}
		regs.SetInt32(f.Rd, rs1i/immI)
		regs.SetInt32(isa.RM, rs1i%immI)
	case isa.OpANDI:
		regs.SetUint32(f.Rd, rs1u&immUEx)
	case isa.OpORI:
		regs.SetUint32(f.Rd, rs1u|immUEx)
	case isa.OpXORI:
		regs.SetUint32(f.Rd, rs1u^immUEx)
	case isa.OpSLLI:
		regs.SetUint32(f.Rd, rs1u<<(immUEx&0x1F))
	case isa.OpSRLI:
		regs.SetUint32(f.Rd, rs1u>>(immUEx&0x1F))
	case isa.OpSRAI:
		regs.SetInt32(f.Rd, rs1i>>(immUEx&0x1F))
	case isa.OpSEQI:
		regs.SetUint32(f.Rd, boolU32(rs1i == immI))
	case isa.OpSNEI:
		regs.SetUint32(f.Rd, boolU32(rs1i != immI))
	case isa.OpSLTI:
		regs.SetUint32(f.Rd, boolU32(rs1i < immI))
	case isa.OpSGTI:
		regs.SetUint32(f.Rd, boolU32(rs1i > immI))
	case isa.OpSLEI:
		regs.SetUint32(f.Rd, boolU32(rs1i <= immI))
	case isa.OpSGEI:
		regs.SetUint32(f.Rd, boolU32(rs1i >= immI))
	case isa.OpSLTUI:
		regs.SetUint32(f.Rd, boolU32(rs1u < immU))
	case isa.OpSGTUI:
		regs.SetUint32(f.Rd, boolU32(rs1u > immU))
	case isa.OpSLEUI:
		regs.SetUint32(f.Rd, boolU32(rs1u <= immU))
	case isa.OpSGEUI:
		regs.SetUint32(f.Rd, boolU32(rs1u >= immU))
	default:
		return stop(InvalidOpcode)
	}
	return next()
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// mul64 computes the signed 32x32->64 product, returning (low, high)
// as the rd/RM halves.
func mul64(a, b int32) (int32, uint32) {
	product := int64(a) * int64(b)
	return int32(uint64(product)), uint32(uint64(product) >> 32)
}
