// Package isa describes the bit-level shape of the VEX instruction set:
// field widths and masks for the three instruction formats, the opcode
// and funct enumerations, the register file layout, and the encoders
// that pack operands into instruction words.
package isa

// Byte widths of the primitive quantities the ISA deals in.
const (
	ByteBytes      = 1
	HalfBytes      = 2
	WordBytes      = 4
	ImmediateBytes = 2
)

// Field widths, MSB..LSB, shared by all three instruction formats.
const (
	OpcodeWidth  = 6
	RegWidth     = 5
	FunctWidth   = 6
	UnusedWidth  = 5
	ImmWidth     = 16
	AddressWidth = 26
)

// Bit offsets of each field within a 32-bit word.
const (
	OpcodeShift = 26
	RdShift     = 21
	Rs1Shift    = 16
	Rs2Shift    = 11
	FunctShift  = 0
	ImmShift    = 0
	AddrShift   = 0
)

// Field masks, pre-shift (i.e. the mask of the raw field value, not its
// position in the word). Shifted into place, they and the UnusedWidth-bit
// unused field disjointly cover a full word for R-format, and the
// opcode and AddressMask fields cover a full word for J-format.
const (
	OpcodeFieldMask = (1 << OpcodeWidth) - 1
	RegFieldMask    = (1 << RegWidth) - 1
	FunctFieldMask  = (1 << FunctWidth) - 1
	ImmFieldMask    = (1 << ImmWidth) - 1
	AddressMask     = (1 << AddressWidth) - 1

	LowBitsMask  uint32 = 0x0000FFFF
	HighBitsMask uint32 = 0xFFFF0000
)

// ADDRESS_SIGN_MASK / ADDRESS_EXTENSION: the address
// field is 26 bits wide; bit 25 is the sign bit and bits 31..26 are the
// extension applied when the value is sign-extended to 32 bits.
const (
	AddressSignMask  uint32 = 1 << 25
	AddressExtension uint32 = 0xFC000000
)

// RegisterCount is the number of cells in the register file.
const RegisterCount = 32

// Register indices. The ordinal is the 5-bit encoding used in
// instruction words.
const (
	ZERO = iota
	V0
	V1
	A0
	A1
	A2
	A3
	A4
	T0
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	T8
	T9
	S0
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	SP
	FP
	RM
	RA
)

// RegisterNames indexes register ordinals to their canonical textual
// name, used by ParseRegister (and so by the assembler's parser) and by
// diagnostics.
var RegisterNames = [RegisterCount]string{
	"ZERO", "V0", "V1",
	"A0", "A1", "A2", "A3", "A4",
	"T0", "T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8", "T9",
	"S0", "S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8", "S9",
	"SP", "FP", "RM", "RA",
}

// ParseRegister resolves a register name (case-insensitive, without the
// leading '$') to its ordinal. Returns false if unknown.
func ParseRegister(name string) (int, bool) {
	for i, n := range RegisterNames {
		if equalFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
