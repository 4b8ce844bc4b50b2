package isa

import "math"

// Cell is a single 32-bit register storage that may be interpreted as
// i32, u32, or f32 depending on which instruction touches it. Equality
// between two cells is defined as equality of the raw bits, the same
// bit-packing idiom a flags register uses for its constituent fields.
type Cell struct {
	bits uint32
}

// NewCell constructs a cell holding the given raw bits.
func NewCell(bits uint32) Cell { return Cell{bits: bits} }

// Bits returns the raw 32-bit value.
func (c Cell) Bits() uint32 { return c.bits }

// Int32 interprets the cell as a signed 32-bit integer.
func (c Cell) Int32() int32 { return int32(c.bits) }

// Uint32 interprets the cell as an unsigned 32-bit integer.
func (c Cell) Uint32() uint32 { return c.bits }

// Float32 interprets the cell's bits as an IEEE-754 single-precision
// float.
func (c Cell) Float32() float32 { return math.Float32frombits(c.bits) }

// SetInt32 stores a signed integer's bit pattern.
func (c *Cell) SetInt32(v int32) { c.bits = uint32(v) }

// SetUint32 stores an unsigned integer.
func (c *Cell) SetUint32(v uint32) { c.bits = v }

// SetFloat32 stores a float's bit pattern.
func (c *Cell) SetFloat32(v float32) { c.bits = math.Float32bits(v) }

// Equal reports raw-bit equality, the defined equality for register
// cells regardless of which typed view produced the value.
func (c Cell) Equal(other Cell) bool { return c.bits == other.bits }
