package isa

import "testing"

func TestCellTypedViewsShareRawBits(t *testing.T) {
	var c Cell
	c.SetInt32(-1)
	if c.Uint32() != 0xFFFFFFFF {
		t.Errorf("Uint32() after SetInt32(-1) = %#x, want 0xFFFFFFFF", c.Uint32())
	}

	c.SetFloat32(1.5)
	if c.Bits() != 0x3FC00000 {
		t.Errorf("Bits() after SetFloat32(1.5) = %#x, want 0x3FC00000", c.Bits())
	}
}

func TestCellEqualIsBitwise(t *testing.T) {
	a := NewCell(0x3F800000) // 1.0f
	var b Cell
	b.SetFloat32(1.0)
	if !a.Equal(b) {
		t.Error("Equal: same bits via different constructors should be equal")
	}

	var c Cell
	c.SetInt32(1)
	if a.Equal(c) {
		t.Error("Equal: int32(1) bits should not equal float32(1.0) bits")
	}
}
