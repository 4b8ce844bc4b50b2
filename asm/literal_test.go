package asm

import "testing"

func TestParseLiteralRawRadixes(t *testing.T) {
	cases := []struct {
		text string
		want int64
	}{
		{"0xFF", 0xFF},
		{"0o17", 017},
		{"0b1010", 10},
		{"42", 42},
		{"-7", -7},
	}
	for _, c := range cases {
		got, err := parseLiteralRaw(Position{}, c.text)
		if err != nil {
			t.Fatalf("parseLiteralRaw(%q): %v", c.text, err)
		}
		if got != c.want {
			t.Errorf("parseLiteralRaw(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestParseLiteralRawInvalidReportsError(t *testing.T) {
	if _, err := parseLiteralRaw(Position{}, "0xZZ"); err == nil {
		t.Error("expected error for invalid hex literal, got nil")
	}
	if _, err := parseLiteralRaw(Position{}, "not-a-number"); err == nil {
		t.Error("expected error for invalid decimal literal, got nil")
	}
}

func TestParseLiteralMasksToWidth(t *testing.T) {
	// 0xFF does not fit in a signed byte but is valid and truncated, not
	// range-checked, for data-section literals.
	v, err := parseLiteral(Position{}, "0xFF", 8)
	if err != nil {
		t.Fatalf("parseLiteral: %v", err)
	}
	if v != 0xFF {
		t.Errorf("parseLiteral(0xFF, 8) = %#x, want 0xFF", v)
	}

	v, err = parseLiteral(Position{}, "0x1FF", 8)
	if err != nil {
		t.Fatalf("parseLiteral: %v", err)
	}
	if v != 0xFF {
		t.Errorf("parseLiteral(0x1FF, 8) = %#x, want 0xFF (masked, not range-checked)", v)
	}
}

func TestParseLiteralFullWidth(t *testing.T) {
	v, err := parseLiteral(Position{}, "0xDEADBEEF", 32)
	if err != nil {
		t.Fatalf("parseLiteral: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Errorf("parseLiteral = %#x, want 0xDEADBEEF", v)
	}
}

func TestParseLiteralDecimalIsRangeChecked(t *testing.T) {
	// A decimal literal that fits the field is accepted and masked like
	// any other value.
	v, err := parseLiteral(Position{}, "100", 8)
	if err != nil {
		t.Fatalf("parseLiteral(100, 8): %v", err)
	}
	if v != 100 {
		t.Errorf("parseLiteral(100, 8) = %d, want 100", v)
	}

	// Unlike an unsigned-radix literal, an out-of-range decimal literal
	// is rejected rather than truncated.
	if _, err := parseLiteral(Position{}, "300", 8); err == nil {
		t.Error("expected ErrLiteral for decimal 300 in an 8-bit field, got nil")
	} else if err.Kind != ErrLiteral {
		t.Errorf("expected ErrLiteral, got %v", err.Kind)
	}

	if _, err := parseLiteral(Position{}, "100000", 16); err == nil {
		t.Error("expected ErrLiteral for decimal 100000 in a 16-bit field, got nil")
	}

	// Negative decimal literals within range are still accepted and
	// two's-complement masked.
	v, err = parseLiteral(Position{}, "-1", 8)
	if err != nil {
		t.Fatalf("parseLiteral(-1, 8): %v", err)
	}
	if v != 0xFF {
		t.Errorf("parseLiteral(-1, 8) = %#x, want 0xFF", v)
	}

	if _, err := parseLiteral(Position{}, "-200", 8); err == nil {
		t.Error("expected ErrLiteral for decimal -200 in an 8-bit field, got nil")
	}
}
