package asm

import "strconv"

// parseLiteralRaw parses a literal token's text and
// returns its full 64-bit two's-complement value, unmasked. Decimal
// literals are signed (their sign prefix, if any, was already consumed
// by the lexer into text); 0x/0o/0b literals are unsigned.
func parseLiteralRaw(pos Position, text string) (int64, *Error) {
	switch {
	case hasRadixPrefix(text, "0x", "0X"):
		v, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return 0, wrapError(pos, ErrLiteral, err, "invalid hexadecimal literal %q", text)
		}
		return int64(v), nil
	case hasRadixPrefix(text, "0o", "0O"):
		v, err := strconv.ParseUint(text[2:], 8, 64)
		if err != nil {
			return 0, wrapError(pos, ErrLiteral, err, "invalid octal literal %q", text)
		}
		return int64(v), nil
	case hasRadixPrefix(text, "0b", "0B"):
		v, err := strconv.ParseUint(text[2:], 2, 64)
		if err != nil {
			return 0, wrapError(pos, ErrLiteral, err, "invalid binary literal %q", text)
		}
		return int64(v), nil
	default:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, wrapError(pos, ErrLiteral, err, "invalid decimal literal %q", text)
		}
		return v, nil
	}
}

// parseLiteral implements the integer literal policy: an unsigned-radix
// literal (0x/0o/0b) is width-truncated (masked to widthBits low bits),
// not range-checked — so `.byte 0xFF` is valid and yields 0xFF even
// though 0xFF does not fit in a signed byte. A plain decimal literal is
// signed and range-checked against widthBits instead: `.byte 300` and
// `ADDI T0, T0, 100000` (a 16-bit immediate) both fail with ErrLiteral
// rather than silently wrapping.
func parseLiteral(pos Position, text string, widthBits uint) (uint32, *Error) {
	raw, err := parseLiteralRaw(pos, text)
	if err != nil {
		return 0, err
	}
	if widthBits >= 64 {
		return uint32(raw), nil
	}
	mask := int64(1)<<widthBits - 1
	if hasRadixPrefix(text, "0x", "0X", "0o", "0O", "0b", "0B") {
		return uint32(raw & mask), nil
	}
	lo := -(int64(1) << (widthBits - 1))
	hi := int64(1)<<(widthBits-1) - 1
	if raw < lo || raw > hi {
		return 0, newError(pos, ErrLiteral, "decimal literal %q out of range for a %d-bit field", text, widthBits)
	}
	return uint32(raw & mask), nil
}

func hasRadixPrefix(text string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(text) > len(p) && text[:len(p)] == p {
			return true
		}
	}
	return false
}
