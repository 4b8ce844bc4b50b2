package asm

import (
	"fmt"
	"io"
)

// WriteSourceMap serializes a source map as the flat array of
// (start_line, line_count) u32 pairs — no
// header, just one pair per emitted instruction, little-endian. Packed
// by hand rather than with encoding/binary, matching the container
// package's encoding.
func WriteSourceMap(w io.Writer, spans []SourceSpan) error {
	buf := make([]byte, 8*len(spans))
	for i, s := range spans {
		putU32(buf[i*8:], s.StartLine)
		putU32(buf[i*8+4:], s.LineCount)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("asm: write source map: %w", err)
	}
	return nil
}

// ReadSourceMap parses a source map previously written by
// WriteSourceMap.
func ReadSourceMap(r io.Reader) ([]SourceSpan, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("asm: read source map: %w", err)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("asm: source map length %d is not a multiple of 8", len(raw))
	}
	spans := make([]SourceSpan, len(raw)/8)
	for i := range spans {
		spans[i].StartLine = getU32(raw[i*8:])
		spans[i].LineCount = getU32(raw[i*8+4:])
	}
	return spans, nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
