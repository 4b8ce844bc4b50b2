package container

import (
	"bytes"
	"testing"
)

func TestExecutableWriteReadRoundTrip(t *testing.T) {
	e := &Executable{
		DataOffset:   0x1000,
		Instructions: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		Data:         []byte{0xAA, 0xBB, 0xCC},
	}

	var buf bytes.Buffer
	if err := e.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.DataOffset != e.DataOffset {
		t.Errorf("DataOffset = %#x, want %#x", got.DataOffset, e.DataOffset)
	}
	if !bytes.Equal(got.Instructions, e.Instructions) {
		t.Errorf("Instructions = %v, want %v", got.Instructions, e.Instructions)
	}
	if !bytes.Equal(got.Data, e.Data) {
		t.Errorf("Data = %v, want %v", got.Data, e.Data)
	}
}

func TestExecutableHeaderByteOrder(t *testing.T) {
	e := &Executable{
		DataOffset:   0x01020304,
		Instructions: []byte{0, 0, 0, 0},
		Data:         nil,
	}
	var buf bytes.Buffer
	if err := e.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := buf.Bytes()
	wantHeader := []byte{
		4, 0, 0, 0, // instr_len = 4
		0, 0, 0, 0, // data_len = 0
		4, 3, 2, 1, // data_offset = 0x01020304, little-endian
	}
	if !bytes.Equal(raw[:12], wantHeader) {
		t.Errorf("header bytes = %v, want %v", raw[:12], wantHeader)
	}
}

func TestExecutableEmptyInstructionsAndData(t *testing.T) {
	e := &Executable{}
	var buf bytes.Buffer
	if err := e.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Instructions) != 0 || len(got.Data) != 0 || got.DataOffset != 0 {
		t.Errorf("got %+v, want all-zero/empty", got)
	}
}

func TestExecutableReadTruncatedHeaderFails(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3})
	if _, err := Read(buf); err == nil {
		t.Error("expected error reading a truncated header, got nil")
	}
}

func TestExecutableReadTruncatedPayloadFails(t *testing.T) {
	var buf bytes.Buffer
	header := []byte{
		8, 0, 0, 0, // instr_len = 8, but we only write 2 bytes of payload
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	buf.Write(header)
	buf.Write([]byte{1, 2})
	if _, err := Read(&buf); err == nil {
		t.Error("expected error reading truncated instruction payload, got nil")
	}
}
