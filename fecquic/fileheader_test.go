package fecquic

import (
	"bytes"
	"testing"
)

func TestFileHeaderRoundtrip(t *testing.T) {
	var sha [32]byte
	for i := range sha {
		sha[i] = byte(i)
	}
	h := FileHeader{
		Version:     1,
		FileSize:    123456789,
		SHA256:      sha,
		FrameBits:   4096,
		Constraint:  7,
		Polynomials: []int{109, 79},
	}
	b := h.MarshalBinary()
	if len(b) != fileHeaderFixedLen+8 {
		t.Fatalf("len=%d", len(b))
	}

	h2, err := ReadFileHeader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if h2.Version != 1 || h2.FileSize != h.FileSize || h2.FrameBits != h.FrameBits ||
		h2.Constraint != h.Constraint || !bytes.Equal(h2.SHA256[:], h.SHA256[:]) {
		t.Fatalf("mismatch: %+v vs %+v", h2, h)
	}
	if len(h2.Polynomials) != 2 || h2.Polynomials[0] != 109 || h2.Polynomials[1] != 79 {
		t.Fatalf("polynomials: %v", h2.Polynomials)
	}
}

func TestFileHeaderRejectsGarbage(t *testing.T) {
	var h FileHeader
	if err := h.UnmarshalBinary(make([]byte, fileHeaderFixedLen-1)); err == nil {
		t.Fatal("short buffer accepted")
	}
	b := make([]byte, fileHeaderFixedLen)
	copy(b, "XFEC")
	if err := h.UnmarshalBinary(b); err == nil {
		t.Fatal("bad magic accepted")
	}
}
