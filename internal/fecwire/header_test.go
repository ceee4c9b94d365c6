package fecwire

import (
	"bytes"
	"testing"
)

func TestFrameHeaderRoundtrip(t *testing.T) {
	h := FrameHeader{
		Version:    1,
		Scheme:     SchemeConvolutional,
		FrameID:    4242,
		MsgBits:    8192,
		PayloadLen: 2048,
	}
	b := h.MarshalBinary(nil)
	if len(b) != HeaderLen {
		t.Fatalf("len=%d", len(b))
	}
	var h2 FrameHeader
	if !h2.UnmarshalBinary(b) {
		t.Fatal("unmarshal failed")
	}
	if h2 != h {
		t.Fatalf("mismatch: %+v vs %+v", h2, h)
	}

	var h3 FrameHeader
	if h3.UnmarshalBinary(b[:HeaderLen-1]) {
		t.Fatal("short buffer accepted")
	}
}

func TestPackUnpackBits(t *testing.T) {
	bits := []uint8{1, 0, 1, 1, 0, 0, 0, 1, 1, 1, 0}
	packed := PackBits(bits)
	if len(packed) != 2 {
		t.Fatalf("packed len=%d", len(packed))
	}
	got := UnpackBits(packed, len(bits))
	if !bytes.Equal(got, bits) {
		t.Fatalf("got %v want %v", got, bits)
	}

	if got := UnpackBits(nil, 0); len(got) != 0 {
		t.Fatalf("empty unpack returned %v", got)
	}
	// Requesting more bits than available clamps to the buffer.
	if got := UnpackBits([]byte{0xff}, 16); len(got) != 8 {
		t.Fatalf("clamped unpack len=%d", len(got))
	}
}
