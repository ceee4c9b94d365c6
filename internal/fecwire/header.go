// Package fecwire defines the binary framing used by the noisy-transfer demo:
// a fixed-layout little-endian header per encoded frame, plus the packing
// between logical bit slices and wire bytes.
package fecwire

import (
	"encoding/binary"
)

// Scheme identifiers used on the wire.
const (
	SchemeConvolutional uint8 = 0
)

// FrameHeader precedes every encoded frame on the transfer stream.
type FrameHeader struct {
	Version    uint8  // 1
	Scheme     uint8  // SchemeConvolutional
	FrameID    uint32 // sequential, starting at 0
	MsgBits    uint32 // message bits carried by this frame before encoding
	PayloadLen uint32 // encoded payload length in bytes
	Flags      uint8  // reserved
}

const HeaderLen = 1 + 1 + 4 + 4 + 4 + 1 + 1 // +1 reserved byte

func (h *FrameHeader) MarshalBinary(b []byte) []byte {
	if len(b) < HeaderLen {
		b = make([]byte, HeaderLen)
	}
	b[0] = h.Version
	b[1] = h.Scheme
	binary.LittleEndian.PutUint32(b[2:6], h.FrameID)
	binary.LittleEndian.PutUint32(b[6:10], h.MsgBits)
	binary.LittleEndian.PutUint32(b[10:14], h.PayloadLen)
	b[14] = h.Flags
	b[15] = 0
	return b[:HeaderLen]
}

func (h *FrameHeader) UnmarshalBinary(b []byte) bool {
	if len(b) < HeaderLen {
		return false
	}
	h.Version = b[0]
	h.Scheme = b[1]
	h.FrameID = binary.LittleEndian.Uint32(b[2:6])
	h.MsgBits = binary.LittleEndian.Uint32(b[6:10])
	h.PayloadLen = binary.LittleEndian.Uint32(b[10:14])
	h.Flags = b[14]
	return true
}

// PackBits packs a slice of 0/1 bit values into bytes, first bit in the least
// significant position of the first byte. The tail of the last byte is zero.
func PackBits(bits []uint8) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i>>3] |= 1 << uint(i&7)
		}
	}
	return out
}

// UnpackBits expands numBits bits from b, inverse of PackBits.
func UnpackBits(b []byte, numBits int) []uint8 {
	if numBits > len(b)*8 {
		numBits = len(b) * 8
	}
	bits := make([]uint8, numBits)
	for i := range bits {
		bits[i] = (b[i>>3] >> uint(i&7)) & 1
	}
	return bits
}
