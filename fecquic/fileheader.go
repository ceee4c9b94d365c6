// Package fecquic transfers files over a QUIC stream with every frame
// protected by a convolutional code. Channel noise is simulated above the
// transport: the sender flips encoded payload bits through a binary symmetric
// channel before they are written, and the receiver relies on the Viterbi
// decoder, not retransmission, to recover the original bytes.
package fecquic

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FileHeader is sent once on the transfer stream before any frames. It also
// negotiates the codec, so the receiver needs no out-of-band configuration.
// Layout:
//
//	MAGIC      4B   "VFEC"
//	VERSION    u16  0x0001
//	FILESIZE   u64  exact byte length
//	SHA256     32B  digest of the original bytes
//	FRAMEBITS  u32  message bits per full frame (multiple of 8)
//	CONSTRAINT u8   codec constraint length
//	NUMPOLY    u8   generator polynomial count
//	RESERVED   2B   zeros
//	POLY       u32 x NUMPOLY generator polynomials
const (
	fileHeaderMagic    = "VFEC"
	fileHeaderFixedLen = 4 + 2 + 8 + 32 + 4 + 1 + 1 + 2
)

type FileHeader struct {
	Version     uint16
	FileSize    uint64
	SHA256      [32]byte
	FrameBits   uint32
	Constraint  uint8
	Polynomials []int
}

func (h *FileHeader) MarshalBinary() []byte {
	b := make([]byte, fileHeaderFixedLen+4*len(h.Polynomials))
	copy(b[0:4], []byte(fileHeaderMagic))
	binary.LittleEndian.PutUint16(b[4:6], h.Version)
	binary.LittleEndian.PutUint64(b[6:14], h.FileSize)
	copy(b[14:46], h.SHA256[:])
	binary.LittleEndian.PutUint32(b[46:50], h.FrameBits)
	b[50] = h.Constraint
	b[51] = uint8(len(h.Polynomials))
	// reserved zeros 52:54
	for i, p := range h.Polynomials {
		binary.LittleEndian.PutUint32(b[fileHeaderFixedLen+4*i:], uint32(p))
	}
	return b
}

func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) < fileHeaderFixedLen {
		return errors.New("short header")
	}
	if string(b[0:4]) != fileHeaderMagic {
		return errors.New("bad magic")
	}
	h.Version = binary.LittleEndian.Uint16(b[4:6])
	if h.Version != 1 {
		return errors.New("unsupported version")
	}
	h.FileSize = binary.LittleEndian.Uint64(b[6:14])
	copy(h.SHA256[:], b[14:46])
	h.FrameBits = binary.LittleEndian.Uint32(b[46:50])
	h.Constraint = b[50]
	numPoly := int(b[51])
	if len(b) < fileHeaderFixedLen+4*numPoly {
		return fmt.Errorf("header truncated: want %d polynomials", numPoly)
	}
	h.Polynomials = make([]int, numPoly)
	for i := range h.Polynomials {
		h.Polynomials[i] = int(binary.LittleEndian.Uint32(b[fileHeaderFixedLen+4*i:]))
	}
	return nil
}

// ReadFileHeader reads a FileHeader from the start of a stream.
func ReadFileHeader(r io.Reader) (*FileHeader, error) {
	fixed := make([]byte, fileHeaderFixedLen)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, err
	}
	numPoly := int(fixed[51])
	buf := make([]byte, fileHeaderFixedLen+4*numPoly)
	copy(buf, fixed)
	if _, err := io.ReadFull(r, buf[fileHeaderFixedLen:]); err != nil {
		return nil, err
	}
	var h FileHeader
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return &h, nil
}

// ComputeSHA256 hashes all of r and returns the digest and byte count.
func ComputeSHA256(r io.Reader) ([32]byte, uint64, error) {
	h := sha256.New()
	var buf [64 * 1024]byte
	var nTotal uint64
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			nTotal += uint64(n)
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return [32]byte{}, 0, err
		}
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nTotal, nil
}
