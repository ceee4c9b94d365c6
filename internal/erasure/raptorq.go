// Package erasure wraps systematic RaptorQ block coding behind a small
// symbol-oriented API. The eval harness uses it as a packet-erasure baseline
// to contrast with the bit-level convolutional code.
package erasure

import (
	"errors"

	rqq "github.com/xssnick/raptorq"
)

// Symbol is one encoded symbol of a block, identified by its position.
// Positions below K carry systematic source data, the rest are repair.
type Symbol struct {
	Index int
	Data  []byte
}

// EncodeBlock produces N symbols for a block of up to K*L payload bytes.
// Payload beyond K*L is truncated; shorter payloads are padded by the library.
func EncodeBlock(data []byte, n, k, l int) ([]Symbol, error) {
	if n <= 0 || k <= 0 || l <= 0 || k > n {
		return nil, errors.New("erasure: bad N/K/L")
	}
	if max := k * l; len(data) > max {
		data = data[:max]
	}
	enc, err := rqq.NewRaptorQ(uint32(l)).CreateEncoder(data)
	if err != nil {
		return nil, err
	}
	out := make([]Symbol, n)
	for i := range out {
		out[i] = Symbol{Index: i, Data: enc.GenSymbol(uint32(i))}
	}
	return out, nil
}

// DecodeBlock reconstructs a block of dataSize bytes from the received
// symbols. It reports ok=false when the symbols do not suffice.
func DecodeBlock(recv []Symbol, n, l, dataSize int) ([]byte, bool) {
	if l <= 0 || dataSize < 0 {
		return nil, false
	}
	dec, err := rqq.NewRaptorQ(uint32(l)).CreateDecoder(uint32(dataSize))
	if err != nil {
		return nil, false
	}
	for _, s := range recv {
		if s.Index < 0 || s.Index >= n {
			continue
		}
		// Bad symbols are skipped; the decoder just needs enough good ones.
		_, _ = dec.AddSymbol(uint32(s.Index), s.Data)
	}
	ok, data, err := dec.Decode()
	if err != nil || !ok {
		return nil, false
	}
	return data, true
}
