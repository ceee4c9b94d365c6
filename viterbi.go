// Package viterbi implements a convolutional encoder and a hard-decision
// maximum-likelihood Viterbi decoder for binary convolutional codes of
// arbitrary constraint length and generator polynomial count.
//
// Generator polynomials use the lsb-current convention: the least significant
// bit of a polynomial taps the newest input bit, the most significant bit taps
// the oldest bit still in the shift register. This is the convention of the
// Spiral Viterbi Decoder Software Generator; MATLAB uses the opposite
// (msb-current) order, which callers can translate with ReverseBits.
package viterbi

import (
	"errors"
	"fmt"
)

// Codec holds an immutable code configuration together with its precomputed
// output table. A Codec is safe for concurrent use: Encode and Decode only
// read the configuration and keep all per-call state on their own stacks.
type Codec struct {
	constraint int
	poly       []int

	// outputs[state | input<<(constraint-1)] is the parity bit vector the
	// encoder emits when consuming input in the given state, one bit per
	// polynomial, in polynomial order.
	outputs [][]uint8
}

// New builds a codec for the given constraint length and generator
// polynomials. The constraint length counts the current input bit, so the
// decoder trellis has 2^(constraint-1) states. Every polynomial must be
// positive and fit in constraint bits.
func New(constraint int, polynomials []int) (*Codec, error) {
	if constraint < 2 {
		return nil, fmt.Errorf("viterbi: constraint length must be at least 2, got %d", constraint)
	}
	if len(polynomials) == 0 {
		return nil, errors.New("viterbi: at least one generator polynomial is required")
	}
	for _, p := range polynomials {
		if p <= 0 {
			return nil, fmt.Errorf("viterbi: generator polynomial must be positive, got %d", p)
		}
		if p >= 1<<constraint {
			return nil, fmt.Errorf("viterbi: generator polynomial %d does not fit in %d bits", p, constraint)
		}
	}
	c := &Codec{
		constraint: constraint,
		poly:       append([]int(nil), polynomials...),
	}
	c.initOutputs()
	return c, nil
}

// Constraint returns the constraint length the codec was built with.
func (c *Codec) Constraint() int { return c.constraint }

// Polynomials returns a copy of the generator polynomials in output order.
func (c *Codec) Polynomials() []int { return append([]int(nil), c.poly...) }

// NumParityBits returns the number of output bits emitted per input bit.
func (c *Codec) NumParityBits() int { return len(c.poly) }

func (c *Codec) numStates() int { return 1 << (c.constraint - 1) }

// initOutputs fills the output table. Each polynomial is bit-reversed first so
// the convolution reduces to an AND+parity scan over the combined
// state-and-input index.
func (c *Codec) initOutputs() {
	c.outputs = make([][]uint8, 1<<c.constraint)
	for i := range c.outputs {
		out := make([]uint8, len(c.poly))
		for j, p := range c.poly {
			poly := ReverseBits(c.constraint, p)
			input := i
			var bit uint8
			for k := 0; k < c.constraint; k++ {
				bit ^= uint8(input&1) & uint8(poly&1)
				poly >>= 1
				input >>= 1
			}
			out[j] = bit
		}
		c.outputs[i] = out
	}
}

// nextState advances the shift register: the oldest bit falls off and input
// becomes the new high bit.
func (c *Codec) nextState(state, input int) int {
	return state>>1 | input<<(c.constraint-2)
}

// output returns the parity bits for consuming input in state. The returned
// slice aliases the table and must not be modified.
func (c *Codec) output(state, input int) []uint8 {
	return c.outputs[state|input<<(c.constraint-1)]
}

// Encode convolves bits with the generator polynomials, starting from the
// all-zero state. The result has len(bits)*NumParityBits() bits; an empty
// input encodes to an empty output. Input values are taken mod 2.
func (c *Codec) Encode(bits []uint8) []uint8 {
	encoded := make([]uint8, 0, len(bits)*len(c.poly))
	state := 0
	for _, b := range bits {
		in := int(b & 1)
		encoded = append(encoded, c.output(state, in)...)
		state = c.nextState(state, in)
	}
	return encoded
}

// ReverseBits reverses the numBits low-order bits of v. It translates between
// the lsb-current polynomial notation used by this package and the
// msb-current notation used by MATLAB: e.g. ReverseBits(3, 6) == 3.
func ReverseBits(numBits, v int) int {
	out := 0
	for ; numBits > 0; numBits-- {
		out = out<<1 | v&1
		v >>= 1
	}
	return out
}
