// Package bsc models a binary symmetric channel: every transmitted bit is
// flipped independently with a fixed probability.
package bsc

import "math/rand"

// Channel flips bits with probability p using the supplied source.
type Channel struct {
	p   float64
	rng *rand.Rand
}

func New(p float64, rng *rand.Rand) *Channel { return &Channel{p: p, rng: rng} }

// Flip reports one u<p channel decision.
func (c *Channel) Flip() bool {
	if c.p <= 0 {
		return false
	}
	if c.p >= 1 {
		return true
	}
	return c.rng.Float64() < c.p
}

// Transmit passes bits through the channel in place and returns the number of
// bits that were flipped.
func (c *Channel) Transmit(bits []uint8) int {
	flips := 0
	for i := range bits {
		if c.Flip() {
			bits[i] ^= 1
			flips++
		}
	}
	return flips
}
