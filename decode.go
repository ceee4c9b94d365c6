package viterbi

import "math"

// unreachable marks a trellis state no encoder path has reached yet. Branch
// metrics are only added after an explicit reachability check, so accumulated
// metrics never approach the sentinel no matter how long the input is.
const unreachable = math.MaxInt

func hammingDistance(x, y []uint8) int {
	d := 0
	for i := range x {
		if x[i] != y[i] {
			d++
		}
	}
	return d
}

// branchMetric is the Hamming distance between one received bit group and the
// output the encoder would have produced on the source->target transition.
func (c *Codec) branchMetric(bits []uint8, source, target int) int {
	return hammingDistance(bits, c.output(source, target>>(c.constraint-2)))
}

// pathMetric returns the best cumulative metric for reaching state this step
// together with the chosen predecessor. The two candidate predecessors share
// the low constraint-2 bits of state; ties go to the even-input predecessor.
func (c *Codec) pathMetric(bits []uint8, prevMetrics []int, state int) (int, int) {
	s := (state & (1<<(c.constraint-2) - 1)) << 1
	source1 := s
	source2 := s | 1

	pm1 := prevMetrics[source1]
	if pm1 != unreachable {
		pm1 += c.branchMetric(bits, source1, state)
	}
	pm2 := prevMetrics[source2]
	if pm2 != unreachable {
		pm2 += c.branchMetric(bits, source2, state)
	}

	if pm1 <= pm2 {
		return pm1, source1
	}
	return pm2, source2
}

// Decode recovers the most likely message from a received bit sequence.
//
// The input is consumed in groups of NumParityBits bits; if the final group is
// short it is zero-padded on the right, a best-effort policy rather than an
// error, so trailing decoded bits beyond the caller's known message length may
// be unreliable. The result always has ceil(len(bits)/NumParityBits()) bits,
// which exceeds the original message length when padding occurred; callers
// that know the message length should trim to it.
func (c *Codec) Decode(bits []uint8) []uint8 {
	numParity := len(c.poly)
	numStates := c.numStates()

	// Forward pass: propagate path metrics and record, per step and state,
	// the predecessor that won.
	pathMetrics := make([]int, numStates)
	for i := range pathMetrics {
		pathMetrics[i] = unreachable
	}
	pathMetrics[0] = 0

	var trellis [][]int
	padded := make([]uint8, numParity)
	for i := 0; i < len(bits); i += numParity {
		group := bits[i:]
		if len(group) >= numParity {
			group = group[:numParity]
		} else {
			for j := range padded {
				padded[j] = 0
			}
			copy(padded, group)
			group = padded
		}

		// All states update against the previous step's metrics, so the new
		// vector is built in full before replacing the old one.
		newMetrics := make([]int, numStates)
		column := make([]int, numStates)
		for state := 0; state < numStates; state++ {
			newMetrics[state], column[state] = c.pathMetric(group, pathMetrics, state)
		}
		pathMetrics = newMetrics
		trellis = append(trellis, column)
	}

	// Traceback from the state with the smallest final metric (lowest index
	// on ties). The high bit of each visited state is that step's input.
	best := 0
	for state, m := range pathMetrics {
		if m < pathMetrics[best] {
			best = state
		}
	}
	decoded := make([]uint8, len(trellis))
	state := best
	for i := len(trellis) - 1; i >= 0; i-- {
		decoded[i] = uint8(state >> (c.constraint - 2))
		state = trellis[i][state]
	}
	return decoded
}
