package codec_test

import (
	"math/rand"
	"testing"

	"github.com/vitalsong/viterbi"
	"github.com/vitalsong/viterbi/internal/bsc"
)

type code struct {
	name        string
	constraint  int
	polynomials []int
}

var standardCodes = []code{
	{"voyager", 7, []int{109, 79}},
	{"lte", 7, []int{91, 117, 121}},
	{"cdma2000", 9, []int{501, 441, 331, 315}},
}

func buildCodec(t *testing.T, c code) *viterbi.Codec {
	t.Helper()
	codec, err := viterbi.New(c.constraint, c.polynomials)
	if err != nil {
		t.Fatalf("%s: %v", c.name, err)
	}
	return codec
}

// encodeTerminated flushes the register with constraint-1 zero tail bits so
// the trailing message bits get the code's full protection.
func encodeTerminated(codec *viterbi.Codec, msg []uint8) []uint8 {
	padded := append(append([]uint8(nil), msg...), make([]uint8, codec.Constraint()-1)...)
	return codec.Encode(padded)
}

// TestNoisyRoundTrip runs long messages through a binary symmetric channel at
// rates where each code is expected to recover every message.
func TestNoisyRoundTrip(t *testing.T) {
	cases := []struct {
		code code
		ber  float64
	}{
		{standardCodes[0], 0.005}, // voyager, rate 1/2
		{standardCodes[1], 0.01},  // lte, rate 1/3
		{standardCodes[2], 0.02},  // cdma2000, rate 1/4
	}
	const (
		msgBits = 1024
		trials  = 20
	)
	for _, tc := range cases {
		t.Run(tc.code.name, func(t *testing.T) {
			codec := buildCodec(t, tc.code)
			rng := rand.New(rand.NewSource(1))
			channel := bsc.New(tc.ber, rng)
			for trial := 0; trial < trials; trial++ {
				msg := randomBits(rng, msgBits)
				encoded := encodeTerminated(codec, msg)
				flips := channel.Transmit(encoded)
				decoded := codec.Decode(encoded)[:msgBits]
				if d := bitDiff(msg, decoded); d != 0 {
					t.Fatalf("trial %d: %d residual errors after %d channel flips", trial, d, flips)
				}
			}
		})
	}
}

// TestRecoveryRateSweep reports (without asserting) how recovery degrades as
// the channel worsens. Useful as a quick sanity plot when touching the
// decoder; the hard guarantees live in TestNoisyRoundTrip.
func TestRecoveryRateSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("sweep is informational only")
	}
	const (
		msgBits = 512
		trials  = 50
	)
	for _, c := range standardCodes {
		codec := buildCodec(t, c)
		for _, ber := range []float64{0.01, 0.02, 0.05} {
			rng := rand.New(rand.NewSource(2))
			channel := bsc.New(ber, rng)
			ok := 0
			residual := 0
			for trial := 0; trial < trials; trial++ {
				msg := randomBits(rng, msgBits)
				encoded := encodeTerminated(codec, msg)
				channel.Transmit(encoded)
				d := bitDiff(msg, codec.Decode(encoded)[:msgBits])
				residual += d
				if d == 0 {
					ok++
				}
			}
			t.Logf("%s p=%.3f: recovered %d/%d, residual ber %.2e",
				c.name, ber, ok, trials, float64(residual)/float64(trials*msgBits))
		}
	}
}

func randomBits(rng *rand.Rand, n int) []uint8 {
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = uint8(rng.Intn(2))
	}
	return bits
}

func bitDiff(x, y []uint8) int {
	d := 0
	for i := range x {
		if x[i] != y[i] {
			d++
		}
	}
	return d
}
