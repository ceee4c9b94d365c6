package codec_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/vitalsong/viterbi"
)

// TestDecodeThroughput_Perf reports encode/decode throughput for the Voyager
// code on a clean channel.
func TestDecodeThroughput_Perf(t *testing.T) {
	if testing.Short() {
		t.Skip("perf run")
	}
	// --- Editable parameters ---
	msgBits := 4096
	rounds := 200
	// ---------------------------

	codec, err := viterbi.New(7, []int{109, 79})
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	msg := randomBits(rng, msgBits)

	encStart := time.Now()
	var encoded []uint8
	for i := 0; i < rounds; i++ {
		encoded = codec.Encode(msg)
	}
	encDur := time.Since(encStart)

	decStart := time.Now()
	for i := 0; i < rounds; i++ {
		if bitDiff(msg, codec.Decode(encoded)) != 0 {
			t.Fatal("clean-channel round trip failed")
		}
	}
	decDur := time.Since(decStart)

	total := float64(msgBits * rounds)
	t.Logf("encode: %.2f Mbit/s, decode: %.2f Mbit/s",
		total/encDur.Seconds()/1e6, total/decDur.Seconds()/1e6)
}

func benchCodec(b *testing.B, constraint int, polynomials []int, msgBits int) (*viterbi.Codec, []uint8) {
	b.Helper()
	codec, err := viterbi.New(constraint, polynomials)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	msg := make([]uint8, msgBits)
	for i := range msg {
		msg[i] = uint8(rng.Intn(2))
	}
	return codec, msg
}

func BenchmarkEncodeVoyager(b *testing.B) {
	codec, msg := benchCodec(b, 7, []int{109, 79}, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		codec.Encode(msg)
	}
}

func BenchmarkDecodeVoyager(b *testing.B) {
	codec, msg := benchCodec(b, 7, []int{109, 79}, 1024)
	encoded := codec.Encode(msg)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		codec.Decode(encoded)
	}
}

// Cassini has 2^14 trellis states; this is the worst case the test suite
// touches.
func BenchmarkDecodeCassini(b *testing.B) {
	codec, msg := benchCodec(b, 15, []int{15, 17817, 20133, 23879, 30451, 32439, 26975}, 64)
	encoded := codec.Encode(msg)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		codec.Decode(encoded)
	}
}
