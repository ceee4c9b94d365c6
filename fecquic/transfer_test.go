package fecquic

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/vitalsong/viterbi"
	"github.com/vitalsong/viterbi/internal/bsc"
	"github.com/vitalsong/viterbi/internal/fecwire"
)

// TestFrameRecoveryAtDefaultBER exercises the per-frame pipeline the transfer
// runs on both ends: unpack -> encode -> corrupt -> pack -> unpack -> decode.
func TestFrameRecoveryAtDefaultBER(t *testing.T) {
	codec, err := viterbi.New(DefaultConstraint, DefaultPolynomials())
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(11))
	channel := bsc.New(0.01, rng)

	frame := make([]byte, DefaultFrameBits/8)
	for i := range frame {
		frame[i] = byte(rng.Intn(256))
	}
	msgBits := len(frame) * 8
	tail := make([]uint8, codec.Constraint()-1)

	encoded := codec.Encode(append(fecwire.UnpackBits(frame, msgBits), tail...))
	flips := channel.Transmit(encoded)
	payload := fecwire.PackBits(encoded)

	encBits := (msgBits + codec.Constraint() - 1) * codec.NumParityBits()
	received := fecwire.UnpackBits(payload, encBits)
	decoded := codec.Decode(received)[:msgBits]
	got := fecwire.PackBits(decoded)

	if !bytes.Equal(got, frame) {
		t.Fatalf("frame not recovered after %d channel flips", flips)
	}
	if flips == 0 {
		t.Fatal("channel flipped nothing; test exercised no correction")
	}
}

// TestServerTLSCarriesALPN pins the listener contract: the ALPN protocol
// reaches quic-go through tls.Config.NextProtos, nowhere else.
func TestServerTLSCarriesALPN(t *testing.T) {
	tlsConf, err := GenerateServerTLSConfig("viterbi-fec")
	if err != nil {
		t.Fatal(err)
	}
	if len(tlsConf.NextProtos) != 1 || tlsConf.NextProtos[0] != "viterbi-fec" {
		t.Fatalf("NextProtos = %v", tlsConf.NextProtos)
	}
	if len(tlsConf.Certificates) != 1 {
		t.Fatalf("expected one self-signed certificate, got %d", len(tlsConf.Certificates))
	}
}

func TestSendOptionsValidation(t *testing.T) {
	bad := []SendOptions{
		{FrameBits: 100},                       // not a multiple of 8
		{BER: 1.0},                             // out of range
		{Constraint: 3, Polynomials: []int{8}}, // polynomial too wide
		{Constraint: 3, Polynomials: []int{}},  // empty set
	}
	for i := range bad {
		if _, err := bad[i].normalize(); err == nil {
			t.Fatalf("case %d accepted", i)
		}
	}

	var opts SendOptions
	codec, err := opts.normalize()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Constraint != DefaultConstraint || opts.FrameBits != DefaultFrameBits {
		t.Fatalf("defaults not applied: %+v", opts)
	}
	if codec.NumParityBits() != 2 {
		t.Fatalf("parity bits = %d", codec.NumParityBits())
	}
}
