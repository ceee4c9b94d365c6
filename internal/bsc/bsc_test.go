package bsc

import (
	"math/rand"
	"testing"
)

func TestDegenerateProbabilities(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	bits := make([]uint8, 256)
	if n := New(0, rng).Transmit(bits); n != 0 {
		t.Fatalf("p=0 flipped %d bits", n)
	}
	for _, b := range bits {
		if b != 0 {
			t.Fatal("p=0 modified the payload")
		}
	}

	if n := New(1, rng).Transmit(bits); n != len(bits) {
		t.Fatalf("p=1 flipped %d of %d bits", n, len(bits))
	}
	for _, b := range bits {
		if b != 1 {
			t.Fatal("p=1 left a bit unflipped")
		}
	}
}

func TestFlipRate(t *testing.T) {
	const (
		p = 0.05
		n = 200000
	)
	ch := New(p, rand.New(rand.NewSource(7)))
	bits := make([]uint8, n)
	flips := ch.Transmit(bits)
	rate := float64(flips) / n
	if rate < p/2 || rate > p*2 {
		t.Fatalf("flip rate %.4f far from p=%.4f", rate, p)
	}
}
