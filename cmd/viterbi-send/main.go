// Command viterbi-send streams a file to a viterbi-recv endpoint over QUIC,
// protecting every frame with a convolutional code and corrupting the encoded
// bits at the configured error rate before they hit the wire.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitalsong/viterbi/fecquic"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:4444", "receiver address")
		alpn       = flag.String("alpn", "viterbi-fec", "ALPN protocol")
		filePath   = flag.String("file", "", "file to send")
		insecure   = flag.Bool("insecure", true, "skip TLS verification")
		constraint = flag.Int("constraint", fecquic.DefaultConstraint, "codec constraint length")
		polyStr    = flag.String("polynomials", "109,79", "comma-separated generator polynomials")
		frameBits  = flag.Int("frame-bits", fecquic.DefaultFrameBits, "message bits per frame (multiple of 8)")
		ber        = flag.Float64("ber", 0.01, "simulated channel bit-error rate")
		seed       = flag.Int64("seed", 0, "channel seed (0 = from clock)")
		timeout    = flag.Duration("timeout", 60*time.Second, "overall send timeout")
	)
	flag.Parse()
	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		os.Exit(1)
	}
	polys, err := parsePolynomials(*polyStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	opts := fecquic.SendOptions{
		Constraint:  *constraint,
		Polynomials: polys,
		FrameBits:   *frameBits,
		BER:         *ber,
		Seed:        *seed,
		InsecureTLS: *insecure,
		Logger:      log,
	}
	if err := fecquic.ClientSendFile(ctx, *addr, *alpn, *filePath, opts); err != nil {
		log.Fatal("send failed", zap.Error(err))
	}
}

func parsePolynomials(s string) ([]int, error) {
	var polys []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad polynomial %q: %w", part, err)
		}
		polys = append(polys, p)
	}
	return polys, nil
}
