// Command viterbi-recv accepts QUIC transfers from viterbi-send, decodes the
// corrupted frames and stores the recovered files after digest verification.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vitalsong/viterbi/fecquic"
)

func main() {
	var (
		addr    = flag.String("addr", ":4444", "listen address")
		alpn    = flag.String("alpn", "viterbi-fec", "ALPN protocol")
		out     = flag.String("out", ".", "output directory")
		timeout = flag.Duration("timeout", 120*time.Second, "server lifetime")
	)
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	tlsConf, err := fecquic.GenerateServerTLSConfig(*alpn)
	if err != nil {
		log.Fatal("tls", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	err = fecquic.ListenAndServeLoop(ctx, *addr, *out, tlsConf, log, func(p string) {
		log.Info("stored", zap.String("path", p))
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		log.Fatal("serve", zap.Error(err))
	}
}
