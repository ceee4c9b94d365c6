package fecquic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	quic "github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"github.com/vitalsong/viterbi"
	"github.com/vitalsong/viterbi/internal/bsc"
	"github.com/vitalsong/viterbi/internal/fecwire"
)

// Defaults: the Voyager code over 512-byte frames.
const (
	DefaultConstraint = 7
	DefaultFrameBits  = 4096
)

// DefaultPolynomials returns the default generator set {109, 79}.
func DefaultPolynomials() []int { return []int{109, 79} }

// SendOptions control ClientSendFile behavior.
type SendOptions struct {
	Constraint  int
	Polynomials []int
	FrameBits   int     // message bits per frame, multiple of 8
	BER         float64 // bit-flip probability applied to encoded frames
	Seed        int64   // channel seed; 0 derives one from the clock
	InsecureTLS bool
	Logger      *zap.Logger
}

func (o *SendOptions) normalize() (*viterbi.Codec, error) {
	if o.Constraint == 0 && o.Polynomials == nil {
		o.Constraint = DefaultConstraint
		o.Polynomials = DefaultPolynomials()
	}
	if o.FrameBits <= 0 {
		o.FrameBits = DefaultFrameBits
	}
	if o.FrameBits%8 != 0 {
		return nil, fmt.Errorf("frame bits must be a multiple of 8, got %d", o.FrameBits)
	}
	if o.BER < 0 || o.BER >= 1 {
		return nil, fmt.Errorf("ber must be in [0,1), got %f", o.BER)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return viterbi.New(o.Constraint, o.Polynomials)
}

// ClientSendFile connects to addr and streams path once: a file header with
// the codec parameters, then one encoded-and-corrupted frame per FrameBits
// message bits. It returns after the receiver acknowledges a verified copy.
func ClientSendFile(ctx context.Context, addr, alpn, path string, opts SendOptions) error {
	codec, err := opts.normalize()
	if err != nil {
		return err
	}
	log := opts.Logger

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sum, size, err := ComputeSHA256(f)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	tlsConf := &tls.Config{InsecureSkipVerify: opts.InsecureTLS, NextProtos: []string{alpn}}
	qconf := &quic.Config{
		KeepAlivePeriod: 2 * time.Second,
		MaxIdleTimeout:  90 * time.Second,
	}
	conn, err := quic.DialAddr(ctx, addr, tlsConf, qconf)
	if err != nil {
		return err
	}
	defer conn.CloseWithError(0, "done")

	str, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return err
	}

	hdr := FileHeader{
		Version:     1,
		FileSize:    size,
		SHA256:      sum,
		FrameBits:   uint32(opts.FrameBits),
		Constraint:  uint8(opts.Constraint),
		Polynomials: opts.Polynomials,
	}
	if _, err := str.Write(hdr.MarshalBinary()); err != nil {
		return err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	channel := bsc.New(opts.BER, rand.New(rand.NewSource(seed)))

	start := time.Now()
	var frames, sentBytes, flipped int64
	frameBytes := opts.FrameBits / 8
	// Each frame is terminated with constraint-1 zero tail bits so its last
	// message bits are as well protected as the rest.
	tail := make([]uint8, codec.Constraint()-1)
	buf := make([]byte, frameBytes)
	var hdrBuf [fecwire.HeaderLen]byte
	frameID := uint32(0)
	for {
		n, err := io.ReadFull(f, buf)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return err
		}
		msgBits := n * 8
		encoded := codec.Encode(append(fecwire.UnpackBits(buf[:n], msgBits), tail...))
		flipped += int64(channel.Transmit(encoded))
		payload := fecwire.PackBits(encoded)

		fh := fecwire.FrameHeader{
			Version:    1,
			Scheme:     fecwire.SchemeConvolutional,
			FrameID:    frameID,
			MsgBits:    uint32(msgBits),
			PayloadLen: uint32(len(payload)),
		}
		if _, err := str.Write(fh.MarshalBinary(hdrBuf[:])); err != nil {
			return err
		}
		if _, err := str.Write(payload); err != nil {
			return err
		}
		frames++
		sentBytes += int64(fecwire.HeaderLen + len(payload))
		frameID++
		if n < frameBytes { // last partial frame
			break
		}
	}
	if err := str.Close(); err != nil {
		return err
	}

	// The receiver writes one status byte after verifying the digest.
	var ack [1]byte
	if _, err := io.ReadFull(str, ack[:]); err != nil {
		return fmt.Errorf("waiting for receiver ack: %w", err)
	}
	dur := time.Since(start)
	log.Info("transfer complete",
		zap.Int64("frames", frames),
		zap.Int64("wire_bytes", sentBytes),
		zap.Int64("bits_flipped", flipped),
		zap.Float64("ber", opts.BER),
		zap.Duration("duration", dur),
		zap.Bool("verified", ack[0] == 1),
	)
	if ack[0] != 1 {
		return errors.New("receiver failed to verify the file")
	}
	return nil
}

// ServerRecvFile accepts one connection on ln, decodes the transfer and
// writes the verified file into outDir. It returns the stored path.
func ServerRecvFile(ctx context.Context, ln *quic.Listener, outDir string, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := ln.Accept(ctx)
	if err != nil {
		return "", err
	}
	defer conn.CloseWithError(0, "done")

	str, err := conn.AcceptStream(ctx)
	if err != nil {
		return "", err
	}
	hdr, err := ReadFileHeader(str)
	if err != nil {
		return "", err
	}
	polys := hdr.Polynomials
	codec, err := viterbi.New(int(hdr.Constraint), polys)
	if err != nil {
		return "", fmt.Errorf("negotiated codec: %w", err)
	}
	numParity := codec.NumParityBits()
	log.Info("incoming transfer",
		zap.Uint64("file_size", hdr.FileSize),
		zap.Uint32("frame_bits", hdr.FrameBits),
		zap.Uint8("constraint", hdr.Constraint),
		zap.Ints("polynomials", polys),
	)

	tmpPath := filepath.Join(outDir, fmt.Sprintf("vfec_%d.bin.part", time.Now().UnixNano()))
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	start := time.Now()
	var frames, corrected int64
	var received uint64
	var hdrBuf [fecwire.HeaderLen]byte
	nextFrame := uint32(0)
	for received < hdr.FileSize {
		if _, err := io.ReadFull(str, hdrBuf[:]); err != nil {
			return "", fmt.Errorf("frame header: %w", err)
		}
		var fh fecwire.FrameHeader
		if !fh.UnmarshalBinary(hdrBuf[:]) {
			return "", errors.New("bad frame header")
		}
		if fh.Version != 1 || fh.Scheme != fecwire.SchemeConvolutional {
			return "", fmt.Errorf("unsupported frame version=%d scheme=%d", fh.Version, fh.Scheme)
		}
		if fh.FrameID != nextFrame {
			return "", fmt.Errorf("frame %d out of order (want %d)", fh.FrameID, nextFrame)
		}
		if fh.MsgBits == 0 || fh.MsgBits%8 != 0 || fh.MsgBits > hdr.FrameBits {
			return "", fmt.Errorf("frame %d: bad message size %d", fh.FrameID, fh.MsgBits)
		}
		encBits := (int(fh.MsgBits) + codec.Constraint() - 1) * numParity
		if int(fh.PayloadLen) != (encBits+7)/8 {
			return "", fmt.Errorf("frame %d: payload %dB does not hold %d bits", fh.FrameID, fh.PayloadLen, encBits)
		}
		payload := make([]byte, fh.PayloadLen)
		if _, err := io.ReadFull(str, payload); err != nil {
			return "", fmt.Errorf("frame payload: %w", err)
		}

		receivedBits := fecwire.UnpackBits(payload, encBits)
		decoded := codec.Decode(receivedBits)
		// The re-encoded decision against the received bits counts how many
		// channel errors the decoder absorbed.
		corrected += int64(hamming(codec.Encode(decoded), receivedBits))
		if _, err := out.Write(fecwire.PackBits(decoded[:fh.MsgBits])); err != nil {
			return "", err
		}
		received += uint64(fh.MsgBits / 8)
		frames++
		nextFrame++
	}

	verified := byte(0)
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	sum, _, err := ComputeSHA256(out)
	if err != nil {
		return "", err
	}
	if sum == hdr.SHA256 {
		verified = 1
	}
	if _, err := str.Write([]byte{verified}); err != nil {
		return "", err
	}
	dur := time.Since(start)
	log.Info("transfer decoded",
		zap.Int64("frames", frames),
		zap.Int64("bits_corrected", corrected),
		zap.Duration("duration", dur),
		zap.Bool("verified", verified == 1),
	)
	if verified != 1 {
		_ = os.Remove(tmpPath)
		return "", errors.New("sha256 mismatch: residual errors after decoding")
	}
	finalPath := filepath.Join(outDir, fmt.Sprintf("vfec_%d.bin", time.Now().UnixNano()))
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

// ListenAndServe starts a QUIC listener on addr and serves a single transfer.
// The ALPN protocol is taken from tlsConf.NextProtos.
func ListenAndServe(ctx context.Context, addr, outDir string, tlsConf *tls.Config, log *zap.Logger) (string, error) {
	if tlsConf == nil {
		return "", errors.New("tlsConf required")
	}
	ln, err := quic.ListenAddr(addr, tlsConf, &quic.Config{
		KeepAlivePeriod: 2 * time.Second,
		MaxIdleTimeout:  90 * time.Second,
	})
	if err != nil {
		return "", err
	}
	defer ln.Close()
	return ServerRecvFile(ctx, ln, outDir, log)
}

// ListenAndServeLoop serves transfers until ctx is done, calling onStored for
// every verified file.
func ListenAndServeLoop(ctx context.Context, addr, outDir string, tlsConf *tls.Config, log *zap.Logger, onStored func(string)) error {
	if tlsConf == nil {
		return errors.New("tlsConf required")
	}
	ln, err := quic.ListenAddr(addr, tlsConf, &quic.Config{
		KeepAlivePeriod: 2 * time.Second,
		MaxIdleTimeout:  90 * time.Second,
	})
	if err != nil {
		return err
	}
	defer ln.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p, err := ServerRecvFile(ctx, ln, outDir, log)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if log != nil {
				log.Warn("transfer failed", zap.Error(err))
			}
			continue
		}
		if onStored != nil {
			onStored(p)
		}
	}
}

func hamming(x, y []uint8) int {
	d := 0
	for i := range x {
		if x[i] != y[i] {
			d++
		}
	}
	return d
}
