// Command viterbi encodes or decodes a bit sequence with a convolutional
// code.
//
// Input is <constraint> <polynomial>... <bits>, taken from the command line
// or, when no positional arguments are given, from stdin (blank lines and
// lines starting with '#' are skipped):
//
//	viterbi 3 7 5 0011100001100111111000101100111011
//	viterbi -encode 3 7 5 010111001010001
//	viterbi -reverse-polynomials 3 3 5 111011011100101011
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vitalsong/viterbi"
)

func main() {
	var (
		encode  = flag.Bool("encode", false, "encode instead of decode")
		revPoly = flag.Bool("reverse-polynomials", false,
			"treat polynomials as msb-current (MATLAB notation), e.g. 6 (=0b110) becomes 3 (=0b011)")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		args = readStdinArgs()
	}
	if len(args) < 3 {
		fatalf("usage: viterbi [-encode] [-reverse-polynomials] <constraint> <polynomial>... <bits>")
	}

	constraint := parseInt(args[0])
	polynomials := make([]int, 0, len(args)-2)
	for _, a := range args[1 : len(args)-1] {
		polynomials = append(polynomials, parseInt(a))
	}
	if *revPoly {
		for i, p := range polynomials {
			polynomials[i] = viterbi.ReverseBits(constraint, p)
		}
	}

	codec, err := viterbi.New(constraint, polynomials)
	if err != nil {
		fatalf("%v", err)
	}
	bits, err := viterbi.BitsFromString(args[len(args)-1])
	if err != nil {
		fatalf("%v", err)
	}

	if *encode {
		fmt.Println(viterbi.BitString(codec.Encode(bits)))
	} else {
		fmt.Println(viterbi.BitString(codec.Decode(bits)))
	}
}

func readStdinArgs() []string {
	var args []string
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args = append(args, strings.Fields(line)...)
	}
	return args
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		fatalf("expected a number, found %q", s)
	}
	return v
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}
