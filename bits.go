package viterbi

import "fmt"

// BitsFromString parses a string of '0' and '1' characters into a bit slice.
func BitsFromString(s string) ([]uint8, error) {
	bits := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			bits[i] = 0
		case '1':
			bits[i] = 1
		default:
			return nil, fmt.Errorf("viterbi: expected a binary sequence, found %q at offset %d", s[i], i)
		}
	}
	return bits, nil
}

// BitString renders a bit slice as a string of '0' and '1' characters.
// Nonzero values render as '1'.
func BitString(bits []uint8) string {
	buf := make([]byte, len(bits))
	for i, b := range bits {
		if b != 0 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
