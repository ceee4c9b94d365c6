package viterbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsFromString(t *testing.T) {
	bits, err := BitsFromString("010011")
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 0, 0, 1, 1}, bits)

	bits, err = BitsFromString("")
	require.NoError(t, err)
	assert.Empty(t, bits)

	_, err = BitsFromString("0120")
	require.Error(t, err)
	_, err = BitsFromString("01 0")
	require.Error(t, err)
}

func TestBitString(t *testing.T) {
	assert.Equal(t, "010011", BitString([]uint8{0, 1, 0, 0, 1, 1}))
	assert.Equal(t, "", BitString(nil))
	// Nonzero values render as '1'.
	assert.Equal(t, "101", BitString([]uint8{3, 0, 255}))
}
