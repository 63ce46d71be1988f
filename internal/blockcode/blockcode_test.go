package blockcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	code, err := New(64, 80, 1)
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		message := make([]byte, code.K)
		for i := range message {
			message[i] = byte(rapid.IntRange(0, 1).Draw(rt, "bit"))
		}
		codeword := code.Encode(message)
		decoded := code.Decode(codeword)
		assert.Equal(t, message, decoded)
	})
}

func TestEncodeIsSystematic(t *testing.T) {
	code, err := New(8, 12, 7)
	require.NoError(t, err)
	message := []byte{1, 0, 1, 1, 0, 0, 1, 0}
	codeword := code.Encode(message)
	assert.Equal(t, message, codeword[:code.K])
}

func TestEncodeDeterminism(t *testing.T) {
	c1, err := New(32, 48, 42)
	require.NoError(t, err)
	c2, err := New(32, 48, 42)
	require.NoError(t, err)

	message := make([]byte, 32)
	for i := range message {
		message[i] = byte(i % 2)
	}
	assert.Equal(t, c1.Encode(message), c2.Encode(message))
}

func TestDecodeAboveParallelThreshold(t *testing.T) {
	// exercise the goroutine-parallel elimination path
	k := 600
	n := 1200
	code, err := New(k, n, 99)
	require.NoError(t, err)
	message := make([]byte, k)
	for i := range message {
		message[i] = byte((i * 7) % 2)
	}
	codeword := code.Encode(message)
	decoded := code.Decode(codeword)
	assert.Equal(t, message, decoded)
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	_, err := New(10, 10, 0)
	assert.Error(t, err)
	_, err = New(0, 5, 0)
	assert.Error(t, err)
}
