package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFrameLayoutIntegrity(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	sum := c.SyncBits + c.TargetIDBits + c.CommandBits + c.PayloadBits + c.ECCBits
	assert.Equal(t, sum, c.TotalBits())
	assert.Equal(t, c.TotalBits(), 2*c.TotalSymbols())
}

func TestConstellationRoundTrip(t *testing.T) {
	pairs := [][2]byte{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for _, p := range pairs {
		sym := BitsToSymbol(p[0], p[1])
		b0, b1 := SymbolToBits(sym)
		assert.Equal(t, p[0], b0)
		assert.Equal(t, p[1], b1)
	}
}

func TestConstellationGrayCoding(t *testing.T) {
	// adjacent points in table order must differ by exactly one bit
	bitsOf := func(i int) (byte, byte) {
		switch i {
		case 0:
			return 1, 1
		case 1:
			return 0, 1
		case 2:
			return 0, 0
		default:
			return 1, 0
		}
	}
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		b0i, b1i := bitsOf(i)
		b0j, b1j := bitsOf(j)
		diff := 0
		if b0i != b0j {
			diff++
		}
		if b1i != b1j {
			diff++
		}
		assert.Equal(t, 1, diff, "points %d and %d should differ by one bit", i, j)
	}
}

func TestBitByteRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(rt, "data")
		bits := BytesToBits(data)
		back := BitsToBytes(bits)
		assert.Equal(t, data, back)
	})
}

func TestDifferentialRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		bits := make([]byte, 2*n)
		for i := range bits {
			bits[i] = byte(rapid.IntRange(0, 1).Draw(rt, "bit"))
		}
		enc := DifferentialEncode(bits)
		dec := DifferentialDecode(enc)
		assert.Equal(t, bits, dec)
	})
}

func TestCommandWordOffsets(t *testing.T) {
	c := Default()
	word := c.CommandWord(5, 9)
	f := (word >> c.CurrentFrameShift) & 0xFF
	n := (word >> c.TotalFramesShift) & 0xFF
	assert.EqualValues(t, 5, f)
	assert.EqualValues(t, 9, n)
}

func TestValidateRejectsNonIntegerRatio(t *testing.T) {
	c := Default()
	c.SampleRate = 48001
	require.Error(t, c.Validate())
}

func TestValidateRejectsNyquist(t *testing.T) {
	c := Default()
	c.CarrierHz = 30000
	require.Error(t, c.Validate())
}
