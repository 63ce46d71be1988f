package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEVMZeroForPerfectMatch(t *testing.T) {
	symbols := []complex128{complex(0.707, 0.707), complex(-0.707, 0.707)}
	evm := ComputeEVM(symbols, symbols)
	assert.Less(t, evm, float32(0.001))
}

func TestEVMIncreasesWithNoise(t *testing.T) {
	tx := []complex128{complex(1, 0)}
	rxClean := []complex128{complex(1, 0)}
	rxNoisy := []complex128{complex(0.9, 0.1)}
	assert.Greater(t, ComputeEVM(tx, rxNoisy), ComputeEVM(tx, rxClean))
}

func TestSNREstimation(t *testing.T) {
	perfect := make([]complex128, 100)
	for i := range perfect {
		perfect[i] = complex(1, 1) // on the 45 deg ideal point, scaled
	}
	snrPerfect := EstimateSNR(perfect)
	assert.Greater(t, snrPerfect, float32(30))

	noisy := make([]complex128, 100)
	for i := range noisy {
		noisy[i] = complex(1+float64(i)*0.01, float64(i)*0.01)
	}
	assert.Less(t, EstimateSNR(noisy), snrPerfect)
}

func TestBERZeroForPerfectMatch(t *testing.T) {
	bits := []byte{0, 1, 0, 1, 1, 0}
	assert.Equal(t, float32(0), ComputeBER(bits, bits))
}

func TestBERCalculation(t *testing.T) {
	tx := []byte{0, 1, 0, 1, 1, 0, 1, 0}
	rx := []byte{0, 1, 1, 1, 1, 0, 0, 0}
	assert.InDelta(t, 0.25, ComputeBER(tx, rx), 0.001)
}

func TestEmptyInputReturnsZero(t *testing.T) {
	assert.Equal(t, float32(0), ComputeEVM(nil, nil))
	assert.Equal(t, float32(0), EstimateSNR(nil))
	assert.Equal(t, float32(0), ComputeBER(nil, nil))
}

func TestRunningBERAccumulates(t *testing.T) {
	var r RunningBER
	_, running1 := r.Update([]byte{0, 0, 0, 0}, []byte{0, 0, 0, 1})
	assert.InDelta(t, 0.25, running1, 1e-6)
	_, running2 := r.Update([]byte{0, 0, 0, 0}, []byte{0, 0, 0, 0})
	assert.InDelta(t, 0.125, running2, 1e-6)
}

func TestSpectrumDCCenteredLength(t *testing.T) {
	symbols := make([]complex128, 300)
	for i := range symbols {
		symbols[i] = complex(1, 0)
	}
	s := ComputeSpectrum(symbols, 16)
	assert.Len(t, s.MagnitudesDB, 512)
	assert.Len(t, s.BinHz, 512)
}

func TestConstellationSnapshotCapsWindow(t *testing.T) {
	symbols := make([]complex128, 500)
	c := ComputeConstellation(symbols, 256)
	assert.Len(t, c.I, 256)
	assert.Len(t, c.Q, 256)
}
