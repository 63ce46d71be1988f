package diagnostics

import "math"

// Spectrum holds the DC-centered magnitude-in-dB spectrum of a symbol
// window (spec §4.6).
type Spectrum struct {
	MagnitudesDB []float64
	BinHz        []float64
}

// ComputeSpectrum Hamming-windows the last N complex symbols, zero-pads
// to the next power of two (capped between 512 and 2048), computes the
// magnitude spectrum in dB, and DC-centers it.
func ComputeSpectrum(symbols []complex128, symbolRateHz float64) Spectrum {
	if len(symbols) == 0 {
		return Spectrum{}
	}

	n := nextPow2(len(symbols))
	if n < 512 {
		n = 512
	}
	if n > 2048 {
		n = 2048
	}
	if len(symbols) > n {
		symbols = symbols[len(symbols)-n:]
	}

	windowed := make([]complex128, n)
	for i, s := range symbols {
		if i >= n {
			break
		}
		w := hamming(i, len(symbols))
		windowed[i] = s * complex(w, 0)
	}

	spectrum := fft(windowed)
	mags := make([]float64, n)
	bins := make([]float64, n)
	for i := range spectrum {
		// DC-center: shift so index 0 is the most negative frequency.
		shifted := (i + n/2) % n
		mag := math.Hypot(real(spectrum[shifted]), imag(spectrum[shifted]))
		mags[i] = 20 * math.Log10(mag+1e-12)
		bins[i] = (float64(i-n/2) / float64(n)) * symbolRateHz
	}
	return Spectrum{MagnitudesDB: mags, BinHz: bins}
}

func hamming(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// fft is a textbook recursive radix-2 Cooley-Tukey FFT. No FFT library
// appears anywhere in the retrieved example corpus (teacher or
// other_examples); per the stdlib-justification rule this small,
// self-contained routine is implemented directly rather than reaching
// for an out-of-corpus dependency (see DESIGN.md "FFT note").
func fft(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		return x
	}
	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}
	even = fft(even)
	odd = fft(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		angle := -2 * math.Pi * float64(k) / float64(n)
		twiddle := complex(math.Cos(angle), math.Sin(angle)) * odd[k]
		out[k] = even[k] + twiddle
		out[k+n/2] = even[k] - twiddle
	}
	return out
}

// Constellation is a snapshot of normalized I/Q pairs, the last N
// symbols (spec §4.6).
type Constellation struct {
	I []float64
	Q []float64
}

// ComputeConstellation returns the last n symbols (or fewer) as
// power-normalized I/Q pairs.
func ComputeConstellation(symbols []complex128, n int) Constellation {
	if len(symbols) > n {
		symbols = symbols[len(symbols)-n:]
	}
	var pow float64
	for _, s := range symbols {
		pow += cabs2(s)
	}
	scale := 1.0
	if pow > 0 {
		scale = math.Sqrt(float64(len(symbols)) / pow)
	}
	out := Constellation{I: make([]float64, len(symbols)), Q: make([]float64, len(symbols))}
	for i, s := range symbols {
		out.I[i] = real(s) * scale
		out.Q[i] = imag(s) * scale
	}
	return out
}
