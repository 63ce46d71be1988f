// Package blockcode implements the systematic GF(2) linear block code of
// spec §4.2: generator matrix G = [I_k | P], parity-check matrix
// H = [Pᵀ | I_(n-k)], XOR encode, and a bit-packed Gaussian-elimination
// hard-decision decoder.
//
// Only the decode algorithm's implementation technique (bit-packed
// 64-bit words, threshold-gated parallel row elimination) is grounded on
// original_source/chimera-core/src/ldpc.rs::decode_ldpc; the matrix
// construction itself follows spec §4.2 directly (see DESIGN.md Open
// Question 5 — ldpc.rs builds an unrelated quantum CSS code).
package blockcode

import (
	"fmt"
	"math/rand/v2"
)

// ParallelThreshold gates row-elimination parallelism: decode only
// spawns goroutines for row XOR when the codeword length n exceeds this
// (spec §4.2: "parallelize row elimination when the row count exceeds a
// threshold (e.g., 1000)").
const ParallelThreshold = 1000

// Code holds the generator and parity-check matrices for one (k, n)
// configuration. Immutable after construction; safe for concurrent
// read-only use by multiple pipeline instances (spec §5 shared
// resources).
type Code struct {
	K, N int
	// G is k rows of n bits each, row-major, one byte (0/1) per bit.
	G [][]byte
	// H is (n-k) rows of n bits each.
	H [][]byte
}

// New builds a systematic code with a deterministic pseudo-random parity
// submatrix P (k x (n-k)), seeded for reproducibility across TX/RX
// instances configured with the same seed (spec Testable Property 4:
// encode determinism).
func New(k, n int, seed uint64) (*Code, error) {
	if k <= 0 || n <= k {
		return nil, fmt.Errorf("blockcode: invalid dimensions k=%d n=%d", k, n)
	}
	ecc := n - k
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))

	p := make([][]byte, k)
	for i := range p {
		p[i] = make([]byte, ecc)
		for j := range p[i] {
			p[i][j] = byte(rng.IntN(2))
		}
	}

	g := make([][]byte, k)
	for i := 0; i < k; i++ {
		row := make([]byte, n)
		row[i] = 1 // I_k
		copy(row[k:], p[i])
		g[i] = row
	}

	h := make([][]byte, ecc)
	for i := 0; i < ecc; i++ {
		row := make([]byte, n)
		for j := 0; j < k; j++ {
			row[j] = p[j][i] // P^T
		}
		row[k+i] = 1 // I_(n-k)
		h[i] = row
	}

	return &Code{K: k, N: n, G: g, H: h}, nil
}

// Encode computes codeword = message * G over GF(2), XOR-accumulating
// generator rows for set message bits and skipping rows where the bit
// is 0 (spec §4.2).
func (c *Code) Encode(message []byte) []byte {
	codeword := make([]byte, c.N)
	for i, bit := range message {
		if i >= c.K || bit == 0 {
			continue
		}
		row := c.G[i]
		for j, rb := range row {
			codeword[j] ^= rb
		}
	}
	return codeword
}
