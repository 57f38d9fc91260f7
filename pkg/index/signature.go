// Package index holds the two retrieval indexes behind schema linking: a
// MinHash/LSH index over sampled column values for literal lookup, and a
// flat L2 index over description embeddings for semantic lookup.
package index

import (
	minhashlsh "github.com/ekzhu/minhash-lsh"
)

// minhashSeed keeps signatures comparable between profiling time and query
// time. Changing it invalidates every stored signature.
const minhashSeed = 1

// ComputeSignature builds a MinHash signature over a set of values, each
// hashed as a UTF-8 byte string. Returns nil for an empty value set.
func ComputeSignature(values []string, numPermutations int) []uint64 {
	if len(values) == 0 {
		return nil
	}
	m := minhashlsh.NewMinhash(minhashSeed, numPermutations)
	for _, v := range values {
		m.Push([]byte(v))
	}
	return m.Signature()
}

// EstimateJaccard estimates the Jaccard similarity of two signatures as the
// fraction of agreeing hash positions. Signatures of different lengths have
// similarity zero.
func EstimateJaccard(a, b []uint64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}
