package lsh

import (
	"math"
)

// emptySignatureValue fills every coordinate of an empty document's
// signature. All-empty signatures are identical, so empty documents collide
// with each other and nothing else.
const emptySignatureValue = math.MaxUint64

// Signature is an ordered vector of per-function minimum hash values. Two
// signatures agree on a coordinate with probability equal to the Jaccard
// similarity of the underlying shingle sets, in expectation. A signature is
// immutable once computed.
type Signature []uint64

// MinHasher computes MinHash signatures over shingle sets using a fixed
// hash family.
type MinHasher struct {
	family HashFamily
}

// NewMinHasher creates a MinHasher backed by the given family.
func NewMinHasher(family HashFamily) *MinHasher {
	return &MinHasher{family: family}
}

// NumHashes returns the signature length.
func (m *MinHasher) NumHashes() int { return m.family.Size() }

// ComputeSignature maps a shingle set to its signature: coordinate i holds
// the minimum of the family's i-th function over all shingles. Identical
// shingle sets yield bit-identical signatures. An empty set yields the
// all-sentinel signature.
func (m *MinHasher) ComputeSignature(shingles []uint64) Signature {
	k := m.family.Size()
	sig := make(Signature, k)
	if len(shingles) == 0 {
		for i := range sig {
			sig[i] = emptySignatureValue
		}
		return sig
	}
	for i := 0; i < k; i++ {
		minv := uint64(math.MaxUint64)
		for _, x := range shingles {
			if v := m.family.Hash(i, x); v < minv {
				minv = v
			}
		}
		sig[i] = minv
	}
	return sig
}

// EstimateSimilarity returns the fraction of coordinates on which the two
// signatures agree, an unbiased estimate of the Jaccard similarity of the
// underlying sets. Signatures of different lengths compare over the shorter
// prefix.
func EstimateSimilarity(sig1, sig2 Signature) float64 {
	n := len(sig1)
	if len(sig2) < n {
		n = len(sig2)
	}
	if n == 0 {
		return 0.0
	}
	match := 0
	for i := 0; i < n; i++ {
		if sig1[i] == sig2[i] {
			match++
		}
	}
	return float64(match) / float64(n)
}
