package lsh

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Shingling errors
var (
	ErrShingleLengthZero    = errors.New("shingle length must be greater than 0")
	ErrShingleRangeInverted = errors.New("max shingle length must not be less than min shingle length")
)

// Slot markers keep padded slots distinct from real tokens, including the
// empty-string token.
var (
	padSlot   = []byte{0}
	tokenSlot = []byte{1}
)

// Shingler slices a token sequence into overlapping n-grams and hashes each
// n-gram to a 64-bit shingle value. A document shorter than n produces a
// single left-padded shingle, so short documents still land in the shingle
// universe instead of vanishing.
type Shingler struct {
	minLen int
	maxLen int
}

// NewShingler creates a Shingler producing n-grams for every n in
// [minLen, maxLen]. A maxLen of 0 means a fixed length of minLen.
func NewShingler(minLen, maxLen int) (*Shingler, error) {
	if minLen < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrShingleLengthZero, minLen)
	}
	if maxLen == 0 {
		maxLen = minLen
	}
	if maxLen < minLen {
		return nil, fmt.Errorf("%w, got %d..%d", ErrShingleRangeInverted, minLen, maxLen)
	}
	return &Shingler{minLen: minLen, maxLen: maxLen}, nil
}

// ShingleRange returns the inclusive range of n-gram lengths produced.
func (s *Shingler) ShingleRange() (min, max int) {
	return s.minLen, s.maxLen
}

// Shingle maps a token sequence to its deduplicated set of shingle hashes.
// The result order follows first occurrence and is deterministic for a given
// input.
func (s *Shingler) Shingle(tokens []string) []uint64 {
	seen := make(map[uint64]struct{})
	shingles := make([]uint64, 0, len(tokens))
	add := func(h uint64) {
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		shingles = append(shingles, h)
	}

	for n := s.minLen; n <= s.maxLen; n++ {
		if len(tokens) < n {
			add(hashShingle(tokens, n-len(tokens)))
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			add(hashShingle(tokens[i:i+n], 0))
		}
	}
	return shingles
}

// hashShingle hashes one n-gram, left-padded with padding empty slots. Each
// slot is framed with a marker byte and tokens carry a length prefix, so two
// distinct shingles collide only with xxhash probability.
func hashShingle(tokens []string, padding int) uint64 {
	d := xxhash.New()
	var lenBuf [binary.MaxVarintLen64]byte
	for i := 0; i < padding; i++ {
		_, _ = d.Write(padSlot)
	}
	for _, tok := range tokens {
		_, _ = d.Write(tokenSlot)
		n := binary.PutUvarint(lenBuf[:], uint64(len(tok)))
		_, _ = d.Write(lenBuf[:n])
		_, _ = d.WriteString(tok)
	}
	return d.Sum64()
}

// HashToken maps a single token into the shingle universe. Equivalent to a
// length-1 shingle of that token.
func HashToken(token string) uint64 {
	return hashShingle([]string{token}, 0)
}
