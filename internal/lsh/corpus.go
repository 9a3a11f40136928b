package lsh

import (
	"errors"
	"fmt"
	"strconv"
)

// Document generator names.
const (
	GeneratorCombinations            = "combinations"
	GeneratorCombinationsReplacement = "combinations_replacement"
	GeneratorPermutations            = "permutations"
)

var (
	ErrUnknownGenerator = errors.New("unknown document generator")
	ErrNoTokens         = errors.New("token alphabet must not be empty")
	ErrDocLenNegative   = errors.New("document length must not be negative")
	ErrDocLenInverted   = errors.New("document length range is inverted")
)

// GeneratorNames returns the supported document generator names.
func GeneratorNames() []string {
	return []string{GeneratorCombinations, GeneratorCombinationsReplacement, GeneratorPermutations}
}

// ValidateGenerator reports whether name is a supported document generator.
func ValidateGenerator(name string) error {
	switch name {
	case GeneratorCombinations, GeneratorCombinationsReplacement, GeneratorPermutations:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
}

// TokenAlphabet returns the synthetic token alphabet: the integers
// 1..numTokens rendered as decimal strings.
func TokenAlphabet(numTokens int) []string {
	tokens := make([]string, numTokens)
	for i := range tokens {
		tokens[i] = strconv.Itoa(i + 1)
	}
	return tokens
}

// Corpus lazily enumerates synthetic documents over a small token alphabet.
// For each document length in the configured range, in increasing order, it
// yields every selection of that length the chosen generator produces, in
// lexicographic index order. Permutation streams grow factorially, so
// documents are produced one at a time and never materialized as a whole.
type Corpus struct {
	alphabet  []string
	generator string
	maxLen    int
	curLen    int
	iter      indexIterator
}

// NewCorpus builds a document stream using the named generator over an
// alphabet of numTokens tokens. maxLen of 0 means documents of exactly
// minLen tokens; otherwise lengths run from minLen to maxLen inclusive.
func NewCorpus(generator string, numTokens, minLen, maxLen int) (*Corpus, error) {
	if err := ValidateGenerator(generator); err != nil {
		return nil, err
	}
	if numTokens < 1 {
		return nil, ErrNoTokens
	}
	if minLen < 0 {
		return nil, fmt.Errorf("%w: %d", ErrDocLenNegative, minLen)
	}
	if maxLen == 0 {
		maxLen = minLen
	}
	if maxLen < minLen {
		return nil, fmt.Errorf("%w: %d > %d", ErrDocLenInverted, minLen, maxLen)
	}
	return &Corpus{
		alphabet:  TokenAlphabet(numTokens),
		generator: generator,
		maxLen:    maxLen,
		curLen:    minLen,
	}, nil
}

// Next returns the next document, or ok=false when the stream is exhausted.
func (c *Corpus) Next() ([]string, bool) {
	for {
		if c.iter == nil {
			if c.curLen > c.maxLen {
				return nil, false
			}
			c.iter = newIndexIterator(c.generator, len(c.alphabet), c.curLen)
			c.curLen++
		}
		indices, ok := c.iter.next()
		if !ok {
			c.iter = nil
			continue
		}
		doc := make([]string, len(indices))
		for i, ix := range indices {
			doc[i] = c.alphabet[ix]
		}
		return doc, true
	}
}

// indexIterator yields selections of k indices from 0..n-1. The returned
// slice is reused between calls.
type indexIterator interface {
	next() ([]int, bool)
}

func newIndexIterator(generator string, n, k int) indexIterator {
	switch generator {
	case GeneratorCombinationsReplacement:
		return &replacementIterator{n: n, k: k, indices: make([]int, k)}
	case GeneratorPermutations:
		return newPermutationIterator(n, k)
	default:
		return &combinationIterator{n: n, k: k, indices: make([]int, k)}
	}
}

// combinationIterator yields k-element subsets of 0..n-1 in lexicographic
// order, each subset in increasing order.
type combinationIterator struct {
	n, k    int
	indices []int
	started bool
	done    bool
}

func (it *combinationIterator) next() ([]int, bool) {
	if it.done {
		return nil, false
	}
	if !it.started {
		it.started = true
		if it.k > it.n {
			it.done = true
			return nil, false
		}
		for i := range it.indices {
			it.indices[i] = i
		}
		return it.indices, true
	}
	i := it.k - 1
	for ; i >= 0; i-- {
		if it.indices[i] != i+it.n-it.k {
			break
		}
	}
	if i < 0 {
		it.done = true
		return nil, false
	}
	it.indices[i]++
	for j := i + 1; j < it.k; j++ {
		it.indices[j] = it.indices[j-1] + 1
	}
	return it.indices, true
}

// replacementIterator yields non-decreasing k-tuples over 0..n-1 in
// lexicographic order (combinations with repetition allowed).
type replacementIterator struct {
	n, k    int
	indices []int
	started bool
	done    bool
}

func (it *replacementIterator) next() ([]int, bool) {
	if it.done {
		return nil, false
	}
	if !it.started {
		it.started = true
		if it.n == 0 && it.k > 0 {
			it.done = true
			return nil, false
		}
		return it.indices, true
	}
	i := it.k - 1
	for ; i >= 0; i-- {
		if it.indices[i] != it.n-1 {
			break
		}
	}
	if i < 0 {
		it.done = true
		return nil, false
	}
	v := it.indices[i] + 1
	for j := i; j < it.k; j++ {
		it.indices[j] = v
	}
	return it.indices, true
}

// permutationIterator yields ordered k-arrangements of 0..n-1 in
// lexicographic order, using the indices-and-cycles scheme so each step is
// a swap or a rotation rather than a fresh enumeration.
type permutationIterator struct {
	n, k    int
	indices []int
	cycles  []int
	started bool
	done    bool
}

func newPermutationIterator(n, k int) *permutationIterator {
	it := &permutationIterator{
		n:       n,
		k:       k,
		indices: make([]int, n),
		cycles:  make([]int, k),
	}
	for i := range it.indices {
		it.indices[i] = i
	}
	for i := range it.cycles {
		it.cycles[i] = n - i
	}
	return it
}

func (it *permutationIterator) next() ([]int, bool) {
	if it.done {
		return nil, false
	}
	if !it.started {
		it.started = true
		if it.k > it.n {
			it.done = true
			return nil, false
		}
		return it.indices[:it.k], true
	}
	for i := it.k - 1; i >= 0; i-- {
		it.cycles[i]--
		if it.cycles[i] == 0 {
			first := it.indices[i]
			copy(it.indices[i:], it.indices[i+1:])
			it.indices[it.n-1] = first
			it.cycles[i] = it.n - i
		} else {
			j := it.n - it.cycles[i]
			it.indices[i], it.indices[j] = it.indices[j], it.indices[i]
			return it.indices[:it.k], true
		}
	}
	it.done = true
	return nil, false
}
