package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectDocs(t *testing.T, c *Corpus, limit int) [][]string {
	t.Helper()
	var docs [][]string
	for len(docs) < limit {
		doc, ok := c.Next()
		if !ok {
			break
		}
		docs = append(docs, doc)
	}
	return docs
}

func TestValidateGenerator(t *testing.T) {
	for _, name := range GeneratorNames() {
		assert.NoError(t, ValidateGenerator(name))
	}

	err := ValidateGenerator("shuffle")
	assert.ErrorIs(t, err, ErrUnknownGenerator)
	assert.Contains(t, err.Error(), "shuffle")
}

func TestTokenAlphabet(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, TokenAlphabet(3))
	assert.Empty(t, TokenAlphabet(0))
}

func TestNewCorpus_InvalidArgs(t *testing.T) {
	_, err := NewCorpus("shuffle", 4, 2, 0)
	assert.ErrorIs(t, err, ErrUnknownGenerator)

	_, err = NewCorpus(GeneratorCombinations, 0, 2, 0)
	assert.ErrorIs(t, err, ErrNoTokens)

	_, err = NewCorpus(GeneratorCombinations, 4, -1, 0)
	assert.ErrorIs(t, err, ErrDocLenNegative)

	_, err = NewCorpus(GeneratorCombinations, 4, 3, 1)
	assert.ErrorIs(t, err, ErrDocLenInverted)
}

func TestCorpus_CombinationsOrder(t *testing.T) {
	c, err := NewCorpus(GeneratorCombinations, 4, 2, 0)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)

	assert.Equal(t, [][]string{
		{"1", "2"}, {"1", "3"}, {"1", "4"},
		{"2", "3"}, {"2", "4"}, {"3", "4"},
	}, docs)
}

func TestCorpus_CombinationsReplacementOrder(t *testing.T) {
	c, err := NewCorpus(GeneratorCombinationsReplacement, 3, 2, 0)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)

	assert.Equal(t, [][]string{
		{"1", "1"}, {"1", "2"}, {"1", "3"},
		{"2", "2"}, {"2", "3"}, {"3", "3"},
	}, docs)
}

func TestCorpus_PermutationsOrder(t *testing.T) {
	c, err := NewCorpus(GeneratorPermutations, 3, 2, 0)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)

	assert.Equal(t, [][]string{
		{"1", "2"}, {"1", "3"},
		{"2", "1"}, {"2", "3"},
		{"3", "1"}, {"3", "2"},
	}, docs)
}

func TestCorpus_PermutationsFullLength(t *testing.T) {
	c, err := NewCorpus(GeneratorPermutations, 3, 3, 0)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)

	assert.Equal(t, [][]string{
		{"1", "2", "3"}, {"1", "3", "2"},
		{"2", "1", "3"}, {"2", "3", "1"},
		{"3", "1", "2"}, {"3", "2", "1"},
	}, docs)
}

func TestCorpus_PermutationsCount(t *testing.T) {
	c, err := NewCorpus(GeneratorPermutations, 4, 2, 0)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)

	assert.Len(t, docs, 12)
}

func TestCorpus_LengthRangeChains(t *testing.T) {
	c, err := NewCorpus(GeneratorCombinations, 3, 1, 2)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)

	assert.Equal(t, [][]string{
		{"1"}, {"2"}, {"3"},
		{"1", "2"}, {"1", "3"}, {"2", "3"},
	}, docs)
}

func TestCorpus_LengthExceedsAlphabet(t *testing.T) {
	c, err := NewCorpus(GeneratorCombinations, 2, 3, 0)
	require.NoError(t, err)
	assert.Empty(t, collectDocs(t, c, 100))

	c, err = NewCorpus(GeneratorPermutations, 2, 3, 0)
	require.NoError(t, err)
	assert.Empty(t, collectDocs(t, c, 100))

	// With replacement, length may exceed the alphabet.
	c, err = NewCorpus(GeneratorCombinationsReplacement, 2, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "1", "1"}, {"1", "1", "2"}, {"1", "2", "2"}, {"2", "2", "2"},
	}, collectDocs(t, c, 100))
}

func TestCorpus_ZeroLength(t *testing.T) {
	c, err := NewCorpus(GeneratorCombinations, 3, 0, 0)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)

	require.Len(t, docs, 1)
	assert.Empty(t, docs[0])
}

func TestCorpus_ExhaustedStaysExhausted(t *testing.T) {
	c, err := NewCorpus(GeneratorCombinations, 2, 2, 0)
	require.NoError(t, err)

	docs := collectDocs(t, c, 100)
	require.Len(t, docs, 1)

	_, ok := c.Next()
	assert.False(t, ok)
	_, ok = c.Next()
	assert.False(t, ok)
}

func TestCorpus_DocumentsAreIndependentCopies(t *testing.T) {
	c, err := NewCorpus(GeneratorCombinations, 4, 2, 0)
	require.NoError(t, err)

	first, ok := c.Next()
	require.True(t, ok)
	want := append([]string(nil), first...)

	// Advancing the iterator must not alias earlier documents.
	c.Next()
	c.Next()
	assert.Equal(t, want, first)
}
