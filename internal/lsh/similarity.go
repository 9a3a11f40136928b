package lsh

import (
	"errors"
	"fmt"
)

// Similarity metric names. The set metrics compare shingle sets; the edit
// metrics compare raw token sequences.
const (
	MetricJaccard           = "jaccard"
	MetricMASI              = "masi"
	MetricEdit              = "edit"
	MetricEditTransposition = "edit_transposition"
)

var ErrUnknownMetric = errors.New("unknown similarity metric")

// MetricNames returns the supported similarity metric names.
func MetricNames() []string {
	return []string{MetricJaccard, MetricMASI, MetricEdit, MetricEditTransposition}
}

// ValidateMetric reports whether name is a supported similarity metric.
func ValidateMetric(name string) error {
	switch name {
	case MetricJaccard, MetricMASI, MetricEdit, MetricEditTransposition:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// JaccardSimilarity returns |A∩B| / |A∪B| for the two element slices,
// treating each as a set. Two empty sets are considered identical.
func JaccardSimilarity(a, b []uint64) float64 {
	inter, union, _, _ := setCounts(a, b)
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// MASISimilarity returns the MASI variant of Jaccard similarity, which
// discounts partial overlap: the Jaccard value is scaled by 1 for equal
// sets, 0.67 when one set contains the other, 0.33 for partial overlap and
// 0 for disjoint sets.
func MASISimilarity(a, b []uint64) float64 {
	inter, union, sizeA, sizeB := setCounts(a, b)
	if union == 0 {
		return 1
	}
	var m float64
	switch {
	case inter == sizeA && inter == sizeB:
		m = 1
	case inter == min(sizeA, sizeB):
		m = 0.67
	case inter > 0:
		m = 0.33
	}
	return float64(inter) / float64(union) * m
}

func setCounts(a, b []uint64) (inter, union, sizeA, sizeB int) {
	inA := make(map[uint64]bool, len(a))
	for _, x := range a {
		inA[x] = true
	}
	sizeA = len(inA)
	union = sizeA
	inB := make(map[uint64]bool, len(b))
	for _, x := range b {
		if inB[x] {
			continue
		}
		inB[x] = true
		if inA[x] {
			inter++
		} else {
			union++
		}
	}
	sizeB = len(inB)
	return inter, union, sizeA, sizeB
}

// EditDistance returns the Levenshtein distance between two token
// sequences. With transpositions enabled, swapping two adjacent tokens
// counts as a single edit (optimal string alignment).
func EditDistance(a, b []string, transpositions bool) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	var prev2 []int
	if transpositions {
		prev2 = make([]int, len(b)+1)
	}
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d := min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if transpositions && i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				d = min(d, prev2[j-2]+1)
			}
			cur[j] = d
		}
		if transpositions {
			prev2, prev, cur = prev, cur, prev2
		} else {
			prev, cur = cur, prev
		}
	}
	return prev[len(b)]
}

// EditSimilarity normalizes edit distance into a similarity in [0, 1]:
// 1 - dist/max(len(a), len(b)). Two empty sequences have similarity 1.
func EditSimilarity(a, b []string, transpositions bool) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	dist := EditDistance(a, b, transpositions)
	return 1 - float64(dist)/float64(longest)
}
