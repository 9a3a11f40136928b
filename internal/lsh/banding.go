package lsh

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// BucketKey identifies a collision class within one band. It is a 128-bit
// digest of the band's rows; two bands share a key iff their row values are
// identical, up to a collision probability small enough to disappear under
// the banding false-positive model.
type BucketKey xxh3.Uint128

// BandKeys splits a signature into bands contiguous chunks of rows values
// each (band i covers rows [i*rows, (i+1)*rows)) and digests each chunk into
// its BucketKey. The signature length must be bands*rows.
func BandKeys(sig Signature, bands, rows int) []BucketKey {
	keys := make([]BucketKey, bands)
	buf := make([]byte, rows*8)
	for band := 0; band < bands; band++ {
		off := 0
		for _, v := range sig[band*rows : (band+1)*rows] {
			binary.LittleEndian.PutUint64(buf[off:], v)
			off += 8
		}
		keys[band] = BucketKey(xxh3.Hash128(buf))
	}
	return keys
}

// DetectionProbability returns 1-(1-s^rows)^bands, the probability that two
// documents with true Jaccard similarity s collide in at least one band.
// Inputs outside [0, 1] are clamped.
func DetectionProbability(s float64, bands, rows int) float64 {
	if s <= 0 {
		return 0.0
	}
	if s >= 1 {
		return 1.0
	}
	bandMatch := math.Pow(s, float64(rows))
	return 1.0 - math.Pow(1.0-bandMatch, float64(bands))
}

// FalseNegativeRate returns (1-s^rows)^bands, the probability that a pair
// with true similarity s collides in no band at all.
func FalseNegativeRate(s float64, bands, rows int) float64 {
	return 1.0 - DetectionProbability(s, bands, rows)
}

// ImpliedThreshold approximates the similarity at which the detection curve
// crosses steeply, (1/bands)^(1/rows). Pairs above it are more likely found
// than missed.
func ImpliedThreshold(bands, rows int) float64 {
	return math.Pow(1.0/float64(bands), 1.0/float64(rows))
}
