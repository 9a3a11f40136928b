// Package lsh implements near-duplicate detection over token sequences with
// MinHash signatures and banded Locality-Sensitive Hashing, following the
// scheme in Mining of Massive Datasets, chapter 3 (Rajaraman & Ullman).
package lsh

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Core defaults. Twenty bands of five rows and bigram shingles; the universe
// modulus is the Mersenne prime 2^31-1.
const (
	DefaultBands        = 20
	DefaultRowsPerBand  = 5
	DefaultShingleLen   = 2
	DefaultUniverseSize = 2147483647
	DefaultHashFamily   = HashFamilyMultiply
)

// Construction errors
var (
	ErrBandsRowsRequired    = errors.New("bands and rows per band must both be given when total rows is not")
	ErrRowsIndivisible      = errors.New("total rows is not divisible by rows per band")
	ErrBandsIndivisible     = errors.New("total rows is not divisible by number of bands")
	ErrBandingInconsistent  = errors.New("bands times rows per band must equal total rows")
	ErrBandingNegative      = errors.New("banding parameters must not be negative")
	ErrPrimeTotalRows       = errors.New("cannot evenly split a prime number of total rows into bands and rows per band")
	ErrShingleOverSpecified = errors.New("shingle length cannot be given together with a min/max shingle range")
)

// Lookup errors
var (
	ErrKeysNotStored = errors.New("cache was not configured to store band keys")
	ErrUnknownDocID  = errors.New("unknown document id")
)

// DocID identifies an inserted document. Ids are caller-supplied or assigned
// sequentially from 0.
type DocID int

// Config configures a Cache. The zero value of Bands, RowsPerBand and
// NumHashes means unspecified; missing values are resolved from the others,
// and when nothing is given the cache defaults to 20 bands of 5 rows.
// ShingleLen is mutually exclusive with the MinShingle/MaxShingle range.
type Config struct {
	// Bands is the number of bands (b).
	Bands int
	// RowsPerBand is the number of signature rows per band (r).
	RowsPerBand int
	// NumHashes is the total signature length (n = b*r).
	NumHashes int

	// ShingleLen is the fixed shingle length (default 2).
	ShingleLen int
	// MinShingle and MaxShingle select a range of shingle lengths.
	MinShingle int
	MaxShingle int

	// HashFamily names the minhash family, "multiply" (default) or "xor".
	HashFamily string
	// UniverseSize bounds the hash universe (default 2^31-1).
	UniverseSize uint64
	// Seed seeds the pseudo-random source the hash coefficients are drawn
	// from. Equal seeds give byte-identical behavior.
	Seed int64

	// StoreKeys keeps each document's band keys so later lookups can be made
	// by id alone.
	StoreKeys bool
	// TrackDuplicates makes Insert accumulate and return the candidate
	// duplicates found in the bucket tables. When false Insert returns nil
	// candidates and skips the accumulation work.
	TrackDuplicates bool
}

// DefaultConfig returns the configuration used when callers have no
// opinions: 20 bands of 5 rows, bigram shingles, multiply hashing over the
// default universe, duplicate tracking on.
func DefaultConfig() Config {
	return Config{
		Bands:           DefaultBands,
		RowsPerBand:     DefaultRowsPerBand,
		ShingleLen:      DefaultShingleLen,
		HashFamily:      DefaultHashFamily,
		UniverseSize:    DefaultUniverseSize,
		TrackDuplicates: true,
	}
}

// Cache is a banded LSH index over MinHash signatures. Inserting a document
// files its id under one bucket per band; documents sharing at least one
// bucket are candidate near-duplicates. Bucket tables grow monotonically and
// are never pruned.
//
// A Cache is safe for concurrent use: one lock guards all band tables, and
// signature computation happens outside it with no shared scratch state. A
// reader racing an insert may miss the in-flight document but never observes
// a partially filed one.
type Cache struct {
	bands     int
	rows      int
	numHashes int
	shingler  *Shingler
	hasher    *MinHasher
	family    string
	universe  uint64
	seed      int64
	storeKeys bool
	trackDups bool

	mu      sync.RWMutex
	buckets []map[BucketKey][]DocID
	seen    map[DocID][]BucketKey
	nextID  DocID
}

// NewCache builds a Cache from cfg. All parameter validation happens here;
// a constructed cache cannot fail on insert or query.
func NewCache(cfg Config) (*Cache, error) {
	b, r, n, err := resolveBanding(cfg.Bands, cfg.RowsPerBand, cfg.NumHashes)
	if err != nil {
		return nil, err
	}
	minShingle, maxShingle, err := resolveShingleRange(cfg.ShingleLen, cfg.MinShingle, cfg.MaxShingle)
	if err != nil {
		return nil, err
	}
	shingler, err := NewShingler(minShingle, maxShingle)
	if err != nil {
		return nil, err
	}

	universe := cfg.UniverseSize
	if universe == 0 {
		universe = DefaultUniverseSize
	}
	familyName := cfg.HashFamily
	if familyName == "" {
		familyName = DefaultHashFamily
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	family, err := NewHashFamily(familyName, n, universe, rng)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		bands:     b,
		rows:      r,
		numHashes: n,
		shingler:  shingler,
		hasher:    NewMinHasher(family),
		family:    familyName,
		universe:  universe,
		seed:      cfg.Seed,
		storeKeys: cfg.StoreKeys,
		trackDups: cfg.TrackDuplicates,
		buckets:   make([]map[BucketKey][]DocID, b),
		seen:      make(map[DocID][]BucketKey),
	}
	for i := range c.buckets {
		c.buckets[i] = make(map[BucketKey][]DocID)
	}
	return c, nil
}

// resolveBanding fills in unspecified (zero) banding parameters. Two of
// b, r, n determine the third; n alone is factored into the most even split;
// nothing given falls back to the defaults.
func resolveBanding(bands, rows, total int) (b, r, n int, err error) {
	if bands < 0 || rows < 0 || total < 0 {
		return 0, 0, 0, fmt.Errorf("%w: b=%d r=%d n=%d", ErrBandingNegative, bands, rows, total)
	}
	if bands == 0 && rows == 0 && total == 0 {
		return DefaultBands, DefaultRowsPerBand, DefaultBands * DefaultRowsPerBand, nil
	}
	switch {
	case total == 0:
		if bands == 0 || rows == 0 {
			return 0, 0, 0, ErrBandsRowsRequired
		}
		return bands, rows, bands * rows, nil
	case bands == 0 && rows != 0:
		if total%rows != 0 {
			return 0, 0, 0, fmt.Errorf("%w: n=%d r=%d", ErrRowsIndivisible, total, rows)
		}
		return total / rows, rows, total, nil
	case rows == 0 && bands != 0:
		if total%bands != 0 {
			return 0, 0, 0, fmt.Errorf("%w: n=%d b=%d", ErrBandsIndivisible, total, bands)
		}
		return bands, total / bands, total, nil
	case bands == 0 && rows == 0:
		for f := int(math.Sqrt(float64(total))); f > 1; f-- {
			if total%f == 0 {
				return f, total / f, total, nil
			}
		}
		return 0, 0, 0, fmt.Errorf("%w: n=%d", ErrPrimeTotalRows, total)
	default:
		if bands*rows != total {
			return 0, 0, 0, fmt.Errorf("%w: b=%d r=%d n=%d", ErrBandingInconsistent, bands, rows, total)
		}
		return bands, rows, total, nil
	}
}

// resolveShingleRange reduces the two ways of specifying shingle lengths to
// a min/max pair, defaulting to fixed bigrams.
func resolveShingleRange(shingleLen, minShingle, maxShingle int) (min, max int, err error) {
	if shingleLen != 0 && (minShingle != 0 || maxShingle != 0) {
		return 0, 0, ErrShingleOverSpecified
	}
	if shingleLen == 0 && minShingle == 0 && maxShingle == 0 {
		shingleLen = DefaultShingleLen
	}
	if shingleLen != 0 {
		return shingleLen, shingleLen, nil
	}
	return minShingle, maxShingle, nil
}

// keysFor computes the band keys of a document. Pure given the cache
// configuration; requires no lock.
func (c *Cache) keysFor(tokens []string) []BucketKey {
	shingles := c.shingler.Shingle(tokens)
	sig := c.hasher.ComputeSignature(shingles)
	return BandKeys(sig, c.bands, c.rows)
}

// Insert files the document under the next unused id and returns that id
// together with the ids of previously inserted documents sharing at least
// one band bucket, sorted ascending. The candidate set is nil when the cache
// was built without duplicate tracking.
func (c *Cache) Insert(tokens []string) (DocID, []DocID) {
	keys := c.keysFor(tokens)
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	return id, c.insertLocked(keys, id)
}

// InsertWithID files the document under a caller-supplied id. Re-inserting
// an id that is already present is a precondition violation with undefined
// candidate results; the bucket tables themselves stay consistent because
// query results are sets.
func (c *Cache) InsertWithID(tokens []string, id DocID) []DocID {
	keys := c.keysFor(tokens)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(keys, id)
}

// insertLocked performs the bucket mutation for one document: accumulate
// existing bucket members across all bands, then append the id to each of
// its b buckets. Nothing can fail past this point, so a document is never
// filed in only some bands.
func (c *Cache) insertLocked(keys []BucketKey, id DocID) []DocID {
	var accum map[DocID]struct{}
	if c.trackDups {
		accum = make(map[DocID]struct{})
	}
	if c.storeKeys {
		c.seen[id] = keys
	} else {
		c.seen[id] = nil
	}
	if id >= c.nextID {
		c.nextID = id + 1
	}
	for band, key := range keys {
		bucket := c.buckets[band][key]
		if accum != nil {
			for _, d := range bucket {
				if d != id {
					accum[d] = struct{}{}
				}
			}
		}
		c.buckets[band][key] = append(bucket, id)
	}
	if accum == nil {
		return nil
	}
	return sortedIDs(accum)
}

// InsertBatch inserts documents in order under sequentially assigned ids and
// returns each document's candidate duplicates.
func (c *Cache) InsertBatch(docs [][]string) [][]DocID {
	dups := make([][]DocID, len(docs))
	for i, doc := range docs {
		_, dups[i] = c.Insert(doc)
	}
	return dups
}

// Query returns the ids of inserted documents sharing at least one band
// bucket with the given document, sorted ascending. Query never mutates the
// cache.
func (c *Cache) Query(tokens []string) []DocID {
	keys := c.keysFor(tokens)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectLocked(keys, 0, false)
}

// QueryByID looks up candidates for a previously inserted document by id
// alone, excluding the document itself. Requires a cache built with
// StoreKeys.
func (c *Cache) QueryByID(id DocID) ([]DocID, error) {
	if !c.storeKeys {
		return nil, ErrKeysNotStored
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys, ok := c.seen[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDocID, id)
	}
	return c.collectLocked(keys, id, true), nil
}

// collectLocked unions bucket members across all bands into a sorted id
// slice, optionally excluding one id. Callers hold at least the read lock.
func (c *Cache) collectLocked(keys []BucketKey, exclude DocID, excludeSelf bool) []DocID {
	found := make(map[DocID]struct{})
	for band, key := range keys {
		for _, d := range c.buckets[band][key] {
			if excludeSelf && d == exclude {
				continue
			}
			found[d] = struct{}{}
		}
	}
	return sortedIDs(found)
}

func sortedIDs(set map[DocID]struct{}) []DocID {
	ids := make([]DocID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Shingler returns the cache's shingler, shared with callers that need the
// same document-to-shingle mapping (for exact similarity computation).
func (c *Cache) Shingler() *Shingler { return c.shingler }

// NumDocs returns the number of distinct ids inserted.
func (c *Cache) NumDocs() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen)
}

// MaxDocID returns the highest id assigned or inserted so far, or -1 for an
// empty cache.
func (c *Cache) MaxDocID() DocID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextID - 1
}

// NumBands returns b.
func (c *Cache) NumBands() int { return c.bands }

// NumRowsPerBand returns r.
func (c *Cache) NumRowsPerBand() int { return c.rows }

// NumTotalRows returns the signature length n = b*r.
func (c *Cache) NumTotalRows() int { return c.numHashes }

// ShingleRange returns the inclusive shingle length range.
func (c *Cache) ShingleRange() (min, max int) { return c.shingler.ShingleRange() }

// HashFamilyName returns the configured minhash family name.
func (c *Cache) HashFamilyName() string { return c.family }

// UniverseSize returns the configured hash universe bound.
func (c *Cache) UniverseSize() uint64 { return c.universe }

// Seed returns the seed the hash coefficients were drawn with.
func (c *Cache) Seed() int64 { return c.seed }

// TheoreticalPercentFound returns the banding detection probability
// 1-(1-s^r)^b for a pair with true Jaccard similarity s.
func (c *Cache) TheoreticalPercentFound(similarity float64) float64 {
	return DetectionProbability(similarity, c.bands, c.rows)
}

// CacheStats reports bucket table statistics.
type CacheStats struct {
	NumDocs          int     `json:"num_docs" yaml:"num_docs"`
	Bands            int     `json:"bands" yaml:"bands"`
	RowsPerBand      int     `json:"rows_per_band" yaml:"rows_per_band"`
	TotalRows        int     `json:"total_rows" yaml:"total_rows"`
	NumBuckets       int     `json:"num_buckets" yaml:"num_buckets"`
	MinBucketSize    int     `json:"min_bucket_size" yaml:"min_bucket_size"`
	MaxBucketSize    int     `json:"max_bucket_size" yaml:"max_bucket_size"`
	AvgBucketSize    float64 `json:"avg_bucket_size" yaml:"avg_bucket_size"`
	MedianBucketSize float64 `json:"median_bucket_size" yaml:"median_bucket_size"`
}

// Stats summarizes the current bucket tables across all bands.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		NumDocs:     len(c.seen),
		Bands:       c.bands,
		RowsPerBand: c.rows,
		TotalRows:   c.numHashes,
	}

	var sizes []int
	total := 0
	for _, table := range c.buckets {
		for _, bucket := range table {
			sizes = append(sizes, len(bucket))
			total += len(bucket)
		}
	}
	stats.NumBuckets = len(sizes)
	if len(sizes) == 0 {
		return stats
	}

	sort.Ints(sizes)
	stats.MinBucketSize = sizes[0]
	stats.MaxBucketSize = sizes[len(sizes)-1]
	stats.AvgBucketSize = float64(total) / float64(len(sizes))
	if len(sizes)%2 == 0 {
		mid := len(sizes) / 2
		stats.MedianBucketSize = float64(sizes[mid-1]+sizes[mid]) / 2.0
	} else {
		stats.MedianBucketSize = float64(sizes[len(sizes)/2])
	}
	return stats
}
