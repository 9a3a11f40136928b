package lsh

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand"
)

// Supported hash family names
const (
	HashFamilyMultiply = "multiply"
	HashFamilyXOR      = "xor"
)

// Hash family errors
var (
	ErrZeroHashFunctions = errors.New("hash family size must be greater than 0")
	ErrUniverseTooSmall  = errors.New("universe size must be at least 2")
	ErrUniverseTooLarge  = errors.New("universe size must fit in 62 bits")
	ErrUnknownHashFamily = errors.New("unknown hash family")
)

// HashFamily is a family of independent hash functions over a bounded
// universe. Coefficients are drawn once at construction from the supplied
// random source, so two families built from identically seeded sources
// produce identical hash streams, while a second family drawn from the same
// source does not.
type HashFamily interface {
	// Hash applies the i-th function of the family to x.
	Hash(i int, x uint64) uint64
	// Size returns the number of functions in the family.
	Size() int
}

// HashFamilyNames lists the recognized family names.
func HashFamilyNames() []string {
	return []string{HashFamilyMultiply, HashFamilyXOR}
}

// NewHashFamily constructs the named family. An empty name selects the
// multiply family.
func NewHashFamily(name string, size int, universeSize uint64, rng *rand.Rand) (HashFamily, error) {
	switch name {
	case "", HashFamilyMultiply:
		return NewMultiplyHashFamily(size, universeSize, rng)
	case HashFamilyXOR:
		return NewXORHashFamily(size, universeSize, rng)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashFamily, name)
	}
}

// MultiplyHashFamily is a universal family of affine transforms
// h_i(x) = (a_i*x + b_i) mod p with coefficient pairs fixed at construction.
// The modulus is the universe size, which should be prime for the
// universality guarantee; the default universe 2^31-1 is a Mersenne prime.
type MultiplyHashFamily struct {
	a []uint64
	b []uint64
	p uint64
}

// NewMultiplyHashFamily draws size coefficient pairs from rng with
// a_i in [1, p) and b_i in [0, p).
func NewMultiplyHashFamily(size int, universeSize uint64, rng *rand.Rand) (*MultiplyHashFamily, error) {
	if err := validateFamilyArgs(size, universeSize); err != nil {
		return nil, err
	}
	f := &MultiplyHashFamily{
		a: make([]uint64, size),
		b: make([]uint64, size),
		p: universeSize,
	}
	for i := 0; i < size; i++ {
		f.a[i] = 1 + uint64(rng.Int63n(int64(universeSize-1)))
		f.b[i] = uint64(rng.Int63n(int64(universeSize)))
	}
	return f, nil
}

// Hash computes (a_i*x + b_i) mod p through a 128-bit intermediate so large
// universes cannot overflow.
func (f *MultiplyHashFamily) Hash(i int, x uint64) uint64 {
	hi, lo := bits.Mul64(f.a[i], x%f.p)
	_, rem := bits.Div64(hi, lo, f.p)
	return (rem + f.b[i]) % f.p
}

// Size returns the number of functions in the family.
func (f *MultiplyHashFamily) Size() int { return len(f.a) }

// XORHashFamily hashes by XOR with per-function random masks:
// h_i(x) = (x & m) ^ mask_i, where m covers the universe's bit width.
type XORHashFamily struct {
	masks []uint64
	width uint64
}

// NewXORHashFamily draws size random masks within the universe's bit width.
func NewXORHashFamily(size int, universeSize uint64, rng *rand.Rand) (*XORHashFamily, error) {
	if err := validateFamilyArgs(size, universeSize); err != nil {
		return nil, err
	}
	width := uint64(1)<<bits.Len64(universeSize-1) - 1
	f := &XORHashFamily{
		masks: make([]uint64, size),
		width: width,
	}
	for i := 0; i < size; i++ {
		f.masks[i] = rng.Uint64() & width
	}
	return f, nil
}

// Hash XORs x, trimmed to the universe's bit width, with the i-th mask.
func (f *XORHashFamily) Hash(i int, x uint64) uint64 {
	return (x & f.width) ^ f.masks[i]
}

// Size returns the number of functions in the family.
func (f *XORHashFamily) Size() int { return len(f.masks) }

func validateFamilyArgs(size int, universeSize uint64) error {
	if size <= 0 {
		return fmt.Errorf("%w, got %d", ErrZeroHashFunctions, size)
	}
	if universeSize < 2 {
		return fmt.Errorf("%w, got %d", ErrUniverseTooSmall, universeSize)
	}
	if universeSize > 1<<62 {
		return fmt.Errorf("%w, got %d", ErrUniverseTooLarge, universeSize)
	}
	return nil
}
