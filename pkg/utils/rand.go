package utils

import (
	"math/rand"
)

// DefaultSeed is used whenever a caller passes seed 0, so that an unseeded
// run is still reproducible.
const DefaultSeed int64 = 1

// RandSource is a seeded random number generator owned by a single search instance.
// It is not safe for concurrent use; derive one source per goroutine with Derive.
type RandSource struct {
	seed int64
	rng  *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// A zero seed is replaced by DefaultSeed.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &RandSource{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the source was created with
func (r *RandSource) Seed() int64 {
	return r.seed
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// IntRange returns a random int in [lo, hi]
func (r *RandSource) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.Intn(hi-lo+1)
}

// Perm returns a random permutation of [0, n)
func (r *RandSource) Perm(n int) []int {
	return r.rng.Perm(n)
}

// Shuffle randomizes the order of n elements using swap
func (r *RandSource) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}

// BernoulliBool returns true with probability p, false otherwise
func (r *RandSource) BernoulliBool(p float64) bool {
	return r.rng.Float64() < p
}

// WeightedIndex picks an index with probability proportional to its weight.
// Non-positive weights are never picked. Returns -1 when no weight is positive.
func (r *RandSource) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	target := r.rng.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if target < w {
			return i
		}
		target -= w
	}
	return last
}

// Derive creates an independent deterministic stream for the given stream id
// without consuming values from r.
func (r *RandSource) Derive(stream uint64) *RandSource {
	return NewRandSource(DeriveSeed(r.seed, stream))
}

// DeriveSeed mixes a parent seed and a stream identifier into a new seed using a
// SplitMix64 finalizer, so neighbouring stream ids give uncorrelated sequences.
func DeriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	seed := int64(x)
	if seed == 0 {
		seed = DefaultSeed
	}
	return seed
}
