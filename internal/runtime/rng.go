package runtime

import (
	"math/rand"
	"sync"
)

// DeterministicRNG is the synchronized random source §4.4.8 requires:
// every access is mutually excluded, and streams are reseeded
// deterministically from (base_seed, step, patch_index) so results are
// reproducible regardless of thread scheduling.
type DeterministicRNG struct {
	mu       sync.Mutex
	baseSeed int64
	source   *rand.Rand
}

// NewDeterministicRNG seeds a generator from baseSeed alone; callers
// that need per-(step, patch) reproducibility should call Reseed
// before drawing values for that shard.
func NewDeterministicRNG(baseSeed int64) *DeterministicRNG {
	return &DeterministicRNG{baseSeed: baseSeed, source: rand.New(rand.NewSource(baseSeed))}
}

// Reseed derives a new stream for (step, patchIndex) from the base
// seed, mixed via a simple splitmix-style combination so nearby
// (step, patch) pairs don't produce correlated streams.
func (r *DeterministicRNG) Reseed(step int, patchIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mixed := r.baseSeed
	mixed = mixed*6364136223846793005 + int64(step)*1442695040888963407 + int64(patchIndex)
	r.source = rand.New(rand.NewSource(mixed))
}

// Float64 draws a uniform float64 in [0,1) under the lock.
func (r *DeterministicRNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source.Float64()
}

// NormFloat64 draws a standard-normal sample under the lock.
func (r *DeterministicRNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source.NormFloat64()
}

// Intn draws a uniform int in [0,n) under the lock.
func (r *DeterministicRNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source.Intn(n)
}
