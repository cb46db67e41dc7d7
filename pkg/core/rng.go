package core

import "math/rand/v2"

// Rand is the set of draws the CA passes make: diagonal and spread tie
// breaks, reaction and burn rolls, and state change rolls.
type Rand interface {
	Bool() bool
	IntN(n int) int
	Float32() float32
}

// Stream is a Rand that can be restarted. The engine keeps one per chunk and
// reseeds it before every phase, so equal seeds must yield equal draws.
type Stream interface {
	Rand
	Reseed(seed uint64)
}

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	pcg rand.PCG
	r   *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	g := &RNG{}
	g.pcg.Seed(uint64(seed), 0)
	g.r = rand.New(&g.pcg)
	return g
}

// Reseed restarts the stream without allocating.
func (r *RNG) Reseed(seed uint64) {
	r.pcg.Seed(seed, seed^0x9e3779b97f4a7c15)
}

// Bool returns a random boolean value.
func (r *RNG) Bool() bool {
	return r.pcg.Uint64()&1 == 1
}

// IntN returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Float32 returns a random float32 in [0, 1).
func (r *RNG) Float32() float32 {
	return r.r.Float32()
}

// Uint8n returns a random uint8 in [0, n).
func (r *RNG) Uint8n(n uint8) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(r.r.IntN(int(n)))
}

// Mix derives an independent stream seed from a base seed and a list of keys
// (tick, phase, chunk coordinates). It is a splitmix64 fold, so equal inputs
// always yield equal seeds regardless of which goroutine asks.
func Mix(seed uint64, keys ...uint64) uint64 {
	h := splitmix(seed)
	for _, k := range keys {
		h = splitmix(h ^ k)
	}
	return h
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
