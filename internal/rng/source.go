package rng

import "math/rand"

// Source is the randomness every training stage draws from. *rand.Rand
// satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Uniform draws a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return (hi-lo)*src.Float64() + lo
}

// IntRange draws a value in [lo, hi).
func IntRange(src Source, lo, hi int) int {
	return lo + src.Intn(hi-lo)
}
