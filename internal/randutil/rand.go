package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided seed.
// The helper centralises how we derive the two 64-bit PCG seeds so that all
// call sites get reproducible sequences.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(mix(seed), mix(seed+goldenRatio64)))
}

// NewEntropy returns a *rand.Rand seeded from the operating system's entropy
// source. Sources created this way are independent of each other.
func NewEntropy() *rand.Rand {
	return rand.New(rand.NewPCG(EntropySeed(), EntropySeed()))
}

// EntropySeed reads 64 bits from crypto/rand. It falls back to the runtime's
// randomly seeded generator if the entropy source fails.
func EntropySeed() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
