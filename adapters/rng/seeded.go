package rng

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"time"
)

// SeededAdapter implements ports.RNGPort with math/rand sources whose seeds are derived
// from (name, base seed, index) through splitmix64.
type SeededAdapter struct{}

// NewSeededAdapter creates the adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(deriveSeed(name, seed, 0))), nil
}

// Stream creates the generator for one indexed unit of work
func (a *SeededAdapter) Stream(ctx context.Context, name string, baseSeed int64, index int) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(deriveSeed(name, baseSeed, uint64(index)+1))), nil
}

// FreshSeed reads a seed from the operating system, falling back to the clock
func (a *SeededAdapter) FreshSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

func deriveSeed(name string, seed int64, index uint64) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	x := splitmix64(uint64(seed) ^ h.Sum64())
	x = splitmix64(x ^ index)
	return int64(x)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
