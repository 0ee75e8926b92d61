package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates the generator for one unit of work (e.g. one bootstrap iteration).
	// The same (name, baseSeed, index) always yields the same sequence, so parallel
	// work reproduces regardless of scheduling.
	Stream(ctx context.Context, name string, baseSeed int64, index int) (*rand.Rand, error)

	// FreshSeed draws a seed for callers that did not supply one
	FreshSeed() int64
}
