// Package testutil provides testing utilities for sharedcomp.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for shared values with
// a controlled amount of duplication.
//
// # Random Values
//
//	rng := testutil.NewRNG(seed)
//	names := rng.Words(1000, 50) // 1000 picks from 50 distinct words
//	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
package testutil
