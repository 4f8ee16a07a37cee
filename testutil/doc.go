// Package testutil provides testing utilities for this module.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG for generating random trees, ensembles,
// and feature rows with reproducible results across runs.
//
// # Deterministic Random Fixtures
//
//	rng := testutil.NewRNG(seed)
//	tree := rng.RandomTree(numFeatures, maxDepth)
//	at := rng.RandomAddTree(numTrees, numFeatures, maxDepth)
//	row := rng.RandomRow(numFeatures)
package testutil
