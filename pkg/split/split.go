// Package split assigns dataset items to train/valid/test partitions.
//
// Assignment hashes a stable identifier instead of sampling randomly, so an
// item keeps its partition across runs and as the dataset grows. Newly added
// items never perturb the partition of previously assigned ones, which keeps
// incremental pipeline re-runs free of train/test contamination.
package split

import (
	"crypto/sha1"
	"math/big"
)

// Partition is a dataset split label.
type Partition string

const (
	Train Partition = "train"
	Valid Partition = "valid"
	Test  Partition = "test"
)

var hundred = big.NewInt(100)

// Digest hashes an identifier to a 160-bit unsigned integer.
func Digest(identifier string) *big.Int {
	sum := sha1.Sum([]byte(identifier))
	return new(big.Int).SetBytes(sum[:])
}

// Bucket reduces a digest to an integer in [0, 99].
func Bucket(digest *big.Int) int {
	return int(new(big.Int).Mod(digest, hundred).Int64())
}

// Assign maps a digest to a partition given validation and testing
// percentages. Buckets fall into half-open intervals: [0, v) is valid,
// [v, v+t) is test, and the remainder is train. Callers are responsible
// for keeping validationPct+testingPct at or below 100.
func Assign(digest *big.Int, validationPct, testingPct int) Partition {
	bucket := Bucket(digest)
	switch {
	case bucket < validationPct:
		return Valid
	case bucket < validationPct+testingPct:
		return Test
	default:
		return Train
	}
}

// ForIdentifier assigns a partition directly from an identifier string.
func ForIdentifier(identifier string, validationPct, testingPct int) Partition {
	return Assign(Digest(identifier), validationPct, testingPct)
}
