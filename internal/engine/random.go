package engine

import (
	"math/rand"
	"time"
)

// RandomSource supplies uniform floats in [0, 1). *rand.Rand satisfies it.
// Every random draw of a battle (move power, critical roll, random factor,
// enemy move choice) goes through the session's source, so a scripted or
// seeded source makes a battle fully reproducible.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a time-seeded generator for production use.
// The generator is not safe for concurrent use; give each session its own.
func NewRandomSource() RandomSource {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewSeededSource returns a deterministic generator.
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}
