package montecarlo

import (
	"hash/fnv"

	"golang.org/x/exp/rand"
)

// Stream domains keep sub-streams of different purposes disjoint.
const (
	streamPath      uint64 = 0x70617468 // per (path, asset)
	streamSynthetic uint64 = 0x73796e74 // synthetic history per ticker
)

// sharedAsset keys a stream that serves every asset of a path at once.
const sharedAsset = ^uint64(0)

// mix64 is the SplitMix64 finalizer.
func mix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// substreamSeed derives a deterministic seed from the request seed and keys.
func substreamSeed(seed int64, keys ...uint64) uint64 {
	h := mix64(uint64(seed))
	for _, k := range keys {
		h = mix64(h ^ k)
	}
	return h
}

// newStream returns an independent generator keyed by (seed, keys...). The
// same keys always yield the same sequence regardless of which goroutine
// asks for it.
func newStream(seed int64, keys ...uint64) *rand.Rand {
	return rand.New(rand.NewSource(substreamSeed(seed, keys...)))
}

func pathStream(seed int64, path, asset uint64) *rand.Rand {
	return newStream(seed, streamPath, path, asset)
}

func tickerKey(ticker string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	return h.Sum64()
}
