package codec

import "github.com/spaolacci/murmur3"

// HashKey computes the 64-bit Murmur3 hash of key, used by HashIndex
// probing and BloomFilter bit selection. Murmur3-x64 gives the wide,
// well-distributed hash the double-hashing probe sequence in
// internal/block's HashIndex relies on.
func HashKey(key []byte) uint64 {
	return murmur3.Sum64(key)
}

// HashPair splits a 64-bit hash into two 32-bit halves used by the
// HashIndex's double-hashing probe: h1 is the base slot, h2 is the stride.
func HashPair(hash uint64) (h1, h2 uint32) {
	return uint32(hash >> 32), uint32(hash)
}
