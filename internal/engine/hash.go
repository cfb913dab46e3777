package engine

import "strconv"

// hashCode computes a stable, non-cryptographic 32-bit FNV-1a hash over
// code, encoded as a short base-36 string, for use as a cache key /
// state identity.
//
// Collisions degrade to cache misses at worst: the orchestrator stores
// the source text beside each cached artifact and serves a hit only
// when it matches, never on the hash alone.
func hashCode(s string) string {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return strconv.FormatUint(uint64(h), 36)
}
