package token

// splitmix64 derives a deterministic per-worker seed from a master seed
// and a worker index, so the multi-writer and pipeline backends
// reproduce identical output for a fixed worker count and seed. This is
// the generator from Vigna's splitmix64; it is used purely as a seed
// derivation step, not as the generator itself.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// WorkerSeed derives the seed for worker index i given a master seed.
func WorkerSeed(master int64, i int) int64 {
	return int64(splitmix64(uint64(master) + uint64(i)*0x9E3779B97F4A7C15))
}
