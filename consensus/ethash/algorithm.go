// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package ethash

import "github.com/mana-ethereum/mana-sub006/crypto"

const (
	epochLength      = 30000
	cacheInitBytes   = 1 << 24 // 16MB
	cacheGrowthBytes = 1 << 17 // 128KB
	datasetInitBytes = 1 << 30 // 1GB
	datasetGrowthBytes = 1 << 23 // 8MB
	mixBytes         = 128
	hashBytes        = 64
	fnvPrime         = uint32(0x01000193)
)

// Epoch returns floor(blockNumber / 30000), the epoch index used to derive
// the seed hash.
func Epoch(blockNumber uint64) uint64 { return blockNumber / epochLength }

// SeedHash computes Keccak(^n)(0^32) at n = Epoch(blockNumber), per the
// GLOSSARY definition.
func SeedHash(blockNumber uint64) []byte {
	seed := make([]byte, 32)
	epoch := Epoch(blockNumber)
	for i := uint64(0); i < epoch; i++ {
		seed = crypto.Keccak256(seed)
	}
	return seed
}

// isPrime is a small trial-division primality test used by CacheSize and
// DatasetSize to find the largest prime below a size bound (the classic
// ethash sizing algorithm).
func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for i := uint64(2); i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// CacheSize returns the ethash verification-cache size for blockNumber's
// epoch: the largest value below initBytes+epoch*growthBytes, minus
// hashBytes, such that size/hashBytes is prime.
func CacheSize(blockNumber uint64) uint64 {
	size := cacheInitBytes + cacheGrowthBytes*Epoch(blockNumber)
	size -= hashBytes
	for !isPrime(size / hashBytes) {
		size -= 2 * hashBytes
	}
	return size
}

// DatasetSize returns the ethash full-dataset size for blockNumber's epoch,
// by the same shrink-to-prime construction as CacheSize but over mixBytes
// granularity.
func DatasetSize(blockNumber uint64) uint64 {
	size := datasetInitBytes + datasetGrowthBytes*Epoch(blockNumber)
	size -= mixBytes
	for !isPrime(size / mixBytes) {
		size -= 2 * mixBytes
	}
	return size
}

// fnv is the 32-bit Fowler-Noll-Vo mixing function ethash uses to combine
// dataset words, per §G "FNV mixing".
func fnv(a, b uint32) uint32 {
	return a*fnvPrime ^ b
}

// fnvHash mixes a byte slice's 32-bit words into mix using fnv, in place.
func fnvHash(mix []uint32, data []uint32) {
	for i := range mix {
		mix[i] = fnv(mix[i], data[i])
	}
}
