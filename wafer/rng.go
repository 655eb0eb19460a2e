package wafer

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === AnalysisKey ===

// AnalysisKey uniquely identifies a reproducible analysis run.
// Two runs with the same AnalysisKey and identical inputs MUST produce
// bit-for-bit identical results.
type AnalysisKey int64

// NewAnalysisKey creates an AnalysisKey from a seed value.
func NewAnalysisKey(seed int64) AnalysisKey {
	return AnalysisKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemForest is the RNG subsystem that draws each tree's row
	// subsample. Uses the master seed directly.
	SubsystemForest = "forest"
)

// SubsystemTree returns the subsystem name for isolation tree N.
func SubsystemTree(id int) string {
	return fmt.Sprintf("tree_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemForest: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        AnalysisKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from an AnalysisKey.
func NewPartitionedRNG(key AnalysisKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemForest {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the AnalysisKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() AnalysisKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
