package qkd

import (
	"hash/fnv"
	"math/rand"
)

// === RunKey ===

// RunKey uniquely identifies a reproducible simulation run.
// Two runs with the same RunKey and identical configuration MUST produce
// bit-for-bit identical transmission records, sifted keys, and results.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemSender draws the sender's random bits and basis choices.
	SubsystemSender = "sender"

	// SubsystemReceiver draws the receiver's basis choices and the
	// indeterminate branches of its measurements.
	SubsystemReceiver = "receiver"

	// SubsystemChannel draws loss and noise decisions.
	SubsystemChannel = "channel"

	// SubsystemEavesdropper draws the interceptor's basis choices,
	// measurement branches, and inconclusive-resend guesses.
	SubsystemEavesdropper = "eavesdropper"

	// SubsystemEstimator draws the error-estimation sample positions.
	SubsystemEstimator = "estimator"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, so that e.g. enabling the eavesdropper never perturbs the
// sender's bit sequence for a given seed.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. A PartitionedRNG belongs to exactly one
// run, and a run is single-threaded.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
