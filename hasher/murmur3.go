package hasher

import (
	"github.com/spaolacci/murmur3"
)

// Domain constants keep index and increment derivation on disjoint seed
// schedules even for slot 0 and seed 0.
const (
	murmurIndexDomain     uint32 = 0x9E3779B1
	murmurIncrementDomain uint32 = 0x85EBCA77
)

// Murmur3 is the default Family, built on 64-bit MurmurHash3 with
// per-slot seed derivation.
type Murmur3 struct {
	seed uint64
}

// NewMurmur3 creates a Murmur3 family keyed with seed.
func NewMurmur3(seed uint64) *Murmur3 {
	return &Murmur3{seed: seed}
}

// Name implements Family.
func (f *Murmur3) Name() string { return "murmur3" }

// DeriveIndex implements Family.
func (f *Murmur3) DeriveIndex(key []byte, slot uint16, m uint32) uint32 {
	h := murmur3.Sum64WithSeed(key, f.slotSeed(murmurIndexDomain, slot))
	return uint32(h % uint64(m))
}

// DeriveIncrement implements Family.
func (f *Murmur3) DeriveIncrement(key []byte, slot uint16, bound uint64) uint64 {
	h := murmur3.Sum64WithSeed(key, f.slotSeed(murmurIncrementDomain, slot))
	return h % bound
}

func (f *Murmur3) slotSeed(domain uint32, slot uint16) uint32 {
	// Fold the 64-bit seed and mix in the slot so every (domain, slot)
	// pair selects a distinct member of the hash family.
	folded := uint32(f.seed) ^ uint32(f.seed>>32)
	return folded ^ (domain + uint32(slot)*0x01000193)
}
