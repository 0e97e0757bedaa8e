package hasher

import (
	"github.com/dchest/siphash"
)

// Domain prefixes separate the two SipHash derivations. The slot is mixed
// into the message rather than the key so one key schedule serves all slots.
const (
	sipIndexDomain     byte = 'I'
	sipIncrementDomain byte = 'V'
)

const sipKeyExpand uint64 = 0x6C62272E07BB0142

// SipHash is a Family built on SipHash-2-4, a keyed hash designed for
// short inputs. Useful when the seed must act as a real secret key rather
// than a reproducibility knob.
type SipHash struct {
	k0, k1 uint64
}

// NewSipHash creates a SipHash family. The 128-bit SipHash key is expanded
// from the 64-bit seed.
func NewSipHash(seed uint64) *SipHash {
	return &SipHash{k0: seed, k1: seed ^ sipKeyExpand}
}

// NewSipHashKeyed creates a SipHash family from an explicit 128-bit key.
func NewSipHashKeyed(k0, k1 uint64) *SipHash {
	return &SipHash{k0: k0, k1: k1}
}

// Name implements Family.
func (f *SipHash) Name() string { return "siphash" }

// DeriveIndex implements Family.
func (f *SipHash) DeriveIndex(key []byte, slot uint16, m uint32) uint32 {
	h := siphash.Hash(f.k0, f.k1, domainMsg(sipIndexDomain, slot, key))
	return uint32(h % uint64(m))
}

// DeriveIncrement implements Family.
func (f *SipHash) DeriveIncrement(key []byte, slot uint16, bound uint64) uint64 {
	h := siphash.Hash(f.k0, f.k1, domainMsg(sipIncrementDomain, slot, key))
	return h % bound
}

// domainMsg prepends domain||slot to the key: SipHash(k, domain || slot_be || key).
func domainMsg(domain byte, slot uint16, key []byte) []byte {
	msg := make([]byte, 3+len(key))
	msg[0] = domain
	msg[1] = byte(slot >> 8)
	msg[2] = byte(slot)
	copy(msg[3:], key)
	return msg
}
