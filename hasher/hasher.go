// Package hasher derives counter indices and increment values for
// variable-increment counting Bloom filters.
//
// A Family is a keyed hash capability: given a key and a hash slot it
// deterministically produces an index draw and an increment draw. Index and
// increment derivation use independent hash domains, so the position of a
// key's counters carries no information about the values added to them.
//
// Two filters only interoperate when they agree on the family, the seed and
// the filter parameters; that agreement is exchanged out of band (or via
// the snapshot envelope in the persistence package).
package hasher

// Family derives per-(key, slot) index and increment draws.
//
// Implementations must be deterministic and safe for concurrent use.
type Family interface {
	// DeriveIndex returns a counter index in [0, m) for the given key and
	// hash slot. m must be positive.
	DeriveIndex(key []byte, slot uint16, m uint32) uint32

	// DeriveIncrement returns a draw in [0, bound) for the given key and
	// hash slot, from a hash domain independent of DeriveIndex. bound must
	// be positive.
	DeriveIncrement(key []byte, slot uint16, bound uint64) uint64

	// Name returns the stable family name used by self-describing
	// persistence formats.
	Name() string
}

// ByName returns a built-in family by its stable name, keyed with seed.
func ByName(name string, seed uint64) (Family, bool) {
	switch name {
	case "murmur3":
		return NewMurmur3(seed), true
	case "siphash":
		return NewSipHash(seed), true
	default:
		return nil, false
	}
}
