package vicbf

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vicbf/counter"
	"github.com/hupe1980/vicbf/hasher"
)

// Filter is a variable-increment counting Bloom filter.
//
// Unlike a classical counting Bloom filter, every (key, slot) pair
// contributes its own increment value, which lowers the false positive
// rate at equal memory. Query can answer "definitely absent" or "possibly
// present"; false negatives only arise from counter saturation or from
// deleting keys that were never inserted.
//
// A Filter is not safe for concurrent use; wrap it in a Safe if it is
// shared across goroutines.
type Filter struct {
	m      uint32
	k      uint16
	w      uint8
	seed   uint64
	scheme IncrementScheme
	vibase uint64
	policy OverflowPolicy

	family    hasher.Family
	counters  *counter.Vector
	saturated *roaring.Bitmap
	count     uint64

	logger  *Logger
	metrics MetricsCollector
}

// New constructs a zero-filled filter with m counters, k hash slots per
// key and w bits per counter. Construction fails with an
// ErrConfiguration-wrapped error for m=0, k=0, w outside [1, 32], k>m, or
// a table-scheme base that is invalid or does not fit the counter width.
func New(m uint32, k uint16, w uint8, opts ...Option) (*Filter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newFilter(m, k, w, nil, cfg)
}

func newFilter(m uint32, k uint16, w uint8, body []byte, cfg config) (*Filter, error) {
	if m == 0 {
		return nil, ErrInvalidSlots
	}
	if k == 0 {
		return nil, ErrInvalidHashCount
	}
	if uint32(k) > m {
		return nil, ErrHashCountExceedsSlots
	}
	if w == 0 || w > 32 {
		return nil, ErrInvalidWidth
	}
	if cfg.scheme == IncrementTable {
		switch cfg.vibase {
		case 2, 4, 8, 16:
		default:
			return nil, ErrInvalidVIBase
		}
		if cfg.vibase*2 > uint64(1)<<w {
			return nil, ErrVIBaseTooWide
		}
	}

	var (
		vec *counter.Vector
		err error
	)
	if body != nil {
		vec, err = counter.FromBytes(body, m, w)
	} else {
		vec, err = counter.New(m, w)
	}
	if err != nil {
		return nil, err
	}

	family := cfg.family
	if family == nil {
		family = hasher.NewMurmur3(cfg.seed)
	}

	return &Filter{
		m:         m,
		k:         k,
		w:         w,
		seed:      cfg.seed,
		scheme:    cfg.scheme,
		vibase:    cfg.vibase,
		policy:    cfg.policy,
		family:    family,
		counters:  vec,
		saturated: roaring.New(),
		logger:    cfg.logger,
		metrics:   cfg.metrics,
	}, nil
}

// pair derives the (index, increment) pair for one hash slot. The
// increment is never zero: a zero increment would turn insertion into a
// no-op and void the false positive analysis.
func (f *Filter) pair(key []byte, slot uint16) (uint32, uint64) {
	idx := f.family.DeriveIndex(key, slot, f.m)
	if f.scheme == IncrementTable {
		return idx, f.vibase + f.family.DeriveIncrement(key, slot, f.vibase)
	}
	return idx, 1 + f.family.DeriveIncrement(key, slot, f.counters.Modulus()-1)
}

// Insert adds key to the filter, incrementing k counters by their derived
// increments. Index collisions among a key's own slots are not
// deduplicated; both increments land on the shared counter. Wraparound is
// recorded, logged and counted but never aborts the operation.
func (f *Filter) Insert(key []byte) {
	start := time.Now()

	wrapped := 0
	for slot := uint16(0); slot < f.k; slot++ {
		idx, inc := f.pair(key, slot)

		var overflowed bool
		if f.policy == OverflowClamp {
			_, overflowed = f.counters.AddClamped(idx, inc)
		} else {
			_, overflowed = f.counters.Add(idx, inc)
		}
		if overflowed {
			wrapped++
			f.saturated.Add(idx)
			f.metrics.RecordSaturation(idx)
			f.logger.LogSaturation(idx)
		}
	}
	f.count++

	f.metrics.RecordInsert(time.Since(start))
	f.logger.LogInsert(len(key), wrapped)
}

// Query reports whether key is possibly present. A false result is
// definitive: the key was not inserted (or its counters were corrupted by
// saturation or by deleting keys that were never inserted).
//
// The element is considered present only if every derived counter holds at
// least the slot's increment, comparing values as unsigned magnitudes.
// Under IncrementTable a residual strictly between 0 and the base L is
// additionally rejected, since every legitimate contribution is at least L.
func (f *Filter) Query(key []byte) bool {
	start := time.Now()

	found := true
	for slot := uint16(0); slot < f.k; slot++ {
		idx, inc := f.pair(key, slot)
		val := f.counters.Get(idx)

		if f.policy == OverflowClamp && val == f.counters.Modulus()-1 {
			// A pinned counter has unknown true magnitude; it cannot rule
			// the key out.
			continue
		}
		if val < inc {
			found = false
			break
		}
		if f.scheme == IncrementTable {
			if rem := val - inc; rem > 0 && rem < f.vibase {
				found = false
				break
			}
		}
	}

	f.metrics.RecordQuery(found, time.Since(start))
	f.logger.LogQuery(len(key), found)
	return found
}

// Delete removes key from the filter by subtracting its increments. The
// caller should have established Query(key) == true first: deleting a key
// that was never inserted, or more times than it was inserted, corrupts
// counters shared with other keys and produces spurious false negatives
// for them. That hazard is inherent to counting filter designs; Delete
// surfaces the underflow signal but does not fail.
//
// Under OverflowClamp, counters pinned at the maximum are frozen and not
// decremented.
func (f *Filter) Delete(key []byte) {
	start := time.Now()

	underflowed := 0
	for slot := uint16(0); slot < f.k; slot++ {
		idx, inc := f.pair(key, slot)

		var skipped bool
		if f.policy == OverflowClamp {
			_, skipped = f.counters.SubClamped(idx, inc)
		} else {
			_, skipped = f.counters.Sub(idx, inc)
		}
		if skipped {
			underflowed++
			f.metrics.RecordUnderflow(idx)
		}
	}
	if f.count > 0 {
		f.count--
	}

	f.metrics.RecordDelete(time.Since(start))
	f.logger.LogDelete(len(key), underflowed)
}

// Count returns the approximate number of keys currently in the filter:
// inserts minus deletes, regardless of whether the deleted keys were
// actually present.
func (f *Filter) Count() uint64 { return f.count }

// Saturated returns the sorted indices of counters that have wrapped or
// saturated since construction (or since the last Reset). The set is not
// persisted across snapshots.
func (f *Filter) Saturated() []uint32 {
	return f.saturated.ToArray()
}

// Reset zeroes all counters and clears the saturation set and count.
func (f *Filter) Reset() {
	f.counters.Reset()
	f.saturated.Clear()
	f.count = 0
}

// M returns the number of counters.
func (f *Filter) M() uint32 { return f.m }

// K returns the number of hash slots per key.
func (f *Filter) K() uint16 { return f.k }

// W returns the counter width in bits.
func (f *Filter) W() uint8 { return f.w }

// Seed returns the configured seed.
func (f *Filter) Seed() uint64 { return f.seed }

// Scheme returns the increment scheme.
func (f *Filter) Scheme() IncrementScheme { return f.scheme }

// Policy returns the overflow policy.
func (f *Filter) Policy() OverflowPolicy { return f.policy }

// FamilyName returns the stable name of the hash family in use.
func (f *Filter) FamilyName() string { return f.family.Name() }

// Bytes returns a copy of the raw bit-packed counter buffer.
func (f *Filter) Bytes() []byte { return f.counters.Bytes() }
