// Package vicbf implements a variable-increment counting Bloom filter
// (VI-CBF), a probabilistic set membership structure supporting insert,
// query and delete over a fixed array of bit-packed counters.
//
// A classical counting Bloom filter adds 1 to k counters per key. The
// variable-increment construction (Rottenstreich et al., "The
// Variable-Increment Counting Bloom Filter", INFOCOM 2012) instead adds a
// per-(key, slot) increment derived from a keyed hash, which lowers the
// false positive rate at the same memory cost: a colliding key must not
// only find nonzero counters, it must find counters consistent with its
// own increments.
//
// # Quick Start
//
//	f, _ := vicbf.New(1<<16, 4, 8, vicbf.WithSeed(42))
//	f.Insert([]byte("alpha"))
//	f.Query([]byte("alpha")) // true
//	f.Query([]byte("beta"))  // false (almost certainly)
//	f.Delete([]byte("alpha"))
//
// # Guarantees and Hazards
//
// Query never reports a false negative for a key that was inserted and not
// deleted, as long as no counter involved has wrapped. Counters are w-bit
// with modular arithmetic; wrap events are surfaced via Saturated, the
// logger and the metrics collector. Deleting a key that was never inserted
// corrupts counters shared with other keys; that hazard is inherent to
// counting filters and is signaled, not prevented.
//
// # Persistence
//
// MarshalBinary/Decode implement the canonical cross-implementation
// encoding (parameter header plus bit-packed counters). WriteSnapshot and
// SaveToStore wrap it in a checksummed, optionally compressed envelope
// that also records the hash family, seed and scheme; blobstore backends
// cover the local filesystem, memory and S3-compatible object storage.
//
// # Concurrency
//
// A Filter is a single mutable resource with no internal locking. Wrap it
// in a Safe for shared use.
package vicbf
