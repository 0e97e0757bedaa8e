package vicbf

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/vicbf/blobstore"
	"github.com/hupe1980/vicbf/hasher"
	"github.com/hupe1980/vicbf/persistence"
)

// MarshalBinary returns the canonical interop encoding: the 8-byte
// parameter header followed by the bit-packed counter body. It carries no
// hash family or seed; implementations exchanging canonical bytes must
// agree on those out of band.
func (f *Filter) MarshalBinary() ([]byte, error) {
	return persistence.EncodeCanonical(f.params(), f.counters.Bytes())
}

// Decode reconstructs a filter from a canonical encoding. The options must
// reproduce the hash configuration of the encoder or queries will be
// meaningless; the canonical format deliberately does not carry it.
func Decode(buf []byte, opts ...Option) (*Filter, error) {
	p, body, err := persistence.DecodeCanonical(buf)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newFilter(p.M, p.K, p.W, body, cfg)
}

// WriteSnapshot writes a self-describing snapshot envelope to w: canonical
// payload plus hash family, seed, scheme and count, checksummed and
// optionally compressed.
//
// The saturation set is not part of a snapshot; a restored filter starts
// with an empty one.
func (f *Filter) WriteSnapshot(w io.Writer, comp persistence.Compression) error {
	return persistence.WriteSnapshot(w, f.snapshot(), comp)
}

// ReadSnapshot reconstructs a filter from a snapshot envelope. The hash
// family is resolved by name from the envelope; use WithHasher to override
// it (required for families not registered with the hasher package).
func ReadSnapshot(r io.Reader, opts ...Option) (*Filter, error) {
	snap, err := persistence.ReadSnapshot(r)
	if err != nil {
		return nil, err
	}
	return fromSnapshot(snap, opts)
}

// SaveToStore writes a snapshot envelope to the named blob.
func (f *Filter) SaveToStore(ctx context.Context, store blobstore.BlobStore, name string, comp persistence.Compression) error {
	err := persistence.SaveToStore(ctx, store, name, f.snapshot(), comp)
	f.logger.LogSnapshot(name, err)
	return err
}

// OpenFromStore loads a filter from a snapshot blob previously written
// with SaveToStore.
func OpenFromStore(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Filter, error) {
	snap, err := persistence.LoadFromStore(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return fromSnapshot(snap, opts)
}

func (f *Filter) params() persistence.Params {
	return persistence.Params{M: f.m, K: f.k, W: f.w}
}

func (f *Filter) snapshot() *persistence.Snapshot {
	return &persistence.Snapshot{
		Params: f.params(),
		Body:   f.counters.Bytes(),
		Family: f.family.Name(),
		Seed:   f.seed,
		Scheme: uint8(f.scheme),
		VIBase: uint8(f.vibase),
		Count:  f.count,
	}
}

func fromSnapshot(snap *persistence.Snapshot, opts []Option) (*Filter, error) {
	cfg := defaultConfig()
	cfg.seed = snap.Seed
	cfg.scheme = IncrementScheme(snap.Scheme)
	if snap.VIBase != 0 {
		cfg.vibase = uint64(snap.VIBase)
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.family == nil {
		family, ok := hasher.ByName(snap.Family, cfg.seed)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, snap.Family)
		}
		cfg.family = family
	}

	f, err := newFilter(snap.Params.M, snap.Params.K, snap.Params.W, snap.Body, cfg)
	if err != nil {
		return nil, err
	}
	f.count = snap.Count
	return f, nil
}

// Clone returns a deep copy of the filter sharing no mutable state with
// the original. The saturation set is copied as well.
func (f *Filter) Clone() (*Filter, error) {
	buf, err := f.MarshalBinary()
	if err != nil {
		return nil, err
	}

	clone, err := Decode(buf,
		WithSeed(f.seed),
		WithHasher(f.family),
		WithIncrementScheme(f.scheme),
		WithVIBase(uint8(f.vibase)),
		WithOverflowPolicy(f.policy),
		WithLogger(f.logger),
		WithMetricsCollector(f.metrics),
	)
	if err != nil {
		return nil, err
	}
	clone.count = f.count
	clone.saturated = f.saturated.Clone()
	return clone, nil
}
