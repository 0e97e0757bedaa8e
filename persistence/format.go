// Package persistence implements the binary encodings of a
// variable-increment counting Bloom filter.
//
// Two layers are provided. The canonical encoding is the
// cross-implementation interop contract: an 8-byte header followed by the
// bit-packed counter body, nothing else. The snapshot envelope wraps the
// canonical encoding with a magic number, the hash family and seed,
// optional block compression and a CRC32 checksum; it is self-describing
// but specific to this implementation.
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/vicbf/counter"
)

// CanonicalVersion is the value of the header version byte.
const CanonicalVersion = 1

// canonicalHeaderSize is m:u32 + k:u16 + w:u8 + version:u8.
const canonicalHeaderSize = 8

// ErrFormat is the root of all malformed-encoding errors in this package.
// Every decode failure satisfies errors.Is(err, ErrFormat).
var ErrFormat = errors.New("persistence: malformed filter encoding")

var (
	ErrShortBuffer   = fmt.Errorf("%w: buffer too short", ErrFormat)
	ErrBadVersion    = fmt.Errorf("%w: unsupported canonical version", ErrFormat)
	ErrBadHeader     = fmt.Errorf("%w: inconsistent header parameters", ErrFormat)
	ErrBadBodyLength = fmt.Errorf("%w: body length inconsistent with header", ErrFormat)
)

// Params are the filter parameters carried by the canonical header.
type Params struct {
	M uint32 // number of counters
	K uint16 // hash functions per key
	W uint8  // bits per counter
}

func (p Params) validate() error {
	if p.M == 0 || p.W == 0 || p.W > 32 {
		return fmt.Errorf("%w: m=%d w=%d", ErrBadHeader, p.M, p.W)
	}
	if p.K == 0 || uint32(p.K) > p.M {
		return fmt.Errorf("%w: k=%d m=%d", ErrBadHeader, p.K, p.M)
	}
	return nil
}

// BodySize returns the canonical body length in bytes.
func (p Params) BodySize() uint64 {
	return counter.BufferSize(p.M, p.W)
}

// EncodeCanonical produces the canonical byte encoding.
//
// Layout, multi-byte fields big-endian:
//
//	m       uint32
//	k       uint16
//	w       uint8
//	version uint8
//	body    ceil(m*w/8) bytes, packed per counter.Vector's bit layout
func EncodeCanonical(p Params, body []byte) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if uint64(len(body)) != p.BodySize() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadBodyLength, len(body), p.BodySize())
	}

	buf := make([]byte, canonicalHeaderSize+len(body))
	binary.BigEndian.PutUint32(buf[0:4], p.M)
	binary.BigEndian.PutUint16(buf[4:6], p.K)
	buf[6] = p.W
	buf[7] = CanonicalVersion
	copy(buf[canonicalHeaderSize:], body)
	return buf, nil
}

// DecodeCanonical parses a canonical encoding, rejecting any input whose
// header is inconsistent or whose body length does not match the header.
// The returned body aliases buf.
func DecodeCanonical(buf []byte) (Params, []byte, error) {
	if len(buf) < canonicalHeaderSize {
		return Params{}, nil, fmt.Errorf("%w: got %d bytes", ErrShortBuffer, len(buf))
	}
	if buf[7] != CanonicalVersion {
		return Params{}, nil, fmt.Errorf("%w: got %d", ErrBadVersion, buf[7])
	}

	p := Params{
		M: binary.BigEndian.Uint32(buf[0:4]),
		K: binary.BigEndian.Uint16(buf[4:6]),
		W: buf[6],
	}
	if err := p.validate(); err != nil {
		return Params{}, nil, err
	}

	body := buf[canonicalHeaderSize:]
	if uint64(len(body)) != p.BodySize() {
		return Params{}, nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadBodyLength, len(body), p.BodySize())
	}
	return p, body, nil
}
