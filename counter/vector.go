package counter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSlots is returned when the requested slot count is zero.
	ErrInvalidSlots = errors.New("counter: slot count must be positive")
	// ErrInvalidWidth is returned when the counter width is outside [1, 32].
	ErrInvalidWidth = errors.New("counter: width must be in [1, 32]")
	// ErrBufferSize is returned when a raw buffer does not match ceil(m*w/8).
	ErrBufferSize = errors.New("counter: buffer size inconsistent with slots and width")
)

// Vector is a fixed-size array of m counters, each w bits wide, packed into
// a contiguous bit buffer of exactly ceil(m*w/8) bytes.
//
// Bit layout (a compatibility contract, not an implementation detail):
// counter 0 occupies bits [0, w), counter 1 occupies bits [w, 2w), and so
// on, concatenated left to right. Within each counter the most significant
// bit comes first. Global bit p lives in byte p/8 at bit 7-(p%8), so byte 0
// starts with the MSB of counter 0. Trailing pad bits in the final byte are
// always zero.
//
// All arithmetic is modular over M = 2^w. Add and Sub report whether the
// operation wrapped; wraparound is a normal event surfaced for
// observability, never an error.
//
// A Vector is not safe for concurrent mutation.
type Vector struct {
	buf []byte
	m   uint32
	w   uint8
	mod uint64 // 2^w
}

// New allocates a zero-filled Vector with m counters of w bits each.
func New(m uint32, w uint8) (*Vector, error) {
	if m == 0 {
		return nil, ErrInvalidSlots
	}
	if w == 0 || w > 32 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, w)
	}
	return &Vector{
		buf: make([]byte, BufferSize(m, w)),
		m:   m,
		w:   w,
		mod: 1 << w,
	}, nil
}

// FromBytes reconstructs a Vector over a copy of buf. The buffer length
// must be exactly BufferSize(m, w).
func FromBytes(buf []byte, m uint32, w uint8) (*Vector, error) {
	v, err := New(m, w)
	if err != nil {
		return nil, err
	}
	if uint64(len(buf)) != BufferSize(m, w) {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(buf), BufferSize(m, w))
	}
	copy(v.buf, buf)
	return v, nil
}

// BufferSize returns the packed buffer size in bytes for m counters of w bits.
func BufferSize(m uint32, w uint8) uint64 {
	return (uint64(m)*uint64(w) + 7) / 8
}

// Len returns the number of counters.
func (v *Vector) Len() uint32 { return v.m }

// Width returns the counter width in bits.
func (v *Vector) Width() uint8 { return v.w }

// Modulus returns 2^w.
func (v *Vector) Modulus() uint64 { return v.mod }

// Get returns the value of counter i, in [0, 2^w).
//
// Get panics if i >= Len(). An out-of-range index here means the index
// derivation upstream violated its contract; it is a programming error,
// not a recoverable condition.
func (v *Vector) Get(i uint32) uint64 {
	v.check(i)
	base := uint64(i) * uint64(v.w)
	var val uint64
	for n := uint8(0); n < v.w; n++ {
		p := base + uint64(n)
		if v.buf[p>>3]&(1<<(7-(p&7))) != 0 {
			val |= 1 << (v.w - 1 - n)
		}
	}
	return val
}

func (v *Vector) set(i uint32, val uint64) {
	base := uint64(i) * uint64(v.w)
	for n := uint8(0); n < v.w; n++ {
		p := base + uint64(n)
		mask := byte(1) << (7 - (p & 7))
		if val&(1<<(v.w-1-n)) != 0 {
			v.buf[p>>3] |= mask
		} else {
			v.buf[p>>3] &^= mask
		}
	}
}

// Add stores (Get(i) + delta) mod 2^w and returns the new value together
// with a flag reporting whether the true sum exceeded 2^w - 1.
func (v *Vector) Add(i uint32, delta uint64) (val uint64, wrapped bool) {
	cur := v.Get(i)
	d := delta % v.mod
	val = (cur + d) % v.mod
	wrapped = cur+d >= v.mod
	v.set(i, val)
	return val, wrapped
}

// Sub stores (Get(i) - delta) mod 2^w and returns the new value together
// with a flag reporting whether the true difference was negative.
func (v *Vector) Sub(i uint32, delta uint64) (val uint64, wrapped bool) {
	cur := v.Get(i)
	d := delta % v.mod
	wrapped = d > cur
	val = (cur + v.mod - d) % v.mod
	v.set(i, val)
	return val, wrapped
}

// AddClamped adds delta but saturates at 2^w - 1 instead of wrapping.
// The flag reports whether the counter saturated.
func (v *Vector) AddClamped(i uint32, delta uint64) (val uint64, saturated bool) {
	cur := v.Get(i)
	max := v.mod - 1
	if delta >= max-cur {
		v.set(i, max)
		return max, true
	}
	val = cur + delta
	v.set(i, val)
	return val, false
}

// SubClamped subtracts delta under the saturating policy: a counter pinned
// at 2^w - 1 is frozen (its true magnitude is unknown, decrementing it
// could manufacture false negatives later), and a subtraction that would
// go negative leaves the counter untouched. The flag reports that the
// subtraction was skipped or would have underflowed.
func (v *Vector) SubClamped(i uint32, delta uint64) (val uint64, skipped bool) {
	cur := v.Get(i)
	if cur == v.mod-1 {
		return cur, true
	}
	if delta > cur {
		return cur, true
	}
	val = cur - delta
	v.set(i, val)
	return val, false
}

// Zero reports whether every counter is zero.
func (v *Vector) Zero() bool {
	for _, b := range v.buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// Reset zeroes all counters in place.
func (v *Vector) Reset() {
	clear(v.buf)
}

// Bytes returns a copy of the packed bit buffer.
func (v *Vector) Bytes() []byte {
	out := make([]byte, len(v.buf))
	copy(out, v.buf)
	return out
}

func (v *Vector) check(i uint32) {
	if i >= v.m {
		panic(fmt.Sprintf("counter: index %d out of range [0, %d)", i, v.m))
	}
}
