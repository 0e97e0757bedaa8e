package vicbf

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the root of all constructor-time validation errors.
// Every invalid-parameter error satisfies errors.Is(err, ErrConfiguration);
// no partial filter is ever produced.
var ErrConfiguration = errors.New("vicbf: invalid configuration")

var (
	// ErrInvalidSlots is returned when m is zero.
	ErrInvalidSlots = fmt.Errorf("%w: slot count m must be positive", ErrConfiguration)
	// ErrInvalidHashCount is returned when k is zero.
	ErrInvalidHashCount = fmt.Errorf("%w: hash count k must be positive", ErrConfiguration)
	// ErrHashCountExceedsSlots is returned when k > m. With more hash
	// slots than counters the independence assumptions behind the false
	// positive analysis collapse.
	ErrHashCountExceedsSlots = fmt.Errorf("%w: hash count k must not exceed slot count m", ErrConfiguration)
	// ErrInvalidWidth is returned when w is zero or above 32 bits.
	ErrInvalidWidth = fmt.Errorf("%w: counter width w must be in [1, 32]", ErrConfiguration)
	// ErrInvalidVIBase is returned when the table-scheme base is not one
	// of 2, 4, 8, 16.
	ErrInvalidVIBase = fmt.Errorf("%w: vibase must be one of 2, 4, 8, 16", ErrConfiguration)
	// ErrVIBaseTooWide is returned when the table increment range
	// [L, 2L-1] does not fit into a w-bit counter.
	ErrVIBaseTooWide = fmt.Errorf("%w: increment range exceeds counter capacity", ErrConfiguration)
)

// ErrUnknownFamily is returned when a snapshot names a hash family that is
// not registered and no explicit hasher was supplied.
var ErrUnknownFamily = errors.New("vicbf: unknown hash family")
