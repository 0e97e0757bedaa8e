package vicbf

import (
	"math"
)

// EstimateParameters returns the classic Bloom sizing for n expected keys
// at the target false positive rate: m = -n*ln(p)/ln(2)^2 counters and
// k = m/n*ln(2) hash slots.
//
// The estimate is conservative for a variable-increment filter, whose true
// false positive rate at these parameters is strictly lower than the
// classical bound (an accidental match must clear each slot's own
// increment, not just a nonzero counter). Counter width is a separate
// choice; w=4 or w=8 are typical.
func EstimateParameters(n uint64, p float64) (m uint32, k uint16) {
	if n == 0 {
		n = 1
	}
	if p <= 0 {
		p = 1e-9
	}
	if p >= 1 {
		p = 0.5
	}

	ln2 := math.Ln2
	mf := math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2))
	if mf < 1 {
		mf = 1
	}
	if mf > math.MaxUint32 {
		mf = math.MaxUint32
	}
	m = uint32(mf)

	kf := math.Round(mf / float64(n) * ln2)
	if kf < 1 {
		kf = 1
	}
	if kf > float64(m) {
		kf = float64(m)
	}
	if kf > math.MaxUint16 {
		kf = math.MaxUint16
	}
	k = uint16(kf)
	return m, k
}

// EstimateFPRate returns the classical Bloom false positive estimate
// (1 - e^(-k*n/m))^k for n keys in a filter with m counters and k slots.
// For a variable-increment filter it is an upper bound.
func EstimateFPRate(m uint32, k uint16, n uint64) float64 {
	if m == 0 || k == 0 {
		return 1
	}
	exp := -float64(k) * float64(n) / float64(m)
	return math.Pow(1-math.Exp(exp), float64(k))
}
