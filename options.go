package vicbf

import (
	"github.com/hupe1980/vicbf/hasher"
)

// IncrementScheme selects how per-slot increments are drawn.
type IncrementScheme uint8

const (
	// IncrementUniform draws increments uniformly from [1, 2^w - 1].
	// This is the default.
	IncrementUniform IncrementScheme = 0

	// IncrementTable draws increments from the D_L table [L, 2L-1] with
	// L = vibase, as in the Rottenstreich VI-CBF construction. The
	// narrower range costs some counter-value diversity but enables an
	// extra query-time rejection rule: a residual strictly between 0 and
	// L is impossible for a present key, since every contribution to a
	// counter is at least L.
	IncrementTable IncrementScheme = 1
)

// OverflowPolicy selects how counters behave at the modulus boundary.
type OverflowPolicy uint8

const (
	// OverflowWrap applies modular arithmetic: counters wrap at 2^w and
	// the wrap event is recorded. A wrapped counter is indistinguishable
	// from a smaller true value, which is the accepted source of false
	// negatives after heavy saturation.
	OverflowWrap OverflowPolicy = 0

	// OverflowClamp pins counters at 2^w - 1 once reached and freezes
	// them: a saturated counter is never decremented and always passes
	// queries. Deletions touching it silently lose information, trading
	// false negatives for a sticky false positive contribution.
	OverflowClamp OverflowPolicy = 1
)

// DefaultVIBase is the table-scheme base used when none is configured.
// The VI-CBF paper finds 4 and 8 to be good choices.
const DefaultVIBase = 4

type config struct {
	family  hasher.Family
	seed    uint64
	scheme  IncrementScheme
	vibase  uint64
	policy  OverflowPolicy
	logger  *Logger
	metrics MetricsCollector
}

func defaultConfig() config {
	return config{
		seed:    0,
		scheme:  IncrementUniform,
		vibase:  DefaultVIBase,
		policy:  OverflowWrap,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
}

// Option configures filter construction and snapshot loading.
type Option func(*config)

// WithSeed selects the member of the hash family. Two filters only produce
// bit-identical counter arrays when they share family, seed, parameters,
// scheme and policy.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithHasher substitutes a custom hash family. It overrides WithSeed for
// derivation purposes (the family carries its own key material); the seed
// is still recorded in snapshots for bookkeeping.
func WithHasher(f hasher.Family) Option {
	return func(c *config) {
		c.family = f
	}
}

// WithIncrementScheme selects the increment derivation scheme.
func WithIncrementScheme(s IncrementScheme) Option {
	return func(c *config) {
		c.scheme = s
	}
}

// WithVIBase sets the table-scheme base L. Only meaningful together with
// IncrementTable; must be one of 2, 4, 8, 16 and satisfy 2L <= 2^w.
func WithVIBase(base uint8) Option {
	return func(c *config) {
		c.vibase = uint64(base)
	}
}

// WithOverflowPolicy selects wraparound or saturating counter behavior.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithLogger configures structured logging. Pass nil to disable.
func WithLogger(l *Logger) Option {
	return func(c *config) {
		if l == nil {
			l = NoopLogger()
		}
		c.logger = l
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(c *config) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		c.metrics = mc
	}
}
