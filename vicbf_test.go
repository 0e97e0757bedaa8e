package vicbf

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vicbf/blobstore"
	"github.com/hupe1980/vicbf/hasher"
	"github.com/hupe1980/vicbf/persistence"
)

func testKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%04d", i))
	}
	return keys
}

func TestNewValidation(t *testing.T) {
	t.Run("ZeroSlots", func(t *testing.T) {
		_, err := New(0, 2, 4)
		assert.ErrorIs(t, err, ErrInvalidSlots)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("ZeroHashCount", func(t *testing.T) {
		_, err := New(16, 0, 4)
		assert.ErrorIs(t, err, ErrInvalidHashCount)
	})

	t.Run("KExceedsM", func(t *testing.T) {
		_, err := New(4, 5, 4)
		assert.ErrorIs(t, err, ErrHashCountExceedsSlots)
	})

	t.Run("ZeroWidth", func(t *testing.T) {
		_, err := New(16, 2, 0)
		assert.ErrorIs(t, err, ErrInvalidWidth)
	})

	t.Run("WidthTooLarge", func(t *testing.T) {
		_, err := New(16, 2, 33)
		assert.ErrorIs(t, err, ErrInvalidWidth)
	})

	t.Run("BadVIBase", func(t *testing.T) {
		_, err := New(16, 2, 8, WithIncrementScheme(IncrementTable), WithVIBase(5))
		assert.ErrorIs(t, err, ErrInvalidVIBase)
	})

	t.Run("VIBaseExceedsWidth", func(t *testing.T) {
		// L=16 needs increments up to 31, which don't fit in 4 bits.
		_, err := New(16, 2, 4, WithIncrementScheme(IncrementTable), WithVIBase(16))
		assert.ErrorIs(t, err, ErrVIBaseTooWide)
	})

	t.Run("VIBaseIgnoredForUniform", func(t *testing.T) {
		_, err := New(16, 2, 4, WithVIBase(5))
		assert.NoError(t, err)
	})
}

func TestNoFalseNegatives(t *testing.T) {
	for _, scheme := range []IncrementScheme{IncrementUniform, IncrementTable} {
		t.Run(fmt.Sprintf("Scheme%d", scheme), func(t *testing.T) {
			f, err := New(1<<14, 4, 8, WithSeed(7), WithIncrementScheme(scheme))
			require.NoError(t, err)

			keys := testKeys(500)
			for _, key := range keys {
				f.Insert(key)
			}

			// The no-false-negative guarantee holds for keys none of whose
			// counters wrapped. Under the uniform scheme two large
			// increments colliding on one counter can wrap it even at low
			// load, so skip the (few) keys touching a wrapped counter.
			sat := make(map[uint32]bool)
			for _, idx := range f.Saturated() {
				sat[idx] = true
			}

			checked := 0
			for _, key := range keys {
				touched := false
				for slot := uint16(0); slot < f.K(); slot++ {
					idx, _ := f.pair(key, slot)
					if sat[idx] {
						touched = true
					}
				}
				if touched {
					continue
				}
				checked++
				assert.True(t, f.Query(key), "key %s", key)
			}
			assert.Greater(t, checked, 400, "saturation should be rare at this load")
		})
	}
}

func TestInsertOrderIndependence(t *testing.T) {
	keys := testKeys(64)

	a, err := New(256, 3, 8, WithSeed(3))
	require.NoError(t, err)
	b, err := New(256, 3, 8, WithSeed(3))
	require.NoError(t, err)

	for _, key := range keys {
		a.Insert(key)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		b.Insert(keys[i])
	}

	assert.Equal(t, a.Bytes(), b.Bytes())
	for _, key := range keys {
		assert.Equal(t, a.Query(key), b.Query(key))
	}
}

func TestDeleteInvertsInsertForSingleton(t *testing.T) {
	for _, scheme := range []IncrementScheme{IncrementUniform, IncrementTable} {
		t.Run(fmt.Sprintf("Scheme%d", scheme), func(t *testing.T) {
			key := []byte("solo")

			// At this small size the key's own slots can collide and wrap a
			// counter, so pick a seed whose derivation stays clean.
			var f *Filter
			for seed := uint64(1); seed < 64; seed++ {
				cand, err := New(128, 3, 4, WithSeed(seed), WithIncrementScheme(scheme))
				require.NoError(t, err)
				cand.Insert(key)
				if len(cand.Saturated()) == 0 {
					f = cand
					break
				}
			}
			require.NotNil(t, f, "no wrap-free seed found")
			require.True(t, f.Query(key))

			f.Delete(key)
			assert.False(t, f.Query(key))

			// The array returns to all zeros.
			assert.Equal(t, make([]byte, len(f.Bytes())), f.Bytes())
			assert.Equal(t, uint64(0), f.Count())
		})
	}
}

func TestConcreteScenario(t *testing.T) {
	// m=16, k=2, w=4, so M=16. Pick a seed where alpha's two slots do not
	// collide and wrap the shared counter.
	alpha := []byte("alpha")
	var f *Filter
	for seed := uint64(1); seed < 64; seed++ {
		cand, err := New(16, 2, 4, WithSeed(seed))
		require.NoError(t, err)
		cand.Insert(alpha)
		if len(cand.Saturated()) == 0 {
			f = cand
			break
		}
	}
	require.NotNil(t, f, "no wrap-free seed found")
	assert.True(t, f.Query(alpha))

	// Find an unrelated key that lands on indices ruling it out. With 16
	// counters a particular candidate may collide, so search a few.
	var beta []byte
	for i := 0; i < 1000; i++ {
		candidate := []byte(fmt.Sprintf("beta-%d", i))
		if !f.Query(candidate) {
			beta = candidate
			break
		}
	}
	require.NotNil(t, beta, "no definitely-absent key found in 1000 candidates")
	assert.False(t, f.Query(beta))

	f.Delete(alpha)
	assert.False(t, f.Query(alpha))
	assert.Equal(t, make([]byte, 8), f.Bytes())
}

func TestDeleteHazardOnSharedCounter(t *testing.T) {
	// Table scheme keeps increments in [4, 7], so no counter can wrap at
	// this load and the arithmetic below is exact.
	f, err := New(32, 2, 8, WithSeed(5), WithIncrementScheme(IncrementTable))
	require.NoError(t, err)

	// Find two keys sharing at least one counter index.
	indexSet := func(key []byte) map[uint32]bool {
		set := make(map[uint32]bool)
		for slot := uint16(0); slot < f.K(); slot++ {
			idx, _ := f.pair(key, slot)
			set[idx] = true
		}
		return set
	}

	alpha := []byte("alpha")
	alphaIdx := indexSet(alpha)

	var beta []byte
	for i := 0; i < 10000; i++ {
		candidate := []byte(fmt.Sprintf("beta-%d", i))
		if bytes.Equal(candidate, alpha) {
			continue
		}
		for idx := range indexSet(candidate) {
			if alphaIdx[idx] {
				beta = candidate
			}
		}
		if beta != nil {
			break
		}
	}
	require.NotNil(t, beta, "no colliding key found")

	f.Insert(alpha)
	f.Insert(beta)
	require.True(t, f.Query(beta))

	// A matched insert/delete pair cancels exactly; beta is unaffected.
	f.Delete(alpha)
	assert.True(t, f.Query(beta))

	// Deleting alpha again subtracts increments it no longer holds,
	// corrupting the counters beta shares. Whether beta is now hidden
	// depends on the derived values, so mirror the membership rule.
	f.Delete(alpha)

	expected := true
	for slot := uint16(0); slot < f.K(); slot++ {
		idx, inc := f.pair(beta, slot)
		val := f.counters.Get(idx)
		if val < inc {
			expected = false
			break
		}
		if rem := val - inc; rem > 0 && rem < 4 {
			expected = false
			break
		}
	}
	assert.Equal(t, expected, f.Query(beta))
}

func TestWraparoundProducesFalseNegative(t *testing.T) {
	// m=1, k=1, w=2: M=4, the single counter holds the whole filter. The
	// key's increment c is in [1, 3]; t inserts leave t*c mod 4, which
	// must fall below c within at most 4 additional inserts.
	f, err := New(1, 1, 2, WithSeed(9))
	require.NoError(t, err)

	key := []byte("wrap")
	f.Insert(key)
	require.True(t, f.Query(key))

	sawFalseNegative := false
	for i := 0; i < 4; i++ {
		f.Insert(key)
		if !f.Query(key) {
			sawFalseNegative = true
			break
		}
	}
	assert.True(t, sawFalseNegative, "modular wraparound must eventually hide the key")
	assert.Equal(t, []uint32{0}, f.Saturated())
}

func TestClampPolicyFreezesSaturatedCounters(t *testing.T) {
	f, err := New(1, 1, 2, WithSeed(9), WithOverflowPolicy(OverflowClamp))
	require.NoError(t, err)

	key := []byte("wrap")
	for i := 0; i < 8; i++ {
		f.Insert(key)
	}
	// The counter is pinned at 3 and the key stays visible.
	require.True(t, f.Query(key))
	assert.Equal(t, []uint32{0}, f.Saturated())

	// Deletes do not decrement a frozen counter.
	f.Delete(key)
	assert.True(t, f.Query(key))
	assert.Equal(t, []byte{0b11000000}, f.Bytes())
}

func TestDeterministicDerivation(t *testing.T) {
	f, err := New(1024, 4, 8, WithSeed(21))
	require.NoError(t, err)
	g, err := New(1024, 4, 8, WithSeed(21))
	require.NoError(t, err)

	key := []byte("deterministic")
	for slot := uint16(0); slot < 4; slot++ {
		fi, finc := f.pair(key, slot)
		gi, ginc := g.pair(key, slot)
		assert.Equal(t, fi, gi)
		assert.Equal(t, finc, ginc)
		assert.NotZero(t, finc)
	}
}

func TestIncrementRanges(t *testing.T) {
	t.Run("Uniform", func(t *testing.T) {
		f, err := New(256, 2, 4, WithSeed(2))
		require.NoError(t, err)

		for _, key := range testKeys(200) {
			for slot := uint16(0); slot < 2; slot++ {
				_, inc := f.pair(key, slot)
				assert.GreaterOrEqual(t, inc, uint64(1))
				assert.LessOrEqual(t, inc, uint64(15))
			}
		}
	})

	t.Run("Table", func(t *testing.T) {
		f, err := New(256, 2, 4, WithSeed(2),
			WithIncrementScheme(IncrementTable), WithVIBase(4))
		require.NoError(t, err)

		for _, key := range testKeys(200) {
			for slot := uint16(0); slot < 2; slot++ {
				_, inc := f.pair(key, slot)
				assert.GreaterOrEqual(t, inc, uint64(4))
				assert.LessOrEqual(t, inc, uint64(7))
			}
		}
	})
}

func TestCanonicalRoundTrip(t *testing.T) {
	f, err := New(512, 3, 4, WithSeed(13))
	require.NoError(t, err)

	keys := testKeys(100)
	for _, key := range keys {
		f.Insert(key)
	}

	buf, err := f.MarshalBinary()
	require.NoError(t, err)

	g, err := Decode(buf, WithSeed(13))
	require.NoError(t, err)

	assert.Equal(t, f.Bytes(), g.Bytes())
	for _, key := range keys {
		assert.Equal(t, f.Query(key), g.Query(key))
	}
	for i := 0; i < 100; i++ {
		probe := []byte(fmt.Sprintf("probe-%d", i))
		assert.Equal(t, f.Query(probe), g.Query(probe))
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	f, err := New(64, 2, 4)
	require.NoError(t, err)

	buf, err := f.MarshalBinary()
	require.NoError(t, err)

	_, err = Decode(buf[:len(buf)-1])
	assert.ErrorIs(t, err, persistence.ErrFormat)
}

func TestSnapshotRestoresConfiguration(t *testing.T) {
	f, err := New(256, 3, 8, WithSeed(99),
		WithIncrementScheme(IncrementTable), WithVIBase(8))
	require.NoError(t, err)

	keys := testKeys(50)
	for _, key := range keys {
		f.Insert(key)
	}

	var buf bytes.Buffer
	require.NoError(t, f.WriteSnapshot(&buf, persistence.CompressionZSTD))

	g, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	assert.Equal(t, f.Bytes(), g.Bytes())
	assert.Equal(t, f.Seed(), g.Seed())
	assert.Equal(t, f.Scheme(), g.Scheme())
	assert.Equal(t, f.FamilyName(), g.FamilyName())
	assert.Equal(t, f.Count(), g.Count())
	for _, key := range keys {
		assert.True(t, g.Query(key))
	}
}

func TestSnapshotWithCustomFamily(t *testing.T) {
	f, err := New(128, 2, 8, WithHasher(hasher.NewSipHash(5)), WithSeed(5),
		WithIncrementScheme(IncrementTable))
	require.NoError(t, err)
	f.Insert([]byte("sip"))

	var buf bytes.Buffer
	require.NoError(t, f.WriteSnapshot(&buf, persistence.CompressionNone))

	g, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.True(t, g.Query([]byte("sip")))
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	f, err := New(512, 3, 8, WithSeed(31), WithIncrementScheme(IncrementTable))
	require.NoError(t, err)
	keys := testKeys(40)
	for _, key := range keys {
		f.Insert(key)
	}

	require.NoError(t, f.SaveToStore(ctx, store, "filters/main.vicbf", persistence.CompressionLZ4))

	g, err := OpenFromStore(ctx, store, "filters/main.vicbf")
	require.NoError(t, err)
	assert.Equal(t, f.Bytes(), g.Bytes())
	for _, key := range keys {
		assert.True(t, g.Query(key))
	}

	_, err = OpenFromStore(ctx, store, "filters/other.vicbf")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestClone(t *testing.T) {
	f, err := New(128, 2, 8, WithSeed(17), WithIncrementScheme(IncrementTable))
	require.NoError(t, err)
	f.Insert([]byte("orig"))

	g, err := f.Clone()
	require.NoError(t, err)

	g.Insert([]byte("only-in-clone"))
	assert.True(t, g.Query([]byte("orig")))
	assert.False(t, f.Query([]byte("only-in-clone")))
	assert.NotEqual(t, f.Bytes(), g.Bytes())
}

func TestCountAndReset(t *testing.T) {
	f, err := New(64, 2, 8, WithSeed(1))
	require.NoError(t, err)

	f.Insert([]byte("a"))
	f.Insert([]byte("b"))
	assert.Equal(t, uint64(2), f.Count())

	f.Delete([]byte("a"))
	assert.Equal(t, uint64(1), f.Count())

	f.Reset()
	assert.Equal(t, uint64(0), f.Count())
	assert.Empty(t, f.Saturated())
	assert.Equal(t, make([]byte, 64), f.Bytes())
	assert.False(t, f.Query([]byte("b")))
}

func TestMetricsCollection(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	f, err := New(64, 2, 8, WithSeed(1), WithMetricsCollector(metrics))
	require.NoError(t, err)

	f.Insert([]byte("a"))
	f.Query([]byte("a"))
	f.Query([]byte("definitely-not-here-xyz"))
	f.Delete([]byte("a"))

	assert.Equal(t, int64(1), metrics.InsertCount.Load())
	assert.Equal(t, int64(2), metrics.QueryCount.Load())
	assert.Equal(t, int64(1), metrics.DeleteCount.Load())
}

func TestUnderflowSignaledOnBogusDelete(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	f, err := New(64, 4, 8, WithSeed(1), WithMetricsCollector(metrics))
	require.NoError(t, err)

	// Deleting from an empty filter drives counters negative.
	f.Delete([]byte("never-inserted"))
	assert.Positive(t, metrics.UnderflowEvents.Load())
}

func TestFalsePositiveRateStaysLow(t *testing.T) {
	// Empirical spot check, not a proof: at these parameters the
	// classical bound is about 0.25%, and the variable-increment rate is
	// strictly lower. Allow a wide margin so the test is not flaky.
	f, err := New(4096, 3, 8, WithSeed(123))
	require.NoError(t, err)

	for _, key := range testKeys(200) {
		f.Insert(key)
	}

	falsePositives := 0
	const probes = 2000
	for i := 0; i < probes; i++ {
		if f.Query([]byte(fmt.Sprintf("absent-%05d", i))) {
			falsePositives++
		}
	}
	assert.Less(t, falsePositives, probes/50)

	bound := EstimateFPRate(4096, 3, 200)
	assert.Less(t, bound, 0.01)
}
