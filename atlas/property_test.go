package atlas_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/atlaskit/atlas"
	"github.com/joshuapare/atlaskit/atlas/verify"
)

// Test_Property_RandomAllocFree performs random allocate/free steps and
// validates every invariant after each one: area conservation, no overlap,
// index parity.
func Test_Property_RandomAllocFree(t *testing.T) {
	for _, seed := range []int64{1, 42, 1234} {
		m, err := atlas.New(256, 192, &atlas.Options{Validate: true})
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(seed)) // Fixed seed for reproducibility
		var held []atlas.Region
		failures := 0

		for i := range 1500 {
			if len(held) == 0 || rng.Intn(100) < 60 {
				w, h := uint32(1+rng.Intn(48)), uint32(1+rng.Intn(48))
				r, allocErr := m.Allocate(w, h)
				if allocErr != nil {
					require.True(t, errors.Is(allocErr, atlas.ErrNoSpace), "Step %d: %v", i, allocErr)
					failures++
				} else {
					held = append(held, r)
				}
			} else {
				j := rng.Intn(len(held))
				m.Free(&held[j])
				held[j] = held[len(held)-1]
				held = held[:len(held)-1]
			}

			require.NoError(t, verify.Manager(m), "Step %d: invariant check failed", i)
			require.Equal(t, len(held), m.AllocatedCount(), "Step %d", i)
		}

		t.Logf("seed %d: %d live allocations, %d failures, %d free regions",
			seed, len(held), failures, m.FreeRegionCount())

		// Idempotent full cycle: free everything in random order.
		rng.Shuffle(len(held), func(i, j int) { held[i], held[j] = held[j], held[i] })
		for i := range held {
			m.Free(&held[i])
		}
		require.True(t, m.IsEmpty())
		require.Equal(t, 1, m.FreeRegionCount())
		if diff := cmp.Diff([]atlas.Region{m.Bounds()}, m.FreeRegions()); diff != "" {
			t.Fatalf("free regions after full cycle (-want +got):\n%s", diff)
		}
		require.NoError(t, m.Close())
	}
}

// Test_Property_FillThenDrain allocates until exhaustion, then drains in
// allocation order and in reverse.
func Test_Property_FillThenDrain(t *testing.T) {
	for _, reverse := range []bool{false, true} {
		m, err := atlas.New(128, 128, nil)
		require.NoError(t, err)

		var held []atlas.Region
		for {
			r, allocErr := m.Allocate(12, 20)
			if allocErr != nil {
				require.ErrorIs(t, allocErr, atlas.ErrNoSpace)
				break
			}
			held = append(held, r)
		}
		require.NotEmpty(t, held)
		require.NoError(t, verify.Manager(m))
		require.Less(t, m.TotalFreeArea(), uint64(128*128))

		for i := range held {
			idx := i
			if reverse {
				idx = len(held) - 1 - i
			}
			m.Free(&held[idx])
		}
		require.True(t, m.IsEmpty())
		require.Equal(t, 1, m.FreeRegionCount())
		require.Equal(t, uint64(128*128), m.TotalFreeArea())
	}
}

// FuzzAllocFree drives the allocator from fuzz bytes: each pair of bytes is
// either an allocation size or a free of a held region.
func FuzzAllocFree(f *testing.F) {
	f.Add([]byte{32, 32, 64, 64, 0, 1, 128, 128})
	f.Add([]byte{1, 1, 2, 2, 3, 3, 0, 0, 0, 0})
	f.Add([]byte{255, 255, 0, 5, 7, 9})

	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := atlas.New(128, 128, &atlas.Options{Validate: true})
		require.NoError(t, err)

		var held []atlas.Region
		for i := 0; i+1 < len(data); i += 2 {
			a, b := data[i], data[i+1]
			if a == 0 {
				if len(held) > 0 {
					j := int(b) % len(held)
					m.Free(&held[j])
					held = append(held[:j], held[j+1:]...)
				}
				continue
			}
			r, allocErr := m.Allocate(uint32(a), uint32(b)+1)
			if allocErr == nil {
				held = append(held, r)
			}
		}
		require.NoError(t, verify.Manager(m))

		for i := range held {
			m.Free(&held[i])
		}
		require.True(t, m.IsEmpty())
		require.Equal(t, 1, m.FreeRegionCount())
	})
}
