package atlas

import (
	"math/rand"
	"testing"
)

// BenchmarkAllocateFree measures a steady-state glyph-cache workload: the atlas
// is half full and each iteration frees one region and allocates another.
func BenchmarkAllocateFree(b *testing.B) {
	m, err := New(2048, 2048, nil)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))
	size := func() (uint32, uint32) {
		return uint32(8 + rng.Intn(40)), uint32(8 + rng.Intn(40))
	}

	var held []Region
	for m.Occupancy() < 0.5 {
		w, h := size()
		r, allocErr := m.Allocate(w, h)
		if allocErr != nil {
			break
		}
		held = append(held, r)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := rng.Intn(len(held))
		m.Free(&held[j])
		w, h := size()
		r, allocErr := m.Allocate(w, h)
		if allocErr != nil {
			held[j] = held[len(held)-1]
			held = held[:len(held)-1]
			if len(held) == 0 {
				b.Fatal("atlas drained")
			}
			continue
		}
		held[j] = r
	}
}

// BenchmarkFillEmpty measures filling a fresh atlas with uniform tiles and
// then draining it.
func BenchmarkFillEmpty(b *testing.B) {
	b.ReportAllocs()
	held := make([]Region, 0, 4096)
	for i := 0; i < b.N; i++ {
		m, err := New(1024, 1024, nil)
		if err != nil {
			b.Fatal(err)
		}
		held = held[:0]
		for {
			r, allocErr := m.Allocate(16, 16)
			if allocErr != nil {
				break
			}
			held = append(held, r)
		}
		for j := range held {
			m.Free(&held[j])
		}
	}
}

func BenchmarkCheckConsistency(b *testing.B) {
	m, err := New(1024, 1024, nil)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		if _, allocErr := m.Allocate(uint32(4+i%29), uint32(4+i%17)); allocErr != nil {
			break
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.CheckConsistency(); err != nil {
			b.Fatal(err)
		}
	}
}
