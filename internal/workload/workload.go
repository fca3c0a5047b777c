// Package workload generates seeded random allocate/free traffic against an
// atlas and reports how the allocator coped. It backs `atlasctl bench` and the
// long-running property tests.
package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/atlaskit/atlas"
	"github.com/joshuapare/atlaskit/atlas/verify"
)

// ctxCheckInterval is how many steps run between context checks.
const ctxCheckInterval = 1024

// Config describes one workload run.
type Config struct {
	Width  uint32
	Height uint32

	Steps int
	Seed  int64

	// Request sizes are drawn uniformly from [MinSize, MaxSize] per dimension.
	MinSize uint32
	MaxSize uint32

	// AllocPercent is the chance (0-100) that a step allocates rather than frees.
	AllocPercent int

	// Validate runs verify.Manager after every step. Slow.
	Validate bool

	Logger *slog.Logger
}

// DefaultConfig returns a glyph-cache-like workload on a 1024x1024 atlas.
func DefaultConfig() Config {
	return Config{
		Width:        1024,
		Height:       1024,
		Steps:        100_000,
		Seed:         1,
		MinSize:      4,
		MaxSize:      48,
		AllocPercent: 55,
	}
}

func (c Config) validate() error {
	switch {
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("workload: atlas size %dx%d: %w", c.Width, c.Height, atlas.ErrInvalidSize)
	case c.MinSize == 0 || c.MinSize > c.MaxSize:
		return fmt.Errorf("workload: invalid size range [%d, %d]", c.MinSize, c.MaxSize)
	case c.AllocPercent < 0 || c.AllocPercent > 100:
		return fmt.Errorf("workload: alloc percent %d out of range", c.AllocPercent)
	case c.Steps < 0:
		return fmt.Errorf("workload: negative step count %d", c.Steps)
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	Seed          int64   `json:"seed"`
	Steps         int     `json:"steps"`
	Allocs        int     `json:"allocs"`
	Failures      int     `json:"failures"`
	Frees         int     `json:"frees"`
	PeakLive      int     `json:"peak_live"`
	PeakOccupancy float64 `json:"peak_occupancy"`

	// Measured just before the final drain.
	FinalLive          int     `json:"final_live"`
	FinalOccupancy     float64 `json:"final_occupancy"`
	FinalFragmentation float64 `json:"final_fragmentation"`
	FinalFreeRegions   int     `json:"final_free_regions"`

	Stats    atlas.Stats   `json:"stats"`
	Duration time.Duration `json:"duration_ns"`
}

// FailureRate returns failed allocations over attempted allocations.
func (r Report) FailureRate() float64 {
	attempts := r.Allocs + r.Failures
	if attempts == 0 {
		return 0
	}
	return float64(r.Failures) / float64(attempts)
}

// Run executes cfg.Steps random steps, then frees everything that is still
// held and checks the atlas collapsed back to a single free region.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}

	m, err := atlas.New(cfg.Width, cfg.Height, &atlas.Options{Logger: cfg.Logger})
	if err != nil {
		return Report{}, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	span := int(cfg.MaxSize-cfg.MinSize) + 1
	held := make([]atlas.Region, 0, 1024)
	rep := Report{Seed: cfg.Seed, Steps: cfg.Steps}
	start := time.Now()

	for step := 0; step < cfg.Steps; step++ {
		if step%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
		}

		if len(held) == 0 || rng.Intn(100) < cfg.AllocPercent {
			w := cfg.MinSize + uint32(rng.Intn(span))
			h := cfg.MinSize + uint32(rng.Intn(span))
			r, allocErr := m.Allocate(w, h)
			switch {
			case errors.Is(allocErr, atlas.ErrNoSpace):
				rep.Failures++
			case allocErr != nil:
				return rep, allocErr
			default:
				rep.Allocs++
				held = append(held, r)
			}
		} else {
			i := rng.Intn(len(held))
			m.Free(&held[i])
			held[i] = held[len(held)-1]
			held = held[:len(held)-1]
			rep.Frees++
		}

		if len(held) > rep.PeakLive {
			rep.PeakLive = len(held)
		}
		if occ := m.Occupancy(); occ > rep.PeakOccupancy {
			rep.PeakOccupancy = occ
		}
		if cfg.Validate {
			if err := verify.Manager(m); err != nil {
				return rep, fmt.Errorf("workload: step %d: %w", step, err)
			}
		}
	}

	rep.FinalLive = len(held)
	rep.FinalOccupancy = m.Occupancy()
	rep.FinalFragmentation = m.Fragmentation()
	rep.FinalFreeRegions = m.FreeRegionCount()

	for i := range held {
		m.Free(&held[i])
	}
	rep.Stats = m.Stats()
	rep.Duration = time.Since(start)

	if err := m.Close(); err != nil {
		return rep, fmt.Errorf("workload: drain: %w", err)
	}
	return rep, nil
}

// RunParallel runs n independent workloads concurrently, seeding run i with
// cfg.Seed+i. The first error cancels the rest.
func RunParallel(ctx context.Context, cfg Config, n int) ([]Report, error) {
	if n <= 0 {
		return nil, fmt.Errorf("workload: parallelism must be positive, got %d", n)
	}
	reports := make([]Report, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := range n {
		c := cfg
		c.Seed = cfg.Seed + int64(i)
		g.Go(func() error {
			rep, err := Run(ctx, c)
			reports[i] = rep
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
