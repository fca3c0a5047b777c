package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/atlaskit/internal/logger"
	"github.com/joshuapare/atlaskit/internal/workload"
)

var (
	benchWidth        uint32
	benchHeight       uint32
	benchSteps        int
	benchSeed         int64
	benchMinSize      uint32
	benchMaxSize      uint32
	benchAllocPercent int
	benchParallel     int
	benchValidate     bool
)

func init() {
	cmd := newBenchCmd()
	def := workload.DefaultConfig()
	cmd.Flags().Uint32Var(&benchWidth, "width", def.Width, "Atlas width")
	cmd.Flags().Uint32Var(&benchHeight, "height", def.Height, "Atlas height")
	cmd.Flags().IntVar(&benchSteps, "steps", def.Steps, "Random steps per run")
	cmd.Flags().Int64Var(&benchSeed, "seed", def.Seed, "Random seed (run i uses seed+i)")
	cmd.Flags().Uint32Var(&benchMinSize, "min", def.MinSize, "Minimum request side")
	cmd.Flags().Uint32Var(&benchMaxSize, "max", def.MaxSize, "Maximum request side")
	cmd.Flags().
		IntVar(&benchAllocPercent, "alloc-percent", def.AllocPercent, "Chance (0-100) a step allocates")
	cmd.Flags().IntVarP(&benchParallel, "parallel", "p", 1, "Independent runs to execute concurrently")
	cmd.Flags().BoolVar(&benchValidate, "validate", false, "Verify every invariant after each step (slow)")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a randomized allocate/free workload",
		Long: `The bench command drives the allocator with seeded random traffic and
reports throughput, failure rate, occupancy and fragmentation. Each run ends
by freeing everything and confirming the atlas merged back to one region.

Example:
  atlasctl bench
  atlasctl bench --width 2048 --height 2048 --steps 1000000
  atlasctl bench --parallel 4 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context())
		},
	}
	return cmd
}

func benchConfig() workload.Config {
	return workload.Config{
		Width:        benchWidth,
		Height:       benchHeight,
		Steps:        benchSteps,
		Seed:         benchSeed,
		MinSize:      benchMinSize,
		MaxSize:      benchMaxSize,
		AllocPercent: benchAllocPercent,
		Validate:     benchValidate,
		Logger:       logger.L,
	}
}

func runBench(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg := benchConfig()
	printVerbose("Running %d workload(s) of %d steps on %dx%d\n",
		benchParallel, cfg.Steps, cfg.Width, cfg.Height)

	start := time.Now()
	reports, err := workload.RunParallel(ctx, cfg, benchParallel)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("bench finished", "runs", len(reports), "elapsed", elapsed)

	if jsonOut {
		return printJSON(reports)
	}

	p := message.NewPrinter(language.English)
	for _, rep := range reports {
		printReport(p, rep)
	}
	if len(reports) > 1 {
		total := 0
		for _, rep := range reports {
			total += rep.Steps
		}
		printInfo("%s", p.Sprintf("Total: %d steps in %v (%.0f steps/s)\n",
			total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds()))
	}
	return nil
}

func printReport(p *message.Printer, rep workload.Report) {
	var rate float64
	if rep.Duration > 0 {
		rate = float64(rep.Steps) / rep.Duration.Seconds()
	}
	printInfo("%s", p.Sprintf("Seed %d\n", rep.Seed))
	printInfo("%s", p.Sprintf("  Steps:          %d (%.0f/s)\n", rep.Steps, rate))
	printInfo("%s", p.Sprintf("  Allocations:    %d\n", rep.Allocs))
	printInfo("%s", p.Sprintf("  Failures:       %d (%.2f%%)\n", rep.Failures, rep.FailureRate()*100))
	printInfo("%s", p.Sprintf("  Frees:          %d\n", rep.Frees))
	printInfo("%s", p.Sprintf("  Peak live:      %d\n", rep.PeakLive))
	printInfo("%s", p.Sprintf("  Peak occupancy: %.1f%%\n", rep.PeakOccupancy*100))
	printInfo("%s", p.Sprintf("  Final:          %d live, %d free regions, %.1f%% fragmented\n",
		rep.FinalLive, rep.FinalFreeRegions, rep.FinalFragmentation*100))
	printVerbose("%s", p.Sprintf("  Splits:         %d two-way, %d three-way, %d exact\n",
		rep.Stats.Splits2, rep.Stats.Splits3, rep.Stats.ExactFits))
	printVerbose("%s", p.Sprintf("  Merges:         %d\n", rep.Stats.Merges))
}
