package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/atlaskit/internal/workload"
)

// setSmallBench configures a fast workload that still exercises failures.
func setSmallBench() {
	benchWidth = 128
	benchHeight = 128
	benchSteps = 5000
	benchSeed = 3
	benchMinSize = 4
	benchMaxSize = 24
	benchAllocPercent = 60
	benchParallel = 1
	benchValidate = false
}

func TestBenchCommand_Text(t *testing.T) {
	resetFlags()
	setSmallBench()
	verbose = true
	t.Cleanup(resetFlags)

	output, err := captureOutput(t, func() error { return runBench(context.Background()) })
	require.NoError(t, err)
	assertContains(t, output, []string{
		"Seed 3",
		"Steps:          5,000",
		"Allocations:",
		"Peak occupancy:",
		"Splits:",
		"Merges:",
	})
	assertNotContains(t, output, []string{"Total:"})
}

func TestBenchCommand_ParallelJSON(t *testing.T) {
	resetFlags()
	setSmallBench()
	benchParallel = 3
	jsonOut = true
	t.Cleanup(resetFlags)

	output, err := captureOutput(t, func() error { return runBench(context.Background()) })
	require.NoError(t, err)
	assertJSON(t, output)

	var reports []workload.Report
	require.NoError(t, json.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 3)
	for i, rep := range reports {
		require.Equal(t, int64(3+i), rep.Seed)
		require.Equal(t, 5000, rep.Steps)
		require.Equal(t, rep.Allocs, rep.Stats.FreeCalls)
	}
}

func TestBenchCommand_ParallelTotal(t *testing.T) {
	resetFlags()
	setSmallBench()
	benchSteps = 1000
	benchParallel = 2
	t.Cleanup(resetFlags)

	output, err := captureOutput(t, func() error { return runBench(context.Background()) })
	require.NoError(t, err)
	assertContains(t, output, []string{"Seed 3", "Seed 4", "Total: 2,000 steps"})
}

func TestBenchCommand_InvalidConfig(t *testing.T) {
	resetFlags()
	setSmallBench()
	benchMinSize = 30
	benchMaxSize = 10
	t.Cleanup(resetFlags)

	_, err := captureOutput(t, func() error { return runBench(context.Background()) })
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid size range")
}

func TestBenchCommand_Cancelled(t *testing.T) {
	resetFlags()
	setSmallBench()
	t.Cleanup(resetFlags)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := captureOutput(t, func() error { return runBench(ctx) })
	require.ErrorIs(t, err, context.Canceled)
}
