package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/atlaskit/internal/logger"
	"github.com/joshuapare/atlaskit/internal/scenario"
	"github.com/joshuapare/atlaskit/pkg/atlas"
)

var (
	runValidate bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runValidate, "validate", false, "Check tree consistency after every step")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Replay a scenario file",
		Long: `The run command replays a TOML or YAML scenario against a fresh atlas
and reports the region produced by every step. It fails on the first step
whose expectation is not met.

Example:
  atlasctl run glyphs.toml
  atlasctl run glyphs.yaml --validate -v
  atlasctl run glyphs.toml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args)
		},
	}
	return cmd
}

type runOutput struct {
	*scenario.Result
	Error    string         `json:"error,omitempty"`
	Snapshot atlas.Snapshot `json:"snapshot"`
}

func runScenario(args []string) error {
	path := args[0]
	printVerbose("Loading scenario: %s\n", path)

	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	res, runErr := scenario.Run(sc, scenario.RunOptions{Validate: runValidate, Logger: logger.L})
	if res == nil {
		return runErr
	}
	logger.Info("scenario replayed", "name", res.Name, "steps", len(res.Steps), "error", runErr)

	if jsonOut {
		out := runOutput{Result: res, Snapshot: atlas.SnapshotOf(res.Manager)}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := printJSON(out); err != nil {
			return err
		}
		return runErr
	}

	printInfo("Scenario %s (%dx%d)\n", res.Name, res.Manager.Width(), res.Manager.Height())
	for _, st := range res.Steps {
		printStep(st)
	}

	snap := atlas.SnapshotOf(res.Manager)
	printInfo("\n")
	printInfo("Steps:         %d/%d\n", len(res.Steps), len(sc.Steps))
	printInfo("Live:          %d\n", len(snap.Allocated))
	printInfo("Free regions:  %d\n", len(snap.Free))
	printInfo("Free area:     %d\n", snap.TotalFreeArea)
	printInfo("Occupancy:     %.1f%%\n", snap.Occupancy*100)
	printInfo("Largest free:  %s\n", snap.Largest)

	if runErr != nil {
		return fmt.Errorf("scenario %s failed: %w", res.Name, runErr)
	}
	return nil
}

func printStep(st scenario.StepResult) {
	switch {
	case st.Op == scenario.OpCheck:
		printVerbose("%4d  %-5s %-16s checked\n", st.Index, st.Op, "")
	case st.Failed:
		printInfo("%4d  %-5s %-16s no space\n", st.Index, st.Op, st.Name)
	default:
		printInfo("%4d  %-5s %-16s %s\n", st.Index, st.Op, st.Name, st.Region)
	}
}
