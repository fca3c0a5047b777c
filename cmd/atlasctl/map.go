package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joshuapare/atlaskit/atlas"
	"github.com/joshuapare/atlaskit/internal/logger"
	"github.com/joshuapare/atlaskit/internal/scenario"
)

var (
	mapColumns int
)

const (
	freeCell  = '.'
	allocCell = '#'
)

// allocPalette cycles across allocations so neighbours are distinguishable.
var allocPalette = []lipgloss.Color{
	lipgloss.Color("#7D56F4"),
	lipgloss.Color("#04B575"),
	lipgloss.Color("#FFA500"),
	lipgloss.Color("#FF4B4B"),
	lipgloss.Color("#3C9DD0"),
	lipgloss.Color("#E0C341"),
}

func init() {
	cmd := newMapCmd()
	cmd.Flags().IntVar(&mapColumns, "cols", 64, "Maximum map width and height in characters")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <scenario>",
		Short: "Render the atlas layout after replaying a scenario",
		Long: `The map command replays a scenario and draws the final layout as a
character grid: '#' cells are allocated, '.' cells are free. Each character
covers a square block of the atlas; a block takes the state of its centre.
The longer side of the atlas is scaled to at most --cols characters.

Example:
  atlasctl map glyphs.toml
  atlasctl map glyphs.toml --cols 32 --no-color`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
	return cmd
}

func runMap(args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	res, runErr := scenario.Run(sc, scenario.RunOptions{Logger: logger.L})
	if res == nil {
		return runErr
	}
	if runErr != nil {
		printVerbose("Scenario stopped early: %v\n", runErr)
	}

	m := res.Manager
	grid := renderGrid(m.Width(), m.Height(), m.AllocatedRegions(), mapColumns)
	if jsonOut {
		return printJSON(struct {
			Name      string         `json:"name"`
			Rows      []string       `json:"rows"`
			Allocated []atlas.Region `json:"allocated"`
			Free      []atlas.Region `json:"free"`
		}{res.Name, grid.rows(), m.AllocatedRegions(), m.FreeRegions()})
	}

	renderer := lipgloss.NewRenderer(os.Stdout)
	box := renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	title := renderer.NewStyle().Bold(!noColor)

	printInfo("%s\n", title.Render(fmt.Sprintf("%s  %dx%d  (1 cell = %dx%d)",
		res.Name, m.Width(), m.Height(), grid.scale, grid.scale)))
	printInfo("%s\n", box.Render(grid.styled(renderer)))
	printInfo("%c allocated (%d)  %c free (%d regions, %.1f%% occupied)\n",
		allocCell, m.AllocatedCount(), freeCell, m.FreeRegionCount(), m.Occupancy()*100)
	return nil
}

// cellGrid is a downsampled view of the atlas. owner holds the index of the
// allocated region covering each cell, or -1.
type cellGrid struct {
	cols, lines int
	scale       uint32
	owner       [][]int
}

// renderGrid scales the longer atlas side to at most maxCols cells, so
// neither dimension of the grid exceeds maxCols.
func renderGrid(width, height uint32, allocated []atlas.Region, maxCols int) cellGrid {
	if maxCols < 1 {
		maxCols = 1
	}
	side := uint64(max(width, height))
	scale := max((side+uint64(maxCols)-1)/uint64(maxCols), 1)
	g := cellGrid{
		cols:  int((uint64(width) + scale - 1) / scale),
		lines: int((uint64(height) + scale - 1) / scale),
		scale: uint32(scale),
	}

	g.owner = make([][]int, g.lines)
	for y := range g.owner {
		row := make([]int, g.cols)
		for x := range row {
			row[x] = -1
		}
		g.owner[y] = row
	}

	for i, r := range allocated {
		for y := range g.owner {
			cy := cellCentre(y, scale, height)
			if cy < uint64(r.Y) || cy >= r.Bottom() {
				continue
			}
			for x := range g.owner[y] {
				cx := cellCentre(x, scale, width)
				if cx >= uint64(r.X) && cx < r.Right() {
					g.owner[y][x] = i
				}
			}
		}
	}
	return g
}

// cellCentre is the midpoint of cell i along an axis of the given extent;
// the last cell may be clipped by the atlas edge.
func cellCentre(i int, scale uint64, extent uint32) uint64 {
	start := uint64(i) * scale
	end := min(start+scale, uint64(extent))
	return (start + end) / 2
}

func (g cellGrid) rows() []string {
	out := make([]string, g.lines)
	var sb strings.Builder
	for y, row := range g.owner {
		sb.Reset()
		for _, owner := range row {
			if owner < 0 {
				sb.WriteRune(freeCell)
			} else {
				sb.WriteRune(allocCell)
			}
		}
		out[y] = sb.String()
	}
	return out
}

func (g cellGrid) styled(renderer *lipgloss.Renderer) string {
	if noColor {
		return strings.Join(g.rows(), "\n")
	}

	free := renderer.NewStyle().Faint(true)
	styles := make([]lipgloss.Style, len(allocPalette))
	for i, c := range allocPalette {
		styles[i] = renderer.NewStyle().Foreground(c)
	}

	lines := make([]string, g.lines)
	var sb strings.Builder
	for y, row := range g.owner {
		sb.Reset()
		for _, owner := range row {
			if owner < 0 {
				sb.WriteString(free.Render(string(freeCell)))
			} else {
				sb.WriteString(styles[owner%len(styles)].Render(string(allocCell)))
			}
		}
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}
