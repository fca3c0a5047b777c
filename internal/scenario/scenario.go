// Package scenario loads scripted allocate/free sequences from TOML or YAML
// files and replays them against an atlas, checking expectations step by step.
//
// A scenario names every allocation so later steps can free it:
//
//	[atlas]
//	width = 128
//	height = 128
//
//	[[steps]]
//	op = "alloc"
//	name = "glyph-a"
//	width = 32
//	height = 32
//	at = { x = 0, y = 0 }
//
//	[[steps]]
//	op = "free"
//	name = "glyph-a"
//
//	[[steps]]
//	op = "check"
//	free_regions = 1
//	empty = true
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpAlloc = "alloc"
	OpFree  = "free"
	OpCheck = "check"
)

// Formats accepted by Parse.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

var (
	// ErrUnknownFormat is returned for files that are neither TOML nor YAML.
	ErrUnknownFormat = errors.New("scenario: unknown file format")

	// ErrInvalid is wrapped by every structural problem found by Validate.
	ErrInvalid = errors.New("scenario: invalid")
)

// Scenario is a scripted sequence of atlas operations.
type Scenario struct {
	Name  string `toml:"name" yaml:"name"`
	Atlas Size   `toml:"atlas" yaml:"atlas"`
	Steps []Step `toml:"steps" yaml:"steps"`

	// CheckTree runs the consistency validator after every mutation.
	CheckTree bool `toml:"validate" yaml:"validate"`
}

// Size is a width x height pair.
type Size struct {
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`
}

// Point is an expected region origin.
type Point struct {
	X uint32 `toml:"x" yaml:"x"`
	Y uint32 `toml:"y" yaml:"y"`
}

// Step is one operation. Which fields apply depends on Op:
//
//	alloc  Name, Width, Height, optional ExpectFail and At
//	free   Name
//	check  any of FreeRegions, FreeArea, Empty
type Step struct {
	Op     string `toml:"op" yaml:"op"`
	Name   string `toml:"name" yaml:"name"`
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`

	ExpectFail bool   `toml:"expect_fail" yaml:"expect_fail"`
	At         *Point `toml:"at" yaml:"at"`

	FreeRegions *int    `toml:"free_regions" yaml:"free_regions"`
	FreeArea    *uint64 `toml:"free_area" yaml:"free_area"`
	Empty       *bool   `toml:"empty" yaml:"empty"`
}

// Load reads a scenario file; the format follows the extension
// (.toml, .yaml or .yml).
func Load(path string) (*Scenario, error) {
	format, err := formatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes a scenario in the given format and validates it.
func Parse(data []byte, format string) (*Scenario, error) {
	var sc Scenario
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&sc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalid, undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&sc); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario is well formed: a non-zero atlas, known ops,
// positive allocation sizes, and names that are allocated before being freed
// and never held twice.
func (sc *Scenario) Validate() error {
	if sc.Atlas.Width == 0 || sc.Atlas.Height == 0 {
		return fmt.Errorf("%w: atlas size %dx%d", ErrInvalid, sc.Atlas.Width, sc.Atlas.Height)
	}

	live := make(map[string]bool)
	for i, st := range sc.Steps {
		switch st.Op {
		case OpAlloc:
			if st.Name == "" {
				return fmt.Errorf("%w: step %d: alloc needs a name", ErrInvalid, i)
			}
			if st.Width == 0 || st.Height == 0 {
				return fmt.Errorf("%w: step %d: alloc %q has zero size", ErrInvalid, i, st.Name)
			}
			if live[st.Name] {
				return fmt.Errorf("%w: step %d: %q is already allocated", ErrInvalid, i, st.Name)
			}
			if !st.ExpectFail {
				live[st.Name] = true
			}
		case OpFree:
			if !live[st.Name] {
				return fmt.Errorf("%w: step %d: free of %q which is not allocated", ErrInvalid, i, st.Name)
			}
			delete(live, st.Name)
		case OpCheck:
		default:
			return fmt.Errorf("%w: step %d: unknown op %q", ErrInvalid, i, st.Op)
		}
	}
	return nil
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}
