package scenario

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/atlaskit/atlas"
)

// StepError reports the step at which a replay stopped.
type StepError struct {
	Index int
	Op    string
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("step %d (%s %s): %v", e.Index, e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ErrExpectation is wrapped by StepError when a step's expectation is not met.
var ErrExpectation = errors.New("expectation not met")

// StepResult records the outcome of one replayed step.
type StepResult struct {
	Index       int          `json:"index"`
	Op          string       `json:"op"`
	Name        string       `json:"name,omitempty"`
	Region      atlas.Region `json:"region"`
	Failed      bool         `json:"failed,omitempty"`
	FreeArea    uint64       `json:"free_area"`
	FreeRegions int          `json:"free_regions"`
}

// Result is a completed replay. Manager is left open with whatever the
// scenario did not free, so callers can inspect or render it.
type Result struct {
	Name    string                  `json:"name"`
	Steps   []StepResult            `json:"steps"`
	Live    map[string]atlas.Region `json:"live"`
	Manager *atlas.Manager          `json:"-"`
}

// RunOptions tunes a replay.
type RunOptions struct {
	// Validate forces a full consistency check after every mutation,
	// in addition to the scenario's own validate flag.
	Validate bool
	Logger   *slog.Logger
}

// Run replays sc against a fresh atlas. It stops at the first step whose
// expectation fails and returns the partial result with a *StepError.
func Run(sc *Scenario, opts RunOptions) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	m, err := atlas.New(sc.Atlas.Width, sc.Atlas.Height, &atlas.Options{
		Logger:   opts.Logger,
		Validate: sc.CheckTree || opts.Validate,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Name:    sc.Name,
		Steps:   make([]StepResult, 0, len(sc.Steps)),
		Live:    make(map[string]atlas.Region),
		Manager: m,
	}
	for i, st := range sc.Steps {
		sr, stepErr := res.apply(i, st)
		res.Steps = append(res.Steps, sr)
		if stepErr != nil {
			return res, &StepError{Index: i, Op: st.Op, Name: st.Name, Err: stepErr}
		}
	}
	return res, nil
}

func (res *Result) apply(i int, st Step) (StepResult, error) {
	m := res.Manager
	sr := StepResult{Index: i, Op: st.Op, Name: st.Name, Region: atlas.InvalidRegion}

	var err error
	switch st.Op {
	case OpAlloc:
		err = res.alloc(st, &sr)
	case OpFree:
		r, ok := res.Live[st.Name]
		if !ok {
			err = fmt.Errorf("%q is not allocated", st.Name)
			break
		}
		sr.Region = r
		m.Free(&r)
		delete(res.Live, st.Name)
	case OpCheck:
		err = check(m, st)
	default:
		err = fmt.Errorf("unknown op %q", st.Op)
	}

	sr.FreeArea = m.TotalFreeArea()
	sr.FreeRegions = m.FreeRegionCount()
	return sr, err
}

func (res *Result) alloc(st Step, sr *StepResult) error {
	if _, held := res.Live[st.Name]; held {
		return fmt.Errorf("%q is already allocated", st.Name)
	}

	r, err := res.Manager.Allocate(st.Width, st.Height)
	switch {
	case errors.Is(err, atlas.ErrNoSpace):
		sr.Failed = true
		if !st.ExpectFail {
			return err
		}
		return nil
	case err != nil:
		return err
	}

	sr.Region = r
	res.Live[st.Name] = r
	if st.ExpectFail {
		return fmt.Errorf("%w: allocation succeeded at %s", ErrExpectation, r)
	}
	if st.At != nil && (r.X != st.At.X || r.Y != st.At.Y) {
		return fmt.Errorf("%w: placed at (%d,%d), want (%d,%d)", ErrExpectation, r.X, r.Y, st.At.X, st.At.Y)
	}
	return nil
}

func check(m *atlas.Manager, st Step) error {
	if err := m.CheckConsistency(); err != nil {
		return err
	}
	if st.FreeRegions != nil && m.FreeRegionCount() != *st.FreeRegions {
		return fmt.Errorf("%w: %d free regions, want %d", ErrExpectation, m.FreeRegionCount(), *st.FreeRegions)
	}
	if st.FreeArea != nil && m.TotalFreeArea() != *st.FreeArea {
		return fmt.Errorf("%w: free area %d, want %d", ErrExpectation, m.TotalFreeArea(), *st.FreeArea)
	}
	if st.Empty != nil && m.IsEmpty() != *st.Empty {
		return fmt.Errorf("%w: empty is %t, want %t", ErrExpectation, m.IsEmpty(), *st.Empty)
	}
	return nil
}
