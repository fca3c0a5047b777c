// Package atlas is the public entry point for atlaskit.
//
// It wraps the core allocator in github.com/joshuapare/atlaskit/atlas with a
// mutex so one atlas can be shared by several goroutines (a glyph cache
// filled from worker goroutines, for example), and adds batch allocation
// with all-or-nothing semantics.
//
//	a, err := atlas.New(2048, 2048, nil)
//	if err != nil {
//	    return err
//	}
//
//	regions, err := a.AllocateBatch([]atlas.Size{{Width: 64, Height: 64}, {Width: 16, Height: 80}})
//	if errors.Is(err, atlas.ErrNoSpace) {
//	    // nothing was allocated
//	}
//
//	a.FreeBatch(regions)
//
// Use the core package directly when the caller already serializes access;
// it avoids the lock.
package atlas
