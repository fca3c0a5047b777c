// Package atlas provides a dynamic rectangle allocator for fixed-size 2D
// surfaces such as texture atlases.
//
// # Overview
//
// A Manager hands out sub-rectangles (Regions) of a width x height surface on
// demand and takes them back later. It never touches pixel data: callers use
// the returned coordinates to address their own texture.
//
//	m, err := atlas.New(1024, 1024, nil)
//	if err != nil {
//	    return err
//	}
//
//	r, err := m.Allocate(32, 48)
//	if errors.Is(err, atlas.ErrNoSpace) {
//	    // evict something, or fail the caller
//	}
//
//	// ... upload glyph into r ...
//
//	m.Free(&r) // r is now atlas.InvalidRegion
//
// # Algorithm
//
// The surface is a guillotine tree. Each leaf is free or allocated; each
// internal node is cut edge-to-edge into 2 or 3 children:
//
//	exact fit        no split, the free leaf becomes the allocation
//	one side larger  request + one strip
//	both larger      request + two strips, longer dimension cut first
//
// Free leaves sit in two ordered indices (width-major and height-major). An
// allocation takes the first fitting leaf from each and keeps the smaller.
// Freeing a leaf walks up the parent links and merges every sibling group
// that has become entirely free, so an empty atlas always collapses back to a
// single free region.
//
// # Errors
//
// ErrNoSpace from Allocate is the only recoverable failure; the atlas is left
// unchanged. Contract violations (double free, freeing a region Allocate never
// returned, zero-sized requests) panic with a *ProtocolError, because the tree
// and its indices cannot be trusted past that point.
//
// # Validation
//
// CheckConsistency verifies every structural invariant. Setting
// Options.Validate, or the ATLAS_VALIDATE environment variable, runs it after
// every mutation. ATLAS_LOG_ALLOC sends debug records to stderr.
//
// # Thread Safety
//
// Manager instances are not thread-safe. Callers must synchronize access
// externally or use the pkg/atlas wrapper.
//
// # Related Packages
//
//   - github.com/joshuapare/atlaskit/atlas/verify: partition checks over region lists
//   - github.com/joshuapare/atlaskit/pkg/atlas: locked wrapper and batch allocation
package atlas
