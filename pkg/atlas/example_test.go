package atlas_test

import (
	"errors"
	"fmt"

	"github.com/joshuapare/atlaskit/pkg/atlas"
)

// Example shows a single allocate/free round trip.
func Example() {
	a, err := atlas.New(128, 128, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	r, err := a.Allocate(32, 32)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(r, a.TotalFreeArea())

	a.Free(&r)
	fmt.Println(r, a.FreeRegionCount())
	// Output:
	// Region(0,0 32x32) 15360
	// Region(invalid) 1
}

// ExampleAtlas_AllocateBatch shows that a batch that does not fit leaves the
// atlas untouched.
func ExampleAtlas_AllocateBatch() {
	a, _ := atlas.New(64, 64, nil)

	_, err := a.AllocateBatch([]atlas.Size{
		{Width: 48, Height: 48},
		{Width: 48, Height: 48},
	})
	fmt.Println(errors.Is(err, atlas.ErrNoSpace), a.IsEmpty())
	// Output: true true
}
