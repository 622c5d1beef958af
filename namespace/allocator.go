// Package namespace allocates disjoint id ranges for merge inputs and shifts node graphs into them.
package namespace

import (
	"fmt"

	"github.com/viant/i3smerge/i3s"
)

// DefaultOffset is the fixed offset applied to the second input
const DefaultOffset = 10000

// Offsets holds the offset applied to each input
type Offsets struct {
	A int
	B int
}

// Allocator decides input offsets
type Allocator struct {
	offset  int
	dynamic bool
}

// NewAllocator creates an allocator; with dynamic set the second offset is max id of the first input plus one
func NewAllocator(offset int, dynamic bool) *Allocator {
	if offset <= 0 {
		offset = DefaultOffset
	}
	return &Allocator{offset: offset, dynamic: dynamic}
}

// Allocate returns offsets given the largest native id used by the first input
func (a *Allocator) Allocate(maxA int) Offsets {
	if a.dynamic {
		return Offsets{A: 0, B: maxA + 1}
	}
	return Offsets{A: 0, B: a.offset}
}

// Check fails with ErrNamespaceOverflow when an input's native max id meets or exceeds the bound;
// in fixed mode the bound applies to both inputs
func (a *Allocator) Check(offsets Offsets, input string, maxID int, isFirst bool) error {
	if a.dynamic && !isFirst {
		return nil
	}
	if maxID >= offsets.B {
		return i3s.Errorf(i3s.ErrNamespaceOverflow, input, "max native id %d reaches offset bound %d", maxID, offsets.B)
	}
	return nil
}

// String returns allocator description
func (a *Allocator) String() string {
	if a.dynamic {
		return "dynamic"
	}
	return fmt.Sprintf("fixed(%d)", a.offset)
}
