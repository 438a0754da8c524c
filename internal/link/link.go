// Package link implements the link iteration protocol: the interface
// the scheduler uses to split a link operation into chunks aligned on
// near-node boundaries, and the four concrete link connectivity
// patterns (Dense, Same, Local2D, AdjacencyList).
package link

import "fmt"

// Kernel is called once per edge touched by an Iterate call. nearIx
// and nearEdgeIx identify the node and edge-end on the side the
// operation is running on; farIx and farEdgeIx identify the opposite
// side; edgeInfo is a link-type-specific tag (e.g. filter position for
// Local2D, or the farNode's adjacency rank for AdjacencyList).
type Kernel func(nearIx, nearEdgeIx, farIx, farEdgeIx, edgeInfo int64)

// Link is the capability interface every connectivity pattern
// implements. whichEnd is 0 or 1, selecting which side of the link is
// "near" for the purposes of MaxProgress/RequestPartialProgress/
// Iterate.
type Link interface {
	// Identifier names the connectivity pattern, for display/logging.
	Identifier() string

	// CanConnectDimensions reports whether this link type can connect
	// two components of the given shapes.
	CanConnectDimensions(dim0, dim1 []int64) bool

	// SetDimensions configures the link for the given component
	// shapes. Must be called before MaxProgress/Iterate.
	SetDimensions(dim0, dim1 []int64)

	// MaxProgress is the total amount of progress (edge count) for the
	// given end of the link.
	MaxProgress(whichEnd int) int64

	// RequestPartialProgress rounds requested up to the next value
	// that lands on a near-node boundary for the given end.
	RequestPartialProgress(whichEnd int, requested int64) int64

	// Iterate calls k once per edge in the progress range [start, end)
	// of the given end.
	Iterate(whichEnd int, k Kernel, start, end int64)
}

func dimSize(dim []int64) int64 {
	total := int64(1)
	for _, d := range dim {
		total *= d
	}
	return total
}

// ErrBadDimensions describes a pair of component shapes a link type
// cannot connect. No function in this package returns it:
// CanConnectDimensions reports the same condition as a bool, and
// SetDimensions does not validate its arguments.
type ErrBadDimensions struct {
	LinkType string
	Dim0     []int64
	Dim1     []int64
}

func (e *ErrBadDimensions) Error() string {
	return fmt.Sprintf("bad dimensions: link type %s cannot connect %v to %v", e.LinkType, e.Dim0, e.Dim1)
}
