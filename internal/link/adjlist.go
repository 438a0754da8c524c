package link

import (
	"fmt"
	"sort"
)

// neighborIndices is one adjacency-list entry: the shared edge index
// (the same on both ends) and the index of the node at the far end.
type neighborIndices struct {
	edgeIx  int64
	farNode int64
}

// EdgePair names an edge to insert or remove, by (end0 node index,
// end1 node index).
type EdgePair struct {
	End0 int64
	End1 int64
}

// AdjacencyList connects nodes via explicit, mutable adjacency lists
// rather than a fixed geometric pattern. Edges can be inserted and
// removed after construction; removal tombstones the edge's data
// slot without moving anything, and DefragmentEdges can later compact
// the tombstoned slots out. Do not mutate the edge set concurrently
// with an Iterate call — it is not safe for that.
//
// Ported from original_source/include/adjlistlink.hpp.
type AdjacencyList struct {
	dim0, dim1 []int64

	end0Adjacency [][]neighborIndices
	end1Adjacency [][]neighborIndices

	edgeIxBound int64

	dirty                    bool
	end0CumulativeEdgeCounts []int64
	end1CumulativeEdgeCounts []int64

	destructedStatus []bool
}

// NewAdjacencyList creates an AdjacencyList with no edges yet; call
// SetDimensions before inserting edges.
func NewAdjacencyList() *AdjacencyList {
	return &AdjacencyList{}
}

func (a *AdjacencyList) Identifier() string { return "AdjList" }

func (a *AdjacencyList) CanConnectDimensions(dim0, dim1 []int64) bool { return true }

func (a *AdjacencyList) SetDimensions(dim0, dim1 []int64) {
	a.dim0 = append([]int64(nil), dim0...)
	a.dim1 = append([]int64(nil), dim1...)
	a.end0Adjacency = make([][]neighborIndices, dimSize(a.dim0))
	a.end1Adjacency = make([][]neighborIndices, dimSize(a.dim1))
}

func (a *AdjacencyList) resetCumulativeEdgeCounts() {
	if !a.dirty {
		return
	}
	build := func(adjacency [][]neighborIndices) []int64 {
		counts := make([]int64, len(adjacency))
		var count int64
		for i, neighbors := range adjacency {
			count += int64(len(neighbors))
			counts[i] = count
		}
		return counts
	}
	a.end0CumulativeEdgeCounts = build(a.end0Adjacency)
	a.end1CumulativeEdgeCounts = build(a.end1Adjacency)
	a.dirty = false
}

// ErrEdgeIndexOutOfRange is returned by InsertEdges/RemoveEdges when
// an EdgePair names a node index outside either end's dimensions. No
// state is mutated when this error is returned: every edge in the
// call is validated before any of them are applied.
type ErrEdgeIndexOutOfRange struct {
	End0Size, End1Size int64
	Edge               EdgePair
}

func (e *ErrEdgeIndexOutOfRange) Error() string {
	return fmt.Sprintf("adjacency list: edge %+v out of range for end0 size %d, end1 size %d", e.Edge, e.End0Size, e.End1Size)
}

func (a *AdjacencyList) validateEdges(edges []EdgePair) error {
	for _, e := range edges {
		if e.End0 < 0 || e.End0 >= int64(len(a.end0Adjacency)) || e.End1 < 0 || e.End1 >= int64(len(a.end1Adjacency)) {
			return &ErrEdgeIndexOutOfRange{
				End0Size: int64(len(a.end0Adjacency)),
				End1Size: int64(len(a.end1Adjacency)),
				Edge:     e,
			}
		}
	}
	return nil
}

// InsertEdges appends the given (end0, end1) edges. Edge data storage
// owned by the caller (if any) must be grown to EdgeIxBound() after
// this call, mirroring the way the link protocol itself only tracks
// indices, not edge payloads. Every edge is validated against the
// current dimensions before any of them are inserted, so a single bad
// index in a multi-edge call leaves the adjacency lists untouched.
func (a *AdjacencyList) InsertEdges(edges []EdgePair) error {
	if err := a.validateEdges(edges); err != nil {
		return err
	}
	for _, e := range edges {
		a.end0Adjacency[e.End0] = append(a.end0Adjacency[e.End0], neighborIndices{edgeIx: a.edgeIxBound, farNode: e.End1})
		a.end1Adjacency[e.End1] = append(a.end1Adjacency[e.End1], neighborIndices{edgeIx: a.edgeIxBound, farNode: e.End0})
		a.edgeIxBound++
	}
	for int64(len(a.destructedStatus)) < a.edgeIxBound {
		a.destructedStatus = append(a.destructedStatus, false)
	}
	a.dirty = true
	return nil
}

// RemoveEdges tombstones the given (end0, end1) edges. The edge's
// data slot is marked destructed but not moved; remaining edges keep
// their indices. Every edge is validated against the current
// dimensions before any of them are removed.
func (a *AdjacencyList) RemoveEdges(edges []EdgePair) error {
	if err := a.validateEdges(edges); err != nil {
		return err
	}
	for _, e := range edges {
		v0 := a.end0Adjacency[e.End0]
		for i, ixs := range v0 {
			if ixs.farNode == e.End1 {
				a.destructedStatus[ixs.edgeIx] = true
				a.end0Adjacency[e.End0] = append(v0[:i:i], v0[i+1:]...)
				break
			}
		}
		v1 := a.end1Adjacency[e.End1]
		for i, ixs := range v1 {
			if ixs.farNode == e.End0 {
				a.end1Adjacency[e.End1] = append(v1[:i:i], v1[i+1:]...)
				break
			}
		}
	}
	a.dirty = true
	return nil
}

// EdgeDataMover moves edge-payload data from index i to index newIx,
// for a caller-owned edge data array, during DefragmentEdges.
type EdgeDataMover func(i, newIx int64)

// DefragmentEdges compacts out tombstoned edges, renumbering the
// remaining edges to a dense [0, EdgeIxBound) range. end0Mover and
// end1Mover are called once per surviving edge in ascending original
// index order with the edge's (old index, new index), so the caller
// can relocate any edge-payload arrays it keeps in lockstep; pass nil
// if there is no such payload.
func (a *AdjacencyList) DefragmentEdges(end0Mover, end1Mover EdgeDataMover) {
	partialSums := make([]int64, a.edgeIxBound)
	var edgeCount int64
	for i := int64(0); i < a.edgeIxBound; i++ {
		if !a.destructedStatus[i] {
			edgeCount++
		}
		partialSums[i] = edgeCount
	}

	renumber := func(adjacency [][]neighborIndices) {
		for _, neighbors := range adjacency {
			for i := range neighbors {
				neighbors[i].edgeIx = partialSums[neighbors[i].edgeIx] - 1
			}
		}
	}
	renumber(a.end0Adjacency)
	renumber(a.end1Adjacency)

	move := func(mover EdgeDataMover) {
		if mover == nil {
			return
		}
		var j int64
		for i := int64(0); i < a.edgeIxBound; i++ {
			if partialSums[i] > j {
				j = partialSums[i]
				mover(i, partialSums[i]-1)
			}
		}
	}
	move(end0Mover)
	move(end1Mover)

	a.edgeIxBound = edgeCount
	a.destructedStatus = make([]bool, edgeCount)
	a.dirty = true
}

// EdgeIxBound is the current size of the dense edge-index space: any
// caller-owned edge payload array must be at least this long.
func (a *AdjacencyList) EdgeIxBound() int64 {
	return a.edgeIxBound
}

func (a *AdjacencyList) MaxProgress(whichEnd int) int64 {
	a.resetCumulativeEdgeCounts()
	if len(a.end0CumulativeEdgeCounts) == 0 {
		return 0
	}
	return a.end0CumulativeEdgeCounts[len(a.end0CumulativeEdgeCounts)-1]
}

func (a *AdjacencyList) RequestPartialProgress(whichEnd int, requested int64) int64 {
	a.resetCumulativeEdgeCounts()
	arr := a.end0CumulativeEdgeCounts
	if whichEnd != 0 {
		arr = a.end1CumulativeEdgeCounts
	}
	if len(arr) == 0 {
		return 0
	}
	idx := lowerBoundGeneric(arr, requested)
	if idx == len(arr) {
		return arr[len(arr)-1]
	}
	return arr[idx]
}

func lowerBoundGeneric(arr []int64, target int64) int {
	return sort.Search(len(arr), func(i int) bool { return arr[i] >= target })
}

func (a *AdjacencyList) Iterate(whichEnd int, k Kernel, start, end int64) {
	adj := a.end0Adjacency
	arr := a.end0CumulativeEdgeCounts
	if whichEnd != 0 {
		adj = a.end1Adjacency
		arr = a.end1CumulativeEdgeCounts
	}
	progress := start
	ix := int64(lowerBoundGeneric(arr, start+1))
	for int(ix) < len(adj) {
		progress += int64(len(adj[ix]))
		if progress > end {
			break
		}
		var f int64
		for _, ixs := range adj[ix] {
			k(ix, ixs.edgeIx, ixs.farNode, ixs.edgeIx, f)
			f++
		}
		ix++
	}
}
