package link

// Dense connects every node of one component to every node of the
// other: end N's i-th node is linked to every node of end F, with edge
// info equal to the far node's flat index within its own end.
//
// Ported from original_source/include/denselink.hpp.
type Dense struct {
	dim0, dim1 []int64
}

// NewDense creates an unconfigured Dense link; call SetDimensions
// before using it.
func NewDense() *Dense {
	return &Dense{}
}

func (d *Dense) Identifier() string { return "Dense" }

func (d *Dense) CanConnectDimensions(dim0, dim1 []int64) bool { return true }

func (d *Dense) SetDimensions(dim0, dim1 []int64) {
	d.dim0 = append([]int64(nil), dim0...)
	d.dim1 = append([]int64(nil), dim1...)
}

func (d *Dense) MaxProgress(whichEnd int) int64 {
	return dimSize(d.dim0) * dimSize(d.dim1)
}

func (d *Dense) RequestPartialProgress(whichEnd int, requested int64) int64 {
	dimF := d.dim1
	if whichEnd != 0 {
		dimF = d.dim0
	}
	dimFTotal := dimSize(dimF)
	if requested == 0 {
		return dimFTotal
	}
	return ((requested-1)/dimFTotal)*dimFTotal + dimFTotal
}

func (d *Dense) Iterate(whichEnd int, k Kernel, start, end int64) {
	dimN, dimF := d.dim0, d.dim1
	if whichEnd != 0 {
		dimN, dimF = d.dim1, d.dim0
	}
	nSize := dimSize(dimN)
	fSize := dimSize(dimF)

	nearIx := start
	for i := start / fSize; i < end/fSize; i++ {
		farEdgeIx := i
		for j := int64(0); j < fSize; j++ {
			k(i, nearIx, j, farEdgeIx, j)
			nearIx++
			farEdgeIx += nSize
		}
	}
}
