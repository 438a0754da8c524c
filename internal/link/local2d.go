package link

import "sort"

// Local2D is a locally-connected 2D link: the connectivity pattern of
// a (possibly strided, possibly atrous) convolution filter moved over
// end 0 of the link, with each filter position connecting to one cell
// of end 1. Each component may have 2 dimensions (rows, columns) or 3
// (rows, columns, depth); a missing depth is treated as 1.
//
// This link works row by row and keeps cumulative per-row edge counts
// for both ends so that a requested progress range can always be
// rounded to whole rows of the near end — the near-node boundary for
// this link type.
//
// Ported from original_source/include/generallocal2dlink.hpp (the
// "general" atrous/strided algorithm; the non-atrous, non-strided
// special case from local2dlink.hpp is available via NewConvolution).
type Local2D struct {
	startRow, startCol int64

	filterRows, filterCols int64
	strideRows, strideCols int64
	atrousRows, atrousCols int64

	end0rows, end0cols, end0depth int64
	end1rows, end1cols, end1depth int64

	dirty                                      bool
	cumulativeEnd0RowSizes, cumulativeEnd1RowSizes []int64
}

// NewLocal2D creates a Local2D link with the given filter geometry.
// startRow/startCol give the top-left corner of the filter's first
// placement over end 0 and may be negative.
func NewLocal2D(startRow, startCol, filterRows, filterCols, strideRows, strideCols, atrousRows, atrousCols int64) *Local2D {
	return &Local2D{
		startRow: startRow, startCol: startCol,
		filterRows: filterRows, filterCols: filterCols,
		strideRows: strideRows, strideCols: strideCols,
		atrousRows: atrousRows, atrousCols: atrousCols,
	}
}

// NewConvolution is a convenience constructor for the common
// "same"-padded, unit-stride, unit-atrous convolution: a filterSize x
// filterSize filter centered on each output cell.
func NewConvolution(filterSize int64) *Local2D {
	start := -(filterSize / 2)
	return NewLocal2D(start, start, filterSize, filterSize, 1, 1, 1, 1)
}

func (l *Local2D) Identifier() string { return "Local2D" }

func (l *Local2D) CanConnectDimensions(dim0, dim1 []int64) bool {
	return (len(dim0) == 2 || len(dim0) == 3) && (len(dim1) == 2 || len(dim1) == 3)
}

func (l *Local2D) SetDimensions(dim0, dim1 []int64) {
	l.end0rows, l.end0cols = dim0[0], dim0[1]
	l.end0depth = 1
	if len(dim0) == 3 {
		l.end0depth = dim0[2]
	}
	l.end1rows, l.end1cols = dim1[0], dim1[1]
	l.end1depth = 1
	if len(dim1) == 3 {
		l.end1depth = dim1[2]
	}
	l.dirty = true
	l.initialize()
}

// divRoundNegInf rounds a/b towards negative infinity. a may be
// negative; b must be positive.
func divRoundNegInf(a, b int64) int64 {
	if a >= 0 || a%b == 0 {
		return a / b
	}
	return a/b - 1
}

// divRoundPosInf rounds a/b towards positive infinity. a may be
// negative; b must be positive.
func divRoundPosInf(a, b int64) int64 {
	if a >= 0 {
		if a%b == 0 {
			return a / b
		}
		return a/b + 1
	}
	// Go's division truncates toward zero, which for a negative a is
	// already toward positive infinity.
	return a / b
}

func (l *Local2D) rowRowIteration(filterRow, end1row int64, k Kernel, end1 bool) {
	end0row := end1row*l.strideRows + filterRow*l.atrousRows + l.startRow
	if end0row < 0 || end0row >= l.end0rows {
		return
	}

	edgeInfoStart := filterRow * l.filterCols

	end0BaseRowIx := end0row * l.end0cols * l.end0depth
	end1BaseRowIx := end1row * l.end1cols * l.end1depth

	edgeIx := end1row*(l.end1cols*l.filterRows*l.filterCols*l.end0depth*l.end1depth) +
		filterRow*(l.end1cols*l.filterCols*l.end1depth*l.end0depth)
	curLeftSideFilter := l.startCol

	for end1col := int64(0); end1col < l.end1cols; end1col++ {
		edgeInfo := edgeInfoStart
		for end0col := curLeftSideFilter; end0col < curLeftSideFilter+l.filterCols*l.atrousCols; end0col += l.atrousCols {
			if end0col < 0 || end0col >= l.end0cols {
				edgeInfo++
				edgeIx += l.end0depth * l.end1depth
				continue
			}
			end0BaseDepthIx := end0BaseRowIx + end0col*l.end0depth
			end1BaseDepthIx := end1BaseRowIx + end1col*l.end1depth
			for i := int64(0); i < l.end1depth; i++ {
				for j := int64(0); j < l.end0depth; j++ {
					end0ix := end0BaseDepthIx + j
					end1ix := end1BaseDepthIx + i
					if end1 {
						k(end1ix, edgeIx, end0ix, edgeIx, edgeInfo)
					} else {
						k(end0ix, edgeIx, end1ix, edgeIx, edgeInfo)
					}
					edgeIx++
				}
			}
			edgeInfo++
		}
		curLeftSideFilter += l.strideCols
	}
}

func (l *Local2D) rowFindingIteration(end0rowStart, end0rowEnd int64, k Kernel) {
	end1rowStart := divRoundNegInf(end0rowStart-l.startRow-l.filterRows*l.atrousRows, l.strideRows)
	if end1rowStart < 0 {
		end1rowStart = 0
	}
	if end1rowStart > l.end1rows-1 {
		end1rowStart = l.end1rows - 1
	}

	end1rowEnd := divRoundPosInf(end0rowEnd-l.startRow, l.strideRows)
	if end1rowEnd < 0 {
		end1rowEnd = 0
	}
	if end1rowEnd > l.end1rows {
		end1rowEnd = l.end1rows
	}

	for end1row := end1rowStart; end1row < end1rowEnd; end1row++ {
		for filterRow := int64(0); filterRow < l.filterRows; filterRow++ {
			end0row := end1row*l.strideRows + filterRow*l.atrousRows + l.startRow
			if end0row >= end0rowStart && end0row < end0rowEnd {
				l.rowRowIteration(filterRow, end1row, k, false)
			}
		}
	}
}

func (l *Local2D) initialize() {
	if !l.dirty {
		return
	}
	if l.end1rows == 0 || l.filterRows == 0 {
		return
	}
	l.cumulativeEnd0RowSizes = make([]int64, l.end0rows)
	l.cumulativeEnd1RowSizes = make([]int64, l.end1rows)

	var rowrowsize int64
	for end1row := int64(0); end1row < l.end1rows; end1row++ {
		for filterRow := int64(0); filterRow < l.filterRows; filterRow++ {
			end0row := end1row*l.strideRows + l.startRow + filterRow*l.atrousRows
			if end0row < 0 || end0row >= l.end0rows {
				continue
			}
			if rowrowsize == 0 {
				l.rowRowIteration(filterRow, end1row, func(int64, int64, int64, int64, int64) {
					rowrowsize++
				}, true)
			}
			l.cumulativeEnd0RowSizes[end0row] += rowrowsize
			l.cumulativeEnd1RowSizes[end1row] += rowrowsize
		}
	}

	var cumulative int64
	for end1row := int64(0); end1row < l.end1rows; end1row++ {
		tmp := l.cumulativeEnd1RowSizes[end1row]
		l.cumulativeEnd1RowSizes[end1row] += cumulative
		cumulative += tmp
	}
	cumulative = 0
	for end0row := int64(0); end0row < l.end0rows; end0row++ {
		tmp := l.cumulativeEnd0RowSizes[end0row]
		l.cumulativeEnd0RowSizes[end0row] += cumulative
		cumulative += tmp
	}
	l.dirty = false
}

func (l *Local2D) MaxProgress(whichEnd int) int64 {
	if len(l.cumulativeEnd0RowSizes) == 0 {
		return 0
	}
	return l.cumulativeEnd0RowSizes[len(l.cumulativeEnd0RowSizes)-1]
}

// lowerBound mirrors std::lower_bound: the index of the first element
// >= target, or len(arr) if none.
func lowerBound(arr []int64, target int64) int {
	return sort.Search(len(arr), func(i int) bool { return arr[i] >= target })
}

func (l *Local2D) RequestPartialProgress(whichEnd int, requested int64) int64 {
	arr := l.cumulativeEnd0RowSizes
	if whichEnd != 0 {
		arr = l.cumulativeEnd1RowSizes
	}
	if len(arr) == 0 {
		return 0
	}
	idx := lowerBound(arr, requested)
	if idx == len(arr) {
		return arr[len(arr)-1]
	}
	return arr[idx]
}

func (l *Local2D) Iterate(whichEnd int, k Kernel, start, end int64) {
	if whichEnd == 1 {
		end1rowStart := lowerBound(l.cumulativeEnd1RowSizes, start+1)
		end1rowEnd := lowerBound(l.cumulativeEnd1RowSizes, end) + 1
		if int64(end1rowEnd) > l.end1rows {
			end1rowEnd = int(l.end1rows)
		}
		for end1row := int64(end1rowStart); end1row < int64(end1rowEnd); end1row++ {
			for filterRow := int64(0); filterRow < l.filterRows; filterRow++ {
				l.rowRowIteration(filterRow, end1row, k, true)
			}
		}
		return
	}

	end0rowStart := lowerBound(l.cumulativeEnd0RowSizes, start+1)
	end0rowEnd := lowerBound(l.cumulativeEnd0RowSizes, end) + 1
	if int64(end0rowEnd) > l.end0rows {
		end0rowEnd = int(l.end0rows)
	}
	l.rowFindingIteration(int64(end0rowStart), int64(end0rowEnd), k)
}
