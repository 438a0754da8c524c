package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameCanConnectDimensions(t *testing.T) {
	s := NewSame()
	assert.True(t, s.CanConnectDimensions([]int64{4}, []int64{4}))
	assert.False(t, s.CanConnectDimensions([]int64{4}, []int64{5}))
	assert.False(t, s.CanConnectDimensions([]int64{4, 2}, []int64{4}))
}

func TestSameMaxProgress(t *testing.T) {
	s := NewSame()
	s.SetDimensions([]int64{10}, []int64{10})
	assert.Equal(t, int64(10), s.MaxProgress(0))
}

func TestSameIterateIsIdentity(t *testing.T) {
	s := NewSame()
	s.SetDimensions([]int64{5}, []int64{5})

	var seen []int64
	s.Iterate(0, func(nearIx, nearEdgeIx, farIx, farEdgeIx, edgeInfo int64) {
		assert.Equal(t, nearIx, nearEdgeIx)
		assert.Equal(t, nearIx, farIx)
		assert.Equal(t, nearIx, farEdgeIx)
		assert.Equal(t, int64(0), edgeInfo)
		seen = append(seen, nearIx)
	}, 0, s.MaxProgress(0))

	assert.Equal(t, []int64{0, 1, 2, 3, 4}, seen)
}

func TestSameRequestPartialProgressIsIdentity(t *testing.T) {
	s := NewSame()
	s.SetDimensions([]int64{5}, []int64{5})
	assert.Equal(t, int64(3), s.RequestPartialProgress(0, 3))
}
