package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLabeledVolume(t *testing.T) {
	_, err := NewLabeledVolume(make([]int32, 7), 2, 2, 2)
	assert.ErrorIs(t, err, ErrVolumeShape)

	_, err = NewLabeledVolume(nil, 0, 2, 2)
	assert.ErrorIs(t, err, ErrVolumeShape)

	v, err := NewLabeledVolume(make([]int32, 8), 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(0), v.MaxLabel())
}

func TestVoxelOrder(t *testing.T) {
	v := NewEmptyVolume(3, 2, 2)
	v.Set(2, 0, 0, 5)
	v.Set(0, 1, 1, 5)
	v.Set(0, 1, 0, 5)
	v.Set(1, 0, 1, 7)

	want := []Vec3{{0, 1, 0}, {0, 1, 1}, {2, 0, 0}}
	assert.Equal(t, want, v.Voxels(5))
	assert.Empty(t, v.Voxels(9))

	groups := v.VoxelsByLabel()
	assert.Len(t, groups, 2)
	assert.Equal(t, want, groups[5])
	assert.Equal(t, []Vec3{{1, 0, 1}}, groups[7])
	assert.Equal(t, int32(7), v.MaxLabel())
}

func TestTractRowFields(t *testing.T) {
	f := [NumCoordinates]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	r := TractRowFromFields("GCC", f)
	assert.Equal(t, Vec3{4, 5, 6}, r.End)
	assert.Equal(t, f, r.Fields())
	assert.Equal(t, r, NewTractRow("GCC", r.Landmark()))
}
