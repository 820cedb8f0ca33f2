package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractcoords/internal/models"
	"tractcoords/pkg/catalog"
	"tractcoords/pkg/geometry"
)

func mniAffine(t *testing.T) geometry.Affine {
	t.Helper()
	a, err := geometry.NewAffine([]float64{
		-1, 0, 0, 90,
		0, 1, 0, -126,
		0, 0, 1, -72,
		0, 0, 0, 1,
	})
	require.NoError(t, err)
	return a
}

func TestExtractRegionSingleVoxel(t *testing.T) {
	vol := models.NewEmptyVolume(5, 5, 5)
	vol.Set(2, 3, 4, 7)

	lm, ok := ExtractRegion(vol, mniAffine(t), 7)
	require.True(t, ok)

	want := models.Vec3{88, -123, -68}
	assert.InDeltaSlice(t, want[:], lm.Start[:], 1e-9)
	assert.InDeltaSlice(t, want[:], lm.End[:], 1e-9)
	assert.InDeltaSlice(t, want[:], lm.Centroid[:], 1e-9)
}

func TestExtractRegionEmpty(t *testing.T) {
	vol := models.NewEmptyVolume(3, 3, 3)
	vol.Set(1, 1, 1, 2)

	_, ok := ExtractRegion(vol, geometry.IdentityAffine(), 9)
	assert.False(t, ok)
}

func TestExtractRegionTwoVoxels(t *testing.T) {
	vol := models.NewEmptyVolume(4, 4, 4)
	vol.Set(3, 0, 0, 1)
	vol.Set(0, 2, 3, 1)

	lm, ok := ExtractRegion(vol, geometry.IdentityAffine(), 1)
	require.True(t, ok)

	// Scan order is x, then y, then z.
	assert.Equal(t, models.Vec3{0, 2, 3}, lm.Start)
	assert.Equal(t, models.Vec3{3, 0, 0}, lm.End)
	assert.Equal(t, models.Vec3{1.5, 1, 1.5}, lm.Centroid)
}

func TestExtractRegionLongAxis(t *testing.T) {
	// A rod along y with a one-voxel bump; the endpoints must follow the
	// long axis, not the bounding box corners.
	vol := models.NewEmptyVolume(6, 12, 6)
	for y := 1; y <= 10; y++ {
		vol.Set(2, y, 3, 4)
	}
	vol.Set(3, 5, 3, 4)

	lm, ok := ExtractRegion(vol, geometry.IdentityAffine(), 4)
	require.True(t, ok)

	assert.Equal(t, models.Vec3{2, 1, 3}, lm.Start)
	assert.Equal(t, models.Vec3{2, 10, 3}, lm.End)
	assert.InDelta(t, 2+1.0/11, lm.Centroid[0], 1e-9)
	assert.InDelta(t, 60.0/11, lm.Centroid[1], 1e-9)
	assert.InDelta(t, 3, lm.Centroid[2], 1e-9)

	for _, v := range []models.Vec3{lm.Start, lm.End, lm.Centroid} {
		assert.True(t, v.IsFinite())
	}
}

func TestExtractRegionAppliesAffine(t *testing.T) {
	vol := models.NewEmptyVolume(4, 4, 4)
	for z := 0; z < 4; z++ {
		vol.Set(1, 1, z, 3)
	}
	affine, err := geometry.NewAffine([]float64{
		2, 0, 0, -90,
		0, 2, 0, -126,
		0, 0, 2, -72,
		0, 0, 0, 1,
	})
	require.NoError(t, err)

	lm, ok := ExtractRegion(vol, affine, 3)
	require.True(t, ok)
	assert.Equal(t, models.Vec3{-88, -124, -72}, lm.Start)
	assert.Equal(t, models.Vec3{-88, -124, -66}, lm.End)
	assert.Equal(t, models.Vec3{-88, -124, -69}, lm.Centroid)
}

func TestExtractRegionBackground(t *testing.T) {
	vol := models.NewEmptyVolume(3, 3, 3)
	vol.Set(1, 1, 1, 5)

	_, ok := ExtractRegion(vol, geometry.IdentityAffine(), 0)
	assert.False(t, ok, "background is not a region")

	batch, err := ExtractBaseTracts(context.Background(), vol, geometry.IdentityAffine(),
		[]catalog.Entry{{Label: 0, Name: "BACKGROUND"}}, 1)
	require.NoError(t, err)
	assert.Empty(t, batch.Table)
	assert.Len(t, batch.Missing, 1)
}

func TestExtractRegionNonFiniteCoordinates(t *testing.T) {
	vol := models.NewEmptyVolume(4, 1, 1)
	for x := 1; x < 4; x++ {
		vol.Set(x, 0, 0, 9)
	}
	affine, err := geometry.NewAffine([]float64{
		1e308, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	require.NoError(t, err)

	_, ok := ExtractRegion(vol, affine, 9)
	assert.False(t, ok)
}
