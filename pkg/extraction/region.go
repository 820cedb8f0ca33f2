// Package extraction turns a labelled atlas into per-tract landmark
// coordinates and drives a full extraction run.
package extraction

import (
	"tractcoords/internal/models"
	"tractcoords/pkg/geometry"
)

// ExtractRegion computes the start, end and centroid of the voxels labelled
// label, in physical coordinates. It reports false when no voxel carries
// the label. Label 0 is background and is never a region.
func ExtractRegion(volume *models.LabeledVolume, affine geometry.Affine, label int32) (models.Landmark, bool) {
	if label == 0 {
		return models.Landmark{}, false
	}
	return landmarkFromVoxels(volume.Voxels(label), affine)
}

// landmarkFromVoxels does the work of ExtractRegion on pre-collected voxels.
//
// With more than two voxels the endpoints are the extreme projections onto
// the principal axis. With one or two voxels PCA is undefined, so the first
// and last voxels in scan order are used.
func landmarkFromVoxels(voxels []models.Vec3, affine geometry.Affine) (models.Landmark, bool) {
	if len(voxels) == 0 {
		return models.Landmark{}, false
	}

	centroid := geometry.Centroid(voxels)
	start, end := voxels[0], voxels[len(voxels)-1]

	if len(voxels) > 2 {
		if minIdx, maxIdx, err := geometry.AxisExtremes(voxels); err == nil {
			start, end = voxels[minIdx], voxels[maxIdx]
		}
	}

	lm := models.Landmark{
		Start:    geometry.VoxelToPhysical(start, affine),
		End:      geometry.VoxelToPhysical(end, affine),
		Centroid: geometry.VoxelToPhysical(centroid, affine),
	}
	if !lm.Start.IsFinite() || !lm.End.IsFinite() || !lm.Centroid.IsFinite() {
		return models.Landmark{}, false
	}
	return lm, true
}
