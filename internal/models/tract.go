package models

import "math"

// Vec3 is a 3-element coordinate, either voxel-index or physical millimetres.
type Vec3 [3]float64

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Landmark describes one region's geometry in physical space.
type Landmark struct {
	Start    Vec3
	End      Vec3
	Centroid Vec3
}

// TractRow is a Landmark tagged with its tract name, the persisted form
// of one tract.
type TractRow struct {
	// ROI is the canonical tract name, unique within a table
	ROI string

	Start    Vec3
	End      Vec3
	Centroid Vec3
}

// NumCoordinates is the number of scalar coordinate columns per row.
const NumCoordinates = 9

// CoordinateColumns lists the coordinate column names in persisted order.
var CoordinateColumns = [NumCoordinates]string{
	"start_x", "start_y", "start_z",
	"end_x", "end_y", "end_z",
	"centroid_x", "centroid_y", "centroid_z",
}

// NewTractRow flattens a landmark into a row named roi.
func NewTractRow(roi string, lm Landmark) TractRow {
	return TractRow{ROI: roi, Start: lm.Start, End: lm.End, Centroid: lm.Centroid}
}

// Landmark returns the row's geometry.
func (r TractRow) Landmark() Landmark {
	return Landmark{Start: r.Start, End: r.End, Centroid: r.Centroid}
}

// Fields returns the nine coordinates in CoordinateColumns order.
func (r TractRow) Fields() [NumCoordinates]float64 {
	return [NumCoordinates]float64{
		r.Start[0], r.Start[1], r.Start[2],
		r.End[0], r.End[1], r.End[2],
		r.Centroid[0], r.Centroid[1], r.Centroid[2],
	}
}

// TractRowFromFields builds a row from coordinates in CoordinateColumns order.
func TractRowFromFields(roi string, f [NumCoordinates]float64) TractRow {
	return TractRow{
		ROI:      roi,
		Start:    Vec3{f[0], f[1], f[2]},
		End:      Vec3{f[3], f[4], f[5]},
		Centroid: Vec3{f[6], f[7], f[8]},
	}
}
