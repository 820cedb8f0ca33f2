// Package geometry provides the voxel-to-physical coordinate transform and
// the principal-axis analysis used to find a region's long-axis endpoints.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"tractcoords/internal/models"
)

// ErrNotAffine is returned when a matrix cannot serve as a 4x4 affine transform.
var ErrNotAffine = errors.New("not a finite 4x4 affine matrix")

// Affine maps homogeneous voxel-index coordinates to physical millimetre
// coordinates. The zero value is not usable; build one with NewAffine,
// AffineFromMatrix or IdentityAffine.
type Affine struct {
	m *mat.Dense
}

// NewAffine builds an affine from 16 values in row-major order.
func NewAffine(rowMajor []float64) (Affine, error) {
	if len(rowMajor) != 16 {
		return Affine{}, fmt.Errorf("%w: got %d values", ErrNotAffine, len(rowMajor))
	}
	data := make([]float64, 16)
	copy(data, rowMajor)
	return AffineFromMatrix(mat.NewDense(4, 4, data))
}

// AffineFromMatrix copies m into an Affine after checking its shape and values.
func AffineFromMatrix(m mat.Matrix) (Affine, error) {
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return Affine{}, fmt.Errorf("%w: got %dx%d", ErrNotAffine, r, c)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Affine{}, fmt.Errorf("%w: element (%d,%d) is %v", ErrNotAffine, i, j, v)
			}
		}
	}
	return Affine{m: mat.DenseCopyOf(m)}, nil
}

// IdentityAffine returns the affine that leaves coordinates unchanged.
func IdentityAffine() Affine {
	return Affine{m: mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})}
}

// At returns element (i, j).
func (a Affine) At(i, j int) float64 {
	return a.m.At(i, j)
}

// RowMajor returns the 16 elements in row-major order.
func (a Affine) RowMajor() []float64 {
	out := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		out = append(out, mat.Row(nil, i, a.m)...)
	}
	return out
}

// VoxelToPhysical appends a homogeneous 1 to voxel, left-multiplies by the
// affine and returns the first three components.
func VoxelToPhysical(voxel models.Vec3, affine Affine) models.Vec3 {
	homogeneous := mat.NewVecDense(4, []float64{voxel[0], voxel[1], voxel[2], 1})

	var out mat.VecDense
	out.MulVec(affine.m, homogeneous)

	return models.Vec3{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}
