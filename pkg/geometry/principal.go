package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"tractcoords/internal/models"
)

// ErrDegenerate is returned when a point set cannot define a principal axis.
var ErrDegenerate = errors.New("point set too small or degenerate for principal axis")

// Centroid returns the component-wise mean of points.
func Centroid(points []models.Vec3) models.Vec3 {
	var c models.Vec3
	if len(points) == 0 {
		return c
	}
	col := make([]float64, len(points))
	for d := 0; d < 3; d++ {
		for i, p := range points {
			col[i] = p[d]
		}
		c[d] = stat.Mean(col, nil)
	}
	return c
}

// PrincipalAxis returns the unit direction of greatest variance of points,
// i.e. the first principal component.
//
// Algorithm:
//  1. Build the 3x3 sample covariance matrix
//  2. Eigen-decompose it (symmetric)
//  3. Take the eigenvector of the largest eigenvalue
//  4. Flip its sign so the largest-magnitude component is positive
//
// Step 4 pins down which end of the axis counts as the start.
func PrincipalAxis(points []models.Vec3) (models.Vec3, error) {
	n := len(points)
	if n < 2 {
		return models.Vec3{}, ErrDegenerate
	}

	data := mat.NewDense(n, 3, nil)
	for i, p := range points {
		data.SetRow(i, p[:])
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return models.Vec3{}, ErrDegenerate
	}

	// Eigenvalues come back in ascending order.
	values := eig.Values(nil)
	if values[2] <= 0 {
		return models.Vec3{}, ErrDegenerate
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	axis := models.Vec3{vectors.At(0, 2), vectors.At(1, 2), vectors.At(2, 2)}

	dominant := 0
	for d := 1; d < 3; d++ {
		if math.Abs(axis[d]) > math.Abs(axis[dominant]) {
			dominant = d
		}
	}
	if axis[dominant] < 0 {
		for d := range axis {
			axis[d] = -axis[d]
		}
	}
	return axis, nil
}

// AxisExtremes projects every point onto the principal axis and returns the
// indices of the minimum and maximum projections. Exact ties resolve to the
// earliest point in the input order.
func AxisExtremes(points []models.Vec3) (minIdx, maxIdx int, err error) {
	axis, err := PrincipalAxis(points)
	if err != nil {
		return 0, 0, err
	}
	mean := Centroid(points)

	minProj, maxProj := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		proj := (p[0]-mean[0])*axis[0] + (p[1]-mean[1])*axis[1] + (p[2]-mean[2])*axis[2]
		if proj < minProj {
			minProj = proj
			minIdx = i
		}
		if proj > maxProj {
			maxProj = proj
			maxIdx = i
		}
	}
	return minIdx, maxIdx, nil
}
