package matching

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"gallerydiff/types"
)

var (
	ErrNoMatrices        = errors.New("no distance matrices to average")
	ErrDimensionMismatch = errors.New("distance matrices differ in dimensions")
)

// Average returns the elementwise mean distance of matrices built from the same
// galleries. Filename tags are taken from the first matrix. The inputs are not modified.
func Average(matrices ...types.DistanceMatrix) (types.DistanceMatrix, error) {
	if len(matrices) == 0 {
		return nil, ErrNoMatrices
	}

	rows, cols := matrices[0].Dims()
	for i, m := range matrices[1:] {
		r, c := m.Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("%w: matrix %d is %dx%d, expected %dx%d", ErrDimensionMismatch, i+1, r, c, rows, cols)
		}
	}

	result := make(types.DistanceMatrix, len(matrices[0]))
	for r, row := range matrices[0] {
		result[r] = append([]types.DistanceCell(nil), row...)
	}
	if rows == 0 || cols == 0 {
		return result, nil
	}

	sum := mat.NewDense(rows, cols, nil)
	for _, m := range matrices {
		sum.Add(sum, costMatrix(m))
	}
	sum.Scale(1/float64(len(matrices)), sum)

	for r := range result {
		for c := range result[r] {
			result[r][c].Distance = sum.At(r, c)
		}
	}
	return result, nil
}

// costMatrix extracts the distances of a non-empty matrix
func costMatrix(m types.DistanceMatrix) *mat.Dense {
	rows, cols := m.Dims()
	costs := mat.NewDense(rows, cols, nil)
	for r, row := range m {
		for c, cell := range row {
			costs.Set(r, c, cell.Distance)
		}
	}
	return costs
}
