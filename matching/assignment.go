package matching

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidCost = errors.New("cost matrix holds a negative, NaN or infinite value")
	ErrInfeasible  = errors.New("assignment could not be completed")
)

// Assignment pairs a row of a cost matrix with a column
type Assignment struct {
	Row, Col int
}

// Solve returns the minimum-cost one-to-one assignment of rows to columns using the
// Hungarian method. A rectangular matrix is padded to square with padValue; pairings
// with padded rows or columns are left out of the result. Assignments are sorted by row.
func Solve(cost mat.Matrix, padValue float64) ([]Assignment, error) {
	if cost == nil {
		return nil, nil
	}
	rows, cols := cost.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil
	}
	if padValue < 0 || math.IsNaN(padValue) || math.IsInf(padValue, 0) {
		return nil, fmt.Errorf("%w: pad value %v", ErrInvalidCost, padValue)
	}

	n := max(rows, cols)
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		for j := range a[i] {
			if i >= rows || j >= cols {
				a[i][j] = padValue
				continue
			}
			v := cost.At(i, j)
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: cell (%d,%d) is %v", ErrInvalidCost, i, j, v)
			}
			a[i][j] = v
		}
	}

	// Potentials u (rows) and v (columns), p[j] is the row matched to column j,
	// all 1-based with index 0 as the virtual start column.
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		used := make([]bool, n+1)

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := a[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 == 0 {
				return nil, fmt.Errorf("%w: no augmenting column for row %d", ErrInfeasible, i)
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignments := make([]Assignment, 0, min(rows, cols))
	for j := 1; j <= n; j++ {
		row, col := p[j]-1, j-1
		if row < 0 {
			return nil, fmt.Errorf("%w: column %d left unassigned", ErrInfeasible, col)
		}
		if row < rows && col < cols {
			assignments = append(assignments, Assignment{Row: row, Col: col})
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].Row < assignments[j].Row
	})
	return assignments, nil
}
