package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallerydiff/types"
)

func TestAverageTakesMeanAndFirstTags(t *testing.T) {
	first := types.DistanceMatrix{
		{{Distance: 0.2, Reference: "A", Target: "X"}, {Distance: 64}},
	}
	second := types.DistanceMatrix{
		{{Distance: 0.4, Reference: "A", Target: "X"}, {Distance: 0.5, Reference: "A", Target: "Y"}},
	}

	avg, err := Average(first, second)
	require.NoError(t, err)

	assert.InDelta(t, 0.3, avg[0][0].Distance, 1e-12)
	assert.Equal(t, "A", avg[0][0].Reference)
	assert.InDelta(t, 32.25, avg[0][1].Distance, 1e-12)
	assert.False(t, avg[0][1].Resolved(), "tags come from the first matrix only")

	assert.Equal(t, 0.2, first[0][0].Distance, "inputs are left untouched")
}

func TestAverageSingleMatrixIsCopy(t *testing.T) {
	m := types.DistanceMatrix{{{Distance: 3, Reference: "A", Target: "X"}}}

	avg, err := Average(m)
	require.NoError(t, err)
	assert.Equal(t, m, avg)

	avg[0][0].Distance = 9
	assert.Equal(t, 3.0, m[0][0].Distance)
}

func TestAverageEmptyMatrices(t *testing.T) {
	avg, err := Average(types.NewDistanceMatrix(2, 0, 64), types.NewDistanceMatrix(2, 0, 64))
	require.NoError(t, err)
	rows, cols := avg.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 0, cols)
}

func TestAverageErrors(t *testing.T) {
	_, err := Average()
	assert.ErrorIs(t, err, ErrNoMatrices)

	_, err = Average(types.NewDistanceMatrix(2, 2, 1), types.NewDistanceMatrix(2, 3, 1))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
