package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallerydiff/types"
)

func TestSweepZeroAngleIsIdentityOnly(t *testing.T) {
	variants := Sweep(0, DefaultAngleStep)
	require.Len(t, variants, 1)
	assert.True(t, variants[0].IsIdentity())
}

func TestSweepCoversAnglesWithAndWithoutFlip(t *testing.T) {
	variants := Sweep(30, 5)
	require.Len(t, variants, 26)

	assert.Equal(t, types.TransformVariant{Angle: -30}, variants[0])
	assert.Equal(t, types.TransformVariant{Angle: 30}, variants[12])
	assert.Equal(t, types.TransformVariant{Angle: -30, HorizontalFlip: true}, variants[13])
	assert.Equal(t, types.TransformVariant{Angle: 30, HorizontalFlip: true}, variants[25])
	assert.Contains(t, variants, types.TransformVariant{Angle: 10})
	assert.Contains(t, variants, types.Identity())
}

func TestSweepNormalizesArguments(t *testing.T) {
	assert.Equal(t, Sweep(10, 5), Sweep(-10, 5))
	assert.Equal(t, Sweep(10, DefaultAngleStep), Sweep(10, 0))
}
