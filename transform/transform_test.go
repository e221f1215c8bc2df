package transform

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallerydiff/types"
)

func marked() *image.NRGBA {
	img := imaging.New(40, 20, color.NRGBA{A: 255})
	// bright marker in the top left corner
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

func TestIdentityReturnsInput(t *testing.T) {
	img := marked()
	out, err := Imaging{}.Apply(img, types.Identity())
	require.NoError(t, err)
	assert.Same(t, img, out)
}

func TestFlipMirrorsHorizontally(t *testing.T) {
	out, err := Imaging{}.Apply(marked(), types.TransformVariant{HorizontalFlip: true})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 40, 20), out.Bounds())
	r, _, _, _ := out.At(39, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = out.At(0, 0).RGBA()
	assert.Zero(t, r)
}

func TestRotationKeepsSize(t *testing.T) {
	src := marked()
	for _, variant := range []types.TransformVariant{
		{Angle: 10},
		{Angle: -30},
		{Angle: 25, HorizontalFlip: true},
	} {
		out, err := Imaging{}.Apply(src, variant)
		require.NoError(t, err, variant.String())
		assert.Equal(t, 40, out.Bounds().Dx(), variant.String())
		assert.Equal(t, 20, out.Bounds().Dy(), variant.String())
	}

	r, _, _, _ := src.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r, "source is left untouched")
}
