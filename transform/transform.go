// Package transform applies rotation and mirroring variants to images in pure Go.
package transform

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"gallerydiff/types"
)

// Imaging rotates around the image centre and keeps the source size. Corners uncovered
// by the rotation are filled with Fill.
type Imaging struct {
	Fill color.Color
}

// Apply returns a rotated and optionally mirrored copy. The identity variant returns
// img itself.
func (t Imaging) Apply(img image.Image, variant types.TransformVariant) (image.Image, error) {
	if variant.IsIdentity() {
		return img, nil
	}

	fill := t.Fill
	if fill == nil {
		fill = color.Black
	}

	bounds := img.Bounds()
	var out image.Image = img
	if variant.Angle != 0 {
		rotated := imaging.Rotate(img, float64(variant.Angle), fill)
		out = imaging.CropCenter(rotated, bounds.Dx(), bounds.Dy())
	}
	if variant.HorizontalFlip {
		out = imaging.FlipH(out)
	}
	return out, nil
}
