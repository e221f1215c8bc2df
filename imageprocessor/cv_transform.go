package imageprocessor

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"gallerydiff/types"
)

// CVTransformer rotates around the image centre with OpenCV, reflecting the border
// into the uncovered corners, and mirrors horizontally
type CVTransformer struct{}

// Apply returns a transformed copy the same size as img. The identity variant returns
// img itself.
func (CVTransformer) Apply(img image.Image, variant types.TransformVariant) (image.Image, error) {
	if variant.IsIdentity() {
		return img, nil
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert to mat: %w", err)
	}
	defer src.Close()

	current := src
	if variant.Angle != 0 {
		size := image.Point{X: src.Cols(), Y: src.Rows()}
		rotation := gocv.GetRotationMatrix2D(image.Point{X: size.X / 2, Y: size.Y / 2}, float64(variant.Angle), 1.0)
		defer rotation.Close()

		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.WarpAffineWithParams(src, &rotated, rotation, size, gocv.InterpolationLinear, gocv.BorderReflect101, color.RGBA{})
		current = rotated
	}

	if variant.HorizontalFlip {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(current, &flipped, 1)
		current = flipped
	}

	out, err := current.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert from mat: %w", err)
	}
	return out, nil
}
