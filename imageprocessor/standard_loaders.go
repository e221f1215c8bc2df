package imageprocessor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/webp"
)

// OpenCVImageLoader decodes with OpenCV and resizes with Lanczos interpolation
type OpenCVImageLoader struct {
	BaseImageLoader
}

// NewOpenCVImageLoader creates a loader for the formats OpenCV reads
func NewOpenCVImageLoader(size int) *OpenCVImageLoader {
	return &OpenCVImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: openCVFormats,
			Size:             size,
		},
	}
}

// LoadImage reads the file in colour and returns it resized to Size x Size
func (l *OpenCVImageLoader) LoadImage(path string) (image.Image, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, newImageLoadError("failed to load image", path)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{X: l.Size, Y: l.Size}, 0, 0, gocv.InterpolationLanczos4)

	out, err := resized.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return out, nil
}

// GoImageLoader decodes with the Go image packages. It reads every format the
// registry knows, including GIF, and serves as fallback when OpenCV fails.
type GoImageLoader struct {
	BaseImageLoader
}

// NewGoImageLoader creates a pure-Go loader
func NewGoImageLoader(size int) *GoImageLoader {
	return &GoImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJPEG, FormatPNG, FormatGIF, FormatTIFF, FormatBMP, FormatWEBP},
			Size:             size,
		},
	}
}

// LoadImage decodes the file, applying EXIF orientation, and resizes it to Size x Size
func (l *GoImageLoader) LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return imaging.Resize(img, l.Size, l.Size, imaging.Lanczos), nil
}
