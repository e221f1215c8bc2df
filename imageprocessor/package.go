// Package imageprocessor loads gallery images through OpenCV or pure-Go decoders and
// provides the OpenCV rotation/flip transformer.
package imageprocessor

import "image"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file and returns it resized to the loader's target size
	LoadImage(path string) (image.Image, error)
}
