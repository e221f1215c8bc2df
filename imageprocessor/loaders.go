package imageprocessor

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// ErrImageNotFound is returned for paths that do not exist or cannot be accessed
var ErrImageNotFound = errors.New("image file not found")

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
	// Size is the square edge every loaded image is resized to
	Size int
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	return slices.Contains(l.SupportedFormats, GetFileFormat(path)) && fileExists(path)
}

// fileExists checks if a file exists and is accessible
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
