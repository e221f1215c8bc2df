package scanner

import (
	"image"
	"sync"

	"github.com/schollz/progressbar/v3"

	"gallerydiff/matching"
)

// ImageLoader decodes a single file into a normalized image
type ImageLoader interface {
	LoadImage(path string) (image.Image, error)
}

// LoadOptions defines the options for loading a gallery
type LoadOptions struct {
	MaxWorkers int               // Optional worker limit, <= 0 means one per CPU
	Progress   matching.Observer // Optional progress reporting
}

// LoadImageResult holds the result of loading one file
type LoadImageResult struct {
	Path    string
	Success bool
	Error   error
}

// ProgressTracker renders progress bars for gallery loading and matrix builds and
// keeps per-file counters
type ProgressTracker struct {
	mu        sync.Mutex
	bar       *progressbar.ProgressBar
	options   []progressbar.Option
	processed int
	errors    int
}
