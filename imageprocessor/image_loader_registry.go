package imageprocessor

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"gallerydiff/logging"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a registry that decodes through OpenCV where it can,
// falling back to the Go decoders. Images are resized to size x size.
func NewImageLoaderRegistry(size int) *ImageLoaderRegistry {
	registry := NewGoImageLoaderRegistry(size)

	openCVLoader := NewOpenCVImageLoader(size)
	for _, ext := range extensionsFor(openCVLoader.SupportedFormats) {
		registry.RegisterLoader(ext, openCVLoader)
	}
	return registry
}

// NewGoImageLoaderRegistry creates a registry that only uses the Go decoders
func NewGoImageLoaderRegistry(size int) *ImageLoaderRegistry {
	goLoader := NewGoImageLoader(size)
	registry := &ImageLoaderRegistry{
		loaders:       make(map[string]ImageLoader),
		defaultLoader: goLoader,
	}
	for _, ext := range extensionsFor(goLoader.SupportedFormats) {
		registry.RegisterLoader(ext, goLoader)
	}
	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}

	return r.defaultLoader
}

// CanLoadFile checks if the loader registered for the file's extension accepts it
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.loaders[ext]
	return ok && loader.CanLoad(path)
}

// LoadImage loads an image using the appropriate registered loader. When that loader
// fails the default loader gets a second try, so files with a misleading extension
// still decode.
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, fmt.Errorf("no suitable loader found for: %s", path)
	}
	if !loader.CanLoad(path) {
		if !fileExists(path) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		logging.DebugLog("No loader registered for %s, trying the default loader", path)
		loader = r.defaultLoader
	}

	img, err := loader.LoadImage(path)
	if err == nil || loader == r.defaultLoader || r.defaultLoader == nil {
		return img, err
	}

	logging.DebugLog("Primary loader failed for %s (%v), trying fallback", path, err)
	img, fallbackErr := r.defaultLoader.LoadImage(path)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w; fallback: %w", err, fallbackErr)
	}
	return img, nil
}
