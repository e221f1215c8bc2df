package imageprocessor

import (
	"path/filepath"
	"slices"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".jpe":  FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".dib":  FormatBMP,
	".webp": FormatWEBP,
}

// Formats OpenCV's imread decodes; everything else goes through the Go decoders
var openCVFormats = []FormatType{FormatJPEG, FormatPNG, FormatTIFF, FormatBMP, FormatWEBP}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// GetSupportedExtensions returns all supported image file extensions, sorted
func GetSupportedExtensions() []string {
	extensions := make([]string, 0, len(formatExtensions))
	for ext := range formatExtensions {
		extensions = append(extensions, ext)
	}
	slices.Sort(extensions)
	return extensions
}

func extensionsFor(formats []FormatType) []string {
	var extensions []string
	for _, ext := range GetSupportedExtensions() {
		if slices.Contains(formats, formatExtensions[ext]) {
			extensions = append(extensions, ext)
		}
	}
	return extensions
}
