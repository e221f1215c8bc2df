package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ListFiles returns the regular files directly inside folder, sorted by name.
// Subdirectories are not descended into; symlinks count when they point at a file.
func ListFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read gallery folder: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(folder, entry.Name()))
			if err == nil && info.Mode().IsRegular() {
				names = append(names, entry.Name())
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

// GetFileFormat returns the lowercase file extension without the dot
func GetFileFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
