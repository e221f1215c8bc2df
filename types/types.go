package types

import (
	"fmt"
	"image"
)

// GalleryImage holds a decoded, normalized image and the filename it was loaded from
type GalleryImage struct {
	Filename string
	Content  image.Image
}

// Gallery is an ordered set of images under comparison
type Gallery []GalleryImage

// Filenames returns the filenames of the gallery in order
func (g Gallery) Filenames() []string {
	names := make([]string, len(g))
	for i, img := range g {
		names[i] = img.Filename
	}
	return names
}

// TransformVariant is one geometric variant tried while building a distance matrix.
// Angle is in degrees, counter-clockwise positive.
type TransformVariant struct {
	Angle          int  `json:"angle"`
	HorizontalFlip bool `json:"horizontal_flip"`
}

// Identity returns the variant that leaves an image untouched
func Identity() TransformVariant {
	return TransformVariant{}
}

// IsIdentity reports whether the variant leaves an image untouched
func (v TransformVariant) IsIdentity() bool {
	return v.Angle == 0 && !v.HorizontalFlip
}

func (v TransformVariant) String() string {
	if v.HorizontalFlip {
		return fmt.Sprintf("rot%d+flip", v.Angle)
	}
	return fmt.Sprintf("rot%d", v.Angle)
}

// DistanceCell is the lowest distance seen so far for one (reference, target) pair.
// Reference and Target stay empty until a distance below the initial sentinel is recorded.
type DistanceCell struct {
	Distance  float64 `json:"distance"`
	Reference string  `json:"reference,omitempty"`
	Target    string  `json:"target,omitempty"`
}

// Resolved reports whether the cell carries both filenames
func (c DistanceCell) Resolved() bool {
	return c.Reference != "" && c.Target != ""
}

// DistanceMatrix is indexed [reference][target]
type DistanceMatrix [][]DistanceCell

// NewDistanceMatrix creates a rows x cols matrix with every cell set to maxDistance
func NewDistanceMatrix(rows, cols int, maxDistance float64) DistanceMatrix {
	matrix := make(DistanceMatrix, rows)
	for i := range matrix {
		row := make([]DistanceCell, cols)
		for j := range row {
			row[j] = DistanceCell{Distance: maxDistance}
		}
		matrix[i] = row
	}
	return matrix
}

// Dims returns the number of rows and columns
func (m DistanceMatrix) Dims() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Match pairs a reference image with a target image
type Match struct {
	Reference string  `json:"reference"`
	Target    string  `json:"target"`
	Distance  float64 `json:"distance"`
}

// Resolution classifies a changelist entry
type Resolution string

const (
	ResolutionUnchanged    Resolution = "unchanged"
	ResolutionLightChanges Resolution = "light changes"
	ResolutionRemoved      Resolution = "removed"
	ResolutionAdded        Resolution = "added"
)

// Resolutions lists every resolution in changelist order
var Resolutions = []Resolution{
	ResolutionUnchanged,
	ResolutionLightChanges,
	ResolutionRemoved,
	ResolutionAdded,
}

// ChangelistEntry describes what happened to one image (or one matched pair)
type ChangelistEntry struct {
	Resolution Resolution `json:"resolution"`
	Reference  string     `json:"reference,omitempty"`
	Target     string     `json:"target,omitempty"`
	Distance   float64    `json:"distance,omitempty"`
	SolvedBy   string     `json:"solvedBy,omitempty"`
}

// Unchanged builds an entry for a pair matched at distance zero
func Unchanged(match Match, solvedBy string) ChangelistEntry {
	return ChangelistEntry{
		Resolution: ResolutionUnchanged,
		Reference:  match.Reference,
		Target:     match.Target,
		SolvedBy:   solvedBy,
	}
}

// LightChanges builds an entry for a pair matched at a non-zero distance
func LightChanges(match Match, solvedBy string) ChangelistEntry {
	return ChangelistEntry{
		Resolution: ResolutionLightChanges,
		Reference:  match.Reference,
		Target:     match.Target,
		Distance:   match.Distance,
		SolvedBy:   solvedBy,
	}
}

// Removed builds an entry for a reference image without a counterpart
func Removed(reference string) ChangelistEntry {
	return ChangelistEntry{Resolution: ResolutionRemoved, Reference: reference}
}

// Added builds an entry for a target image without a counterpart
func Added(target string) ChangelistEntry {
	return ChangelistEntry{Resolution: ResolutionAdded, Target: target}
}

// Changelist is the ordered outcome of a matching run
type Changelist []ChangelistEntry

// Count returns the number of entries with the given resolution
func (c Changelist) Count(resolution Resolution) int {
	count := 0
	for _, entry := range c {
		if entry.Resolution == resolution {
			count++
		}
	}
	return count
}
