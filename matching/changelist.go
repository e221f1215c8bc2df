package matching

import (
	"errors"
	"fmt"

	"gallerydiff/types"
)

// ErrPartition is returned when a changelist does not account for every image exactly once
var ErrPartition = errors.New("changelist does not partition the galleries")

// GalleriesWithoutMatches drops the matched filenames from both galleries. Each match
// removes at most one image per side; filenames not present are ignored. The input
// galleries are left untouched.
func GalleriesWithoutMatches(reference, target types.Gallery, matches []types.Match) (types.Gallery, types.Gallery) {
	reference = append(types.Gallery(nil), reference...)
	target = append(types.Gallery(nil), target...)
	for _, match := range matches {
		reference = withoutFilename(reference, match.Reference)
		target = withoutFilename(target, match.Target)
	}
	return reference, target
}

func withoutFilename(gallery types.Gallery, filename string) types.Gallery {
	for i, img := range gallery {
		if img.Filename == filename {
			return append(gallery[:i:i], gallery[i+1:]...)
		}
	}
	return gallery
}

// GenerateChangelist turns the matches of one strategy into entries. When final is
// set the images left in the galleries are reported as removed and added.
func GenerateChangelist(reference, target types.Gallery, matches []types.Match, solvedBy string, final bool) types.Changelist {
	changelist := make(types.Changelist, 0, len(matches))
	for _, match := range matches {
		if match.Distance == 0 {
			changelist = append(changelist, types.Unchanged(match, solvedBy))
		} else {
			changelist = append(changelist, types.LightChanges(match, solvedBy))
		}
	}

	if final {
		for _, img := range reference {
			changelist = append(changelist, types.Removed(img.Filename))
		}
		for _, img := range target {
			changelist = append(changelist, types.Added(img.Filename))
		}
	}
	return changelist
}

// CheckPartition verifies that every reference filename appears exactly once as a
// reference and every target filename exactly once as a target
func CheckPartition(reference, target types.Gallery, changelist types.Changelist) error {
	seenReference := make(map[string]int, len(reference))
	seenTarget := make(map[string]int, len(target))
	for _, entry := range changelist {
		switch entry.Resolution {
		case types.ResolutionUnchanged, types.ResolutionLightChanges:
			seenReference[entry.Reference]++
			seenTarget[entry.Target]++
		case types.ResolutionRemoved:
			seenReference[entry.Reference]++
		case types.ResolutionAdded:
			seenTarget[entry.Target]++
		default:
			return fmt.Errorf("%w: unknown resolution %q", ErrPartition, entry.Resolution)
		}
	}

	var errs []error
	for _, img := range reference {
		if n := seenReference[img.Filename]; n != 1 {
			errs = append(errs, fmt.Errorf("reference %s reported %d times", img.Filename, n))
		}
		delete(seenReference, img.Filename)
	}
	for _, img := range target {
		if n := seenTarget[img.Filename]; n != 1 {
			errs = append(errs, fmt.Errorf("target %s reported %d times", img.Filename, n))
		}
		delete(seenTarget, img.Filename)
	}
	for name := range seenReference {
		errs = append(errs, fmt.Errorf("unknown reference %s", name))
	}
	for name := range seenTarget {
		errs = append(errs, fmt.Errorf("unknown target %s", name))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPartition, errors.Join(errs...))
	}
	return nil
}
