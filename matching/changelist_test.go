package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallerydiff/types"
)

func TestGalleriesWithoutMatches(t *testing.T) {
	reference := newGallery("A", "B", "C")
	target := newGallery("X", "Y")

	ref, tgt := GalleriesWithoutMatches(reference, target, []types.Match{{Reference: "B", Target: "Y"}})
	assert.Equal(t, []string{"A", "C"}, ref.Filenames())
	assert.Equal(t, []string{"X"}, tgt.Filenames())
	assert.Equal(t, []string{"A", "B", "C"}, reference.Filenames(), "input gallery is not modified")
}

func TestGalleriesWithoutMatchesIgnoresUnknownNames(t *testing.T) {
	reference := newGallery("A")
	target := newGallery("X")

	ref, tgt := GalleriesWithoutMatches(reference, target, []types.Match{{Reference: "Q", Target: "Z"}})
	assert.Equal(t, []string{"A"}, ref.Filenames())
	assert.Equal(t, []string{"X"}, tgt.Filenames())

	ref, tgt = GalleriesWithoutMatches(reference, target, nil)
	assert.Equal(t, reference.Filenames(), ref.Filenames())
	assert.Equal(t, target.Filenames(), tgt.Filenames())
}

func TestGalleriesWithoutMatchesRemovesOncePerMatch(t *testing.T) {
	reference := newGallery("A", "A", "B")
	target := newGallery("X")

	ref, _ := GalleriesWithoutMatches(reference, target, []types.Match{{Reference: "A", Target: "X"}})
	assert.Equal(t, []string{"A", "B"}, ref.Filenames())
}

func TestGenerateChangelist(t *testing.T) {
	matches := []types.Match{
		{Reference: "A", Target: "A2", Distance: 0},
		{Reference: "B", Target: "B2", Distance: 4},
	}

	interim := GenerateChangelist(newGallery("C"), newGallery("D"), matches, StrategyPHash, false)
	assert.Equal(t, types.Changelist{
		{Resolution: types.ResolutionUnchanged, Reference: "A", Target: "A2", SolvedBy: StrategyPHash},
		{Resolution: types.ResolutionLightChanges, Reference: "B", Target: "B2", Distance: 4, SolvedBy: StrategyPHash},
	}, interim)

	final := GenerateChangelist(newGallery("C"), newGallery("D"), nil, StrategyCropResistant, true)
	assert.Equal(t, types.Changelist{types.Removed("C"), types.Added("D")}, final)
}

func TestCheckPartition(t *testing.T) {
	reference := newGallery("A", "B")
	target := newGallery("X")

	ok := types.Changelist{
		types.LightChanges(types.Match{Reference: "A", Target: "X", Distance: 2}, StrategyPHash),
		types.Removed("B"),
	}
	require.NoError(t, CheckPartition(reference, target, ok))

	missing := types.Changelist{types.Removed("A")}
	assert.ErrorIs(t, CheckPartition(reference, target, missing), ErrPartition)

	doubled := append(types.Changelist{types.Added("X")}, ok...)
	err := CheckPartition(reference, target, doubled)
	assert.ErrorIs(t, err, ErrPartition)
	assert.Contains(t, err.Error(), "target X reported 2 times")

	unknown := append(types.Changelist{types.Removed("Q")}, ok...)
	assert.ErrorIs(t, CheckPartition(reference, target, unknown), ErrPartition)
}
