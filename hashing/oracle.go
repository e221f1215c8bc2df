package hashing

import (
	"fmt"
	"image"
	"reflect"
	"sync"

	"github.com/corona10/goimagehash"

	"gallerydiff/matching"
)

// PHashMaxDistance is the largest Hamming distance between two 64-bit pHashes
const PHashMaxDistance = 64

// memo caches one hash per image until reset. Images are keyed by identity, so
// transformed copies are hashed separately and stay reachable while cached.
type memo[H any] struct {
	compute func(image.Image) (H, error)
	cache   sync.Map
}

func newMemo[H any](compute func(image.Image) (H, error)) *memo[H] {
	return &memo[H]{compute: compute}
}

func (m *memo[H]) get(img image.Image) (H, error) {
	if img == nil || !reflect.TypeOf(img).Comparable() {
		return m.compute(img)
	}
	if v, ok := m.cache.Load(img); ok {
		return v.(H), nil
	}
	h, err := m.compute(img)
	if err != nil {
		return h, err
	}
	v, _ := m.cache.LoadOrStore(img, h)
	return v.(H), nil
}

// reset drops every cached hash along with the images keying them
func (m *memo[H]) reset() {
	m.cache.Clear()
}

// PerceptualOracle compares images by the Hamming distance of their pHash, 0..64
func PerceptualOracle() matching.Oracle {
	oracle, _ := perceptualOracle()
	return oracle
}

func perceptualOracle() (matching.Oracle, func()) {
	hashes := newMemo(func(img image.Image) (*goimagehash.ImageHash, error) {
		if img == nil || img.Bounds().Empty() {
			return nil, ErrEmptyImage
		}
		return goimagehash.PerceptionHash(img)
	})

	return func(reference, target image.Image) (float64, error) {
		referenceHash, err := hashes.get(reference)
		if err != nil {
			return 0, fmt.Errorf("phash reference: %w", err)
		}
		targetHash, err := hashes.get(target)
		if err != nil {
			return 0, fmt.Errorf("phash target: %w", err)
		}
		d, err := referenceHash.Distance(targetHash)
		if err != nil {
			return 0, err
		}
		return float64(d), nil
	}, hashes.reset
}

// CropResistantColorOracle compares crop-resistant multi-hashes whose segments are
// colour hashes with binBits bits per bin
func CropResistantColorOracle(binBits int) matching.Oracle {
	oracle, _ := cropResistantColorOracle(binBits)
	return oracle
}

func cropResistantColorOracle(binBits int) (matching.Oracle, func()) {
	segmentHash := func(img image.Image) (Hash, error) {
		return ColorHash(img, binBits)
	}
	hashes := newMemo(func(img image.Image) (MultiHash, error) {
		if img == nil {
			return MultiHash{}, ErrEmptyImage
		}
		return CropResistantHash(img, segmentHash)
	})

	return func(reference, target image.Image) (float64, error) {
		referenceHash, err := hashes.get(reference)
		if err != nil {
			return 0, fmt.Errorf("crop-resistant hash (%d bin bits) reference: %w", binBits, err)
		}
		targetHash, err := hashes.get(target)
		if err != nil {
			return 0, fmt.Errorf("crop-resistant hash (%d bin bits) target: %w", binBits, err)
		}
		return referenceHash.Distance(targetHash)
	}, hashes.reset
}

// NewOracles builds the default hash capabilities for the matching pipeline. Their
// hash caches are cleared by the returned Release.
func NewOracles(cropBinBits []int) matching.Oracles {
	phash, resetPHash := perceptualOracle()
	resets := []func(){resetPHash}

	crop := make([]matching.Oracle, len(cropBinBits))
	for i, bits := range cropBinBits {
		oracle, reset := cropResistantColorOracle(bits)
		crop[i] = oracle
		resets = append(resets, reset)
	}

	return matching.Oracles{
		PHash:         phash,
		CropResistant: crop,
		Release: func() {
			for _, reset := range resets {
				reset()
			}
		},
	}
}
