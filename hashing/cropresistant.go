package hashing

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/disintegration/imaging"
)

const (
	segmentationSize = 300
	segmentThreshold = 128
	minSegmentSize   = 500
	segmentBlur      = 2.0
	bitErrorRate     = 0.25
)

var ErrEmptyMultiHash = errors.New("multi-hash has no segments")

// HashFunc hashes a single image region
type HashFunc func(image.Image) (Hash, error)

// MultiHash holds one hash per image segment
type MultiHash struct {
	Segments []Hash
}

// CropResistantHash splits the image into bright and dark regions and hashes the
// bounding box of every large region with hashFunc. Crops that keep most regions
// intact stay close to the original.
func CropResistantHash(img image.Image, hashFunc HashFunc) (MultiHash, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return MultiHash{}, ErrEmptyImage
	}

	pixels := segmentationPixels(img)
	boxes := findSegments(pixels, segmentationSize, segmentationSize)
	if len(boxes) == 0 {
		boxes = []image.Rectangle{image.Rect(0, 0, segmentationSize, segmentationSize)}
	}

	scaleX := float64(bounds.Dx()) / segmentationSize
	scaleY := float64(bounds.Dy()) / segmentationSize

	hashes := make([]Hash, 0, len(boxes))
	for _, box := range boxes {
		minX := int(math.Round(float64(box.Min.X) * scaleX))
		minY := int(math.Round(float64(box.Min.Y) * scaleY))
		maxX := max(minX+1, int(math.Round(float64(box.Max.X)*scaleX)))
		maxY := max(minY+1, int(math.Round(float64(box.Max.Y)*scaleY)))

		region := imaging.Crop(img, image.Rect(minX, minY, maxX, maxY).Add(bounds.Min))
		h, err := hashFunc(region)
		if err != nil {
			return MultiHash{}, fmt.Errorf("segment %v: %w", box, err)
		}
		hashes = append(hashes, h)
	}
	return MultiHash{Segments: hashes}, nil
}

// Distance scores how many of m's segments have no close counterpart in other, with
// the mean bit error of the matched ones as tie breaker. Identical hashes score 0,
// hashes with nothing in common score len(m.Segments).
func (m MultiHash) Distance(other MultiHash) (float64, error) {
	if len(m.Segments) == 0 || len(other.Segments) == 0 {
		return 0, ErrEmptyMultiHash
	}

	bitLen := m.Segments[0].Bits()
	cutoff := float64(bitLen) * bitErrorRate

	matches, sum := 0, 0
	for _, segment := range m.Segments {
		lowest := math.MaxInt
		for _, candidate := range other.Segments {
			d, err := segment.Distance(candidate)
			if err != nil {
				return 0, err
			}
			lowest = min(lowest, d)
		}
		if float64(lowest) > cutoff {
			continue
		}
		matches++
		sum += lowest
	}

	maxDifference := float64(len(m.Segments))
	if matches == 0 {
		return maxDifference, nil
	}
	tieBreaker := float64(sum) / float64(matches*bitLen)
	return maxDifference - (float64(matches) - tieBreaker), nil
}

// segmentationPixels returns the smoothed greyscale image used to find segments,
// row-major, segmentationSize pixels square
func segmentationPixels(img image.Image) []uint8 {
	small := imaging.Resize(imaging.Grayscale(img), segmentationSize, segmentationSize, imaging.Lanczos)
	blurred := imaging.Blur(small, segmentBlur)

	pixels := make([]uint8, segmentationSize*segmentationSize)
	for y := 0; y < segmentationSize; y++ {
		for x := 0; x < segmentationSize; x++ {
			pixels[y*segmentationSize+x] = blurred.Pix[y*blurred.Stride+x*4]
		}
	}
	return medianFilter(pixels, segmentationSize, segmentationSize)
}

// medianFilter applies a 3x3 median, clamping at the borders
func medianFilter(pixels []uint8, width, height int) []uint8 {
	out := make([]uint8, len(pixels))
	window := make([]uint8, 0, 9)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx := min(max(x+dx, 0), width-1)
					ny := min(max(y+dy, 0), height-1)
					window = append(window, pixels[ny*width+nx])
				}
			}
			slices.Sort(window)
			out[y*width+x] = window[4]
		}
	}
	return out
}

// findSegments returns the bounding boxes of the 4-connected regions above the
// threshold ("hills") followed by those at or below it ("valleys"), keeping regions
// larger than minSegmentSize. Regions are discovered in row-major order.
func findSegments(pixels []uint8, width, height int) []image.Rectangle {
	hill := make([]bool, len(pixels))
	for i, p := range pixels {
		hill[i] = p > segmentThreshold
	}

	assigned := make([]bool, len(pixels))
	var boxes []image.Rectangle
	queue := make([]int, 0, len(pixels))

	for _, wantHill := range []bool{true, false} {
		for start := range pixels {
			if assigned[start] || hill[start] != wantHill {
				continue
			}

			assigned[start] = true
			queue = append(queue[:0], start)
			box := image.Rect(start%width, start/width, start%width+1, start/width+1)
			size := 0

			for len(queue) > 0 {
				i := queue[0]
				queue = queue[1:]
				size++

				x, y := i%width, i/width
				box = box.Union(image.Rect(x, y, x+1, y+1))

				for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
					nx, ny := n[0], n[1]
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					j := ny*width + nx
					if assigned[j] || hill[j] != wantHill {
						continue
					}
					assigned[j] = true
					queue = append(queue, j)
				}
			}

			if size > minSegmentSize {
				boxes = append(boxes, box)
			}
		}
	}
	return boxes
}
