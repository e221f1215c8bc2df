package hashing

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrBinBits is returned for a colour hash bin width outside 1..16
var ErrBinBits = errors.New("bin bits out of range")

// Channel values are on a 0..255 scale
const (
	blackIntensity   = 256 / 8
	graySaturation   = 256 / 3
	brightSaturation = 256 * 2 / 3
	hueBins          = 6
	hueBinWidth      = 255.0 / hueBins
)

// ColorHashBins is the number of rows in a colour hash: black, gray, then faint and
// bright colours split by hue
const ColorHashBins = 2 + 2*hueBins

// ColorHash summarises the colour distribution of an image. Every pixel falls in one
// of the black, gray, faint-colour or bright-colour classes, colours being further
// split by hue; each bin fraction is quantised to binBits bits.
func ColorHash(img image.Image, binBits int) (Hash, error) {
	if binBits < 1 || binBits > 16 {
		return Hash{}, fmt.Errorf("%w: %d", ErrBinBits, binBits)
	}

	src := imaging.Clone(img)
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	total := width * height
	if total == 0 {
		return Hash{}, ErrEmptyImage
	}

	var black, gray, colors int
	var faint, bright [hueBins]int
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < width; x++ {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]

			intensity := (int(r)*299 + int(g)*587 + int(b)*114) / 1000
			if intensity < blackIntensity {
				black++
				continue
			}

			h, s, _ := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hsv()
			saturation := int(s * 255)
			if saturation < graySaturation {
				gray++
				continue
			}

			colors++
			bin := min(int(h/360*255/hueBinWidth), hueBins-1)
			switch {
			case saturation < brightSaturation:
				faint[bin]++
			case saturation > brightSaturation:
				bright[bin]++
			}
		}
	}

	maxValue := 1 << binBits
	quantise := func(fraction float64) int {
		return min(maxValue-1, int(fraction*float64(maxValue)))
	}

	colorTotal := float64(max(1, colors))
	values := make([]int, 0, ColorHashBins)
	values = append(values,
		quantise(float64(black)/float64(total)),
		quantise(float64(gray)/float64(total)),
	)
	for _, count := range faint {
		values = append(values, quantise(float64(count)/colorTotal))
	}
	for _, count := range bright {
		values = append(values, quantise(float64(count)/colorTotal))
	}

	bits := make([]bool, 0, len(values)*binBits)
	for _, v := range values {
		for i := 0; i < binBits; i++ {
			bits = append(bits, (v>>(binBits-i-1))%(1<<(binBits-i)) > 0)
		}
	}
	return Hash{bits: bits, rows: len(values)}, nil
}
