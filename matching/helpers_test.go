package matching

import (
	"image"
	"sync"
	"sync/atomic"

	"gallerydiff/types"
)

// taggedImage lets fake oracles know which file and variant they are looking at
type taggedImage struct {
	image.Image
	name    string
	variant types.TransformVariant
}

func tag(img image.Image) *taggedImage {
	return img.(*taggedImage)
}

func newGallery(names ...string) types.Gallery {
	gallery := make(types.Gallery, len(names))
	for i, name := range names {
		gallery[i] = types.GalleryImage{
			Filename: name,
			Content:  &taggedImage{Image: image.NewGray(image.Rect(0, 0, 1, 1)), name: name},
		}
	}
	return gallery
}

type tagTransformer struct {
	calls atomic.Int64
}

func (tt *tagTransformer) Apply(img image.Image, variant types.TransformVariant) (image.Image, error) {
	tt.calls.Add(1)
	src := tag(img)
	return &taggedImage{Image: src.Image, name: src.name, variant: variant}, nil
}

type countingOracle struct {
	calls    atomic.Int64
	distance func(reference, target string, variant types.TransformVariant) (float64, error)
}

func (c *countingOracle) Oracle() Oracle {
	return func(reference, target image.Image) (float64, error) {
		c.calls.Add(1)
		r, t := tag(reference), tag(target)
		return c.distance(r.name, t.name, t.variant)
	}
}

func constantOracle(d float64) *countingOracle {
	return &countingOracle{distance: func(string, string, types.TransformVariant) (float64, error) {
		return d, nil
	}}
}

type recordingObserver struct {
	mu       sync.Mutex
	label    string
	total    int
	advanced int
	finished bool
}

func (o *recordingObserver) Start(label string, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.label, o.total = label, total
}

func (o *recordingObserver) Advance(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.advanced += n
}

func (o *recordingObserver) Finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = true
}
