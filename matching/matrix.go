package matching

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"gallerydiff/logging"
	"gallerydiff/types"
)

var (
	// ErrInvalidDistance is returned when an oracle reports a negative, NaN or infinite distance
	ErrInvalidDistance = errors.New("oracle returned an invalid distance")
	ErrNoTransformer   = errors.New("no transformer configured for a non-identity sweep")
)

// Oracle returns a non-negative dissimilarity between two normalized images.
// It must be deterministic and safe for concurrent use.
type Oracle func(reference, target image.Image) (float64, error)

// Transformer applies a geometric variant to an image without modifying the input
type Transformer interface {
	Apply(img image.Image, variant types.TransformVariant) (image.Image, error)
}

// Observer receives progress of a matrix build. Advance is called from worker goroutines.
type Observer interface {
	Start(label string, total int)
	Advance(n int)
	Finish()
}

// MatrixBuilder computes distance matrices between two galleries
type MatrixBuilder struct {
	Transformer Transformer
	// Workers bounds the number of concurrent transforms and comparisons; <= 0 means one per CPU
	Workers     int
	MaxDistance float64
	AngleStep   int
	Observer    Observer
}

func (b *MatrixBuilder) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.NumCPU()
}

// Build returns, for every (reference, target) pair, the lowest oracle distance over
// all variants of the sweep applied to the target image. Any transform or oracle
// failure aborts the whole build.
func (b *MatrixBuilder) Build(ctx context.Context, reference, target types.Gallery, oracle Oracle, maxAngle int) (types.DistanceMatrix, error) {
	matrix := types.NewDistanceMatrix(len(reference), len(target), b.MaxDistance)
	if len(reference) == 0 || len(target) == 0 {
		return matrix, nil
	}

	variants := Sweep(maxAngle, b.AngleStep)
	logging.DebugLog("Building %dx%d distance matrix over %d variants", len(reference), len(target), len(variants))

	baseline, err := b.transformGallery(ctx, reference, []types.TransformVariant{types.Identity()})
	if err != nil {
		return nil, fmt.Errorf("reference baseline: %w", err)
	}
	transformed, err := b.transformGallery(ctx, target, variants)
	if err != nil {
		return nil, err
	}

	distances, err := b.compare(ctx, baseline[0], transformed, variants, oracle, reference.Filenames(), target.Filenames())
	if err != nil {
		return nil, err
	}

	for r, referenceImage := range reference {
		for v := range variants {
			for t, targetImage := range target {
				potential := distances[v][r][t]
				if potential < matrix[r][t].Distance {
					matrix[r][t] = types.DistanceCell{
						Distance:  potential,
						Reference: referenceImage.Filename,
						Target:    targetImage.Filename,
					}
				}
			}
		}
	}

	return matrix, nil
}

// transformGallery returns one transformed copy of the gallery contents per variant
func (b *MatrixBuilder) transformGallery(ctx context.Context, gallery types.Gallery, variants []types.TransformVariant) ([][]image.Image, error) {
	out := make([][]image.Image, len(variants))
	for v := range out {
		out[v] = make([]image.Image, len(gallery))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())

	for v, variant := range variants {
		for i, img := range gallery {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if b.Transformer == nil {
					if !variant.IsIdentity() {
						return ErrNoTransformer
					}
					out[v][i] = img.Content
					return nil
				}
				result, err := b.Transformer.Apply(img.Content, variant)
				if err != nil {
					return fmt.Errorf("transform %s with %s: %w", img.Filename, variant, err)
				}
				out[v][i] = result
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// compare runs the oracle over every (variant, reference, target) triple. Each task
// writes only its own slot, so the result needs no locking.
func (b *MatrixBuilder) compare(ctx context.Context, reference []image.Image, targets [][]image.Image, variants []types.TransformVariant, oracle Oracle, referenceNames, targetNames []string) ([][][]float64, error) {
	distances := make([][][]float64, len(variants))
	for v := range distances {
		distances[v] = make([][]float64, len(reference))
		for r := range distances[v] {
			distances[v][r] = make([]float64, len(targets[v]))
		}
	}

	total := len(variants) * len(reference) * len(targets[0])
	if b.Observer != nil {
		b.Observer.Start("comparing", total)
		defer b.Observer.Finish()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())

	for v := range variants {
		for r := range reference {
			for t := range targets[v] {
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					d, err := oracle(reference[r], targets[v][t])
					if err != nil {
						return fmt.Errorf("distance between %s and %s at %s: %w", referenceNames[r], targetNames[t], variants[v], err)
					}
					if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
						return fmt.Errorf("distance between %s and %s at %s: %w (%v)", referenceNames[r], targetNames[t], variants[v], ErrInvalidDistance, d)
					}
					distances[v][r][t] = d
					if b.Observer != nil {
						b.Observer.Advance(1)
					}
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return distances, nil
}
