package matching

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallerydiff/config"
	"gallerydiff/types"
)

func testConfig() config.Matching {
	cfg := config.Default().Matching
	cfg.Workers = 4
	return cfg
}

func newTestPipeline(t *testing.T, phash *countingOracle, crop ...*countingOracle) *Pipeline {
	t.Helper()
	oracles := Oracles{PHash: phash.Oracle()}
	for _, c := range crop {
		oracles.CropResistant = append(oracles.CropResistant, c.Oracle())
	}
	pipeline, err := NewPipeline(testConfig(), &tagTransformer{}, oracles, nil)
	require.NoError(t, err)
	return pipeline
}

func TestRunRotatedAndUnchangedImages(t *testing.T) {
	phash := &countingOracle{distance: func(reference, target string, v types.TransformVariant) (float64, error) {
		switch {
		case reference == "A" && target == "A2" && v.IsIdentity():
			return 0, nil
		case reference == "B" && target == "B2" && v == (types.TransformVariant{Angle: 10}):
			return 8, nil
		}
		return 30, nil
	}}
	crop := []*countingOracle{constantOracle(1), constantOracle(1)}

	changelist, err := newTestPipeline(t, phash, crop...).Run(context.Background(),
		newGallery("A", "B", "C"), newGallery("A2", "B2", "C2"))
	require.NoError(t, err)

	assert.Equal(t, types.Changelist{
		{Resolution: types.ResolutionUnchanged, Reference: "A", Target: "A2", SolvedBy: StrategyPHash},
		{Resolution: types.ResolutionLightChanges, Reference: "B", Target: "B2", Distance: 8, SolvedBy: StrategyPHash},
		{Resolution: types.ResolutionRemoved, Reference: "C"},
		{Resolution: types.ResolutionAdded, Target: "C2"},
	}, changelist)

	// the crop pass only sees the leftover pair, without a rotation sweep
	assert.Equal(t, int64(1), crop[0].calls.Load())
	assert.Equal(t, int64(1), crop[1].calls.Load())
}

func TestRunCropPassRescuesLeftovers(t *testing.T) {
	phash := constantOracle(40)
	crop := &countingOracle{distance: func(reference, target string, _ types.TransformVariant) (float64, error) {
		if reference == "C" && target == "C2" {
			return 0.05, nil
		}
		return 0.8, nil
	}}

	changelist, err := newTestPipeline(t, phash, crop).Run(context.Background(),
		newGallery("C", "D"), newGallery("C2"))
	require.NoError(t, err)

	assert.Equal(t, types.Changelist{
		{Resolution: types.ResolutionLightChanges, Reference: "C", Target: "C2", Distance: 0.05, SolvedBy: StrategyCropResistant},
		{Resolution: types.ResolutionRemoved, Reference: "D"},
	}, changelist)
}

func TestRunEmptyReference(t *testing.T) {
	phash := constantOracle(0)
	crop := constantOracle(0)

	changelist, err := newTestPipeline(t, phash, crop).Run(context.Background(), nil, newGallery("X"))
	require.NoError(t, err)
	assert.Equal(t, types.Changelist{types.Added("X")}, changelist)
	assert.Zero(t, phash.calls.Load())
	assert.Zero(t, crop.calls.Load())
}

func TestRunEmptyTarget(t *testing.T) {
	changelist, err := newTestPipeline(t, constantOracle(0), constantOracle(0)).Run(context.Background(),
		newGallery("A", "B"), nil)
	require.NoError(t, err)
	assert.Equal(t, types.Changelist{types.Removed("A"), types.Removed("B")}, changelist)
}

func TestRunPartitionsArbitraryGalleries(t *testing.T) {
	pseudo := func(reference, target string, v types.TransformVariant) (float64, error) {
		h := fnv.New32a()
		fmt.Fprintf(h, "%s|%s|%s", reference, target, v)
		return float64(h.Sum32() % 40), nil
	}
	phash := &countingOracle{distance: pseudo}
	crop := &countingOracle{distance: func(reference, target string, v types.TransformVariant) (float64, error) {
		d, _ := pseudo(reference, target, v)
		return d / 200, nil
	}}

	reference := newGallery("r1", "r2", "r3", "r4", "r5")
	target := newGallery("t1", "t2", "t3")

	changelist, err := newTestPipeline(t, phash, crop).Run(context.Background(), reference, target)
	require.NoError(t, err)
	require.NoError(t, CheckPartition(reference, target, changelist))

	for _, entry := range changelist {
		switch entry.Resolution {
		case types.ResolutionUnchanged:
			assert.Zero(t, entry.Distance)
		case types.ResolutionLightChanges:
			assert.Positive(t, entry.Distance)
			if entry.SolvedBy == StrategyPHash {
				assert.LessOrEqual(t, entry.Distance, 12.0)
			} else {
				assert.LessOrEqual(t, entry.Distance, 0.09)
			}
		}
	}
	pairs := changelist.Count(types.ResolutionUnchanged) + changelist.Count(types.ResolutionLightChanges)
	assert.Equal(t, len(reference)-pairs, changelist.Count(types.ResolutionRemoved))
	assert.Equal(t, len(target)-pairs, changelist.Count(types.ResolutionAdded))
}

func TestRunPropagatesOracleErrors(t *testing.T) {
	errBroken := errors.New("broken hash")
	phash := &countingOracle{distance: func(string, string, types.TransformVariant) (float64, error) {
		return 0, errBroken
	}}

	changelist, err := newTestPipeline(t, phash, constantOracle(0)).Run(context.Background(),
		newGallery("A"), newGallery("X"))
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), StrategyPHash)
	assert.Nil(t, changelist)
}

func TestNewPipelineValidation(t *testing.T) {
	builder := newBuilder(&tagTransformer{})
	oracle := constantOracle(0).Oracle()

	_, err := NewPipelineWith(nil, Strategy{Name: "x", Oracles: []Oracle{oracle}, Final: true})
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	_, err = NewPipelineWith(builder)
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	_, err = NewPipelineWith(builder, Strategy{Name: "x", Oracles: []Oracle{oracle}})
	assert.ErrorIs(t, err, ErrInvalidPipeline, "last strategy must be final")

	_, err = NewPipelineWith(builder,
		Strategy{Name: "x", Oracles: []Oracle{oracle}, Final: true},
		Strategy{Name: "y", Oracles: []Oracle{oracle}, Final: true})
	assert.ErrorIs(t, err, ErrInvalidPipeline, "only the last strategy may be final")

	_, err = NewPipelineWith(builder, Strategy{Name: "x", Oracles: []Oracle{nil}, Final: true})
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	_, err = NewPipeline(testConfig(), nil, Oracles{}, nil)
	assert.ErrorIs(t, err, ErrInvalidPipeline)

	pipeline, err := NewPipelineWith(builder, Strategy{Name: "x", Oracles: []Oracle{oracle}, Final: true})
	require.NoError(t, err)
	require.Len(t, pipeline.Strategies(), 1)
	assert.Equal(t, "x", pipeline.Strategies()[0].Name)
}

func TestDefaultPipelineStrategies(t *testing.T) {
	pipeline := newTestPipeline(t, constantOracle(0), constantOracle(0), constantOracle(0))
	strategies := pipeline.Strategies()
	require.Len(t, strategies, 2)

	assert.Equal(t, StrategyPHash, strategies[0].Name)
	assert.Equal(t, 30, strategies[0].MaxAngle)
	assert.Equal(t, 12.0, strategies[0].Threshold)
	assert.False(t, strategies[0].Final)

	assert.Equal(t, StrategyCropResistant, strategies[1].Name)
	assert.Zero(t, strategies[1].MaxAngle)
	assert.Equal(t, 0.09, strategies[1].Threshold)
	assert.True(t, strategies[1].Final)
	assert.Len(t, strategies[1].Oracles, 2)
}

func TestRunReleasesOracleCachesAfterEachStrategy(t *testing.T) {
	var releases atomic.Int64
	var releasedDuringPHash atomic.Bool

	phash := &countingOracle{distance: func(string, string, types.TransformVariant) (float64, error) {
		if releases.Load() > 0 {
			releasedDuringPHash.Store(true)
		}
		return 40, nil
	}}
	crop := constantOracle(0.05)

	oracles := Oracles{
		PHash:         phash.Oracle(),
		CropResistant: []Oracle{crop.Oracle()},
		Release:       func() { releases.Add(1) },
	}
	pipeline, err := NewPipeline(testConfig(), &tagTransformer{}, oracles, nil)
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), newGallery("A"), newGallery("A2"))
	require.NoError(t, err)

	assert.False(t, releasedDuringPHash.Load())
	assert.Equal(t, int64(2), releases.Load())
	assert.Positive(t, phash.calls.Load())
	assert.Equal(t, int64(1), crop.calls.Load())
}
