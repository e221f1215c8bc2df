package matching

import (
	"context"
	"errors"
	"fmt"

	"gallerydiff/config"
	"gallerydiff/logging"
	"gallerydiff/types"
)

// Strategy names reported in the solvedBy field
const (
	StrategyPHash         = "pHash"
	StrategyCropResistant = "cropResistantHash"
)

// ErrInvalidPipeline is returned for strategy lists that cannot produce a full changelist
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Strategy is one matching pass. With several oracles their matrices are averaged
// into a single cost basis.
type Strategy struct {
	Name      string
	Oracles   []Oracle
	MaxAngle  int
	Threshold float64
	// Final strategies report every image still unmatched as removed or added
	Final bool
	// Release, when set, runs once the strategy's matrices are built and drops
	// whatever per-image state its oracles cache
	Release func()
}

// Oracles holds the hash capabilities the default pipeline is built from
type Oracles struct {
	PHash         Oracle
	CropResistant []Oracle
	// Release clears the oracles' hash caches; it is called after every strategy
	Release func()
}

// Pipeline runs strategies in order, shrinking the galleries between them
type Pipeline struct {
	builder    *MatrixBuilder
	strategies []Strategy
}

// NewPipeline builds the two-pass pipeline: a rotation/flip tolerant pHash pass followed
// by a final crop-resistant pass without rotation sweep.
func NewPipeline(cfg config.Matching, transformer Transformer, oracles Oracles, observer Observer) (*Pipeline, error) {
	builder := &MatrixBuilder{
		Transformer: transformer,
		Workers:     cfg.Workers,
		MaxDistance: cfg.MaxDistance,
		AngleStep:   cfg.AngleStep,
		Observer:    observer,
	}

	var phash []Oracle
	if oracles.PHash != nil {
		phash = []Oracle{oracles.PHash}
	}

	return NewPipelineWith(builder,
		Strategy{
			Name:      StrategyPHash,
			Oracles:   phash,
			MaxAngle:  cfg.MaxAngle,
			Threshold: cfg.PHashThreshold,
			Release:   oracles.Release,
		},
		Strategy{
			Name:      StrategyCropResistant,
			Oracles:   oracles.CropResistant,
			MaxAngle:  0,
			Threshold: cfg.CropThreshold,
			Final:     true,
			Release:   oracles.Release,
		},
	)
}

// NewPipelineWith assembles a pipeline from explicit strategies. Exactly the last
// strategy must be final.
func NewPipelineWith(builder *MatrixBuilder, strategies ...Strategy) (*Pipeline, error) {
	if builder == nil {
		return nil, fmt.Errorf("%w: nil matrix builder", ErrInvalidPipeline)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("%w: no strategies", ErrInvalidPipeline)
	}
	for i, s := range strategies {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: strategy %d has no name", ErrInvalidPipeline, i)
		}
		if len(s.Oracles) == 0 {
			return nil, fmt.Errorf("%w: strategy %s has no oracle", ErrInvalidPipeline, s.Name)
		}
		for _, o := range s.Oracles {
			if o == nil {
				return nil, fmt.Errorf("%w: strategy %s has a nil oracle", ErrInvalidPipeline, s.Name)
			}
		}
		last := i == len(strategies)-1
		if s.Final != last {
			return nil, fmt.Errorf("%w: only the last strategy may be final (%s)", ErrInvalidPipeline, s.Name)
		}
	}
	return &Pipeline{builder: builder, strategies: strategies}, nil
}

// Strategies returns the strategies in execution order
func (p *Pipeline) Strategies() []Strategy {
	return append([]Strategy(nil), p.strategies...)
}

// Run matches the galleries and returns the changelist. Every image of both galleries
// appears in exactly one entry.
func (p *Pipeline) Run(ctx context.Context, reference, target types.Gallery) (types.Changelist, error) {
	remainingReference, remainingTarget := reference, target
	var changelist types.Changelist

	for _, strategy := range p.strategies {
		matches, err := p.Match(ctx, strategy, remainingReference, remainingTarget)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strategy.Name, err)
		}
		logging.LogInfo("%s matched %d pairs (%d reference, %d target images considered)",
			strategy.Name, len(matches), len(remainingReference), len(remainingTarget))

		remainingReference, remainingTarget = GalleriesWithoutMatches(remainingReference, remainingTarget, matches)
		changelist = append(changelist,
			GenerateChangelist(remainingReference, remainingTarget, matches, strategy.Name, strategy.Final)...)
	}

	if err := CheckPartition(reference, target, changelist); err != nil {
		return nil, err
	}
	return changelist, nil
}

// Match runs a single strategy and returns the accepted matches in reference order
func (p *Pipeline) Match(ctx context.Context, strategy Strategy, reference, target types.Gallery) ([]types.Match, error) {
	if len(reference) == 0 || len(target) == 0 {
		return nil, nil
	}

	matrices, err := p.buildMatrices(ctx, strategy, reference, target)
	if err != nil {
		return nil, err
	}

	matrix := matrices[0]
	if len(matrices) > 1 {
		matrix, err = Average(matrices...)
		if err != nil {
			return nil, err
		}
	}

	assignments, err := Solve(costMatrix(matrix), p.builder.MaxDistance)
	if err != nil {
		return nil, err
	}

	var matches []types.Match
	for _, a := range assignments {
		cell := matrix[a.Row][a.Col]
		if !cell.Resolved() {
			continue
		}
		if cell.Distance <= strategy.Threshold {
			matches = append(matches, types.Match{
				Reference: cell.Reference,
				Target:    cell.Target,
				Distance:  cell.Distance,
			})
		} else {
			logging.DebugLog("%s rejected %s <-> %s at distance %.4f (threshold %.4f)",
				strategy.Name, cell.Reference, cell.Target, cell.Distance, strategy.Threshold)
		}
	}
	return matches, nil
}

// buildMatrices builds one matrix per oracle of the strategy, then releases the
// oracles' caches
func (p *Pipeline) buildMatrices(ctx context.Context, strategy Strategy, reference, target types.Gallery) ([]types.DistanceMatrix, error) {
	if strategy.Release != nil {
		defer strategy.Release()
	}

	matrices := make([]types.DistanceMatrix, 0, len(strategy.Oracles))
	for i, oracle := range strategy.Oracles {
		matrix, err := p.builder.Build(ctx, reference, target, oracle, strategy.MaxAngle)
		if err != nil {
			return nil, fmt.Errorf("oracle %d: %w", i, err)
		}
		matrices = append(matrices, matrix)
	}
	return matrices, nil
}
