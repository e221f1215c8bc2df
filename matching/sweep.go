// Package matching pairs the images of a reference gallery with the images of a
// target gallery and turns the pairing into a changelist.
//
// Distances come from pluggable oracles. For every strategy the target gallery is
// swept through a set of rotations and mirrorings, the lowest distance per pair is
// kept, and a minimum-cost assignment decides which pairs are accepted. Strategies
// run in order and each one only sees the images the previous ones left unmatched.
package matching

import "gallerydiff/types"

// DefaultAngleStep is the rotation step of the sweep in degrees
const DefaultAngleStep = 5

// Sweep lists the variants tried for every target image: angles -maxAngle..maxAngle
// by step, first without and then with a horizontal flip. maxAngle 0 yields only
// the identity.
func Sweep(maxAngle, step int) []types.TransformVariant {
	if maxAngle < 0 {
		maxAngle = -maxAngle
	}
	if maxAngle == 0 {
		return []types.TransformVariant{types.Identity()}
	}
	if step <= 0 {
		step = DefaultAngleStep
	}

	var angles []int
	for angle := -maxAngle; angle <= maxAngle; angle += step {
		angles = append(angles, angle)
	}

	variants := make([]types.TransformVariant, 0, 2*len(angles))
	for _, flip := range []bool{false, true} {
		for _, angle := range angles {
			variants = append(variants, types.TransformVariant{Angle: angle, HorizontalFlip: flip})
		}
	}
	return variants
}
