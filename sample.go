package psro

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SampleProfile draws one policy index per player from profile, as
// PSRO does when choosing which opponent policies to train against.
func SampleProfile(src rand.Source, profile Profile) []int {
	result := make([]int, len(profile))
	for player, marginal := range profile {
		result[player] = int(distuv.NewCategorical(marginal, src).Rand())
	}
	return result
}

// SampleJoint draws a joint policy profile from a joint distribution
// over the populations of the given sizes, returning one policy index
// per player.
func SampleJoint(src rand.Source, joint []float64, sizes []int) []int {
	flat := int(distuv.NewCategorical(joint, src).Rand())
	result := make([]int, len(sizes))
	for player := len(sizes) - 1; player >= 0; player-- {
		result[player] = flat % sizes[player]
		flat /= sizes[player]
	}
	return result
}
