package psro

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// MinPositiveProbability is the smallest probability treated as part of
// the support of a meta-strategy.
const MinPositiveProbability = 1e-8

// Renormalize replaces every negative entry of p with zero and rescales
// the result to sum to 1. It is used to repair small numerical errors
// in solver output. p is not modified.
func Renormalize(p []float64) ([]float64, error) {
	result := make([]float64, len(p))
	for i, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, errors.Wrapf(ErrDegenerateDistribution, "entry %d is %v", i, x)
		}
		result[i] = max(x, 0)
	}

	total := floats.Sum(result)
	if total <= 0 {
		return nil, errors.Wrapf(ErrDegenerateDistribution, "no positive mass in %v", p)
	}

	floats.Scale(1/total, result)
	return result, nil
}

// JointFromMarginals returns the outer product of the given marginals,
// flattened in row-major order: the last player's policy index varies
// fastest. This treats the players as independent, which is only
// bookkeeping and does not hold for correlated solutions.
func JointFromMarginals(marginals [][]float64) []float64 {
	if len(marginals) == 0 {
		return nil
	}

	result := append([]float64(nil), marginals[0]...)
	for _, m := range marginals[1:] {
		next := make([]float64, 0, len(result)*len(m))
		for _, x := range result {
			for _, y := range m {
				next = append(next, x*y)
			}
		}
		result = next
	}

	return result
}

// JointsFromProfiles expands every profile independently.
func JointsFromProfiles(profiles []Profile) [][]float64 {
	result := make([][]float64, len(profiles))
	for i, profile := range profiles {
		result[i] = JointFromMarginals(profile)
	}
	return result
}

func uniformDistribution(n int) []float64 {
	result := make([]float64, n)
	for i := range result {
		result[i] = 1.0 / float64(n)
	}
	return result
}

// softmaxOnRange returns softmax(0, 1, ..., n-1), which weights later
// policies exponentially more than earlier ones. For n above roughly 745
// the weights of the oldest policies underflow to exactly 0, so the
// sequence is only non-decreasing there.
func softmaxOnRange(n int) []float64 {
	result := make([]float64, n)
	maxValue := float64(n - 1)
	for i := range result {
		result[i] = math.Exp(float64(i) - maxValue)
	}
	floats.Scale(1/floats.Sum(result), result)
	return result
}

func oneHotLast(n int) []float64 {
	result := make([]float64, n)
	result[n-1] = 1
	return result
}

// support returns the indices of p with at least MinPositiveProbability.
func support(p []float64) []int {
	var result []int
	for i, x := range p {
		if x >= MinPositiveProbability {
			result = append(result, i)
		}
	}
	return result
}
