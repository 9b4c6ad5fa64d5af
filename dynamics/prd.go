// Package dynamics implements projected replicator dynamics (PRD) for
// N-player normal-form games, as introduced for PSRO in Lanctot et al.,
// "A Unified Game-Theoretic Approach to Multiagent Reinforcement Learning".
package dynamics

import (
	"math"
	"sort"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/timpalpant/psro/payoff"
)

var ErrInvalidParams = errors.New("dynamics: invalid parameters")

const (
	DefaultIterations = 100000
	DefaultDt         = 1e-3
	DefaultGamma      = 1e-6

	// Allowed deviation from 1 of the sum of an initial strategy.
	distributionTolerance = 1e-6
)

// Params are the configuration options for projected replicator dynamics.
// The zero value is valid and selects the defaults.
type Params struct {
	// Starting strategy for each player. Uniform if nil.
	InitialStrategies [][]float64
	// Number of replicator steps. DefaultIterations if 0.
	Iterations int
	// Step size. DefaultDt if 0.
	Dt float64
	// Minimum probability of every policy after projection. DefaultGamma if 0.
	Gamma float64
	// Number of final iterates that are averaged into the result.
	// All iterates if 0.
	AverageOverLastN int
	// Project by clamping and renormalizing instead of computing the exact
	// Euclidean projection onto the simplex.
	UseApprox bool
}

// WithDefaults returns a copy of p with zero-valued fields filled in.
func (p Params) WithDefaults() Params {
	if p.Iterations == 0 {
		p.Iterations = DefaultIterations
	}
	if p.Dt == 0 {
		p.Dt = DefaultDt
	}
	if p.Gamma == 0 {
		p.Gamma = DefaultGamma
	}
	if p.AverageOverLastN == 0 {
		p.AverageOverLastN = p.Iterations
	}
	return p
}

// Validate checks p (after defaults are applied) against a game
// with the given shape.
func (p Params) Validate(shape []int) error {
	p = p.WithDefaults()
	if p.Iterations < 0 {
		return errors.Wrapf(ErrInvalidParams, "iterations must be non-negative (0 selects the default), got %d", p.Iterations)
	}
	if p.Dt < 0 || math.IsNaN(p.Dt) || math.IsInf(p.Dt, 0) {
		return errors.Wrapf(ErrInvalidParams, "dt must be non-negative (0 selects the default), got %v", p.Dt)
	}
	if p.Gamma < 0 || math.IsNaN(p.Gamma) {
		return errors.Wrapf(ErrInvalidParams, "gamma must be non-negative (0 selects the default), got %v", p.Gamma)
	}
	if p.AverageOverLastN < 0 || p.AverageOverLastN > p.Iterations {
		return errors.Wrapf(ErrInvalidParams, "cannot average over last %d of %d iterations",
			p.AverageOverLastN, p.Iterations)
	}
	for _, d := range shape {
		if d > 0 && p.Gamma*float64(d) > 1 {
			return errors.Wrapf(ErrInvalidParams, "gamma %v too large for %d policies", p.Gamma, d)
		}
	}

	if p.InitialStrategies == nil {
		return nil
	}
	if len(p.InitialStrategies) != len(shape) {
		return errors.Wrapf(ErrInvalidParams, "%d initial strategies for %d players",
			len(p.InitialStrategies), len(shape))
	}
	for player, s := range p.InitialStrategies {
		if len(s) != shape[player] {
			return errors.Wrapf(ErrInvalidParams, "initial strategy for player %d has %d entries, expected %d",
				player, len(s), shape[player])
		}
		for _, x := range s {
			if x < 0 || math.IsNaN(x) {
				return errors.Wrapf(ErrInvalidParams, "initial strategy for player %d is not a distribution: %v",
					player, s)
			}
		}
		if total := floats.Sum(s); math.Abs(total-1) > distributionTolerance {
			return errors.Wrapf(ErrInvalidParams, "initial strategy for player %d sums to %v: %v",
				player, total, s)
		}
	}

	return nil
}

// ProjectedReplicatorDynamics runs PRD on the game with one payoff tensor
// per player and returns the average of the final iterates, one mixed
// strategy per player.
func ProjectedReplicatorDynamics(payoffs []*payoff.Tensor, params Params) ([][]float64, error) {
	if len(payoffs) == 0 {
		return nil, errors.Wrap(ErrInvalidParams, "no payoff tensors")
	}
	shape := payoffs[0].Shape
	if len(shape) != len(payoffs) {
		return nil, errors.Wrapf(ErrInvalidParams, "%d payoff tensors for a game of shape %v",
			len(payoffs), shape)
	}
	for player, t := range payoffs {
		if !t.SameShape(payoffs[0]) {
			return nil, errors.Wrapf(ErrInvalidParams, "payoff tensor %d has shape %v, expected %v",
				player, t.Shape, shape)
		}
	}
	if err := params.Validate(shape); err != nil {
		return nil, err
	}

	params = params.WithDefaults()
	strategies := initialStrategies(shape, params.InitialStrategies)
	averaged := make([][]float64, len(shape))
	for player, d := range shape {
		averaged[player] = make([]float64, d)
	}

	windowStart := params.Iterations - params.AverageOverLastN
	for i := 0; i < params.Iterations; i++ {
		strategies = step(payoffs, strategies, params.Dt, params.Gamma, params.UseApprox)
		if i >= windowStart {
			for player, s := range strategies {
				floats.Add(averaged[player], s)
			}
		}
	}

	for _, s := range averaged {
		floats.Scale(1/float64(params.AverageOverLastN), s)
	}

	glog.V(2).Infof("PRD after %d iterations: %v", params.Iterations, averaged)
	return averaged, nil
}

func initialStrategies(shape []int, initial [][]float64) [][]float64 {
	result := make([][]float64, len(shape))
	for player, d := range shape {
		if initial != nil {
			result[player] = append([]float64(nil), initial[player]...)
			continue
		}

		result[player] = make([]float64, d)
		for i := range result[player] {
			result[player][i] = 1 / float64(d)
		}
	}
	return result
}

// step performs one simultaneous replicator update for all players.
func step(payoffs []*payoff.Tensor, strategies [][]float64, dt, gamma float64, useApprox bool) [][]float64 {
	result := make([][]float64, len(strategies))
	for player, current := range strategies {
		values := payoffs[player].PartialDot(strategies, player)
		averageReturn := floats.Dot(values, current)

		updated := make([]float64, len(current))
		for i, x := range current {
			updated[i] = x + dt*x*(values[i]-averageReturn)
		}

		if useApprox {
			result[player] = approxSimplexProjection(updated, gamma)
		} else {
			result[player] = simplexProjection(updated, gamma)
		}
	}
	return result
}

// simplexProjection computes the Euclidean projection of v onto the
// probability simplex, then raises every entry to at least gamma.
func simplexProjection(v []float64, gamma float64) []float64 {
	u := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	// theta is the threshold for the largest rho such that
	// u[rho] + (1 - sum(u[:rho+1])) / (rho+1) > 0.
	cumSum := 0.0
	theta := 0.0
	for i, x := range u {
		cumSum += x
		t := (1 - cumSum) / float64(i+1)
		if x+t <= 0 {
			break
		}
		theta = t
	}

	result := make([]float64, len(v))
	for i, x := range v {
		result[i] = math.Max(x+theta, gamma)
	}
	return result
}

// approxSimplexProjection raises every entry of v to at least gamma and
// renormalizes.
func approxSimplexProjection(v []float64, gamma float64) []float64 {
	result := make([]float64, len(v))
	for i, x := range v {
		result[i] = math.Max(x, gamma)
	}
	floats.Scale(1/floats.Sum(result), result)
	return result
}
