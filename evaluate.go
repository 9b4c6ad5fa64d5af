package psro

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ExpectedPayoffs returns the expected payoff of every player when all
// players mix according to profile.
func ExpectedPayoffs(game *MetaGame, profile Profile) ([]float64, error) {
	if err := checkProfile(game, profile); err != nil {
		return nil, err
	}

	result := make([]float64, game.NumPlayers())
	for player, t := range game.Payoffs {
		result[player] = t.Dot(profile)
	}
	return result, nil
}

// NashConv returns the sum over players of the gain from deviating to
// a best response against the other players' marginals. It is zero
// exactly when profile is a Nash equilibrium of game.
func NashConv(game *MetaGame, profile Profile) (float64, error) {
	if err := checkProfile(game, profile); err != nil {
		return 0, err
	}

	total := 0.0
	for player, t := range game.Payoffs {
		values := t.PartialDot(profile, player)
		total += floats.Max(values) - floats.Dot(values, profile[player])
	}
	return total, nil
}

func checkProfile(game *MetaGame, profile Profile) error {
	shape := game.Shape()
	if len(profile) != len(shape) {
		return errors.Wrapf(ErrInvalidMetaGame, "profile for %d players in a %d-player game",
			len(profile), len(shape))
	}

	for player, marginal := range profile {
		if len(marginal) != shape[player] {
			return errors.Wrapf(ErrInvalidMetaGame, "player %d marginal has %d entries, expected %d",
				player, len(marginal), shape[player])
		}
		if math.Abs(floats.Sum(marginal)-1) > 1e-6 {
			return errors.Wrapf(ErrDegenerateDistribution, "player %d marginal sums to %v",
				player, floats.Sum(marginal))
		}
	}

	return nil
}
