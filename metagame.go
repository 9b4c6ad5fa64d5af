package psro

import (
	"math"

	"github.com/pkg/errors"

	"github.com/timpalpant/psro/dynamics"
	"github.com/timpalpant/psro/equilibrium"
	"github.com/timpalpant/psro/payoff"
)

// MetaGame is the empirical game between the policy populations of all
// players: Payoffs[p] holds player p's expected payoff for every joint
// choice of policies, indexed by one axis per player.
type MetaGame struct {
	Payoffs []*payoff.Tensor
	// Set when the game was built from a single matrix, in which case
	// player 1's payoffs are the negation of player 0's.
	ZeroSum bool
}

// NewMetaGame validates that payoffs describe a game with one payoff
// tensor per player, all of identical shape.
func NewMetaGame(payoffs ...*payoff.Tensor) (*MetaGame, error) {
	if len(payoffs) == 0 {
		return nil, errors.Wrap(ErrInvalidMetaGame, "no payoff tensors")
	}

	shape := payoffs[0].Shape
	if len(shape) != len(payoffs) {
		return nil, errors.Wrapf(ErrInvalidMetaGame,
			"%d payoff tensors for a %d-player game", len(payoffs), len(shape))
	}
	for player, t := range payoffs {
		if !t.SameShape(payoffs[0]) {
			return nil, errors.Wrapf(ErrInvalidMetaGame,
				"payoff tensor for player %d has shape %v, expected %v", player, t.Shape, shape)
		}
	}

	return &MetaGame{Payoffs: payoffs}, nil
}

// NewZeroSumMetaGame builds the two-player zero-sum game in which the
// row player receives a[i][j] and the column player -a[i][j]. A ragged
// or empty matrix is reported with cause ErrInvalidMetaGame.
func NewZeroSumMetaGame(a [][]float64) (*MetaGame, error) {
	p0, err := payoff.FromMatrix(a)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidMetaGame, "%v", err)
	}

	return &MetaGame{
		Payoffs: []*payoff.Tensor{p0, p0.Neg()},
		ZeroSum: true,
	}, nil
}

func (g *MetaGame) NumPlayers() int {
	return len(g.Payoffs)
}

// Shape returns the population size of every player.
func (g *MetaGame) Shape() []int {
	return append([]int(nil), g.Payoffs[0].Shape...)
}

// IsZeroSum reports whether the payoffs of all players sum to zero
// (within tol) for every joint policy choice.
func (g *MetaGame) IsZeroSum(tol float64) bool {
	if g.ZeroSum {
		return true
	}

	for i := range g.Payoffs[0].Data {
		total := 0.0
		for _, t := range g.Payoffs {
			total += t.Data[i]
		}
		if math.Abs(total) > tol {
			return false
		}
	}
	return true
}

// GeneralNashParams select the equilibrium search of the general_nash method.
type GeneralNashParams struct {
	Backend equilibrium.Backend
	Mode    equilibrium.Mode
}

// Config holds the solver-specific options of every meta-solver.
// Each method reads only its own field.
type Config struct {
	PRD         dynamics.Params
	GeneralNash GeneralNashParams
}

// State is the read-only view of a PSRO training loop consumed by the
// meta-solvers.
type State interface {
	// Number of policies in each player's population.
	PopulationSizes() []int
	MetaGame() *MetaGame
	Config() Config
}

// StaticState is a State with fixed contents.
type StaticState struct {
	Sizes []int
	Game  *MetaGame
	Cfg   Config
}

var _ State = &StaticState{}

// NewStaticState returns the State of game, with population sizes taken
// from the shape of its payoff tensors.
func NewStaticState(game *MetaGame, cfg Config) *StaticState {
	return &StaticState{
		Sizes: game.Shape(),
		Game:  game,
		Cfg:   cfg,
	}
}

func (s *StaticState) PopulationSizes() []int {
	return s.Sizes
}

func (s *StaticState) MetaGame() *MetaGame {
	return s.Game
}

func (s *StaticState) Config() Config {
	return s.Cfg
}
