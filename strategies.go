package psro

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/psro/dynamics"
	"github.com/timpalpant/psro/equilibrium"
	"github.com/timpalpant/psro/matrixgame"
)

// Tolerance used when checking that a meta-game is zero-sum.
const zeroSumTolerance = 1e-9

type uniformSolver struct{}

func (uniformSolver) Method() Method { return Uniform }

func (uniformSolver) Solve(state State, returnJoint bool) (*Result, error) {
	sizes, err := populationSizes(state, Uniform)
	if err != nil {
		return nil, err
	}

	profile := make(Profile, len(sizes))
	for player, n := range sizes {
		profile[player] = uniformDistribution(n)
	}

	return single(Uniform, profile, returnJoint), nil
}

type uniformBiasedSolver struct{}

func (uniformBiasedSolver) Method() Method { return UniformBiased }

func (uniformBiasedSolver) Solve(state State, returnJoint bool) (*Result, error) {
	sizes, err := populationSizes(state, UniformBiased)
	if err != nil {
		return nil, err
	}

	profile := make(Profile, len(sizes))
	for player, n := range sizes {
		profile[player] = softmaxOnRange(n)
	}

	return single(UniformBiased, profile, returnJoint), nil
}

type nashSolver struct {
	zeroSum matrixgame.ZeroSumSolver
}

func (*nashSolver) Method() Method { return Nash }

func (n *nashSolver) Solve(state State, returnJoint bool) (*Result, error) {
	game, err := metaGame(state, Nash)
	if err != nil {
		return nil, err
	}

	if game.NumPlayers() != 2 {
		return nil, errors.Wrapf(ErrUnsupported,
			"%v works only for 2-player zero-sum games, but was invoked for a %d-player game",
			Nash, game.NumPlayers())
	}
	if !game.IsZeroSum(zeroSumTolerance) {
		return nil, errors.Wrapf(ErrUnsupported,
			"%v works only for 2-player zero-sum games, but payoffs do not sum to zero", Nash)
	}

	sol, err := n.zeroSum.SolveZeroSum(game.Payoffs[0].Matrix())
	if err != nil {
		return nil, err
	}

	profile := make(Profile, 2)
	for player, s := range [][]float64{sol.Row, sol.Col} {
		profile[player], err = Renormalize(s)
		if err != nil {
			return nil, errors.Wrapf(err, "player %d", player)
		}
	}

	glog.V(2).Infof("Zero-sum meta-game value: %v", sol.Value)
	return single(Nash, profile, returnJoint), nil
}

type generalNashSolver struct {
	// Equilibrium search to use instead of the backend selected in Config.
	engine equilibrium.Solver
}

func (*generalNashSolver) Method() Method { return GeneralNash }

func (g *generalNashSolver) Solve(state State, returnJoint bool) (*Result, error) {
	game, err := metaGame(state, GeneralNash)
	if err != nil {
		return nil, err
	}

	params := state.Config().GeneralNash
	engine := g.engine
	if engine == nil {
		engine, err = equilibrium.NewSolver(params.Backend)
		if err != nil {
			return nil, err
		}
	}

	equilibria, err := engine.Solve(game.Payoffs, params.Mode)
	if err != nil {
		return nil, err
	}
	if len(equilibria) == 0 {
		return nil, errors.Wrapf(equilibrium.ErrNoEquilibrium, "%v", GeneralNash)
	}

	profiles := make([]Profile, len(equilibria))
	for i, eq := range equilibria {
		profiles[i] = make(Profile, len(eq))
		for player, s := range eq {
			if profiles[i][player], err = Renormalize(s); err != nil {
				return nil, errors.Wrapf(err, "equilibrium %d, player %d", i, player)
			}
		}
	}

	if params.Mode == equilibrium.One {
		return single(GeneralNash, profiles[0], returnJoint), nil
	}

	glog.V(1).Infof("%v found %d equilibria", GeneralNash, len(profiles))
	return newResult(ProfileList, profiles, returnJoint), nil
}

type prdSolver struct{}

func (prdSolver) Method() Method { return PRD }

func (prdSolver) Solve(state State, returnJoint bool) (*Result, error) {
	game, err := metaGame(state, PRD)
	if err != nil {
		return nil, err
	}

	params := state.Config().PRD
	if err := params.Validate(game.Shape()); err != nil {
		return nil, err
	}

	strategies, err := dynamics.ProjectedReplicatorDynamics(game.Payoffs, params)
	if err != nil {
		return nil, err
	}

	// The gamma floor leaves the averaged iterates slightly off the simplex.
	profile := make(Profile, len(strategies))
	for player, s := range strategies {
		profile[player], err = Renormalize(s)
		if err != nil {
			return nil, errors.Wrapf(err, "player %d", player)
		}
	}

	return single(PRD, profile, returnJoint), nil
}

type selfPlaySolver struct{}

func (selfPlaySolver) Method() Method { return SelfPlay }

func (selfPlaySolver) Solve(state State, returnJoint bool) (*Result, error) {
	sizes, err := populationSizes(state, SelfPlay)
	if err != nil {
		return nil, err
	}

	profile := make(Profile, len(sizes))
	for player, n := range sizes {
		profile[player] = oneHotLast(n)
	}

	return single(SelfPlay, profile, returnJoint), nil
}

func populationSizes(state State, m Method) ([]int, error) {
	sizes := state.PopulationSizes()
	glog.V(1).Infof("Computing %v meta-strategy for populations of size %v", m, sizes)
	if len(sizes) == 0 {
		return nil, errors.Wrapf(ErrEmptyPopulation, "%v: no players", m)
	}
	for player, n := range sizes {
		if n <= 0 {
			return nil, errors.Wrapf(ErrEmptyPopulation, "%v: player %d has %d policies", m, player, n)
		}
	}
	return sizes, nil
}

// metaGame returns the meta-game of state after checking that it agrees
// with the population sizes.
func metaGame(state State, m Method) (*MetaGame, error) {
	sizes, err := populationSizes(state, m)
	if err != nil {
		return nil, err
	}

	game := state.MetaGame()
	if game == nil || game.NumPlayers() == 0 {
		return nil, errors.Wrapf(ErrInvalidMetaGame, "%v: no meta-game", m)
	}

	shape := game.Shape()
	if len(shape) != game.NumPlayers() || len(shape) != len(sizes) {
		return nil, errors.Wrapf(ErrInvalidMetaGame, "%v: meta-game of shape %v for populations %v",
			m, shape, sizes)
	}
	for player, n := range sizes {
		if shape[player] != n {
			return nil, errors.Wrapf(ErrInvalidMetaGame, "%v: meta-game of shape %v for populations %v",
				m, shape, sizes)
		}
	}

	return game, nil
}

func single(m Method, profile Profile, returnJoint bool) *Result {
	glog.V(2).Infof("%v meta-strategy: %v", m, profile)
	return newResult(SingleProfile, []Profile{profile}, returnJoint)
}
