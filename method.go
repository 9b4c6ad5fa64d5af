package psro

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/timpalpant/psro/equilibrium"
	"github.com/timpalpant/psro/matrixgame"
)

var (
	ErrUnsupported            = errors.New("psro: unsupported game for meta-solver")
	ErrDegenerateDistribution = errors.New("psro: distribution has no positive mass")
	ErrEmptyPopulation        = errors.New("psro: empty policy population")
	ErrUnknownMethod          = errors.New("psro: unknown meta-solver method")
	ErrInvalidMetaGame        = errors.New("psro: invalid meta-game")
)

// Method identifies a meta-strategy solver.
type Method int

const (
	// Uniform distribution over each population.
	Uniform Method = iota
	// Softmax over policy indices, favoring the most recent policies.
	UniformBiased
	// Exact Nash equilibrium of a two-player zero-sum meta-game.
	Nash
	// Nash equilibria of a general-sum meta-game.
	GeneralNash
	// Projected replicator dynamics.
	PRD
	// All mass on the newest policy (self-play).
	SelfPlay
)

var methodStr = [...]string{
	"uniform",
	"uniform_biased",
	"nash",
	"general_nash",
	"prd",
	"sp",
}

func (m Method) String() string {
	if int(m) < 0 || int(m) >= len(methodStr) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodStr[m]
}

// ParseMethod returns the Method with the given symbolic name.
func ParseMethod(name string) (Method, error) {
	for i, s := range methodStr {
		if s == name {
			return Method(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownMethod, "%q", name)
}

// Methods returns every available Method.
func Methods() []Method {
	result := make([]Method, len(methodStr))
	for i := range result {
		result[i] = Method(i)
	}
	return result
}

// MetaSolver computes a meta-strategy from the current PSRO state.
type MetaSolver interface {
	Method() Method
	// Solve computes one distribution over policies per player. If
	// returnJoint is set the result also carries the joint distribution
	// for each profile.
	Solve(state State, returnJoint bool) (*Result, error)
}

var (
	_ MetaSolver = uniformSolver{}
	_ MetaSolver = uniformBiasedSolver{}
	_ MetaSolver = &nashSolver{}
	_ MetaSolver = &generalNashSolver{}
	_ MetaSolver = prdSolver{}
	_ MetaSolver = selfPlaySolver{}
)

// New returns the MetaSolver for m. The Nash method uses the exact
// linear programming solver.
func New(m Method) (MetaSolver, error) {
	switch m {
	case Uniform:
		return uniformSolver{}, nil
	case UniformBiased:
		return uniformBiasedSolver{}, nil
	case Nash:
		return NewNashSolver(&matrixgame.LinearProgram{}), nil
	case GeneralNash:
		return &generalNashSolver{}, nil
	case PRD:
		return prdSolver{}, nil
	case SelfPlay:
		return selfPlaySolver{}, nil
	}

	return nil, errors.Wrapf(ErrUnknownMethod, "%v", m)
}

// Lookup returns the MetaSolver registered under name.
func Lookup(name string) (MetaSolver, error) {
	m, err := ParseMethod(name)
	if err != nil {
		return nil, err
	}
	return New(m)
}

// NewNashSolver returns a Nash MetaSolver backed by the given zero-sum
// matrix game solver.
func NewNashSolver(zs matrixgame.ZeroSumSolver) MetaSolver {
	return &nashSolver{zeroSum: zs}
}

// NewGeneralNashSolver returns a GeneralNash MetaSolver that searches for
// equilibria with s instead of the backend selected in Config. The mode
// is still taken from Config.
func NewGeneralNashSolver(s equilibrium.Solver) MetaSolver {
	return &generalNashSolver{engine: s}
}
