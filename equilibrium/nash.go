// Package equilibrium enumerates Nash equilibria of general-sum
// normal-form games given as one payoff tensor per player.
package equilibrium

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/psro/payoff"
)

var (
	ErrUnsupportedGame = errors.New("equilibrium: game not supported by backend")
	ErrNoEquilibrium   = errors.New("equilibrium: no equilibrium found")
	ErrUnknownBackend  = errors.New("equilibrium: unknown backend")
	ErrUnknownMode     = errors.New("equilibrium: unknown mode")
	ErrInvalidGame     = errors.New("equilibrium: invalid game")
)

// Tolerance used for best-response and non-negativity checks.
const Tolerance = 1e-9

// Backend selects the algorithm used to search for equilibria.
type Backend int

const (
	// Support enumeration over equal-size supports. Two players only.
	EnumMixed Backend = iota
	// Enumeration of pure strategy profiles. Any number of players.
	EnumPure
	// Minimization of the Lyapunov function from several starting points.
	// Any number of players.
	Liap
)

var backendStr = [...]string{
	"enummixed",
	"enumpure",
	"liap",
}

func (b Backend) String() string {
	if int(b) < 0 || int(b) >= len(backendStr) {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return backendStr[b]
}

func ParseBackend(s string) (Backend, error) {
	for i, name := range backendStr {
		if name == s {
			return Backend(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownBackend, "%q", s)
}

// Mode selects which of the equilibria found are returned.
type Mode int

const (
	// The first equilibrium found.
	One Mode = iota
	// Every equilibrium found.
	All
	// Every pure strategy equilibrium.
	Pure
)

var modeStr = [...]string{
	"one",
	"all",
	"pure",
}

func (m Mode) String() string {
	if int(m) < 0 || int(m) >= len(modeStr) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeStr[m]
}

func ParseMode(s string) (Mode, error) {
	for i, name := range modeStr {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownMode, "%q", s)
}

// Solver searches a game, given as one payoff tensor per player, for
// Nash equilibria. Each equilibrium is one mixed strategy per player.
type Solver interface {
	Solve(payoffs []*payoff.Tensor, mode Mode) ([][][]float64, error)
}

var (
	_ Solver = Enumeration{}
	_ Solver = &Liapunov{}
)

// Solve searches the game for Nash equilibria with the default settings
// of backend. In mode One exactly one equilibrium is returned.
func Solve(payoffs []*payoff.Tensor, backend Backend, mode Mode) ([][][]float64, error) {
	s, err := NewSolver(backend)
	if err != nil {
		return nil, err
	}
	return s.Solve(payoffs, mode)
}

// NewSolver returns the Solver for backend with its default settings.
func NewSolver(backend Backend) (Solver, error) {
	switch backend {
	case EnumMixed, EnumPure:
		return Enumeration{Backend: backend}, nil
	case Liap:
		return &Liapunov{}, nil
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "%v", backend)
}

// Enumeration finds equilibria exactly, by support enumeration
// (EnumMixed) or by checking every pure profile (EnumPure).
type Enumeration struct {
	Backend Backend
}

func (e Enumeration) Solve(payoffs []*payoff.Tensor, mode Mode) ([][][]float64, error) {
	return search(payoffs, e.Backend, mode, func(firstOnly bool) ([][][]float64, error) {
		switch e.Backend {
		case EnumPure:
			return enumeratePure(payoffs, firstOnly), nil
		case EnumMixed:
			if len(payoffs) != 2 {
				return nil, errors.Wrapf(ErrUnsupportedGame,
					"%v requires 2 players, got %d", e.Backend, len(payoffs))
			}
			return enumerateSupports(payoffs[0].Matrix(), payoffs[1].Matrix(), firstOnly), nil
		}
		return nil, errors.Wrapf(ErrUnknownBackend, "%v", e.Backend)
	})
}

// search validates the game and mode, and runs fn unless only pure
// equilibria are requested.
func search(payoffs []*payoff.Tensor, backend Backend, mode Mode,
	fn func(firstOnly bool) ([][][]float64, error)) ([][][]float64, error) {
	if err := validateGame(payoffs); err != nil {
		return nil, err
	}

	var result [][][]float64
	var err error
	switch mode {
	case Pure:
		result = enumeratePure(payoffs, false)
	case One, All:
		result, err = fn(mode == One)
	default:
		return nil, errors.Wrapf(ErrUnknownMode, "%v", mode)
	}
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, errors.Wrapf(ErrNoEquilibrium, "backend %v, mode %v", backend, mode)
	}

	glog.V(2).Infof("Found %d equilibria with backend %v, mode %v", len(result), backend, mode)
	return result, nil
}

func validateGame(payoffs []*payoff.Tensor) error {
	if len(payoffs) == 0 {
		return errors.Wrap(ErrInvalidGame, "no payoff tensors")
	}

	shape := payoffs[0].Shape
	if len(shape) != len(payoffs) {
		return errors.Wrapf(ErrInvalidGame, "%d payoff tensors for a game of shape %v",
			len(payoffs), shape)
	}
	for player, t := range payoffs {
		if !t.SameShape(payoffs[0]) {
			return errors.Wrapf(ErrInvalidGame, "payoff tensor %d has shape %v, expected %v",
				player, t.Shape, shape)
		}
	}
	for _, d := range shape {
		if d == 0 {
			return errors.Wrapf(ErrInvalidGame, "empty strategy set in shape %v", shape)
		}
	}

	return nil
}

func containsEquilibrium(list [][][]float64, eq [][]float64, tol float64) bool {
	for _, other := range list {
		if equalProfiles(other, eq, tol) {
			return true
		}
	}
	return false
}

func equalProfiles(a, b [][]float64, tol float64) bool {
	for player := range a {
		for i := range a[player] {
			d := a[player][i] - b[player][i]
			if d > tol || d < -tol {
				return false
			}
		}
	}
	return true
}
