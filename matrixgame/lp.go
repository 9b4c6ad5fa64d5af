// Package matrixgame solves two-player zero-sum matrix games.
package matrixgame

import (
	"math"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var ErrInvalidMatrix = errors.New("matrixgame: invalid payoff matrix")

// DefaultTolerance is the simplex tolerance used when LinearProgram.Tolerance
// is 0. The simplex method cycles on degenerate programs (e.g. duplicated
// policies in the meta-game) without a positive tolerance.
const DefaultTolerance = 1e-10

// Solution is an equilibrium of a zero-sum matrix game.
type Solution struct {
	// Mixed strategy of the row (maximizing) player.
	Row []float64
	// Mixed strategy of the column (minimizing) player.
	Col []float64
	// Expected payoff to the row player.
	Value float64
}

// ZeroSumSolver computes an equilibrium of the zero-sum game in which the
// row player receives a[i][j] and the column player receives -a[i][j].
type ZeroSumSolver interface {
	SolveZeroSum(a [][]float64) (*Solution, error)
}

// LinearProgram solves zero-sum games exactly with the simplex method.
type LinearProgram struct {
	// Tolerance on the reduced costs used to stop the simplex iterations.
	// DefaultTolerance if 0.
	Tolerance float64
}

var _ ZeroSumSolver = &LinearProgram{}
var _ ZeroSumSolver = &FictitiousPlaySolver{}

func (l *LinearProgram) SolveZeroSum(a [][]float64) (*Solution, error) {
	if err := validateMatrix(a); err != nil {
		return nil, err
	}

	col, value, err := l.solveColumnPlayer(a)
	if err != nil {
		return nil, errors.Wrap(err, "solving for column player")
	}

	// The row player is the column player of the game -a^T.
	row, _, err := l.solveColumnPlayer(negTranspose(a))
	if err != nil {
		return nil, errors.Wrap(err, "solving for row player")
	}

	glog.V(3).Infof("LP solution: row=%v col=%v value=%v", row, col, value)
	return &Solution{Row: row, Col: col, Value: value}, nil
}

// solveColumnPlayer returns the minimax strategy of the column player of a
// and the value of the game to the row player.
//
// After shifting a so that every entry is positive the column player's
// problem is: maximize 1'w s.t. a w <= 1, w >= 0, with y = w / 1'w.
// Slack variables make the identity columns an initial feasible basis.
func (l *LinearProgram) solveColumnPlayer(a [][]float64) ([]float64, float64, error) {
	nRows, nCols := len(a), len(a[0])
	shift := 0.0
	if m := minEntry(a); m <= 0 {
		shift = 1 - m
	}

	constraints := mat.NewDense(nRows, nCols+nRows, nil)
	for i, row := range a {
		for j, v := range row {
			constraints.Set(i, j, v+shift)
		}
		constraints.Set(i, nCols+i, 1)
	}

	c := make([]float64, nCols+nRows)
	for j := 0; j < nCols; j++ {
		c[j] = -1
	}
	b := make([]float64, nRows)
	initialBasic := make([]int, nRows)
	for i := range b {
		b[i] = 1
		initialBasic[i] = nCols + i
	}

	tol := l.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}

	optF, optX, err := lp.Simplex(c, constraints, b, tol, initialBasic)
	if err != nil {
		return nil, 0, err
	}
	if optF >= 0 {
		return nil, 0, errors.Errorf("matrixgame: degenerate LP optimum %v", optF)
	}

	total := -optF
	strategy := make([]float64, nCols)
	for j := range strategy {
		strategy[j] = optX[j] / total
	}

	return strategy, 1/total - shift, nil
}

func validateMatrix(a [][]float64) error {
	if len(a) == 0 || len(a[0]) == 0 {
		return errors.Wrap(ErrInvalidMatrix, "empty matrix")
	}

	for i, row := range a {
		if len(row) != len(a[0]) {
			return errors.Wrapf(ErrInvalidMatrix, "row %d has %d columns, expected %d",
				i, len(row), len(a[0]))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Wrapf(ErrInvalidMatrix, "entry (%d, %d) is %v", i, j, v)
			}
		}
	}

	return nil
}

func minEntry(a [][]float64) float64 {
	result := math.Inf(1)
	for _, row := range a {
		for _, v := range row {
			result = math.Min(result, v)
		}
	}
	return result
}

func negTranspose(a [][]float64) [][]float64 {
	result := make([][]float64, len(a[0]))
	for j := range result {
		result[j] = make([]float64, len(a))
		for i := range a {
			result[j][i] = -a[i][j]
		}
	}
	return result
}
