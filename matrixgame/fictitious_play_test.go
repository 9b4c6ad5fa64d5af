package matrixgame

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rockPaperScissors = [][]float64{
	{0, -1, 1}, // Player 0 plays rock.
	{1, 0, -1}, // Player 0 plays paper.
	{-1, 1, 0}, // Player 0 plays scissors.
}

func TestFictitiousPlay_RockPaperScissors(t *testing.T) {
	rng := rand.New(rand.NewSource(123))
	p0, p1 := FictitiousPlay(rockPaperScissors, 20000, 0.0, rng)
	t.Logf("Player 0 Nash equilibrium policy: %v", p0)
	t.Logf("Player 1 Nash equilibrium policy: %v", p1)
	for i := range p0 {
		assert.InDelta(t, 1.0/3, p0[i], 0.02)
		assert.InDelta(t, 1.0/3, p1[i], 0.02)
	}
}

func TestFictitiousPlay_DominantStrategy(t *testing.T) {
	// Row 1 strictly dominates row 0, so the row player converges to it
	// and the column player to the column minimizing that row.
	a := [][]float64{
		{0, 0},
		{3, 1},
	}
	rng := rand.New(rand.NewSource(5))
	p0, p1 := FictitiousPlay(a, 1000, 0.0, rng)
	assert.InDelta(t, 1.0, p0[1], 0.01)
	assert.InDelta(t, 1.0, p1[1], 0.01)
}

func TestFictitiousPlaySolver_MatchesLinearProgram(t *testing.T) {
	fp := &FictitiousPlaySolver{
		Iterations: 20000,
		Rand:       rand.New(rand.NewSource(42)),
	}
	fpSol, err := fp.SolveZeroSum(rockPaperScissors)
	require.NoError(t, err)

	lpSol, err := (&LinearProgram{}).SolveZeroSum(rockPaperScissors)
	require.NoError(t, err)

	assert.InDeltaSlice(t, lpSol.Row, fpSol.Row, 0.02)
	assert.InDeltaSlice(t, lpSol.Col, fpSol.Col, 0.02)
	assert.InDelta(t, lpSol.Value, fpSol.Value, 0.02)
}

func TestFictitiousPlaySolver_InvalidIterations(t *testing.T) {
	fp := &FictitiousPlaySolver{}
	_, err := fp.SolveZeroSum(rockPaperScissors)
	assert.Error(t, err)
}
