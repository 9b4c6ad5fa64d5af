package equilibrium

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timpalpant/psro/payoff"
)

func bimatrix(t *testing.T, a, b [][]float64) []*payoff.Tensor {
	x, err := payoff.FromMatrix(a)
	require.NoError(t, err)
	y, err := payoff.FromMatrix(b)
	require.NoError(t, err)
	return []*payoff.Tensor{x, y}
}

func assertEquilibria(t *testing.T, expected, actual [][][]float64, msgAndArgs ...interface{}) {
	t.Helper()
	require.Len(t, actual, len(expected), msgAndArgs...)
	for k, eq := range expected {
		require.Len(t, actual[k], len(eq), msgAndArgs...)
		for player, s := range eq {
			assert.InDeltaSlice(t, s, actual[k][player], 1e-9, msgAndArgs...)
		}
	}
}

func TestSolve_Coordination(t *testing.T) {
	game := bimatrix(t,
		[][]float64{{1, 0}, {0, 1}},
		[][]float64{{1, 0}, {0, 1}})

	all, err := Solve(game, EnumMixed, All)
	require.NoError(t, err)
	assertEquilibria(t, [][][]float64{
		{{1, 0}, {1, 0}},
		{{0, 1}, {0, 1}},
		{{0.5, 0.5}, {0.5, 0.5}},
	}, all)

	pure, err := Solve(game, EnumMixed, Pure)
	require.NoError(t, err)
	assert.Len(t, pure, 2)

	one, err := Solve(game, EnumMixed, One)
	require.NoError(t, err)
	assertEquilibria(t, all[:1], one)
}

func TestSolve_TwoPureEquilibria(t *testing.T) {
	// Row 0 dominates for both players, the column player is indifferent.
	game := bimatrix(t,
		[][]float64{{1, 1}, {0, 0}},
		[][]float64{{1, 1}, {0, 0}})

	for _, backend := range []Backend{EnumMixed, EnumPure} {
		all, err := Solve(game, backend, All)
		require.NoError(t, err)
		assertEquilibria(t, [][][]float64{
			{{1, 0}, {1, 0}},
			{{1, 0}, {0, 1}},
		}, all, backend.String())
	}
}

func TestSolve_MatchingPennies(t *testing.T) {
	game := bimatrix(t,
		[][]float64{{1, -1}, {-1, 1}},
		[][]float64{{-1, 1}, {1, -1}})

	all, err := Solve(game, EnumMixed, All)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, all[0][0], 1e-9)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, all[0][1], 1e-9)

	_, err = Solve(game, EnumPure, All)
	assert.Equal(t, ErrNoEquilibrium, errors.Cause(err))
}

func TestSolve_BattleOfTheSexes(t *testing.T) {
	game := bimatrix(t,
		[][]float64{{3, 0}, {0, 2}},
		[][]float64{{2, 0}, {0, 3}})

	all, err := Solve(game, EnumMixed, All)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Row mixes to make the column player indifferent: 2x = 3(1-x).
	assert.InDeltaSlice(t, []float64{0.6, 0.4}, all[2][0], 1e-9)
	// Column mixes to make the row player indifferent: 3y = 2(1-y).
	assert.InDeltaSlice(t, []float64{0.4, 0.6}, all[2][1], 1e-9)
}

func TestSolve_ThreePlayers(t *testing.T) {
	// Every player wants to match player 0.
	payoffs := make([]*payoff.Tensor, 3)
	for player := range payoffs {
		x := payoff.New(2, 2, 2)
		x.Visit(func(idx []int, _ float64) {
			if idx[player] == idx[0] {
				x.Set(1, idx...)
			}
		})
		payoffs[player] = x
	}

	_, err := Solve(payoffs, EnumMixed, All)
	assert.Equal(t, ErrUnsupportedGame, errors.Cause(err))

	pure, err := Solve(payoffs, EnumPure, All)
	require.NoError(t, err)
	assert.Equal(t, [][][]float64{
		{{1, 0}, {1, 0}, {1, 0}},
		{{0, 1}, {0, 1}, {0, 1}},
	}, pure)

	pure, err = Solve(payoffs, EnumMixed, Pure)
	require.NoError(t, err)
	assert.Len(t, pure, 2)
}

func TestSolve_InvalidGame(t *testing.T) {
	_, err := Solve(nil, EnumMixed, All)
	assert.Equal(t, ErrInvalidGame, errors.Cause(err))

	_, err = Solve([]*payoff.Tensor{payoff.New(2, 2), payoff.New(2, 3)}, EnumMixed, All)
	assert.Equal(t, ErrInvalidGame, errors.Cause(err))

	_, err = Solve([]*payoff.Tensor{payoff.New(2, 2), payoff.New(2, 2)}, EnumMixed, Mode(7))
	assert.Equal(t, ErrUnknownMode, errors.Cause(err))
}

func TestParseBackendAndMode(t *testing.T) {
	for _, b := range []Backend{EnumMixed, EnumPure, Liap} {
		parsed, err := ParseBackend(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}
	_, err := ParseBackend("gambit")
	assert.Equal(t, ErrUnknownBackend, errors.Cause(err))

	for _, m := range []Mode{One, All, Pure} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err = ParseMode("some")
	assert.Equal(t, ErrUnknownMode, errors.Cause(err))
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {1, 2}}, combinations(3, 2))
	assert.Len(t, combinations(5, 3), 10)
}
