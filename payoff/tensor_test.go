package payoff

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowMajorLayout(t *testing.T) {
	x := New(2, 3, 4)
	x.Set(7, 1, 2, 3)
	x.Set(5, 0, 1, 0)
	assert.Equal(t, 7.0, x.Data[len(x.Data)-1])
	assert.Equal(t, 5.0, x.Data[4])
	assert.Equal(t, 5.0, x.At(0, 1, 0))
	assert.Equal(t, 24, x.Size())
	assert.Equal(t, 3, x.NumDims())
}

func TestFromMatrix(t *testing.T) {
	x, err := FromMatrix([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, x.Shape)
	assert.Equal(t, 6.0, x.At(1, 2))
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, x.Transpose2D().Matrix())

	_, err = FromMatrix([][]float64{{1, 2}, {3}})
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
}

func TestFromData(t *testing.T) {
	_, err := FromData([]float64{1, 2, 3}, 2, 2)
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))

	x, err := FromData([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, -3.0, x.Neg().At(1, 0))
	assert.Equal(t, 3.0, x.At(1, 0))
}

func TestVisitOrder(t *testing.T) {
	x := New(2, 2)
	var visited [][]int
	x.Visit(func(idx []int, v float64) {
		visited = append(visited, append([]int(nil), idx...))
	})
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, visited)
}

func TestPartialDot(t *testing.T) {
	// Matching pennies from the row player's point of view.
	x, err := FromMatrix([][]float64{{1, -1}, {-1, 1}})
	require.NoError(t, err)

	strategies := [][]float64{{1, 0}, {0.25, 0.75}}
	assert.InDeltaSlice(t, []float64{-0.5, 0.5}, x.PartialDot(strategies, 0), 1e-12)
	assert.InDeltaSlice(t, []float64{1, -1}, x.PartialDot(strategies, 1), 1e-12)
	assert.InDelta(t, -0.5, x.Dot(strategies), 1e-12)
}

func TestPartialDotThreePlayers(t *testing.T) {
	x := New(2, 2, 2)
	x.Set(8, 1, 1, 1)
	strategies := [][]float64{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}
	assert.InDeltaSlice(t, []float64{0, 2}, x.PartialDot(strategies, 2), 1e-12)
	assert.InDelta(t, 1.0, x.Dot(strategies), 1e-12)
}
