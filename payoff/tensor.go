// Package payoff implements dense N-dimensional payoff tensors for
// empirical games. Element order is row-major: the last axis varies fastest,
// so a tensor flattened by Data matches the layout numpy produces.
package payoff

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

var ErrShapeMismatch = errors.New("payoff: shape mismatch")

// Tensor is a dense payoff tensor with one axis per player.
// Shape[i] is the number of policies available to player i.
type Tensor struct {
	Shape []int
	Data  []float64
}

// New allocates a zero-filled tensor with the given shape.
func New(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Errorf("payoff: negative dimension %d in shape %v", d, shape))
		}
		n *= d
	}

	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, n),
	}
}

// FromData wraps data with the given shape. The slice is not copied.
func FromData(data []float64, shape ...int) (*Tensor, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%d elements cannot have shape %v", len(data), shape)
	}

	return &Tensor{Shape: append([]int(nil), shape...), Data: data}, nil
}

// FromMatrix builds a 2-D tensor from a row-major matrix.
func FromMatrix(m [][]float64) (*Tensor, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "empty matrix")
	}

	nCols := len(m[0])
	t := New(len(m), nCols)
	for i, row := range m {
		if len(row) != nCols {
			return nil, errors.Wrapf(ErrShapeMismatch,
				"row %d has %d columns, expected %d", i, len(row), nCols)
		}
		copy(t.Data[i*nCols:], row)
	}

	return t, nil
}

func (t *Tensor) NumDims() int {
	return len(t.Shape)
}

func (t *Tensor) Size() int {
	return len(t.Data)
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Errorf("payoff: index %v has wrong rank for shape %v", idx, t.Shape))
	}

	off := 0
	for i, k := range idx {
		if k < 0 || k >= t.Shape[i] {
			panic(fmt.Errorf("payoff: index %v out of range for shape %v", idx, t.Shape))
		}
		off = off*t.Shape[i] + k
	}
	return off
}

func (t *Tensor) At(idx ...int) float64 {
	return t.Data[t.offset(idx)]
}

func (t *Tensor) Set(v float64, idx ...int) {
	t.Data[t.offset(idx)] = v
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

// Neg returns a new tensor with every entry negated.
func (t *Tensor) Neg() *Tensor {
	result := t.Clone()
	floats.Scale(-1, result.Data)
	return result
}

// SameShape reports whether t and u have identical shapes.
func (t *Tensor) SameShape(u *Tensor) bool {
	if len(t.Shape) != len(u.Shape) {
		return false
	}
	for i, d := range t.Shape {
		if u.Shape[i] != d {
			return false
		}
	}
	return true
}

// Matrix returns a copy of a 2-D tensor as a slice of rows.
func (t *Tensor) Matrix() [][]float64 {
	if len(t.Shape) != 2 {
		panic(fmt.Errorf("payoff: Matrix called on tensor of shape %v", t.Shape))
	}

	nRows, nCols := t.Shape[0], t.Shape[1]
	result := make([][]float64, nRows)
	for i := range result {
		result[i] = append([]float64(nil), t.Data[i*nCols:(i+1)*nCols]...)
	}
	return result
}

// Transpose2D returns the transpose of a 2-D tensor.
func (t *Tensor) Transpose2D() *Tensor {
	if len(t.Shape) != 2 {
		panic(fmt.Errorf("payoff: Transpose2D called on tensor of shape %v", t.Shape))
	}

	nRows, nCols := t.Shape[0], t.Shape[1]
	result := New(nCols, nRows)
	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			result.Data[j*nRows+i] = t.Data[i*nCols+j]
		}
	}
	return result
}

// Visit calls fn with every multi-index of t in row-major order along with
// the corresponding value. The idx slice is reused between calls.
func (t *Tensor) Visit(fn func(idx []int, v float64)) {
	idx := make([]int, len(t.Shape))
	for _, v := range t.Data {
		fn(idx, v)
		for axis := len(idx) - 1; axis >= 0; axis-- {
			idx[axis]++
			if idx[axis] < t.Shape[axis] {
				break
			}
			idx[axis] = 0
		}
	}
}

// PartialDot contracts t against the mixed strategies of every player
// except player. The result has one entry per policy of player: the
// expected payoff of playing that policy while all other players mix
// according to strategies.
func (t *Tensor) PartialDot(strategies [][]float64, player int) []float64 {
	if len(strategies) != len(t.Shape) {
		panic(fmt.Errorf("payoff: %d strategies for tensor of shape %v", len(strategies), t.Shape))
	}

	result := make([]float64, t.Shape[player])
	t.Visit(func(idx []int, v float64) {
		w := v
		for q, s := range strategies {
			if q == player {
				continue
			}
			w *= s[idx[q]]
			if w == 0 {
				return
			}
		}
		result[idx[player]] += w
	})

	return result
}

// Dot returns the expected payoff of t when every player mixes according
// to strategies.
func (t *Tensor) Dot(strategies [][]float64) float64 {
	return floats.Dot(t.PartialDot(strategies, 0), strategies[0])
}
