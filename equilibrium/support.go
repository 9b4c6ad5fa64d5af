package equilibrium

import (
	"github.com/golang/glog"
	"gonum.org/v1/gonum/mat"
)

// enumerateSupports finds the equilibria of the bimatrix game (a, b) by
// enumerating pairs of equal-size supports and solving the indifference
// conditions on each. This finds every equilibrium of a nondegenerate game.
func enumerateSupports(a, b [][]float64, firstOnly bool) [][][]float64 {
	nRows, nCols := len(a), len(a[0])
	var result [][][]float64
	for k := 1; k <= min(nRows, nCols); k++ {
		for _, rows := range combinations(nRows, k) {
			for _, cols := range combinations(nCols, k) {
				eq, ok := solveSupports(a, b, rows, cols)
				if !ok || containsEquilibrium(result, eq, Tolerance) {
					continue
				}

				glog.V(3).Infof("Supports %v x %v: equilibrium %v", rows, cols, eq)
				result = append(result, eq)
				if firstOnly {
					return result
				}
			}
		}
	}

	return result
}

// solveSupports computes the mixed strategies supported on rows and cols
// that make the opponent indifferent among its support, and reports
// whether they form an equilibrium.
func solveSupports(a, b [][]float64, rows, cols []int) ([][]float64, bool) {
	// The column player's mix makes the row player indifferent on rows.
	y, u, ok := indifferentMix(len(cols), func(i, j int) float64 {
		return a[rows[i]][cols[j]]
	})
	if !ok {
		return nil, false
	}

	// The row player's mix makes the column player indifferent on cols.
	x, v, ok := indifferentMix(len(rows), func(j, i int) float64 {
		return b[rows[i]][cols[j]]
	})
	if !ok {
		return nil, false
	}

	row := make([]float64, len(a))
	for i, r := range rows {
		row[r] = x[i]
	}
	col := make([]float64, len(a[0]))
	for j, c := range cols {
		col[c] = y[j]
	}

	// Neither player may have a profitable deviation outside its support.
	for i := range a {
		value := 0.0
		for j, p := range col {
			value += a[i][j] * p
		}
		if value > u+Tolerance {
			return nil, false
		}
	}
	for j := range a[0] {
		value := 0.0
		for i, p := range row {
			value += b[i][j] * p
		}
		if value > v+Tolerance {
			return nil, false
		}
	}

	return [][]float64{row, col}, true
}

// indifferentMix solves for a distribution p over k strategies such that
// sum_j payoff(i, j) p_j is the same value w for every i in [0, k). It
// reports false if the system is singular or p is not a distribution.
func indifferentMix(k int, payoffAt func(i, j int) float64) ([]float64, float64, bool) {
	// Unknowns are p_0..p_{k-1}, w.
	m := mat.NewDense(k+1, k+1, nil)
	rhs := mat.NewVecDense(k+1, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			m.Set(i, j, payoffAt(i, j))
		}
		m.Set(i, k, -1)
	}
	for j := 0; j < k; j++ {
		m.Set(k, j, 1)
	}
	rhs.SetVec(k, 1)

	var sol mat.VecDense
	if err := sol.SolveVec(m, rhs); err != nil {
		return nil, 0, false
	}

	p := make([]float64, k)
	for j := range p {
		x := sol.AtVec(j)
		if x < -Tolerance {
			return nil, 0, false
		}
		p[j] = max(x, 0)
	}

	return p, sol.AtVec(k), true
}

// combinations returns every k-element subset of [0, n) in lexicographic order.
func combinations(n, k int) [][]int {
	var result [][]int
	current := make([]int, 0, k)
	var recurse func(start int)
	recurse = func(start int) {
		if len(current) == k {
			result = append(result, append([]int(nil), current...))
			return
		}
		for i := start; i <= n-(k-len(current)); i++ {
			current = append(current, i)
			recurse(i + 1)
			current = current[:len(current)-1]
		}
	}
	recurse(0)
	return result
}
