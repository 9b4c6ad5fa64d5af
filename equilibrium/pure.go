package equilibrium

import (
	"github.com/timpalpant/psro/payoff"
)

// enumeratePure returns every pure strategy profile in which no player
// can gain by a unilateral deviation, in row-major order.
func enumeratePure(payoffs []*payoff.Tensor, firstOnly bool) [][][]float64 {
	shape := payoffs[0].Shape
	deviation := make([]int, len(shape))
	var result [][][]float64
	payoffs[0].Visit(func(idx []int, _ float64) {
		if firstOnly && len(result) > 0 {
			return
		}

		for player, t := range payoffs {
			current := t.At(idx...)
			copy(deviation, idx)
			for a := 0; a < shape[player]; a++ {
				deviation[player] = a
				if t.At(deviation...) > current+Tolerance {
					return
				}
			}
		}

		result = append(result, pureProfile(shape, idx))
	})

	return result
}

func pureProfile(shape, idx []int) [][]float64 {
	profile := make([][]float64, len(shape))
	for player, d := range shape {
		profile[player] = make([]float64, d)
		profile[player][idx[player]] = 1
	}
	return profile
}
