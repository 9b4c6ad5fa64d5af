package matrixgame

import (
	"math"
	"math/rand"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// FictitiousPlay approximates the equilibrium of the two-player zero-sum
// game with row player payoffs a. On each iteration both players play a
// best response to the empirical play counts of their opponent, except
// with probability mixingLambda they play uniformly at random instead.
func FictitiousPlay(a [][]float64, nIter int, mixingLambda float64, rng *rand.Rand) ([]float64, []float64) {
	p0PlayCounts := make([]int, len(a))
	p1PlayCounts := make([]int, len(a[0]))
	logEvery := max(nIter/10, 1)
	for i := 1; i <= nIter; i++ {
		var p0Selected int
		if rng.Float64() < mixingLambda {
			p0Selected = rng.Intn(len(p0PlayCounts))
		} else {
			p0Selected = getP0BestResponse(a, p1PlayCounts, rng)
		}

		var p1Selected int
		if rng.Float64() < mixingLambda {
			p1Selected = rng.Intn(len(p1PlayCounts))
		} else {
			p1Selected = getP1BestResponse(a, p0PlayCounts, rng)
		}
		p0PlayCounts[p0Selected]++
		p1PlayCounts[p1Selected]++

		if i%logEvery == 0 {
			glog.V(2).Infof("After %d iterations, player 0 weights: %v", i, normalize(p0PlayCounts))
			glog.V(2).Infof("After %d iterations, player 1 weights: %v", i, normalize(p1PlayCounts))
		}
	}

	return normalize(p0PlayCounts), normalize(p1PlayCounts)
}

// FictitiousPlaySolver adapts FictitiousPlay to the ZeroSumSolver interface.
type FictitiousPlaySolver struct {
	Iterations   int
	MixingLambda float64
	Rand         *rand.Rand
}

func (fp *FictitiousPlaySolver) SolveZeroSum(a [][]float64) (*Solution, error) {
	if err := validateMatrix(a); err != nil {
		return nil, err
	}
	if fp.Iterations <= 0 {
		return nil, errors.Errorf("matrixgame: fictitious play needs a positive iteration count, got %d", fp.Iterations)
	}

	rng := fp.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	p0, p1 := FictitiousPlay(a, fp.Iterations, fp.MixingLambda, rng)
	return &Solution{
		Row:   p0,
		Col:   p1,
		Value: expectedValue(a, p0, p1),
	}, nil
}

func getP0BestResponse(a [][]float64, p1PlayCounts []int, rng *rand.Rand) int {
	utilities := make([]float64, len(a))
	for j, c := range p1PlayCounts {
		for i := range utilities {
			utilities[i] += float64(c) * a[i][j]
		}
	}

	_, br := argMax(utilities, rng)
	return br
}

func getP1BestResponse(a [][]float64, p0PlayCounts []int, rng *rand.Rand) int {
	utilities := make([]float64, len(a[0]))
	for i, c := range p0PlayCounts {
		for j := range utilities {
			utilities[j] -= float64(c) * a[i][j]
		}
	}

	_, br := argMax(utilities, rng)
	return br
}

func normalize(counts []int) []float64 {
	total := 0
	for _, v := range counts {
		total += v
	}

	result := make([]float64, len(counts))
	for i, v := range counts {
		result[i] = float64(v) / float64(total)
	}
	return result
}

// argMax breaks ties uniformly at random.
func argMax(vs []float64, rng *rand.Rand) (float64, int) {
	best := -math.MaxFloat64
	bestIdx := 0
	nTies := 0
	for i, v := range vs {
		if v > best {
			best = v
			bestIdx = i
			nTies = 1
		} else if v == best {
			nTies++
			if rng.Intn(nTies) == 0 {
				bestIdx = i
			}
		}
	}

	return best, bestIdx
}

func expectedValue(a [][]float64, p0, p1 []float64) float64 {
	total := 0.0
	for i, row := range a {
		for j, v := range row {
			total += p0[i] * p1[j] * v
		}
	}
	return total
}
