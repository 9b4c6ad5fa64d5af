package equilibrium

import (
	"math"
	"math/rand/v2"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/timpalpant/psro/payoff"
)

const (
	DefaultLiapunovStarts     = 10
	DefaultLiapunovTolerance  = 1e-5
	DefaultLiapunovIterations = 1000

	// Probabilities below this are rounded to zero when polishing a
	// candidate equilibrium. Also the distance below which two candidates
	// are considered the same equilibrium.
	liapunovSnap = 1e-4
)

// Liapunov searches for equilibria of games with any number of players
// by minimizing the Lyapunov function
//
//	L(s) = sum_p sum_a max(0, u_p(a, s_-p) - u_p(s))^2
//
// which is zero exactly at the Nash equilibria. The strategy of each
// player is parameterized as s_a = z_a^2 / |z|^2, and the minimization is
// restarted from several points: the uniform profile first, then random
// ones. Equilibria found this way are approximate.
type Liapunov struct {
	// Number of starting points. DefaultLiapunovStarts if 0.
	Starts int
	// Largest gain any player may have from deviating for a profile
	// to be accepted as an equilibrium. DefaultLiapunovTolerance if 0.
	Tolerance float64
	// Maximum number of BFGS iterations per start.
	// DefaultLiapunovIterations if 0.
	Iterations int
	// Seed of the random starting points.
	Seed uint64
}

func (l *Liapunov) Solve(payoffs []*payoff.Tensor, mode Mode) ([][][]float64, error) {
	return search(payoffs, Liap, mode, func(firstOnly bool) ([][][]float64, error) {
		return l.search(payoffs, firstOnly), nil
	})
}

func (l *Liapunov) withDefaults() Liapunov {
	result := *l
	if result.Starts == 0 {
		result.Starts = DefaultLiapunovStarts
	}
	if result.Tolerance == 0 {
		result.Tolerance = DefaultLiapunovTolerance
	}
	if result.Iterations == 0 {
		result.Iterations = DefaultLiapunovIterations
	}
	return result
}

func (l *Liapunov) search(payoffs []*payoff.Tensor, firstOnly bool) [][][]float64 {
	params := l.withDefaults()
	shape := payoffs[0].Shape
	rng := rand.New(rand.NewPCG(params.Seed, 0))

	var result [][][]float64
	for start := 0; start < params.Starts; start++ {
		z := startingPoint(shape, start, rng)
		profile, regret := params.minimize(payoffs, z)
		glog.V(3).Infof("Liapunov start %d: regret %v at %v", start, regret, profile)
		if regret > params.Tolerance || containsEquilibrium(result, profile, liapunovSnap) {
			continue
		}

		result = append(result, profile)
		if firstOnly {
			break
		}
	}

	return result
}

// minimize descends the Lyapunov function from z and returns the
// polished profile it reaches along with its largest regret.
func (l *Liapunov) minimize(payoffs []*payoff.Tensor, z []float64) ([][]float64, float64) {
	shape := payoffs[0].Shape
	profile, regret := polish(payoffs, unpackProfile(shape, z))
	if regret <= l.Tolerance {
		return profile, regret
	}

	f := func(z []float64) float64 {
		return liapunovValue(payoffs, z)
	}
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, f, z, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{MajorIterations: l.Iterations}
	result, err := optimize.Minimize(problem, z, settings, &optimize.BFGS{})
	if result == nil {
		glog.Warningf("Lyapunov minimization failed: %v", err)
		return profile, regret
	} else if err != nil {
		// Line search failures near the minimum still leave a usable location.
		glog.V(3).Infof("Lyapunov minimization stopped with %v: %v", result.Status, err)
	}

	return polish(payoffs, unpackProfile(shape, result.X))
}

func startingPoint(shape []int, start int, rng *rand.Rand) []float64 {
	var z []float64
	for _, d := range shape {
		player := make([]float64, d)
		for i := range player {
			if start == 0 {
				player[i] = 1
			} else {
				player[i] = 0.1 + 0.9*rng.Float64()
			}
		}
		floats.Scale(1/floats.Norm(player, 2), player)
		z = append(z, player...)
	}
	return z
}

// unpackProfile maps the concatenated parameters of every player to
// mixed strategies.
func unpackProfile(shape []int, z []float64) [][]float64 {
	profile := make([][]float64, len(shape))
	offset := 0
	for player, d := range shape {
		params := z[offset : offset+d]
		offset += d

		s := make([]float64, d)
		norm := floats.Dot(params, params)
		for i, x := range params {
			if norm == 0 {
				s[i] = 1 / float64(d)
			} else {
				s[i] = x * x / norm
			}
		}
		profile[player] = s
	}
	return profile
}

// liapunovValue is the Lyapunov function of the profile parameterized by
// z, plus a penalty holding every player's parameters at unit norm.
func liapunovValue(payoffs []*payoff.Tensor, z []float64) float64 {
	shape := payoffs[0].Shape
	profile := unpackProfile(shape, z)
	total := 0.0
	for player, t := range payoffs {
		values := t.PartialDot(profile, player)
		current := floats.Dot(values, profile[player])
		for _, v := range values {
			if r := v - current; r > 0 {
				total += r * r
			}
		}
	}

	offset := 0
	for _, d := range shape {
		params := z[offset : offset+d]
		offset += d
		norm := floats.Dot(params, params)
		total += (norm - 1) * (norm - 1)
	}

	return total
}

// maxRegret returns the largest gain any player can get by deviating
// from profile to a pure strategy.
func maxRegret(payoffs []*payoff.Tensor, profile [][]float64) float64 {
	result := math.Inf(-1)
	for player, t := range payoffs {
		values := t.PartialDot(profile, player)
		current := floats.Dot(values, profile[player])
		result = math.Max(result, floats.Max(values)-current)
	}
	return result
}

// polish rounds negligible probabilities of profile to zero, keeping
// whichever of the two profiles has the smaller regret.
func polish(payoffs []*payoff.Tensor, profile [][]float64) ([][]float64, float64) {
	regret := maxRegret(payoffs, profile)

	snapped := make([][]float64, len(profile))
	for player, s := range profile {
		snapped[player] = make([]float64, len(s))
		for i, x := range s {
			if x >= liapunovSnap {
				snapped[player][i] = x
			}
		}
		total := floats.Sum(snapped[player])
		if total == 0 {
			return profile, regret
		}
		floats.Scale(1/total, snapped[player])
	}

	if snappedRegret := maxRegret(payoffs, snapped); snappedRegret <= regret {
		return snapped, snappedRegret
	}
	return profile, regret
}
