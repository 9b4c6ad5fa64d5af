// Compute the meta-strategy of an empirical game saved as .npy payoff
// tensors, one per player.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	randv2 "math/rand/v2"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"github.com/golang/glog"
	gzip "github.com/klauspost/pgzip"

	"github.com/timpalpant/psro"
	"github.com/timpalpant/psro/dynamics"
	"github.com/timpalpant/psro/equilibrium"
	"github.com/timpalpant/psro/matrixgame"
	"github.com/timpalpant/psro/npyio"
	"github.com/timpalpant/psro/payoff"
)

type RunParams struct {
	PayoffFiles string
	ZeroSum     bool
	Method      string
	ReturnJoint bool
	OutputFile  string
	NumSamples  int
	Seed        int64
	PprofAddr   string

	NashSolver  string
	FPParams    FPParams
	GeneralNash GeneralNashParams
	PRDParams   dynamics.Params
}

type FPParams struct {
	Iterations   int
	MixingLambda float64
}

type GeneralNashParams struct {
	Backend string
	Mode    string
}

func main() {
	var params RunParams
	flag.StringVar(&params.PayoffFiles, "payoffs", "",
		"Comma-separated .npy (or .npy.gz) payoff tensors, one per player")
	flag.BoolVar(&params.ZeroSum, "zero_sum", false,
		"Treat a single payoff matrix as the row player's payoffs in a zero-sum game")
	flag.StringVar(&params.Method, "method", "nash",
		"Meta-solver: uniform, uniform_biased, nash, general_nash, prd or sp")
	flag.BoolVar(&params.ReturnJoint, "joint", false,
		"Also compute the joint distribution over policy profiles")
	flag.StringVar(&params.OutputFile, "output", "",
		"Save the meta-strategy to this .npz file")
	flag.IntVar(&params.NumSamples, "num_samples", 0,
		"Number of policy profiles to sample from the meta-strategy")
	flag.Int64Var(&params.Seed, "seed", 123, "Random seed")
	flag.StringVar(&params.PprofAddr, "pprof_addr", "",
		"Serve pprof on this address while solving")
	flag.StringVar(&params.NashSolver, "nash.solver", "lp",
		"Zero-sum solver used by the nash method: lp or fp")
	flag.IntVar(&params.FPParams.Iterations, "fp.iterations", 100000,
		"Number of fictitious play iterations")
	flag.Float64Var(&params.FPParams.MixingLambda, "fp.mixing_lambda", 0.0,
		"Probability of playing uniformly at random during fictitious play")
	flag.StringVar(&params.GeneralNash.Backend, "general_nash.backend", "enummixed",
		"Equilibrium search: enummixed, enumpure or liap")
	flag.StringVar(&params.GeneralNash.Mode, "general_nash.mode", "one",
		"Equilibria returned by general_nash: one, all or pure")
	flag.IntVar(&params.PRDParams.Iterations, "prd.iterations", 0,
		"Number of projected replicator dynamics steps (0 for default)")
	flag.Float64Var(&params.PRDParams.Dt, "prd.dt", 0,
		"Projected replicator dynamics step size (0 for default)")
	flag.Float64Var(&params.PRDParams.Gamma, "prd.gamma", 0,
		"Minimum policy probability in projected replicator dynamics (0 for default)")
	flag.IntVar(&params.PRDParams.AverageOverLastN, "prd.average_over_last_n", 0,
		"Number of final iterates to average (0 for all)")
	flag.BoolVar(&params.PRDParams.UseApprox, "prd.use_approx", false,
		"Use the approximate simplex projection")
	flag.Parse()

	if params.PprofAddr != "" {
		go http.ListenAndServe(params.PprofAddr, nil)
	}

	game := mustLoadMetaGame(params.PayoffFiles, params.ZeroSum)
	cfg := psro.Config{PRD: params.PRDParams}
	var err error
	if cfg.GeneralNash.Backend, err = equilibrium.ParseBackend(params.GeneralNash.Backend); err != nil {
		glog.Fatal(err)
	}
	if cfg.GeneralNash.Mode, err = equilibrium.ParseMode(params.GeneralNash.Mode); err != nil {
		glog.Fatal(err)
	}

	solver := mustGetSolver(params)
	state := psro.NewStaticState(game, cfg)
	glog.Infof("Solving %d-player meta-game of shape %v with %v",
		game.NumPlayers(), game.Shape(), solver.Method())
	result, err := solver.Solve(state, params.ReturnJoint)
	if err != nil {
		glog.Fatal(err)
	}

	for k, profile := range result.Profiles {
		reportProfile(game, k, profile)
	}

	if params.NumSamples > 0 {
		sampleProfiles(params, result)
	}

	if params.OutputFile != "" {
		if err := saveResult(params.OutputFile, result); err != nil {
			glog.Fatal(err)
		}
		glog.Infof("Saved meta-strategy to %v", params.OutputFile)
	}
}

func mustGetSolver(params RunParams) psro.MetaSolver {
	m, err := psro.ParseMethod(params.Method)
	if err != nil {
		glog.Fatal(err)
	}

	if m == psro.Nash && params.NashSolver == "fp" {
		return psro.NewNashSolver(&matrixgame.FictitiousPlaySolver{
			Iterations:   params.FPParams.Iterations,
			MixingLambda: params.FPParams.MixingLambda,
			Rand:         rand.New(rand.NewSource(params.Seed)),
		})
	} else if params.NashSolver != "lp" && params.NashSolver != "fp" {
		glog.Fatalf("Unknown zero-sum solver: %v", params.NashSolver)
	}

	solver, err := psro.New(m)
	if err != nil {
		glog.Fatal(err)
	}
	return solver
}

func mustLoadMetaGame(payoffFiles string, zeroSum bool) *psro.MetaGame {
	if payoffFiles == "" {
		glog.Fatal("Must specify -payoffs")
	}

	var payoffs []*payoff.Tensor
	for _, filename := range strings.Split(payoffFiles, ",") {
		payoffs = append(payoffs, mustLoadTensor(filename))
	}

	if zeroSum {
		if len(payoffs) != 1 || payoffs[0].NumDims() != 2 {
			glog.Fatal("-zero_sum requires a single payoff matrix")
		}
		game, err := psro.NewZeroSumMetaGame(payoffs[0].Matrix())
		if err != nil {
			glog.Fatal(err)
		}
		return game
	}

	game, err := psro.NewMetaGame(payoffs...)
	if err != nil {
		glog.Fatal(err)
	}
	return game
}

func mustLoadTensor(filename string) *payoff.Tensor {
	glog.Infof("Loading payoffs from: %v", filename)
	f, err := os.Open(filename)
	if err != nil {
		glog.Fatal(err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			glog.Fatal(err)
		}
		defer gz.Close()
		r = gz
	}

	t, err := npyio.Read(r)
	if err != nil {
		glog.Fatalf("Error reading %v: %v", filename, err)
	}
	return t
}

func reportProfile(game *psro.MetaGame, k int, profile psro.Profile) {
	for player, marginal := range profile {
		glog.Infof("Profile %d, player %d: %v", k, player, marginal)
	}
	glog.Infof("Profile %d supports: %v", k, profile.Supports())

	payoffs, err := psro.ExpectedPayoffs(game, profile)
	if err != nil {
		glog.Warningf("Cannot evaluate profile %d: %v", k, err)
		return
	}
	nashConv, err := psro.NashConv(game, profile)
	if err != nil {
		glog.Warningf("Cannot evaluate profile %d: %v", k, err)
		return
	}
	glog.Infof("Profile %d expected payoffs: %v, NashConv: %.6g", k, payoffs, nashConv)
}

func sampleProfiles(params RunParams, result *psro.Result) {
	src := randv2.NewPCG(uint64(params.Seed), 0)
	for k, profile := range result.Profiles {
		counts := make(map[string]int)
		for i := 0; i < params.NumSamples; i++ {
			counts[fmt.Sprint(psro.SampleProfile(src, profile))]++
		}
		glog.Infof("Profile %d sampled policies: %v", k, counts)
	}
}

func saveResult(output string, result *psro.Result) error {
	arrays := make(map[string]*payoff.Tensor)
	for k, profile := range result.Profiles {
		for player, marginal := range profile {
			name := fmt.Sprintf("marginals_%d", player)
			if result.Kind == psro.ProfileList {
				name = fmt.Sprintf("marginals_%d_%d", k, player)
			}
			t, err := payoff.FromData(marginal, len(marginal))
			if err != nil {
				return err
			}
			arrays[name] = t
		}
	}

	for k, joint := range result.Joints {
		name := "joint"
		if result.Kind == psro.ProfileList {
			name = fmt.Sprintf("joint_%d", k)
		}
		t, err := payoff.FromData(joint, len(joint))
		if err != nil {
			return err
		}
		arrays[name] = t
	}

	return npyio.WriteNPZ(output, arrays)
}
