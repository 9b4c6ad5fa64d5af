package psro

import (
	"fmt"
)

// Profile is a meta-strategy profile: one distribution over policies
// for each player.
type Profile [][]float64

// Supports returns the policies played with non-negligible probability
// by each player.
func (p Profile) Supports() [][]int {
	result := make([][]int, len(p))
	for player, marginal := range p {
		result[player] = support(marginal)
	}
	return result
}

// ResultKind distinguishes results carrying a single profile from those
// carrying a list of alternative profiles (e.g. multiple equilibria).
type ResultKind int

const (
	SingleProfile ResultKind = iota
	ProfileList
)

var resultKindStr = [...]string{
	"SingleProfile",
	"ProfileList",
}

func (k ResultKind) String() string {
	if int(k) < 0 || int(k) >= len(resultKindStr) {
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
	return resultKindStr[k]
}

// Result is the output of a meta-solver.
type Result struct {
	Kind ResultKind
	// Exactly one profile for SingleProfile results.
	Profiles []Profile
	// Joint distribution over policy profiles for each entry of Profiles,
	// nil unless requested.
	Joints [][]float64
}

func newResult(kind ResultKind, profiles []Profile, returnJoint bool) *Result {
	r := &Result{Kind: kind, Profiles: profiles}
	if returnJoint {
		r.Joints = JointsFromProfiles(profiles)
	}
	return r
}

// Marginals returns the profile of a SingleProfile result.
func (r *Result) Marginals() Profile {
	r.mustBeSingle()
	return r.Profiles[0]
}

// Joint returns the joint distribution of a SingleProfile result,
// or nil if it was not requested.
func (r *Result) Joint() []float64 {
	r.mustBeSingle()
	if r.Joints == nil {
		return nil
	}
	return r.Joints[0]
}

func (r *Result) mustBeSingle() {
	if r.Kind != SingleProfile {
		panic(fmt.Errorf("psro: result holds %d profiles (%v)", len(r.Profiles), r.Kind))
	}
}
