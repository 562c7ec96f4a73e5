package core_test

import (
	"math/rand"
	"testing"
	"time"

	. "github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/world"
)

// fixture is a small registry and population:
//
//	agent 1: 30, M, household 100, school 200, score 5
//	agent 2: 10, F, household 100, score 7
//	agent 3: 40, F, household 101, score 1, admin of household 101
//
// Friends is undirected with 1-2 (weight 2) and 1-3 (weight 5).
// Follows is directed with 2->1.
type fixture struct {
	reg *Registry
	w   *world.World
	env *Env
}

func newRegistry(t *testing.T) *Registry {
	reg := NewRegistry()
	must := func(_ int, err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(reg.AddCondition("INF", "Susceptible", "Exposed", "Infectious", "Recovered"))
	must(reg.AddCondition("VAX", "Unvaccinated", "Vaccinated"))
	must(reg.AddPlaceType("Household"))
	must(reg.AddPlaceType("School"))
	must(reg.AddPlaceType("Classroom"))
	must(reg.AddPlaceType("Workplace"))
	must(reg.AddPlaceType("Office"))
	must(reg.AddNetwork("Friends", true))
	must(reg.AddNetwork("Follows", false))
	must(reg.AddAgentVar("score"))
	must(reg.AddGlobalVar("budget"))
	must(reg.AddAgentListVar("contacts"))
	must(reg.AddGlobalListVar("targets"))
	reg.Seal()
	return reg
}

func newFixture(t *testing.T) *fixture {
	reg := newRegistry(t)
	spec := &world.Spec{
		Places: []*world.PlaceSpec{
			{ID: 100, Type: "Household", Income: 50000, Lat: 40, Lon: -80, BlockGroup: 420030101001},
			{ID: 101, Type: "Household", Income: 20000, Lat: 40.1, Lon: -80},
			{ID: 200, Type: "School"},
		},
		Agents: []*world.AgentSpec{
			{ID: 1, Age: 30, Sex: "M", Places: map[string]int{"Household": 100, "School": 200},
				Vars: map[string]float64{"score": 5}, Traits: []string{"employed"},
				Lists: map[string][]float64{"contacts": {2, 3}},
				States: map[string]string{"INF": "Infectious"}},
			{ID: 2, Age: 10, Sex: "F", Places: map[string]int{"Household": 100},
				Vars: map[string]float64{"score": 7}, Traits: []string{"student"}},
			{ID: 3, Age: 40, Sex: "F", Places: map[string]int{"Household": 101},
				Vars: map[string]float64{"score": 1}, Admin: []string{"Household"}},
		},
		Edges: []*world.EdgeSpec{
			{Network: "Friends", From: 1, To: 2, Weight: 2},
			{Network: "Friends", From: 1, To: 3, Weight: 5},
			{Network: "Follows", From: 2, To: 1},
		},
		Globals:     map[string]float64{"budget": 100},
		GlobalLists: map[string][]float64{"targets": {3, 1}},
	}
	start := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)
	w, err := spec.Build(reg, start)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		reg: reg,
		w:   w,
		env: &Env{
			World: w,
			Rand:  rand.New(rand.NewSource(42)),
		},
	}
}

func (f *fixture) eval(t *testing.T, text string, id int) float64 {
	t.Helper()
	e, err := CompileExpression(f.reg, text)
	if err != nil {
		t.Fatalf("%s: %v", text, err)
	}
	return e.Eval(f.env, f.w.Agent(id), nil)
}

// countingRand counts draws.
type countingRand struct {
	n    int
	x    float64
	norm float64
}

func (r *countingRand) Float64() float64 {
	r.n++
	return r.x
}

func (r *countingRand) NormFloat64() float64 {
	r.n++
	return r.norm
}

func (r *countingRand) ExpFloat64() float64 {
	r.n++
	return 1
}
