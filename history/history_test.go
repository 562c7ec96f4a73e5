package history_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/world"
)

var flu = &history.Spec{
	Name: "FLU",
	States: []*history.StateSpec{
		{Name: "A"},
		{Name: "B"},
		{Name: "C"},
		{Name: "D", Dormant: true},
	},
}

type fixture struct {
	reg *core.Registry
	w   *world.World
	env *core.Env
}

func newFixture(t *testing.T) *fixture {
	reg := core.NewRegistry()
	for _, err := range []error{
		second(reg.AddCondition("FLU", flu.StateNames()...)),
		second(reg.AddCondition("INF", "S", "I")),
		second(reg.AddPlaceType("Household")),
		second(reg.AddAgentVar("score")),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	reg.Seal()

	spec := &world.Spec{
		Places: []*world.PlaceSpec{{ID: 1, Type: "Household"}},
		Agents: []*world.AgentSpec{
			{ID: 1, Age: 10, Places: map[string]int{"Household": 1}},
			{ID: 2, Age: 40, Places: map[string]int{"Household": 1}, Vars: map[string]float64{"score": 2.5}},
		},
	}
	// A Sunday.
	start := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)
	w, err := spec.Build(reg, start)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		reg: reg,
		w:   w,
		env: &core.Env{World: w, Rand: rand.New(rand.NewSource(1))},
	}
}

func second(_ int, err error) error {
	return err
}

func (f *fixture) build(t *testing.T, texts ...string) (*history.History, []*core.Rule) {
	t.Helper()
	var rules []*core.Rule
	for _, text := range texts {
		r, err := core.ParseRule(text)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Compile(f.reg); err != nil {
			t.Fatal(err)
		}
		rules = append(rules, r)
	}
	h, err := history.New(f.reg, f.reg.ConditionID("FLU"), flu, rules)
	if err != nil {
		t.Fatal(err)
	}
	return h, rules
}

// fixedRand always draws x and counts draws.
type fixedRand struct {
	n int
	x float64
}

func (r *fixedRand) Float64() float64 {
	r.n++
	return r.x
}

func (r *fixedRand) NormFloat64() float64 {
	r.n++
	return 0
}

func (r *fixedRand) ExpFloat64() float64 {
	r.n++
	return 1
}

var approx = cmpopts.EquateApprox(0, 1e-12)

func same(got []*core.Rule, want ...*core.Rule) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestDistribution(t *testing.T) {
	f := newFixture(t)
	a1, a2 := f.w.Agent(1), f.w.Agent(2)

	tests := []struct {
		name  string
		rules []string
		a     core.Agent
		want  []float64
	}{
		{
			name: "default gets the rest",
			rules: []string{
				"if state(FLU.A) then next(B) with prob(0.3)",
				"if state(FLU.A) then next(C) with prob(0.3)",
				"if state(FLU.A) then default(D)",
			},
			a:    a1,
			want: []float64{0, 0.3, 0.3, 0.4},
		},
		{
			name: "max not sum",
			rules: []string{
				"if state(FLU.A) then next(B) with prob(0.2)",
				"if state(FLU.A) then next(B) with prob(0.5)",
				"if state(FLU.A) then next(B) with prob(0.1)",
			},
			a:    a1,
			want: []float64{0.5, 0.5, 0, 0},
		},
		{
			name: "normalized",
			rules: []string{
				"if state(FLU.A) then next(B) with prob(0.8)",
				"if state(FLU.A) then next(C) with prob(0.7)",
			},
			a:    a1,
			want: []float64{0, 0.8 / 1.5, 0.7 / 1.5, 0},
		},
		{
			name: "round-off",
			rules: []string{
				"if state(FLU.A) then next(B) with prob(0.00000000000000000000001)",
			},
			a:    a1,
			want: []float64{1, 0, 0, 0},
		},
		{
			name: "negative",
			rules: []string{
				"if state(FLU.A) then next(B) with prob(0-1)",
			},
			a:    a1,
			want: []float64{1, 0, 0, 0},
		},
		{
			name: "guard fails",
			rules: []string{
				"if state(FLU.A) and(age>18) then next(B) with prob(score/10)",
			},
			a:    a1,
			want: []float64{1, 0, 0, 0},
		},
		{
			name: "guard passes",
			rules: []string{
				"if state(FLU.A) and(age>18) then next(B) with prob(score/10)",
			},
			a:    a2,
			want: []float64{0.75, 0.25, 0, 0},
		},
		{
			name: "no prob",
			rules: []string{
				"if state(FLU.A) then next(C)",
			},
			a:    a1,
			want: []float64{0, 0, 1, 0},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := f.build(t, tc.rules...)
			got := h.Distribution(f.env, tc.a, 0)
			if diff := cmp.Diff(tc.want, got, approx); diff != "" {
				t.Fatal(diff)
			}
			sum := 0.0
			for _, w := range got {
				sum += w
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Fatal(sum)
			}
		})
	}
}

func TestNext(t *testing.T) {
	f := newFixture(t)
	h, _ := f.build(t,
		"if state(FLU.A) then next(B) with prob(0.3)",
		"if state(FLU.A) then next(C) with prob(0.3)",
		"if state(FLU.A) then default(D)",
		"if state(FLU.B) then next(C)",
	)
	for u, want := range map[float64]int{
		0:    1,
		0.1:  1,
		0.3:  2,
		0.5:  2,
		0.61: 3,
		0.99: 3,
	} {
		r := &fixedRand{x: u}
		env := &core.Env{World: f.w, Rand: r}
		if got := h.Next(env, f.w.Agent(1), 0); got != want {
			t.Fatalf("u=%v: got %d, want %d", u, got, want)
		}
		if r.n != 1 {
			t.Fatalf("u=%v: %d draws", u, r.n)
		}
	}

	// A certain transition takes no draw.
	r := &fixedRand{x: 0.5}
	env := &core.Env{World: f.w, Rand: r}
	if got := h.Next(env, f.w.Agent(1), 1); got != 2 {
		t.Fatal(got)
	}
	if got := h.Next(env, f.w.Agent(1), 2); got != 2 {
		t.Fatal(got)
	}
	if r.n != 0 {
		t.Fatalf("%d draws", r.n)
	}
}

func TestNextReproducible(t *testing.T) {
	f := newFixture(t)
	h, _ := f.build(t,
		"if state(FLU.A) then next(B) with prob(0.25)",
		"if state(FLU.A) then next(C) with prob(0.25)",
		"if state(FLU.B) then next(A) with prob(0.5)",
		"if state(FLU.C) then next(A) with prob(0.5)",
		"if state(FLU.C) then default(B)",
	)
	walk := func(seed int64) []int {
		env := &core.Env{World: f.w, Rand: rand.New(rand.NewSource(seed))}
		acc := make([]int, 0, 100)
		state := 0
		for i := 0; i < 100; i++ {
			state = h.Next(env, f.w.Agent(1), state)
			acc = append(acc, state)
		}
		return acc
	}
	if diff := cmp.Diff(walk(42), walk(42)); diff != "" {
		t.Fatal(diff)
	}
}

func TestHiding(t *testing.T) {
	f := newFixture(t)
	h, rules := f.build(t,
		"if state(FLU.A) then wait(24)",
		"if state(FLU.A) then wait(48)",
		"if state(FLU.A) then sus(0)",
		"if state(FLU.A) then set_sus(FLU,0.5)",
		"if state(FLU.A) then set(score,1)",
		"if state(FLU.A) then set(score,2)",
		"if state(FLU.A) then default(B)",
		"if state(FLU.A) then default(C)",
		"if exposed(FLU) then next(B)",
		"if exposed(FLU) then next(C)",
		"if state(INF.S) then wait(1)",
	)
	a := h.States[0]
	if a.Wait != rules[1] {
		t.Fatalf("wait is %s", a.Wait)
	}
	if rules[0].HiddenBy != rules[1] || rules[0].Used {
		t.Fatal("first wait not hidden")
	}
	if got := h.Dwell(f.env, f.w.Agent(1), 0); got != 48 {
		t.Fatal(got)
	}
	if !same(a.Actions, rules[3], rules[4], rules[5]) {
		t.Fatal(a.Actions)
	}
	if a.Default != 2 || a.DefaultRule != rules[7] {
		t.Fatal(a.Default)
	}
	if h.Exposure != rules[9] || h.ExposedState != 2 {
		t.Fatal(h.ExposedState)
	}

	unused := h.Unused()
	if !same(unused, rules[0], rules[2], rules[6], rules[8]) {
		t.Fatal(unused)
	}
	for _, r := range unused {
		if len(r.Warnings()) != 1 {
			t.Fatal(r.Warnings())
		}
	}
	if len(h.Rules()) != 10 {
		t.Fatal(len(h.Rules()))
	}
	if rules[10].Used {
		t.Fatal("INF rule used by FLU")
	}
}

func TestFlags(t *testing.T) {
	f := newFixture(t)
	h, _ := f.build(t,
		"if state(FLU.B) then die()",
		"if state(FLU.C) then give_birth()",
		"if state(FLU.C) and(age>18) then absent(Household)",
		"if state(FLU.D) then close()",
	)
	if !h.States[1].Fatal || h.States[1].Maternity {
		t.Fatal("B")
	}
	if !h.States[2].Maternity || len(h.States[2].Schedule) != 1 || len(h.States[2].Actions) != 1 {
		t.Fatal("C")
	}
	if len(h.States[3].Schedule) != 1 || !h.States[3].Dormant {
		t.Fatal("D")
	}
	if h.State("C") != h.States[2] || h.State("Z") != nil {
		t.Fatal("State")
	}
}

func TestDwell(t *testing.T) {
	tests := []struct {
		wait string
		day  int
		hour int
		a    int
		want int
	}{
		{"24*3", 0, 0, 1, 72},
		{"2.5", 0, 0, 1, 3},
		{"2.4", 0, 0, 1, 2},
		{"score", 0, 0, 2, 3},
		{"0-5", 0, 0, 1, 0},
		{"", 0, 0, 1, core.Forever},
		{"2000000", 0, 0, 1, core.Forever},
		{"until_tomorrow_at_9am", 0, 0, 1, 33},
		{"until_tomorrow", 0, 6, 1, 18},
		{"until_today_at_9am", 0, 10, 1, 0},
		{"until_3_days_at_12pm", 0, 0, 1, 84},
		{"until_Monday_at_9am", 0, 0, 1, 33},
		{"until_Sun_at_1am", 0, 0, 1, 1},
		{"until_Sun_at_1am", 0, 2, 1, 167},
		{"until_Mar-20_at_2pm", 0, 0, 1, 134},
		{"until_03-16", 0, 0, 1, 24},
	}
	for _, tc := range tests {
		t.Run(tc.wait, func(t *testing.T) {
			f := newFixture(t)
			h, _ := f.build(t, "if state(FLU.A) then wait("+tc.wait+")")
			f.w.SetClock(tc.day, tc.hour)
			if got := h.Dwell(f.env, f.w.Agent(tc.a), 0); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

// A duration and an until-time share the one wait slot, so the later
// rule decides the dwell.
func TestDwellLastWaitWins(t *testing.T) {
	for _, tc := range []struct {
		first, second string
		want          int
	}{
		{"24", "until_tomorrow_at_6am", 30},
		{"until_tomorrow_at_6am", "24", 24},
	} {
		f := newFixture(t)
		h, rules := f.build(t,
			"if state(FLU.A) then wait("+tc.first+")",
			"if state(FLU.A) then wait("+tc.second+")",
		)
		if h.States[0].Wait != rules[1] || rules[0].HiddenBy != rules[1] {
			t.Fatalf("%s then %s: first wait not hidden", tc.first, tc.second)
		}
		f.w.SetClock(0, 0)
		if got := h.Dwell(f.env, f.w.Agent(1), 0); got != tc.want {
			t.Fatalf("%s then %s: got %d, want %d", tc.first, tc.second, got, tc.want)
		}
	}
}

func TestDwellWithoutWait(t *testing.T) {
	f := newFixture(t)
	h, _ := f.build(t,
		"if state(FLU.A) then next(B) with prob(0.5)",
		"if state(FLU.B) then default(C)",
		"if state(FLU.C) then default(C)",
	)
	for state, want := range []int{0, 0, core.Forever, core.Forever} {
		if got := h.Dwell(f.env, f.w.Agent(1), state); got != want {
			t.Fatalf("%d: %d", state, got)
		}
	}
}

func TestStep(t *testing.T) {
	f := newFixture(t)
	h, _ := f.build(t, "if state(FLU.B) then next(C)")
	cond := f.reg.ConditionID("FLU")
	f.w.Enter(1, cond, 1, 5)

	s := h.Step(f.env, f.w.Agent(1), 30)
	want := &history.Stride{Agent: 1, Cond: cond, From: 1, To: 2, At: 30}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatal(diff)
	}
}

func TestImports(t *testing.T) {
	f := newFixture(t)
	h, rules := f.build(t,
		"if state(FLU.A) then import_count(5)",
		"if state(FLU.A) then import_count(2+5)",
		"if state(FLU.A) then import_ages(10,20)",
		"if state(FLU.A) then import_list(list(1,2))",
		"if state(FLU.A) then import_location(40.4,-80,25)",
		"if state(FLU.A) then import_census_tract(42003020100)",
		"if state(FLU.A) then import_per_capita(0.001)",
		"if state(FLU.A) then count_all_import_attempts()",
	)
	if rules[0].HiddenBy != rules[1] {
		t.Fatal("import_count not hidden")
	}
	want := &history.Import{
		Count:     7,
		PerCapita: 0.001,
		Location:  true,
		Lat:       40.4,
		Lon:       -80,
		Radius:    25,
		Tract:     42003020100,
		Ages:      true,
		MinAge:    10,
		MaxAge:    20,
		List:      []int{1, 2},
		CountAll:  true,
	}
	got := h.Imports(f.env, 0)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
	if got.Empty() {
		t.Fatal("empty")
	}
	if h.Imports(f.env, 1) != nil {
		t.Fatal("B has imports")
	}
}

func TestNewErrors(t *testing.T) {
	f := newFixture(t)
	cond := f.reg.ConditionID("FLU")
	for name, spec := range map[string]*history.Spec{
		"name":  {Name: "INF", States: flu.States},
		"count": {Name: "FLU", States: flu.States[:2]},
		"order": {Name: "FLU", States: []*history.StateSpec{{Name: "B"}, {Name: "A"}, {Name: "C"}, {Name: "D"}}},
		"start": {Name: "FLU", States: flu.States, Start: "Z"},
	} {
		if _, err := history.New(f.reg, cond, spec, nil); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
	if _, err := history.New(f.reg, 9, flu, nil); err == nil {
		t.Fatal("expected an error")
	}
	h, err := history.New(f.reg, cond, &history.Spec{Name: "FLU", States: flu.States, Start: "C"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Start != 2 {
		t.Fatal(h.Start)
	}
}
