package core_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

func TestExpressionArithmetic(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		text string
		want float64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"2^3^2", 64},
		{"-3+4", 1},
		{"5/0", 0},
		{"3*-2", -6},
		{"3*(0-2)", -6},
		{"--3", 3},
		{"-(2+3)", -5},
		{"max(2,7)", 7},
		{"min(2,7)-1", 1},
		{"abs(-4)", 4},
		{"pow(2,10)", 1024},
		{"equal(3,3)", 1},
		{"equal(3,4)", 0},
		{"log(1)", 0},
		{"log(0)", LogOfNonPositive},
		{"exp(0)", 1},
		{"uniform(2,2)", 2},
		{"lognormal(5,1)", 5},
		{"geometric(0)", 0},
		{"10 - 2 - 3", 5},
		{"12/3/2", 2},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			if got := f.eval(t, tc.text, 1); got != tc.want {
				t.Fatalf("%s = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestExpressionPrefixForm(t *testing.T) {
	reg := newRegistry(t)
	e := MustCompileExpression(reg, "2+3*4")
	if got, want := e.String(), "add(2,mult(3,4))"; got != want {
		t.Fatalf("%s != %s", got, want)
	}
	if e.IsList() {
		t.Fatal("scalar is a list")
	}
}

func TestExpressionFactors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		text string
		id   int
		want float64
	}{
		{"age", 1, 30},
		{"age_in_years", 2, 10},
		{"sex", 1, 1},
		{"sex", 2, 0},
		{"score", 1, 5},
		{"budget", 1, 100},
		{"budget*2", 0, 200},
		{"list_size_of_contacts", 1, 2},
		{"list_size_of_targets", 1, 2},
		{"current_state_in_INF", 1, 2},
		{"current_state_in_INF", 2, 0},
		{"current_count_of_INF.Infectious", 1, 1},
		{"current_count_of_INF.Infectious_in_Household", 2, 1},
		{"current_percent_of_INF.Infectious_in_Household", 2, 50},
		{"current_count_of_INF.Infectious_in_Household_excluding_me", 1, 0},
		{"current_count_of_INF.Infectious_in_Household", 3, 0},
		{"sum_of_score_in_Household", 1, 12},
		{"ave_of_score_in_Household", 1, 6},
		{"admin_of_Household", 3, 3},
		{"admin_of_Household", 1, -1},
		{"size_of_Household", 1, 2},
		{"income_of_Household", 1, 50000},
		{"income_quartile_of_Household", 1, 3},
		{"income_quartile_of_Household", 3, 1},
		{"county_of_Household", 1, 42003},
		{"state_of_Household", 1, 42},
		{"Workplace", 1, -1},
		{"degree_of_Friends", 1, 2},
		{"in_degree_of_Follows", 1, 1},
		{"out_degree_of_Follows", 2, 1},
		{"degree_of_Follows", 1, 1},
		{"id_of_max_weight_outward_edge_in_Friends", 1, 3},
		{"id_of_min_weight_outward_edge_in_Friends", 1, 2},
		{"id_of_last_inward_edge_in_Follows", 2, NoAgent},
		{"id_of_source_of_INF", 1, NoAgent},
		{"susceptibility_to_INF", 1, 1},
		{"month", 1, 3},
		{"day_of_month", 1, 15},
		{"date", 1, 315},
		{"year", 1, 2020},
		{"day_of_week", 1, 0},
		{"sim_day", 1, 0},
		{"male+female", 1, 1},
		{"Mar", 1, 3},
		{"value(3,age)", 1, 40},
		{"value(Household,age)", 3, 40},
		{"value(Household,age)", 1, 0},
		{"dist(Household,value(3,Household))", 1, 0.1 * 110.996},
		{"dist(Household,99)", 1, NoDistance},
		{"distance(0,0,0,1)", 1, 87.832},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got := f.eval(t, tc.text, tc.id)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("%s for %d = %v, want %v", tc.text, tc.id, got, tc.want)
			}
		})
	}
}

func TestExpressionNoAgent(t *testing.T) {
	f := newFixture(t)
	for text, want := range map[string]float64{
		"age":                 0,
		"Household":           -1,
		"id_of_source_of_INF": NoAgent,
		"budget":              100,
		"sim_day":             0,
	} {
		e := MustCompileExpression(f.reg, text)
		if got := e.Eval(f.env, nil, nil); got != want {
			t.Fatalf("%s = %v, want %v", text, got, want)
		}
	}
}

func TestExpressionTwoAgent(t *testing.T) {
	f := newFixture(t)
	a1, a2, a3 := f.w.Agent(1), f.w.Agent(2), f.w.Agent(3)
	tests := []struct {
		text     string
		a, other Agent
		want     float64
	}{
		{"other:age", a1, a2, 10},
		{"age-other:age", a3, a1, 10},
		{"is_connected_in_Friends", a1, a2, 1},
		{"is_connected_in_Friends", a2, a1, 1},
		{"is_connected_in_Friends", a2, a3, 0},
		{"is_connected_in_Follows", a1, a2, 0},
		{"is_connected_in_Follows", a2, a1, 1},
		{"edge_weight_in_Friends", a1, a3, 5},
		{"edge_weight_in_Friends", a2, a3, 0},
		{"edge_timestamp_in_Friends", a2, a3, -1},
		{"edge_timestamp_in_Friends", a1, nil, -1},
	}
	for _, tc := range tests {
		e := MustCompileExpression(f.reg, tc.text)
		if got := e.Eval(f.env, tc.a, tc.other); got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestExpressionLists(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		text string
		id   int
		want []float64
	}{
		{"list(1,2,3)", 1, []float64{1, 2, 3}},
		{"list(list(1,2),3)", 1, []float64{1, 2, 3}},
		{"list(1+1)", 1, []float64{2}},
		{"contacts", 1, []float64{2, 3}},
		{"targets", 1, []float64{3, 1}},
		{"pool(Household)", 1, []float64{1, 2}},
		{"pool(Household,School)", 1, []float64{1, 2}},
		{"filter(list(3,1,2,3,1),other:age>18)", 1, []float64{3, 1}},
		{"filter(contacts,other:sex==female,other:age<18)", 1, []float64{2}},
		{"filter(pool(Household),is_connected_in_Friends==1)", 1, []float64{2}},
		{"filter(list(1,2,3),is_connected_in_Friends==1)", 1, []float64{2, 3}},
		{"filter(list(1,2,3),gt(other:score,6-2))", 1, []float64{1, 2}},
		{"filter(list(1,2,3),gt(other:score,0-1))", 1, []float64{1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			e, err := CompileExpression(f.reg, tc.text)
			if err != nil {
				t.Fatal(err)
			}
			if !e.IsList() {
				t.Fatalf("%s isn't a list", tc.text)
			}
			got := e.EvalList(f.env, f.w.Agent(tc.id), nil)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestExpressionSelect(t *testing.T) {
	f := newFixture(t)
	for text, want := range map[string]float64{
		"select(list(10,20,30),1)":   20,
		"select(list(10,20,30),0)":   10,
		"select(list(10,20,30),5)":   Missing,
		"select(list(10,20,30),0-1)": Missing,
		"select(contacts,1)":         3,
		"list(7,8)":                  7,
	} {
		if got := f.eval(t, text, 1); got != want {
			t.Fatalf("%s = %v, want %v", text, got, want)
		}
	}
}

func TestExpressionSelectPreference(t *testing.T) {
	f := newFixture(t)
	e := MustCompileExpression(f.reg, "select(contacts,pref(other:age))")
	// Weights are 11 for agent 2 and 41 for agent 3.
	for x, want := range map[float64]float64{
		0:    2,
		0.2:  2,
		0.5:  3,
		0.99: 3,
	} {
		r := &countingRand{x: x}
		env := &Env{World: f.w, Rand: r}
		if got := e.Eval(env, f.w.Agent(1), nil); got != want {
			t.Fatalf("draw %v: got %v, want %v", x, got, want)
		}
		if r.n != 1 {
			t.Fatalf("%d draws", r.n)
		}
	}
}

func TestExpressionLognormal(t *testing.T) {
	f := newFixture(t)
	e := MustCompileExpression(f.reg, "lognormal(5,2)")
	for norm, want := range map[float64]float64{
		0:  5,
		1:  10,
		-1: 2.5,
	} {
		r := &countingRand{norm: norm}
		env := &Env{World: f.w, Rand: r}
		got := e.Eval(env, f.w.Agent(1), nil)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("normal draw %v: got %v, want %v", norm, got, want)
		}
		if r.n != 1 {
			t.Fatalf("%d draws", r.n)
		}
	}

	// A sigma of log(1) takes no draw.
	r := &countingRand{norm: 1}
	env := &Env{World: f.w, Rand: r}
	if got := MustCompileExpression(f.reg, "lognormal(5,1)").Eval(env, f.w.Agent(1), nil); got != 5 || r.n != 0 {
		t.Fatal(got, r.n)
	}
}

func TestExpressionErrors(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		text    string
		check   func(error) bool
		warning bool
	}{
		{"5%2", isParseError, false},
		{"(1+2", isParseError, false},
		{"1+2)", isParseError, false},
		{"2-", nil, false},
		{"max(1)", isArgCount, false},
		{"value(1)", isArgCount, false},
		{"distance(1,2,3)", isArgCount, false},
		{"foo(1)", isUnknown, false},
		{"bogus_name", isUnknown, false},
		{"pool(Nowhere)", isUnknown, false},
		{"select(1,2)", isParseError, false},
		{"filter(3,age>1)", isParseError, false},
		// Infix comparisons in a filter can't take arithmetic.
		{"filter(list(1,2,3),other:score>-1)", nil, false},
		{"current_state_in_FLU", isUnknown, true},
		{"current_count_of_INF.Dead", isUnknown, true},
		{"sum_of_nothing_in_Household", isUnknown, false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			_, err := CompileExpression(reg, tc.text)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.check != nil && !tc.check(err) {
				t.Fatalf("unexpected error %T: %v", err, err)
			}
			if IsWarning(err) != tc.warning {
				t.Fatalf("warning %v for %v", IsWarning(err), err)
			}
		})
	}
}

func isParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

func isArgCount(err error) bool {
	var e *ArgCountError
	return errors.As(err, &e)
}

func isUnknown(err error) bool {
	var e *UnknownName
	return errors.As(err, &e)
}
