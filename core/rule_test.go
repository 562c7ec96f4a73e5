package core_test

import (
	"errors"
	"testing"

	. "github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

func TestRuleParse(t *testing.T) {
	tests := []struct {
		text   string
		kind   RuleKind
		action string
		args   string
		clause string
		next   string
	}{
		{"if state(INF.Exposed) then wait(24*3)", WaitRule, "wait", "24*3", "", ""},
		{"if state(INF.Exposed) then wait( 24 * 3 )", WaitRule, "wait", "24*3", "", ""},
		{"if state(INF.Exposed) then wait()", WaitRule, "wait", "999999", "", ""},
		{"if state(INF,Exposed) then wait(until_Monday_at_9am)", WaitRule, "wait_until", "Monday_at_9am", "", ""},
		{"if exposed(INF) then next(Exposed)", ExposureRule, "", "", "", "Exposed"},
		{"if state(INF.Exposed) then next(Infectious) with prob(0.3)", NextRule, "", "0.3", "", "Infectious"},
		{"if state(INF.Exposed) and(age>18) then next(Infectious)", NextRule, "", "1", "age>18", "Infectious"},
		{"if enter(INF.Exposed)  and(age > 18, is_employed)  then  next(Recovered) with prob(1 - 0.2)", NextRule, "", "1-0.2", "age>18,is_employed", "Recovered"},
		{"if state(INF.Exposed) then default(Recovered)", DefaultRule, "", "", "", "Recovered"},
		{"if state(INF.Infectious) then set(score, 2)", ActionRule, "set", "score,2", "", ""},
		{"if state(INF.Infectious) and(is_student) then quit(School)", ActionRule, "quit", "School", "is_student", ""},
		{"if state(INF.Infectious) then sus(0)", ActionRule, "set_sus", "INF,0", "", ""},
		{"if state(INF.Infectious) then trans(2)", ActionRule, "set_trans", "INF,2", "", ""},
		{"if state(INF.Infectious) then mult_sus(VAX,0.5)", ActionRule, "set_sus", "VAX,susceptibility_to_VAX*(0.5)", "", ""},
		{"if state(INF.Infectious) then mult_trans(VAX,1+1)", ActionRule, "set_trans", "VAX,transmissibility_for_VAX*(1+1)", "", ""},
		{"if state(INF.Infectious) then close()", ActionRule, "close", "", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			r, err := ParseRule(tc.text)
			if err != nil {
				t.Fatal(err)
			}
			if r.Kind != tc.kind {
				t.Fatalf("kind %s", r.Kind)
			}
			if r.ActionName != tc.action {
				t.Fatalf("action %q", r.ActionName)
			}
			if r.Args != tc.args {
				t.Fatalf("args %q", r.Args)
			}
			if r.ClauseText != tc.clause {
				t.Fatalf("clause %q", r.ClauseText)
			}
			if r.NextState != tc.next {
				t.Fatalf("next %q", r.NextState)
			}
			if r.Kind != ExposureRule && (r.Cond != "INF" || r.State == "") {
				t.Fatalf("state %s.%s", r.Cond, r.State)
			}
		})
	}
}

func TestRuleRewriteText(t *testing.T) {
	r, err := ParseRule("if state(INF.Infectious) then sus(0)")
	if err != nil {
		t.Fatal(err)
	}
	if want := "if state(INF.Infectious) then set_sus(INF,0)"; r.Text != want {
		t.Fatalf("%q", r.Text)
	}
}

func TestRuleParseErrors(t *testing.T) {
	for _, text := range []string{
		"state(INF.Exposed) then wait(1)",
		"if state(INF) then wait(1)",
		"if state(INF.Exposed) wait(1)",
		"if state(INF.Exposed) then next(Infectious) with 0.3",
		"if state(INF.Exposed) then next(Infectious) with prob()",
		"if state(INF.Exposed) then next()",
		"if exposed(INF) then next(Exposed) with prob(1)",
		"if state(INF.Exposed) then default()",
		"if state(INF.Exposed) or(is_student) then die()",
		"if state(INF.Exposed) then mult_sus(0.5)",
		"if state(INF.Exposed)",
	} {
		r, err := ParseRule(text)
		if err == nil {
			t.Fatalf("%q: expected an error", text)
		}
		var re *RuleError
		if !errors.As(err, &re) {
			t.Fatalf("%q: %T", text, err)
		}
		if r.Parsed() || r.Err == nil {
			t.Fatalf("%q: parsed", text)
		}
	}
}

func compileRule(t *testing.T, reg *Registry, text string) *Rule {
	t.Helper()
	r, err := ParseRule(text)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Compile(reg); err != nil {
		t.Fatalf("%s: %v", text, err)
	}
	return r
}

func TestRuleCompile(t *testing.T) {
	reg := newRegistry(t)
	inf := reg.ConditionID("INF")
	vax := reg.ConditionID("VAX")

	r := compileRule(t, reg, "if state(INF.Exposed) then next(Infectious) with prob(0.3)")
	if r.CondID != inf || r.StateID != 1 || r.NextStateID != 2 {
		t.Fatalf("%d %d %d", r.CondID, r.StateID, r.NextStateID)
	}

	r = compileRule(t, reg, "if exposed(INF) then next(Exposed)")
	if r.NextStateID != 1 || r.StateID != -1 {
		t.Fatal(r.NextStateID, r.StateID)
	}

	r = compileRule(t, reg, "if state(INF.Exposed) then wait(until_Mar-20_at_2pm)")
	if r.Until == nil || r.Until.Month != 3 || r.Until.Day != 20 || r.Until.Hour != 14 {
		t.Fatal(r.Until)
	}

	r = compileRule(t, reg, "if state(INF.Exposed) then set(score,3,age)")
	if r.Action != ActSet || r.Global || r.Expr2 == nil {
		t.Fatal(r.Action, r.Global)
	}

	r = compileRule(t, reg, "if state(INF.Exposed) then set(budget,0)")
	if !r.Global {
		t.Fatal("budget isn't global")
	}

	r = compileRule(t, reg, "if state(INF.Exposed) then set_list(contacts,list(1,2))")
	if r.Action != ActSetList || r.VarID != 0 {
		t.Fatal(r.Action, r.VarID)
	}

	r = compileRule(t, reg, "if state(INF.Exposed) then change_state(VAX,Unvaccinated,Vaccinated)")
	if r.Action != ActSetState || r.SrcCond != vax || r.SrcState != 0 || r.DestState != 1 {
		t.Fatal(r.Action, r.SrcCond, r.SrcState, r.DestState)
	}

	r = compileRule(t, reg, "if state(INF.Exposed) then fatal()")
	if r.Action != ActDieOld || !r.Action.IsFatal() {
		t.Fatal(r.Action)
	}

	r = compileRule(t, reg, "if state(INF.Infectious) then mult_sus(VAX,0.5)")
	if r.Action != ActSetSus || r.SrcCond != vax {
		t.Fatal(r.Action, r.SrcCond)
	}

	r = compileRule(t, reg, "if state(INF.Infectious) then close()")
	if len(r.Groups) != reg.NumGroupTypes() || !r.Action.IsSchedule() {
		t.Fatal(r.Groups)
	}

	r = compileRule(t, reg, "if state(INF.Infectious) then absent(School,Workplace)")
	if len(r.Groups) != 2 || r.Groups[0] != reg.GroupTypeID("School") {
		t.Fatal(r.Groups)
	}

	r = compileRule(t, reg, "if state(INF.Infectious) then randomize_network(Friends,3,5)")
	if r.GroupType != reg.NetworkID("Friends") || r.Expr2 == nil {
		t.Fatal(r.GroupType)
	}

	r = compileRule(t, reg, "if state(INF.Infectious) then import_location(40.4,-80,10)")
	if r.Expr3 == nil || !r.Action.IsImport() {
		t.Fatal(r.Action)
	}

	compileRule(t, reg, "if state(INF.Infectious) then count_all_import_attempts()")
	compileRule(t, reg, "if state(INF.Infectious) then import_list(list(1,2))")
	compileRule(t, reg, "if state(INF.Infectious) then add_edge_to(Friends,contacts)")
	compileRule(t, reg, "if state(INF.Infectious) then join(Household,5)")
	compileRule(t, reg, "if state(INF.Infectious) and(age>5) then report(age)")
	compileRule(t, reg, "if state(INF.Infectious) then give_birth()")
}

func TestRuleCompileErrors(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		text    string
		warning bool
		argc    bool
	}{
		{"if state(FLU.Sick) then wait(1)", true, false},
		{"if state(INF.Zombie) then wait(1)", true, false},
		{"if state(INF.Exposed) then next(Zombie)", true, false},
		{"if exposed(FLU) then next(Sick)", true, false},
		{"if state(INF.Exposed) then wait(until_Someday)", false, false},
		{"if state(INF.Exposed) then join(Nowhere)", false, false},
		{"if state(INF.Exposed) then join()", false, true},
		{"if state(INF.Exposed) then quit(Household,1)", false, true},
		{"if state(INF.Exposed) then set(score,1,2,3)", false, true},
		{"if state(INF.Exposed) then set(nothing,1)", false, false},
		{"if state(INF.Exposed) then set_list(contacts,5)", false, false},
		{"if state(INF.Exposed) then set_state(VAX,Unvaccinated)", false, true},
		{"if state(INF.Exposed) then set_state(VAX,Unvaccinated,Dead)", true, false},
		{"if state(INF.Exposed) then set_weight(Friends,1)", false, true},
		{"if state(INF.Exposed) then add_edge_to(Household,1)", false, false},
		{"if state(INF.Exposed) then randomize_network(Friends,3)", false, true},
		{"if state(INF.Exposed) then import_count(1,2)", false, true},
		{"if state(INF.Exposed) then import_list(5)", false, false},
		{"if state(INF.Exposed) then count_all_import_attempts(1)", false, true},
		{"if state(INF.Exposed) then close(Nowhere)", false, false},
		{"if state(INF.Exposed) then dance()", false, false},
		{"if state(INF.Exposed) and(is_tall) then die()", false, false},
		{"if state(INF.Exposed) then next(Infectious) with prob(2%3)", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			r, err := ParseRule(tc.text)
			if err != nil {
				t.Fatal(err)
			}
			err = r.Compile(reg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if r.Compiled() || r.Used {
				t.Fatal("compiled")
			}
			if r.IsWarning() != tc.warning {
				t.Fatalf("warning %v for %v", r.IsWarning(), err)
			}
			if isArgCount(err) != tc.argc {
				t.Fatalf("arg count %v for %v", isArgCount(err), err)
			}
		})
	}
}

func TestRuleCompileUnsealed(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.AddCondition("INF", "S", "I"); err != nil {
		t.Fatal(err)
	}
	r, err := ParseRule("if state(INF.S) then next(I)")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Compile(reg); !errors.Is(err, ErrNotSealed) {
		t.Fatal(err)
	}
	if err := NewRule("if state(INF.S) then next(I)").Compile(reg); !errors.Is(err, ErrNotParsed) {
		t.Fatal(err)
	}
}

func TestRuleValue(t *testing.T) {
	f := newFixture(t)
	r := compileRule(t, f.reg, "if state(INF.Exposed) and(age>18) then next(Infectious) with prob(0.3)")
	if got := r.Value(f.env, f.w.Agent(1)); got != 0.3 {
		t.Fatal(got)
	}
	if got := r.Value(f.env, f.w.Agent(2)); got != 0 {
		t.Fatal(got)
	}
	r = compileRule(t, f.reg, "if state(INF.Exposed) then next(Infectious)")
	if got := r.Value(f.env, f.w.Agent(2)); got != 1 {
		t.Fatal(got)
	}
	r = compileRule(t, f.reg, "if state(INF.Infectious) then mult_sus(INF,0.5)")
	if got := r.Expr.Eval(f.env, f.w.Agent(1), nil); got != 0.5 {
		t.Fatal(got)
	}
}

func TestRuleString(t *testing.T) {
	for in, want := range map[string]string{
		"if state(INF,Exposed) and( age>18 ) then next(Infectious)":  "if state(INF.Exposed) and(age>18) then next(Infectious) with prob(1)",
		"if state(INF.Exposed) then wait()":                          "if state(INF.Exposed) then wait(999999)",
		"if state(INF.Exposed) then wait(until_tomorrow)":            "if state(INF.Exposed) then wait(until_tomorrow)",
		"if exposed(INF) then next(Exposed)":                         "if exposed(INF) then next(Exposed)",
		"if state(INF.Exposed) then default(Recovered)":              "if state(INF.Exposed) then default(Recovered)",
		"if state(INF.Exposed) then trans(0)":                        "if state(INF.Exposed) then set_trans(INF,0)",
	} {
		r, err := ParseRule(in)
		if err != nil {
			t.Fatal(err)
		}
		if got := r.String(); got != want {
			t.Fatalf("%q != %q", got, want)
		}
	}
}

func TestRuleSlotsAndWarnings(t *testing.T) {
	reg := newRegistry(t)
	w1 := compileRule(t, reg, "if state(INF.Exposed) then wait(24)")
	w2 := compileRule(t, reg, "if state(INF.Exposed) then wait(until_tomorrow)")
	if w1.Slot() != "wait" || w1.Slot() != w2.Slot() {
		t.Fatal(w1.Slot(), w2.Slot())
	}
	s1 := compileRule(t, reg, "if state(INF.Exposed) then sus(0)")
	s2 := compileRule(t, reg, "if state(INF.Exposed) then set_sus(VAX,0)")
	if s1.Slot() == s2.Slot() {
		t.Fatal(s1.Slot())
	}
	if n := compileRule(t, reg, "if state(INF.Exposed) then next(Infectious)"); n.Slot() != "" {
		t.Fatal(n.Slot())
	}

	w1.Hide(w2)
	w2.Used = true
	if w1.HiddenBy != w2 {
		t.Fatal("not hidden")
	}
	if ws := w1.Warnings(); len(ws) != 1 {
		t.Fatal(ws)
	}
	if ws := w2.Warnings(); len(ws) != 0 {
		t.Fatal(ws)
	}
	if ws := s1.Warnings(); len(ws) != 1 {
		t.Fatal(ws)
	}
}

func TestActionNames(t *testing.T) {
	for i := ActWait; i <= ActImportList; i++ {
		a, ok := ParseAction(i.String())
		if !ok || a != i {
			t.Fatalf("%d: %s", i, i)
		}
	}
	if a, ok := ParseAction("die_old"); !ok || a != ActDieOld {
		t.Fatal(a)
	}
	if _, ok := ParseAction("dance"); ok {
		t.Fatal("dance")
	}
}
