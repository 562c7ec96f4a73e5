package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util/testutil"
)

func TestParseSEIR(t *testing.T) {
	m, err := Parse([]byte(testutil.SEIR))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "seir" || m.Seed != 7 || m.Days != 30 {
		t.Fatal(testutil.JS(m))
	}
	if len(m.Conditions) != 1 || len(m.Conditions[0].States) != 7 {
		t.Fatal(testutil.JS(m.Conditions))
	}
	if c := m.Conditions[0]; c.Start != "S" || c.ImportStart != "Import" || !c.States[4].Dormant {
		t.Fatal(testutil.JS(c))
	}
	if len(m.Networks) != 1 || !m.Networks[0].Undirected {
		t.Fatal(testutil.JS(m.Networks))
	}
	if m.Population == nil || len(m.Population.Agents) != 10 {
		t.Fatal("population")
	}
	if a := m.Population.Agents[2]; a.Places["School"] != 10 || a.Traits[0] != "student" {
		t.Fatal(testutil.JS(a))
	}
	start, err := m.StartDate()
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatal(start)
	}
}

func TestCompileSEIR(t *testing.T) {
	m, err := Parse([]byte(testutil.SEIR))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.Compile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Errors) != 0 {
		t.Fatal(p.Errors)
	}
	if len(p.Rules) != 14 {
		t.Fatal(len(p.Rules))
	}
	if unused := p.Unused(); len(unused) != 0 {
		t.Fatal(unused)
	}
	h := p.History("INF")
	if h == nil || p.History("FLU") != nil {
		t.Fatal("History")
	}
	if h.Start != 0 || h.ImportStart != 5 || h.ExposedState != 1 {
		t.Fatal(h.Start, h.ImportStart, h.ExposedState)
	}
	if s := h.State("I"); s.Wait == nil || s.Default != 3 || len(s.Schedule) != 1 || len(s.Actions) != 2 {
		t.Fatal(s)
	}
	if s := h.State("R"); len(s.Actions) != 1 || s.Actions[0].Action != core.ActReport {
		t.Fatal(s.Actions)
	}
	if !h.State("Dead").Fatal {
		t.Fatal("Dead isn't fatal")
	}

	w, err := p.World()
	if err != nil {
		t.Fatal(err)
	}
	if w.PopulationSize() != 10 {
		t.Fatal(w.PopulationSize())
	}
}

func TestCompileErrors(t *testing.T) {
	m := &Model{
		Name:       "bad",
		PlaceTypes: []string{"Household"},
		Vars:       []string{"score"},
		Conditions: []*history.Spec{{
			Name:   "INF",
			States: []*history.StateSpec{{Name: "S"}, {Name: "I"}},
			Rules: []string{
				"if state(INF.S) then next(I) with prob(0.1)",
				"if state(INF.S) then next(Zombie)",
				"if state(INF.S) then join(Nowhere)",
				"if state(INF.S) then wait(1",
			},
		}},
		Rules: []string{
			"if state(FLU.S) then wait(1)",
			"nonsense",
		},
	}
	p, err := m.Compile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Errors) != 5 {
		t.Fatal(p.Errors)
	}
	if hard := p.HardErrors(); len(hard) != 3 {
		t.Fatal(hard)
	}
	if unused := p.Unused(); len(unused) != 5 {
		t.Fatal(unused)
	}
	if !p.Rules[0].Used {
		t.Fatal("good rule unused")
	}
}

func TestModelErrors(t *testing.T) {
	for name, m := range map[string]*Model{
		"start": {Start: "March 15"},
		"dup condition": {Conditions: []*history.Spec{
			{Name: "INF", States: []*history.StateSpec{{Name: "S"}}},
			{Name: "INF", States: []*history.StateSpec{{Name: "S"}}},
		}},
		"dup place type": {PlaceTypes: []string{"Household", "Household"}},
		"dup var":        {Vars: []string{"x"}, GlobalVars: []string{"y", "y"}},
		"start state": {Conditions: []*history.Spec{
			{Name: "INF", States: []*history.StateSpec{{Name: "S"}}, Start: "Q"},
		}},
	} {
		if _, err := m.Compile(context.Background()); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &Model{Rules: []string{"if state(INF.S) then wait(1)"}}
	if _, err := m.Compile(ctx); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "seir.yaml")
	if err := os.WriteFile(filename, []byte(testutil.SEIR), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "seir" {
		t.Fatal(m.Name)
	}
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatal("expected an error")
	}

	js := filepath.Join(dir, "tiny.json")
	if err := os.WriteFile(js, []byte(`{"name":"tiny","conditions":[{"name":"X","states":[{"name":"A"}]}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if m, err = Load(js); err != nil {
		t.Fatal(err)
	}
	if m.Conditions[0].States[0].Name != "A" {
		t.Fatal(testutil.JS(m))
	}
}
