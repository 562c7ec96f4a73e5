package expect

import (
	"context"
	"errors"
	"testing"

	"github.com/jsccast/yaml"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util/testutil"
)

var session = `
doc: SEIR outbreak from three imported cases.
steps:
  - doc: day 0
    days: 1
    outputSet:
      - {cause: exposure, from: S, to: E, count: 3}
      - {cause: import}
      - {to: I, inverted: true}
    census:
      - {cond: INF, state: S, count: 7}
      - {cond: INF, state: E, count: 3}
    globals:
      cases: 0
  - doc: infectious
    days: 2
    outputSet:
      - {cond: INF, from: E, to: I, count: 3}
    census:
      - {cond: INF, state: I, count: 3}
    globals:
      cases: 3
  - doc: over
    days: 27
    outputSet:
      - {from: I, count: 3}
      - {to: E, inverted: true}
    census:
      - {cond: INF, state: S, count: 7}
      - {cond: INF, state: E, count: 0}
      - {cond: INF, state: I, count: 0}
`

func program(t *testing.T) *model.Program {
	m, err := model.Parse([]byte(testutil.SEIR))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.Compile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func parse(t *testing.T, src string) *Session {
	var s *Session
	if err := yaml.Unmarshal([]byte(src), &s); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExpectSEIR(t *testing.T) {
	s := parse(t, session)
	if len(s.Steps) != 3 {
		t.Fatal(testutil.JS(s))
	}
	if err := s.Run(context.Background(), program(t)); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Steps[1].OutputSet[0].Matched); n != 3 {
		t.Fatal(n)
	}
}

func TestExpectFailure(t *testing.T) {
	s := parse(t, session)
	s.Steps[1].Census[0].Count = 10
	s.Steps[1].Globals["bogus"] = 1

	err := s.Run(context.Background(), program(t))
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatal(err)
	}
	if f.Step != 1 || f.Doc != "infectious" {
		t.Fatal(f)
	}
}

func TestOutputCheck(t *testing.T) {
	tr := &storage.Transition{Cond: "INF", From: "S", To: "E", Cause: "exposure"}
	for name, o := range map[string]*Output{
		"empty":    {},
		"cond":     {Cond: "INF"},
		"to":       {To: "E"},
		"inverted": {Cause: "step", Inverted: true},
	} {
		if o.Matches(tr) {
			o.Matched = append(o.Matched, tr)
		}
		if err := o.check(); err != nil {
			t.Fatalf("%s: %s", name, err)
		}
	}
	for name, o := range map[string]*Output{
		"none":     {From: "I"},
		"count":    {Count: 2},
		"inverted": {To: "E", Inverted: true},
	} {
		if o.Matches(tr) {
			o.Matched = append(o.Matched, tr)
		}
		if err := o.check(); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
