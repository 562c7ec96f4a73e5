package tools

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util/testutil"
)

type buffer struct {
	bytes.Buffer
	closed bool
}

func (b *buffer) Close() error {
	b.closed = true
	return nil
}

func compile(t *testing.T, src string) *model.Program {
	m, err := model.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.Compile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func contains(t *testing.T, s string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(s, want) {
			t.Fatalf("no %q in\n%s", want, s)
		}
	}
}

func TestDot(t *testing.T) {
	p := compile(t, testutil.SEIR)
	out := &buffer{}
	if err := Dot(p.History("INF"), out, "E", "I"); err != nil {
		t.Fatal(err)
	}
	if !out.closed {
		t.Fatal("not closed")
	}
	contains(t, out.String(),
		"digraph G {",
		`"S" -> "E" [ color="orange" label = <exposed> ]`,
		`"E" -> "I" [ color="red"`,
		`"I" -> "Dead" [ color="black"`,
		`"I" -> "R" [ color="gray" label = <default> ]`,
		`"Dead" [shape="note"`,
		`"I" [shape="note", style="filled", color="red"`,
		`"S" [shape="record", style="filled,bold"`)
}

func TestMermaid(t *testing.T) {
	p := compile(t, testutil.SEIR)
	out := &buffer{}
	if err := Mermaid(p.History("INF"), out, nil, "", "R"); err != nil {
		t.Fatal(err)
	}
	contains(t, out.String(),
		"graph TB\n",
		`  n0("S")`,
		`  n2["I"]`,
		"  style n2 fill:#bcf2db",
		"  n0 -. exposed .-> n1",
		"  n2 -- default --> n3",
		"  style n3 stroke:#f00")
}

func TestAnalyzeSEIR(t *testing.T) {
	p := compile(t, testutil.SEIR)
	a, err := Analyze(p.History("INF"))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Errors) != 0 || len(a.Unreachable) != 0 || len(a.Unused) != 0 || len(a.Hidden) != 0 {
		t.Fatal(testutil.JS(a))
	}
	if a.StateCount != 7 || a.NextRules != 3 || a.Guards != 1 || a.Actions != 4 {
		t.Fatal(testutil.JS(a))
	}
	if got := strings.Join(a.Terminal, ","); got != "S,R,Dead,Seeded" {
		t.Fatal(got)
	}
	if got := strings.Join(a.Dormant, ","); got != "Dead" {
		t.Fatal(got)
	}
}

const broken = `
name: broken
conditions:
  - name: X
    states: [{name: A}, {name: B}, {name: C}, {name: Z}]
    rules:
      - if state(X.A) then next(B)
      - if state(X.B) then wait(24)
      - if state(X.C) then wait(1)
      - if state(X.C) then wait(2)
      - if state(X.Z) then import_count(1)
  - name: Y
    states: [{name: P}, {name: Q}]
    rules:
      - if state(Y.P) then set_state(X,A,C)
`

func TestAnalyzeProgram(t *testing.T) {
	p := compile(t, broken)

	a, err := Analyze(p.History("X"))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Errors) != 3 {
		t.Fatal(a.Errors)
	}
	if got := strings.Join(a.Unreachable, ","); got != "C,Z" {
		t.Fatal(got)
	}
	if len(a.Hidden) != 1 || a.Hidden[0] != "if state(X.C) then wait(1)" {
		t.Fatal(a.Hidden)
	}

	as, err := AnalyzeProgram(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(as["X"].Unreachable, ","); got != "Z" {
		t.Fatal(got)
	}
	if got := strings.Join(as["Y"].Unreachable, ","); got != "Q" {
		t.Fatal(got)
	}
}

func TestRenderPage(t *testing.T) {
	p := compile(t, testutil.SEIR)
	var out bytes.Buffer
	if err := RenderPage(p, &out, []string{"model.css"}, true); err != nil {
		t.Fatal(err)
	}
	contains(t, out.String(),
		"<title>seir</title>",
		`<link href="model.css" rel="stylesheet">`,
		"<em>SEIR</em>",
		`<pre class="mermaid">`,
		`<span id="INF.Import" class="stateName">Import</span>`,
		`<span class="flag">import start</span>`,
		`<span class="flag">fatal</span>`,
		`<a href="#INF.R"><code>R</code></a>`)
	if strings.Contains(out.String(), "Unused rules") {
		t.Fatal("unused rules")
	}
}

func TestReadAndRenderPage(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "seir.yaml")
	if err := os.WriteFile(filename, []byte(testutil.SEIR), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := ReadAndRenderPage(filename, nil, &out, false); err != nil {
		t.Fatal(err)
	}
	contains(t, out.String(), "/static/model-html.css", "<h2>INF</h2>")
	if strings.Contains(out.String(), "mermaid") {
		t.Fatal("graph without includeGraph")
	}

	if err := ReadAndRenderPage(filename+".nope", nil, &out, false); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDumpRules(t *testing.T) {
	p := compile(t, broken)
	var out bytes.Buffer
	if err := DumpRules(p.Rules, &out); err != nil {
		t.Fatal(err)
	}
	var got []RuleSummary
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(p.Rules) {
		t.Fatal(len(got))
	}
	if s := got[0]; s.Kind != "next" || s.Cond != "X" || s.Next != "B" || !s.Used || s.Compiled == "" {
		t.Fatal(testutil.JS(s))
	}
	if s := got[2]; s.HiddenBy != "if state(X.C) then wait(2)" || s.Used {
		t.Fatal(testutil.JS(s))
	}
}
