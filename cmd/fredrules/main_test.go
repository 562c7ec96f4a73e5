package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage/sqlite"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util/testutil"
)

func write(t *testing.T, name, s string) string {
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(s), 0644))
	return filename
}

func execute(t *testing.T, in string, args ...string) (string, error) {
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetIn(strings.NewReader(in))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	seir := write(t, "seir.yaml", testutil.SEIR)
	out, err := execute(t, "", "-m", seir, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "14 rules, 0 errors")

	out, err = execute(t, "", "-m", seir, "check", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "text: if exposed(INF) then next(E)")

	bad := write(t, "bad.yaml", `name: bad
conditions:
  - name: X
    states: [{name: A}]
    rules:
      - if state(X.A) then wait(1
`)
	out, err = execute(t, "", "-m", bad, "check")
	assert.True(t, errors.Is(err, errHard), err)
	assert.Contains(t, out, "error: ")

	_, err = execute(t, "", "-m", bad, "run")
	assert.True(t, errors.Is(err, errHard), err)
}

func TestEval(t *testing.T) {
	seir := write(t, "seir.yaml", testutil.SEIR)
	out, err := execute(t, "", "-m", seir, "eval", "--agent", "3", "age*2")
	require.NoError(t, err)
	assert.Equal(t, "18\n", out)

	_, err = execute(t, "", "-m", seir, "eval", "--agent", "99", "age")
	assert.Error(t, err)

	_, err = execute(t, "", "-m", seir, "eval", "age+")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	seir := write(t, "seir.yaml", testutil.SEIR)

	out, err := execute(t, "", "-m", seir, "mermaid", "INF")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TB\n"), out)

	out, err = execute(t, "", "-m", seir, "dot", "INF")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")

	_, err = execute(t, "", "-m", seir, "dot", "FLU")
	assert.Error(t, err)

	out, err = execute(t, "", "-m", seir, "html", "--graph=false")
	require.NoError(t, err)
	assert.Contains(t, out, "<html")
	assert.NotContains(t, out, `class="mermaid"`)

	out, err = execute(t, "", "-m", seir, "analyze")
	require.NoError(t, err)
	assert.Contains(t, out, "INF:")
}

func TestRun(t *testing.T) {
	seir := write(t, "seir.yaml", testutil.SEIR)
	db := filepath.Join(t.TempDir(), "runs.db")
	state := filepath.Join(t.TempDir(), "state.json")

	out, err := execute(t, "", "-m", seir, "run", "--run", "r1", "--sqlite", db, "--state", state, "--shards", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	assert.Contains(t, lines[0], `"run":"r1"`)

	s, err := sqlite.NewStorage(db)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	defer s.Close(ctx)
	ts, err := s.Read(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, ts, 11)

	js, err := os.ReadFile(state)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"1/0"`)

	_, err = execute(t, "", "-m", seir, "run", "--bolt", "x.db", "--sqlite", db)
	assert.Error(t, err)
}

func TestExpect(t *testing.T) {
	seir := write(t, "seir.yaml", testutil.SEIR)
	session := write(t, "seir.test.yaml", `
steps:
  - days: 3
    outputSet:
      - {cause: exposure, count: 3}
      - {from: E, to: I, count: 3}
    census:
      - {cond: INF, state: I, count: 3}
`)
	out, err := execute(t, "", "-m", seir, "expect", session)
	require.NoError(t, err)
	assert.Equal(t, "1 steps passed\n", out)
}

func TestYAMLToJSON(t *testing.T) {
	out, err := execute(t, "name: tiny\ndays: 3\n", "yamltojson")
	require.NoError(t, err)
	assert.Equal(t, `{"days":3,"name":"tiny"}`+"\n", out)
}
