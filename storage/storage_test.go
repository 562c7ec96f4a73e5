package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	var (
		s   Storage = &NoopStorage{}
		ctx         = context.Background()
	)
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.MakeRun(ctx, "x"))
	require.NoError(t, s.Write(ctx, "x", []*Transition{{Seq: 1}}))
	ts, err := s.Read(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, ts)
	require.NoError(t, s.RemRun(ctx, "x"))
	require.NoError(t, s.Close(ctx))
}

func TestTransitionString(t *testing.T) {
	tr := &Transition{Seq: 4, Day: 2, Hour: 53, Agent: 7, Cond: "INF", From: "E", To: "I", Cause: "step"}
	require.Equal(t, "4 2:05 agent 7 INF E->I (step)", tr.String())
}
