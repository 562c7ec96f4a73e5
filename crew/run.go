/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package crew

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// Cause of a transition.
const (
	CauseStep     = "step"
	CauseExposure = "exposure"
	CauseImport   = "import"
	CauseSetState = "set_state"
)

// Init puts every agent in each condition's start state and makes the
// run in Storage.
func (c *Crew) Init(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	if err := c.Storage.MakeRun(ctx, c.Id); err != nil {
		return err
	}
	c.World.SetClock(c.Hour/24, c.Hour%24)
	c.adopt()
	for _, m := range c.imports {
		if m != nil {
			m.Due = c.Hour
		}
	}
	util.Logf("crew %s: %d machines", c.Id, len(c.Machines))
	return nil
}

// adopt makes machines for agents the crew hasn't seen yet.
func (c *Crew) adopt() {
	ids := c.World.AgentIDs()
	for _, id := range ids[c.known:] {
		env := c.env(id)
		a := c.World.Get(id)
		for cond, h := range c.Program.Histories {
			m := NewMachine(id, cond)
			c.Machines[m.Id] = m
			c.order = append(c.order, m)
			if h.Transmissibility != 0 {
				c.World.SetTransmissibility(id, cond, h.Transmissibility)
			}
			m.State, m.Entered = h.Start, c.Hour
			c.World.Enter(id, cond, h.Start, c.Hour)
			if a.Alive() {
				m.wait(c.Hour, h.Dwell(env, a, h.Start))
			} else {
				m.Due = Never
			}
		}
	}
	c.known = len(ids)
}

// Run advances the crew the given number of days.
func (c *Crew) Run(ctx context.Context, days int) error {
	for d := 0; d < days; d++ {
		if err := c.Day(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Day advances the crew 24 hours and writes the day's transitions to
// Storage.
func (c *Crew) Day(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	for h := 0; h < 24; h++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.tick(ctx); err != nil {
			return err
		}
		c.Hour++
	}
	day := c.day
	c.day = nil
	if err := c.Storage.Write(ctx, c.Id, day); err != nil {
		return fmt.Errorf("crew %s day %d: %w", c.Id, c.Hour/24-1, err)
	}
	return nil
}

// tick does the transitions due at the current hour.
//
// Each round decides every due transition in parallel and then
// applies them one at a time in machine order.  Transitions into
// states with no dwell are due again at once, so rounds continue
// until nothing is due or Limit rounds have run.
func (c *Crew) tick(ctx context.Context) error {
	c.World.SetClock(c.Hour/24, c.Hour%24)

	for _, m := range c.imports {
		if m == nil {
			continue
		}
		for i := 0; m.IsDue(c.Hour) && i < c.Limit; i++ {
			if err := c.stepImport(ctx, m); err != nil {
				return err
			}
		}
	}

	for round := 0; ; round++ {
		due := c.due()
		if len(due) == 0 {
			break
		}
		if c.Limit <= round {
			util.Warnf("crew %s hour %d: %d transitions deferred after %d rounds", c.Id, c.Hour, len(due), round)
			break
		}
		strides, err := c.decide(ctx, due)
		if err != nil {
			return err
		}
		for i, m := range due {
			s := strides[i]
			if m.State != s.From || !m.IsDue(c.Hour) {
				// Moved by a set_state earlier in the round.
				continue
			}
			if a := c.World.Get(m.Agent); a == nil || !a.Alive() {
				continue
			}
			if err := c.apply(ctx, m, s.To, CauseStep); err != nil {
				return err
			}
		}
		c.adopt()
	}

	return c.flush(ctx)
}

// due returns the agents' machines that should move now.
func (c *Crew) due() []*Machine {
	var acc []*Machine
	for _, m := range c.order {
		if !m.IsDue(c.Hour) {
			continue
		}
		if a := c.World.Get(m.Agent); a == nil || !a.Alive() {
			m.Due = Never
			continue
		}
		c.rng(m.Agent)
		acc = append(acc, m)
	}
	return acc
}

// decide picks the next state of each machine.
//
// Machines are sharded by agent so that each agent's random stream is
// used by only one goroutine, in machine order.  Nothing is written
// to the World here.
func (c *Crew) decide(ctx context.Context, due []*Machine) ([]*history.Stride, error) {
	var (
		strides = make([]*history.Stride, len(due))
		shards  = c.Shards
	)
	if shards < 1 {
		shards = 1
	}

	// Machines of the same agent are adjacent in due.
	starts := make([]int, 0, len(due))
	for i, m := range due {
		if i == 0 || due[i-1].Agent != m.Agent {
			starts = append(starts, i)
		}
	}
	starts = append(starts, len(due))

	g, ctx := errgroup.WithContext(ctx)
	for s := 0; s < shards; s++ {
		s := s
		g.Go(func() error {
			for k := s; k < len(starts)-1; k += shards {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := starts[k]; i < starts[k+1]; i++ {
					m := due[i]
					h := c.Program.Histories[m.Cond]
					env := &core.Env{
						World: c.World,
						Rand:  c.rngs[m.Agent],
					}
					strides[i] = h.Step(env, c.World.Agent(m.Agent), c.Hour)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return strides, nil
}

// apply moves an agent's machine to a state and runs the state's
// actions.
func (c *Crew) apply(ctx context.Context, m *Machine, to int, cause string) error {
	var (
		h   = c.Program.Histories[m.Cond]
		a   = c.World.Get(m.Agent)
		env = c.env(m.Agent)
	)

	if 0 <= m.State {
		for _, r := range h.States[m.State].Schedule {
			c.Actions.Schedule(m.Agent, r, false)
		}
	}

	t := c.record(m, to, cause)
	c.World.Enter(m.Agent, m.Cond, to, c.Hour)
	m.State, m.Entered = to, c.Hour

	s := h.States[to]
	for _, r := range s.Actions {
		if !a.Alive() {
			break
		}
		if !r.Guard(env, a) {
			continue
		}
		var err error
		if r.Action == core.ActSetState {
			err = c.setState(ctx, m.Agent, r)
		} else {
			err = c.Actions.Act(ctx, env, m.Agent, r)
		}
		if err != nil {
			return fmt.Errorf("agent %d %s: %w", m.Agent, r.Text, err)
		}
	}

	if !a.Alive() {
		c.retire(m.Agent)
		t.Dwell = core.Forever
		return nil
	}

	for _, r := range s.Schedule {
		if r.Guard(env, a) {
			c.Actions.Schedule(m.Agent, r, true)
		}
	}

	if m.State != to {
		// A set_state moved this machine again.
		return nil
	}
	dwell := h.Dwell(env, a, to)
	m.wait(c.Hour, dwell)
	t.Dwell = dwell
	return nil
}

// setState does a set_state action for the agent.
func (c *Crew) setState(ctx context.Context, id int, r *core.Rule) error {
	m := c.Machine(id, r.SrcCond)
	if m == nil || m.State != r.SrcState {
		return nil
	}
	if c.Limit <= c.depth {
		return ErrLimit
	}
	c.depth++
	defer func() { c.depth-- }()
	return c.apply(ctx, m, r.DestState, CauseSetState)
}

// retire stops all of a dead agent's machines.
func (c *Crew) retire(id int) {
	for cond := range c.Program.Histories {
		if m := c.Machine(id, cond); m != nil {
			m.Due = Never
		}
	}
}

func (c *Crew) record(m *Machine, to int, cause string) *storage.Transition {
	h := c.Program.Histories[m.Cond]
	from := ""
	if 0 <= m.State {
		from = h.States[m.State].Name
	}
	c.seq++
	t := &storage.Transition{
		Seq:   c.seq,
		Day:   c.Hour / 24,
		Hour:  c.Hour,
		Agent: m.Agent,
		Cond:  h.Name,
		From:  from,
		To:    h.States[to].Name,
		Cause: cause,
	}
	c.pending = append(c.pending, t)
	return t
}

// flush emits the hour's transitions.
func (c *Crew) flush(ctx context.Context) error {
	ts := c.pending
	c.pending = nil
	c.day = append(c.day, ts...)
	if c.Emitter == nil {
		return nil
	}
	for _, t := range ts {
		if err := c.Emitter.Emit(ctx, &Event{Run: c.Id, Transition: t}); err != nil {
			return err
		}
	}
	return nil
}
