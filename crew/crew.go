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

// Package crew runs a compiled model over a population: one Machine
// per agent and condition, stepped hour by hour.
package crew

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/world"
)

// DefaultLimit is the default for Crew.Limit.
var DefaultLimit = 100

// ErrLimit is returned when set_state actions chain more than
// Crew.Limit deep.
var ErrLimit = errors.New("set_state limit exceeded")

// ActionHandler carries out the generic actions of action rules.
//
// *world.World is an ActionHandler.
type ActionHandler interface {
	Act(ctx context.Context, env *core.Env, id int, r *core.Rule) error
	Schedule(id int, r *core.Rule, entering bool)
}

// Event is a transition as emitted during a run.
type Event struct {
	Run string `json:"run"`
	*storage.Transition
}

// Emitter gets each transition once its hour is done.
type Emitter interface {
	Emit(ctx context.Context, e *Event) error
}

type Crew struct {
	sync.RWMutex

	Id       string              `json:"id"`
	Machines map[string]*Machine `json:"machines"`

	Program *model.Program `json:"-"`
	World   *world.World   `json:"-"`

	// Actions defaults to the World.
	Actions ActionHandler `json:"-"`

	Seed int64 `json:"seed"`

	// Shards is how many goroutines decide transitions.
	Shards int `json:"shards"`

	// Limit bounds the rounds of transitions in one hour and the
	// depth of set_state chains.
	Limit int `json:"limit"`

	Storage storage.Storage `json:"-"`
	Emitter Emitter         `json:"-"`

	// Hour is the current sim hour.
	Hour int `json:"hour"`

	// order holds the agents' machines by agent and then condition.
	order []*Machine

	// imports holds each condition's import agent or nil.
	imports []*Machine

	rngs  map[int]*rand.Rand
	known int
	seq   int
	depth int

	pending []*storage.Transition
	day     []*storage.Transition
}

// New makes a Crew for the Program's histories over the World.
//
// Every agent gets a Machine for each condition.  Each condition
// with an import start state gets an import agent.  Call Init before
// Run.
func New(id string, p *model.Program, w *world.World, seed int64) *Crew {
	c := &Crew{
		Id:       id,
		Machines: make(map[string]*Machine),
		Program:  p,
		World:    w,
		Actions:  w,
		Seed:     seed,
		Shards:   1,
		Limit:    DefaultLimit,
		Storage:  &storage.NoopStorage{},
		imports:  make([]*Machine, len(p.Histories)),
		rngs:     make(map[int]*rand.Rand),
	}
	for cond, h := range p.Histories {
		if h.ImportStart < 0 {
			continue
		}
		m := NewMachine(-1, cond)
		c.imports[cond] = m
		c.Machines[m.Id] = m
	}
	return c
}

// Copy gets a read lock and returns a copy of the crew's machines.
func (c *Crew) Copy() *Crew {
	c.RLock()
	ms := make(map[string]*Machine, len(c.Machines))
	for id, m := range c.Machines {
		ms[id] = m.Copy()
	}
	acc := &Crew{
		Id:       c.Id,
		Machines: ms,
		Seed:     c.Seed,
		Shards:   c.Shards,
		Limit:    c.Limit,
		Hour:     c.Hour,
	}
	c.RUnlock()
	return acc
}

// rng returns the agent's random stream.  Import agents use negative
// ids.
func (c *Crew) rng(id int) *rand.Rand {
	r, have := c.rngs[id]
	if !have {
		r = rand.New(rand.NewSource(c.Seed*1000003 + int64(id)))
		c.rngs[id] = r
	}
	return r
}

func (c *Crew) env(id int) *core.Env {
	return &core.Env{
		World: c.World,
		Rand:  c.rng(id),
	}
}

// Machine returns the agent's machine for the condition or nil.
func (c *Crew) Machine(agent, cond int) *Machine {
	return c.Machines[MachineId(agent, cond)]
}

// Census counts the living agents in each state of the condition.
func (c *Crew) Census(cond int) map[string]int {
	c.RLock()
	defer c.RUnlock()
	h := c.Program.Histories[cond]
	acc := make(map[string]int, len(h.States))
	for _, m := range c.order {
		if m.Cond != cond {
			continue
		}
		if a := c.World.Get(m.Agent); a == nil || !a.Alive() {
			continue
		}
		if 0 <= m.State {
			acc[h.States[m.State].Name]++
		}
	}
	return acc
}
