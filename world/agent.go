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

package world

import (
	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

// health is an agent's record for one condition.
type health struct {
	state   int
	entered []int
	ever    []bool

	sus, trans    float64
	transmissions int
	source        int
	exposedIn     int
	external      bool
}

// Agent is one member of the population.
type Agent struct {
	w *World

	id           int
	birthDay     int
	sex          byte
	race         int
	profile      int
	relationship int
	children     int
	traits       map[core.Trait]bool

	vars  []float64
	lists [][]float64

	conds []*health

	// groups maps group type to group id, -1 when none.
	groups []int
	admin  []bool
	host   []bool
	absent []bool

	in, out [][]core.Link

	alive bool
}

func newAgent(w *World, id int) *Agent {
	reg := w.reg
	a := &Agent{
		w:      w,
		id:     id,
		sex:    'F',
		traits: make(map[core.Trait]bool),
		vars:   make([]float64, reg.NumAgentVars()),
		lists:  make([][]float64, reg.NumAgentListVars()),
		conds:  make([]*health, reg.NumConditions()),
		groups: make([]int, reg.NumGroupTypes()),
		admin:  make([]bool, reg.NumGroupTypes()),
		host:   make([]bool, reg.NumGroupTypes()),
		absent: make([]bool, reg.NumGroupTypes()),
		in:     make([][]core.Link, reg.NumGroupTypes()),
		out:    make([][]core.Link, reg.NumGroupTypes()),
		alive:  true,
	}
	for c := range a.conds {
		n := reg.NumStates(c)
		h := &health{
			entered:   make([]int, n),
			ever:      make([]bool, n),
			sus:       1,
			trans:     1,
			source:    -1,
			exposedIn: -1,
		}
		for s := range h.entered {
			h.entered[s] = -1
		}
		a.conds[c] = h
	}
	for i := range a.groups {
		a.groups[i] = -1
	}
	return a
}

func (a *Agent) ID() int { return a.id }

func (a *Agent) BirthYear() int {
	return a.w.start.AddDate(0, 0, a.birthDay).Year()
}

func (a *Agent) AgeInDays() int {
	return a.w.day - a.birthDay
}

func (a *Agent) Age() int {
	return a.AgeInDays() / 365
}

func (a *Agent) Sex() byte                  { return a.sex }
func (a *Agent) Race() int                  { return a.race }
func (a *Agent) Profile() int               { return a.profile }
func (a *Agent) HouseholdRelationship() int { return a.relationship }
func (a *Agent) NumberOfChildren() int      { return a.children }
func (a *Agent) Has(t core.Trait) bool      { return a.traits[t] }

// Alive is false once a fatal action has run.
func (a *Agent) Alive() bool { return a.alive }

func (a *Agent) Var(id int) float64 {
	if id < 0 || len(a.vars) <= id {
		return 0
	}
	return a.vars[id]
}

func (a *Agent) ListVar(id int) []float64 {
	if id < 0 || len(a.lists) <= id {
		return nil
	}
	return a.lists[id]
}

func (a *Agent) health(cond int) *health {
	if cond < 0 || len(a.conds) <= cond {
		return nil
	}
	return a.conds[cond]
}

func (a *Agent) State(cond int) int {
	if h := a.health(cond); h != nil {
		return h.state
	}
	return -1
}

func (a *Agent) TimeEntered(cond, state int) int {
	h := a.health(cond)
	if h == nil || state < 0 || len(h.entered) <= state {
		return -1
	}
	return h.entered[state]
}

func (a *Agent) Susceptibility(cond int) float64 {
	if h := a.health(cond); h != nil {
		return h.sus
	}
	return 0
}

func (a *Agent) Transmissibility(cond int) float64 {
	if h := a.health(cond); h != nil {
		return h.trans
	}
	return 0
}

func (a *Agent) Transmissions(cond int) int {
	if h := a.health(cond); h != nil {
		return h.transmissions
	}
	return 0
}

func (a *Agent) Source(cond int) int {
	if h := a.health(cond); h != nil {
		return h.source
	}
	return -1
}

func (a *Agent) ExposureGroupType(cond int) int {
	if h := a.health(cond); h != nil {
		return h.exposedIn
	}
	return -1
}

func (a *Agent) ExposedExternally(cond int) bool {
	if h := a.health(cond); h != nil {
		return h.external
	}
	return false
}

func (a *Agent) groupID(gt int) int {
	if gt < 0 || len(a.groups) <= gt {
		return -1
	}
	return a.groups[gt]
}

func (a *Agent) Group(gt int) core.Group {
	id := a.groupID(gt)
	if id < 0 {
		return nil
	}
	if g := a.w.groups[id]; g != nil {
		return g
	}
	return nil
}

func (a *Agent) IsAdmin(gt int) bool {
	return 0 <= gt && gt < len(a.admin) && a.admin[gt]
}

func (a *Agent) IsHost(gt int) bool {
	return 0 <= gt && gt < len(a.host) && a.host[gt]
}

func (a *Agent) IsPresent(gt, day int) bool {
	return 0 <= a.groupID(gt) && !a.absent[gt]
}

func (a *Agent) Links(net int, dir core.Direction) []core.Link {
	if net < 0 || len(a.in) <= net {
		return nil
	}
	if dir == core.Inward {
		return a.in[net]
	}
	return a.out[net]
}

// SetTrait sets or clears a trait.
func (a *Agent) SetTrait(t core.Trait, on bool) {
	if on {
		a.traits[t] = true
	} else {
		delete(a.traits, t)
	}
}

// SetExposure records where and from whom the agent was exposed.  A
// negative source means an external exposure.
func (a *Agent) SetExposure(cond, source, groupType int) {
	h := a.health(cond)
	if h == nil {
		return
	}
	h.source, h.exposedIn = source, groupType
	h.external = source < 0
	if src := a.w.agent(source); src != nil {
		if sh := src.health(cond); sh != nil {
			sh.transmissions++
		}
	}
}

// enter puts the agent in the state at the given sim hour.
func (a *Agent) enter(cond, state, hour int) {
	h := a.health(cond)
	if h == nil || state < 0 || len(h.entered) <= state {
		return
	}
	h.state = state
	h.entered[state] = hour
	h.ever[state] = true
}

func removeLink(links []core.Link, other int) ([]core.Link, bool) {
	for i, l := range links {
		if l.Other == other {
			return append(links[:i], links[i+1:]...), true
		}
	}
	return links, false
}

func hasLink(links []core.Link, other int) bool {
	for _, l := range links {
		if l.Other == other {
			return true
		}
	}
	return false
}
