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

// Package world is an in-memory population of agents, places, and
// networks with a calendar.
//
// A World implements the read-only views that rule evaluation needs
// (core.World, core.Agent, core.Group) and also carries out the
// actions that rules call for.  A World is not safe for concurrent
// mutation.  Concurrent reads are fine between mutations.
package world

import (
	"sort"
	"time"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

// World is the whole simulated population.
type World struct {
	reg *core.Registry

	start time.Time
	day   int
	hour  int

	agents map[int]*Agent
	order  []int

	groups map[int]*Group
	// networks maps a network's group type to its group.
	networks map[int]*Group
	nextGroup int

	globals     []float64
	globalLists [][]float64

	// Reports collects report(...) values in order.
	Reports []Report

	// Births counts give_birth actions.
	Births int
}

// Report is one value written by a report(...) action.
type Report struct {
	Day   int     `json:"day"`
	Agent int     `json:"agent"`
	Rule  string  `json:"rule"`
	Value float64 `json:"value"`
}

// New makes an empty World whose calendar starts at start.  The
// Registry should be sealed.
func New(reg *core.Registry, start time.Time) *World {
	w := &World{
		reg:         reg,
		start:       start,
		agents:      make(map[int]*Agent),
		groups:      make(map[int]*Group),
		networks:    make(map[int]*Group),
		globals:     make([]float64, reg.NumGlobalVars()),
		globalLists: make([][]float64, reg.NumGlobalListVars()),
	}
	for gt := 0; gt < reg.NumGroupTypes(); gt++ {
		if reg.IsNetwork(gt) {
			w.networks[gt] = w.newGroup(gt)
		}
	}
	return w
}

// Registry returns the World's Registry.
func (w *World) Registry() *core.Registry {
	return w.reg
}

func (w *World) newGroup(gt int) *Group {
	g := &Group{
		w:     w,
		id:    w.nextGroup,
		typ:   gt,
		admin: -1,
	}
	w.groups[g.id] = g
	w.nextGroup++
	return g
}

// AddAgent adds an agent with the given id.  An existing agent with
// that id is returned as is.
func (w *World) AddAgent(id int) *Agent {
	if a, have := w.agents[id]; have {
		return a
	}
	a := newAgent(w, id)
	a.birthDay = w.day
	w.agents[id] = a
	w.order = append(w.order, id)
	return a
}

// AddPlace adds a place of the given place type.
func (w *World) AddPlace(gt int) *Group {
	return w.newGroup(gt)
}

// SetClock moves the calendar.
func (w *World) SetClock(day, hour int) {
	w.day, w.hour = day, hour
}

func (w *World) Day() int  { return w.day }
func (w *World) Hour() int { return w.hour }

func (w *World) Date() time.Time {
	return w.start.AddDate(0, 0, w.day)
}

// Start is the calendar date of sim day 0.
func (w *World) Start() time.Time {
	return w.start
}

func (w *World) agent(id int) *Agent {
	if a, have := w.agents[id]; have {
		return a
	}
	return nil
}

// Agent returns the agent with the id or nil.
func (w *World) Agent(id int) core.Agent {
	if a := w.agent(id); a != nil {
		return a
	}
	return nil
}

// Get returns the agent with the id or nil.
func (w *World) Get(id int) *Agent {
	return w.agent(id)
}

// AgentIDs returns the ids of all agents in the order they were
// added.
func (w *World) AgentIDs() []int {
	return w.order
}

func (w *World) group(id int) *Group {
	if g, have := w.groups[id]; have {
		return g
	}
	return nil
}

// Place returns the group with the id or nil.
func (w *World) Place(id int) core.Group {
	if g := w.group(id); g != nil {
		return g
	}
	return nil
}

// Network returns the group for a network type or nil.
func (w *World) Network(gt int) *Group {
	return w.networks[gt]
}

func (w *World) PopulationSize() int {
	n := 0
	for _, a := range w.agents {
		if a.alive {
			n++
		}
	}
	return n
}

func (w *World) StateCount(cond, state int, verb core.Verb) int {
	n := 0
	for _, a := range w.agents {
		if a.counts(cond, state, verb, w.day) {
			n++
		}
	}
	return n
}

func (w *World) GlobalVar(id int) float64 {
	if id < 0 || len(w.globals) <= id {
		return 0
	}
	return w.globals[id]
}

func (w *World) GlobalListVar(id int) []float64 {
	if id < 0 || len(w.globalLists) <= id {
		return nil
	}
	return w.globalLists[id]
}

// SetGlobalVar sets a global scalar variable.
func (w *World) SetGlobalVar(id int, x float64) {
	if 0 <= id && id < len(w.globals) {
		w.globals[id] = x
	}
}

// SetGlobalListVar sets a global list variable.
func (w *World) SetGlobalListVar(id int, xs []float64) {
	if 0 <= id && id < len(w.globalLists) {
		w.globalLists[id] = xs
	}
}

// Quantile ranks g's measure among the groups of its type.  Ties get
// the lower rank.
func (w *World) Quantile(g core.Group, m core.Measure, n int) int {
	wg, is := g.(*Group)
	if !is || n <= 0 {
		return 0
	}
	v := wg.measure(m)
	var below, count int
	for _, h := range w.groups {
		if h.typ != wg.typ {
			continue
		}
		count++
		if h.measure(m) < v {
			below++
		}
	}
	if count == 0 {
		return 0
	}
	return 1 + below*n/count
}

// Join puts the agent in the group and drops any previous group of
// the same type.
func (w *World) Join(id, groupID int) {
	a, g := w.agent(id), w.group(groupID)
	if a == nil || g == nil {
		return
	}
	if old := w.group(a.groupID(g.typ)); old != nil {
		old.remove(id)
	}
	a.groups[g.typ] = g.id
	g.add(id)
}

// Quit takes the agent out of its group of the given type.
func (w *World) Quit(id, gt int) {
	a := w.agent(id)
	if a == nil {
		return
	}
	if g := w.group(a.groupID(gt)); g != nil {
		g.remove(id)
	}
	if 0 <= gt && gt < len(a.groups) {
		a.groups[gt] = -1
		a.admin[gt] = false
		a.host[gt] = false
	}
}

// SetAdmin makes the agent its group's admin.
func (w *World) SetAdmin(id, gt int) {
	a := w.agent(id)
	if a == nil {
		return
	}
	if g := w.group(a.groupID(gt)); g != nil {
		g.admin = id
		a.admin[gt] = true
	}
}

// AddEdge links from to to in the network.  Undirected networks get
// the link both ways.
func (w *World) AddEdge(net, from, to int, weight float64) {
	a, b := w.agent(from), w.agent(to)
	if a == nil || b == nil || from == to || w.networks[net] == nil {
		return
	}
	w.link(a, b, net, weight)
	if w.undirected(net) {
		w.link(b, a, net, weight)
	}
}

func (w *World) link(a, b *Agent, net int, weight float64) {
	if hasLink(a.out[net], b.id) {
		return
	}
	a.out[net] = append(a.out[net], core.Link{Other: b.id, Weight: weight, Timestamp: w.day})
	b.in[net] = append(b.in[net], core.Link{Other: a.id, Weight: weight, Timestamp: w.day})
	g := w.networks[net]
	g.add(a.id)
	g.add(b.id)
}

// DeleteEdge removes the link from from to to.
func (w *World) DeleteEdge(net, from, to int) {
	a, b := w.agent(from), w.agent(to)
	if a == nil || b == nil || w.networks[net] == nil {
		return
	}
	w.unlink(a, b, net)
	if w.undirected(net) {
		w.unlink(b, a, net)
	}
}

func (w *World) unlink(a, b *Agent, net int) {
	a.out[net], _ = removeLink(a.out[net], b.id)
	b.in[net], _ = removeLink(b.in[net], a.id)
}

// SetWeight changes the weight of the link from from to to.
func (w *World) SetWeight(net, from, to int, weight float64) {
	a, b := w.agent(from), w.agent(to)
	if a == nil || b == nil || w.networks[net] == nil {
		return
	}
	setWeight(a.out[net], b.id, weight)
	setWeight(b.in[net], a.id, weight)
	if w.undirected(net) {
		setWeight(b.out[net], a.id, weight)
		setWeight(a.in[net], b.id, weight)
	}
}

func setWeight(links []core.Link, other int, weight float64) {
	for i := range links {
		if links[i].Other == other {
			links[i].Weight = weight
		}
	}
}

func (w *World) undirected(net int) bool {
	if gt := w.reg.GroupType(net); gt != nil {
		return gt.Undirected
	}
	return false
}

// Enter puts the agent in the state at the given sim hour.
func (w *World) Enter(id, cond, state, hour int) {
	if a := w.agent(id); a != nil {
		a.enter(cond, state, hour)
	}
}

// SetTransmissibility sets the agent's transmissibility for the
// condition.
func (w *World) SetTransmissibility(id, cond int, x float64) {
	if a := w.agent(id); a != nil {
		if h := a.health(cond); h != nil {
			h.trans = x
		}
	}
}

// Alive lists the ids of living agents in order.
func (w *World) Alive() []int {
	acc := make([]int, 0, len(w.order))
	for _, id := range w.order {
		if w.agents[id].alive {
			acc = append(acc, id)
		}
	}
	return acc
}

// GroupsOfType returns the ids of the groups of a type in id order.
func (w *World) GroupsOfType(gt int) []int {
	var acc []int
	for id, g := range w.groups {
		if g.typ == gt {
			acc = append(acc, id)
		}
	}
	sort.Ints(acc)
	return acc
}
