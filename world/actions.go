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
	"context"
	"fmt"
	"math"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// Act carries out an action rule for the agent.
//
// set_state is left to the caller, which owns the agent's state
// timing.  Import and schedule actions aren't dispatched here either;
// see Schedule.
func (w *World) Act(ctx context.Context, env *core.Env, id int, r *core.Rule) error {
	a := w.agent(id)
	if a == nil {
		return fmt.Errorf("no agent %d", id)
	}
	if !a.alive {
		return nil
	}

	switch r.Action {
	case core.ActGiveBirth:
		w.giveBirth(a)

	case core.ActDie, core.ActDieOld:
		w.kill(a)

	case core.ActJoin:
		w.join(env, a, r)

	case core.ActQuit:
		if w.reg.IsNetwork(r.GroupType) {
			w.quitNetwork(a, r.GroupType)
		} else {
			w.Quit(a.id, r.GroupType)
		}

	case core.ActAddEdgeFrom, core.ActAddEdgeTo, core.ActDeleteEdgeFrom, core.ActDeleteEdgeTo:
		for _, other := range ids(env, a, r.Expr) {
			switch r.Action {
			case core.ActAddEdgeFrom:
				w.AddEdge(r.GroupType, other, a.id, 1)
			case core.ActAddEdgeTo:
				w.AddEdge(r.GroupType, a.id, other, 1)
			case core.ActDeleteEdgeFrom:
				w.DeleteEdge(r.GroupType, other, a.id)
			case core.ActDeleteEdgeTo:
				w.DeleteEdge(r.GroupType, a.id, other)
			}
		}

	case core.ActSet:
		x := r.Expr.Eval(env, a, nil)
		if r.Global {
			w.SetGlobalVar(r.VarID, x)
			break
		}
		target := a
		if r.Expr2 != nil {
			if target = w.agent(int(r.Expr2.Eval(env, a, nil))); target == nil {
				break
			}
		}
		if 0 <= r.VarID && r.VarID < len(target.vars) {
			target.vars[r.VarID] = x
		}

	case core.ActSetList:
		xs := r.Expr.EvalList(env, a, nil)
		if r.Global {
			w.SetGlobalListVar(r.VarID, xs)
		} else if 0 <= r.VarID && r.VarID < len(a.lists) {
			a.lists[r.VarID] = xs
		}

	case core.ActSetSus:
		if h := a.health(r.SrcCond); h != nil {
			h.sus = r.Expr.Eval(env, a, nil)
		}

	case core.ActSetTrans:
		if h := a.health(r.SrcCond); h != nil {
			h.trans = r.Expr.Eval(env, a, nil)
		}

	case core.ActSetWeight:
		other := int(r.Expr.Eval(env, a, nil))
		w.SetWeight(r.GroupType, a.id, other, r.Expr2.Eval(env, a, nil))

	case core.ActReport:
		w.Reports = append(w.Reports, Report{
			Day:   w.day,
			Agent: a.id,
			Rule:  r.Text,
			Value: r.Expr.Eval(env, a, nil),
		})

	case core.ActRandomizeNetwork:
		mean := r.Expr.Eval(env, a, nil)
		max := int(r.Expr2.Eval(env, a, nil))
		w.RandomizeNetwork(env.Rand, r.GroupType, mean, max)

	case core.ActSetState, core.ActChangeState:
	default:
		if r.Action.IsImport() || r.Action.IsSchedule() {
			break
		}
		return fmt.Errorf("unsupported action %s", r.Action)
	}

	util.Logf("agent %d did %s", a.id, r.Text)
	return nil
}

// ids evaluates an id or a list of ids.
func ids(env *core.Env, a core.Agent, x *core.Expression) []int {
	if x.IsList() {
		xs := x.EvalList(env, a, nil)
		acc := make([]int, len(xs))
		for i, v := range xs {
			acc[i] = int(v)
		}
		return acc
	}
	return []int{int(x.Eval(env, a, nil))}
}

func (w *World) join(env *core.Env, a *Agent, r *core.Rule) {
	gt := r.GroupType
	if g := w.networks[gt]; g != nil {
		g.add(a.id)
		a.groups[gt] = g.id
		return
	}
	if r.Expr != nil {
		g := w.group(int(r.Expr.Eval(env, a, nil)))
		if g == nil || g.typ != gt {
			return
		}
		w.Join(a.id, g.id)
		return
	}
	a.absent[gt] = false
}

func (w *World) quitNetwork(a *Agent, net int) {
	for _, l := range append([]core.Link(nil), a.out[net]...) {
		w.DeleteEdge(net, a.id, l.Other)
	}
	for _, l := range append([]core.Link(nil), a.in[net]...) {
		w.DeleteEdge(net, l.Other, a.id)
	}
	if g := w.networks[net]; g != nil {
		g.remove(a.id)
	}
	a.groups[net] = -1
}

func (w *World) kill(a *Agent) {
	a.alive = false
	for gt := range a.groups {
		if w.reg.IsNetwork(gt) {
			w.quitNetwork(a, gt)
		} else {
			w.Quit(a.id, gt)
		}
	}
}

func (w *World) giveBirth(mother *Agent) {
	w.Births++
	id := 0
	for _, other := range w.order {
		if id <= other {
			id = other + 1
		}
	}
	baby := w.AddAgent(id)
	baby.relationship = core.RelationshipChild
	baby.profile = 0
	if hh := w.reg.PlaceTypeID("Household"); 0 <= hh {
		if g := mother.groupID(hh); 0 <= g {
			w.Join(id, g)
		}
	}
	mother.children++
}

// Schedule applies an absent, present, or close action.  Entering is
// true when the agent enters the state that carries the action and
// false when it leaves.
func (w *World) Schedule(id int, r *core.Rule, entering bool) {
	a := w.agent(id)
	if a == nil {
		return
	}
	for _, gt := range r.Groups {
		switch r.Action {
		case core.ActAbsent:
			a.absent[gt] = entering
		case core.ActPresent:
			a.absent[gt] = !entering && a.absent[gt]
		case core.ActClose:
			if g := w.group(a.groupID(gt)); g != nil {
				g.closed = entering
			}
		}
	}
}

// RandomizeNetwork replaces the network's edges with random ones so
// that the mean degree is about mean and no agent has more than max
// links.
func (w *World) RandomizeNetwork(rng core.Rand, net int, mean float64, max int) {
	g := w.networks[net]
	if g == nil {
		return
	}
	for _, id := range w.order {
		a := w.agents[id]
		a.in[net], a.out[net] = nil, nil
	}
	g.members = nil

	alive := w.Alive()
	n := len(alive)
	if n < 2 || mean <= 0 || max <= 0 {
		return
	}
	edges := int(math.Round(mean * float64(n) / 2))
	degree := make(map[int]int, n)
	for tries := 0; 0 < edges && tries < 100*n; tries++ {
		x := alive[int(rng.Float64()*float64(n))%n]
		y := alive[int(rng.Float64()*float64(n))%n]
		if x == y || max <= degree[x] || max <= degree[y] || hasLink(w.agents[x].out[net], y) {
			continue
		}
		w.AddEdge(net, x, y, 1)
		degree[x]++
		degree[y]++
		edges--
	}
}
