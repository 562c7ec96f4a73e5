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

// Group is a place or a network.
type Group struct {
	w *World

	id      int
	typ     int
	members []int
	admin   int

	income    float64
	elevation float64
	lat, lon  float64

	// blockGroup is the 12-digit block group code.  The other
	// admin codes are its prefixes.
	blockGroup  int64
	adiState    int
	adiNational int

	closed bool
}

func (g *Group) ID() int   { return g.id }
func (g *Group) Type() int { return g.typ }
func (g *Group) Size() int { return len(g.members) }

func (g *Group) Members() []int {
	return g.members
}

func (g *Group) Admin() int { return g.admin }

func (g *Group) IsOpen(day int) bool {
	return !g.closed
}

func (g *Group) StateCount(cond, state int, verb core.Verb) int {
	n := 0
	for _, id := range g.members {
		if a := g.w.agent(id); a != nil && a.counts(cond, state, verb, g.w.day) {
			n++
		}
	}
	return n
}

func (g *Group) Sum(varID int) float64 {
	acc := 0.0
	for _, id := range g.members {
		if a := g.w.agent(id); a != nil {
			acc += a.Var(varID)
		}
	}
	return acc
}

func (g *Group) Income() float64    { return g.income }
func (g *Group) Elevation() float64 { return g.elevation }
func (g *Group) Latitude() float64  { return g.lat }
func (g *Group) Longitude() float64 { return g.lon }

func (g *Group) AdminCode(level core.AdminLevel) int64 {
	switch level {
	case core.BlockGroup:
		return g.blockGroup
	case core.CensusTract:
		return g.blockGroup / 10
	case core.County:
		return g.blockGroup / 10000000
	case core.State:
		return g.blockGroup / 10000000000
	}
	return 0
}

func (g *Group) ADIRank(national bool) int {
	if national {
		return g.adiNational
	}
	return g.adiState
}

func (g *Group) measure(m core.Measure) float64 {
	switch m {
	case core.Size, core.SizeQuartile, core.SizeQuintile:
		return float64(g.Size())
	case core.Income, core.IncomeQuartile, core.IncomeQuintile:
		return g.income
	case core.Elevation, core.ElevationQuartile, core.ElevationQuintile:
		return g.elevation
	case core.Latitude:
		return g.lat
	case core.Longitude:
		return g.lon
	}
	return 0
}

func (g *Group) add(id int) {
	for _, m := range g.members {
		if m == id {
			return
		}
	}
	g.members = append(g.members, id)
}

func (g *Group) remove(id int) {
	for i, m := range g.members {
		if m == id {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return
		}
	}
}

// counts reports whether the agent counts toward a state count.
func (a *Agent) counts(cond, state int, verb core.Verb, day int) bool {
	h := a.health(cond)
	if h == nil || state < 0 || len(h.entered) <= state {
		return false
	}
	switch verb {
	case core.Current:
		return a.alive && h.state == state
	case core.Total:
		return h.ever[state]
	case core.Incidence:
		return h.ever[state] && 0 <= h.entered[state] && h.entered[state]/24 == day
	}
	return false
}
